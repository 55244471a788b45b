package config

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// overrideLine matches: rice = 0.12
var overrideLine = regexp.MustCompile(`^\s*([^=#]+?)\s*=\s*([0-9]*\.?[0-9]+)\s*$`)

// LoadMarketOverrides reads the market pace override file.
// A missing file yields an empty map.
func LoadMarketOverrides(path string) (map[string]float64, error) {
	if path == "" {
		return map[string]float64{}, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]float64{}, nil
		}
		return nil, fmt.Errorf("failed to read market overrides: %w", err)
	}

	return parseMarketOverrides(string(content)), nil
}

// parseMarketOverrides extracts name = pace pairs. Lines that do not match,
// comments and non-positive paces are ignored. Names are lower-cased.
func parseMarketOverrides(content string) map[string]float64 {
	out := make(map[string]float64)

	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		line := scanner.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		match := overrideLine.FindStringSubmatch(line)
		if len(match) < 3 {
			continue
		}
		pace, err := strconv.ParseFloat(match[2], 64)
		if err != nil || pace <= 0 {
			continue
		}
		out[strings.ToLower(strings.TrimSpace(match[1]))] = pace
	}

	return out
}

package market

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/sync/errgroup"

	"github.com/j-veylop/stockpace/internal/logger"
	"github.com/j-veylop/stockpace/internal/metrics"
	"github.com/j-veylop/stockpace/internal/models"
)

const breakerName = "market-pace"

// PaceSource looks up market data for an item name.
type PaceSource interface {
	Lookup(ctx context.Context, itemName string) (models.MarketData, error)
}

// CategorySource is implemented by sources that can summarize categories.
type CategorySource interface {
	CategorySummary(category string) models.CategorySummary
	Categories() []string
}

// EventType defines the type of market provider event.
type EventType int

const (
	// EventMarketUpdated indicates that fresh market data was cached.
	EventMarketUpdated EventType = iota
	// EventMarketError indicates that a lookup failed or was rejected.
	EventMarketError
	// EventBreakerChanged indicates that the circuit breaker changed state.
	EventBreakerChanged
)

// Event represents a market provider event.
type Event struct {
	Error    error
	Data     *models.MarketData
	ItemName string
	State    string
	Type     EventType
}

// Config holds configuration for the provider.
type Config struct {
	CacheTTL         time.Duration
	MaxConcurrent    int
	BreakerFailures  uint32
	BreakerTimeout   time.Duration
	BreakerMaxProbes uint32
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		CacheTTL:         time.Hour,
		MaxConcurrent:    4,
		BreakerFailures:  5,
		BreakerTimeout:   30 * time.Second,
		BreakerMaxProbes: 1,
	}
}

type cacheEntry struct {
	data      models.MarketData
	fetchedAt time.Time
}

// Provider serves market paces from a cache in front of a PaceSource.
// When the source fails or the breaker is open it reports an unavailable
// result with a zero pace.
type Provider struct {
	source    PaceSource
	cb        *gobreaker.CircuitBreaker[models.MarketData]
	cache     map[string]cacheEntry
	eventChan chan Event
	config    Config
	now       func() time.Time
	mu        sync.RWMutex

	hits     atomic.Int64
	misses   atomic.Int64
	failures atomic.Int64
}

// NewProvider creates a provider around source.
func NewProvider(source PaceSource, config Config) *Provider {
	def := DefaultConfig()
	if config.CacheTTL <= 0 {
		config.CacheTTL = def.CacheTTL
	}
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = def.MaxConcurrent
	}
	if config.BreakerFailures == 0 {
		config.BreakerFailures = def.BreakerFailures
	}
	if config.BreakerTimeout <= 0 {
		config.BreakerTimeout = def.BreakerTimeout
	}
	if config.BreakerMaxProbes == 0 {
		config.BreakerMaxProbes = def.BreakerMaxProbes
	}

	p := &Provider{
		source:    source,
		cache:     make(map[string]cacheEntry),
		eventChan: make(chan Event, 100),
		config:    config,
		now:       time.Now,
	}

	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)
	p.cb = gobreaker.NewCircuitBreaker[models.MarketData](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: config.BreakerMaxProbes,
		Timeout:     config.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= config.BreakerFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("market circuit breaker state change", "name", name, "from", from.String(), "to", to.String())
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
			p.sendEvent(Event{Type: EventBreakerChanged, State: to.String()})
		},
	})

	return p
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// Events returns the event channel.
func (p *Provider) Events() <-chan Event {
	return p.eventChan
}

// Lookup returns market data for itemName, serving from cache when fresh.
func (p *Provider) Lookup(ctx context.Context, itemName string) models.MarketData {
	key := normalizeName(itemName)

	p.mu.RLock()
	cached, ok := p.cache[key]
	p.mu.RUnlock()

	if ok && p.now().Sub(cached.fetchedAt) < p.config.CacheTTL {
		p.hits.Add(1)
		metrics.RecordMarketLookup("hit")
		data := cached.data
		data.ItemName = itemName
		return data
	}

	p.misses.Add(1)
	metrics.RecordMarketLookup("miss")

	data, err := p.fetch(ctx, itemName)
	if err != nil {
		return unavailable(itemName, p.now())
	}
	return data
}

// MarketPace returns just the pace for itemName; zero means no market data.
func (p *Provider) MarketPace(ctx context.Context, itemName string) float64 {
	data := p.Lookup(ctx, itemName)
	return data.AverageConsumptionPerDay
}

// fetch queries the source through the breaker and caches a success.
func (p *Provider) fetch(ctx context.Context, itemName string) (models.MarketData, error) {
	data, err := p.cb.Execute(func() (models.MarketData, error) {
		return p.source.Lookup(ctx, itemName)
	})
	if err != nil {
		p.failures.Add(1)
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.RecordMarketLookup("rejected")
		} else {
			metrics.RecordMarketLookup("failure")
			logger.Warn("market lookup failed", "item", itemName, "error", err)
		}
		p.sendEvent(Event{Type: EventMarketError, ItemName: itemName, Error: err})
		return models.MarketData{}, fmt.Errorf("failed to look up market pace for %q: %w", itemName, err)
	}

	p.mu.Lock()
	p.cache[normalizeName(itemName)] = cacheEntry{data: data, fetchedAt: p.now()}
	p.mu.Unlock()

	p.sendEvent(Event{Type: EventMarketUpdated, ItemName: itemName, Data: &data})
	return data, nil
}

// RefreshAll refetches the given names, bypassing the cache. It returns the
// first lookup error after every name has been attempted.
func (p *Provider) RefreshAll(ctx context.Context, names []string) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.config.MaxConcurrent)

	var (
		errMu    sync.Mutex
		firstErr error
	)
	for _, name := range names {
		g.Go(func() error {
			if _, err := p.fetch(gctx, name); err != nil {
				errMu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				errMu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return firstErr
}

// Invalidate clears the cache.
func (p *Provider) Invalidate() {
	p.mu.Lock()
	p.cache = make(map[string]cacheEntry)
	p.mu.Unlock()
}

// CategorySummary delegates to the source when it supports categories.
func (p *Provider) CategorySummary(category string) (models.CategorySummary, bool) {
	cs, ok := p.source.(CategorySource)
	if !ok {
		return models.CategorySummary{}, false
	}
	return cs.CategorySummary(category), true
}

// Categories lists the source categories, if any.
func (p *Provider) Categories() []string {
	if cs, ok := p.source.(CategorySource); ok {
		return cs.Categories()
	}
	return nil
}

func unavailable(itemName string, now time.Time) models.MarketData {
	return models.MarketData{
		ItemName:    itemName,
		DataSource:  models.SourceUnavailable,
		LastUpdated: now,
	}
}

// sendEvent sends an event to the event channel non-blocking.
func (p *Provider) sendEvent(event Event) {
	select {
	case p.eventChan <- event:
	default:
		// Channel full, drop oldest
		select {
		case <-p.eventChan:
		default:
		}
		select {
		case p.eventChan <- event:
		default:
		}
	}
}

// Stats returns statistics about the provider.
type Stats struct {
	CachedItems  int
	Hits         int64
	Misses       int64
	Failures     int64
	BreakerState string
}

// GetStats returns current statistics.
func (p *Provider) GetStats() Stats {
	p.mu.RLock()
	cached := len(p.cache)
	p.mu.RUnlock()

	return Stats{
		CachedItems:  cached,
		Hits:         p.hits.Load(),
		Misses:       p.misses.Load(),
		Failures:     p.failures.Load(),
		BreakerState: p.cb.State().String(),
	}
}

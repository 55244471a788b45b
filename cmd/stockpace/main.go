// Package main is the entry point for stockpace. It runs the terminal
// dashboard by default, or only the HTTP API with the serve command.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/stockpace/internal/api"
	"github.com/j-veylop/stockpace/internal/app"
	"github.com/j-veylop/stockpace/internal/config"
	"github.com/j-veylop/stockpace/internal/logger"
	"github.com/j-veylop/stockpace/internal/services"
	"github.com/j-veylop/stockpace/internal/ui/tabs/alerts"
	"github.com/j-veylop/stockpace/internal/ui/tabs/dashboard"
	"github.com/j-veylop/stockpace/internal/ui/tabs/history"
	"github.com/j-veylop/stockpace/internal/ui/tabs/info"
	"github.com/j-veylop/stockpace/internal/version"
)

func main() {
	var cmd string
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	var err error
	switch cmd {
	case "-v", "--version", "version":
		fmt.Println(version.Info())
		return
	case "-h", "--help", "help":
		printUsage()
		return
	case "serve":
		err = serve()
	case "":
		err = run()
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", cmd)
		printUsage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newAPI builds the HTTP API on top of the running services.
func newAPI(mgr *services.Manager) *api.Server {
	return api.New(mgr.Market(),
		api.WithBackend(mgr),
		api.WithForecastDays(mgr.Config().ForecastDays),
		api.WithVersion(version.GetVersion()),
	)
}

// run starts the terminal dashboard, plus the API when API_ADDR is set.
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// The terminal belongs to the TUI, so logs go to a file.
	logFile, err := os.OpenFile(cfg.LogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer logFile.Close()
	logger.Init(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Output: logFile})
	logger.Info("starting stockpace", "version", version.Info())

	mgr, err := services.NewManager(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	defer closeManager(mgr, logFile)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.APIAddr != "" {
		srv := newAPI(mgr)
		go func() {
			if err := srv.ListenAndServe(ctx, cfg.APIAddr); err != nil {
				logger.Error("API server failed", "addr", cfg.APIAddr, "error", err)
			}
		}()
	}

	model := app.NewModel(mgr)
	state := model.GetState()
	model.SetTabs([]app.Tab{
		dashboard.New(state, cfg.ForecastDays),
		alerts.New(state),
		history.New(state, mgr),
		info.New(state, cfg, mgr.Market()),
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	go func() {
		select {
		case <-sigChan:
			p.Send(tea.Quit())
		case <-ctx.Done():
		}
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}

// serve runs only the HTTP API until interrupted.
func serve() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger.Init(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	addr := cfg.APIAddr
	if addr == "" {
		addr = config.DefaultServeAddr
	}

	mgr, err := services.NewManager(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	defer closeManager(mgr, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("starting stockpace API", "version", version.Info(), "addr", addr)
	return newAPI(mgr).ListenAndServe(ctx, addr)
}

func closeManager(mgr *services.Manager, w io.Writer) {
	if err := mgr.Close(); err != nil {
		fmt.Fprintf(w, "Warning: error closing services: %v\n", err)
	}
}

func printUsage() {
	fmt.Println(`stockpace - household consumable forecasting and restock advice

Usage:
  stockpace [command]

Commands:
  (none)          Run the terminal dashboard
  serve           Run only the HTTP API
  version         Show version information
  help            Show this help message

Keyboard Shortcuts:
  1-4             Switch tabs (Dashboard, Alerts, History, Info)
  Tab/Shift+Tab   Navigate between tabs
  j/k, Up/Down    Navigate lists
  u / b           Use one unit / restock the selected item
  n / x           Add / remove an item
  a / d / m       Acknowledge / dismiss a recommendation, mark alerts read
  t               Cycle the history range
  e               Re-evaluate now
  r               Refresh data
  ?               Toggle help
  q, Ctrl+C       Quit

Environment Variables:
  PANTRY_PATH             Pantry JSON file (default: ~/.config/stockpace/pantry.json)
  DATABASE_PATH           SQLite database path
  MARKET_OVERRIDES_PATH   Market pace overrides file
  REFRESH_INTERVAL        Re-evaluation interval (default: 15m)
  FORECAST_DAYS           Forecast horizon in days, 1-365 (default: 30)
  API_ADDR                Serve the HTTP API on this address
  LOG_LEVEL               debug, info, warn or error (default: info)
  LOG_FORMAT              json or console (default: json)
  LOG_PATH                Log file used while the dashboard runs
  NOTIFICATIONS           Desktop alerts for urgent items (default: true)

Configuration:
  .env files are read from the current directory, ~/.config/stockpace/.env
  and ~/.stockpace/.env.`)
}

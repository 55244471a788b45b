// Package api exposes the analysis, recommendation and market services,
// and optionally the live pantry, over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/j-veylop/stockpace/internal/logger"
	"github.com/j-veylop/stockpace/internal/models"
	"github.com/j-veylop/stockpace/internal/services/analysis"
)

const (
	defaultForecastDays = 30
	shutdownTimeout     = 10 * time.Second
)

// MarketSource resolves market pace data.
type MarketSource interface {
	Lookup(ctx context.Context, itemName string) models.MarketData
	CategorySummary(category string) (models.CategorySummary, bool)
	Categories() []string
}

// Backend is the live pantry behind the item and recommendation endpoints.
type Backend interface {
	Items() []models.Item
	AddItem(item models.Item) (models.Item, error)
	UpdateItem(item models.Item) error
	DeleteItem(itemID string) error
	RecordConsumption(itemID string, quantity float64, note string) error
	Restock(itemID string, quantity int) error
	ItemAdvice(ctx context.Context, itemID string) (models.ItemAdvice, error)
	ItemHistory(ctx context.Context, itemID string, tr models.TimeRange) (*models.ItemHistory, error)
	Recommendations(ctx context.Context, activeOnly bool) ([]models.StoredRecommendation, error)
	Recommendation(ctx context.Context, id int64) (*models.StoredRecommendation, error)
	RecommendationSummary(ctx context.Context) (*models.RecommendationSummary, error)
	AcknowledgeRecommendation(ctx context.Context, id int64) error
	DismissRecommendation(ctx context.Context, id int64) error
	Notifications(ctx context.Context, unreadOnly bool) ([]models.Notification, error)
	MarkNotificationRead(ctx context.Context, id string) error
	MarkAllNotificationsRead(ctx context.Context) error
}

// Server holds the dependencies of the HTTP handlers.
type Server struct {
	analyzer     *analysis.Analyzer
	market       MarketSource
	backend      Backend
	forecastDays int
	version      string
	started      time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithBackend mounts the pantry endpoints backed by b.
func WithBackend(b Backend) Option {
	return func(s *Server) { s.backend = b }
}

// WithAnalyzer replaces the default analyzer.
func WithAnalyzer(a *analysis.Analyzer) Option {
	return func(s *Server) { s.analyzer = a }
}

// WithForecastDays sets the horizon used when a forecast request omits it.
func WithForecastDays(days int) Option {
	return func(s *Server) {
		if days > 0 {
			s.forecastDays = days
		}
	}
}

// WithVersion sets the version reported by /health.
func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

// New creates a Server using market for pace lookups.
func New(market MarketSource, opts ...Option) *Server {
	s := &Server{
		analyzer:     analysis.New(),
		market:       market,
		forecastDays: defaultForecastDays,
		started:      time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler builds the chi router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(requestMetrics)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusNotFound, ErrCodeNotFound, "Route not found", nil)
	})

	r.Get("/health", s.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/analyze", s.Analyze)
		r.Post("/pace", s.Pace)
		r.Post("/forecast", s.Forecast)

		r.Post("/recommend", s.Recommend)
		r.Post("/recommend/batch", s.RecommendBatch)

		r.Route("/market", func(r chi.Router) {
			r.Get("/search", s.MarketSearch)
			r.Get("/categories", s.MarketCategories)
			r.Get("/categories/{category}", s.MarketCategory)
		})

		if s.backend == nil {
			return
		}

		r.Route("/items", func(r chi.Router) {
			r.Get("/", s.ListItems)
			r.Post("/", s.CreateItem)
			r.Put("/{id}", s.UpdateItem)
			r.Delete("/{id}", s.DeleteItem)
			r.Get("/{id}/advice", s.ItemAdvice)
			r.Get("/{id}/history", s.ItemHistory)
			r.Post("/{id}/consumption", s.RecordConsumption)
			r.Post("/{id}/restock", s.Restock)
		})

		r.Route("/recommendations", func(r chi.Router) {
			r.Get("/", s.ListRecommendations)
			r.Get("/summary", s.RecommendationSummary)
			r.Get("/{id}", s.GetRecommendation)
			r.Put("/{id}/acknowledge", s.AcknowledgeRecommendation)
			r.Delete("/{id}", s.DismissRecommendation)
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", s.ListNotifications)
			r.Post("/read-all", s.MarkAllNotificationsRead)
			r.Put("/{id}/read", s.MarkNotificationRead)
		})
	})

	return r
}

// ListenAndServe serves the API on addr until ctx is canceled, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("API server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("API server stopped")
	return nil
}

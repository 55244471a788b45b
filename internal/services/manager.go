// Package services provides service orchestration for the TUI and API.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gen2brain/beeep"

	"github.com/j-veylop/stockpace/internal/config"
	"github.com/j-veylop/stockpace/internal/db"
	"github.com/j-veylop/stockpace/internal/logger"
	"github.com/j-veylop/stockpace/internal/metrics"
	"github.com/j-veylop/stockpace/internal/models"
	"github.com/j-veylop/stockpace/internal/services/advisor"
	"github.com/j-veylop/stockpace/internal/services/analysis"
	"github.com/j-veylop/stockpace/internal/services/market"
	"github.com/j-veylop/stockpace/internal/services/pantry"
	"github.com/j-veylop/stockpace/internal/services/recommend"
)

const (
	snapshotRetentionDays = 365
	evaluateTimeout       = 30 * time.Second
)

// ErrPantryFileDeleted is reported when the pantry file disappears while
// being watched. The in-memory items are kept.
var ErrPantryFileDeleted = errors.New("pantry file was deleted")

type (
	// ItemsChangedEvent is emitted when the pantry items change.
	ItemsChangedEvent struct {
		Items []models.Item
	}

	// RecommendationsUpdatedEvent is emitted after every evaluation run.
	RecommendationsUpdatedEvent struct {
		Advice  []models.ItemAdvice
		Skipped []recommend.SkippedItem
	}

	// AlertEvent is emitted when an item escalates into high or critical urgency.
	AlertEvent struct {
		Notification models.Notification
		ItemName     string
		Urgency      models.Urgency
	}

	// ErrorEvent is emitted when an error occurs in any service.
	ErrorEvent struct {
		Service string
		Error   error
	}

	// StatsEvent is emitted when pantry statistics change.
	StatsEvent struct {
		Stats models.PantryStats
	}
)

// ServiceEvent is the interface implemented by all service events.
type ServiceEvent interface {
	isServiceEvent()
}

func (ItemsChangedEvent) isServiceEvent()           {}
func (RecommendationsUpdatedEvent) isServiceEvent() {}
func (AlertEvent) isServiceEvent()                  {}
func (ErrorEvent) isServiceEvent()                  {}
func (StatsEvent) isServiceEvent()                  {}

// Manager orchestrates services and event routing.
type Manager struct {
	mu          sync.RWMutex
	evalMu      sync.Mutex
	cfg         *config.Config
	pantry      *pantry.Service
	market      *market.Provider
	advisor     *advisor.Service
	database    *db.DB
	stopChan    chan struct{}
	closeOnce   sync.Once
	wg          sync.WaitGroup
	subscribers []chan<- ServiceEvent
	urgencies   map[string]models.Urgency
	notify      func(title, message string) error
	now         func() time.Time
}

// NewManager creates a new service manager and runs the first evaluation.
func NewManager(cfg *config.Config) (*Manager, error) {
	m := &Manager{
		cfg:       cfg,
		stopChan:  make(chan struct{}),
		urgencies: make(map[string]models.Urgency),
		notify: func(title, message string) error {
			return beeep.Notify(title, message, "")
		},
		now: time.Now,
	}

	var err error
	m.pantry, err = pantry.New(cfg.PantryPath)
	if err != nil {
		return nil, err
	}

	m.database, err = db.New(cfg.DatabasePath)
	if err != nil {
		_ = m.pantry.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	m.market = market.NewProvider(market.NewCatalog(cfg.MarketOverrides), market.DefaultConfig())
	m.advisor = advisor.New(analysis.New(), m.market, cfg.ForecastDays)

	ctx, cancel := context.WithTimeout(context.Background(), evaluateTimeout)
	defer cancel()

	if active, err := m.database.ActiveUrgencies(ctx); err == nil {
		m.urgencies = active
	} else {
		logger.Warn("failed to load active urgencies", "error", err)
	}
	if n, err := m.database.CleanupOldSnapshots(ctx, snapshotRetentionDays); err != nil {
		logger.Warn("snapshot cleanup failed", "error", err)
	} else if n > 0 {
		logger.Info("removed old snapshots", "count", n)
		if err := m.database.Vacuum(); err != nil {
			logger.Warn("vacuum failed", "error", err)
		}
	}

	if err := m.Evaluate(ctx); err != nil {
		logger.Warn("initial evaluation failed", "error", err)
	}

	m.wg.Add(1)
	go m.routeEvents()

	return m, nil
}

// routeEvents routes events from individual services to subscribers and
// drives periodic re-evaluation.
func (m *Manager) routeEvents() {
	defer m.wg.Done()

	interval := m.cfg.RefreshInterval
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case event := <-m.pantry.Events():
			m.handlePantryEvent(event)

		case event := <-m.market.Events():
			m.handleMarketEvent(event)

		case <-ticker.C:
			m.refreshMarket()
			m.evaluateInBackground()

		case <-m.stopChan:
			return
		}
	}
}

// handlePantryEvent converts and broadcasts pantry events.
func (m *Manager) handlePantryEvent(event pantry.Event) {
	switch event.Type {
	case pantry.EventItemsLoaded:
		// NewManager already evaluated the loaded items.
		m.broadcast(ItemsChangedEvent{Items: m.pantry.Items()})

	case pantry.EventItemsChanged, pantry.EventItemAdded,
		pantry.EventItemUpdated, pantry.EventItemDeleted:

		m.broadcast(ItemsChangedEvent{Items: m.pantry.Items()})
		m.evaluateInBackground()

	case pantry.EventFileDeleted:
		m.broadcast(ErrorEvent{Service: "pantry", Error: ErrPantryFileDeleted})

	case pantry.EventError:
		m.broadcast(ErrorEvent{Service: "pantry", Error: event.Error})
	}
}

func (m *Manager) handleMarketEvent(event market.Event) {
	if event.Type == market.EventBreakerChanged {
		m.broadcast(StatsEvent{Stats: m.GetStats()})
	}
}

// refreshMarket drops cached market data and refetches it for the current
// items, so the next evaluation sees fresh paces.
func (m *Manager) refreshMarket() {
	ctx, cancel := context.WithTimeout(context.Background(), evaluateTimeout)
	defer cancel()

	items := m.pantry.Items()
	names := make([]string, len(items))
	for i, item := range items {
		names[i] = item.Name
	}

	m.market.Invalidate()
	if err := m.market.RefreshAll(ctx, names); err != nil {
		logger.Warn("market refresh failed", "items", len(names), "error", err)
	}
}

func (m *Manager) evaluateInBackground() {
	ctx, cancel := context.WithTimeout(context.Background(), evaluateTimeout)
	defer cancel()

	if err := m.Evaluate(ctx); err != nil {
		m.broadcast(ErrorEvent{Service: "advisor", Error: err})
	}
}

// Evaluate re-evaluates every pantry item, persists recommendations and
// snapshots, raises alerts for escalations and broadcasts the results.
// Runs are serialized.
func (m *Manager) Evaluate(ctx context.Context) error {
	m.evalMu.Lock()
	defer m.evalMu.Unlock()

	items := m.pantry.Items()
	metrics.PantryItems.Set(float64(len(items)))

	report := m.advisor.EvaluateAll(ctx, items)
	for _, s := range report.Skipped {
		logger.Warn("item skipped", "index", s.Index, "item", s.ID, "reason", s.Reason)
	}

	var errs []error
	present := make(map[string]bool, len(items))
	for _, item := range items {
		present[item.ID] = true
	}

	for i := range report.Advice {
		if err := m.persist(ctx, &report.Advice[i]); err != nil {
			errs = append(errs, err)
		}
	}

	if err := m.forgetRemoved(ctx, present); err != nil {
		errs = append(errs, err)
	}

	m.broadcast(RecommendationsUpdatedEvent{Advice: m.advisor.All(), Skipped: report.Skipped})
	m.broadcast(StatsEvent{Stats: m.GetStats()})

	return errors.Join(errs...)
}

// persist stores the snapshot of one evaluated item and, when the outcome
// changed, a new recommendation row.
func (m *Manager) persist(ctx context.Context, advice *models.ItemAdvice) error {
	rec := advice.Recommendation
	now := m.now()

	snap := &models.StockSnapshot{
		ItemID:        advice.Item.ID,
		Day:           now,
		Quantity:      advice.Item.CurrentQuantity,
		Pace:          advice.Pattern.AverageDailyConsumption,
		MarketPace:    advice.Market.AverageConsumptionPerDay,
		DaysRemaining: rec.EstimatedDaysRemaining,
		Urgency:       rec.Urgency,
		Confidence:    rec.ConfidenceScore,
		UpdatedAt:     now,
	}
	if err := m.database.UpsertSnapshot(ctx, snap); err != nil {
		return err
	}

	changed, err := m.outcomeChanged(ctx, advice.Item.ID, rec)
	if err != nil {
		return err
	}
	if changed {
		stored := &models.StoredRecommendation{
			ItemID:               advice.Item.ID,
			ItemName:             advice.Item.Name,
			UserPace:             advice.Pattern.AverageDailyConsumption,
			MarketPace:           advice.Market.AverageConsumptionPerDay,
			CreatedAt:            now,
			RecommendationResult: rec,
		}
		if err := m.database.SaveRecommendation(ctx, stored); err != nil {
			return err
		}
	}

	return m.checkEscalation(ctx, advice)
}

// outcomeChanged reports whether rec differs from the latest stored
// recommendation of the item, active or not. Dismissed recommendations stay
// dismissed until the outcome moves.
func (m *Manager) outcomeChanged(ctx context.Context, itemID string, rec models.RecommendationResult) (bool, error) {
	latest, err := m.database.ListRecommendationsForItem(ctx, itemID, 1)
	if err != nil {
		return false, err
	}
	if len(latest) == 0 {
		return true, nil
	}
	prev := latest[0]
	return prev.Action != rec.Action ||
		prev.Urgency != rec.Urgency ||
		prev.EstimatedDaysRemaining != rec.EstimatedDaysRemaining, nil
}

// checkEscalation records an alert when an item moves into high or
// critical urgency from a lower or unknown level.
func (m *Manager) checkEscalation(ctx context.Context, advice *models.ItemAdvice) error {
	urgency := advice.Recommendation.Urgency

	m.mu.Lock()
	previous, seen := m.urgencies[advice.Item.ID]
	m.urgencies[advice.Item.ID] = urgency
	m.mu.Unlock()

	if !urgency.IsHighPriority() || (seen && previous >= urgency) {
		return nil
	}

	n := models.Notification{
		ItemID:    advice.Item.ID,
		Type:      models.NotificationStock,
		Message:   advice.DisplayMessage,
		CreatedAt: m.now(),
	}
	if urgency == models.UrgencyCritical {
		n.Type = models.NotificationUrgentStock
	}
	if err := m.database.InsertNotification(ctx, &n); err != nil {
		return err
	}

	logger.Info("stock alert", "item", advice.Item.Name, "urgency", urgency.String())

	if m.cfg.Notifications && m.notify != nil {
		title := fmt.Sprintf("%s: %s", alertTitle(urgency), advice.Item.Name)
		if err := m.notify(title, advice.DisplayMessage); err != nil {
			logger.Debug("desktop notification failed", "error", err)
		}
	}

	m.broadcast(AlertEvent{Notification: n, ItemName: advice.Item.Name, Urgency: urgency})
	return nil
}

func alertTitle(u models.Urgency) string {
	if u == models.UrgencyCritical {
		return "Out of stock soon"
	}
	return "Running low"
}

// forgetRemoved drops cached state and stored data of items that are no
// longer in the pantry.
func (m *Manager) forgetRemoved(ctx context.Context, present map[string]bool) error {
	m.mu.Lock()
	var removed []string
	for id := range m.urgencies {
		if !present[id] {
			removed = append(removed, id)
			delete(m.urgencies, id)
		}
	}
	m.mu.Unlock()

	var errs []error
	for _, id := range removed {
		m.advisor.Forget(id)
		if err := m.database.DeleteItemData(ctx, id); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// broadcast sends an event to all subscribers.
func (m *Manager) broadcast(event ServiceEvent) {
	// Send to subscribers. Sends never block, so the read lock also keeps
	// Unsubscribe and Close from closing a channel mid-send.
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, sub := range m.subscribers {
		select {
		case sub <- event:
		default:
			// Subscriber not ready, skip
		}
	}
}

// Subscribe returns a channel that receives service events and a command
// waiting for the first one.
func (m *Manager) Subscribe() (chan ServiceEvent, tea.Cmd) {
	ch := make(chan ServiceEvent, 10)

	m.mu.Lock()
	m.subscribers = append(m.subscribers, ch)
	m.mu.Unlock()

	return ch, waitForEvent(ch)
}

// waitForEvent returns a command that waits for the next event.
func waitForEvent(ch <-chan ServiceEvent) tea.Cmd {
	return func() tea.Msg {
		return <-ch
	}
}

// WaitForEvent returns a command that waits for the next event on the channel.
func WaitForEvent(ch <-chan ServiceEvent) tea.Cmd {
	return waitForEvent(ch)
}

// Unsubscribe removes a subscriber channel and closes it.
func (m *Manager) Unsubscribe(ch chan ServiceEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, sub := range m.subscribers {
		if sub == ch {
			m.subscribers = append(m.subscribers[:i], m.subscribers[i+1:]...)
			close(ch)
			return
		}
	}
}

// Items returns the current pantry items.
func (m *Manager) Items() []models.Item {
	return m.pantry.Items()
}

// Advice returns the cached advice for every evaluated item, most urgent first.
func (m *Manager) Advice() []models.ItemAdvice {
	return m.advisor.All()
}

// ItemAdvice returns the advice for one item, evaluating it when the cache
// has none.
func (m *Manager) ItemAdvice(ctx context.Context, itemID string) (models.ItemAdvice, error) {
	item, err := m.pantry.Item(itemID)
	if err != nil {
		return models.ItemAdvice{}, err
	}
	if advice, err := m.advisor.Cached(itemID); err == nil {
		return advice, nil
	}
	return m.advisor.Evaluate(ctx, item)
}

// ItemHistory builds the consumption history of an item over the time
// range, including its stored stock snapshots.
func (m *Manager) ItemHistory(ctx context.Context, itemID string, tr models.TimeRange) (*models.ItemHistory, error) {
	item, err := m.pantry.Item(itemID)
	if err != nil {
		return nil, err
	}

	now := m.now()
	history := m.advisor.History(item, tr, now)

	snaps, err := m.database.GetSnapshots(ctx, itemID, tr.Days(), now)
	if err != nil {
		return nil, fmt.Errorf("failed to get history for %s: %w", item.Name, err)
	}
	history.Snapshots = snaps

	return &history, nil
}

// ForecastBand returns the predicted, lower and upper series of an item's
// cached forecast.
func (m *Manager) ForecastBand(itemID string) (predicted, lower, upper []float64, err error) {
	return m.advisor.ForecastBand(itemID)
}

// Recommendations returns stored recommendations, most urgent first.
func (m *Manager) Recommendations(ctx context.Context, activeOnly bool) ([]models.StoredRecommendation, error) {
	return m.database.ListRecommendations(ctx, activeOnly, 0)
}

// Recommendation returns a stored recommendation by ID.
func (m *Manager) Recommendation(ctx context.Context, id int64) (*models.StoredRecommendation, error) {
	return m.database.GetRecommendation(ctx, id)
}

// RecommendationSummary summarizes active recommendations.
func (m *Manager) RecommendationSummary(ctx context.Context) (*models.RecommendationSummary, error) {
	return m.database.GetRecommendationSummary(ctx)
}

// AcknowledgeRecommendation marks a recommendation as seen.
func (m *Manager) AcknowledgeRecommendation(ctx context.Context, id int64) error {
	return m.database.AcknowledgeRecommendation(ctx, id, m.now())
}

// DismissRecommendation deactivates a recommendation.
func (m *Manager) DismissRecommendation(ctx context.Context, id int64) error {
	if err := m.database.DeactivateRecommendation(ctx, id); err != nil {
		return err
	}
	m.broadcast(StatsEvent{Stats: m.GetStats()})
	return nil
}

// Notifications returns stored alerts, newest first.
func (m *Manager) Notifications(ctx context.Context, unreadOnly bool) ([]models.Notification, error) {
	return m.database.ListNotifications(ctx, unreadOnly, 0)
}

// MarkNotificationRead marks one alert as read.
func (m *Manager) MarkNotificationRead(ctx context.Context, id string) error {
	if err := m.database.MarkNotificationRead(ctx, id); err != nil {
		return err
	}
	m.broadcast(StatsEvent{Stats: m.GetStats()})
	return nil
}

// MarkAllNotificationsRead marks every alert as read.
func (m *Manager) MarkAllNotificationsRead(ctx context.Context) error {
	if _, err := m.database.MarkAllNotificationsRead(ctx); err != nil {
		return err
	}
	m.broadcast(StatsEvent{Stats: m.GetStats()})
	return nil
}

// AddItem adds a pantry item. Evaluation follows through the pantry event.
func (m *Manager) AddItem(item models.Item) (models.Item, error) {
	return m.pantry.AddItem(item)
}

// UpdateItem replaces a pantry item.
func (m *Manager) UpdateItem(item models.Item) error {
	return m.pantry.UpdateItem(item)
}

// DeleteItem removes a pantry item and deactivates its recommendations. The
// rest of its stored data is dropped on the next evaluation.
func (m *Manager) DeleteItem(itemID string) error {
	if err := m.pantry.DeleteItem(itemID); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := m.database.DeactivateItemRecommendations(ctx, itemID); err != nil {
		logger.Warn("failed to deactivate recommendations", "item", itemID, "error", err)
	}
	return nil
}

// RecordConsumption records that quantity of an item was used today.
func (m *Manager) RecordConsumption(itemID string, quantity float64, note string) error {
	return m.pantry.RecordConsumption(itemID, quantity, m.now(), note)
}

// Restock adds quantity units to an item.
func (m *Manager) Restock(itemID string, quantity int) error {
	return m.pantry.Restock(itemID, quantity)
}

// GetStats returns the current pantry statistics.
func (m *Manager) GetStats() models.PantryStats {
	stats := m.advisor.Stats(m.pantry.Count())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if unread, err := m.database.CountUnreadNotifications(ctx); err == nil {
		stats.UnreadAlerts = unread
	}

	ms := m.market.GetStats()
	stats.MarketCacheHits = ms.Hits
	stats.MarketCacheMisses = ms.Misses
	stats.MarketFailures = ms.Failures

	return stats
}

// Config returns the configuration the manager was built with.
func (m *Manager) Config() *config.Config {
	return m.cfg
}

// Pantry returns the pantry service.
func (m *Manager) Pantry() *pantry.Service {
	return m.pantry
}

// Market returns the market provider.
func (m *Manager) Market() *market.Provider {
	return m.market
}

// Advisor returns the advisor service.
func (m *Manager) Advisor() *advisor.Service {
	return m.advisor
}

// Database returns the database instance.
func (m *Manager) Database() *db.DB {
	return m.database
}

// Close shuts down all services.
func (m *Manager) Close() error {
	var errs []error

	m.closeOnce.Do(func() {
		close(m.stopChan)
		m.wg.Wait()

		if m.pantry != nil {
			if err := m.pantry.Close(); err != nil {
				errs = append(errs, fmt.Errorf("pantry close: %w", err))
			}
		}

		// Wait for any in-flight evaluation before closing the database.
		m.evalMu.Lock()
		if m.database != nil {
			if err := m.database.Close(); err != nil {
				errs = append(errs, fmt.Errorf("database close: %w", err))
			}
		}
		m.evalMu.Unlock()

		m.mu.Lock()
		for _, sub := range m.subscribers {
			close(sub)
		}
		m.subscribers = nil
		m.mu.Unlock()
	})

	if len(errs) > 0 {
		return fmt.Errorf("errors during close: %v", errs)
	}
	return nil
}

// InitialState returns the current advice and stats for the first render.
func (m *Manager) InitialState() ([]models.ItemAdvice, models.PantryStats) {
	return m.advisor.All(), m.GetStats()
}

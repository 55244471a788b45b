package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/j-veylop/stockpace/internal/config"
	"github.com/j-veylop/stockpace/internal/db"
	"github.com/j-veylop/stockpace/internal/models"
	"github.com/j-veylop/stockpace/internal/services/pantry"
)

func testItems() []models.Item {
	start := time.Now().AddDate(0, 0, -10)
	var events []models.ConsumptionEvent
	for i := range 10 {
		events = append(events, models.NewEvent(start.AddDate(0, 0, i), 0.5))
	}
	return []models.Item{
		{ID: "rice", Name: "Rice", Unit: "kg", CurrentQuantity: 100, MinimumThreshold: 1, Events: events},
		{ID: "soap", Name: "Soap", CurrentQuantity: 1, MinimumThreshold: 1, Events: events},
	}
}

func newTestManager(t *testing.T, items []models.Item) *Manager {
	t.Helper()

	tmpDir := t.TempDir()
	cfg := &config.Config{
		DatabasePath:    filepath.Join(tmpDir, "test.db"),
		PantryPath:      filepath.Join(tmpDir, "pantry.json"),
		RefreshInterval: time.Hour,
		ForecastDays:    14,
	}

	if items != nil {
		data, err := json.Marshal(models.Pantry{Version: 1, Items: items})
		if err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(cfg.PantryPath, data, 0o600); err != nil {
			t.Fatal(err)
		}
	}

	mgr, err := NewManager(cfg)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	t.Cleanup(func() { _ = mgr.Close() })
	return mgr
}

func TestNewManager(t *testing.T) {
	mgr := newTestManager(t, nil)

	if mgr.Pantry() == nil {
		t.Error("Pantry service should be initialized")
	}
	if mgr.Market() == nil {
		t.Error("Market provider should be initialized")
	}
	if mgr.Advisor() == nil {
		t.Error("Advisor should be initialized")
	}
	if mgr.Database() == nil {
		t.Error("Database should be initialized")
	}
	if mgr.Config().ForecastDays != 14 || mgr.Advisor().ForecastDays() != 14 {
		t.Error("forecast horizon not passed to the advisor")
	}
}

func TestNewManager_InvalidPantryPath(t *testing.T) {
	cfg := &config.Config{DatabasePath: filepath.Join(t.TempDir(), "test.db")}
	if _, err := NewManager(cfg); err == nil {
		t.Error("NewManager with empty pantry path should fail")
	}
}

func TestManager_InitialEvaluation(t *testing.T) {
	mgr := newTestManager(t, testItems())
	ctx := context.Background()

	advice, stats := mgr.InitialState()
	if len(advice) != 2 {
		t.Fatalf("len(advice) = %d, want 2", len(advice))
	}
	if advice[0].Item.ID != "soap" || advice[0].Recommendation.Urgency != models.UrgencyCritical {
		t.Errorf("most urgent = %s (%s), want soap critical", advice[0].Item.ID, advice[0].Recommendation.Urgency)
	}
	if stats.TotalItems != 2 || stats.CriticalItems != 1 || stats.LowItems != 1 {
		t.Errorf("stats = %+v", stats)
	}

	active, err := mgr.Recommendations(ctx, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(active) != 2 {
		t.Errorf("len(active) = %d, want 2", len(active))
	}

	snaps, err := mgr.Database().GetSnapshots(ctx, "rice", 1, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if len(snaps) != 1 || snaps[0].Quantity != 100 {
		t.Errorf("snapshots = %+v", snaps)
	}
}

func TestManager_AlertsOnceForEscalation(t *testing.T) {
	mgr := newTestManager(t, testItems())
	ctx := context.Background()

	if err := mgr.Evaluate(ctx); err != nil {
		t.Fatalf("Evaluate() failed: %v", err)
	}

	notes, err := mgr.Notifications(ctx, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(notes) != 1 {
		t.Fatalf("len(notifications) = %d, want 1", len(notes))
	}
	if notes[0].ItemID != "soap" || notes[0].Type != models.NotificationUrgentStock {
		t.Errorf("notification = %+v", notes[0])
	}

	history, err := mgr.Database().ListRecommendationsForItem(ctx, "soap", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 1 {
		t.Errorf("unchanged outcome should not add rows, got %d", len(history))
	}

	if stats := mgr.GetStats(); stats.UnreadAlerts != 1 {
		t.Errorf("UnreadAlerts = %d, want 1", stats.UnreadAlerts)
	}
	if err := mgr.MarkAllNotificationsRead(ctx); err != nil {
		t.Fatal(err)
	}
	if stats := mgr.GetStats(); stats.UnreadAlerts != 0 {
		t.Errorf("UnreadAlerts = %d, want 0", stats.UnreadAlerts)
	}
}

func TestManager_CheckEscalation(t *testing.T) {
	mgr := newTestManager(t, nil)
	ctx := context.Background()

	var mu sync.Mutex
	var titles []string
	mgr.cfg.Notifications = true
	mgr.notify = func(title, _ string) error {
		mu.Lock()
		titles = append(titles, title)
		mu.Unlock()
		return nil
	}

	steps := []struct {
		urgency models.Urgency
		alert   bool
	}{
		{models.UrgencyLow, false},
		{models.UrgencyHigh, true},
		{models.UrgencyHigh, false},
		{models.UrgencyCritical, true},
		{models.UrgencyMedium, false},
		{models.UrgencyHigh, true},
	}

	want := 0
	for i, step := range steps {
		advice := &models.ItemAdvice{
			Item:           models.Item{ID: "milk", Name: "Milk"},
			Recommendation: models.RecommendationResult{Urgency: step.urgency},
			DisplayMessage: "Milk is running low.",
		}
		if err := mgr.checkEscalation(ctx, advice); err != nil {
			t.Fatalf("step %d: checkEscalation() failed: %v", i, err)
		}
		if step.alert {
			want++
		}
		mu.Lock()
		got := len(titles)
		mu.Unlock()
		if got != want {
			t.Errorf("step %d (%s): %d alerts, want %d", i, step.urgency, got, want)
		}
	}

	notes, _ := mgr.Notifications(ctx, false)
	if len(notes) != 3 {
		t.Fatalf("len(notifications) = %d, want 3", len(notes))
	}
	var urgent int
	for _, n := range notes {
		if n.Type == models.NotificationUrgentStock {
			urgent++
		}
	}
	if urgent != 1 {
		t.Errorf("urgent notifications = %d, want 1", urgent)
	}
}

func TestManager_RemovedItemData(t *testing.T) {
	mgr := newTestManager(t, testItems())
	ctx := context.Background()

	if err := mgr.Pantry().DeleteItem("soap"); err != nil {
		t.Fatal(err)
	}
	if err := mgr.Evaluate(ctx); err != nil {
		t.Fatalf("Evaluate() failed: %v", err)
	}

	active, _ := mgr.Recommendations(ctx, true)
	for _, r := range active {
		if r.ItemID == "soap" {
			t.Error("deleted item still has an active recommendation")
		}
	}
	if n, _ := mgr.Database().CountUnreadNotifications(ctx); n != 0 {
		t.Errorf("deleted item notifications = %d, want 0", n)
	}
	if _, err := mgr.ItemAdvice(ctx, "soap"); !errors.Is(err, pantry.ErrItemNotFound) {
		t.Errorf("ItemAdvice(deleted) error = %v", err)
	}
}

func TestManager_ItemAdviceAndHistory(t *testing.T) {
	mgr := newTestManager(t, testItems())
	ctx := context.Background()

	advice, err := mgr.ItemAdvice(ctx, "rice")
	if err != nil {
		t.Fatalf("ItemAdvice() failed: %v", err)
	}
	if advice.Pattern.AverageDailyConsumption != 0.5 {
		t.Errorf("pace = %v, want 0.5", advice.Pattern.AverageDailyConsumption)
	}

	history, err := mgr.ItemHistory(ctx, "rice", models.TimeRange30Days)
	if err != nil {
		t.Fatalf("ItemHistory() failed: %v", err)
	}
	if !history.HasData() || len(history.Snapshots) != 1 {
		t.Errorf("history = %+v", history)
	}

	predicted, lower, upper, err := mgr.ForecastBand("rice")
	if err != nil {
		t.Fatalf("ForecastBand() failed: %v", err)
	}
	if len(predicted) != 14 || len(lower) != 14 || len(upper) != 14 {
		t.Errorf("band lengths = %d/%d/%d, want 14", len(predicted), len(lower), len(upper))
	}

	if _, err := mgr.ItemHistory(ctx, "missing", models.TimeRange7Days); !errors.Is(err, pantry.ErrItemNotFound) {
		t.Errorf("ItemHistory(missing) error = %v", err)
	}
}

func TestManager_RecordConsumptionAndRestock(t *testing.T) {
	mgr := newTestManager(t, testItems())

	if err := mgr.RecordConsumption("rice", 2, "dinner"); err != nil {
		t.Fatalf("RecordConsumption() failed: %v", err)
	}
	if err := mgr.Restock("soap", 5); err != nil {
		t.Fatalf("Restock() failed: %v", err)
	}

	rice, _ := mgr.Pantry().Item("rice")
	soap, _ := mgr.Pantry().Item("soap")
	if rice.CurrentQuantity != 98 || soap.CurrentQuantity != 6 {
		t.Errorf("quantities = %d, %d; want 98, 6", rice.CurrentQuantity, soap.CurrentQuantity)
	}
}

func TestManager_AcknowledgeAndDismiss(t *testing.T) {
	mgr := newTestManager(t, testItems())
	ctx := context.Background()

	active, err := mgr.Recommendations(ctx, true)
	if err != nil || len(active) == 0 {
		t.Fatalf("Recommendations() = %d, %v", len(active), err)
	}
	id := active[0].ID

	if err := mgr.AcknowledgeRecommendation(ctx, id); err != nil {
		t.Fatalf("AcknowledgeRecommendation() failed: %v", err)
	}
	if err := mgr.DismissRecommendation(ctx, id); err != nil {
		t.Fatalf("DismissRecommendation() failed: %v", err)
	}

	summary, err := mgr.RecommendationSummary(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Total != len(active)-1 {
		t.Errorf("summary.Total = %d, want %d", summary.Total, len(active)-1)
	}

	// A dismissed recommendation stays dismissed while its outcome holds.
	if err := mgr.Evaluate(ctx); err != nil {
		t.Fatal(err)
	}
	after, _ := mgr.Recommendations(ctx, true)
	if len(after) != len(active)-1 {
		t.Errorf("active after re-evaluation = %d, want %d", len(after), len(active)-1)
	}
}

func TestManager_DeleteItemDeactivates(t *testing.T) {
	mgr := newTestManager(t, testItems())
	ctx := context.Background()

	if err := mgr.DeleteItem("soap"); err != nil {
		t.Fatalf("DeleteItem() failed: %v", err)
	}
	active, _ := mgr.Recommendations(ctx, true)
	for _, r := range active {
		if r.ItemID == "soap" {
			t.Error("recommendation of a deleted item should be inactive right away")
		}
	}

	if err := mgr.DeleteItem("soap"); !errors.Is(err, pantry.ErrItemNotFound) {
		t.Errorf("second DeleteItem() error = %v", err)
	}
}

func TestManager_RecommendationByID(t *testing.T) {
	mgr := newTestManager(t, testItems())
	ctx := context.Background()

	active, err := mgr.Recommendations(ctx, true)
	if err != nil || len(active) == 0 {
		t.Fatalf("Recommendations() = %d, %v", len(active), err)
	}

	rec, err := mgr.Recommendation(ctx, active[0].ID)
	if err != nil {
		t.Fatalf("Recommendation() failed: %v", err)
	}
	if rec.ItemID != active[0].ItemID {
		t.Errorf("ItemID = %s, want %s", rec.ItemID, active[0].ItemID)
	}
	if _, err := mgr.Recommendation(ctx, 99999); !errors.Is(err, db.ErrRecommendationNotFound) {
		t.Errorf("missing recommendation error = %v", err)
	}
}

func TestManager_MarkNotificationRead(t *testing.T) {
	mgr := newTestManager(t, nil)
	ctx := context.Background()

	n := &models.Notification{ItemID: "rice", Type: models.NotificationStock, Message: "Rice is running low"}
	if err := mgr.Database().InsertNotification(ctx, n); err != nil {
		t.Fatal(err)
	}

	if err := mgr.MarkNotificationRead(ctx, n.ID); err != nil {
		t.Fatalf("MarkNotificationRead() failed: %v", err)
	}
	if unread, _ := mgr.Notifications(ctx, true); len(unread) != 0 {
		t.Errorf("unread = %d, want 0", len(unread))
	}
	if err := mgr.MarkNotificationRead(ctx, "missing"); err == nil {
		t.Error("marking a missing notification should fail")
	}
}

func TestManager_UpdateItem(t *testing.T) {
	mgr := newTestManager(t, testItems())

	rice, _ := mgr.Pantry().Item("rice")
	rice.Name = "Brown Rice"
	if err := mgr.UpdateItem(rice); err != nil {
		t.Fatalf("UpdateItem() failed: %v", err)
	}
	if got, _ := mgr.Pantry().Item("rice"); got.Name != "Brown Rice" {
		t.Errorf("Name = %q, want Brown Rice", got.Name)
	}

	rice.Name = ""
	if err := mgr.UpdateItem(rice); !errors.Is(err, pantry.ErrInvalidItem) {
		t.Errorf("invalid update error = %v", err)
	}
}

func TestManager_RefreshMarket(t *testing.T) {
	mgr := newTestManager(t, testItems())

	mgr.refreshMarket()
	if got := mgr.Market().GetStats().CachedItems; got != 2 {
		t.Errorf("CachedItems = %d, want 2", got)
	}
}

func TestManager_Subscription(t *testing.T) {
	mgr := newTestManager(t, nil)

	ch, cmd := mgr.Subscribe()
	if ch == nil {
		t.Error("Subscribe returned nil channel")
	}
	if cmd == nil {
		t.Error("Subscribe returned nil command")
	}

	mgr.Unsubscribe(ch)

	// Buffered events drain first; the range ends only once ch is closed.
	done := make(chan struct{})
	go func() {
		for range ch {
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Error("Unsubscribe should close the channel")
	}
}

func TestManager_Broadcast(t *testing.T) {
	mgr := newTestManager(t, nil)

	ch, _ := mgr.Subscribe()
	defer mgr.Unsubscribe(ch)

	event := ErrorEvent{Service: "test"}
	mgr.broadcast(event)

	deadline := time.After(time.Second)
	for {
		select {
		case e := <-ch:
			if got, ok := e.(ErrorEvent); ok && got.Service == "test" {
				return
			}
		case <-deadline:
			t.Fatal("Timeout waiting for broadcast")
		}
	}
}

func TestManager_EvaluateBroadcasts(t *testing.T) {
	mgr := newTestManager(t, testItems())

	ch, _ := mgr.Subscribe()
	defer mgr.Unsubscribe(ch)

	if err := mgr.Evaluate(context.Background()); err != nil {
		t.Fatal(err)
	}

	var gotRecs, gotStats bool
	deadline := time.After(2 * time.Second)
	for !gotRecs || !gotStats {
		select {
		case e := <-ch:
			switch ev := e.(type) {
			case RecommendationsUpdatedEvent:
				gotRecs = len(ev.Advice) == 2
			case StatsEvent:
				gotStats = ev.Stats.TotalItems == 2
			}
		case <-deadline:
			t.Fatalf("missing events: recommendations=%v stats=%v", gotRecs, gotStats)
		}
	}
}

func TestManager_HandlePantryEvent(t *testing.T) {
	mgr := newTestManager(t, testItems())

	ch, _ := mgr.Subscribe()
	defer mgr.Unsubscribe(ch)

	mgr.handlePantryEvent(pantry.Event{Type: pantry.EventFileDeleted})

	deadline := time.After(time.Second)
	for {
		select {
		case e := <-ch:
			if ev, ok := e.(ErrorEvent); ok {
				if !errors.Is(ev.Error, ErrPantryFileDeleted) || ev.Service != "pantry" {
					t.Errorf("ErrorEvent = %+v", ev)
				}
				return
			}
		case <-deadline:
			t.Fatal("no ErrorEvent for deleted pantry file")
		}
	}
}

func TestWaitForEvent(t *testing.T) {
	ch := make(chan ServiceEvent, 1)
	ch <- StatsEvent{}

	cmd := WaitForEvent(ch)
	msg := cmd()
	if msg == nil {
		t.Error("WaitForEvent cmd returned nil msg")
	}
}

func TestServiceEvent_Interface(t *testing.T) {
	var _ ServiceEvent = ItemsChangedEvent{}
	var _ ServiceEvent = RecommendationsUpdatedEvent{}
	var _ ServiceEvent = AlertEvent{}
	var _ ServiceEvent = ErrorEvent{}
	var _ ServiceEvent = StatsEvent{}
}

func TestManager_Close(t *testing.T) {
	mgr := newTestManager(t, nil)

	if err := mgr.Close(); err != nil {
		t.Errorf("Close() failed: %v", err)
	}
	if err := mgr.Close(); err != nil {
		t.Errorf("second Close() failed: %v", err)
	}
}

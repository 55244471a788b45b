package app

import (
	"testing"
	"time"

	"github.com/j-veylop/stockpace/internal/models"
)

func adviceFor(ids ...string) []models.ItemAdvice {
	advice := make([]models.ItemAdvice, len(ids))
	for i, id := range ids {
		advice[i] = models.ItemAdvice{Item: models.Item{ID: id, Name: "item " + id}}
	}
	return advice
}

func TestNewState(t *testing.T) {
	s := NewState()
	if s == nil {
		t.Fatal("NewState returned nil")
	}
	if len(s.Advice) != 0 {
		t.Error("Advice should be empty")
	}
	if !s.Loading.Initial {
		t.Error("Initial loading should be true")
	}
	if s.GetSelectedAdvice() != nil {
		t.Error("GetSelectedAdvice should be nil for an empty pantry")
	}
}

func TestState_SetLoading(t *testing.T) {
	s := NewState()

	s.SetLoading(ResourceAdvice, true)
	if !s.Loading.Advice {
		t.Error("Advice loading should be true")
	}
	if !s.AnyLoading() {
		t.Error("AnyLoading should be true")
	}

	s.SetLoading(ResourceAdvice, false)
	if !s.AnyLoading() {
		t.Error("AnyLoading should be true (Initial is true)")
	}

	s.SetLoading(ResourceInitial, false)
	if s.AnyLoading() {
		t.Error("AnyLoading should be false")
	}
	if s.IsInitialLoading() {
		t.Error("IsInitialLoading should be false")
	}

	if resources := s.GetLoadingResources(); len(resources) != 0 {
		t.Errorf("GetLoadingResources should be empty, got %v", resources)
	}

	s.SetLoading(ResourceRecommendations, true)
	resources := s.GetLoadingResources()
	if len(resources) != 1 || resources[0] != ResourceRecommendations {
		t.Errorf("GetLoadingResources = %v, want [recommendations]", resources)
	}

	s.SetLoading("unknown", true)
	if len(s.GetLoadingResources()) != 1 {
		t.Error("unknown resources should be ignored")
	}
}

func TestState_SetAdviceKeepsSelection(t *testing.T) {
	tests := []struct {
		name     string
		before   []string
		selected int
		after    []string
		wantID   string
	}{
		{"same order", []string{"a", "b", "c"}, 1, []string{"a", "b", "c"}, "b"},
		{"reordered", []string{"a", "b", "c"}, 2, []string{"c", "a", "b"}, "c"},
		{"removed", []string{"a", "b"}, 1, []string{"a", "c"}, "a"},
		{"first load", nil, 0, []string{"x", "y"}, "x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewState()
			s.SetAdvice(adviceFor(tt.before...))
			s.SetSelectedIndex(tt.selected)

			s.SetAdvice(adviceFor(tt.after...))

			got := s.GetSelectedAdvice()
			if got == nil {
				t.Fatal("GetSelectedAdvice returned nil")
			}
			if got.Item.ID != tt.wantID {
				t.Errorf("selected = %s, want %s", got.Item.ID, tt.wantID)
			}
		})
	}
}

func TestState_Advice(t *testing.T) {
	s := NewState()
	s.SetAdvice(adviceFor("a", "b"))

	if s.GetItemCount() != 2 {
		t.Errorf("GetItemCount = %d, want 2", s.GetItemCount())
	}
	if s.GetLastUpdated().IsZero() {
		t.Error("LastUpdated should be set")
	}

	got := s.GetAdvice()
	got[0].Item.Name = "changed"
	if s.GetAdvice()[0].Item.Name == "changed" {
		t.Error("GetAdvice should return a copy")
	}
}

func TestState_SetSelectedIndex(t *testing.T) {
	tests := []struct {
		name  string
		count int
		idx   int
		want  int
	}{
		{"in range", 3, 1, 1},
		{"negative", 3, -2, 0},
		{"past end", 3, 10, 2},
		{"empty", 0, 4, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewState()
			ids := make([]string, tt.count)
			for i := range ids {
				ids[i] = string(rune('a' + i))
			}
			s.SetAdvice(adviceFor(ids...))
			s.SetSelectedIndex(tt.idx)
			if got := s.GetSelectedIndex(); got != tt.want {
				t.Errorf("GetSelectedIndex = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestState_Stats(t *testing.T) {
	s := NewState()
	if s.GetStats() != nil {
		t.Error("Stats should be nil initially")
	}

	s.SetStats(models.PantryStats{TotalItems: 4, CriticalItems: 1})
	stats := s.GetStats()
	if stats == nil || stats.TotalItems != 4 || stats.CriticalItems != 1 {
		t.Errorf("GetStats = %+v", stats)
	}
}

func TestState_Recommendations(t *testing.T) {
	s := NewState()

	recs := []models.StoredRecommendation{{ID: 1, ItemID: "a"}, {ID: 2, ItemID: "b"}}
	alerts := []models.Notification{
		{ID: "n1", IsRead: false},
		{ID: "n2", IsRead: true},
		{ID: "n3", IsRead: false},
	}
	s.SetRecommendations(recs, alerts)

	if got := len(s.GetRecommendations()); got != 2 {
		t.Errorf("GetRecommendations len = %d, want 2", got)
	}
	if got := len(s.GetAlerts()); got != 3 {
		t.Errorf("GetAlerts len = %d, want 3", got)
	}
	if got := s.UnreadAlerts(); got != 2 {
		t.Errorf("UnreadAlerts = %d, want 2", got)
	}
}

func TestState_Notifications(t *testing.T) {
	s := NewState()

	id := s.AddNotification(NotificationSuccess, "Test", time.Minute)
	if id == "" {
		t.Fatal("AddNotification returned empty ID")
	}

	notifs := s.GetNotifications()
	if len(notifs) != 1 || notifs[0].Message != "Test" {
		t.Fatalf("GetNotifications = %+v", notifs)
	}

	s.RemoveNotification(id)
	if len(s.GetNotifications()) != 0 {
		t.Error("notification should be removed")
	}

	s.AddNotification(NotificationInfo, "old", time.Nanosecond)
	s.AddNotification(NotificationInfo, "sticky", 0)
	time.Sleep(2 * time.Millisecond)
	s.ClearExpiredNotifications()
	notifs = s.GetNotifications()
	if len(notifs) != 1 || notifs[0].Message != "sticky" {
		t.Errorf("after expiry = %+v, want only sticky", notifs)
	}

	s.ClearAllNotifications()
	if len(s.GetNotifications()) != 0 {
		t.Error("ClearAllNotifications should remove everything")
	}
}

func TestState_NotificationLimit(t *testing.T) {
	s := NewState()
	for range maxNotifications + 5 {
		s.AddNotification(NotificationInfo, "n", time.Minute)
	}
	if got := len(s.GetNotifications()); got != maxNotifications {
		t.Errorf("notifications = %d, want %d", got, maxNotifications)
	}
}

func TestState_LoadingNotification(t *testing.T) {
	s := NewState()

	s.SetLoadingNotification("Loading...")
	s.SetLoadingNotification("Still loading...")

	notifs := s.GetNotifications()
	if len(notifs) != 1 {
		t.Fatalf("expected a single loading toast, got %d", len(notifs))
	}
	if notifs[0].ID != LoadingNotificationID || notifs[0].Message != "Still loading..." {
		t.Errorf("loading toast = %+v", notifs[0])
	}
	if notifs[0].Type != NotificationLoading {
		t.Errorf("Type = %v, want loading", notifs[0].Type)
	}

	s.ClearLoadingNotification()
	if len(s.GetNotifications()) != 0 {
		t.Error("loading toast should be cleared")
	}
}

func TestNotificationType_String(t *testing.T) {
	tests := []struct {
		t    NotificationType
		want string
	}{
		{NotificationSuccess, "success"},
		{NotificationError, "error"},
		{NotificationWarning, "warning"},
		{NotificationInfo, "info"},
		{NotificationLoading, "loading"},
		{NotificationType(42), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.t.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestState_TimeSinceUpdate(t *testing.T) {
	s := NewState()
	if s.TimeSinceUpdate() != 0 {
		t.Error("TimeSinceUpdate should be zero before the first update")
	}
	s.SetAdvice(adviceFor("a"))
	if s.TimeSinceUpdate() < 0 {
		t.Error("TimeSinceUpdate should not be negative")
	}
}

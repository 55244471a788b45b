package alerts

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/stockpace/internal/app"
	"github.com/j-veylop/stockpace/internal/models"
)

func rec(id int64, name string, urgency models.Urgency, days int) models.StoredRecommendation {
	return models.StoredRecommendation{
		ID:         id,
		ItemID:     name,
		ItemName:   name,
		UserPace:   1,
		MarketPace: 0.5,
		IsActive:   true,
		RecommendationResult: models.RecommendationResult{
			Action:                 models.ActionPurchaseNow,
			Urgency:                urgency,
			EstimatedDaysRemaining: days,
		},
	}
}

func loadedModel(recs []models.StoredRecommendation, alerts []models.Notification) (*Model, *app.State) {
	state := app.NewState()
	state.SetLoading(app.ResourceInitial, false)
	state.SetRecommendations(recs, alerts)

	m := New(state)
	m.SetSize(120, 40)
	m.Update(app.TabSwitchMsg{Tab: app.TabAlerts})
	return m, state
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestSortByUrgency(t *testing.T) {
	recs := []models.StoredRecommendation{
		rec(1, "low", models.UrgencyLow, 20),
		rec(2, "critical-later", models.UrgencyCritical, 2),
		rec(3, "medium", models.UrgencyMedium, 9),
		rec(4, "critical-sooner", models.UrgencyCritical, 0),
	}
	sortByUrgency(recs)

	want := []int64{4, 2, 3, 1}
	for i, id := range want {
		if recs[i].ID != id {
			t.Fatalf("order = %v, want %v", ids(recs), want)
		}
	}
}

func ids(recs []models.StoredRecommendation) []int64 {
	out := make([]int64, len(recs))
	for i, r := range recs {
		out[i] = r.ID
	}
	return out
}

func TestModel_AcknowledgeMostUrgent(t *testing.T) {
	m, _ := loadedModel([]models.StoredRecommendation{
		rec(1, "Milk", models.UrgencyMedium, 5),
		rec(2, "Eggs", models.UrgencyCritical, 0),
	}, nil)

	_, cmd := m.Update(keyRunes("a"))
	if cmd == nil {
		t.Fatal("a should acknowledge")
	}
	msg, ok := cmd().(app.RecommendationActionMsg)
	if !ok {
		t.Fatal("expected RecommendationActionMsg")
	}
	if msg.ID != 2 || msg.ItemName != "Eggs" || msg.Action != app.ActionAcknowledge {
		t.Errorf("msg = %+v", msg)
	}
}

func TestModel_AcknowledgeSkipsSeen(t *testing.T) {
	seen := rec(1, "Milk", models.UrgencyHigh, 2)
	now := time.Now()
	seen.AcknowledgedAt = &now

	m, _ := loadedModel([]models.StoredRecommendation{seen}, nil)
	if _, cmd := m.Update(keyRunes("a")); cmd != nil {
		t.Error("an acknowledged recommendation should not be acknowledged again")
	}
}

func TestModel_DismissConfirm(t *testing.T) {
	m, _ := loadedModel([]models.StoredRecommendation{rec(9, "Rice", models.UrgencyHigh, 3)}, nil)

	m.Update(keyRunes("d"))
	if !m.confirmDismiss {
		t.Fatal("d should ask for confirmation")
	}
	if view := m.View(); !strings.Contains(view, "Dismiss Recommendation?") {
		t.Error("view should show the confirmation")
	}

	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if m.confirmDismiss {
		t.Fatal("esc should cancel")
	}

	m.Update(keyRunes("d"))
	_, cmd := m.Update(keyRunes("y"))
	if cmd == nil {
		t.Fatal("y should dismiss")
	}
	msg, ok := cmd().(app.RecommendationActionMsg)
	if !ok || msg.ID != 9 || msg.Action != app.ActionDismiss {
		t.Errorf("msg = %+v", msg)
	}
}

func TestModel_MarkRead(t *testing.T) {
	m, _ := loadedModel(nil, []models.Notification{{ID: "n1", Message: "Milk is low"}})

	_, cmd := m.Update(keyRunes("m"))
	if cmd == nil {
		t.Fatal("m should mark alerts read")
	}
	if _, ok := cmd().(app.MarkAlertsReadMsg); !ok {
		t.Error("expected MarkAlertsReadMsg")
	}

	m, _ = loadedModel(nil, []models.Notification{{ID: "n1", IsRead: true}})
	if _, cmd := m.Update(keyRunes("m")); cmd != nil {
		t.Error("m with no unread alerts should do nothing")
	}
}

func TestModel_View(t *testing.T) {
	m, _ := loadedModel(nil, nil)
	view := m.View()
	if !strings.Contains(view, "Nothing to buy right now") || !strings.Contains(view, "No stock alerts") {
		t.Errorf("empty view = %q", view)
	}

	m, _ = loadedModel(
		[]models.StoredRecommendation{rec(1, "Coffee", models.UrgencyHigh, 2)},
		[]models.Notification{{ID: "n1", Message: "Coffee is running low", CreatedAt: time.Now()}},
	)
	view = m.View()
	for _, want := range []string{"Coffee", "high", "1 active", "1 unread alerts", "Coffee is running low"} {
		if !strings.Contains(view, want) {
			t.Errorf("view should contain %q", want)
		}
	}
}

func TestFormatAge(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{10 * time.Second, "now"},
		{5 * time.Minute, "5m"},
		{3 * time.Hour, "3h"},
		{50 * time.Hour, "2d"},
	}
	for _, tt := range tests {
		if got := formatAge(tt.d); got != tt.want {
			t.Errorf("formatAge(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestFormatPace(t *testing.T) {
	if got := formatPace(1.5, 0.75); got != "1.50/0.75" {
		t.Errorf("formatPace = %q", got)
	}
	if got := formatPace(1, 0); got != "1.00/-" {
		t.Errorf("formatPace without market = %q", got)
	}
}

func TestModel_Help(t *testing.T) {
	m := New(app.NewState())
	if len(m.ShortHelp()) != 3 {
		t.Error("ShortHelp should list three keys")
	}
	if len(m.FullHelp()) == 0 {
		t.Error("FullHelp empty")
	}
}

package pantry

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/j-veylop/stockpace/internal/models"
)

func newTestService(t *testing.T) (*Service, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "pantry.json")
	svc, err := New(path)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	t.Cleanup(func() {
		if err := svc.Close(); err != nil {
			t.Logf("Close() failed: %v", err)
		}
	})
	return svc, path
}

// waitFor drains events until one of type want arrives.
func waitFor(t *testing.T, svc *Service, want EventType) Event {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case ev := <-svc.Events():
			if ev.Type == want {
				return ev
			}
		case <-deadline:
			t.Fatalf("timed out waiting for event %d", want)
			return Event{}
		}
	}
}

func TestNew_CreatesFile(t *testing.T) {
	svc, path := newTestService(t)

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("pantry file was not created: %v", err)
	}
	if svc.Count() != 0 {
		t.Errorf("Count() = %d, want 0", svc.Count())
	}

	data, _ := os.ReadFile(path)
	var doc models.Pantry
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("pantry file is not valid JSON: %v", err)
	}
	if doc.Version != fileVersion {
		t.Errorf("Version = %d, want %d", doc.Version, fileVersion)
	}
}

func TestNew_RequiresPath(t *testing.T) {
	if _, err := New(""); err == nil {
		t.Error("New(\"\") should fail")
	}
}

func TestNew_AssignsMissingIDs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pantry.json")
	content := `{"version":1,"items":[{"name":"rice","current_quantity":3,"minimum_threshold":1},{"id":"keep","name":"milk"}]}`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	svc, err := New(path)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	defer func() { _ = svc.Close() }()

	items := svc.Items()
	if len(items) != 2 {
		t.Fatalf("len(items) = %d, want 2", len(items))
	}
	if items[0].ID == "" {
		t.Error("missing id should be assigned")
	}
	if items[1].ID != "keep" {
		t.Errorf("existing id = %q, want keep", items[1].ID)
	}

	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), items[0].ID) {
		t.Error("assigned id should be written back to the file")
	}
}

func TestNew_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pantry.json")
	if err := os.WriteFile(path, []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := New(path); err == nil {
		t.Error("New() should fail on a corrupt pantry file")
	}
}

func TestAddItem(t *testing.T) {
	svc, _ := newTestService(t)

	item, err := svc.AddItem(models.Item{Name: "  Rice ", CurrentQuantity: 5, MinimumThreshold: 1})
	if err != nil {
		t.Fatalf("AddItem() failed: %v", err)
	}
	if item.ID == "" || item.Name != "Rice" || item.AddedAt.IsZero() {
		t.Errorf("AddItem() = %+v", item)
	}

	ev := waitFor(t, svc, EventItemAdded)
	if ev.Item == nil || ev.Item.ID != item.ID {
		t.Errorf("event item = %+v", ev.Item)
	}

	if _, err := svc.AddItem(models.Item{ID: item.ID, Name: "dup"}); !errors.Is(err, ErrInvalidItem) {
		t.Errorf("duplicate id error = %v, want ErrInvalidItem", err)
	}
}

func TestAddItem_Validation(t *testing.T) {
	svc, _ := newTestService(t)
	negative := -1

	tests := []struct {
		name string
		item models.Item
	}{
		{"empty name", models.Item{Name: "   "}},
		{"negative quantity", models.Item{Name: "rice", CurrentQuantity: -1}},
		{"negative threshold", models.Item{Name: "rice", MinimumThreshold: -2}},
		{"non-positive target", models.Item{Name: "rice", TargetStockLevel: &negative}},
		{"long name", models.Item{Name: strings.Repeat("x", 101)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.AddItem(tt.item); !errors.Is(err, ErrInvalidItem) {
				t.Errorf("AddItem() error = %v, want ErrInvalidItem", err)
			}
		})
	}
	if svc.Count() != 0 {
		t.Errorf("Count() = %d, want 0", svc.Count())
	}
}

func TestUpdateItem(t *testing.T) {
	svc, path := newTestService(t)
	item, _ := svc.AddItem(models.Item{Name: "soap", CurrentQuantity: 2})
	added := item.AddedAt

	item.CurrentQuantity = 9
	item.AddedAt = time.Time{}
	if err := svc.UpdateItem(item); err != nil {
		t.Fatalf("UpdateItem() failed: %v", err)
	}

	got, err := svc.Item(item.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.CurrentQuantity != 9 {
		t.Errorf("CurrentQuantity = %d, want 9", got.CurrentQuantity)
	}
	if !got.AddedAt.Equal(added) {
		t.Errorf("AddedAt = %v, want preserved %v", got.AddedAt, added)
	}

	reloaded, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = reloaded.Close() }()
	if r, _ := reloaded.Item(item.ID); r.CurrentQuantity != 9 {
		t.Errorf("persisted CurrentQuantity = %d, want 9", r.CurrentQuantity)
	}

	if err := svc.UpdateItem(models.Item{ID: "missing", Name: "x"}); !errors.Is(err, ErrItemNotFound) {
		t.Errorf("UpdateItem(missing) error = %v, want ErrItemNotFound", err)
	}
}

func TestDeleteItem(t *testing.T) {
	svc, _ := newTestService(t)
	a, _ := svc.AddItem(models.Item{Name: "a"})
	b, _ := svc.AddItem(models.Item{Name: "b"})

	if err := svc.DeleteItem(a.ID); err != nil {
		t.Fatalf("DeleteItem() failed: %v", err)
	}
	items := svc.Items()
	if len(items) != 1 || items[0].ID != b.ID {
		t.Errorf("items after delete = %+v", items)
	}
	if err := svc.DeleteItem(a.ID); !errors.Is(err, ErrItemNotFound) {
		t.Errorf("second DeleteItem() error = %v, want ErrItemNotFound", err)
	}
}

func TestRecordConsumption(t *testing.T) {
	svc, _ := newTestService(t)
	item, _ := svc.AddItem(models.Item{Name: "eggs", CurrentQuantity: 3})
	day := time.Date(2026, 3, 14, 18, 30, 0, 0, time.UTC)

	if err := svc.RecordConsumption(item.ID, 2, day, "omelette"); err != nil {
		t.Fatalf("RecordConsumption() failed: %v", err)
	}
	if err := svc.RecordConsumption(item.ID, 5, day, ""); err != nil {
		t.Fatalf("RecordConsumption() failed: %v", err)
	}

	got, _ := svc.Item(item.ID)
	if got.CurrentQuantity != 0 {
		t.Errorf("CurrentQuantity = %d, want 0 (floored)", got.CurrentQuantity)
	}
	if len(got.Events) != 2 {
		t.Fatalf("len(Events) = %d, want 2", len(got.Events))
	}
	if got.Events[0].Date != "2026-03-14" || got.Events[0].Note != "omelette" || got.Events[0].Quantity != 2 {
		t.Errorf("first event = %+v", got.Events[0])
	}

	for _, q := range []float64{0, -1} {
		if err := svc.RecordConsumption(item.ID, q, day, ""); !errors.Is(err, ErrInvalidItem) {
			t.Errorf("RecordConsumption(%v) error = %v, want ErrInvalidItem", q, err)
		}
	}
	if err := svc.RecordConsumption("missing", 1, day, ""); !errors.Is(err, ErrItemNotFound) {
		t.Errorf("RecordConsumption(missing) error = %v, want ErrItemNotFound", err)
	}
}

func TestRestock(t *testing.T) {
	svc, _ := newTestService(t)
	item, _ := svc.AddItem(models.Item{Name: "tea", CurrentQuantity: 1})

	if err := svc.Restock(item.ID, 4); err != nil {
		t.Fatalf("Restock() failed: %v", err)
	}
	if got, _ := svc.Item(item.ID); got.CurrentQuantity != 5 {
		t.Errorf("CurrentQuantity = %d, want 5", got.CurrentQuantity)
	}
	if err := svc.Restock(item.ID, 0); !errors.Is(err, ErrInvalidItem) {
		t.Errorf("Restock(0) error = %v, want ErrInvalidItem", err)
	}
}

func TestItems_ReturnsCopies(t *testing.T) {
	svc, _ := newTestService(t)
	item, _ := svc.AddItem(models.Item{Name: "milk", Events: []models.ConsumptionEvent{{Date: "2026-01-01", Quantity: 1}}})

	items := svc.Items()
	items[0].Name = "changed"
	items[0].Events[0].Quantity = 99

	got, _ := svc.Item(item.ID)
	if got.Name != "milk" || got.Events[0].Quantity != 1 {
		t.Errorf("internal state was mutated: %+v", got)
	}
}

func TestWatcher_ExternalChange(t *testing.T) {
	svc, path := newTestService(t)

	content := `{"version":1,"items":[{"id":"x1","name":"coffee","current_quantity":2}]}`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	waitFor(t, svc, EventItemsChanged)
	items := svc.Items()
	if len(items) != 1 || items[0].ID != "x1" {
		t.Errorf("items after reload = %+v", items)
	}
}

func TestWatcher_FileDeleted(t *testing.T) {
	svc, path := newTestService(t)
	if _, err := svc.AddItem(models.Item{Name: "salt"}); err != nil {
		t.Fatal(err)
	}

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	waitFor(t, svc, EventFileDeleted)

	if svc.Count() != 1 {
		t.Errorf("in-memory items should survive deletion, Count() = %d", svc.Count())
	}
}

func TestSendEvent_DropsOldest(t *testing.T) {
	s := &Service{eventChan: make(chan Event, 2)}
	s.sendEvent(Event{Type: EventItemAdded})
	s.sendEvent(Event{Type: EventItemUpdated})
	s.sendEvent(Event{Type: EventItemDeleted})

	if got := (<-s.eventChan).Type; got != EventItemUpdated {
		t.Errorf("first event = %d, want EventItemUpdated", got)
	}
	if got := (<-s.eventChan).Type; got != EventItemDeleted {
		t.Errorf("second event = %d, want EventItemDeleted", got)
	}
}

package db

import (
	"context"
	"testing"
	"time"

	"github.com/j-veylop/stockpace/internal/models"
)

func TestUpsertSnapshot(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()
	ctx := context.Background()

	day := time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC)
	first := &models.StockSnapshot{ItemID: "rice", Day: day, Quantity: 5, Pace: 0.5, DaysRemaining: 8, Urgency: models.UrgencyLow}
	second := &models.StockSnapshot{ItemID: "rice", Day: day.Add(3 * time.Hour), Quantity: 3, Pace: 0.6, MarketPace: 0.15,
		DaysRemaining: 3, Urgency: models.UrgencyHigh, Confidence: 0.8}

	if err := db.UpsertSnapshot(ctx, first); err != nil {
		t.Fatalf("UpsertSnapshot() failed: %v", err)
	}
	if err := db.UpsertSnapshot(ctx, second); err != nil {
		t.Fatalf("UpsertSnapshot() failed: %v", err)
	}

	snaps, err := db.GetSnapshots(ctx, "rice", 0, day)
	if err != nil {
		t.Fatalf("GetSnapshots() failed: %v", err)
	}
	if len(snaps) != 1 {
		t.Fatalf("len(snaps) = %d, want 1 (same day upserts)", len(snaps))
	}
	s := snaps[0]
	if s.Quantity != 3 || s.DaysRemaining != 3 || s.Urgency != models.UrgencyHigh || s.MarketPace != 0.15 || s.Confidence != 0.8 {
		t.Errorf("snapshot = %+v", s)
	}
	if !s.Day.Equal(time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Day = %v", s.Day)
	}
}

func TestGetSnapshots_Window(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()
	ctx := context.Background()

	now := time.Date(2026, 3, 31, 12, 0, 0, 0, time.UTC)
	for i := range 40 {
		snap := &models.StockSnapshot{ItemID: "milk", Day: now.AddDate(0, 0, -i), DaysRemaining: i}
		if err := db.UpsertSnapshot(ctx, snap); err != nil {
			t.Fatal(err)
		}
	}
	_ = db.UpsertSnapshot(ctx, &models.StockSnapshot{ItemID: "other", Day: now})

	tests := []struct {
		days int
		want int
	}{
		{7, 7},
		{30, 30},
		{0, 40},
	}
	for _, tt := range tests {
		snaps, err := db.GetSnapshots(ctx, "milk", tt.days, now)
		if err != nil {
			t.Fatal(err)
		}
		if len(snaps) != tt.want {
			t.Errorf("GetSnapshots(days=%d) returned %d, want %d", tt.days, len(snaps), tt.want)
			continue
		}
		for i := 1; i < len(snaps); i++ {
			if !snaps[i].Day.After(snaps[i-1].Day) {
				t.Errorf("snapshots not in day order at %d", i)
				break
			}
		}
	}
}

func TestCleanupOldSnapshots(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()
	ctx := context.Background()

	now := time.Now()
	_ = db.UpsertSnapshot(ctx, &models.StockSnapshot{ItemID: "rice", Day: now.AddDate(0, 0, -100)})
	_ = db.UpsertSnapshot(ctx, &models.StockSnapshot{ItemID: "rice", Day: now.AddDate(0, 0, -1)})

	n, err := db.CleanupOldSnapshots(ctx, 90)
	if err != nil {
		t.Fatalf("CleanupOldSnapshots() failed: %v", err)
	}
	if n != 1 {
		t.Errorf("deleted = %d, want 1", n)
	}
	if n, _ := db.CleanupOldSnapshots(ctx, 0); n != 0 {
		t.Errorf("non-positive retention should delete nothing, deleted %d", n)
	}
}

func TestDeleteItemData(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()
	ctx := context.Background()

	_ = db.UpsertSnapshot(ctx, &models.StockSnapshot{ItemID: "rice", Day: time.Now()})
	_ = db.SaveRecommendation(ctx, newRecommendation("rice", models.UrgencyHigh, 2))
	_ = db.InsertNotification(ctx, &models.Notification{ItemID: "rice", Type: models.NotificationStock, Message: "low"})

	if err := db.DeleteItemData(ctx, "rice"); err != nil {
		t.Fatalf("DeleteItemData() failed: %v", err)
	}

	if snaps, _ := db.GetSnapshots(ctx, "rice", 0, time.Now()); len(snaps) != 0 {
		t.Errorf("snapshots left = %d", len(snaps))
	}
	if active, _ := db.ListActiveRecommendations(ctx); len(active) != 0 {
		t.Errorf("active recommendations left = %d", len(active))
	}
	if n, _ := db.CountUnreadNotifications(ctx); n != 0 {
		t.Errorf("notifications left = %d", n)
	}
}

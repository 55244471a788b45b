package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/j-veylop/stockpace/internal/models"
)

func TestNotifications(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()
	ctx := context.Background()

	base := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	older := &models.Notification{ItemID: "rice", Type: models.NotificationStock, Message: "Rice is running low", CreatedAt: base}
	newer := &models.Notification{ItemID: "soap", Type: models.NotificationUrgentStock, Message: "Soap runs out today", CreatedAt: base.Add(time.Hour)}

	for _, n := range []*models.Notification{older, newer} {
		if err := db.InsertNotification(ctx, n); err != nil {
			t.Fatalf("InsertNotification() failed: %v", err)
		}
		if n.ID == "" {
			t.Error("InsertNotification() should assign an ID")
		}
	}

	unread, err := db.ListUnreadNotifications(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(unread) != 2 || unread[0].ID != newer.ID {
		t.Fatalf("unread = %+v", unread)
	}
	if unread[0].Type != models.NotificationUrgentStock || !unread[0].CreatedAt.Equal(newer.CreatedAt) {
		t.Errorf("unread[0] = %+v", unread[0])
	}

	if err := db.MarkNotificationRead(ctx, older.ID); err != nil {
		t.Fatalf("MarkNotificationRead() failed: %v", err)
	}
	if n, _ := db.CountUnreadNotifications(ctx); n != 1 {
		t.Errorf("CountUnreadNotifications() = %d, want 1", n)
	}

	all, _ := db.ListNotifications(ctx, false, 10)
	if len(all) != 2 {
		t.Errorf("len(all) = %d, want 2", len(all))
	}

	if err := db.MarkNotificationRead(ctx, "missing"); !errors.Is(err, ErrNotificationNotFound) {
		t.Errorf("MarkNotificationRead(missing) error = %v", err)
	}

	if n, err := db.MarkAllNotificationsRead(ctx); err != nil || n != 1 {
		t.Errorf("MarkAllNotificationsRead() = %d, %v; want 1", n, err)
	}
	if n, _ := db.CountUnreadNotifications(ctx); n != 0 {
		t.Errorf("CountUnreadNotifications() = %d, want 0", n)
	}
}

package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/stockpace/internal/services"
)

const (
	// DefaultTickInterval is the default interval between ticks.
	DefaultTickInterval = 2 * time.Second

	// DefaultNotificationDuration is the default duration for notifications.
	DefaultNotificationDuration = 5 * time.Second

	// QuickNotificationDuration is for brief notifications.
	QuickNotificationDuration = 3 * time.Second

	// LongNotificationDuration is for important notifications.
	LongNotificationDuration = 10 * time.Second

	commandTimeout = 30 * time.Second
	alertsLimit    = 20
)

func tickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return TickMsg{Time: t}
	})
}

func defaultTickCmd() tea.Cmd {
	return tickCmd(DefaultTickInterval)
}

func loadInitialData(mgr *services.Manager) tea.Cmd {
	return tea.Batch(
		loadAdviceCmd(mgr),
		loadRecommendationsCmd(mgr),
	)
}

// loadAdviceCmd reads the cached evaluation without re-running it.
func loadAdviceCmd(mgr *services.Manager) tea.Cmd {
	return func() tea.Msg {
		advice, stats := mgr.InitialState()
		return AdviceLoadedMsg{Advice: advice, Stats: stats}
	}
}

// evaluateCmd re-evaluates every pantry item.
func evaluateCmd(mgr *services.Manager) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()

		err := mgr.Evaluate(ctx)
		advice, stats := mgr.InitialState()
		return AdviceLoadedMsg{Advice: advice, Stats: stats, Err: err}
	}
}

func loadRecommendationsCmd(mgr *services.Manager) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()

		recs, err := mgr.Recommendations(ctx, true)
		if err != nil {
			return RecommendationsLoadedMsg{Err: err}
		}
		alerts, err := mgr.Notifications(ctx, false)
		if err != nil {
			return RecommendationsLoadedMsg{Err: err}
		}
		if len(alerts) > alertsLimit {
			alerts = alerts[:alertsLimit]
		}
		return RecommendationsLoadedMsg{Recommendations: recs, Alerts: alerts}
	}
}

func recommendationActionCmd(mgr *services.Manager, msg RecommendationActionMsg) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()

		var err error
		switch msg.Action {
		case ActionAcknowledge:
			err = mgr.AcknowledgeRecommendation(ctx, msg.ID)
		case ActionDismiss:
			err = mgr.DismissRecommendation(ctx, msg.ID)
		}
		return RecommendationActionResultMsg{RecommendationActionMsg: msg, Err: err}
	}
}

func markAlertsReadCmd(mgr *services.Manager) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()

		if err := mgr.MarkAllNotificationsRead(ctx); err != nil {
			return ErrorMsg{Error: fmt.Errorf("failed to mark alerts read: %w", err)}
		}
		return RefreshMsg{Resource: ResourceRecommendations}
	}
}

func itemActionCmd(mgr *services.Manager, msg ItemActionMsg) tea.Cmd {
	return func() tea.Msg {
		var err error
		switch msg.Op {
		case OpConsume:
			err = mgr.RecordConsumption(msg.ItemID, float64(msg.Quantity), "")
		case OpRestock:
			err = mgr.Restock(msg.ItemID, msg.Quantity)
		case OpAdd:
			_, err = mgr.AddItem(msg.Item)
		case OpDelete:
			err = mgr.DeleteItem(msg.ItemID)
		default:
			err = errors.New("unknown item operation")
		}
		return ItemActionResultMsg{ItemActionMsg: msg, Err: err}
	}
}

// subscribeToServicesCmd subscribes to the manager's events.
func subscribeToServicesCmd(mgr *services.Manager) tea.Cmd {
	ch, _ := mgr.Subscribe()
	return func() tea.Msg {
		return SubscriptionEventMsg{Channel: ch}
	}
}

// waitForServiceEventCmd blocks for the next service event. A closed
// channel ends the wait loop.
func waitForServiceEventCmd(ch <-chan services.ServiceEvent) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-ch
		if !ok {
			return nil
		}
		return ServiceEventMsg{Event: event}
	}
}

func clearNotificationCmd(id string, delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(_ time.Time) tea.Msg {
		return RemoveNotificationMsg{ID: id}
	})
}

func notifyCmd(t NotificationType, message string, d time.Duration) tea.Cmd {
	return func() tea.Msg {
		return AddNotificationMsg{Type: t, Message: message, Duration: d}
	}
}

func notifySuccessCmd(message string) tea.Cmd {
	return notifyCmd(NotificationSuccess, message, DefaultNotificationDuration)
}

func notifyErrorCmd(message string) tea.Cmd {
	return notifyCmd(NotificationError, message, LongNotificationDuration)
}

func notifyWarningCmd(message string) tea.Cmd {
	return notifyCmd(NotificationWarning, message, DefaultNotificationDuration)
}

func notifyInfoCmd(message string) tea.Cmd {
	return notifyCmd(NotificationInfo, message, QuickNotificationDuration)
}

// NotifyError returns a command that adds an error toast. Tabs use it to
// surface their own failures.
func NotifyError(message string) tea.Cmd {
	return notifyErrorCmd(message)
}

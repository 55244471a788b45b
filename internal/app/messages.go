package app

import (
	"time"

	"github.com/j-veylop/stockpace/internal/models"
	"github.com/j-veylop/stockpace/internal/services"
)

// TickMsg is sent periodically to expire toasts.
type TickMsg struct {
	Time time.Time
}

// StartLoadingMsg indicates that a loading operation has started.
type StartLoadingMsg struct {
	Resource string
}

// StopLoadingMsg indicates that a loading operation has completed.
type StopLoadingMsg struct {
	Resource string
}

// AdviceLoadedMsg carries a fresh evaluation of the pantry.
type AdviceLoadedMsg struct {
	Advice []models.ItemAdvice
	Stats  models.PantryStats
	Err    error
}

// RecommendationsLoadedMsg carries the active recommendations and the most
// recent stock alerts.
type RecommendationsLoadedMsg struct {
	Recommendations []models.StoredRecommendation
	Alerts          []models.Notification
	Err             error
}

// RecommendationAction is what a user did to a stored recommendation.
type RecommendationAction int

const (
	ActionAcknowledge RecommendationAction = iota
	ActionDismiss
)

func (a RecommendationAction) String() string {
	if a == ActionDismiss {
		return "dismissed"
	}
	return "acknowledged"
}

// RecommendationActionMsg asks the app to acknowledge or dismiss a
// recommendation.
type RecommendationActionMsg struct {
	ID       int64
	ItemName string
	Action   RecommendationAction
}

// RecommendationActionResultMsg reports the outcome of a RecommendationActionMsg.
type RecommendationActionResultMsg struct {
	RecommendationActionMsg
	Err error
}

// MarkAlertsReadMsg asks the app to mark every stock alert as read.
type MarkAlertsReadMsg struct{}

// ItemOperation is a pantry change requested from the UI.
type ItemOperation int

const (
	OpConsume ItemOperation = iota
	OpRestock
	OpAdd
	OpDelete
)

// ItemActionMsg asks the app to change the pantry. Item is only used by OpAdd.
type ItemActionMsg struct {
	Op       ItemOperation
	ItemID   string
	ItemName string
	Quantity int
	Item     models.Item
}

// ItemActionResultMsg reports the outcome of an ItemActionMsg.
type ItemActionResultMsg struct {
	ItemActionMsg
	Err error
}

// SelectedItemChangedMsg is sent when the dashboard selection moves.
type SelectedItemChangedMsg struct {
	ItemID string
}

// AddNotificationMsg requests adding a toast.
type AddNotificationMsg struct {
	Type     NotificationType
	Message  string
	Duration time.Duration
}

// RemoveNotificationMsg requests removing a toast.
type RemoveNotificationMsg struct {
	ID string
}

// ClearExpiredNotificationsMsg triggers cleanup of expired toasts.
type ClearExpiredNotificationsMsg struct{}

// SubscriptionEventMsg carries the manager subscription channel.
type SubscriptionEventMsg struct {
	Channel chan services.ServiceEvent
}

// ServiceEventMsg wraps a service event for the Bubble Tea loop.
type ServiceEventMsg struct {
	Event services.ServiceEvent
}

// ErrorMsg represents a generic error.
type ErrorMsg struct {
	Error error
}

// RefreshMsg requests a data refresh. Resource is "all", "advice" or
// "recommendations".
type RefreshMsg struct {
	Resource string
}

// TabSwitchMsg requests switching to a different tab.
type TabSwitchMsg struct {
	Tab TabID
}

// ToggleHelpMsg toggles the help overlay.
type ToggleHelpMsg struct{}

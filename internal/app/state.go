// Package app provides the main Bubble Tea application model and state management.
package app

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/j-veylop/stockpace/internal/models"
)

// NotificationType defines the type of notification.
type NotificationType int

const (
	NotificationSuccess NotificationType = iota
	NotificationError
	NotificationWarning
	NotificationInfo
	// NotificationLoading is rendered with the spinner instead of a prefix.
	NotificationLoading
)

// LoadingNotificationID is the fixed ID of the loading toast.
const LoadingNotificationID = "__loading__"

const maxNotifications = 10

// String returns the string representation of a NotificationType.
func (n NotificationType) String() string {
	switch n {
	case NotificationSuccess:
		return "success"
	case NotificationError:
		return "error"
	case NotificationWarning:
		return "warning"
	case NotificationInfo:
		return "info"
	case NotificationLoading:
		return "loading"
	default:
		return "unknown"
	}
}

// Notification is a toast shown on top of the active tab.
type Notification struct {
	ID        string
	Type      NotificationType
	Message   string
	CreatedAt time.Time
	Duration  time.Duration
}

// IsExpired returns true if the notification has expired.
// A zero duration never expires.
func (n *Notification) IsExpired() bool {
	if n.Duration <= 0 {
		return false
	}
	return time.Since(n.CreatedAt) > n.Duration
}

// Loading resources.
const (
	ResourceInitial         = "initial"
	ResourceAdvice          = "advice"
	ResourceRecommendations = "recommendations"
)

// LoadingState tracks loading states for different resources.
type LoadingState struct {
	Initial         bool
	Advice          bool
	Recommendations bool
}

// State is the data shared by the root model and every tab.
type State struct {
	mu sync.RWMutex

	Advice          []models.ItemAdvice
	Stats           *models.PantryStats
	Recommendations []models.StoredRecommendation
	Alerts          []models.Notification
	SelectedIndex   int

	Loading LoadingState

	LastUpdated time.Time

	notifications []Notification
}

// NewState creates an empty state with the initial load pending.
func NewState() *State {
	return &State{
		Advice:        make([]models.ItemAdvice, 0),
		notifications: make([]Notification, 0),
		Loading: LoadingState{
			Initial: true,
		},
	}
}

// SetLoading sets the loading state for a specific resource.
func (s *State) SetLoading(resource string, loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch resource {
	case ResourceInitial:
		s.Loading.Initial = loading
	case ResourceAdvice:
		s.Loading.Advice = loading
	case ResourceRecommendations:
		s.Loading.Recommendations = loading
	}
}

// AnyLoading returns true if any resource is currently loading.
func (s *State) AnyLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.Loading.Initial || s.Loading.Advice || s.Loading.Recommendations
}

// IsInitialLoading returns true if initial data is still loading.
func (s *State) IsInitialLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Loading.Initial
}

// GetLoadingResources returns a list of currently loading resources.
func (s *State) GetLoadingResources() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var resources []string
	if s.Loading.Initial {
		resources = append(resources, ResourceInitial)
	}
	if s.Loading.Advice {
		resources = append(resources, ResourceAdvice)
	}
	if s.Loading.Recommendations {
		resources = append(resources, ResourceRecommendations)
	}
	return resources
}

// SetAdvice replaces the evaluated items. The selection follows the
// previously selected item when it is still present.
func (s *State) SetAdvice(advice []models.ItemAdvice) {
	s.mu.Lock()
	defer s.mu.Unlock()

	selectedID := ""
	if s.SelectedIndex >= 0 && s.SelectedIndex < len(s.Advice) {
		selectedID = s.Advice[s.SelectedIndex].Item.ID
	}

	s.Advice = advice
	s.LastUpdated = time.Now()

	s.SelectedIndex = 0
	for i := range advice {
		if advice[i].Item.ID == selectedID {
			s.SelectedIndex = i
			break
		}
	}
}

// GetAdvice returns a copy of the evaluated items.
func (s *State) GetAdvice() []models.ItemAdvice {
	s.mu.RLock()
	defer s.mu.RUnlock()

	advice := make([]models.ItemAdvice, len(s.Advice))
	copy(advice, s.Advice)
	return advice
}

// GetItemCount returns the number of evaluated items.
func (s *State) GetItemCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.Advice)
}

// GetSelectedAdvice returns the selected item's advice, or nil when the
// pantry is empty.
func (s *State) GetSelectedAdvice() *models.ItemAdvice {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.SelectedIndex < 0 || s.SelectedIndex >= len(s.Advice) {
		return nil
	}
	advice := s.Advice[s.SelectedIndex]
	return &advice
}

// GetSelectedIndex returns the currently selected item index.
func (s *State) GetSelectedIndex() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.SelectedIndex
}

// SetSelectedIndex updates the selected item index, clamped to the item list.
func (s *State) SetSelectedIndex(idx int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.Advice) == 0 {
		s.SelectedIndex = 0
		return
	}
	s.SelectedIndex = min(max(idx, 0), len(s.Advice)-1)
}

// SetStats updates the statistics.
func (s *State) SetStats(stats models.PantryStats) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Stats = &stats
}

// GetStats returns the current statistics.
func (s *State) GetStats() *models.PantryStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Stats
}

// SetRecommendations stores the active recommendations and recent alerts.
func (s *State) SetRecommendations(recs []models.StoredRecommendation, alerts []models.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Recommendations = recs
	s.Alerts = alerts
}

// GetRecommendations returns a copy of the active recommendations.
func (s *State) GetRecommendations() []models.StoredRecommendation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recs := make([]models.StoredRecommendation, len(s.Recommendations))
	copy(recs, s.Recommendations)
	return recs
}

// GetAlerts returns a copy of the recent stock alerts.
func (s *State) GetAlerts() []models.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()

	alerts := make([]models.Notification, len(s.Alerts))
	copy(alerts, s.Alerts)
	return alerts
}

// UnreadAlerts counts unread stock alerts.
func (s *State) UnreadAlerts() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, a := range s.Alerts {
		if !a.IsRead {
			n++
		}
	}
	return n
}

// AddNotification adds a new toast and returns its ID.
func (s *State) AddNotification(notifType NotificationType, message string, duration time.Duration) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	s.notifications = append(s.notifications, Notification{
		ID:        id,
		Type:      notifType,
		Message:   message,
		CreatedAt: time.Now(),
		Duration:  duration,
	})

	if len(s.notifications) > maxNotifications {
		s.notifications = s.notifications[len(s.notifications)-maxNotifications:]
	}

	return id
}

// RemoveNotification removes a notification by ID.
func (s *State) RemoveNotification(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.notifications {
		if n.ID == id {
			s.notifications = append(s.notifications[:i], s.notifications[i+1:]...)
			return
		}
	}
}

// ClearExpiredNotifications removes all expired notifications.
func (s *State) ClearExpiredNotifications() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = activeNotifications(s.notifications)
}

// GetNotifications returns a copy of all active notifications.
func (s *State) GetNotifications() []Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return activeNotifications(s.notifications)
}

func activeNotifications(all []Notification) []Notification {
	active := make([]Notification, 0, len(all))
	for _, n := range all {
		if !n.IsExpired() {
			active = append(active, n)
		}
	}
	return active
}

// ClearAllNotifications removes all notifications.
func (s *State) ClearAllNotifications() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = make([]Notification, 0)
}

// SetLoadingNotification sets or replaces the loading toast message.
func (s *State) SetLoadingNotification(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.notifications {
		if n.ID == LoadingNotificationID {
			s.notifications[i].Message = message
			return
		}
	}

	s.notifications = append(s.notifications, Notification{
		ID:        LoadingNotificationID,
		Type:      NotificationLoading,
		Message:   message,
		CreatedAt: time.Now(),
	})
}

// ClearLoadingNotification removes the loading notification.
func (s *State) ClearLoadingNotification() {
	s.RemoveNotification(LoadingNotificationID)
}

// GetLastUpdated returns the last time the advice was updated.
func (s *State) GetLastUpdated() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.LastUpdated
}

// TimeSinceUpdate returns the duration since the last update.
func (s *State) TimeSinceUpdate() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.LastUpdated.IsZero() {
		return 0
	}
	return time.Since(s.LastUpdated)
}

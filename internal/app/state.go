// Package app provides the main Bubble Tea application model and state management.
package app

import (
	"sync"
	"time"

	"github.com/j-veylop/aximo-tui/internal/catalog"
	"github.com/j-veylop/aximo-tui/internal/models"
	"github.com/j-veylop/aximo-tui/internal/services"
	"github.com/j-veylop/aximo-tui/internal/session"
)

// NotificationType defines the type of notification.
type NotificationType int

const (
	// NotificationSuccess represents a success notification.
	NotificationSuccess NotificationType = iota
	// NotificationError represents an error notification.
	NotificationError
	// NotificationWarning represents a warning notification.
	NotificationWarning
	// NotificationInfo represents an informational notification.
	NotificationInfo
	// NotificationLoading represents a loading notification with spinner.
	NotificationLoading
)

const (
	// LoadingNotificationID is the fixed ID for loading notifications.
	LoadingNotificationID = "__loading__"

	maxNotifications = 10
)

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

// Notification represents a user-facing notification message.
type Notification struct {
	CreatedAt time.Time
	ID        string
	Message   string
	Type      NotificationType
	Duration  time.Duration
}

// IsExpired returns true if the notification has expired.
func (n *Notification) IsExpired() bool {
	if n.Duration <= 0 {
		return false
	}
	return time.Since(n.CreatedAt) > n.Duration
}

// Resource names a piece of state that loads asynchronously.
type Resource string

// Loadable resources.
const (
	ResourceInitial   Resource = "initial"
	ResourceCatalog   Resource = "catalog"
	ResourceDashboard Resource = "dashboard"
	ResourceActivity  Resource = "activity"
	ResourceReports   Resource = "reports"
)

// LoadingState tracks loading states for different resources.
type LoadingState struct {
	Initial   bool
	Catalog   bool
	Dashboard bool
	Activity  bool
	Reports   bool
}

// CatalogInfo describes where the current catalog came from.
type CatalogInfo struct {
	LastSync  time.Time
	Source    string
	FromCache bool
}

// State is shared by the root model and every tab.
type State struct {
	LastUpdated time.Time

	session   *session.Session
	dashboard *services.Dashboard
	activity  *models.ActivityStats
	report    *models.AdminReport

	records   []models.ModelRecord
	facets    catalog.Facets
	purchased map[string]bool
	info      CatalogInfo

	notifications []Notification
	Loading       LoadingState

	mu              sync.RWMutex
	notificationSeq int
	admin           bool
}

// NewState creates an empty state that is still loading.
func NewState() *State {
	return &State{
		records:       make([]models.ModelRecord, 0),
		facets:        catalog.Facets{Frameworks: []string{}, UseCases: []string{}},
		purchased:     make(map[string]bool),
		notifications: make([]Notification, 0),
		Loading: LoadingState{
			Initial: true,
		},
	}
}

// SetLoading sets the loading state for a specific resource.
func (s *State) SetLoading(resource Resource, loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch resource {
	case ResourceInitial:
		s.Loading.Initial = loading
	case ResourceCatalog:
		s.Loading.Catalog = loading
	case ResourceDashboard:
		s.Loading.Dashboard = loading
	case ResourceActivity:
		s.Loading.Activity = loading
	case ResourceReports:
		s.Loading.Reports = loading
	}
}

// AnyLoading returns true if any resource is currently loading.
func (s *State) AnyLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.Loading.Initial ||
		s.Loading.Catalog ||
		s.Loading.Dashboard ||
		s.Loading.Activity ||
		s.Loading.Reports
}

// IsInitialLoading returns true if initial data is still loading.
func (s *State) IsInitialLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Loading.Initial
}

// IsLoading reports whether one resource is loading.
func (s *State) IsLoading(resource Resource) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	switch resource {
	case ResourceInitial:
		return s.Loading.Initial
	case ResourceCatalog:
		return s.Loading.Catalog
	case ResourceDashboard:
		return s.Loading.Dashboard
	case ResourceActivity:
		return s.Loading.Activity
	case ResourceReports:
		return s.Loading.Reports
	}
	return false
}

// SetCatalog replaces the catalog and derives its facets.
func (s *State) SetCatalog(records []models.ModelRecord, info CatalogInfo) {
	facets := catalog.DeriveFacets(records)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = records
	s.facets = facets
	s.info = info
	s.LastUpdated = time.Now()
}

// GetRecords returns a copy of the catalog.
func (s *State) GetRecords() []models.ModelRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]models.ModelRecord, len(s.records))
	copy(records, s.records)
	return records
}

// RecordCount returns the number of models in the catalog.
func (s *State) RecordCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// FindRecord looks up a model by ID.
func (s *State) FindRecord(id string) (models.ModelRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.records {
		if s.records[i].ID == id {
			return s.records[i], true
		}
	}
	return models.ModelRecord{}, false
}

// GetFacets returns the filter options of the current catalog.
func (s *State) GetFacets() catalog.Facets {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.facets
}

// GetCatalogInfo returns where the catalog was loaded from.
func (s *State) GetCatalogInfo() CatalogInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.info
}

// SetSession records who is signed in. A nil session signs out and drops
// everything tied to the user.
func (s *State) SetSession(sess *session.Session, admin bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.session = sess
	s.admin = sess != nil && admin
	if sess == nil {
		s.dashboard = nil
		s.report = nil
		s.purchased = make(map[string]bool)
	}
}

// GetSession returns the signed-in session, or nil.
func (s *State) GetSession() *session.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

// IsSignedIn reports whether a session is active.
func (s *State) IsSignedIn() bool {
	return s.GetSession() != nil
}

// IsAdmin reports whether the signed-in user is an administrator.
func (s *State) IsAdmin() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.admin
}

// SetDashboard stores the dashboard summary and remembers the purchases it lists.
func (s *State) SetDashboard(d *services.Dashboard) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.dashboard = d
	if d == nil {
		return
	}
	for i := range d.MyPurchases {
		s.purchased[d.MyPurchases[i].ModelID] = true
	}
}

// GetDashboard returns the last dashboard summary.
func (s *State) GetDashboard() *services.Dashboard {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dashboard
}

// MarkPurchased records that the signed-in user owns a copy of a model.
func (s *State) MarkPurchased(modelID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purchased[modelID] = true
}

// HasPurchased reports whether the signed-in user owns a copy of a model.
func (s *State) HasPurchased(modelID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.purchased[modelID]
}

// SetActivity stores the activity statistics.
func (s *State) SetActivity(a *models.ActivityStats) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activity = a
}

// GetActivity returns the last activity statistics.
func (s *State) GetActivity() *models.ActivityStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activity
}

// SetReport stores the admin report.
func (s *State) SetReport(r *models.AdminReport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.report = r
}

// GetReport returns the last admin report.
func (s *State) GetReport() *models.AdminReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.report
}

// AddNotification adds a new notification and returns its ID.
func (s *State) AddNotification(notifType NotificationType, message string, duration time.Duration) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.notificationSeq++
	id := time.Now().Format("20060102150405") + "-" + string(rune('A'+s.notificationSeq%26))

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

	active := make([]Notification, 0, len(s.notifications))
	for _, n := range s.notifications {
		if !n.IsExpired() {
			active = append(active, n)
		}
	}
	s.notifications = active
}

// GetNotifications returns a copy of all active notifications.
func (s *State) GetNotifications() []Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()

	active := make([]Notification, 0, len(s.notifications))
	for _, n := range s.notifications {
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

// SetLoadingNotification sets a loading notification message.
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
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.notifications {
		if n.ID == LoadingNotificationID {
			s.notifications = append(s.notifications[:i], s.notifications[i+1:]...)
			return
		}
	}
}

// GetLastUpdated returns the last time the catalog was replaced.
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

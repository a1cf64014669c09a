package app

import (
	"time"

	"github.com/j-veylop/aximo-tui/internal/catalog"
	"github.com/j-veylop/aximo-tui/internal/export"
	"github.com/j-veylop/aximo-tui/internal/models"
	"github.com/j-veylop/aximo-tui/internal/services"
	"github.com/j-veylop/aximo-tui/internal/session"
)

// TickMsg is sent periodically to trigger state refresh.
type TickMsg struct {
	Time time.Time
}

// StartLoadingMsg signals that a resource is starting to load.
type StartLoadingMsg struct {
	Resource Resource
}

// StopLoadingMsg signals that a resource has finished loading.
type StopLoadingMsg struct {
	Resource Resource
}

// CatalogLoadedMsg carries a fresh copy of the catalog.
type CatalogLoadedMsg struct {
	Records []models.ModelRecord
	Info    CatalogInfo
}

// DashboardLoadedMsg carries the dashboard summary.
type DashboardLoadedMsg struct {
	Dashboard *services.Dashboard
	Error     error
}

// SessionChangedMsg reports who is signed in.
type SessionChangedMsg struct {
	Session *session.Session
	Admin   bool
}

// LoadActivityMsg requests activity statistics for a time range.
type LoadActivityMsg struct {
	TimeRange models.TimeRange
}

// ActivityLoadedMsg carries activity statistics.
type ActivityLoadedMsg struct {
	Stats     *models.ActivityStats
	Error     error
	TimeRange models.TimeRange
}

// LoadReportMsg requests the admin report.
type LoadReportMsg struct{}

// ReportLoadedMsg carries the admin report.
type ReportLoadedMsg struct {
	Report *models.AdminReport
	Error  error
}

// RefreshMsg requests a refresh of data.
type RefreshMsg struct {
	Resource Resource
}

// RefreshResultMsg reports the outcome of a manual catalog refresh.
type RefreshResultMsg struct {
	Error error
}

// PurchaseModelMsg requests buying a model.
type PurchaseModelMsg struct {
	ID   string
	Name string
}

// PurchaseResultMsg contains the result of a purchase.
type PurchaseResultMsg struct {
	Error    error
	Purchase models.Purchase
	ID       string
	Name     string
}

// AddModelMsg requests publishing a new model.
type AddModelMsg struct {
	Input models.NewModelInput
}

// AddModelResultMsg contains the result of adding a model.
type AddModelResultMsg struct {
	Error error
	ID    string
	Name  string
}

// UpdateModelMsg requests editing an existing model.
type UpdateModelMsg struct {
	ID    string
	Input models.NewModelInput
}

// UpdateModelResultMsg contains the result of editing a model.
type UpdateModelResultMsg struct {
	Error error
	ID    string
	Name  string
}

// DeleteModelMsg requests deleting a model.
type DeleteModelMsg struct {
	ID   string
	Name string
}

// DeleteModelResultMsg contains the result of a model deletion.
type DeleteModelResultMsg struct {
	Error error
	ID    string
	Name  string
}

// DeleteUserMsg requests deleting a user account.
type DeleteUserMsg struct {
	ID    string
	Email string
}

// DeleteUserResultMsg contains the result of a user deletion.
type DeleteUserResultMsg struct {
	Error error
	ID    string
	Email string
}

// ExportMsg requests exporting the models matching Spec.
type ExportMsg struct {
	Format export.Format
	Spec   catalog.QuerySpec
}

// ExportResultMsg contains the result of an export operation.
type ExportResultMsg struct {
	Error  error
	Result services.ExportResult
}

// SignOutMsg requests forgetting the current session.
type SignOutMsg struct{}

// SignOutResultMsg contains the result of signing out.
type SignOutResultMsg struct {
	Error error
}

// AddNotificationMsg requests adding a new notification.
type AddNotificationMsg struct {
	Message  string
	Type     NotificationType
	Duration time.Duration
}

// RemoveNotificationMsg requests removal of a notification.
type RemoveNotificationMsg struct {
	ID string
}

// ClearNotificationsMsg requests clearing all notifications.
type ClearNotificationsMsg struct{}

// ClearExpiredNotificationsMsg triggers clearing of expired notifications.
type ClearExpiredNotificationsMsg struct{}

// ServiceEventMsg wraps a service event from the service manager.
type ServiceEventMsg struct {
	Event services.ServiceEvent
}

// SubscriptionEventMsg is the callback wrapper for service subscription.
type SubscriptionEventMsg struct {
	Channel chan services.ServiceEvent
}

// ErrorMsg represents a general error.
type ErrorMsg struct {
	Error   error
	Context string
}

// TabSwitchMsg requests switching to a specific tab.
type TabSwitchMsg struct {
	Tab TabID
}

// ToggleHelpMsg toggles the help display.
type ToggleHelpMsg struct{}

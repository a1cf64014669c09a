package app

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/aximo-tui/internal/catalog"
	"github.com/j-veylop/aximo-tui/internal/export"
	"github.com/j-veylop/aximo-tui/internal/models"
	"github.com/j-veylop/aximo-tui/internal/services"
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

	// RequestTimeout bounds every backend call started from the UI.
	RequestTimeout = 30 * time.Second
)

// tickCmd returns a command that sends a TickMsg after the specified interval.
func tickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return TickMsg{Time: t}
	})
}

func defaultTickCmd() tea.Cmd {
	return tickCmd(DefaultTickInterval)
}

// loadInitialData returns a command that loads all initial data.
func loadInitialData(mgr *services.Manager) tea.Cmd {
	return tea.Batch(
		loadSessionCmd(mgr),
		loadCatalogCmd(mgr),
		loadDashboardCmd(mgr),
	)
}

// loadCatalogCmd copies the manager's current catalog into a message.
func loadCatalogCmd(mgr *services.Manager) tea.Cmd {
	return func() tea.Msg {
		status := mgr.CatalogStatus()
		return CatalogLoadedMsg{
			Records: mgr.Records(),
			Info: CatalogInfo{
				LastSync:  status.LastSync,
				Source:    status.Source,
				FromCache: status.FromCache,
			},
		}
	}
}

// refreshCatalogCmd fetches the catalog from its source now.
func refreshCatalogCmd(mgr *services.Manager) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), RequestTimeout)
		defer cancel()
		return RefreshResultMsg{Error: mgr.Refresh(ctx)}
	}
}

func loadDashboardCmd(mgr *services.Manager) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), RequestTimeout)
		defer cancel()
		dash, err := mgr.LoadDashboard(ctx)
		return DashboardLoadedMsg{Dashboard: dash, Error: err}
	}
}

func loadActivityCmd(mgr *services.Manager, tr models.TimeRange) tea.Cmd {
	return func() tea.Msg {
		stats, err := mgr.LoadActivity(tr)
		return ActivityLoadedMsg{Stats: stats, TimeRange: tr, Error: err}
	}
}

func loadReportCmd(mgr *services.Manager) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), RequestTimeout)
		defer cancel()
		report, err := mgr.LoadAdminReport(ctx)
		return ReportLoadedMsg{Report: report, Error: err}
	}
}

func loadSessionCmd(mgr *services.Manager) tea.Cmd {
	return func() tea.Msg {
		return SessionChangedMsg{Session: mgr.Session(), Admin: mgr.IsAdmin()}
	}
}

func purchaseCmd(mgr *services.Manager, id, name string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), RequestTimeout)
		defer cancel()
		p, err := mgr.Purchase(ctx, id)
		return PurchaseResultMsg{Purchase: p, ID: id, Name: name, Error: err}
	}
}

func addModelCmd(mgr *services.Manager, in models.NewModelInput) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), RequestTimeout)
		defer cancel()
		id, err := mgr.AddModel(ctx, in)
		return AddModelResultMsg{ID: id, Name: in.Name, Error: err}
	}
}

func updateModelCmd(mgr *services.Manager, id string, in models.NewModelInput) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), RequestTimeout)
		defer cancel()
		return UpdateModelResultMsg{ID: id, Name: in.Name, Error: mgr.UpdateModel(ctx, id, in)}
	}
}

func deleteModelCmd(mgr *services.Manager, id, name string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), RequestTimeout)
		defer cancel()
		return DeleteModelResultMsg{ID: id, Name: name, Error: mgr.DeleteModel(ctx, id)}
	}
}

func deleteUserCmd(mgr *services.Manager, id, email string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), RequestTimeout)
		defer cancel()
		return DeleteUserResultMsg{ID: id, Email: email, Error: mgr.DeleteUser(ctx, id)}
	}
}

func exportCmd(mgr *services.Manager, spec catalog.QuerySpec, format export.Format) tea.Cmd {
	return func() tea.Msg {
		res, err := mgr.Export(spec, format, "")
		return ExportResultMsg{Result: res, Error: err}
	}
}

func signOutCmd(mgr *services.Manager) tea.Cmd {
	return func() tea.Msg {
		return SignOutResultMsg{Error: mgr.SignOut()}
	}
}

// subscribeToServicesCmd returns a command that subscribes to service events.
func subscribeToServicesCmd(mgr *services.Manager) tea.Cmd {
	ch, _ := mgr.Subscribe()
	return func() tea.Msg {
		return SubscriptionEventMsg{Channel: ch}
	}
}

// waitForServiceEventCmd returns a command that waits for the next service event.
func waitForServiceEventCmd(ch <-chan services.ServiceEvent) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-ch
		if !ok {
			return nil
		}
		return ServiceEventMsg{Event: event}
	}
}

// clearNotificationCmd returns a command that removes a notification after a delay.
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

// Commands provides a public interface to the command functions.
type Commands struct {
	manager *services.Manager
}

// NewCommands creates a new Commands instance.
func NewCommands(mgr *services.Manager) *Commands {
	return &Commands{manager: mgr}
}

// Tick returns a tick command with the specified interval.
func (c *Commands) Tick(interval time.Duration) tea.Cmd {
	return tickCmd(interval)
}

// DefaultTick returns a tick command with the default interval.
func (c *Commands) DefaultTick() tea.Cmd {
	return defaultTickCmd()
}

// LoadCatalog returns a command that copies the current catalog.
func (c *Commands) LoadCatalog() tea.Cmd {
	return loadCatalogCmd(c.manager)
}

// LoadDashboard returns a command that loads the dashboard summary.
func (c *Commands) LoadDashboard() tea.Cmd {
	return loadDashboardCmd(c.manager)
}

// NotifySuccess returns a command that adds a success notification.
func (c *Commands) NotifySuccess(message string) tea.Cmd {
	return notifySuccessCmd(message)
}

// NotifyError returns a command that adds an error notification.
func (c *Commands) NotifyError(message string) tea.Cmd {
	return notifyErrorCmd(message)
}

// NotifyWarning returns a command that adds a warning notification.
func (c *Commands) NotifyWarning(message string) tea.Cmd {
	return notifyWarningCmd(message)
}

// NotifyInfo returns a command that adds an info notification.
func (c *Commands) NotifyInfo(message string) tea.Cmd {
	return notifyInfoCmd(message)
}

// ClearNotification returns a command that removes a notification after a delay.
func (c *Commands) ClearNotification(id string, delay time.Duration) tea.Cmd {
	return clearNotificationCmd(id, delay)
}

// Quit returns a command that quits the application.
func (c *Commands) Quit() tea.Cmd {
	return tea.Quit
}

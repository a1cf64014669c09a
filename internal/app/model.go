// Package app implements the main Bubble Tea application with tab-based navigation.
package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/j-veylop/aximo-tui/internal/api"
	"github.com/j-veylop/aximo-tui/internal/models"
	"github.com/j-veylop/aximo-tui/internal/services"
	"github.com/j-veylop/aximo-tui/internal/ui/styles"
)

// TabID represents the identifier for a tab in the application.
type TabID int

const (
	// TabModels is the ID for the model catalog tab.
	TabModels TabID = iota
	// TabDashboard is the ID for the dashboard tab.
	TabDashboard
	// TabActivity is the ID for the activity tab.
	TabActivity
	// TabReports is the ID for the admin reports tab.
	TabReports
	// TabInfo is the ID for the info tab.
	TabInfo
)

// String returns the string representation of the TabID.
func (t TabID) String() string {
	switch t {
	case TabModels:
		return "Models"
	case TabDashboard:
		return "Dashboard"
	case TabActivity:
		return "Activity"
	case TabReports:
		return "Reports"
	case TabInfo:
		return "Info"
	default:
		return "Unknown"
	}
}

// Tab defines the interface that all tabs must implement.
type Tab interface {
	// Init initializes the tab and returns any initial commands.
	Init() tea.Cmd

	// Update handles messages and returns the updated tab and any commands.
	Update(msg tea.Msg) (Tab, tea.Cmd)

	// View renders the tab content.
	View() string

	// SetSize sets the available size for the tab.
	SetSize(width, height int)

	// ShortHelp returns key bindings for the short help view.
	ShortHelp() []key.Binding

	// FullHelp returns key bindings for the full help view.
	FullHelp() [][]key.Binding
}

// InputCapturer is implemented by tabs that can own keyboard focus, such as
// a focused search field. While CapturingInput is true the global keys are
// not interpreted and every key goes to the tab.
type InputCapturer interface {
	CapturingInput() bool
}

// KeyMap defines the keybindings for the application.
type KeyMap struct {
	Tab1        key.Binding
	Tab2        key.Binding
	Tab3        key.Binding
	Tab4        key.Binding
	Tab5        key.Binding
	NextTab     key.Binding
	PrevTab     key.Binding
	Refresh     key.Binding
	Help        key.Binding
	Quit        key.Binding
	Up          key.Binding
	Down        key.Binding
	Left        key.Binding
	Right       key.Binding
	Enter       key.Binding
	Escape      key.Binding
	PageUp      key.Binding
	PageDown    key.Binding
	Home        key.Binding
	End         key.Binding
	Filter      key.Binding
	Delete      key.Binding
	SwitchFocus key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() KeyMap {
	km := KeyMap{}
	km = setTabKeys(km)
	km = setActionKeys(km)
	km = setNavigationKeys(km)
	km = setListKeys(km)
	return km
}

func setTabKeys(k KeyMap) KeyMap {
	k.Tab1 = key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "models"))
	k.Tab2 = key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "dashboard"))
	k.Tab3 = key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "activity"))
	k.Tab4 = key.NewBinding(key.WithKeys("4"), key.WithHelp("4", "reports"))
	k.Tab5 = key.NewBinding(key.WithKeys("5"), key.WithHelp("5", "info"))
	k.NextTab = key.NewBinding(key.WithKeys("tab", "right"), key.WithHelp("tab/→", "next tab"))
	k.PrevTab = key.NewBinding(key.WithKeys("shift+tab", "left"), key.WithHelp("shift+tab/←", "prev tab"))
	return k
}

func setActionKeys(k KeyMap) KeyMap {
	k.Refresh = key.NewBinding(key.WithKeys("r", "ctrl+r"), key.WithHelp("r", "refresh"))
	k.Help = key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help"))
	k.Quit = key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit"))
	k.Delete = key.NewBinding(key.WithKeys("d", "delete"), key.WithHelp("d", "delete"))
	return k
}

func setNavigationKeys(k KeyMap) KeyMap {
	k.Up = key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up"))
	k.Down = key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down"))
	k.Left = key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "left"))
	k.Right = key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "right"))
	k.Enter = key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select"))
	k.Escape = key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel"))
	k.SwitchFocus = key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch focus"))
	return k
}

func setListKeys(k KeyMap) KeyMap {
	k.PageUp = key.NewBinding(key.WithKeys("pgup", "ctrl+u"), key.WithHelp("pgup", "page up"))
	k.PageDown = key.NewBinding(key.WithKeys("pgdown", "ctrl+d"), key.WithHelp("pgdn", "page down"))
	k.Home = key.NewBinding(key.WithKeys("home", "g"), key.WithHelp("home", "go to top"))
	k.End = key.NewBinding(key.WithKeys("end", "G"), key.WithHelp("end", "go to bottom"))
	k.Filter = key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search"))
	return k
}

// ShortHelp returns key bindings for the short help view.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Refresh, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Tab1, k.Tab2, k.Tab3, k.Tab4, k.Tab5},
		{k.NextTab, k.PrevTab},
		{k.Up, k.Down, k.PageUp, k.PageDown},
		{k.Refresh, k.Help, k.Quit},
	}
}

// Styles defines the application styles.
type Styles struct {
	// Tab bar styles
	TabBar       lipgloss.Style
	ActiveTab    lipgloss.Style
	InactiveTab  lipgloss.Style
	TabSeparator lipgloss.Style
	SessionBadge lipgloss.Style

	// Notification styles
	NotificationSuccess lipgloss.Style
	NotificationError   lipgloss.Style
	NotificationWarning lipgloss.Style
	NotificationInfo    lipgloss.Style

	// Content styles
	Content lipgloss.Style
	Help    lipgloss.Style
	Spinner lipgloss.Style
	Toast   lipgloss.Style

	// Common styles
	Title     lipgloss.Style
	Subtle    lipgloss.Style
	Highlight lipgloss.Style
	Error     lipgloss.Style
	Success   lipgloss.Style
	Warning   lipgloss.Style
}

// DefaultStyles returns the default application styles.
func DefaultStyles() Styles {
	subtle := lipgloss.AdaptiveColor{Light: "#9B9B9B", Dark: "#5C5C5C"}
	highlight := lipgloss.AdaptiveColor{Light: "#0E7C86", Dark: "#2EC4B6"}
	accent := lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	success := lipgloss.AdaptiveColor{Light: "#04B575", Dark: "#04B575"}
	warning := lipgloss.AdaptiveColor{Light: "#FF8C00", Dark: "#FF8C00"}
	errorColor := lipgloss.AdaptiveColor{Light: "#FF5F87", Dark: "#FF5F87"}
	info := lipgloss.AdaptiveColor{Light: "#0087D7", Dark: "#5FAFFF"}

	s := Styles{}
	s.TabBar = lipgloss.NewStyle().Padding(0, 1).BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).BorderForeground(subtle)
	s.ActiveTab = lipgloss.NewStyle().Bold(true).Foreground(highlight).Padding(0, 2)
	s.InactiveTab = lipgloss.NewStyle().Foreground(subtle).Padding(0, 2)
	s.TabSeparator = lipgloss.NewStyle().Foreground(subtle).SetString(" | ")
	s.SessionBadge = lipgloss.NewStyle().Foreground(accent).Padding(0, 1)

	s.NotificationSuccess = lipgloss.NewStyle().Foreground(success).Padding(0, 1)
	s.NotificationError = lipgloss.NewStyle().Foreground(errorColor).Bold(true).Padding(0, 1)
	s.NotificationWarning = lipgloss.NewStyle().Foreground(warning).Padding(0, 1)
	s.NotificationInfo = lipgloss.NewStyle().Foreground(info).Padding(0, 1)

	s.Content = lipgloss.NewStyle().Padding(1, 2)
	s.Help = lipgloss.NewStyle().Foreground(subtle).Padding(0, 1)
	s.Spinner = lipgloss.NewStyle().Foreground(highlight)
	s.Toast = styles.ToastStyle

	s.Title = lipgloss.NewStyle().Bold(true).Foreground(highlight)
	s.Subtle = lipgloss.NewStyle().Foreground(subtle)
	s.Highlight = lipgloss.NewStyle().Foreground(highlight)
	s.Error = lipgloss.NewStyle().Foreground(errorColor)
	s.Success = lipgloss.NewStyle().Foreground(success)
	s.Warning = lipgloss.NewStyle().Foreground(warning)

	return s
}

// Model is the main application model.
type Model struct {
	// Tab management
	activeTab TabID
	tabs      []Tab
	tabNames  []string

	// Shared state
	state    *State
	services *services.Manager
	commands *Commands
	keymap   KeyMap
	styles   Styles

	// UI components
	spinner spinner.Model

	// Window dimensions
	width  int
	height int

	// UI state
	showHelp bool
	ready    bool

	// Activity range requested most recently
	activityRange models.TimeRange

	// Service subscription
	eventChannel chan services.ServiceEvent
}

// NewModel initializes a new application model.
func NewModel(mgr *services.Manager, state *State) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(styles.Primary)

	if state == nil {
		state = NewState()
	}

	return &Model{
		activeTab:     TabModels,
		tabNames:      []string{"Models", "Dashboard", "Activity", "Reports", "Info"},
		tabs:          make([]Tab, 5),
		state:         state,
		services:      mgr,
		commands:      NewCommands(mgr),
		keymap:        DefaultKeyMap(),
		styles:        DefaultStyles(),
		spinner:       s,
		activityRange: models.TimeRange30Days,
	}
}

// SetTabs sets the tabs for the model.
func (m *Model) SetTabs(tabs []Tab) {
	m.tabs = tabs
	if m.width > 0 && m.height > 0 {
		m.updateTabSizes()
	}
}

// GetState returns the application state.
func (m *Model) GetState() *State {
	return m.state
}

// GetServices returns the service manager.
func (m *Model) GetServices() *services.Manager {
	return m.services
}

// GetCommands returns the commands helper.
func (m *Model) GetCommands() *Commands {
	return m.commands
}

// GetKeyMap returns the key bindings.
func (m *Model) GetKeyMap() KeyMap {
	return m.keymap
}

// GetStyles returns the application styles.
func (m *Model) GetStyles() Styles {
	return m.styles
}

// GetActiveTab returns the currently active tab ID.
func (m *Model) GetActiveTab() TabID {
	return m.activeTab
}

// GetWidth returns the window width.
func (m *Model) GetWidth() int {
	return m.width
}

// GetHeight returns the window height.
func (m *Model) GetHeight() int {
	return m.height
}

// IsReady returns true if the model is ready (window size received).
func (m *Model) IsReady() bool {
	return m.ready
}

// Init initializes the model.
func (m *Model) Init() tea.Cmd {
	m.state.SetLoadingNotification("Loading catalog...")

	cmds := []tea.Cmd{
		m.spinner.Tick,
		defaultTickCmd(),
	}

	if m.services != nil {
		cmds = append(cmds, subscribeToServicesCmd(m.services))
		cmds = append(cmds, loadInitialData(m.services))
		cmds = append(cmds, loadActivityCmd(m.services, m.activityRange))
	}

	for _, tab := range m.tabs {
		if tab != nil {
			cmds = append(cmds, tab.Init())
		}
	}

	return tea.Batch(cmds...)
}

// Update handles messages and updates the model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg, tea.KeyMsg, spinner.TickMsg:
		if cmd := m.handleTeaMsg(msg); cmd != nil {
			cmds = append(cmds, cmd)
		}

	default:
		if appCmds := m.handleAppMsg(msg); len(appCmds) > 0 {
			cmds = append(cmds, appCmds...)
		}
	}

	if cmd := m.updateActiveTab(msg); cmd != nil {
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) handleTeaMsg(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.handleWindowSize(msg)
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	case spinner.TickMsg:
		return m.handleSpinnerTick(msg)
	}
	return nil
}

func (m *Model) handleAppMsg(msg tea.Msg) []tea.Cmd {
	var cmds []tea.Cmd
	switch msg := msg.(type) {
	case TickMsg:
		cmds = append(cmds, m.handleTick())
	case SubscriptionEventMsg:
		cmds = append(cmds, m.handleSubscriptionEvent(msg)...)
	case ServiceEventMsg:
		cmds = append(cmds, m.handleServiceEventMsg(msg)...)
	case CatalogLoadedMsg:
		m.handleCatalogLoaded(msg)
	case DashboardLoadedMsg:
		cmds = append(cmds, m.handleDashboardLoaded(msg)...)
	case SessionChangedMsg:
		cmds = append(cmds, m.handleSessionChanged(msg)...)
	case ActivityLoadedMsg:
		cmds = append(cmds, m.handleActivityLoaded(msg)...)
	case ReportLoadedMsg:
		cmds = append(cmds, m.handleReportLoaded(msg)...)
	case RefreshResultMsg:
		cmds = append(cmds, m.handleRefreshResult(msg)...)
	case LoadActivityMsg:
		cmds = append(cmds, m.handleLoadActivity(msg)...)
	case LoadReportMsg:
		cmds = append(cmds, m.handleLoadReport()...)
	case PurchaseModelMsg:
		cmds = append(cmds, m.withServices(func(mgr *services.Manager) tea.Cmd {
			return purchaseCmd(mgr, msg.ID, msg.Name)
		}))
	case PurchaseResultMsg:
		cmds = append(cmds, m.handlePurchaseResult(msg)...)
	case AddModelMsg:
		cmds = append(cmds, m.withServices(func(mgr *services.Manager) tea.Cmd {
			return addModelCmd(mgr, msg.Input)
		}))
	case AddModelResultMsg:
		cmds = append(cmds, m.handleModelChanged("Failed to add model", "Published %s", msg.Name, msg.Error)...)
	case UpdateModelMsg:
		cmds = append(cmds, m.withServices(func(mgr *services.Manager) tea.Cmd {
			return updateModelCmd(mgr, msg.ID, msg.Input)
		}))
	case UpdateModelResultMsg:
		cmds = append(cmds, m.handleModelChanged("Failed to update model", "Updated %s", msg.Name, msg.Error)...)
	case DeleteModelMsg:
		cmds = append(cmds, m.withServices(func(mgr *services.Manager) tea.Cmd {
			return deleteModelCmd(mgr, msg.ID, msg.Name)
		}))
	case DeleteModelResultMsg:
		cmds = append(cmds, m.handleModelChanged("Failed to delete model", "Deleted %s", msg.Name, msg.Error)...)
	case DeleteUserMsg:
		cmds = append(cmds, m.withServices(func(mgr *services.Manager) tea.Cmd {
			return deleteUserCmd(mgr, msg.ID, msg.Email)
		}))
	case DeleteUserResultMsg:
		cmds = append(cmds, m.handleDeleteUserResult(msg)...)
	case ExportMsg:
		cmds = append(cmds, m.withServices(func(mgr *services.Manager) tea.Cmd {
			return exportCmd(mgr, msg.Spec, msg.Format)
		}))
	case ExportResultMsg:
		cmds = append(cmds, m.handleExportResult(msg))
	case SignOutMsg:
		cmds = append(cmds, m.withServices(signOutCmd))
	case SignOutResultMsg:
		cmds = append(cmds, m.handleSignOutResult(msg)...)
	case AddNotificationMsg:
		cmds = append(cmds, m.handleAddNotification(msg)...)
	case RemoveNotificationMsg:
		m.state.RemoveNotification(msg.ID)
	case ClearNotificationsMsg:
		m.state.ClearAllNotifications()
	case ClearExpiredNotificationsMsg:
		m.state.ClearExpiredNotifications()
	case StartLoadingMsg:
		m.handleStartLoading(msg)
	case StopLoadingMsg:
		m.handleStopLoading(msg)
	case ErrorMsg:
		cmds = append(cmds, m.handleError(msg))
	case RefreshMsg:
		cmds = append(cmds, m.handleRefresh(msg)...)
	case TabSwitchMsg:
		cmds = append(cmds, m.switchTab(msg.Tab)...)
	case ToggleHelpMsg:
		m.showHelp = !m.showHelp
	}
	return cmds
}

// withServices runs build only when a service manager is attached.
func (m *Model) withServices(build func(*services.Manager) tea.Cmd) tea.Cmd {
	if m.services == nil {
		return nil
	}
	return build(m.services)
}

func (m *Model) handleWindowSize(msg tea.WindowSizeMsg) {
	m.width = msg.Width
	m.height = msg.Height
	m.ready = true
	m.updateTabSizes()
}

func (m *Model) handleSpinnerTick(msg spinner.TickMsg) tea.Cmd {
	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)
	return cmd
}

func (m *Model) handleTick() tea.Cmd {
	m.state.ClearExpiredNotifications()
	return defaultTickCmd()
}

func (m *Model) handleSubscriptionEvent(msg SubscriptionEventMsg) []tea.Cmd {
	m.eventChannel = msg.Channel
	return []tea.Cmd{waitForServiceEventCmd(m.eventChannel)}
}

func (m *Model) handleServiceEventMsg(msg ServiceEventMsg) []tea.Cmd {
	var cmds []tea.Cmd
	if cmd := m.handleServiceEvent(msg.Event); cmd != nil {
		cmds = append(cmds, cmd)
	}
	if m.eventChannel != nil {
		cmds = append(cmds, waitForServiceEventCmd(m.eventChannel))
	}
	return cmds
}

func (m *Model) handleCatalogLoaded(msg CatalogLoadedMsg) {
	m.state.SetCatalog(msg.Records, msg.Info)
	m.state.SetLoading(ResourceCatalog, false)
	if !msg.Info.LastSync.IsZero() || len(msg.Records) > 0 {
		m.state.SetLoading(ResourceInitial, false)
	}
	if !m.state.AnyLoading() {
		m.state.ClearLoadingNotification()
	}
}

func (m *Model) handleDashboardLoaded(msg DashboardLoadedMsg) []tea.Cmd {
	m.state.SetLoading(ResourceDashboard, false)
	if msg.Error != nil {
		return []tea.Cmd{m.errorCmd("Failed to load dashboard", msg.Error)}
	}
	m.state.SetDashboard(msg.Dashboard)
	return nil
}

func (m *Model) handleSessionChanged(msg SessionChangedMsg) []tea.Cmd {
	wasAdmin := m.state.IsAdmin()
	m.state.SetSession(msg.Session, msg.Admin)
	if msg.Admin && !wasAdmin && m.services != nil {
		return []tea.Cmd{loadReportCmd(m.services)}
	}
	return nil
}

func (m *Model) handleActivityLoaded(msg ActivityLoadedMsg) []tea.Cmd {
	m.state.SetLoading(ResourceActivity, false)
	if msg.Error != nil {
		return []tea.Cmd{notifyErrorCmd(fmt.Sprintf("Failed to load activity: %v", msg.Error))}
	}
	m.state.SetActivity(msg.Stats)
	return nil
}

func (m *Model) handleReportLoaded(msg ReportLoadedMsg) []tea.Cmd {
	m.state.SetLoading(ResourceReports, false)
	if msg.Error != nil {
		return []tea.Cmd{m.errorCmd("Failed to load reports", msg.Error)}
	}
	m.state.SetReport(msg.Report)
	return nil
}

func (m *Model) handleLoadActivity(msg LoadActivityMsg) []tea.Cmd {
	if m.services == nil {
		return nil
	}
	m.activityRange = msg.TimeRange
	m.state.SetLoading(ResourceActivity, true)
	return []tea.Cmd{loadActivityCmd(m.services, msg.TimeRange)}
}

func (m *Model) handleLoadReport() []tea.Cmd {
	if m.services == nil || !m.state.IsAdmin() {
		return nil
	}
	m.state.SetLoading(ResourceReports, true)
	return []tea.Cmd{loadReportCmd(m.services)}
}

func (m *Model) handleRefreshResult(msg RefreshResultMsg) []tea.Cmd {
	m.state.SetLoading(ResourceCatalog, false)
	if !m.state.AnyLoading() {
		m.state.ClearLoadingNotification()
	}
	if msg.Error != nil {
		return []tea.Cmd{m.errorCmd("Failed to refresh catalog", msg.Error)}
	}
	if m.services == nil {
		return nil
	}
	return []tea.Cmd{
		loadCatalogCmd(m.services),
		loadDashboardCmd(m.services),
		loadActivityCmd(m.services, m.activityRange),
	}
}

func (m *Model) handlePurchaseResult(msg PurchaseResultMsg) []tea.Cmd {
	switch {
	case errors.Is(msg.Error, services.ErrAlreadyPurchased):
		m.state.MarkPurchased(msg.ID)
		return []tea.Cmd{notifyWarningCmd(fmt.Sprintf("You already own %s", msg.Name))}
	case msg.Error != nil:
		return []tea.Cmd{m.errorCmd("Purchase failed", msg.Error)}
	}

	m.state.MarkPurchased(msg.ID)
	cmds := []tea.Cmd{notifySuccessCmd(fmt.Sprintf("Purchased %s", msg.Name))}
	if m.services != nil {
		cmds = append(cmds, loadDashboardCmd(m.services))
	}
	return cmds
}

// handleModelChanged reports the outcome of an add, edit or delete and
// refetches the catalog after a success.
func (m *Model) handleModelChanged(failure, success, name string, err error) []tea.Cmd {
	if err != nil {
		return []tea.Cmd{m.errorCmd(failure, err)}
	}
	cmds := []tea.Cmd{notifySuccessCmd(fmt.Sprintf(success, name))}
	if m.services != nil {
		m.state.SetLoading(ResourceCatalog, true)
		cmds = append(cmds, refreshCatalogCmd(m.services))
	}
	return cmds
}

func (m *Model) handleDeleteUserResult(msg DeleteUserResultMsg) []tea.Cmd {
	if msg.Error != nil {
		return []tea.Cmd{m.errorCmd("Failed to delete user", msg.Error)}
	}
	cmds := []tea.Cmd{notifySuccessCmd(fmt.Sprintf("Deleted user %s", msg.Email))}
	cmds = append(cmds, m.handleLoadReport()...)
	return cmds
}

func (m *Model) handleExportResult(msg ExportResultMsg) tea.Cmd {
	if msg.Error != nil {
		return notifyErrorCmd(fmt.Sprintf("Export failed: %v", msg.Error))
	}
	return notifySuccessCmd(fmt.Sprintf("Exported %d models to %s", msg.Result.Count, msg.Result.Path))
}

func (m *Model) handleSignOutResult(msg SignOutResultMsg) []tea.Cmd {
	m.state.SetSession(nil, false)
	cmds := []tea.Cmd{notifyInfoCmd("Signed out")}
	if msg.Error != nil {
		cmds = append(cmds, notifyWarningCmd(fmt.Sprintf("Could not remove saved token: %v", msg.Error)))
	}
	if m.services != nil {
		cmds = append(cmds, loadDashboardCmd(m.services))
	}
	return cmds
}

func (m *Model) handleAddNotification(msg AddNotificationMsg) []tea.Cmd {
	var cmds []tea.Cmd
	id := m.state.AddNotification(msg.Type, msg.Message, msg.Duration)
	if msg.Duration > 0 {
		cmds = append(cmds, clearNotificationCmd(id, msg.Duration))
	}
	return cmds
}

func (m *Model) handleStartLoading(msg StartLoadingMsg) {
	m.state.SetLoading(msg.Resource, true)
	m.state.SetLoadingNotification("Refreshing...")
}

func (m *Model) handleStopLoading(msg StopLoadingMsg) {
	m.state.SetLoading(msg.Resource, false)
	if !m.state.AnyLoading() {
		m.state.ClearLoadingNotification()
	}
}

func (m *Model) handleError(msg ErrorMsg) tea.Cmd {
	if msg.Error == nil {
		return nil
	}
	if msg.Context != "" {
		return notifyErrorCmd(fmt.Sprintf("%s: %v", msg.Context, msg.Error))
	}
	return notifyErrorCmd(msg.Error.Error())
}

// errorCmd reports err as a toast unless the backend rejected the token, in
// which case the SessionEndedEvent toast already explains what happened.
func (m *Model) errorCmd(context string, err error) tea.Cmd {
	if errors.Is(err, api.ErrUnauthorized) {
		return nil
	}
	return notifyErrorCmd(fmt.Sprintf("%s: %v", context, err))
}

func (m *Model) handleRefresh(msg RefreshMsg) []tea.Cmd {
	if m.services == nil {
		return nil
	}

	var cmds []tea.Cmd
	switch msg.Resource {
	case ResourceDashboard:
		m.state.SetLoading(ResourceDashboard, true)
		cmds = append(cmds, loadDashboardCmd(m.services))
	case ResourceActivity:
		cmds = append(cmds, m.handleLoadActivity(LoadActivityMsg{TimeRange: m.activityRange})...)
	case ResourceReports:
		cmds = append(cmds, m.handleLoadReport()...)
	default:
		cmds = append(cmds, func() tea.Msg { return StartLoadingMsg{Resource: ResourceCatalog} })
		cmds = append(cmds, refreshCatalogCmd(m.services))
		if m.state.IsAdmin() {
			cmds = append(cmds, m.handleLoadReport()...)
		}
	}
	return cmds
}

func (m *Model) switchTab(id TabID) []tea.Cmd {
	if int(id) < 0 || int(id) >= len(m.tabs) {
		return nil
	}
	m.activeTab = id
	m.updateTabSizes()
	if id == TabReports && m.state.IsAdmin() && m.state.GetReport() == nil && !m.state.IsLoading(ResourceReports) {
		return m.handleLoadReport()
	}
	return nil
}

func (m *Model) updateActiveTab(msg tea.Msg) tea.Cmd {
	if int(m.activeTab) < len(m.tabs) && m.tabs[m.activeTab] != nil {
		var cmd tea.Cmd
		m.tabs[m.activeTab], cmd = m.tabs[m.activeTab].Update(msg)
		return cmd
	}
	return nil
}

func (m *Model) updateTabSizes() {
	contentHeight := m.height - 5
	contentHeight = max(0, contentHeight)

	for _, tab := range m.tabs {
		if tab != nil {
			tab.SetSize(m.width, contentHeight)
		}
	}
}

func (m *Model) activeTabCapturesInput() bool {
	if int(m.activeTab) >= len(m.tabs) || m.tabs[m.activeTab] == nil {
		return false
	}
	c, ok := m.tabs[m.activeTab].(InputCapturer)
	return ok && c.CapturingInput()
}

// handleKeyMsg handles keyboard input.
func (m *Model) handleKeyMsg(msg tea.KeyMsg) tea.Cmd {
	if m.activeTabCapturesInput() {
		if msg.Type == tea.KeyCtrlC {
			return tea.Quit
		}
		return nil
	}

	switch {
	case key.Matches(msg, m.keymap.Quit):
		return tea.Quit

	case key.Matches(msg, m.keymap.Help):
		m.showHelp = !m.showHelp
		return nil

	case key.Matches(msg, m.keymap.Tab1):
		return tea.Batch(m.switchTab(TabModels)...)

	case key.Matches(msg, m.keymap.Tab2):
		return tea.Batch(m.switchTab(TabDashboard)...)

	case key.Matches(msg, m.keymap.Tab3):
		return tea.Batch(m.switchTab(TabActivity)...)

	case key.Matches(msg, m.keymap.Tab4):
		return tea.Batch(m.switchTab(TabReports)...)

	case key.Matches(msg, m.keymap.Tab5):
		return tea.Batch(m.switchTab(TabInfo)...)

	case key.Matches(msg, m.keymap.NextTab):
		if !m.showHelp && len(m.tabs) > 0 {
			return tea.Batch(m.switchTab(TabID((int(m.activeTab) + 1) % len(m.tabs)))...)
		}
		return nil

	case key.Matches(msg, m.keymap.PrevTab):
		if !m.showHelp && len(m.tabs) > 0 {
			return tea.Batch(m.switchTab(TabID((int(m.activeTab) - 1 + len(m.tabs)) % len(m.tabs)))...)
		}
		return nil

	case key.Matches(msg, m.keymap.Refresh):
		return tea.Batch(m.handleRefresh(RefreshMsg{Resource: ResourceCatalog})...)

	case key.Matches(msg, m.keymap.Escape):
		if m.showHelp {
			m.showHelp = false
			return nil
		}
	}

	// Let the tab handle other keys
	return nil
}

func (m *Model) handleServiceEvent(event services.ServiceEvent) tea.Cmd {
	switch e := event.(type) {
	case services.CatalogUpdatedEvent:
		if m.services != nil {
			return tea.Batch(loadCatalogCmd(m.services), loadDashboardCmd(m.services))
		}

	case services.NewModelsEvent:
		return notifyInfoCmd(newModelsToast(e.Models))

	case services.PurchaseCompletedEvent:
		m.state.MarkPurchased(e.Purchase.ModelID)

	case services.ProfileLoadedEvent:
		if m.services != nil {
			return loadSessionCmd(m.services)
		}

	case services.SessionEndedEvent:
		m.state.SetSession(nil, false)
		msg := "Session ended, please sign in again"
		if e.Reason != nil {
			msg = fmt.Sprintf("Session ended: %v", e.Reason)
		}
		return notifyErrorCmd(msg)

	case services.ErrorEvent:
		return notifyErrorCmd(fmt.Sprintf("[%s] %v", e.Service, e.Error))
	}

	return nil
}

func newModelsToast(records []models.ModelRecord) string {
	switch len(records) {
	case 0:
		return "Catalog updated"
	case 1:
		return fmt.Sprintf("New model: %s", records[0].Name)
	default:
		return fmt.Sprintf("%d new models in the catalog", len(records))
	}
}

// View renders the application UI.
func (m *Model) View() string {
	var b strings.Builder

	if m.width > 0 {
		b.WriteString(m.renderNavbar())
		b.WriteString("\n")
	}

	if !m.ready {
		b.WriteString(m.styles.Content.Render(fmt.Sprintf("%s Loading...", m.spinner.View())))
		return b.String()
	}

	if int(m.activeTab) < len(m.tabs) && m.tabs[m.activeTab] != nil {
		b.WriteString(m.tabs[m.activeTab].View())
	} else {
		b.WriteString(m.renderPlaceholder())
	}

	mainView := b.String()

	if m.showHelp {
		helpView := m.renderHelp()
		mainView = m.overlayCentered(mainView, helpView)
	}

	notifications := m.renderNotifications()

	if len(notifications) > 0 {
		return m.overlayToasts(mainView, notifications)
	}

	return mainView
}

func (m *Model) overlayCentered(mainView string, overlay string) string {
	mainLines := strings.Split(mainView, "\n")
	overlayLines := strings.Split(overlay, "\n")

	overlayHeight := len(overlayLines)
	overlayWidth := lipgloss.Width(overlay)

	y := max((m.height-overlayHeight)/2, 0)
	x := max((m.width-overlayWidth)/2, 0)

	for i, overlayLine := range overlayLines {
		mainY := y + i
		if mainY >= len(mainLines) {
			break
		}

		mainLine := mainLines[mainY]

		left := ansi.Truncate(mainLine, x, "")
		// Skip the cells the overlay covers.
		right := ansi.TruncateLeft(mainLine, x+overlayWidth, "")

		if lipgloss.Width(left) < x {
			left += strings.Repeat(" ", x-lipgloss.Width(left))
		}

		mainLines[mainY] = left + overlayLine + right
	}

	return strings.Join(mainLines, "\n")
}

func (m *Model) renderNavbar() string {
	var tabs []string

	for i, name := range m.tabNames {
		if TabID(i) == m.activeTab {
			tabs = append(tabs, m.styles.ActiveTab.Render(fmt.Sprintf("[%d] %s", i+1, name)))
		} else {
			tabs = append(tabs, m.styles.InactiveTab.Render(fmt.Sprintf(" %d  %s", i+1, name)))
		}
	}

	tabBar := lipgloss.JoinHorizontal(lipgloss.Top, tabs...)

	badge := m.styles.SessionBadge.Render("guest")
	if sess := m.state.GetSession(); sess != nil {
		badge = m.styles.SessionBadge.Render(sess.Email)
	}
	gap := m.width - lipgloss.Width(tabBar) - lipgloss.Width(badge) - 2
	if gap > 0 {
		tabBar = lipgloss.JoinHorizontal(lipgloss.Top, tabBar, strings.Repeat(" ", gap), badge)
	}

	return m.styles.TabBar.Width(m.width).Render(tabBar)
}

func (m *Model) renderNotifications() []string {
	notifications := m.state.GetNotifications()
	if len(notifications) == 0 {
		return nil
	}

	var toasts []string
	for _, n := range notifications {
		var style lipgloss.Style
		var prefix string

		switch n.Type {
		case NotificationSuccess:
			style = m.styles.NotificationSuccess
			prefix = "[OK]"
		case NotificationError:
			style = m.styles.NotificationError
			prefix = "[ERR]"
		case NotificationWarning:
			style = m.styles.NotificationWarning
			prefix = "[WARN]"
		case NotificationInfo:
			style = m.styles.NotificationInfo
			prefix = "[INFO]"
		case NotificationLoading:
			style = m.styles.NotificationInfo
			prefix = m.spinner.View()
		}

		content := style.Render(fmt.Sprintf("%s %s", prefix, n.Message))
		toasts = append(toasts, m.styles.Toast.Render(content))
	}

	return toasts
}

func (m *Model) overlayToasts(mainView string, toasts []string) string {
	if len(toasts) == 0 {
		return mainView
	}

	toastStack := lipgloss.JoinVertical(lipgloss.Right, toasts...)
	toastLines := strings.Split(toastStack, "\n")
	mainLines := strings.Split(mainView, "\n")

	toastWidth := lipgloss.Width(toastStack)
	startX := max(m.width-toastWidth-2, 0)

	startY := 2

	for i, toastLine := range toastLines {
		lineIdx := startY + i
		if lineIdx >= len(mainLines) {
			break
		}

		mainLine := mainLines[lineIdx]
		mainLineWidth := lipgloss.Width(mainLine)

		if mainLineWidth < startX {
			padding := strings.Repeat(" ", startX-mainLineWidth)
			mainLines[lineIdx] = mainLine + padding + toastLine
		} else {
			truncated := ansi.Truncate(mainLine, startX, "")
			mainLines[lineIdx] = truncated + toastLine
		}
	}

	return strings.Join(mainLines, "\n")
}

func (m *Model) renderHelp() string {
	var lines []string

	lines = append(lines, m.styles.Title.Render("Keyboard Shortcuts"))
	lines = append(lines, "")

	lines = append(lines, m.styles.Highlight.Render("Navigation"))
	lines = append(lines, "  1-5        Switch tabs")
	lines = append(lines, "  Tab        Next tab")
	lines = append(lines, "  Shift+Tab  Previous tab")
	lines = append(lines, "")

	lines = append(lines, m.styles.Highlight.Render("Actions"))
	lines = append(lines, "  r          Refresh catalog")
	lines = append(lines, "  ?          Toggle help")
	lines = append(lines, "  q/Ctrl+C   Quit")
	lines = append(lines, "")

	lines = append(lines, m.styles.Highlight.Render("Lists"))
	lines = append(lines, "  j/k, ↑/↓   Move up/down")
	lines = append(lines, "  Enter      Select item")
	lines = append(lines, "  /          Search")
	lines = append(lines, "")

	if int(m.activeTab) < len(m.tabs) && m.tabs[m.activeTab] != nil {
		tabHelp := m.tabs[m.activeTab].ShortHelp()
		if len(tabHelp) > 0 {
			lines = append(lines, m.styles.Highlight.Render(fmt.Sprintf("%s Tab", m.tabNames[m.activeTab])))
			for _, binding := range tabHelp {
				lines = append(lines, fmt.Sprintf("  %-10s %s", binding.Help().Key, binding.Help().Desc))
			}
		}
	}

	lines = append(lines, "")
	lines = append(lines, m.styles.Subtle.Render("Press ? or Esc to close"))

	return styles.HelpPanelStyle.Render(strings.Join(lines, "\n"))
}

func (m *Model) renderPlaceholder() string {
	name := "Unknown"
	if int(m.activeTab) < len(m.tabNames) {
		name = m.tabNames[m.activeTab]
	}
	content := fmt.Sprintf(
		"Tab %d: %s\n\n%s",
		m.activeTab+1,
		name,
		m.styles.Subtle.Render("This tab is not yet implemented."),
	)
	return m.styles.Content.Render(content)
}

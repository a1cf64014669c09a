// Package reports provides the admin reports tab: site-wide totals and user
// management.
package reports

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/aximo-tui/internal/app"
	"github.com/j-veylop/aximo-tui/internal/models"
	"github.com/j-veylop/aximo-tui/internal/ui/components"
	"github.com/j-veylop/aximo-tui/internal/ui/styles"
)

// keyMap defines the key bindings specific to the reports tab.
type keyMap struct {
	Delete key.Binding
	Reload key.Binding
}

// defaultKeyMap returns the default key bindings for the reports tab.
func defaultKeyMap() keyMap {
	return keyMap{
		Delete: key.NewBinding(
			key.WithKeys("d", "delete"),
			key.WithHelp("d", "delete user"),
		),
		Reload: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "reload report"),
		),
	}
}

// Model represents the reports tab state.
type Model struct {
	state         *app.State
	report        *models.AdminReport
	pendingDelete *models.User
	keys          keyMap
	table         table.Model
	spinner       components.LoadingSpinner
	width         int
	height        int
}

// New creates a new reports tab.
func New(state *app.State) *Model {
	km := table.DefaultKeyMap()
	km.HalfPageDown = key.NewBinding(key.WithKeys("ctrl+d"), key.WithHelp("ctrl+d", "½ page down"))

	t := table.New(
		table.WithColumns(columnsFor(80)),
		table.WithFocused(true),
		table.WithHeight(10),
		table.WithKeyMap(km),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(styles.Subtle).
		BorderBottom(true).
		Bold(true).
		Foreground(styles.Primary)
	s.Selected = s.Selected.
		Foreground(styles.TextPrimary).
		Background(styles.BgAccent).
		Bold(true)
	t.SetStyles(s)

	return &Model{
		state:   state,
		table:   t,
		spinner: components.NewSpinner("Loading report..."),
		keys:    defaultKeyMap(),
	}
}

// Init initializes the reports tab.
func (m *Model) Init() tea.Cmd {
	return m.spinner.Init()
}

// CapturingInput keeps the global keys away while a deletion is pending.
func (m *Model) CapturingInput() bool {
	return m.pendingDelete != nil
}

// Update handles messages for the reports tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	switch msg := msg.(type) {
	case app.ReportLoadedMsg, app.SessionChangedMsg, app.TabSwitchMsg:
		m.syncReport()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.pendingDelete != nil {
			return m, m.updateDeleteConfirm(msg)
		}
		return m, m.handleKeyMsg(msg)
	}
	return m, nil
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) tea.Cmd {
	if !m.state.IsAdmin() {
		return nil
	}
	m.syncReport()

	switch {
	case key.Matches(msg, m.keys.Reload):
		return func() tea.Msg { return app.LoadReportMsg{} }

	case key.Matches(msg, m.keys.Delete):
		u, ok := m.selected()
		if !ok {
			return nil
		}
		if sess := m.state.GetSession(); sess != nil && strings.EqualFold(sess.Email, u.Email) {
			return func() tea.Msg {
				return app.AddNotificationMsg{
					Type:     app.NotificationWarning,
					Message:  "You cannot delete your own account",
					Duration: app.QuickNotificationDuration,
				}
			}
		}
		m.pendingDelete = &u

	default:
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		return cmd
	}
	return nil
}

func (m *Model) updateDeleteConfirm(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "y", "Y":
		u := m.pendingDelete
		m.pendingDelete = nil
		id, email := string(u.ID), u.Email
		return func() tea.Msg { return app.DeleteUserMsg{ID: id, Email: email} }
	case "n", "N", "esc":
		m.pendingDelete = nil
	}
	return nil
}

// syncReport rebuilds the user table when the stored report changed.
func (m *Model) syncReport() {
	report := m.state.GetReport()
	if report == m.report {
		return
	}
	m.report = report

	var users []models.User
	if report != nil {
		users = report.Users
	}
	rows := make([]table.Row, 0, len(users))
	for i := range users {
		u := &users[i]
		created := "-"
		if !u.CreatedAt.IsZero() {
			created = u.CreatedAt.Local().Format("2006-01-02")
		}
		role := u.Role
		if role == "" {
			role = "user"
		}
		rows = append(rows, table.Row{orDash(u.Name), u.Email, role, created})
	}
	m.table.SetRows(rows)
	if m.table.Cursor() >= len(rows) {
		m.table.SetCursor(max(len(rows)-1, 0))
	}
}

func (m *Model) selected() (models.User, bool) {
	if m.report == nil {
		return models.User{}, false
	}
	i := m.table.Cursor()
	if i < 0 || i >= len(m.report.Users) {
		return models.User{}, false
	}
	return m.report.Users[i], true
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func columnsFor(width int) []table.Column {
	nameWidth := min(max((width-24)/2, 12), 30)
	return []table.Column{
		{Title: "Name", Width: nameWidth},
		{Title: "Email", Width: max(width-24-nameWidth, 20)},
		{Title: "Role", Width: 8},
		{Title: "Joined", Width: 10},
	}
}

// SetSize sets the available size for the reports tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.table.SetHeight(max(height-16, 3))
	m.table.SetColumns(columnsFor(width - 10))
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{m.keys.Delete, m.keys.Reload}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{{m.keys.Delete, m.keys.Reload}}
}

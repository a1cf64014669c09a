// Package browse provides the models tab: searching, filtering and sorting
// the catalog, plus the purchase, publish, edit, delete and export actions.
package browse

import (
	"fmt"
	"slices"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/aximo-tui/internal/app"
	"github.com/j-veylop/aximo-tui/internal/catalog"
	"github.com/j-veylop/aximo-tui/internal/export"
	"github.com/j-veylop/aximo-tui/internal/models"
	"github.com/j-veylop/aximo-tui/internal/ui/components"
	"github.com/j-veylop/aximo-tui/internal/ui/styles"
)

// mode is what the tab is currently doing with the keyboard.
type mode int

const (
	modeBrowse mode = iota
	modeSearch
	modeForm
	modeConfirmDelete
	modeExport
)

// keyMap defines the key bindings specific to the models tab.
type keyMap struct {
	Search    key.Binding
	Framework key.Binding
	UseCase   key.Binding
	Sort      key.Binding
	Clear     key.Binding
	Purchase  key.Binding
	Add       key.Binding
	Edit      key.Binding
	Delete    key.Binding
	Export    key.Binding
	Escape    key.Binding
}

// defaultKeyMap returns the default key bindings for the models tab.
func defaultKeyMap() keyMap {
	return keyMap{
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		Framework: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "framework"),
		),
		UseCase: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "use case"),
		),
		Sort: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "sort"),
		),
		Clear: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "clear filters"),
		),
		Purchase: key.NewBinding(
			key.WithKeys("b"),
			key.WithHelp("b", "buy"),
		),
		Add: key.NewBinding(
			key.WithKeys("n", "a"),
			key.WithHelp("n", "add model"),
		),
		Edit: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "edit"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d", "delete"),
			key.WithHelp("d", "delete"),
		),
		Export: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "export"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
	}
}

// tableKeyMap keeps the table's movement keys away from the tab actions.
func tableKeyMap() table.KeyMap {
	km := table.DefaultKeyMap()
	km.PageUp = key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "page up"))
	km.PageDown = key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdn", "page down"))
	km.HalfPageUp = key.NewBinding(key.WithKeys("ctrl+u"), key.WithHelp("ctrl+u", "½ page up"))
	km.HalfPageDown = key.NewBinding(key.WithKeys("ctrl+d"), key.WithHelp("ctrl+d", "½ page down"))
	return km
}

// Model represents the models tab state.
type Model struct {
	syncedAt      time.Time
	state         *app.State
	form          *modelForm
	pendingDelete *models.ModelRecord
	results       []models.ModelRecord
	spec          catalog.QuerySpec
	keys          keyMap
	search        textinput.Model
	table         table.Model
	spinner       components.LoadingSpinner
	width         int
	height        int
	mode          mode
}

// New creates a new models tab.
func New(state *app.State) *Model {
	search := textinput.New()
	search.Placeholder = "Search name, framework, use case or dataset..."
	search.Prompt = "/ "
	search.CharLimit = 100
	search.Width = 40

	t := table.New(
		table.WithColumns(columnsFor(80)),
		table.WithFocused(true),
		table.WithHeight(10),
		table.WithKeyMap(tableKeyMap()),
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
		search:  search,
		spec:    catalog.DefaultQuerySpec(),
		spinner: components.NewSpinner("Loading catalog..."),
		keys:    defaultKeyMap(),
	}
}

// Init initializes the models tab.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Init(), textinput.Blink)
}

// CapturingInput reports whether keys should bypass the global bindings.
func (m *Model) CapturingInput() bool {
	return m.mode != modeBrowse
}

// Spec returns the query currently applied to the catalog.
func (m *Model) Spec() catalog.QuerySpec {
	return m.spec
}

// Results returns the models currently shown.
func (m *Model) Results() []models.ModelRecord {
	return m.results
}

// Update handles messages for the models tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	switch msg := msg.(type) {
	case app.CatalogLoadedMsg, app.SessionChangedMsg, app.TabSwitchMsg:
		m.applyQuery(true)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch m.mode {
		case modeSearch:
			return m, m.updateSearch(msg)
		case modeForm:
			return m, m.updateForm(msg)
		case modeConfirmDelete:
			return m, m.updateDeleteConfirm(msg)
		case modeExport:
			return m, m.updateExport(msg)
		default:
			return m, m.handleKeyMsg(msg)
		}
	}

	if m.mode == modeSearch {
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) tea.Cmd {
	m.syncCatalog()

	switch {
	case key.Matches(msg, m.keys.Search):
		m.mode = modeSearch
		return m.search.Focus()

	case key.Matches(msg, m.keys.Framework):
		m.spec.FrameworkFilter = cycleOption(m.state.GetFacets().Frameworks, m.spec.FrameworkFilter)
		m.applyQuery(false)

	case key.Matches(msg, m.keys.UseCase):
		m.spec.UseCaseFilter = cycleOption(m.state.GetFacets().UseCases, m.spec.UseCaseFilter)
		m.applyQuery(false)

	case key.Matches(msg, m.keys.Sort):
		m.spec.Sort = m.spec.Sort.Next()
		m.applyQuery(false)

	case key.Matches(msg, m.keys.Clear):
		m.spec = catalog.DefaultQuerySpec()
		m.search.SetValue("")
		m.applyQuery(false)

	case key.Matches(msg, m.keys.Purchase):
		return m.purchaseSelected()

	case key.Matches(msg, m.keys.Add):
		if !m.state.IsSignedIn() {
			return warn("Sign in to publish models")
		}
		m.form = newModelForm(nil)
		m.mode = modeForm
		return textinput.Blink

	case key.Matches(msg, m.keys.Edit):
		rec, ok := m.selected()
		if !ok {
			return nil
		}
		if !m.canModify(&rec) {
			return warn("You can only edit models you added")
		}
		m.form = newModelForm(&rec)
		m.mode = modeForm
		return textinput.Blink

	case key.Matches(msg, m.keys.Delete):
		rec, ok := m.selected()
		if !ok {
			return nil
		}
		if !m.canModify(&rec) {
			return warn("You can only delete models you added")
		}
		m.pendingDelete = &rec
		m.mode = modeConfirmDelete

	case key.Matches(msg, m.keys.Export):
		if len(m.results) == 0 {
			return warn("Nothing to export")
		}
		m.mode = modeExport

	default:
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		return cmd
	}
	return nil
}

func (m *Model) updateSearch(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc", "enter":
		m.search.Blur()
		m.mode = modeBrowse
		return nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if m.search.Value() != m.spec.SearchTerm {
		m.spec.SearchTerm = m.search.Value()
		m.applyQuery(false)
	}
	return cmd
}

func (m *Model) updateForm(msg tea.KeyMsg) tea.Cmd {
	result, cmd := m.form.Update(msg)
	switch result {
	case formCancelled:
		m.form = nil
		m.mode = modeBrowse
		return nil
	case formSubmitted:
		in := m.form.Input()
		id := m.form.editingID
		m.form = nil
		m.mode = modeBrowse
		if id != "" {
			return func() tea.Msg { return app.UpdateModelMsg{ID: id, Input: in} }
		}
		return func() tea.Msg { return app.AddModelMsg{Input: in} }
	}
	return cmd
}

// updateDeleteConfirm handles the delete confirmation.
func (m *Model) updateDeleteConfirm(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "y", "Y":
		rec := m.pendingDelete
		m.pendingDelete = nil
		m.mode = modeBrowse
		if rec == nil {
			return nil
		}
		id, name := rec.ID, rec.Name
		return func() tea.Msg { return app.DeleteModelMsg{ID: id, Name: name} }
	case "n", "N", "esc":
		m.pendingDelete = nil
		m.mode = modeBrowse
	}
	return nil
}

func (m *Model) updateExport(msg tea.KeyMsg) tea.Cmd {
	var format export.Format
	switch msg.String() {
	case "j", "J":
		format = export.FormatJSON
	case "c", "C":
		format = export.FormatCSV
	case "y", "Y":
		format = export.FormatYAML
	case "esc", "n", "N":
		m.mode = modeBrowse
		return nil
	default:
		return nil
	}

	m.mode = modeBrowse
	spec := m.spec
	return func() tea.Msg { return app.ExportMsg{Format: format, Spec: spec} }
}

func (m *Model) purchaseSelected() tea.Cmd {
	rec, ok := m.selected()
	if !ok {
		return nil
	}

	sess := m.state.GetSession()
	switch {
	case sess == nil:
		return warn("Sign in to buy models")
	case rec.OwnedBy(sess.Email):
		return warn("You published this model")
	case m.state.HasPurchased(rec.ID):
		return warn(fmt.Sprintf("You already own %s", rec.Name))
	}
	return func() tea.Msg { return app.PurchaseModelMsg{ID: rec.ID, Name: rec.Name} }
}

// canModify reports whether the signed-in user may edit or delete rec.
func (m *Model) canModify(rec *models.ModelRecord) bool {
	sess := m.state.GetSession()
	if sess == nil {
		return false
	}
	return m.state.IsAdmin() || rec.OwnedBy(sess.Email)
}

// selected returns the model under the table cursor.
func (m *Model) selected() (models.ModelRecord, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.results) {
		return models.ModelRecord{}, false
	}
	return m.results[i], true
}

// syncCatalog reruns the query when the catalog changed while the tab was
// not receiving messages.
func (m *Model) syncCatalog() {
	if !m.state.GetLastUpdated().Equal(m.syncedAt) {
		m.applyQuery(true)
	}
}

// applyQuery recomputes the visible models. With keepSelection the cursor
// follows the selected model, otherwise it returns to the top.
func (m *Model) applyQuery(keepSelection bool) {
	var keepID string
	if rec, ok := m.selected(); ok && keepSelection {
		keepID = rec.ID
	}

	m.syncedAt = m.state.GetLastUpdated()
	m.spec = m.spec.Normalize()
	m.results = catalog.Query(m.state.GetRecords(), m.spec)

	rows := make([]table.Row, 0, len(m.results))
	for i := range m.results {
		rows = append(rows, m.row(&m.results[i]))
	}
	m.table.SetRows(rows)

	cursor := slices.IndexFunc(m.results, func(r models.ModelRecord) bool { return r.ID == keepID })
	m.table.SetCursor(max(cursor, 0))
}

func (m *Model) row(rec *models.ModelRecord) table.Row {
	name := rec.Name
	if m.state.HasPurchased(rec.ID) {
		name = "✓ " + name
	}
	return table.Row{
		name,
		rec.Framework,
		rec.UseCase,
		formatPrice(rec.Price),
		fmt.Sprintf("%d", rec.PurchasedCount),
	}
}

// cycleOption steps through All followed by each option, wrapping back to
// All. A current value that is no longer offered resets to All.
func cycleOption(options []string, current string) string {
	if current == catalog.All || current == "" {
		if len(options) == 0 {
			return catalog.All
		}
		return options[0]
	}
	i := slices.Index(options, current)
	if i < 0 || i == len(options)-1 {
		return catalog.All
	}
	return options[i+1]
}

func formatPrice(p float64) string {
	if p <= 0 {
		return "Free"
	}
	return fmt.Sprintf("$%.2f", p)
}

func warn(message string) tea.Cmd {
	return func() tea.Msg {
		return app.AddNotificationMsg{
			Type:     app.NotificationWarning,
			Message:  message,
			Duration: app.QuickNotificationDuration,
		}
	}
}

// columnsFor sizes the table columns to the table's width.
func columnsFor(width int) []table.Column {
	nameWidth := min(max(width-52, 16), 40)
	return []table.Column{
		{Title: "Name", Width: nameWidth},
		{Title: "Framework", Width: 14},
		{Title: "Use Case", Width: 16},
		{Title: "Price", Width: 9},
		{Title: "Sold", Width: 5},
	}
}

// tableWidth is the share of the tab given to the table when the details
// pane is shown beside it.
func (m *Model) tableWidth() int {
	if m.width < 110 {
		return m.width - 6
	}
	return m.width * 3 / 5
}

// SetSize sets the available size for the models tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.table.SetHeight(max(height-12, 3))
	m.table.SetColumns(columnsFor(m.tableWidth() - 4))
	m.search.Width = max(width-20, 20)
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	switch m.mode {
	case modeForm:
		return []key.Binding{
			key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next field")),
			key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "submit")),
			m.keys.Escape,
		}
	case modeSearch:
		return []key.Binding{
			key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "done")),
			m.keys.Escape,
		}
	}
	return []key.Binding{
		m.keys.Search,
		m.keys.Framework,
		m.keys.Sort,
		m.keys.Purchase,
	}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.Search, m.keys.Framework, m.keys.UseCase, m.keys.Sort, m.keys.Clear},
		{m.keys.Purchase, m.keys.Add, m.keys.Edit, m.keys.Delete, m.keys.Export},
	}
}

// Package dashboard provides the dashboard tab: catalog totals, framework
// breakdown and the most recent models.
package dashboard

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/aximo-tui/internal/app"
	"github.com/j-veylop/aximo-tui/internal/ui/components"
)

const countUpDuration = 800 * time.Millisecond

type animationTickMsg time.Time

func animationTickCmd() tea.Cmd {
	return tea.Tick(time.Millisecond*40, func(t time.Time) tea.Msg {
		return animationTickMsg(t)
	})
}

// keyMap defines the key bindings specific to the dashboard tab.
type keyMap struct {
	Next     key.Binding
	Prev     key.Binding
	Purchase key.Binding
}

// defaultKeyMap returns the default key bindings for the dashboard tab.
func defaultKeyMap() keyMap {
	return keyMap{
		Next: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "next model"),
		),
		Prev: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "prev model"),
		),
		Purchase: key.NewBinding(
			key.WithKeys("b"),
			key.WithHelp("b", "buy model"),
		),
	}
}

// counter eases a stat card's number from its old value to a new one.
type counter struct {
	start   time.Time
	current float64
	from    float64
	target  float64
}

// Model represents the dashboard tab state.
type Model struct {
	state         *app.State
	counters      map[string]*counter
	spinner       components.LoadingSpinner
	keys          keyMap
	viewport      viewport.Model
	width         int
	height        int
	selectedIndex int
}

// New creates a new dashboard model.
func New(state *app.State) *Model {
	return &Model{
		state:    state,
		spinner:  components.NewSpinner("Loading catalog..."),
		keys:     defaultKeyMap(),
		viewport: viewport.New(0, 0),
		counters: make(map[string]*counter),
	}
}

// Init initializes the model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Init(), animationTickCmd())
}

// Update handles messages and updates the model.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case animationTickMsg:
		cmds = append(cmds, m.handleAnimationTick(time.Time(msg)))

	case app.DashboardLoadedMsg, app.CatalogLoadedMsg, app.TabSwitchMsg:
		m.syncCounters(time.Now())
		cmds = append(cmds, animationTickCmd())

	case tea.KeyMsg:
		cmds = append(cmds, m.handleKeyMsg(msg))

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) handleAnimationTick(now time.Time) tea.Cmd {
	animating := m.syncCounters(now)
	m.stepCounters(now)

	if animating || m.state.IsInitialLoading() {
		return animationTickCmd()
	}
	return nil
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) tea.Cmd {
	recent := m.recent()

	switch {
	case key.Matches(msg, m.keys.Next):
		if len(recent) > 0 {
			m.selectedIndex = (m.selectedIndex + 1) % len(recent)
		}
	case key.Matches(msg, m.keys.Prev):
		if len(recent) > 0 {
			m.selectedIndex = (m.selectedIndex - 1 + len(recent)) % len(recent)
		}
	case key.Matches(msg, m.keys.Purchase):
		if m.selectedIndex < len(recent) && m.state.IsSignedIn() {
			rec := recent[m.selectedIndex]
			return func() tea.Msg { return app.PurchaseModelMsg{ID: rec.ID, Name: rec.Name} }
		}
	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return cmd
	}
	return nil
}

// SetSize sets the available size for the dashboard.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
}

// cardTargets returns the numbers the stat cards should settle on.
func (m *Model) cardTargets() map[string]float64 {
	dash := m.state.GetDashboard()
	if dash == nil {
		return nil
	}
	return map[string]float64{
		"models":    float64(dash.Stats.TotalCount),
		"downloads": float64(dash.Stats.TotalPurchases),
		"purchases": float64(len(dash.MyPurchases)),
	}
}

func (m *Model) syncCounters(now time.Time) (animating bool) {
	for name, target := range m.cardTargets() {
		c, ok := m.counters[name]
		if !ok {
			c = &counter{start: now}
			m.counters[name] = c
		}
		if target != c.target {
			c.from = c.current
			c.target = target
			c.start = now
		}
		if c.current != c.target {
			animating = true
		}
	}
	return animating
}

func (m *Model) stepCounters(now time.Time) {
	for _, c := range m.counters {
		if c.current == c.target {
			continue
		}
		elapsed := now.Sub(c.start)
		if elapsed >= countUpDuration {
			c.current = c.target
			continue
		}
		progress := elapsed.Seconds() / countUpDuration.Seconds()
		ease := 1.0 - (1.0-progress)*(1.0-progress)
		c.current = c.from + (c.target-c.from)*ease
	}
}

// counterValue returns the animated value for a card, or the target when no
// animation has started yet.
func (m *Model) counterValue(name string, target int) int {
	if c, ok := m.counters[name]; ok && c.target == float64(target) {
		return int(c.current + 0.5)
	}
	return target
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{
		m.keys.Next,
		m.keys.Prev,
		m.keys.Purchase,
	}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.Next, m.keys.Prev},
		{m.keys.Purchase},
	}
}

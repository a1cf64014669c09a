package dashboard

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/aximo-tui/internal/app"
	"github.com/j-veylop/aximo-tui/internal/catalog"
	"github.com/j-veylop/aximo-tui/internal/models"
	"github.com/j-veylop/aximo-tui/internal/services"
	"github.com/j-veylop/aximo-tui/internal/session"
)

func sampleDashboard(signedIn bool) *services.Dashboard {
	records := []models.ModelRecord{
		{ID: "m1", Name: "Alpha", Framework: "PyTorch", UseCase: "Vision", PurchasedCount: 3, CreatedBy: "me@aximo.dev"},
		{ID: "m2", Name: "Beta", Framework: "JAX", UseCase: "NLP", PurchasedCount: 1},
	}
	d := &services.Dashboard{
		Stats:     catalog.Aggregate(records),
		Breakdown: catalog.FrameworkBreakdown(records),
		Recent:    catalog.Recent(records, 5),
		SignedIn:  signedIn,
	}
	if signedIn {
		d.MyModels = records[:1]
		d.MyPurchases = []models.Purchase{
			{ModelID: "m2", ModelName: "Beta", Price: 9.5, PurchasedAt: time.Now()},
		}
	}
	return d
}

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestNew(t *testing.T) {
	m := New(app.NewState())
	if m == nil {
		t.Fatal("New returned nil")
	}
	if m.Init() == nil {
		t.Error("Init returned nil")
	}
}

func TestModel_ViewLoading(t *testing.T) {
	m := New(app.NewState())
	m.SetSize(100, 20)
	if !strings.Contains(m.View(), "Loading catalog") {
		t.Error("spinner expected while the first load is pending")
	}
}

func TestModel_ViewGuest(t *testing.T) {
	state := app.NewState()
	state.SetLoading(app.ResourceInitial, false)
	state.SetDashboard(sampleDashboard(false))
	m := New(state)
	m.SetSize(140, 80)

	view := m.View()
	for _, want := range []string{"Catalog Overview", "Total Models", "Total Downloads", "Top Framework", "PyTorch", "Alpha", "Beta"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
	if strings.Contains(view, "Total spent") {
		t.Error("guests have no purchases card")
	}
}

func TestModel_ViewSignedIn(t *testing.T) {
	state := app.NewState()
	state.SetLoading(app.ResourceInitial, false)
	state.SetSession(&session.Session{Email: "me@aximo.dev", Name: "Me"}, false)
	state.SetDashboard(sampleDashboard(true))
	m := New(state)
	m.SetSize(140, 80)

	view := m.View()
	for _, want := range []string{"My Dashboard", "Your Purchases", "$9.50", "yours", "owned"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestModel_ViewNoDashboard(t *testing.T) {
	state := app.NewState()
	state.SetLoading(app.ResourceInitial, false)
	m := New(state)
	m.SetSize(120, 60)
	view := m.View()
	if !strings.Contains(view, "N/A") || !strings.Contains(view, "No models yet") {
		t.Error("empty dashboard should show N/A and an empty list")
	}
}

func TestModel_SelectAndPurchase(t *testing.T) {
	state := app.NewState()
	state.SetDashboard(sampleDashboard(false))
	m := New(state)

	m.Update(runeKey('j'))
	if m.selectedIndex != 1 {
		t.Fatalf("selectedIndex = %d, want 1", m.selectedIndex)
	}
	m.Update(runeKey('j'))
	if m.selectedIndex != 0 {
		t.Error("selection should wrap")
	}
	m.Update(runeKey('k'))
	if m.selectedIndex != 1 {
		t.Error("k should wrap backwards")
	}

	if _, cmd := m.Update(runeKey('b')); cmd != nil {
		t.Error("guests cannot buy")
	}

	state.SetSession(&session.Session{Email: "me@aximo.dev"}, false)
	_, cmd := m.Update(runeKey('b'))
	if cmd == nil {
		t.Fatal("b should request a purchase")
	}
	msg, ok := cmd().(app.PurchaseModelMsg)
	if !ok || msg.ID != "m2" {
		t.Errorf("got %#v, want purchase of m2", cmd())
	}
}

func TestModel_Counters(t *testing.T) {
	state := app.NewState()
	state.SetDashboard(sampleDashboard(false))
	m := New(state)

	start := time.Now()
	if !m.syncCounters(start) {
		t.Fatal("new targets should start an animation")
	}
	m.stepCounters(start.Add(countUpDuration / 2))
	mid := m.counterValue("models", 2)
	if mid <= 0 || mid > 2 {
		t.Errorf("mid-animation value = %d", mid)
	}

	m.stepCounters(start.Add(countUpDuration))
	if got := m.counterValue("downloads", 4); got != 4 {
		t.Errorf("settled value = %d, want 4", got)
	}
	if m.syncCounters(start.Add(2 * countUpDuration)) {
		t.Error("settled counters should not animate")
	}
	if got := m.counterValue("unknown", 7); got != 7 {
		t.Errorf("untracked counters should show the target, got %d", got)
	}
}

func TestModel_Help(t *testing.T) {
	m := New(app.NewState())
	if len(m.ShortHelp()) == 0 || len(m.FullHelp()) == 0 {
		t.Error("help should not be empty")
	}
}

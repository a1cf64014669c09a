package reports

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/aximo-tui/internal/app"
	"github.com/j-veylop/aximo-tui/internal/models"
	"github.com/j-veylop/aximo-tui/internal/session"
)

func adminState() *app.State {
	s := app.NewState()
	s.SetSession(&session.Session{Email: "admin@aximo.dev"}, true)
	s.SetReport(&models.AdminReport{
		Users: []models.User{
			{ID: "u1", Name: "Admin", Email: "admin@aximo.dev", Role: "admin", CreatedAt: time.Now()},
			{ID: "u2", Name: "Ada", Email: "ada@example.com"},
		},
		Stats: models.AdminStats{TotalUsers: 2, TotalModels: 7, TotalRevenue: 129.5, TotalPurchases: 11},
	})
	return s
}

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func press(m *Model, msg tea.KeyMsg) tea.Msg {
	_, cmd := m.Update(msg)
	if cmd == nil {
		return nil
	}
	return cmd()
}

func TestModel_Restricted(t *testing.T) {
	s := app.NewState()
	s.SetSession(&session.Session{Email: "user@example.com"}, false)
	m := New(s)
	m.SetSize(100, 30)

	if !strings.Contains(m.View(), "Admin access required") {
		t.Error("non-admins should see the restriction notice")
	}
	if msg := press(m, runeKey('d')); msg != nil {
		t.Errorf("non-admin keys should do nothing, got %#v", msg)
	}
}

func TestModel_ViewReport(t *testing.T) {
	m := New(adminState())
	m.SetSize(120, 40)

	view := m.View()
	for _, want := range []string{"Admin Reports", "$129.50", "ada@example.com", "Users (2)", "1 admins"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestModel_ViewLoading(t *testing.T) {
	s := app.NewState()
	s.SetSession(&session.Session{Email: "admin@aximo.dev"}, true)
	s.SetLoading(app.ResourceReports, true)
	m := New(s)
	m.SetSize(100, 20)

	if !strings.Contains(m.View(), "Loading report") {
		t.Error("spinner expected while the report loads")
	}
}

func TestModel_DeleteUser(t *testing.T) {
	m := New(adminState())
	m.SetSize(120, 40)
	m.Update(app.ReportLoadedMsg{})

	if _, ok := press(m, runeKey('d')).(app.AddNotificationMsg); !ok {
		t.Fatal("deleting yourself should warn")
	}

	press(m, tea.KeyMsg{Type: tea.KeyDown})
	press(m, runeKey('d'))
	if !m.CapturingInput() {
		t.Fatal("delete should ask for confirmation")
	}
	if !strings.Contains(m.View(), "Delete User?") {
		t.Error("confirmation should be shown")
	}

	msg := press(m, runeKey('y'))
	del, ok := msg.(app.DeleteUserMsg)
	if !ok || del.ID != "u2" || del.Email != "ada@example.com" {
		t.Fatalf("confirm = %#v, want delete of u2", msg)
	}
	if m.CapturingInput() {
		t.Error("confirmation should close")
	}
}

func TestModel_DeleteCancel(t *testing.T) {
	m := New(adminState())
	m.Update(app.ReportLoadedMsg{})
	press(m, tea.KeyMsg{Type: tea.KeyDown})
	press(m, runeKey('d'))

	if msg := press(m, tea.KeyMsg{Type: tea.KeyEsc}); msg != nil {
		t.Errorf("cancel should not emit, got %#v", msg)
	}
	if m.CapturingInput() {
		t.Error("esc should close the confirmation")
	}
}

func TestModel_Reload(t *testing.T) {
	m := New(adminState())
	if _, ok := press(m, runeKey('l')).(app.LoadReportMsg); !ok {
		t.Error("l should request the report")
	}
}

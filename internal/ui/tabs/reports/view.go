package reports

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/aximo-tui/internal/app"
	"github.com/j-veylop/aximo-tui/internal/ui/components"
	"github.com/j-veylop/aximo-tui/internal/ui/styles"
)

// View renders the reports tab.
func (m *Model) View() string {
	if !m.state.IsAdmin() {
		return m.renderRestricted()
	}

	m.syncReport()
	if m.report == nil {
		if m.state.IsLoading(app.ResourceReports) {
			return components.RenderSpinnerCentered(m.spinner, m.width, m.height)
		}
		return styles.CenterBoth(styles.HelpStyle.Render("No report loaded. Press 'l' to load it."), m.width, m.height)
	}

	sections := []string{
		styles.TitleStyle.Render("Admin Reports"),
		m.renderStats(),
		"",
	}
	if m.pendingDelete != nil {
		sections = append(sections, m.renderDeleteConfirm())
	}
	sections = append(sections, m.renderUsers())

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

func (m *Model) renderRestricted() string {
	content := lipgloss.JoinVertical(lipgloss.Center,
		styles.WarningTextStyle.Bold(true).Render("Admin access required"),
		"",
		styles.HelpStyle.Render("Reports are only available to administrators."),
	)
	return styles.CenterBoth(content, m.width, m.height)
}

func (m *Model) renderStats() string {
	st := m.report.Stats
	cardWidth := max((m.width-12)/4, 16)

	return lipgloss.JoinHorizontal(lipgloss.Top,
		components.RenderStatCard("Users", fmt.Sprintf("%d", st.TotalUsers), cardWidth),
		components.RenderStatCard("Models", fmt.Sprintf("%d", st.TotalModels), cardWidth),
		components.RenderStatCard("Revenue", fmt.Sprintf("$%.2f", st.TotalRevenue), cardWidth),
		components.RenderStatCard("Purchases", fmt.Sprintf("%d", st.TotalPurchases), cardWidth),
	)
}

func (m *Model) renderUsers() string {
	title := styles.CardTitleStyle.Render(fmt.Sprintf("Users (%d)", len(m.report.Users)))

	body := m.table.View()
	if len(m.report.Users) == 0 {
		body = styles.HelpStyle.Render("No registered users.")
	}

	var admins int
	for i := range m.report.Users {
		if m.report.Users[i].IsAdmin() {
			admins++
		}
	}
	legend := styles.RoleStyle("admin").Render(fmt.Sprintf("%d admins", admins)) +
		styles.HelpSeparatorStyle.Render(" | ") +
		styles.RoleStyle("user").Render(fmt.Sprintf("%d users", len(m.report.Users)-admins))

	return styles.CardStyle.Width(max(m.width-6, 40)).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, legend, "", body),
	)
}

func (m *Model) renderDeleteConfirm() string {
	content := lipgloss.JoinVertical(lipgloss.Center,
		"",
		styles.WarningTextStyle.Bold(true).Render("Delete User?"),
		"",
		"Are you sure you want to delete:",
		styles.ErrorTextStyle.Render(m.pendingDelete.Email),
		"",
		"This action cannot be undone.",
		"",
		lipgloss.JoinHorizontal(lipgloss.Center,
			styles.DangerButtonStyle.Render(" (Y)es "),
			"  ",
			styles.ButtonInactiveStyle.Render(" (N)o "),
		),
		"",
	)
	return styles.CenterHorizontal(styles.ModalContentStyle.Width(50).Render(content), m.width)
}

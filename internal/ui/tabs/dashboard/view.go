package dashboard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/aximo-tui/internal/catalog"
	"github.com/j-veylop/aximo-tui/internal/models"
	"github.com/j-veylop/aximo-tui/internal/services"
	"github.com/j-veylop/aximo-tui/internal/ui/components"
	"github.com/j-veylop/aximo-tui/internal/ui/styles"
)

const maxBreakdownBars = 8

// View renders the dashboard component.
func (m *Model) View() string {
	dash := m.state.GetDashboard()
	if dash == nil && m.state.IsInitialLoading() {
		return components.RenderSpinnerCentered(m.spinner, m.width, m.height)
	}
	if dash == nil {
		dash = &services.Dashboard{Stats: catalog.Aggregate(nil)}
	}

	sections := []string{
		m.renderTitle(dash),
		m.renderCards(dash),
		m.renderBreakdown(dash),
		m.renderRecent(dash),
	}
	if dash.SignedIn {
		sections = append(sections, m.renderPurchases(dash))
	}

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)
	m.viewport.SetContent(content)

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

func (m *Model) renderTitle(dash *services.Dashboard) string {
	if !dash.SignedIn {
		return lipgloss.JoinVertical(lipgloss.Left,
			styles.TitleStyle.Render("Catalog Overview"),
			styles.HelpStyle.Render("Sign in to see the models you added and bought"),
			"",
		)
	}

	name := "you"
	if sess := m.state.GetSession(); sess != nil {
		name = sess.DisplayName()
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		styles.TitleStyle.Render("My Dashboard"),
		styles.HelpStyle.Render(fmt.Sprintf("Models added by %s", name)),
		"",
	)
}

func (m *Model) renderCards(dash *services.Dashboard) string {
	cardWidth := max((m.width-12)/4, 16)

	purchases := "-"
	if dash.SignedIn {
		purchases = fmt.Sprintf("%d", m.counterValue("purchases", len(dash.MyPurchases)))
	}

	cards := []string{
		components.RenderStatCard("Total Models", fmt.Sprintf("%d", m.counterValue("models", dash.Stats.TotalCount)), cardWidth),
		components.RenderStatCard("Total Downloads", fmt.Sprintf("%d", m.counterValue("downloads", dash.Stats.TotalPurchases)), cardWidth),
		components.RenderStatCard("Your Purchases", purchases, cardWidth),
		components.RenderStatCard("Top Framework", dash.Stats.TopFramework, cardWidth),
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}

func (m *Model) renderBreakdown(dash *services.Dashboard) string {
	cardWidth := max(m.width-6, 40)

	rows := []string{styles.CardTitleStyle.Render("Models by Framework")}
	rows = append(rows, components.RenderFrameworkBars(dash.Breakdown, cardWidth-8, maxBreakdownBars))
	if len(dash.Breakdown) > maxBreakdownBars {
		rows = append(rows, styles.HelpStyle.Render(fmt.Sprintf("…and %d more", len(dash.Breakdown)-maxBreakdownBars)))
	}

	return styles.CardStyle.Width(cardWidth).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

func (m *Model) renderRecent(dash *services.Dashboard) string {
	cardWidth := max(m.width-6, 40)

	rows := []string{styles.CardTitleStyle.Render("Recent Models")}
	if len(dash.Recent) == 0 {
		rows = append(rows, styles.HelpStyle.Render("  No models yet"))
	}

	for i := range dash.Recent {
		rows = append(rows, m.renderRecentRow(&dash.Recent[i], i == m.selectedIndex))
	}

	return styles.CardStyle.Width(cardWidth).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

func (m *Model) renderRecentRow(rec *models.ModelRecord, selected bool) string {
	cursor := "  "
	name := rec.Name
	if selected {
		cursor = styles.FocusedStyle.Render("> ")
		name = styles.FocusedStyle.Render(name)
	}

	var badges []string
	if sess := m.state.GetSession(); sess != nil && rec.OwnedBy(sess.Email) {
		badges = append(badges, styles.OwnedBadgeStyle.Render("yours"))
	}
	if m.state.HasPurchased(rec.ID) {
		badges = append(badges, styles.PurchasedBadgeStyle.Render("owned"))
	}

	created := "-"
	if rec.HasCreatedAt() {
		created = rec.CreatedAt.Local().Format("Jan 2, 2006")
	}

	return fmt.Sprintf("%s%s  %s  %s  %s %s",
		cursor,
		name,
		styles.FacetStyle.Render(rec.Framework+" · "+rec.UseCase),
		styles.HelpStyle.Render(created),
		styles.DownloadCountStyle.Render(fmt.Sprintf("↓%d", rec.PurchasedCount)),
		strings.Join(badges, " "),
	)
}

func (m *Model) renderPurchases(dash *services.Dashboard) string {
	cardWidth := max(m.width-6, 40)

	rows := []string{styles.CardTitleStyle.Render("Your Purchases")}
	if len(dash.MyPurchases) == 0 {
		rows = append(rows, styles.HelpStyle.Render("  Nothing bought yet. Press b on a model to buy it."))
	}

	total := 0.0
	for i, p := range dash.MyPurchases {
		total += p.Price
		if i >= 5 {
			continue
		}
		rows = append(rows, fmt.Sprintf("  %s  %s  %s",
			p.ModelName,
			styles.PriceStyle.Render(fmt.Sprintf("$%.2f", p.Price)),
			styles.HelpStyle.Render(p.PurchasedAt.Local().Format("Jan 2, 2006")),
		))
	}
	if len(dash.MyPurchases) > 0 {
		rows = append(rows, "", fmt.Sprintf("  Total spent: %s", styles.PriceStyle.Render(fmt.Sprintf("$%.2f", total))))
	}

	return styles.CardStyle.Width(cardWidth).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

// recent returns the models listed in the recent card.
func (m *Model) recent() []models.ModelRecord {
	if dash := m.state.GetDashboard(); dash != nil {
		return dash.Recent
	}
	return nil
}

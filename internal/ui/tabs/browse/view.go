package browse

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/aximo-tui/internal/catalog"
	"github.com/j-veylop/aximo-tui/internal/models"
	"github.com/j-veylop/aximo-tui/internal/ui/components"
	"github.com/j-veylop/aximo-tui/internal/ui/styles"
)

// View renders the models tab.
func (m *Model) View() string {
	m.syncCatalog()

	if m.state.IsInitialLoading() && m.state.RecordCount() == 0 {
		return components.RenderSpinnerCentered(m.spinner, m.width, m.height)
	}

	sections := []string{m.renderTitle(), m.renderFilters()}

	switch m.mode {
	case modeForm:
		sections = append(sections, m.form.View(m.width))
	case modeConfirmDelete:
		sections = append(sections, m.renderDeleteConfirm(), m.renderBody())
	case modeExport:
		sections = append(sections, m.renderExportPrompt(), m.renderBody())
	default:
		sections = append(sections, m.renderBody())
	}

	sections = append(sections, m.renderFooter())

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

func (m *Model) renderTitle() string {
	title := styles.TitleStyle.Render("Model Catalog")
	subtitle := styles.HelpStyle.Render(
		fmt.Sprintf("Showing %d of %d models", len(m.results), m.state.RecordCount()))
	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle)
}

// renderFilters renders the search box and the active filters.
func (m *Model) renderFilters() string {
	search := m.search.View()
	if m.mode != modeSearch && m.spec.SearchTerm == "" {
		search = styles.HelpStyle.Render("/ search")
	}

	facet := func(label, value, k string) string {
		return styles.HelpDescStyle.Render(label+": ") +
			styles.FacetStyle.Render(facetLabel(value)) +
			styles.HelpKeyStyle.Render(" ["+k+"]")
	}

	sep := styles.HelpSeparatorStyle.Render("  ")
	filters := facet("Framework", m.spec.FrameworkFilter, "f") + sep +
		facet("Use case", m.spec.UseCaseFilter, "u") + sep +
		facet("Sort", m.spec.Sort.Label(), "s")
	if !m.spec.IsDefault() {
		filters += sep + styles.HelpKeyStyle.Render("[c]") + styles.HelpDescStyle.Render(" clear")
	}

	return lipgloss.JoinVertical(lipgloss.Left, search, filters, "")
}

func facetLabel(v string) string {
	if v == catalog.All || v == "" {
		return "All"
	}
	return v
}

// renderBody renders the table and the details of the selected model.
func (m *Model) renderBody() string {
	if len(m.results) == 0 {
		return m.renderEmptyState()
	}

	tbl := styles.CardStyle.Width(m.tableWidth()).Render(m.table.View())
	if m.width < 110 {
		return tbl
	}

	detailsWidth := m.width - m.tableWidth() - 8
	return lipgloss.JoinHorizontal(lipgloss.Top, tbl, " ", m.renderDetails(detailsWidth))
}

func (m *Model) renderEmptyState() string {
	cardWidth := max(m.width-6, 40)

	msg := "The catalog is empty."
	hint := "Press 'n' to publish the first model"
	if m.state.RecordCount() > 0 {
		msg = "No models match the current filters."
		hint = "Press 'c' to clear filters"
	}

	content := lipgloss.JoinVertical(lipgloss.Center,
		"",
		styles.SubTitleStyle.Render("No Models"),
		"",
		styles.HelpStyle.Render(msg),
		"",
		styles.InfoTextStyle.Render(hint),
		"",
	)
	return styles.CardStyle.Width(cardWidth).Render(content)
}

// renderDetails renders the selected model's full record.
func (m *Model) renderDetails(width int) string {
	rec, ok := m.selected()
	if !ok {
		return ""
	}

	var badges []string
	if sess := m.state.GetSession(); sess != nil && rec.OwnedBy(sess.Email) {
		badges = append(badges, styles.OwnedBadgeStyle.Render("yours"))
	}
	if m.state.HasPurchased(rec.ID) {
		badges = append(badges, styles.PurchasedBadgeStyle.Render("owned"))
	}

	rows := []string{styles.CardTitleStyle.Render(rec.Name)}
	if len(badges) > 0 {
		rows = append(rows, strings.Join(badges, " "))
	}
	rows = append(rows, "",
		detailRow("Framework", rec.Framework),
		detailRow("Use case", rec.UseCase),
		detailRow("Dataset", rec.Dataset),
		detailRow("Added by", orDash(rec.CreatedBy)),
		detailRow("Added", addedLabel(&rec)),
		styles.HelpDescStyle.Render("Price:     ")+styles.PriceStyle.Render(formatPrice(rec.Price)),
		styles.HelpDescStyle.Render("Sold:      ")+styles.DownloadCountStyle.Render(fmt.Sprintf("%d", rec.PurchasedCount)),
	)

	if rec.Description != "" {
		rows = append(rows, "", lipgloss.NewStyle().Width(width-4).Render(rec.Description))
	}
	if rec.ImageURL != "" {
		rows = append(rows, "", styles.HelpStyle.Render(rec.ImageURL))
	}

	return styles.CardStyle.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func detailRow(label, value string) string {
	return styles.HelpDescStyle.Render(fmt.Sprintf("%-11s", label+":")) + value
}

func addedLabel(rec *models.ModelRecord) string {
	if !rec.HasCreatedAt() {
		return "unknown"
	}
	return rec.CreatedAt.Local().Format("Jan 2, 2006")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// renderDeleteConfirm renders the delete confirmation dialog.
func (m *Model) renderDeleteConfirm() string {
	name := ""
	if m.pendingDelete != nil {
		name = m.pendingDelete.Name
	}

	content := lipgloss.JoinVertical(lipgloss.Center,
		"",
		styles.WarningTextStyle.Bold(true).Render("Delete Model?"),
		"",
		"Are you sure you want to delete:",
		styles.ErrorTextStyle.Render(name),
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

func (m *Model) renderExportPrompt() string {
	content := lipgloss.JoinVertical(lipgloss.Center,
		"",
		styles.CardTitleStyle.Render("Export Models"),
		"",
		fmt.Sprintf("Export %d matching models as:", len(m.results)),
		"",
		lipgloss.JoinHorizontal(lipgloss.Center,
			styles.ButtonActiveStyle.Render(" (J)SON "),
			"  ",
			styles.ButtonActiveStyle.Render(" (C)SV "),
			"  ",
			styles.ButtonActiveStyle.Render(" (Y)AML "),
		),
		"",
	)

	return styles.CenterHorizontal(styles.ModalContentStyle.Width(50).Render(content), m.width)
}

// renderFooter renders the footer with keyboard shortcuts.
func (m *Model) renderFooter() string {
	var shortcuts []string

	switch m.mode {
	case modeForm:
		shortcuts = []string{
			styles.HelpKeyStyle.Render("Tab") + " next",
			styles.HelpKeyStyle.Render("Enter") + " submit",
			styles.HelpKeyStyle.Render("Esc") + " cancel",
		}
	case modeSearch:
		shortcuts = []string{
			styles.HelpKeyStyle.Render("Enter") + " done",
			styles.HelpKeyStyle.Render("Esc") + " done",
		}
	case modeConfirmDelete:
		shortcuts = []string{
			styles.HelpKeyStyle.Render("Y") + " confirm",
			styles.HelpKeyStyle.Render("N") + " cancel",
		}
	case modeExport:
		shortcuts = []string{
			styles.HelpKeyStyle.Render("J/C/Y") + " format",
			styles.HelpKeyStyle.Render("Esc") + " cancel",
		}
	default:
		shortcuts = []string{
			styles.HelpKeyStyle.Render("/") + " search",
			styles.HelpKeyStyle.Render("f/u/s") + " filter",
			styles.HelpKeyStyle.Render("b") + " buy",
			styles.HelpKeyStyle.Render("n") + " add",
			styles.HelpKeyStyle.Render("e") + " edit",
			styles.HelpKeyStyle.Render("d") + " delete",
			styles.HelpKeyStyle.Render("x") + " export",
		}
	}

	return lipgloss.NewStyle().
		MarginTop(1).
		Foreground(styles.TextMuted).
		Render(strings.Join(shortcuts, styles.HelpSeparatorStyle.Render(" | ")))
}

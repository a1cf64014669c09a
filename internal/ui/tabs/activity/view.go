package activity

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/aximo-tui/internal/app"
	"github.com/j-veylop/aximo-tui/internal/models"
	"github.com/j-veylop/aximo-tui/internal/ui/components"
	"github.com/j-veylop/aximo-tui/internal/ui/styles"
)

// View renders the activity tab.
func (m *Model) View() string {
	stats := m.state.GetActivity()
	if stats == nil && m.state.IsLoading(app.ResourceActivity) {
		return m.renderMessage(styles.HelpStyle.Render("Loading activity..."))
	}
	if stats == nil || !stats.HasData() {
		return m.renderEmpty()
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(stats),
		m.renderActivityChart(stats),
		m.renderCatalogTrend(stats),
		m.renderWeeklyPattern(stats),
	)
	m.viewport.SetContent(content)

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

func (m *Model) renderMessage(content string) string {
	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(content)
}

func (m *Model) renderEmpty() string {
	return m.renderMessage(lipgloss.JoinVertical(lipgloss.Left,
		m.renderRangeTitle(),
		"",
		styles.HelpStyle.Render("No activity recorded yet."),
		styles.HelpStyle.Render("Activity appears as the catalog is synced and models are purchased."),
	))
}

func (m *Model) renderRangeTitle() string {
	title := styles.TitleStyle.Render("Activity")

	rangeStyle := lipgloss.NewStyle().
		Foreground(styles.Primary).
		Bold(true).
		Padding(0, 1).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(styles.Primary)

	indicator := rangeStyle.Render(fmt.Sprintf("[t] %s", m.timeRange.String()))
	if m.state.IsLoading(app.ResourceActivity) {
		indicator += styles.HelpStyle.Render(" loading...")
	}

	return lipgloss.JoinHorizontal(lipgloss.Center, title, "  ", indicator)
}

func (m *Model) renderHeader(stats *models.ActivityStats) string {
	var subtitle string
	if !stats.FirstSeen.IsZero() {
		subtitle = styles.HelpStyle.Render(fmt.Sprintf("Tracking since %s · last sync %s",
			stats.FirstSeen.Local().Format("Jan 2, 2006"),
			formatSync(stats.LastSync),
		))
	}

	whose := "all buyers"
	if sess := m.state.GetSession(); sess != nil {
		whose = "your purchases"
	}

	summary := fmt.Sprintf("%s models added   %s purchases (%s)   %s spent",
		styles.StatValueStyle.Render(fmt.Sprintf("%d", stats.TotalAdded)),
		styles.DownloadCountStyle.Render(fmt.Sprintf("%d", stats.TotalPurchased)),
		whose,
		styles.PriceStyle.Render(fmt.Sprintf("$%.2f", stats.Revenue)),
	)

	return lipgloss.JoinVertical(lipgloss.Left, m.renderRangeTitle(), subtitle, "", summary, "")
}

func (m *Model) cardWidth() int {
	return max(m.width-6, 40)
}

func (m *Model) renderActivityChart(stats *models.ActivityStats) string {
	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render("Daily Activity"))

	dates, added, purchased := alignDaily(stats.DailyAdditions, stats.DailyPurchases)
	if len(dates) == 0 {
		rows = append(rows, styles.HelpStyle.Render("  No daily data available"))
	} else {
		chartWidth := max(m.cardWidth()-12, 30)
		caption := fmt.Sprintf("%s → %s", dates[0].Format("Jan 2"), dates[len(dates)-1].Format("Jan 2"))
		chart := components.RenderDualLineChart(added, purchased, chartWidth, 8, caption)
		for line := range strings.SplitSeq(chart, "\n") {
			rows = append(rows, "  "+line)
		}

		rows = append(rows, "", "  "+components.RenderLegend([]components.LegendItem{
			{Label: "Models added", Color: components.ChartAddedColor},
			{Label: "Purchases", Color: components.ChartPurchasedColor},
		}))

		if day, count := stats.GetPeakDay(); count > 0 {
			rows = append(rows, fmt.Sprintf("  Busiest day: %s (%d models added)",
				lipgloss.NewStyle().Bold(true).Foreground(styles.Primary).Render(day.Format("Mon Jan 2")),
				count,
			))
		}
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

func (m *Model) renderCatalogTrend(stats *models.ActivityStats) string {
	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render("Catalog Size"))

	trend := stats.CatalogTrend
	if len(trend) == 0 {
		rows = append(rows, styles.HelpStyle.Render("  No syncs recorded"))
	} else {
		spark := components.RenderColoredSparkline(models.Counts(trend), max(m.cardWidth()-20, 10))
		latest := trend[len(trend)-1].Count
		rows = append(rows, fmt.Sprintf("  %s  %s models", spark, styles.StatValueStyle.Render(fmt.Sprintf("%d", latest))))
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

func (m *Model) renderWeeklyPattern(stats *models.ActivityStats) string {
	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render("By Weekday"))

	added := byWeekday(stats.DailyAdditions)
	purchased := byWeekday(stats.DailyPurchases)
	rows = append(rows,
		"  Added      "+components.RenderWeeklyPattern(added, nil),
		"  Purchases  "+components.RenderWeeklyPattern(purchased, nil),
	)

	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

// alignDaily merges two daily series onto one date axis, filling days
// missing from either series with zero.
func alignDaily(a, b []models.DailyCount) ([]time.Time, []float64, []float64) {
	index := make(map[string]int)
	var dates []time.Time
	for _, series := range [][]models.DailyCount{a, b} {
		for _, d := range series {
			k := d.Date.Format(time.DateOnly)
			if _, ok := index[k]; !ok {
				index[k] = 0
				dates = append(dates, d.Date)
			}
		}
	}
	slices.SortFunc(dates, func(x, y time.Time) int { return x.Compare(y) })
	for i, d := range dates {
		index[d.Format(time.DateOnly)] = i
	}

	av := make([]float64, len(dates))
	bv := make([]float64, len(dates))
	for _, d := range a {
		av[index[d.Date.Format(time.DateOnly)]] += float64(d.Count)
	}
	for _, d := range b {
		bv[index[d.Date.Format(time.DateOnly)]] += float64(d.Count)
	}
	return dates, av, bv
}

// byWeekday sums a daily series into Sunday-first weekday buckets.
func byWeekday(points []models.DailyCount) []float64 {
	totals := make([]float64, 7)
	for _, p := range points {
		totals[p.Date.Weekday()] += float64(p.Count)
	}
	return totals
}

func formatSync(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Local().Format("Jan 2 15:04")
}

// Package components provides reusable UI components for the TUI.
package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/j-veylop/aximo-tui/internal/catalog"
	"github.com/j-veylop/aximo-tui/internal/ui/styles"
)

// ChartColors defines colors for chart elements.
var (
	ChartAddedColor     = lipgloss.Color("#2EC4B6")
	ChartPurchasedColor = lipgloss.Color("#FFB347")
	ChartPrimaryColor   = lipgloss.Color("#7D56F4")
)

// sparkChars are the eight block heights used by sparklines.
var sparkChars = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// RenderLineChart creates a single-series ASCII line chart.
func RenderLineChart(data []float64, width, height int, caption string) string {
	if len(data) == 0 {
		return styles.HelpStyle.Render("No data available")
	}

	width = max(width, 20)
	height = max(height, 3)

	return asciigraph.Plot(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
	)
}

// RenderDualLineChart plots models added against purchases on one chart.
// The shorter series is padded with zeros.
func RenderDualLineChart(added, purchased []float64, width, height int, caption string) string {
	if len(added) == 0 && len(purchased) == 0 {
		return styles.HelpStyle.Render("No data available")
	}

	width = max(width, 20)
	height = max(height, 3)

	n := max(len(added), len(purchased))
	addedData := make([]float64, n)
	purchasedData := make([]float64, n)
	copy(addedData, added)
	copy(purchasedData, purchased)

	return asciigraph.PlotMany([][]float64{addedData, purchasedData},
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
		asciigraph.SeriesColors(
			asciigraph.Cyan,
			asciigraph.Goldenrod,
		),
	)
}

// RenderBarChart creates a simple horizontal bar chart of whole counts.
func RenderBarChart(values []float64, labels []string, width int) string {
	if len(values) == 0 {
		return ""
	}

	maxVal := 0.0
	for _, v := range values {
		maxVal = max(maxVal, v)
	}
	if maxVal == 0 {
		maxVal = 1
	}

	maxLabelLen := 0
	for _, l := range labels {
		maxLabelLen = max(maxLabelLen, lipgloss.Width(l))
	}

	// Leave room for the label and the value.
	barWidth := max(width-maxLabelLen-10, 10)

	lines := make([]string, 0, len(values))
	for i, v := range values {
		label := ""
		if i < len(labels) {
			label = labels[i]
		}

		paddedLabel := strings.Repeat(" ", maxLabelLen-lipgloss.Width(label)) + label
		barLen := max(int((v/maxVal)*float64(barWidth)), 0)

		bar := lipgloss.NewStyle().Foreground(ChartPrimaryColor).Render(strings.Repeat("█", barLen))
		lines = append(lines, fmt.Sprintf("%s │%s %.0f", paddedLabel, bar, v))
	}

	return strings.Join(lines, "\n")
}

// RenderFrameworkBars charts how many models each framework has, largest first.
func RenderFrameworkBars(breakdown []catalog.FrameworkCount, width, limit int) string {
	if len(breakdown) == 0 {
		return styles.HelpStyle.Render("No models yet")
	}
	if limit > 0 && len(breakdown) > limit {
		breakdown = breakdown[:limit]
	}

	values := make([]float64, len(breakdown))
	labels := make([]string, len(breakdown))
	for i, fc := range breakdown {
		values[i] = float64(fc.Count)
		labels[i] = fc.Framework
	}
	return RenderBarChart(values, labels, width)
}

// RenderWeeklyPattern shows one sparkline block per weekday.
func RenderWeeklyPattern(patterns []float64, dayNames []string) string {
	if len(patterns) != 7 {
		padded := make([]float64, 7)
		copy(padded, patterns)
		patterns = padded
	}
	if len(dayNames) != 7 {
		dayNames = []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}
	}

	maxVal := 0.0
	for _, v := range patterns {
		maxVal = max(maxVal, v)
	}
	if maxVal == 0 {
		maxVal = 1
	}

	parts := make([]string, 0, 7)
	for i, v := range patterns {
		parts = append(parts, fmt.Sprintf("%s %c", dayNames[i], sparkChars[sparkLevel(v, maxVal)]))
	}

	return strings.Join(parts, " ")
}

// RenderSparkline creates a compact inline sparkline chart.
func RenderSparkline(values []float64, width int) string {
	return renderSparkline(values, width, nil)
}

// RenderColoredSparkline creates a sparkline whose busier days stand out.
func RenderColoredSparkline(values []float64, width int) string {
	return renderSparkline(values, width, func(val, maxVal float64) lipgloss.Style {
		switch ratio := val / maxVal; {
		case ratio > 0.66:
			return styles.SuccessTextStyle
		case ratio > 0.33:
			return lipgloss.NewStyle().Foreground(styles.Primary)
		default:
			return lipgloss.NewStyle().Foreground(styles.Subtle)
		}
	})
}

func renderSparkline(values []float64, width int, color func(val, maxVal float64) lipgloss.Style) string {
	if len(values) == 0 || width <= 0 {
		return ""
	}

	maxVal := 0.0
	for _, v := range values {
		maxVal = max(maxVal, v)
	}
	if maxVal == 0 {
		maxVal = 1
	}

	// Sample values to fit width.
	step := max(float64(len(values))/float64(width), 1)

	var result strings.Builder
	for i := 0; i < width && int(float64(i)*step) < len(values); i++ {
		val := values[int(float64(i)*step)]
		ch := string(sparkChars[sparkLevel(val, maxVal)])
		if color != nil {
			ch = color(val, maxVal).Render(ch)
		}
		result.WriteString(ch)
	}

	return result.String()
}

func sparkLevel(val, maxVal float64) int {
	level := int((val / maxVal) * float64(len(sparkChars)-1))
	return min(max(level, 0), len(sparkChars)-1)
}

// RenderLegend creates a chart legend.
func RenderLegend(items []LegendItem) string {
	var parts []string
	for _, item := range items {
		colorBox := lipgloss.NewStyle().Foreground(item.Color).Render("■")
		parts = append(parts, fmt.Sprintf("%s %s", colorBox, item.Label))
	}
	return strings.Join(parts, "  ")
}

// LegendItem represents a single legend entry.
type LegendItem struct {
	Label string
	Color lipgloss.Color
}

// RenderStatCard draws a bordered card with a caption above a big value.
func RenderStatCard(label, value string, width int) string {
	body := lipgloss.JoinVertical(lipgloss.Left,
		styles.StatLabelStyle.Render(label),
		styles.StatValueStyle.Render(value),
	)
	return styles.CardStyle.Width(max(width, 12)).Render(body)
}

package info

import (
	"fmt"
	"runtime"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/aximo-tui/internal/ui/styles"
	"github.com/j-veylop/aximo-tui/internal/version"
)

// View renders the info tab.
func (m *Model) View() string {
	sections := []string{
		m.renderTitle(),
		m.renderConfigCard(),
		m.renderSessionCard(),
		m.renderAboutCard(),
	}

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)

	m.viewport.SetContent(content)

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

func (m *Model) cardWidth() int {
	return min(max(m.width-6, 50), 80)
}

func (m *Model) renderTitle() string {
	title := styles.TitleStyle.Render("Info")
	subtitle := styles.HelpStyle.Render("Configuration, session and version")

	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "")
}

func (m *Model) renderConfigCard() string {
	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render("Configuration"))

	if m.config == nil {
		rows = append(rows, styles.HelpStyle.Render("Configuration not loaded"))
		return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
	}

	if m.config.UsesSnapshot() {
		rows = append(rows, m.renderConfigRow("Snapshot", m.config.SnapshotPath))
	} else {
		rows = append(rows, m.renderConfigRow("API", m.config.APIURL))
	}
	rows = append(rows,
		m.renderConfigRow("Database", m.config.DatabasePath),
		m.renderConfigRow("Log File", m.config.LogPath),
		m.renderConfigRow("Exports", m.config.ExportDir),
		m.renderConfigRow("Token File", m.config.TokenPath),
		m.renderConfigRow("Refresh", m.config.RefreshInterval.String()),
		m.renderConfigRow("Rate Limit", fmt.Sprintf("%g req/s", m.config.RateLimit)),
		m.renderConfigRow("Notifications", onOff(m.config.NotifyNewModels)),
	)

	info := m.state.GetCatalogInfo()
	source := info.Source
	if info.FromCache {
		source += " (cached)"
	}
	if source == "" {
		source = "-"
	}
	rows = append(rows,
		"",
		m.renderConfigRow("Catalog Source", source),
		m.renderConfigRow("Models", fmt.Sprintf("%d", m.state.RecordCount())),
		m.renderConfigRow("Last Sync", formatTime(info.LastSync)),
	)

	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

func (m *Model) renderSessionCard() string {
	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render("Session"))

	sess := m.state.GetSession()
	if sess == nil {
		rows = append(rows,
			styles.HelpStyle.Render("Browsing as guest."),
			styles.HelpStyle.Render("Run `aximo login <token>` or set AXIMO_TOKEN to sign in."),
		)
		return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
	}

	role := "user"
	if m.state.IsAdmin() {
		role = "admin"
	}
	rows = append(rows,
		m.renderConfigRow("Name", sess.DisplayName()),
		m.renderConfigRow("Email", sess.Email),
		m.renderConfigRow("Role", styles.RoleStyle(role).Render(role)),
		m.renderConfigRow("Expires", formatTime(sess.ExpiresAt)),
		"",
	)

	if m.confirmSignOut {
		rows = append(rows, styles.WarningTextStyle.Render("Sign out and forget the saved token? (y/n)"))
	} else {
		rows = append(rows, styles.HelpStyle.Render("Press 'o' to sign out"))
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

// renderConfigRow renders a configuration key-value row.
func (m *Model) renderConfigRow(label, value string) string {
	labelStyle := lipgloss.NewStyle().
		Width(16).
		Foreground(styles.TextMuted)

	valueStyle := lipgloss.NewStyle().
		Foreground(styles.TextPrimary)

	return labelStyle.Render(label+":") + " " + valueStyle.Render(value)
}

func (m *Model) renderAboutCard() string {
	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render("About "+version.Name))

	rows = append(rows,
		m.renderConfigRow("Version", version.GetVersion()),
		m.renderConfigRow("Build Date", version.GetDate()),
		m.renderConfigRow("Git Commit", version.GetCommit()),
		m.renderConfigRow("Go Version", runtime.Version()),
		m.renderConfigRow("Platform", fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)),
	)

	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Local().Format("Jan 2, 2006 15:04")
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

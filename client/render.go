package client

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/cipherdesk/cipherdesk/desk"
)

func (m Model) View() string {
	var b strings.Builder

	if m.banner != "" {
		b.WriteString(m.styles.Banner.Render(m.banner) + "\n")
	}

	b.WriteString(m.renderDesktop() + "\n")
	b.WriteString(m.renderStatusBar() + "\n")
	b.WriteString(m.styles.BoxActive.Render("> " + m.input.View()))
	return b.String()
}

// renderDesktop lays out visible windows in z-order, oldest first so the
// most recently focused window sits at the end of the flow. A maximized
// active window takes the whole desktop.
func (m Model) renderDesktop() string {
	windows := m.visibleByZ()
	if len(windows) == 0 {
		return m.styles.Time.Render("Desktop is empty. ctrl+n chat, ctrl+o note, ctrl+e code, ctrl+f perf.")
	}

	activeID := m.registry.ActiveID()
	if w, ok := m.registry.Get(activeID); ok && w.Maximized && w.Visible() {
		return m.renderWindow(w, true, m.desktopWidth(), m.desktopHeight())
	}

	rendered := make([]string, 0, len(windows))
	for _, w := range windows {
		rendered = append(rendered, m.renderWindow(w, w.ID == activeID, w.Size.Width, w.Size.Height))
	}

	// Flow windows into rows that fit the terminal width.
	var rows []string
	var row []string
	used := 0
	for _, r := range rendered {
		rw := lipgloss.Width(r)
		if used+rw > m.desktopWidth() && len(row) > 0 {
			rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
			row, used = nil, 0
		}
		row = append(row, r)
		used += rw
	}
	if len(row) > 0 {
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m Model) renderWindow(w desk.Window, active bool, width, height int) string {
	if width < desk.MinWidth {
		width = desk.MinWidth
	}

	title := m.renderTitleBar(w, active, width-2)

	var content string
	for _, tab := range w.Tabs {
		if tab.ID == w.ActiveTabID {
			content = m.renderTabContent(tab, width-4)
			break
		}
	}
	if w.Blurred {
		content = m.styles.Time.Render(strings.Repeat("░", width-4))
	}

	box := m.styles.BoxIdle
	if active {
		box = m.styles.BoxActive
	}
	body := lipgloss.NewStyle().Width(width - 2).MaxHeight(height).Render(title + "\n" + content)
	return box.Render(body)
}

// renderTitleBar shows every tab of the window, the active one highlighted,
// plus a lock marker.
func (m Model) renderTitleBar(w desk.Window, active bool, width int) string {
	var parts []string
	for _, tab := range w.Tabs {
		style := m.styles.TitleIdle
		if tab.ID == w.ActiveTabID && active {
			style = m.styles.TitleActive
		}
		parts = append(parts, style.Render(tab.Title))
	}
	bar := strings.Join(parts, " ")
	if w.Locked {
		bar += " " + m.styles.Locked.Render("🔒")
	}
	return lipgloss.NewStyle().MaxWidth(width).Render(bar)
}

func (m Model) renderStatusBar() string {
	conn := "offline"
	if m.connected {
		conn = fmt.Sprintf("online · %d users", len(m.users))
	}

	var hidden []string
	for _, w := range m.registry.Windows() {
		if len(w.Tabs) == 0 {
			continue
		}
		switch {
		case w.Minimized:
			hidden = append(hidden, w.Tabs[0].Title+" (min)")
		case w.PoppedOut:
			hidden = append(hidden, w.Tabs[0].Title+" (popped)")
		}
	}

	status := fmt.Sprintf("%s · %s · %s · %.0f fps",
		conn,
		encryptionStatus(m.security),
		m.governor.EffectiveMode(),
		m.governor.FPS(),
	)
	if len(hidden) > 0 {
		status += " · hidden: " + strings.Join(hidden, ", ")
	}
	return m.styles.StatusBar.Render(status)
}

// visibleByZ returns visible windows ordered back to front.
func (m Model) visibleByZ() []desk.Window {
	var windows []desk.Window
	for _, w := range m.registry.Windows() {
		if w.Visible() {
			windows = append(windows, w)
		}
	}
	sort.Slice(windows, func(i, j int) bool {
		return windows[i].ZIndex < windows[j].ZIndex
	})
	return windows
}

func (m Model) desktopWidth() int {
	if m.width == 0 {
		return 80
	}
	return m.width
}

func (m Model) desktopHeight() int {
	if m.height == 0 {
		return 24
	}
	return m.height - 4
}

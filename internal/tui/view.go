package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/ensigniasec/autorefresh/internal/countdown"
	"github.com/ensigniasec/autorefresh/internal/menu"
)

func (m Model) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	w, h := m.bodySize()
	lines := m.renderPage(w, h)

	if m.surface != nil && m.engine != nil {
		panel := m.surface.View(m.engine.State(), m.engine.Phase() == countdown.Expired)
		pos := m.surface.Position()
		overlayAt(lines, strings.Split(panel, "\n"), w, pos.Left, pos.Top, panelWidth)
	}

	switch {
	case m.prompt != nil:
		overlayCentered(lines, w, h, renderPrompt(m.prompt))
	case m.menuVisible:
		overlayCentered(lines, w, h, renderBox(m.menuList.View()))
	case m.helpVisible:
		overlayCentered(lines, w, h, renderHelp(m))
	}

	var b strings.Builder
	b.WriteString(strings.Join(lines, "\n"))
	b.WriteString("\n")
	b.WriteString(ansi.Truncate(m.renderStatus(), w, "…"))
	b.WriteString("\n")
	b.WriteString(ansi.Truncate(renderFooter(), w, "…"))
	return b.String()
}

// renderPage returns exactly h lines, each padded to w cells.
func (m Model) renderPage(w, h int) []string {
	out := make([]string, 0, h)
	header := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("69"))
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	title := m.page.Title
	if title == "" {
		title = m.address
	}
	out = append(out, header.Render(title))
	switch {
	case m.loading:
		out = append(out, dim.Render(fmt.Sprintf("loading %s …", m.address)))
	case m.page.Err != nil:
		out = append(out, lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render(
			fmt.Sprintf("load #%d failed: %v", m.loads, m.page.Err)))
	default:
		out = append(out, dim.Render(fmt.Sprintf("load #%d · %s · %s", m.loads, m.page.Status, m.page.LoadedAt.Format("15:04:05"))))
	}

	for _, line := range m.page.Body {
		if len(out) >= h {
			break
		}
		out = append(out, sanitize(line))
	}
	for len(out) < h {
		out = append(out, "")
	}
	out = out[:h]

	for i, line := range out {
		line = ansi.Truncate(line, w, "")
		if n := ansi.StringWidth(line); n < w {
			line += strings.Repeat(" ", w-n)
		}
		out[i] = line
	}
	return out
}

// sanitize strips escape sequences and expands tabs in page text.
func sanitize(s string) string {
	return strings.ReplaceAll(ansi.Strip(s), "\t", "    ")
}

// overlayAt draws fgLines over bgLines with the top-left corner at (x, y).
func overlayAt(bgLines []string, fgLines []string, w, x, y, fgW int) {
	if fgW <= 0 {
		return
	}
	if x < 0 {
		x = 0
	}
	if y < 0 {
		y = 0
	}
	for i := 0; i < len(fgLines) && y+i < len(bgLines); i++ {
		bgLine := bgLines[y+i]
		left := ansi.Cut(bgLine, 0, x)
		right := ansi.Cut(bgLine, x+fgW, w)

		fgLine := fgLines[i]
		if n := ansi.StringWidth(fgLine); n < fgW {
			fgLine += strings.Repeat(" ", fgW-n)
		} else if n > fgW {
			fgLine = ansi.Cut(fgLine, 0, fgW)
		}

		bgLines[y+i] = left + fgLine + right
	}
}

func overlayCentered(bgLines []string, w, h int, box string) {
	fg := strings.Split(box, "\n")
	fgW := lipgloss.Width(box)
	overlayAt(bgLines, fg, w, max(0, (w-fgW)/2), max(0, (h-len(fg))/2), fgW)
}

func renderBox(content string) string {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("69")).
		Padding(0, 1).
		Render(content)
}

func renderPrompt(p *promptState) string {
	body := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().Bold(true).Render(p.message),
		"",
		p.input.View(),
		"",
		lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render("enter: save • esc: cancel"),
	)
	return renderBox(lipgloss.NewStyle().Width(promptWidth - 4).Render(body))
}

func (m Model) renderStatus() string {
	if m.notice != nil {
		color := lipgloss.Color("46")
		switch m.notice.Kind {
		case menu.KindNoop:
			color = lipgloss.Color("69")
		case menu.KindValidation, menu.KindWriteFailed:
			color = lipgloss.Color("196")
		case menu.KindSuccess:
		}
		return lipgloss.NewStyle().Foreground(color).Render(menu.Icon(m.notice.Kind) + " " + m.notice.Message)
	}
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	if !m.loading && m.engine == nil {
		return dim.Render("Auto refresh is off for this address. Press S to set an interval.")
	}
	if m.actionRunning {
		return dim.Render("Running menu action…")
	}
	return ""
}

func renderFooter() string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render("q: quit • p: pause • r: reset • s: interval • m: menu • ctrl+r: reload • ?: help")
}

func renderHelp(m Model) string {
	bindings := []struct{ keys, desc string }{
		{m.keys.Pause.Help().Key, m.keys.Pause.Help().Desc},
		{m.keys.Reset.Help().Key, m.keys.Reset.Help().Desc},
		{m.keys.Settings.Help().Key, m.keys.Settings.Help().Desc},
		{m.keys.Menu.Help().Key, m.keys.Menu.Help().Desc},
		{m.keys.SetNext.Help().Key, m.keys.SetNext.Help().Desc},
		{m.keys.ClearNext.Help().Key, m.keys.ClearNext.Help().Desc},
		{m.keys.Reload.Help().Key, m.keys.Reload.Help().Desc},
		{m.keys.Help.Help().Key, m.keys.Help.Help().Desc},
		{m.keys.Quit.Help().Key, m.keys.Quit.Help().Desc},
	}
	content := []string{"Help", ""}
	for _, b := range bindings {
		content = append(content, fmt.Sprintf("%-7s %s", b.keys, b.desc))
	}
	content = append(content, "", "Drag the panel by its title row.")
	return renderBox(strings.Join(content, "\n"))
}

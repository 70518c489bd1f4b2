package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func (m Model) View() string {
	header := titleStyle.Render(" olsview ─ airport surface layers ")

	var rows []string
	for _, c := range categories {
		mark := offStyle.Render("[ ]")
		if m.visibility[c.category] {
			mark = onStyle.Render("[x]")
		}
		rows = append(rows, mark+" "+c.label)
	}
	layers := boxStyle.Render(strings.Join(rows, "\n"))
	counts := boxStyle.Render(m.tbl.View())
	body := lipgloss.JoinHorizontal(lipgloss.Top, layers, " ", counts)

	status := m.status
	if m.busy {
		status = m.spinner.View() + " " + status
	}

	ui := lipgloss.JoinVertical(lipgloss.Left,
		header,
		body,
		dimStyle.Render(" "+status),
		m.help.View(m.keys),
	)
	if m.width > 0 {
		return appStyle.Width(m.width).Render(ui)
	}
	return appStyle.Render(ui)
}

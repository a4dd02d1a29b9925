package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func (m *Model) View() string {
	if m.orgPickerOpen {
		return m.renderOrgPicker()
	}

	lines := []string{m.viewport.View()}
	if suggestions := m.renderSuggestions(); suggestions != "" {
		lines = append(lines, suggestions)
	}
	lines = append(lines, m.input.View(), m.statusLine())
	main := lipgloss.JoinVertical(lipgloss.Left, lines...)

	sidebar := m.renderSidebar()
	if sidebar == "" {
		return main
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, sidebar, main)
}

func (m *Model) statusLine() string {
	left := m.breadcrumb()
	if m.status != "" {
		left = m.status + " · " + left
	}
	right := ""
	if m.input.Value() == "" {
		right = "ctrl+n/p channels · ctrl+o orgs · esc quit"
	}
	return statusStyle.Render(alignStatusLine(left, right, m.mainWidth()))
}

func alignStatusLine(left, right string, width int) string {
	if width <= 0 || right == "" {
		return left
	}
	leftWidth := lipgloss.Width(left)
	rightWidth := lipgloss.Width(right)
	if leftWidth+rightWidth+1 > width {
		return left
	}
	return left + strings.Repeat(" ", width-leftWidth-rightWidth) + right
}

func (m *Model) breadcrumb() string {
	org := "loft"
	for _, o := range m.orgs {
		if o.ID == m.activeOrg {
			org = o.Name
			break
		}
	}
	channel := ""
	for _, c := range m.channels {
		if c.ID == m.activeChannel {
			channel = c.Name
			break
		}
	}
	if channel == "" {
		return org
	}
	return org + " ❯ #" + channel
}

func (m *Model) renderOrgPicker() string {
	var b strings.Builder
	b.WriteString(pickerTitleStyle.Render("choose an organization"))
	b.WriteString("\n\n")
	for i, org := range m.orgs {
		line := "  " + org.Name
		if i == m.orgPickerIdx {
			line = selectedStyle.Render("> " + org.Name)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(statusStyle.Render("enter to select · esc to keep current"))
	return b.String()
}

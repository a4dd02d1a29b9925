package chat

import (
	"strconv"
	"strings"
)

// renderSidebar lists the channels of the active organization with
// unread-mention badges.
func (m *Model) renderSidebar() string {
	if m.width < 60 {
		return "" // too narrow, main pane takes the full width
	}

	var b strings.Builder
	b.WriteString(sidebarHead.Render(m.orgName()))
	b.WriteString("\n\n")
	for _, channel := range m.channels {
		label := "#" + channel.Name
		if channel.ID == m.activeChannel {
			label = selectedStyle.Render(label)
		}
		if n := m.mentionCounts[channel.ID]; n > 0 {
			label += " " + badgeStyle.Render(strconv.Itoa(n))
		}
		b.WriteString(label)
		b.WriteString("\n")
	}
	if len(m.channels) == 0 {
		b.WriteString(statusStyle.Render("no channels"))
		b.WriteString("\n")
	}
	return sidebarStyle.Render(b.String())
}

func (m *Model) orgName() string {
	for _, org := range m.orgs {
		if org.ID == m.activeOrg {
			return org.Name
		}
	}
	return "loft"
}

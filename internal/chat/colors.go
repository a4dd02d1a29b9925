package chat

import (
	"hash/fnv"

	"github.com/charmbracelet/lipgloss"
)

const sidebarWidth = 24

var authorPalette = []lipgloss.Color{
	lipgloss.Color("111"),
	lipgloss.Color("157"),
	lipgloss.Color("216"),
	lipgloss.Color("36"),
	lipgloss.Color("183"),
	lipgloss.Color("230"),
}

var (
	statusStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	timeStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	pendingStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Italic(true)
	attachmentStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("109"))
	sidebarStyle     = lipgloss.NewStyle().Width(sidebarWidth).Foreground(lipgloss.Color("249"))
	sidebarHead      = lipgloss.NewStyle().Foreground(lipgloss.Color("243")).Bold(true)
	selectedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("215")).Bold(true)
	badgeStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("231")).Background(lipgloss.Color("160")).Padding(0, 1)
	pickerTitleStyle = lipgloss.NewStyle().Bold(true)
	suggestionStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("249"))
)

func colorForAuthor(author string) lipgloss.Color {
	h := fnv.New32a()
	_, _ = h.Write([]byte(author))
	return authorPalette[int(h.Sum32())%len(authorPalette)]
}

package chat

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/loftchat/loft/internal/blob"
	"github.com/loftchat/loft/internal/sanitize"
	"github.com/loftchat/loft/internal/types"
)

func (m *Model) renderMessages() string {
	if len(m.messages) == 0 {
		return statusStyle.Render("no messages yet")
	}
	var b strings.Builder
	for i, msg := range m.messages {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(renderMessage(msg, m.mainWidth()))
	}
	return b.String()
}

func renderMessage(msg types.Message, width int) string {
	author := lipgloss.NewStyle().Foreground(colorForAuthor(msg.Author)).Bold(true).Render(msg.Author)

	stamp := pendingStyle.Render("sending…")
	if msg.CreatedAt != nil {
		stamp = timeStyle.Render(humanize.Time(time.UnixMilli(*msg.CreatedAt)))
	}

	body := highlightCodeBlocks(sanitize.PlainText(msg.Text))
	if width > 4 {
		body = lipgloss.NewStyle().Width(width).Render(body)
	}

	lines := []string{author + " " + stamp, body}
	for _, att := range msg.Attachments {
		lines = append(lines, attachmentStyle.Render("⎘ "+att.Name+" ("+blob.FormatSize(att.Size)+")"))
	}
	return strings.Join(lines, "\n")
}

func contentHeight(content string) int {
	return lipgloss.Height(content)
}

package chat

import (
	"strings"

	"github.com/gen2brain/beeep"

	"github.com/loftchat/loft/internal/sanitize"
	"github.com/loftchat/loft/internal/types"
)

// notifyMention raises a desktop notification for a counted mention.
// Failures are ignored; a missing notification daemon is not an error
// worth surfacing in the UI.
func notifyMention(msg types.Message) {
	title := "@" + msg.Author
	body := truncateNotification(sanitize.PlainText(msg.Text), 100)
	_ = beeep.Notify(title, body, "")
}

func truncateNotification(s string, maxLen int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-1] + "…"
}

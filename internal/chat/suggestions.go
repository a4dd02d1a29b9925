package chat

import (
	"strings"
	"unicode"

	"github.com/loftchat/loft/internal/types"
)

const suggestionLimit = 6

type suggestionItem struct {
	Display string
	Insert  string
}

// refreshSuggestions rebuilds the @-mention completion list from the
// composer content around the cursor.
func (m *Model) refreshSuggestions() {
	value := m.input.Value()
	start, prefix, ok := mentionPrefix(value, m.inputCursorPos())
	if !ok {
		m.clearSuggestions()
		return
	}
	items := buildMentionSuggestions(m.directory, prefix)
	if len(items) == 0 {
		m.clearSuggestions()
		return
	}
	m.suggestions = items
	m.suggestionStart = start
	if m.suggestionIdx >= len(items) {
		m.suggestionIdx = 0
	}
}

func (m *Model) clearSuggestions() {
	m.suggestions = nil
	m.suggestionIdx = 0
	m.suggestionStart = 0
}

// acceptSuggestion replaces the @-prefix under the cursor with the
// selected username.
func (m *Model) acceptSuggestion() {
	if m.suggestionIdx < 0 || m.suggestionIdx >= len(m.suggestions) {
		return
	}
	item := m.suggestions[m.suggestionIdx]
	value := []rune(m.input.Value())
	pos := m.inputCursorPos()
	if m.suggestionStart > len(value) || pos > len(value) || m.suggestionStart > pos {
		m.clearSuggestions()
		return
	}
	next := string(value[:m.suggestionStart]) + item.Insert + " " + string(value[pos:])
	m.input.SetValue(next)
	m.input.CursorEnd()
	m.clearSuggestions()
	m.resize()
}

func (m *Model) renderSuggestions() string {
	if len(m.suggestions) == 0 {
		return ""
	}
	lines := make([]string, 0, len(m.suggestions))
	for i, item := range m.suggestions {
		line := "  " + item.Display
		if i == m.suggestionIdx {
			line = selectedStyle.Render("> " + item.Display)
		}
		lines = append(lines, suggestionStyle.Render(line))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) inputCursorPos() int {
	// The composer is effectively single-line; multiline values place
	// the cursor at the end after programmatic edits.
	return len([]rune(m.input.Value()))
}

// mentionPrefix finds an @-token ending at the cursor. The rune before
// the @ must not be alphanumeric, matching the detection rule used when
// counting mentions.
func mentionPrefix(value string, cursor int) (start int, prefix string, ok bool) {
	runes := []rune(value)
	if cursor > len(runes) {
		cursor = len(runes)
	}
	for i := cursor - 1; i >= 0; i-- {
		r := runes[i]
		if r == '@' {
			if i > 0 && (unicode.IsLetter(runes[i-1]) || unicode.IsDigit(runes[i-1])) {
				return 0, "", false
			}
			return i, strings.ToLower(string(runes[i+1 : cursor])), true
		}
		if unicode.IsSpace(r) {
			return 0, "", false
		}
	}
	return 0, "", false
}

func buildMentionSuggestions(directory []types.MentionableUser, prefix string) []suggestionItem {
	items := make([]suggestionItem, 0, suggestionLimit)
	for _, user := range directory {
		if !matchesMentionPrefix(user, prefix) {
			continue
		}
		display := "@" + user.Username + "  " + user.DisplayName
		items = append(items, suggestionItem{Display: display, Insert: "@" + user.Username})
		if len(items) >= suggestionLimit {
			break
		}
	}
	return items
}

func matchesMentionPrefix(user types.MentionableUser, prefix string) bool {
	if prefix == "" {
		return true
	}
	if strings.HasPrefix(user.Username, prefix) {
		return true
	}
	for _, alias := range user.Aliases {
		if strings.HasPrefix(alias, prefix) {
			return true
		}
	}
	return false
}

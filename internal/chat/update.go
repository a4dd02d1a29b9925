package chat

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/loftchat/loft/internal/sanitize"
	"github.com/loftchat/loft/internal/scroll"
	"github.com/loftchat/loft/internal/types"
)

type orgsLoadedMsg []types.Organization

type channelsLoadedMsg struct {
	orgID    string
	channels []types.Channel
}

type messagesLoadedMsg struct {
	channelID string
	messages  []types.Message
}

type mentionMsg struct {
	channelID string
	message   types.Message
}

type syncErrMsg struct{ err error }

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case tea.KeyMsg:
		return m.updateKey(msg)

	case orgsLoadedMsg:
		m.applyOrganizations(msg)
		return m, m.waitForEvent()

	case channelsLoadedMsg:
		if msg.orgID == m.activeOrg {
			m.applyChannels(msg.channels)
		}
		return m, m.waitForEvent()

	case messagesLoadedMsg:
		if msg.channelID == m.activeChannel {
			m.messages = msg.messages
			m.refreshViewport()
		}
		return m, m.waitForEvent()

	case mentionMsg:
		m.mentionCounts = m.sess.Tracker.Counts()
		if m.notify {
			notifyMention(msg.message)
		}
		return m, m.waitForEvent()

	case syncErrMsg:
		m.status = msg.err.Error()
		return m, m.waitForEvent()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.orgPickerOpen {
		return m.updateOrgPickerKey(msg)
	}

	switch msg.String() {
	case "ctrl+c", "esc":
		if len(m.suggestions) > 0 {
			m.clearSuggestions()
			return m, nil
		}
		return m, tea.Quit

	case "ctrl+o":
		if len(m.orgs) > 1 {
			m.orgPickerOpen = true
			m.orgPickerIdx = m.orgIndex()
		}
		return m, nil

	case "ctrl+n":
		m.cycleChannel(1)
		return m, nil

	case "ctrl+p":
		m.cycleChannel(-1)
		return m, nil

	case "up", "down":
		if len(m.suggestions) > 0 {
			if msg.String() == "up" {
				m.suggestionIdx--
			} else {
				m.suggestionIdx++
			}
			m.suggestionIdx = (m.suggestionIdx + len(m.suggestions)) % len(m.suggestions)
			return m, nil
		}

	case "tab":
		if len(m.suggestions) > 0 {
			m.acceptSuggestion()
			return m, nil
		}

	case "pgup":
		m.viewport.HalfViewUp()
		m.noteScroll()
		return m, nil

	case "pgdown":
		m.viewport.HalfViewDown()
		m.noteScroll()
		return m, nil

	case "enter":
		if len(m.suggestions) > 0 {
			m.acceptSuggestion()
			return m, nil
		}
		m.submit()
		return m, nil

	case "alt+enter":
		m.input.InsertString("\n")
		m.resize()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.refreshSuggestions()
	m.resize()
	return m, cmd
}

func (m *Model) updateOrgPickerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.orgPickerOpen = false
	case "up", "k":
		if m.orgPickerIdx > 0 {
			m.orgPickerIdx--
		}
	case "down", "j":
		if m.orgPickerIdx < len(m.orgs)-1 {
			m.orgPickerIdx++
		}
	case "enter":
		if m.orgPickerIdx >= 0 && m.orgPickerIdx < len(m.orgs) {
			m.setOrganization(m.orgs[m.orgPickerIdx].ID)
		}
		m.orgPickerOpen = false
	}
	return m, nil
}

func (m *Model) orgIndex() int {
	for i, org := range m.orgs {
		if org.ID == m.activeOrg {
			return i
		}
	}
	return 0
}

func (m *Model) cycleChannel(delta int) {
	if len(m.channels) == 0 {
		return
	}
	idx := 0
	for i, channel := range m.channels {
		if channel.ID == m.activeChannel {
			idx = i
			break
		}
	}
	idx = (idx + delta + len(m.channels)) % len(m.channels)
	m.setChannel(m.channels[idx].ID)
}

// submit sanitizes the composer content and stores the message.
func (m *Model) submit() {
	text := strings.TrimSpace(m.input.Value())
	if text == "" || m.activeChannel == "" {
		return
	}

	clean := sanitize.Sanitize(text)
	if clean == "" {
		m.input.Reset()
		m.clearSuggestions()
		return
	}
	msg := types.Message{
		ChannelID:       m.activeChannel,
		Text:            clean,
		Author:          m.sess.Identity.DisplayName,
		AuthorAvatarURL: m.sess.Identity.AvatarURL,
	}
	if _, err := m.sess.Store.CreateMessage(msg); err != nil {
		m.status = err.Error()
		return
	}
	m.status = ""
	m.input.Reset()
	m.clearSuggestions()
	m.resize()
}

// refreshViewport re-renders the message list and lets the scroll
// controller decide whether to pin to the bottom.
func (m *Model) refreshViewport() {
	m.mentionCounts = m.sess.Tracker.Counts()
	content := m.renderMessages()
	m.viewport.SetContent(content)

	decision := m.scroll.Observe(m.activeChannel, scroll.Viewport{
		Offset:        m.viewport.YOffset,
		ContentHeight: contentHeight(content),
		ViewHeight:    m.viewport.Height,
	}, m.messages, m.sess.Identity.DisplayName)
	if decision.ScrollToBottom {
		m.viewport.GotoBottom()
	}
}

// noteScroll records the reader's position after a manual scroll so the
// controller's follow state reflects where they actually are.
func (m *Model) noteScroll() {
	m.scroll.Observe(m.activeChannel, scroll.Viewport{
		Offset:        m.viewport.YOffset,
		ContentHeight: m.viewport.TotalLineCount(),
		ViewHeight:    m.viewport.Height,
	}, m.messages, m.sess.Identity.DisplayName)
}

func (m *Model) resize() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	inputHeight := strings.Count(m.input.Value(), "\n") + 1
	if inputHeight > 5 {
		inputHeight = 5
	}
	m.input.SetHeight(inputHeight)
	m.input.SetWidth(m.mainWidth())

	suggestionRows := len(m.suggestions)
	vpHeight := m.height - inputHeight - suggestionRows - 2 // status + margin
	if vpHeight < 1 {
		vpHeight = 1
	}
	m.viewport.Width = m.mainWidth()
	m.viewport.Height = vpHeight
	m.refreshViewport()
}

func (m *Model) mainWidth() int {
	width := m.width - sidebarWidth
	if width < 20 {
		width = m.width
	}
	return width
}

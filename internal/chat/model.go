// Package chat is the terminal UI: an organization/channel sidebar, a
// message viewport with autoscroll, a composer with @-mention
// suggestions, and unread-mention badges fed by the tracker.
package chat

import (
	"fmt"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/loftchat/loft/internal/mentions"
	"github.com/loftchat/loft/internal/realtime"
	"github.com/loftchat/loft/internal/scroll"
	"github.com/loftchat/loft/internal/selection"
	"github.com/loftchat/loft/internal/session"
	"github.com/loftchat/loft/internal/types"
)

// Options configure the chat UI.
type Options struct {
	Session *session.Session
	Notify  bool // desktop notifications for mentions
}

// Run starts the chat UI and blocks until the user quits.
func Run(opts Options) error {
	model := NewModel(opts)
	fmt.Printf("\033]0;%s\007", "loft") // window title

	program := tea.NewProgram(model, tea.WithAltScreen())
	_, err := program.Run()
	model.teardown()
	return err
}

// Model implements the chat UI.
type Model struct {
	sess   *session.Session
	notify bool

	viewport viewport.Model
	input    textarea.Model
	width    int
	height   int

	// events carries subscription callbacks onto the update loop. done
	// releases blocked senders once the UI stops draining.
	events chan tea.Msg
	done   chan struct{}

	orgs          []types.Organization
	channels      []types.Channel
	messages      []types.Message
	activeOrg     string
	activeChannel string
	orgPickerOpen bool
	orgPickerIdx  int
	mentionCounts map[string]int
	directory     []types.MentionableUser
	status        string

	scroll *scroll.Controller

	suggestions     []suggestionItem
	suggestionIdx   int
	suggestionStart int

	orgUnsub     realtime.Unsubscribe
	channelUnsub realtime.Unsubscribe
	messageUnsub realtime.Unsubscribe
}

// NewModel builds the model and wires the organization subscription.
// Channel and message subscriptions follow once the snapshots arrive.
func NewModel(opts Options) *Model {
	input := textarea.New()
	input.Placeholder = "message"
	input.Prompt = "> "
	input.ShowLineNumbers = false
	input.CharLimit = 0
	input.SetHeight(1)
	input.Focus()

	m := &Model{
		sess:          opts.Session,
		notify:        opts.Notify,
		viewport:      viewport.New(0, 0),
		input:         input,
		events:        make(chan tea.Msg, 64),
		done:          make(chan struct{}),
		mentionCounts: map[string]int{},
		scroll:        scroll.New(),
	}

	m.sess.Tracker.OnMention = func(channelID string, msg types.Message) {
		m.post(mentionMsg{channelID: channelID, message: msg})
	}
	m.orgUnsub = m.sess.Syncer.SubscribeOrganizations(m.sess.Identity.UID,
		func(orgs []types.Organization) { m.post(orgsLoadedMsg(orgs)) },
		func(err error) { m.post(syncErrMsg{err}) },
	)
	return m
}

// post hands a subscription callback to the update loop. It must never
// block forever: after teardown the syncer's Close waits for delivery
// goroutines, which may be parked right here.
func (m *Model) post(msg tea.Msg) {
	select {
	case m.events <- msg:
	case <-m.done:
	}
}

// Init starts the cursor blink and the event pump.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.waitForEvent())
}

func (m *Model) waitForEvent() tea.Cmd {
	return func() tea.Msg { return <-m.events }
}

func (m *Model) teardown() {
	close(m.done)
	if m.messageUnsub != nil {
		m.messageUnsub()
	}
	if m.channelUnsub != nil {
		m.channelUnsub()
	}
	if m.orgUnsub != nil {
		m.orgUnsub()
	}
}

// setOrganization switches the active organization: persists the choice,
// rescopes the tracker, and resubscribes the channel collection.
func (m *Model) setOrganization(orgID string) {
	if orgID == m.activeOrg && m.channelUnsub != nil {
		return
	}
	m.activeOrg = orgID
	m.channels = nil
	m.setChannel("")
	_ = m.sess.Prefs.PersistOrganization(m.sess.Identity.UID, orgID)
	m.sess.Tracker.SetActiveOrganization(orgID)
	m.refreshDirectory()

	if m.channelUnsub != nil {
		m.channelUnsub()
		m.channelUnsub = nil
	}
	if orgID == "" {
		return
	}
	id := orgID
	m.channelUnsub = m.sess.Syncer.SubscribeChannels(id,
		func(channels []types.Channel) { m.post(channelsLoadedMsg{orgID: id, channels: channels}) },
		func(err error) { m.post(syncErrMsg{err}) },
	)
}

// setChannel switches the active channel and resubscribes messages.
func (m *Model) setChannel(channelID string) {
	if channelID == m.activeChannel && m.messageUnsub != nil {
		return
	}
	m.activeChannel = channelID
	m.messages = nil
	m.sess.Tracker.ActivateChannel(channelID)
	delete(m.mentionCounts, channelID)
	if m.activeOrg != "" {
		_ = m.sess.Prefs.PersistChannel(m.sess.Identity.UID, m.activeOrg, channelID)
	}

	if m.messageUnsub != nil {
		m.messageUnsub()
		m.messageUnsub = nil
	}
	if channelID == "" {
		return
	}
	id := channelID
	m.messageUnsub = m.sess.Syncer.SubscribeMessages(id,
		func(msgs []types.Message) { m.post(messagesLoadedMsg{channelID: id, messages: msgs}) },
		func(err error) { m.post(syncErrMsg{err}) },
	)
}

func (m *Model) refreshDirectory() {
	m.directory = nil
	if m.activeOrg == "" {
		return
	}
	users, err := mentions.Directory(m.sess.Store, m.activeOrg, m.sess.Identity.UID)
	if err != nil {
		m.status = err.Error()
		return
	}
	m.directory = users
}

// applyOrganizations reconciles the active organization against a fresh
// snapshot, preferring the current choice, then the persisted one.
func (m *Model) applyOrganizations(orgs []types.Organization) {
	m.orgs = orgs
	persisted, _ := m.sess.Prefs.RestoreOrganization(m.sess.Identity.UID)
	orgID, showPicker := selection.ResolveOrganization(m.activeOrg, persisted, orgs)
	if showPicker && !m.orgPickerOpen {
		m.orgPickerOpen = true
		m.orgPickerIdx = 0
	}
	m.setOrganization(orgID)
}

// applyChannels reconciles the active channel against a fresh snapshot
// and hands the tracker the channel set to watch.
func (m *Model) applyChannels(channels []types.Channel) {
	m.channels = channels
	m.sess.Tracker.SetChannels(channels)
	persisted, _ := m.sess.Prefs.RestoreChannel(m.sess.Identity.UID, m.activeOrg)
	m.setChannel(selection.ResolveChannel(m.activeChannel, persisted, channels))
}

// Package mentions watches channel message tails and keeps per-channel
// unread-mention counts for the signed-in user.
package mentions

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/loftchat/loft/internal/handle"
	"github.com/loftchat/loft/internal/realtime"
	"github.com/loftchat/loft/internal/sanitize"
	"github.com/loftchat/loft/internal/store"
	"github.com/loftchat/loft/internal/types"
)

// Tracker owns the per-channel tail watchers and the unread-mention
// count map for one session. Construct it per signed-in user and Close
// it on sign-out; it keeps no package-level state.
type Tracker struct {
	store  *store.Store
	syncer *realtime.Syncer
	logf   func(format string, args ...any)

	// OnMention, when set, fires for every counted mention. Used for
	// desktop notifications; called outside the tracker lock.
	OnMention func(channelID string, msg types.Message)

	mu            sync.Mutex
	viewerName    string
	viewerHandle  handle.Handle
	hasHandle     bool
	activeOrg     string
	activeChannel string
	counts        map[string]int
	watchers      map[string]realtime.Unsubscribe
	closed        bool
}

// NewTracker creates a tracker over the session's store and syncer.
func NewTracker(st *store.Store, syncer *realtime.Syncer) *Tracker {
	return &Tracker{
		store:    st,
		syncer:   syncer,
		logf:     func(format string, args ...any) { fmt.Fprintf(os.Stderr, "[mentions] "+format+"\n", args...) },
		counts:   map[string]int{},
		watchers: map[string]realtime.Unsubscribe{},
	}
}

// Close tears down every watcher. Safe to call more than once.
func (t *Tracker) Close() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	watchers := t.watchers
	t.watchers = map[string]realtime.Unsubscribe{}
	t.counts = map[string]int{}
	t.mu.Unlock()

	for _, unsub := range watchers {
		// Entries reserved by an in-flight SetChannels are nil until
		// their subscription lands.
		if unsub != nil {
			unsub()
		}
	}
}

// SetViewer updates the viewer identity from their profile. When the
// derived handle becomes available for the first time or changes, all
// counts are discarded: they were computed under a different identity.
func (t *Tracker) SetViewer(profile types.Profile) {
	h, ok := handle.Derive(profile.DisplayName, handle.EmailLocalPart(profile.Email))

	t.mu.Lock()
	changed := ok != t.hasHandle || (ok && h.Primary != t.viewerHandle.Primary)
	t.viewerName = profile.DisplayName
	t.viewerHandle = h
	t.hasHandle = ok
	if changed {
		t.counts = map[string]int{}
	}
	teardown := !ok
	t.mu.Unlock()

	if teardown {
		t.SetChannels(nil)
	}
}

// SetActiveOrganization switches the organization scope. All counts
// clear; SetChannels re-seeds the watcher set from the new channel
// list.
func (t *Tracker) SetActiveOrganization(orgID string) {
	t.mu.Lock()
	if t.activeOrg != orgID {
		t.activeOrg = orgID
		t.activeChannel = ""
		t.counts = map[string]int{}
	}
	t.mu.Unlock()
}

// ActivateChannel marks the channel the viewer is looking at. Its count
// clears; mentions arriving in the active channel are never counted.
func (t *Tracker) ActivateChannel(channelID string) {
	t.mu.Lock()
	t.activeChannel = channelID
	delete(t.counts, channelID)
	t.mu.Unlock()
}

// SetChannels reconciles tail watchers against the current channel
// list: new channels gain a watcher starting at their current log end,
// vanished channels lose theirs (and their count). With no usable
// viewer handle every watcher is torn down.
func (t *Tracker) SetChannels(channels []types.Channel) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}

	wanted := map[string]bool{}
	if t.hasHandle {
		for _, channel := range channels {
			wanted[channel.ID] = true
		}
	}

	var stopped []realtime.Unsubscribe
	for id, unsub := range t.watchers {
		if !wanted[id] {
			if unsub != nil {
				stopped = append(stopped, unsub)
			}
			delete(t.watchers, id)
			delete(t.counts, id)
		}
	}

	var started []string
	for id := range wanted {
		if _, ok := t.watchers[id]; !ok {
			started = append(started, id)
			t.watchers[id] = nil // reserved; filled below outside the lock
		}
	}
	t.mu.Unlock()

	for _, unsub := range stopped {
		unsub()
	}
	for _, channelID := range started {
		id := channelID
		unsub := t.syncer.SubscribeMessageTail(id, func(msgs []types.Message) {
			for _, msg := range msgs {
				t.observe(id, msg)
			}
		}, func(err error) {
			t.logf("watch %s: %v", id, err)
		})
		t.mu.Lock()
		if _, still := t.watchers[id]; still && !t.closed {
			t.watchers[id] = unsub
			t.mu.Unlock()
			continue
		}
		t.mu.Unlock()
		unsub() // torn down while we were subscribing
	}
}

// Counts returns a copy of the unread-mention count map.
func (t *Tracker) Counts() map[string]int {
	t.mu.Lock()
	defer t.mu.Unlock()
	counts := make(map[string]int, len(t.counts))
	for id, n := range t.counts {
		counts[id] = n
	}
	return counts
}

// observe runs the mention detector for one tailed message.
func (t *Tracker) observe(channelID string, msg types.Message) {
	t.mu.Lock()
	if t.closed || !t.hasHandle {
		t.mu.Unlock()
		return
	}
	viewerName := t.viewerName
	viewerHandle := t.viewerHandle
	active := t.activeChannel
	t.mu.Unlock()

	// Self-authored messages never count as mentions of oneself.
	if strings.EqualFold(strings.TrimSpace(msg.Author), strings.TrimSpace(viewerName)) {
		return
	}

	matched := false
	for _, token := range handle.ExtractTokens(sanitize.PlainText(msg.Text)) {
		if viewerHandle.Matches(token) {
			matched = true
			break
		}
	}
	if !matched || channelID == active {
		return
	}

	t.mu.Lock()
	if t.closed || channelID == t.activeChannel {
		t.mu.Unlock()
		return
	}
	t.counts[channelID]++
	t.mu.Unlock()

	if t.OnMention != nil {
		t.OnMention(channelID, msg)
	}
}

// Directory derives the mentionable-user list for an organization.
// excludeUID trims the viewer from their own suggestion list; pass ""
// for the full matching directory.
func Directory(st *store.Store, orgID, excludeUID string) ([]types.MentionableUser, error) {
	org, err := st.GetOrganization(orgID)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, nil
	}
	profiles, err := st.GetProfiles(org.Members)
	if err != nil {
		return nil, err
	}
	return handle.MentionableUsers(profiles, excludeUID), nil
}

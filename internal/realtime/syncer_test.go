package realtime

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/loftchat/loft/internal/store"
	"github.com/loftchat/loft/internal/types"
)

func openTestSyncer(t *testing.T) (*store.Store, *Syncer) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "loft.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	s, err := New(st)
	if err != nil {
		t.Fatalf("new syncer: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
		_ = st.Close()
	})
	return st, s
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

type snapshotLog[T any] struct {
	mu        sync.Mutex
	snapshots [][]T
}

func (l *snapshotLog[T]) add(items []T) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.snapshots = append(l.snapshots, items)
}

func (l *snapshotLog[T]) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.snapshots)
}

func (l *snapshotLog[T]) last() []T {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.snapshots) == 0 {
		return nil
	}
	return l.snapshots[len(l.snapshots)-1]
}

func TestSubscribeDeliversInitialSnapshot(t *testing.T) {
	st, s := openTestSyncer(t)
	org, err := st.CreateOrganization("acme", "u1")
	if err != nil {
		t.Fatalf("create org: %v", err)
	}

	var log snapshotLog[types.Organization]
	unsub := s.SubscribeOrganizations("u1", log.add, nil)
	defer unsub()

	waitFor(t, "initial snapshot", func() bool { return log.count() >= 1 })
	got := log.last()
	if len(got) != 1 || got[0].ID != org.ID {
		t.Fatalf("initial snapshot = %v", got)
	}
}

func TestSubscribeDeliversOnChange(t *testing.T) {
	st, s := openTestSyncer(t)
	org, err := st.CreateOrganization("acme", "u1")
	if err != nil {
		t.Fatalf("create org: %v", err)
	}

	var log snapshotLog[types.Channel]
	unsub := s.SubscribeChannels(org.ID, log.add, nil)
	defer unsub()

	waitFor(t, "initial snapshot", func() bool { return log.count() >= 1 })
	if len(log.last()) != 0 {
		t.Fatalf("expected empty channel list, got %v", log.last())
	}

	channel, err := st.CreateChannel(org.ID, "general", nil, "u1")
	if err != nil {
		t.Fatalf("create channel: %v", err)
	}
	waitFor(t, "channel snapshot", func() bool {
		last := log.last()
		return len(last) == 1 && last[0].ID == channel.ID
	})
}

func TestUnsubscribeStopsDeliveryAndIsIdempotent(t *testing.T) {
	st, s := openTestSyncer(t)
	org, err := st.CreateOrganization("acme", "u1")
	if err != nil {
		t.Fatalf("create org: %v", err)
	}

	var log snapshotLog[types.Channel]
	unsub := s.SubscribeChannels(org.ID, log.add, nil)
	waitFor(t, "initial snapshot", func() bool { return log.count() >= 1 })

	unsub()
	unsub() // must be safe to call again

	before := log.count()
	if _, err := st.CreateChannel(org.ID, "general", nil, "u1"); err != nil {
		t.Fatalf("create channel: %v", err)
	}
	time.Sleep(4 * debounceInterval)
	if log.count() != before {
		t.Errorf("snapshots delivered after unsubscribe: %d -> %d", before, log.count())
	}
}

func TestConcurrentSubscriptionsNoCrossTalk(t *testing.T) {
	st, s := openTestSyncer(t)
	org, err := st.CreateOrganization("acme", "u1")
	if err != nil {
		t.Fatalf("create org: %v", err)
	}
	chanA, err := st.CreateChannel(org.ID, "alpha", nil, "u1")
	if err != nil {
		t.Fatalf("create channel: %v", err)
	}
	chanB, err := st.CreateChannel(org.ID, "beta", nil, "u1")
	if err != nil {
		t.Fatalf("create channel: %v", err)
	}

	var logA, logB snapshotLog[types.Message]
	unsubA := s.SubscribeMessages(chanA.ID, logA.add, nil)
	defer unsubA()
	unsubB := s.SubscribeMessages(chanB.ID, logB.add, nil)
	defer unsubB()

	if _, err := st.CreateMessage(types.Message{ChannelID: chanA.ID, Text: "only in A", Author: "ada"}); err != nil {
		t.Fatalf("create message: %v", err)
	}

	waitFor(t, "message in A", func() bool { return len(logA.last()) == 1 })
	for _, msg := range logB.last() {
		if msg.ChannelID != chanB.ID {
			t.Fatalf("cross-talk: channel B snapshot contains %+v", msg)
		}
	}
}

func TestSubscriptionErrorCallback(t *testing.T) {
	st, s := openTestSyncer(t)
	org, err := st.CreateOrganization("acme", "u1")
	if err != nil {
		t.Fatalf("create org: %v", err)
	}

	var log snapshotLog[types.Channel]
	errs := make(chan error, 8)
	unsub := s.SubscribeChannels(org.ID, log.add, func(err error) { errs <- err })
	defer unsub()
	waitFor(t, "initial snapshot", func() bool { return log.count() >= 1 })

	// Break the channel query, then trigger a dispatch with an
	// unrelated write.
	if _, err := st.DB().Exec("DROP TABLE loft_channels"); err != nil {
		t.Fatalf("drop table: %v", err)
	}
	if _, err := st.CreateOrganization("other", "u1"); err != nil {
		t.Fatalf("create org: %v", err)
	}

	select {
	case <-errs:
	case <-time.After(5 * time.Second):
		t.Fatal("error callback never invoked")
	}
}

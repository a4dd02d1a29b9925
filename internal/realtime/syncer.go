// Package realtime delivers full, ordered snapshots of store collections to
// subscribers whenever the underlying data changes. Changes are picked
// up from in-process write hooks and, for writes from other processes,
// from a filesystem watch on the database.
package realtime

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/loftchat/loft/internal/store"
	"github.com/loftchat/loft/internal/types"
)

const debounceInterval = 100 * time.Millisecond

// Unsubscribe tears down one subscription. Safe to call more than once
// and after the syncer is closed; no new deliveries start after it
// returns.
type Unsubscribe func()

// Syncer fans store changes out to any number of independent
// subscriptions.
type Syncer struct {
	store *store.Store
	logf  func(format string, args ...any)

	mu       sync.Mutex
	subs     map[int64]*subscription
	nextID   int64
	lastSeq  int64
	debounce *time.Timer
	closed   bool

	watcher *fsnotify.Watcher
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// New creates a syncer over the given store and starts watching for
// changes.
func New(st *store.Store) (*Syncer, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("realtime: %w", err)
	}
	if err := watcher.Add(filepath.Dir(st.Path())); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("realtime: %w", err)
	}

	s := &Syncer{
		store:   st,
		logf:    func(format string, args ...any) { fmt.Fprintf(os.Stderr, "[sync] "+format+"\n", args...) },
		subs:    map[int64]*subscription{},
		watcher: watcher,
		stopCh:  make(chan struct{}),
	}
	st.AddChangeHook(s.kick)

	s.wg.Add(1)
	go s.watchLoop()
	return s, nil
}

// Close stops the watcher and tears down every remaining subscription.
func (s *Syncer) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	if s.debounce != nil {
		s.debounce.Stop()
	}
	subs := make([]*subscription, 0, len(s.subs))
	for _, sub := range s.subs {
		subs = append(subs, sub)
	}
	s.subs = map[int64]*subscription{}
	s.mu.Unlock()

	close(s.stopCh)
	_ = s.watcher.Close()
	for _, sub := range subs {
		sub.stop()
	}
	s.wg.Wait()
}

func (s *Syncer) watchLoop() {
	defer s.wg.Done()
	base := filepath.Base(s.store.Path())
	for {
		select {
		case <-s.stopCh:
			return
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			// The WAL and journal companions change on commit too.
			if !strings.HasPrefix(filepath.Base(event.Name), base) {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				s.kick()
			}
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.logf("watch error: %v", err)
		}
	}
}

// kick schedules a debounced dispatch. Bursts of writes coalesce into
// one snapshot per subscription.
func (s *Syncer) kick() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if s.debounce != nil {
		s.debounce.Stop()
	}
	s.debounce = time.AfterFunc(debounceInterval, s.dispatch)
}

// dispatch wakes every subscription when the store sequence advanced.
func (s *Syncer) dispatch() {
	seq, err := s.store.Seq()
	if err != nil {
		s.logf("read seq: %v", err)
		return
	}

	s.mu.Lock()
	if s.closed || seq == s.lastSeq {
		s.mu.Unlock()
		return
	}
	s.lastSeq = seq
	subs := make([]*subscription, 0, len(s.subs))
	for _, sub := range s.subs {
		subs = append(subs, sub)
	}
	s.mu.Unlock()

	for _, sub := range subs {
		sub.wake()
	}
}

// SubscribeOrganizations delivers the user's organizations,
// alphabetical by name, on every change.
func (s *Syncer) SubscribeOrganizations(uid string, onUpdate func([]types.Organization), onError func(error)) Unsubscribe {
	return subscribe(s, func() ([]types.Organization, error) {
		return s.store.ListOrganizations(uid)
	}, onUpdate, onError)
}

// SubscribeChannels delivers an organization's channels in creation
// order (undated after dated) on every change.
func (s *Syncer) SubscribeChannels(orgID string, onUpdate func([]types.Channel), onError func(error)) Unsubscribe {
	return subscribe(s, func() ([]types.Channel, error) {
		return s.store.ListChannels(orgID)
	}, onUpdate, onError)
}

// SubscribeMessages delivers a channel's messages ascending by creation
// time on every change.
func (s *Syncer) SubscribeMessages(channelID string, onUpdate func([]types.Message), onError func(error)) Unsubscribe {
	return subscribe(s, func() ([]types.Message, error) {
		return s.store.ListMessages(channelID, 0)
	}, onUpdate, onError)
}

type subscription struct {
	wakeCh  chan struct{}
	doneCh  chan struct{}
	stopped atomic.Bool
	once    sync.Once
}

func (sub *subscription) wake() {
	select {
	case sub.wakeCh <- struct{}{}:
	default: // already pending; snapshots coalesce
	}
}

func (sub *subscription) stop() {
	sub.once.Do(func() {
		sub.stopped.Store(true)
		close(sub.doneCh)
	})
}

// subscribe registers a snapshot query and starts the delivery
// goroutine. Each subscription delivers in order on its own goroutine;
// independent subscriptions interleave freely.
func subscribe[T any](s *Syncer, query func() ([]T, error), onUpdate func([]T), onError func(error)) Unsubscribe {
	sub := &subscription{
		wakeCh: make(chan struct{}, 1),
		doneCh: make(chan struct{}),
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		sub.stop()
		return func() {}
	}
	s.nextID++
	id := s.nextID
	s.subs[id] = sub
	s.mu.Unlock()

	deliver := func() {
		if sub.stopped.Load() {
			return
		}
		items, err := query()
		if sub.stopped.Load() {
			return
		}
		if err != nil {
			if onError != nil {
				onError(err)
				return
			}
			s.logf("subscription query: %v", err)
			return
		}
		onUpdate(items)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		deliver() // initial snapshot
		for {
			select {
			case <-sub.doneCh:
				return
			case <-sub.wakeCh:
				deliver()
			}
		}
	}()

	return func() {
		sub.stop()
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

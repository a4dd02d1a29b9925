package realtime

import (
	"github.com/loftchat/loft/internal/types"
)

// SubscribeMessageTail watches one channel's message log strictly from
// the current end: history present at subscribe time is never
// delivered, only messages appended afterwards. This is the feed for
// unread-mention detection, decoupled from SubscribeMessages so
// catch-up snapshots are never double-counted.
func (s *Syncer) SubscribeMessageTail(channelID string, onNew func([]types.Message), onError func(error)) Unsubscribe {
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

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		pos, err := s.store.LatestLogPosition(channelID)
		if err != nil {
			if onError != nil {
				onError(err)
			} else {
				s.logf("tail %s: %v", channelID, err)
			}
			return
		}

		for {
			select {
			case <-sub.doneCh:
				return
			case <-sub.wakeCh:
			}
			if sub.stopped.Load() {
				return
			}
			newer, next, err := s.store.MessagesSince(channelID, pos)
			if sub.stopped.Load() {
				return
			}
			if err != nil {
				if onError != nil {
					onError(err)
				} else {
					s.logf("tail %s: %v", channelID, err)
				}
				continue
			}
			pos = next
			if len(newer) > 0 {
				onNew(newer)
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

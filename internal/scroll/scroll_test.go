package scroll

import (
	"testing"

	"github.com/loftchat/loft/internal/types"
)

func msgs(authors ...string) []types.Message {
	out := make([]types.Message, len(authors))
	for i, author := range authors {
		out[i] = types.Message{ID: string(rune('a' + i)), Author: author}
	}
	return out
}

// bottomView is a viewport resting at the true bottom.
func bottomView(content, view int) Viewport {
	return Viewport{Offset: content - view, ContentHeight: content, ViewHeight: view}
}

func TestChannelSwitchForcesJump(t *testing.T) {
	c := New()
	c.Observe("chn-a", bottomView(100, 20), msgs("ada"), "viewer")

	// Scrolled far up in chn-a, then switch to chn-b.
	d := c.Observe("chn-b", Viewport{Offset: 0, ContentHeight: 100, ViewHeight: 20}, msgs("bob"), "viewer")
	if !d.ScrollToBottom || d.Smooth || !d.Following {
		t.Fatalf("channel switch decision = %+v", d)
	}
}

func TestNewMessageWhileFollowing(t *testing.T) {
	c := New()
	c.Observe("chn-a", bottomView(100, 20), msgs("ada"), "viewer")

	d := c.Observe("chn-a", bottomView(105, 20), msgs("ada", "bob"), "viewer")
	if !d.ScrollToBottom || !d.Smooth {
		t.Fatalf("expected smooth follow, got %+v", d)
	}
}

func TestNewMessageWhileReadingHistory(t *testing.T) {
	c := New()
	c.Observe("chn-a", bottomView(100, 20), msgs("ada"), "viewer")

	// Reader scrolls up (no-append observation), then someone posts.
	c.Observe("chn-a", Viewport{Offset: 10, ContentHeight: 100, ViewHeight: 20}, msgs("ada"), "viewer")
	up := Viewport{Offset: 10, ContentHeight: 105, ViewHeight: 20}
	d := c.Observe("chn-a", up, msgs("ada", "bob"), "viewer")
	if d.ScrollToBottom {
		t.Fatalf("must not yank the reader down: %+v", d)
	}
	if d.Following {
		t.Error("should not be following while scrolled up")
	}
}

func TestTallMessageWhileFollowing(t *testing.T) {
	c := New()
	c.Observe("chn-a", bottomView(100, 20), msgs("ada"), "viewer")

	// A multi-row message lands: the offset still points at the old
	// bottom, now beyond the threshold against the grown content. The
	// follower must be carried down regardless.
	stale := Viewport{Offset: 80, ContentHeight: 105, ViewHeight: 20}
	d := c.Observe("chn-a", stale, msgs("ada", "bob"), "viewer")
	if !d.ScrollToBottom || !d.Smooth || !d.Following {
		t.Fatalf("follower dropped by tall arrival: %+v", d)
	}
}

func TestOwnMessageOverridesHistoryReading(t *testing.T) {
	c := New()
	c.Observe("chn-a", bottomView(100, 20), msgs("ada"), "Viewer")

	c.Observe("chn-a", Viewport{Offset: 10, ContentHeight: 100, ViewHeight: 20}, msgs("ada"), "Viewer")
	up := Viewport{Offset: 10, ContentHeight: 105, ViewHeight: 20}
	d := c.Observe("chn-a", up, msgs("ada", "  viewer "), "Viewer")
	if !d.ScrollToBottom || !d.Following {
		t.Fatalf("own message must force scroll: %+v", d)
	}
}

func TestOwnOldMessageDoesNotForceScroll(t *testing.T) {
	c := New()
	// Viewer's message is already in the list when watching starts.
	c.Observe("chn-a", bottomView(100, 20), msgs("viewer"), "viewer")

	c.Observe("chn-a", Viewport{Offset: 0, ContentHeight: 100, ViewHeight: 20}, msgs("viewer"), "viewer")
	up := Viewport{Offset: 0, ContentHeight: 105, ViewHeight: 20}
	d := c.Observe("chn-a", up, msgs("viewer", "bob"), "viewer")
	if d.ScrollToBottom {
		t.Fatalf("only newly appended own messages count: %+v", d)
	}
}

func TestNearBottomThreshold(t *testing.T) {
	c := New()
	tests := []struct {
		name string
		v    Viewport
		want bool
	}{
		{name: "exact bottom", v: Viewport{Offset: 80, ContentHeight: 100, ViewHeight: 20}, want: true},
		{name: "within threshold", v: Viewport{Offset: 78, ContentHeight: 100, ViewHeight: 20}, want: true},
		{name: "beyond threshold", v: Viewport{Offset: 50, ContentHeight: 100, ViewHeight: 20}, want: false},
		{name: "content shorter than view", v: Viewport{Offset: 0, ContentHeight: 10, ViewHeight: 20}, want: true},
		{name: "zero view height", v: Viewport{}, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.NearBottom(tt.v); got != tt.want {
				t.Errorf("NearBottom(%+v) = %v, want %v", tt.v, got, tt.want)
			}
		})
	}
}

func TestRefollowAfterScrollingBack(t *testing.T) {
	c := New()
	c.Observe("chn-a", bottomView(100, 20), msgs("ada"), "viewer")

	// Scroll up, miss a message.
	c.Observe("chn-a", Viewport{Offset: 0, ContentHeight: 100, ViewHeight: 20}, msgs("ada"), "viewer")
	up := Viewport{Offset: 0, ContentHeight: 105, ViewHeight: 20}
	c.Observe("chn-a", up, msgs("ada", "bob"), "viewer")

	// Reader scrolls back down; the next arrival follows again.
	c.Observe("chn-a", bottomView(105, 20), msgs("ada", "bob"), "viewer")
	d := c.Observe("chn-a", bottomView(110, 20), msgs("ada", "bob", "carol"), "viewer")
	if !d.ScrollToBottom || !d.Smooth {
		t.Fatalf("expected follow after returning to bottom: %+v", d)
	}
}

// Package scroll decides when the message view should follow new
// arrivals and when it should preserve the reader's position.
package scroll

import (
	"strings"

	"github.com/loftchat/loft/internal/types"
)

// DefaultBottomThreshold is how close to the true bottom (in rows) the
// view can be while still counting as "at the bottom".
const DefaultBottomThreshold = 3

// Viewport describes the scrollable container at observation time.
type Viewport struct {
	Offset        int // rows scrolled from the top
	ContentHeight int
	ViewHeight    int
}

// Decision is the controller's verdict after a message-list update.
type Decision struct {
	ScrollToBottom bool
	Smooth         bool // smooth-scroll vs. jump
	Following      bool
}

// Controller tracks per-channel follow state across updates. Not safe
// for concurrent use; drive it from the UI loop.
type Controller struct {
	Threshold int

	channelID string
	lastCount int
	following bool
}

// New creates a controller with the default bottom threshold.
func New() *Controller {
	return &Controller{Threshold: DefaultBottomThreshold}
}

// NearBottom reports whether the viewport is within the threshold of
// the true bottom.
func (c *Controller) NearBottom(v Viewport) bool {
	if v.ViewHeight <= 0 {
		return true
	}
	maxOffset := v.ContentHeight - v.ViewHeight
	if maxOffset < 0 {
		maxOffset = 0
	}
	return v.Offset >= maxOffset-c.Threshold
}

// Observe updates the controller with the current viewport and message
// list and returns the scroll decision.
//
// Switching channels always jumps to the bottom and marks the view as
// following. Within a channel, new arrivals smooth-scroll while
// following; a reader who scrolled up is left alone, unless one of the
// appended messages is their own, which forces a jump and re-follows.
//
// Observations that append messages carry an offset measured against
// the already-grown content, so a tall arrival can push a followed
// bottom past the threshold. The stored follow state decides there;
// position checks belong to no-append observations, which callers
// issue when the reader scrolls.
func (c *Controller) Observe(channelID string, v Viewport, msgs []types.Message, viewerName string) Decision {
	if channelID != c.channelID {
		c.channelID = channelID
		c.lastCount = len(msgs)
		c.following = true
		return Decision{ScrollToBottom: true, Smooth: false, Following: true}
	}

	appended := msgs
	if c.lastCount <= len(msgs) {
		appended = msgs[c.lastCount:]
	}
	c.lastCount = len(msgs)

	atBottom := c.NearBottom(v)
	if len(appended) == 0 {
		c.following = atBottom
		return Decision{Following: c.following}
	}

	switch {
	case c.following || atBottom:
		c.following = true
		return Decision{ScrollToBottom: true, Smooth: true, Following: true}
	case authoredBy(appended, viewerName):
		c.following = true
		return Decision{ScrollToBottom: true, Smooth: false, Following: true}
	default:
		return Decision{Following: false}
	}
}

func authoredBy(msgs []types.Message, viewerName string) bool {
	viewer := strings.TrimSpace(viewerName)
	if viewer == "" {
		return false
	}
	for _, msg := range msgs {
		if strings.EqualFold(strings.TrimSpace(msg.Author), viewer) {
			return true
		}
	}
	return false
}

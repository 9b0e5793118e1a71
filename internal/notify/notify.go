// Package notify holds the single error toast shown at the bottom of the screen.
package notify

import "time"

const DismissAfter = 5 * time.Second

// Timer dismisses the message with the same sequence number.
type Timer struct {
	Seq   uint64
	Delay time.Duration
}

// Channel holds at most one message. A new message replaces the current one;
// nothing is queued.
type Channel struct {
	message string
	visible bool
	seq     uint64
}

func New() *Channel {
	return &Channel{}
}

func (c *Channel) Notify(message string) Timer {
	c.seq++
	c.message = message
	c.visible = true
	return Timer{Seq: c.seq, Delay: DismissAfter}
}

// Dismiss hides the message only if t belongs to it.
func (c *Channel) Dismiss(t Timer) bool {
	if !c.visible || t.Seq != c.seq {
		return false
	}
	c.visible = false
	c.message = ""
	return true
}

// Current returns the visible message, if any.
func (c *Channel) Current() (string, bool) {
	return c.message, c.visible
}

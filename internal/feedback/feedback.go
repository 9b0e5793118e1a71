// Package feedback tracks the transient "copied" overlays shown on result
// cards. It schedules nothing itself: callers turn each returned Timer into
// a tick and hand it back to Expire when it fires.
package feedback

import "time"

const (
	DisplayDuration = 1500 * time.Millisecond
	FadeDuration    = 200 * time.Millisecond
)

type Phase int

const (
	PhaseNone Phase = iota
	PhaseVisible
	PhaseFading
)

// Timer identifies one scheduled phase change. A timer whose token no longer
// matches its node's overlay is stale and does nothing.
type Timer struct {
	NodeID int
	Token  uint64
	Delay  time.Duration
}

type overlay struct {
	token uint64
	phase Phase
}

type Presenter struct {
	overlays map[int]*overlay
	seq      uint64
}

func New() *Presenter {
	return &Presenter{overlays: make(map[int]*overlay)}
}

// Show attaches an overlay to the node. If one is already active its
// lifetime restarts instead of stacking a second overlay.
func (p *Presenter) Show(nodeID int) Timer {
	o, ok := p.overlays[nodeID]
	if !ok {
		o = &overlay{}
		p.overlays[nodeID] = o
	}
	o.phase = PhaseVisible
	o.token = p.nextToken()

	return Timer{NodeID: nodeID, Token: o.token, Delay: DisplayDuration}
}

// Expire advances the overlay the timer belongs to. It returns the fade
// timer when the overlay starts fading; after the fade the overlay is gone.
func (p *Presenter) Expire(t Timer) (Timer, bool) {
	o, ok := p.overlays[t.NodeID]
	if !ok || o.token != t.Token {
		return Timer{}, false
	}

	switch o.phase {
	case PhaseVisible:
		o.phase = PhaseFading
		o.token = p.nextToken()
		return Timer{NodeID: t.NodeID, Token: o.token, Delay: FadeDuration}, true
	default:
		delete(p.overlays, t.NodeID)
		return Timer{}, false
	}
}

// Detach drops the node's overlay, turning any pending timer for it into a
// no-op. Safe on nodes without an overlay.
func (p *Presenter) Detach(nodeID int) {
	delete(p.overlays, nodeID)
}

func (p *Presenter) Phase(nodeID int) Phase {
	if o, ok := p.overlays[nodeID]; ok {
		return o.phase
	}
	return PhaseNone
}

func (p *Presenter) nextToken() uint64 {
	p.seq++
	return p.seq
}

// Package render turns a result set into cards and wires each card's
// activation to the clipboard, the copy overlay and the notifier.
package render

import (
	"fmt"
	"math"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/mgomes/emofind/internal/clipboard"
	"github.com/mgomes/emofind/internal/feedback"
	"github.com/mgomes/emofind/internal/notify"
	"github.com/mgomes/emofind/internal/search"
)

const (
	StaggerDelay      = 50 * time.Millisecond
	CopyFailedMessage = "Failed to copy to clipboard"
)

type Node struct {
	ID       int
	Index    int
	Payload  string
	Label    string
	Category string
	Badge    string
	HasBadge bool
	Delay    time.Duration
}

// Badge formats a relevance score as a rounded percentage. A missing score
// has no badge at all; a score of exactly 0 is present and shows 0%.
func Badge(score *float64) (string, bool) {
	if score == nil {
		return "", false
	}
	return fmt.Sprintf("%d%%", int(math.Round(*score*100))), true
}

// Truncate shortens s to fit width terminal cells.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return runewidth.Truncate(s, width, "…")
}

type CopyResult struct {
	NodeID int
	Err    error
}

// Outcome is what a finished copy produced: an overlay timer on success or a
// notification timer on failure. Both are nil when the node is gone.
type Outcome struct {
	Feedback *feedback.Timer
	Notice   *notify.Timer
}

type Renderer struct {
	clip     clipboard.Writer
	overlays *feedback.Presenter
	notifier *notify.Channel

	query      string
	nodes      []Node
	byID       map[int]int
	nextID     int
	generation int
	revealed   int
}

func New(clip clipboard.Writer, overlays *feedback.Presenter, notifier *notify.Channel) *Renderer {
	return &Renderer{
		clip:     clip,
		overlays: overlays,
		notifier: notifier,
		byID:     make(map[int]int),
	}
}

// Replace discards every current node, detaching its overlay, and builds one
// node per result in the given order. It returns the new generation.
func (r *Renderer) Replace(query string, results []search.Result) int {
	for _, n := range r.nodes {
		r.overlays.Detach(n.ID)
	}
	r.nodes = nil
	r.byID = make(map[int]int, len(results))
	r.query = query
	r.revealed = 0
	r.generation++

	if len(results) == 0 {
		return r.generation
	}

	r.nodes = make([]Node, len(results))
	for i, res := range results {
		r.nextID++
		badge, ok := Badge(res.Score)
		r.nodes[i] = Node{
			ID:       r.nextID,
			Index:    i,
			Payload:  res.Payload,
			Label:    res.Label,
			Category: res.Category,
			Badge:    badge,
			HasBadge: ok,
			Delay:    time.Duration(i) * StaggerDelay,
		}
		r.byID[r.nextID] = i
	}
	return r.generation
}

// Reveal marks every node whose entrance delay has elapsed as visible and
// reports whether all nodes are now revealed.
func (r *Renderer) Reveal(elapsed time.Duration) bool {
	for r.revealed < len(r.nodes) && r.nodes[r.revealed].Delay <= elapsed {
		r.revealed++
	}
	return r.revealed == len(r.nodes)
}

// Visible returns the nodes whose entrance has started.
func (r *Renderer) Visible() []Node {
	return r.nodes[:r.revealed]
}

func (r *Renderer) Nodes() []Node {
	return r.nodes
}

func (r *Renderer) Generation() int { return r.generation }
func (r *Renderer) Len() int        { return len(r.nodes) }

func (r *Renderer) OverlayPhase(id int) feedback.Phase {
	return r.overlays.Phase(id)
}

// Activate returns the clipboard write for the node at index. The returned
// func does no renderer bookkeeping and may run off the UI goroutine.
func (r *Renderer) Activate(index int) (func() CopyResult, bool) {
	if index < 0 || index >= len(r.nodes) {
		return nil, false
	}
	node := r.nodes[index]
	clip := r.clip
	return func() CopyResult {
		return CopyResult{NodeID: node.ID, Err: clip.Write(node.Payload)}
	}, true
}

// CopyFinished applies a finished copy. A success for a node that has since
// been discarded shows nothing.
func (r *Renderer) CopyFinished(res CopyResult) Outcome {
	if res.Err != nil {
		t := r.notifier.Notify(CopyFailedMessage)
		return Outcome{Notice: &t}
	}
	if _, ok := r.byID[res.NodeID]; !ok {
		return Outcome{}
	}
	t := r.overlays.Show(res.NodeID)
	return Outcome{Feedback: &t}
}

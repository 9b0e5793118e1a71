// Package controller holds the search interaction state machine. It knows
// nothing about terminals or HTTP: hosts feed it events and carry out the
// effects it returns.
package controller

import (
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/mgomes/emofind/internal/search"
	"go.uber.org/zap"
)

type State int

const (
	StatePrompt State = iota
	StateLoading
	StateResults
	StateEmpty
)

func (s State) String() string {
	switch s {
	case StatePrompt:
		return "prompt"
	case StateLoading:
		return "loading"
	case StateResults:
		return "results"
	case StateEmpty:
		return "empty"
	default:
		return "unknown"
	}
}

const SearchFailedMessage = "Failed to search. Please try again."

type transition struct {
	from []State // nil allows every state
	run  func(c *Controller, ev Event) []Effect
}

func (t transition) allows(s State) bool {
	return t.from == nil || slices.Contains(t.from, s)
}

// transitions is the event dispatch table. Submit is accepted while Loading:
// a new query supersedes the in-flight request.
var transitions = map[EventKind]transition{
	EventSubmit: {
		from: []State{StatePrompt, StateResults, StateEmpty, StateLoading},
		run:  (*Controller).submit,
	},
	EventInputChanged: {run: (*Controller).inputChanged},
	EventClear:        {run: (*Controller).clear},
	EventSearchSucceeded: {
		from: []State{StateLoading},
		run:  (*Controller).succeeded,
	},
	EventSearchFailed: {
		from: []State{StateLoading},
		run:  (*Controller).failed,
	},
}

type Controller struct {
	state  State
	resume State

	input        string
	inputEnabled bool
	loading      bool
	clearVisible bool

	query   string
	results []search.Result

	pending      string
	pendingQuery string

	newID func() string
	log   *zap.Logger
}

type Option func(*Controller)

func WithIDGenerator(fn func() string) Option {
	return func(c *Controller) {
		c.newID = fn
	}
}

func WithLogger(log *zap.Logger) Option {
	return func(c *Controller) {
		c.log = log
	}
}

func New(opts ...Option) *Controller {
	c := &Controller{
		state:        StatePrompt,
		resume:       StatePrompt,
		inputEnabled: true,
		newID:        uuid.NewString,
		log:          zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Dispatch applies ev to the current state and returns the effects to run.
// Events the table does not allow from the current state are dropped.
func (c *Controller) Dispatch(ev Event) []Effect {
	t, ok := transitions[ev.Kind()]
	if !ok || !t.allows(c.state) {
		c.log.Debug("event ignored",
			zap.Stringer("event", ev.Kind()),
			zap.Stringer("state", c.state))
		return nil
	}

	from := c.state
	effects := t.run(c, ev)
	if from != c.state {
		c.log.Debug("state transition",
			zap.Stringer("event", ev.Kind()),
			zap.Stringer("from", from),
			zap.Stringer("to", c.state))
	}
	return effects
}

func (c *Controller) submit(ev Event) []Effect {
	e := ev.(Submit)
	c.input = e.Input

	query := strings.TrimSpace(e.Input)
	if query == "" {
		return c.clear(Clear{})
	}

	var effects []Effect
	if c.state == StateLoading {
		c.log.Info("superseding in-flight search",
			zap.String("request_id", c.pending),
			zap.String("query", c.pendingQuery))
		effects = append(effects, CancelSearch{RequestID: c.pending})
	} else {
		c.resume = c.state
	}

	c.pending = c.newID()
	c.pendingQuery = query
	c.state = StateLoading
	c.loading = true
	c.inputEnabled = false

	return append(effects, IssueSearch{RequestID: c.pending, Query: query})
}

func (c *Controller) inputChanged(ev Event) []Effect {
	e := ev.(InputChanged)
	c.input = e.Value
	c.clearVisible = strings.TrimSpace(e.Value) != ""
	return nil
}

func (c *Controller) clear(Event) []Effect {
	var effects []Effect
	if c.pending != "" {
		effects = append(effects, CancelSearch{RequestID: c.pending})
		c.pending = ""
		c.pendingQuery = ""
	}
	c.finishRequest()

	c.state = StatePrompt
	c.resume = StatePrompt
	c.input = ""
	c.clearVisible = false
	c.query = ""
	c.results = nil

	return append(effects, ResultsChanged{})
}

func (c *Controller) succeeded(ev Event) []Effect {
	e := ev.(SearchSucceeded)
	if e.RequestID != c.pending {
		c.log.Debug("discarding stale search response", zap.String("request_id", e.RequestID))
		return nil
	}

	c.query = c.pendingQuery
	c.results = e.Results
	c.pending = ""
	c.pendingQuery = ""
	c.finishRequest()

	if len(c.results) == 0 {
		c.state = StateEmpty
	} else {
		c.state = StateResults
	}

	return []Effect{ResultsChanged{Query: c.query, Results: c.results}}
}

func (c *Controller) failed(ev Event) []Effect {
	e := ev.(SearchFailed)
	if e.RequestID != c.pending {
		c.log.Debug("discarding stale search failure", zap.String("request_id", e.RequestID))
		return nil
	}

	c.log.Warn("search failed",
		zap.String("request_id", e.RequestID),
		zap.String("query", c.pendingQuery),
		zap.Error(e.Err))

	c.pending = ""
	c.pendingQuery = ""
	c.finishRequest()
	c.state = c.resume

	return []Effect{Notify{Message: SearchFailedMessage}}
}

// finishRequest is the cleanup every completion of the current request runs,
// success or failure.
func (c *Controller) finishRequest() {
	c.loading = false
	c.inputEnabled = true
}

func (c *Controller) State() State             { return c.state }
func (c *Controller) Input() string            { return c.input }
func (c *Controller) InputEnabled() bool       { return c.inputEnabled }
func (c *Controller) Loading() bool            { return c.loading }
func (c *Controller) ClearVisible() bool       { return c.clearVisible }
func (c *Controller) Query() string            { return c.query }
func (c *Controller) Pending() string          { return c.pending }
func (c *Controller) Results() []search.Result { return c.results }

// Message is the status line for the displayed content state.
func (c *Controller) Message() string {
	switch c.state {
	case StateResults:
		return CountMessage(len(c.results), c.query)
	case StateEmpty:
		return EmptyMessage(c.query)
	case StateLoading:
		switch c.resume {
		case StateResults:
			return CountMessage(len(c.results), c.query)
		case StateEmpty:
			return EmptyMessage(c.query)
		}
	}
	return ""
}

func CountMessage(n int, query string) string {
	noun := "results"
	if n == 1 {
		noun = "result"
	}
	return fmt.Sprintf("%d %s for \"%s\"", n, noun, query)
}

func EmptyMessage(query string) string {
	return fmt.Sprintf("No results for \"%s\"", query)
}

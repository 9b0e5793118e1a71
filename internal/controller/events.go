package controller

import "github.com/mgomes/emofind/internal/search"

type EventKind int

const (
	EventSubmit EventKind = iota
	EventInputChanged
	EventClear
	EventSearchSucceeded
	EventSearchFailed
)

func (k EventKind) String() string {
	switch k {
	case EventSubmit:
		return "submit"
	case EventInputChanged:
		return "input-changed"
	case EventClear:
		return "clear"
	case EventSearchSucceeded:
		return "search-succeeded"
	case EventSearchFailed:
		return "search-failed"
	default:
		return "unknown"
	}
}

type Event interface {
	Kind() EventKind
}

// Submit carries the raw input value; trimming happens in the controller.
type Submit struct {
	Input string
}

type InputChanged struct {
	Value string
}

type Clear struct{}

type SearchSucceeded struct {
	RequestID string
	Results   []search.Result
}

type SearchFailed struct {
	RequestID string
	Err       error
}

func (Submit) Kind() EventKind          { return EventSubmit }
func (InputChanged) Kind() EventKind    { return EventInputChanged }
func (Clear) Kind() EventKind           { return EventClear }
func (SearchSucceeded) Kind() EventKind { return EventSearchSucceeded }
func (SearchFailed) Kind() EventKind    { return EventSearchFailed }

// Effect is a side effect the host must carry out after a transition.
type Effect interface {
	effect()
}

type IssueSearch struct {
	RequestID string
	Query     string
}

type CancelSearch struct {
	RequestID string
}

type Notify struct {
	Message string
}

// ResultsChanged tells the renderer to discard every node and rebuild from
// Results. An empty Results means the display is cleared.
type ResultsChanged struct {
	Query   string
	Results []search.Result
}

func (IssueSearch) effect()    {}
func (CancelSearch) effect()   {}
func (Notify) effect()         {}
func (ResultsChanged) effect() {}

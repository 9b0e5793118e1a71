package tui

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	errors "github.com/Laisky/errors/v2"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mgomes/emofind/internal/controller"
	"github.com/mgomes/emofind/internal/emojiapi"
	"github.com/mgomes/emofind/internal/feedback"
	"github.com/mgomes/emofind/internal/render"
	"github.com/mgomes/emofind/internal/search"
)

type fakeSearcher struct {
	results []search.Result
	err     error
	queries []string
	ctx     context.Context
}

func (f *fakeSearcher) Search(ctx context.Context, requestID, query string) ([]search.Result, error) {
	f.ctx = ctx
	f.queries = append(f.queries, query)
	return f.results, f.err
}

type fakeClipboard struct {
	err     error
	written []string
}

func (f *fakeClipboard) Write(text string) error {
	f.written = append(f.written, text)
	return f.err
}

func score(v float64) *float64 { return &v }

func catResults() []search.Result {
	return []search.Result{
		{Payload: "🐱", Label: "cat face", Category: "Animals & Nature", Score: score(0.873)},
		{Payload: "😺", Label: "grinning cat", Category: "Smileys & Emotion", Score: score(0.81)},
	}
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("req-%d", n)
	}
}

func newTestModel(s *fakeSearcher, clip *fakeClipboard, opts ...Option) SearchModel {
	ctrl := controller.New(controller.WithIDGenerator(sequentialIDs()))
	opts = append([]Option{WithController(ctrl)}, opts...)
	return NewSearchModel(s, clip, opts...)
}

func update(t *testing.T, m SearchModel, msg tea.Msg) (SearchModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	sm, ok := next.(SearchModel)
	require.True(t, ok)
	return sm, cmd
}

func typeText(t *testing.T, m SearchModel, text string) SearchModel {
	t.Helper()
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
	return m
}

func submit(t *testing.T, m SearchModel, text string) SearchModel {
	t.Helper()
	m = typeText(t, m, text)
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	return m
}

func TestSearchModel_TypingShowsClearAffordance(t *testing.T) {
	m := newTestModel(&fakeSearcher{}, &fakeClipboard{})
	assert.False(t, m.ctrl.ClearVisible())

	m = typeText(t, m, "cat")
	assert.True(t, m.ctrl.ClearVisible())
	assert.Equal(t, "cat", m.ctrl.Input())
	assert.False(t, m.ctrl.Loading())
}

func TestSearchModel_SubmitStartsLoading(t *testing.T) {
	m := newTestModel(&fakeSearcher{}, &fakeClipboard{})
	m = submit(t, m, "  cat  ")

	assert.Equal(t, controller.StateLoading, m.ctrl.State())
	assert.True(t, m.ctrl.Loading())
	assert.False(t, m.ctrl.InputEnabled())
	assert.Equal(t, "req-1", m.ctrl.Pending())
	assert.Contains(t, m.cancels, "req-1")
	assert.Contains(t, m.View(), "Searching...")
}

func TestSearchModel_EmptySubmitStaysOnPrompt(t *testing.T) {
	m := newTestModel(&fakeSearcher{}, &fakeClipboard{})
	m = submit(t, m, "   ")

	assert.Equal(t, controller.StatePrompt, m.ctrl.State())
	assert.Empty(t, m.cancels)
	assert.Empty(t, m.input.Value())
}

func TestSearchModel_KeysIgnoredWhileLoading(t *testing.T) {
	m := newTestModel(&fakeSearcher{}, &fakeClipboard{})
	m = submit(t, m, "cat")

	m = typeText(t, m, "dog")
	assert.Equal(t, "cat", m.input.Value())
	assert.Equal(t, "req-1", m.ctrl.Pending())
}

func TestSearchModel_EnterIgnoredWhileLoading(t *testing.T) {
	m := newTestModel(&fakeSearcher{}, &fakeClipboard{})
	m = submit(t, m, "cat")

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Equal(t, "req-1", m.ctrl.Pending())
	assert.Len(t, m.cancels, 1)

	m, _ = update(t, m, searchDoneMsg{RequestID: "req-1", Results: catResults()})
	assert.Equal(t, controller.StateResults, m.ctrl.State())
	assert.Equal(t, 2, m.renderer.Len())
}

func TestSearchModel_ResponseWithoutResultsFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("query") == "cat" {
			_, _ = w.Write([]byte(`{"query":"cat","results":[{"emoji":"🐱","name":"cat face","group":"Animals & Nature","score":0.9}]}`))
			return
		}
		_, _ = w.Write([]byte(`{"detail":"x"}`))
	}))
	t.Cleanup(srv.Close)

	searcher := search.New(emojiapi.NewClient(srv.URL, time.Second), search.DefaultTopK)
	ctrl := controller.New(controller.WithIDGenerator(sequentialIDs()))
	m := NewSearchModel(searcher, &fakeClipboard{}, WithController(ctrl))

	m = submit(t, m, "cat")
	m, _ = update(t, m, m.runSearch("req-1", "cat")())
	require.Equal(t, controller.StateResults, m.ctrl.State())

	// the input still holds "cat", so this searches "catdog"
	m = submit(t, m, "dog")
	require.Equal(t, "req-2", m.ctrl.Pending())
	done, ok := m.runSearch("req-2", "catdog")().(searchDoneMsg)
	require.True(t, ok)
	require.ErrorIs(t, done.Err, emojiapi.ErrMissingResults)

	m, cmd := update(t, m, done)
	require.NotNil(t, cmd)
	assert.Equal(t, controller.StateResults, m.ctrl.State())
	assert.Equal(t, `1 result for "cat"`, m.ctrl.Message())
	assert.Equal(t, 1, m.renderer.Len())
	assert.True(t, m.ctrl.InputEnabled())
	msg, ok := m.notifier.Current()
	require.True(t, ok)
	assert.Equal(t, controller.SearchFailedMessage, msg)
}

func TestSearchModel_RunSearchUsesSearcher(t *testing.T) {
	s := &fakeSearcher{results: catResults()}
	m := newTestModel(s, &fakeClipboard{})

	msg := m.runSearch("req-9", "cat")()
	done, ok := msg.(searchDoneMsg)
	require.True(t, ok)

	assert.Equal(t, "req-9", done.RequestID)
	assert.Len(t, done.Results, 2)
	assert.NoError(t, done.Err)
	assert.Equal(t, []string{"cat"}, s.queries)
	// the per-request context is released once the call returns
	require.NotNil(t, s.ctx)
	assert.ErrorIs(t, s.ctx.Err(), context.Canceled)
}

func TestSearchModel_SearchSuccessRendersResults(t *testing.T) {
	m := newTestModel(&fakeSearcher{}, &fakeClipboard{})
	m = submit(t, m, "cat")

	m, _ = update(t, m, searchDoneMsg{RequestID: "req-1", Results: catResults()})

	assert.Equal(t, controller.StateResults, m.ctrl.State())
	assert.False(t, m.ctrl.Loading())
	assert.True(t, m.ctrl.InputEnabled())
	assert.Equal(t, 2, m.renderer.Len())
	assert.Empty(t, m.cancels)

	// first card enters immediately, the next after one stagger step
	assert.Len(t, m.renderer.Visible(), 1)
	m, _ = update(t, m, revealTickMsg{Generation: m.renderer.Generation(), Elapsed: render.StaggerDelay})
	assert.Len(t, m.renderer.Visible(), 2)

	view := m.View()
	assert.Contains(t, view, `2 results for "cat"`)
	assert.Contains(t, view, "🐱")
	assert.Contains(t, view, "87%")
	assert.Contains(t, view, "81%")
}

func TestSearchModel_StaleRevealTickIgnored(t *testing.T) {
	m := newTestModel(&fakeSearcher{}, &fakeClipboard{})
	m = submit(t, m, "cat")
	m, _ = update(t, m, searchDoneMsg{RequestID: "req-1", Results: catResults()})

	m, cmd := update(t, m, revealTickMsg{Generation: m.renderer.Generation() - 1, Elapsed: time.Second})
	assert.Nil(t, cmd)
	assert.Len(t, m.renderer.Visible(), 1)
}

func TestSearchModel_EmptyResults(t *testing.T) {
	m := newTestModel(&fakeSearcher{}, &fakeClipboard{})
	m = submit(t, m, "xyzzy")
	m, _ = update(t, m, searchDoneMsg{RequestID: "req-1", Results: []search.Result{}})

	assert.Equal(t, controller.StateEmpty, m.ctrl.State())
	assert.Equal(t, 0, m.renderer.Len())
	assert.Contains(t, m.View(), `No results for "xyzzy"`)
}

func TestSearchModel_SearchFailureNotifiesAndRestores(t *testing.T) {
	m := newTestModel(&fakeSearcher{}, &fakeClipboard{})
	m = submit(t, m, "cat")
	m, _ = update(t, m, searchDoneMsg{RequestID: "req-1", Results: catResults()})

	m = submit(t, m, "dog")
	m, _ = update(t, m, searchDoneMsg{RequestID: "req-2", Err: errors.New("boom")})

	assert.Equal(t, controller.StateResults, m.ctrl.State())
	assert.True(t, m.ctrl.InputEnabled())
	assert.False(t, m.ctrl.Loading())
	assert.Equal(t, 2, m.renderer.Len())

	msg, ok := m.notifier.Current()
	require.True(t, ok)
	assert.Equal(t, controller.SearchFailedMessage, msg)
	assert.Contains(t, m.View(), controller.SearchFailedMessage)
}

func TestSearchModel_ClearWhileLoadingCancels(t *testing.T) {
	m := newTestModel(&fakeSearcher{}, &fakeClipboard{})
	m = submit(t, m, "cat")
	require.Contains(t, m.cancels, "req-1")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})

	assert.Equal(t, controller.StatePrompt, m.ctrl.State())
	assert.False(t, m.ctrl.Loading())
	assert.True(t, m.ctrl.InputEnabled())
	assert.Empty(t, m.cancels)
	assert.Empty(t, m.input.Value())

	// the late response for the cancelled request changes nothing
	m, _ = update(t, m, searchDoneMsg{RequestID: "req-1", Results: catResults()})
	assert.Equal(t, controller.StatePrompt, m.ctrl.State())
	assert.Equal(t, 0, m.renderer.Len())
	_, shown := m.notifier.Current()
	assert.False(t, shown)
}

func TestSearchModel_CopySelectedShowsOverlay(t *testing.T) {
	clip := &fakeClipboard{}
	m := newTestModel(&fakeSearcher{}, clip)
	m = submit(t, m, "cat")
	m, _ = update(t, m, searchDoneMsg{RequestID: "req-1", Results: catResults()})
	m, _ = update(t, m, revealTickMsg{Generation: m.renderer.Generation(), Elapsed: render.StaggerDelay})

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	require.Equal(t, focusResults, m.focus)
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRight})
	require.Equal(t, 1, m.selected)

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	m, _ = update(t, m, cmd())

	assert.Equal(t, []string{"😺"}, clip.written)
	node := m.renderer.Nodes()[1]
	assert.Equal(t, feedback.PhaseVisible, m.renderer.OverlayPhase(node.ID))
	assert.Contains(t, m.View(), "Copied!")
}

func TestSearchModel_CopyFailureNotifies(t *testing.T) {
	clip := &fakeClipboard{err: errors.New("no clipboard")}
	m := newTestModel(&fakeSearcher{}, clip)
	m = submit(t, m, "cat")
	m, _ = update(t, m, searchDoneMsg{RequestID: "req-1", Results: catResults()})

	cmd := m.copyCmd(0)
	require.NotNil(t, cmd)
	m, _ = update(t, m, cmd())

	msg, ok := m.notifier.Current()
	require.True(t, ok)
	assert.Equal(t, render.CopyFailedMessage, msg)
	assert.Equal(t, feedback.PhaseNone, m.renderer.OverlayPhase(m.renderer.Nodes()[0].ID))
}

func TestSearchModel_CopyOutOfRange(t *testing.T) {
	m := newTestModel(&fakeSearcher{}, &fakeClipboard{})
	assert.Nil(t, m.copyCmd(0))
}

func TestSearchModel_NewResultsDropOverlays(t *testing.T) {
	m := newTestModel(&fakeSearcher{}, &fakeClipboard{})
	m = submit(t, m, "cat")
	m, _ = update(t, m, searchDoneMsg{RequestID: "req-1", Results: catResults()})
	copied := m.renderer.Nodes()[0]
	m, _ = update(t, m, m.copyCmd(0)())
	require.Equal(t, feedback.PhaseVisible, m.overlays.Phase(copied.ID))

	m = submit(t, m, "dog")
	m, _ = update(t, m, searchDoneMsg{RequestID: "req-2", Results: catResults()[:1]})

	assert.Equal(t, feedback.PhaseNone, m.overlays.Phase(copied.ID))
	assert.Equal(t, 1, m.renderer.Len())
}

func TestSearchModel_InitialQuerySubmits(t *testing.T) {
	s := &fakeSearcher{}
	m := newTestModel(s, &fakeClipboard{}, WithInitialQuery("party"))

	assert.Equal(t, controller.StateLoading, m.ctrl.State())
	assert.Equal(t, "party", m.ctrl.Input())
	assert.True(t, m.ctrl.ClearVisible())
	assert.NotNil(t, m.Init())
}

func TestSearchModel_Columns(t *testing.T) {
	m := newTestModel(&fakeSearcher{}, &fakeClipboard{})
	assert.Equal(t, defaultWidth/(cardWidth+2), m.columns())

	m, _ = update(t, m, tea.WindowSizeMsg{Width: 10, Height: 20})
	assert.Equal(t, 1, m.columns())
}

func TestSetupModel_RequiresURL(t *testing.T) {
	m := NewSetupModel("", 20)

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Contains(t, next.View(), "Service URL is required")
}

func TestSetupModel_RejectsBadTopK(t *testing.T) {
	m := NewSetupModel("http://localhost:8000", 0)
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	next, _ = next.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("-3")})

	next, cmd := next.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Contains(t, next.View(), "positive number")
}

func TestSetupModel_Submit(t *testing.T) {
	m := NewSetupModel("http://emoji.local:8000", 30)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, SetupSubmitMsg{BaseURL: "http://emoji.local:8000", TopK: 30}, cmd())
}

func TestSetupModel_ShowsError(t *testing.T) {
	m := NewSetupModel("http://localhost:8000", 20)
	next, _ := m.Update(SetupErrorMsg{Error: "service unreachable"})
	assert.Contains(t, next.View(), "service unreachable")
}

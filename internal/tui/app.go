package tui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mgomes/emofind/internal/clipboard"
	"github.com/mgomes/emofind/internal/controller"
	"github.com/mgomes/emofind/internal/feedback"
	"github.com/mgomes/emofind/internal/notify"
	"github.com/mgomes/emofind/internal/render"
	"github.com/mgomes/emofind/internal/search"
	"go.uber.org/zap"
)

const (
	cardWidth    = 16
	defaultWidth = 80
)

type Searcher interface {
	Search(ctx context.Context, requestID, query string) ([]search.Result, error)
}

type focusArea int

const (
	focusInput focusArea = iota
	focusResults
)

type SearchModel struct {
	ctrl     *controller.Controller
	renderer *render.Renderer
	overlays *feedback.Presenter
	notifier *notify.Channel
	searcher Searcher
	log      *zap.Logger

	ctx     context.Context
	cancels map[string]context.CancelFunc

	input   textinput.Model
	spinner spinner.Model

	focus    focusArea
	selected int
	width    int
	height   int

	initCmd tea.Cmd
}

type Option func(*SearchModel)

func WithLogger(log *zap.Logger) Option {
	return func(m *SearchModel) {
		m.log = log
	}
}

func WithContext(ctx context.Context) Option {
	return func(m *SearchModel) {
		m.ctx = ctx
	}
}

func WithController(ctrl *controller.Controller) Option {
	return func(m *SearchModel) {
		m.ctrl = ctrl
	}
}

// WithInitialQuery submits query as soon as the program starts.
func WithInitialQuery(query string) Option {
	return func(m *SearchModel) {
		m.input.SetValue(query)
	}
}

func NewSearchModel(searcher Searcher, clip clipboard.Writer, opts ...Option) SearchModel {
	input := textinput.New()
	input.Placeholder = "Describe an emoji: happy cat, celebration, rain..."
	input.Prompt = "🔍 "
	input.CharLimit = 200
	input.Width = 48
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = activeStyle

	overlays := feedback.New()
	notifier := notify.New()

	m := SearchModel{
		overlays: overlays,
		notifier: notifier,
		renderer: render.New(clip, overlays, notifier),
		searcher: searcher,
		log:      zap.NewNop(),
		ctx:      context.Background(),
		cancels:  make(map[string]context.CancelFunc),
		input:    input,
		spinner:  sp,
	}
	for _, opt := range opts {
		opt(&m)
	}
	if m.ctrl == nil {
		m.ctrl = controller.New(controller.WithLogger(m.log))
	}

	if query := m.input.Value(); strings.TrimSpace(query) != "" {
		cmds := []tea.Cmd{m.dispatch(controller.InputChanged{Value: query})}
		cmds = append(cmds, m.dispatch(controller.Submit{Input: query}))
		m.initCmd = tea.Batch(cmds...)
	}

	return m
}

func (m SearchModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.initCmd)
}

func (m SearchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case searchDoneMsg:
		delete(m.cancels, msg.RequestID)
		if msg.Err != nil {
			return m, m.dispatch(controller.SearchFailed{RequestID: msg.RequestID, Err: msg.Err})
		}
		return m, m.dispatch(controller.SearchSucceeded{RequestID: msg.RequestID, Results: msg.Results})

	case copyDoneMsg:
		if msg.Result.Err != nil {
			m.log.Warn("copy failed", zap.Int("node", msg.Result.NodeID), zap.Error(msg.Result.Err))
		}
		out := m.renderer.CopyFinished(msg.Result)
		switch {
		case out.Feedback != nil:
			return m, overlayTick(*out.Feedback)
		case out.Notice != nil:
			return m, toastTick(*out.Notice)
		}

	case overlayTickMsg:
		if next, ok := m.overlays.Expire(msg.Timer); ok {
			return m, overlayTick(next)
		}

	case toastTickMsg:
		m.notifier.Dismiss(msg.Timer)

	case revealTickMsg:
		if msg.Generation != m.renderer.Generation() {
			return m, nil
		}
		if !m.renderer.Reveal(msg.Elapsed) {
			return m, revealTick(msg.Generation, msg.Elapsed+render.StaggerDelay)
		}

	case spinner.TickMsg:
		if !m.ctrl.Loading() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m SearchModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Exit):
		m.cancelAll()
		return m, tea.Quit

	case key.Matches(msg, keys.Clear):
		m.focus = focusInput
		return m, m.dispatch(controller.Clear{})

	case key.Matches(msg, keys.Focus):
		m.toggleFocus()
		return m, nil
	}

	if m.focus == focusResults {
		return m.handleResultsKey(msg)
	}

	if key.Matches(msg, keys.Down) && msg.String() == "down" && m.renderer.Len() > 0 {
		m.toggleFocus()
		return m, nil
	}

	// a disabled input takes neither text nor enter
	if !m.ctrl.InputEnabled() {
		return m, nil
	}

	if key.Matches(msg, keys.Submit) {
		return m, m.dispatch(controller.Submit{Input: m.input.Value()})
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	// every keystroke re-evaluates the clear affordance
	m.ctrl.Dispatch(controller.InputChanged{Value: m.input.Value()})
	return m, cmd
}

func (m SearchModel) handleResultsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	cols := m.columns()
	last := len(m.renderer.Visible()) - 1

	switch {
	case key.Matches(msg, keys.Quit):
		m.cancelAll()
		return m, tea.Quit

	case key.Matches(msg, keys.Copy):
		return m, m.copyCmd(m.selected)

	case key.Matches(msg, keys.Left):
		if m.selected > 0 {
			m.selected--
		}

	case key.Matches(msg, keys.Right):
		if m.selected < last {
			m.selected++
		}

	case key.Matches(msg, keys.Up):
		if m.selected-cols >= 0 {
			m.selected -= cols
		} else {
			m.toggleFocus()
		}

	case key.Matches(msg, keys.Down):
		if m.selected+cols <= last {
			m.selected += cols
		}
	}

	return m, nil
}

func (m *SearchModel) toggleFocus() {
	if m.focus == focusInput && m.renderer.Len() > 0 {
		m.focus = focusResults
		m.input.Blur()
		return
	}
	m.focus = focusInput
	if m.ctrl.InputEnabled() {
		m.input.Focus()
	}
}

// dispatch feeds ev to the controller, carries out the effects and brings
// the input widget in line with the controller.
func (m *SearchModel) dispatch(ev controller.Event) tea.Cmd {
	wasLoading := m.ctrl.Loading()
	effects := m.ctrl.Dispatch(ev)

	var cmds []tea.Cmd
	for _, effect := range effects {
		switch e := effect.(type) {
		case controller.IssueSearch:
			cmds = append(cmds, m.runSearch(e.RequestID, e.Query))

		case controller.CancelSearch:
			if cancel, ok := m.cancels[e.RequestID]; ok {
				cancel()
				delete(m.cancels, e.RequestID)
			}

		case controller.Notify:
			cmds = append(cmds, toastTick(m.notifier.Notify(e.Message)))

		case controller.ResultsChanged:
			gen := m.renderer.Replace(e.Query, e.Results)
			m.selected = 0
			if m.renderer.Len() == 0 && m.focus == focusResults {
				m.focus = focusInput
			}
			if !m.renderer.Reveal(0) {
				cmds = append(cmds, revealTick(gen, render.StaggerDelay))
			}
		}
	}

	if m.input.Value() != m.ctrl.Input() {
		m.input.SetValue(m.ctrl.Input())
	}
	switch {
	case !m.ctrl.InputEnabled():
		m.input.Blur()
	case m.focus == focusInput:
		cmds = append(cmds, m.input.Focus())
	}
	if m.ctrl.Loading() && !wasLoading {
		cmds = append(cmds, m.spinner.Tick)
	}

	return tea.Batch(cmds...)
}

func (m *SearchModel) runSearch(requestID, query string) tea.Cmd {
	ctx, cancel := context.WithCancel(m.ctx)
	m.cancels[requestID] = cancel
	searcher := m.searcher
	log := m.log

	return func() tea.Msg {
		defer cancel()
		log.Info("search", zap.String("request_id", requestID), zap.String("query", query))
		results, err := searcher.Search(ctx, requestID, query)
		return searchDoneMsg{RequestID: requestID, Results: results, Err: err}
	}
}

func (m *SearchModel) copyCmd(index int) tea.Cmd {
	write, ok := m.renderer.Activate(index)
	if !ok {
		return nil
	}
	return func() tea.Msg {
		return copyDoneMsg{Result: write()}
	}
}

func (m *SearchModel) cancelAll() {
	for id, cancel := range m.cancels {
		cancel()
		delete(m.cancels, id)
	}
}

func overlayTick(t feedback.Timer) tea.Cmd {
	return tea.Tick(t.Delay, func(time.Time) tea.Msg {
		return overlayTickMsg{Timer: t}
	})
}

func toastTick(t notify.Timer) tea.Cmd {
	return tea.Tick(t.Delay, func(time.Time) tea.Msg {
		return toastTickMsg{Timer: t}
	})
}

func revealTick(generation int, elapsed time.Duration) tea.Cmd {
	return tea.Tick(render.StaggerDelay, func(time.Time) tea.Msg {
		return revealTickMsg{Generation: generation, Elapsed: elapsed}
	})
}

func (m SearchModel) columns() int {
	width := m.width
	if width <= 0 {
		width = defaultWidth
	}
	// card width plus its two border cells
	cols := width / (cardWidth + 2)
	if cols < 1 {
		cols = 1
	}
	return cols
}

func (m SearchModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("efind") + " ")
	b.WriteString(dimStyle.Render("semantic emoji search") + "\n\n")

	inputLine := m.input.View()
	if m.ctrl.ClearVisible() {
		inputLine += "  " + helpStyle.Render("[esc clear]")
	}
	b.WriteString(inputStyle.Render(inputLine) + "\n")

	if m.ctrl.Loading() {
		b.WriteString(m.spinner.View() + dimStyle.Render(" Searching...") + "\n")
	} else {
		b.WriteString("\n")
	}
	b.WriteString("\n")

	switch m.contentState() {
	case controller.StatePrompt:
		b.WriteString(dimStyle.Render("Type what you're looking for and press enter.") + "\n")
	case controller.StateEmpty:
		b.WriteString(dimStyle.Render(m.ctrl.Message()) + "\n")
	case controller.StateResults:
		b.WriteString(activeStyle.Render(m.ctrl.Message()) + "\n")
		b.WriteString(m.renderGrid() + "\n")
	}

	if msg, ok := m.notifier.Current(); ok {
		b.WriteString("\n" + toastStyle.Render(msg) + "\n")
	}

	b.WriteString("\n" + helpStyle.Render(m.helpLine()))

	return b.String()
}

// contentState is what the body shows. While loading the previous content
// stays on screen.
func (m SearchModel) contentState() controller.State {
	if m.ctrl.State() != controller.StateLoading {
		return m.ctrl.State()
	}
	switch {
	case m.renderer.Len() > 0:
		return controller.StateResults
	case m.ctrl.Message() != "":
		return controller.StateEmpty
	default:
		return controller.StatePrompt
	}
}

func (m SearchModel) renderGrid() string {
	nodes := m.renderer.Visible()
	if len(nodes) == 0 {
		return ""
	}

	cols := m.columns()
	var rows []string
	for start := 0; start < len(nodes); start += cols {
		end := min(start+cols, len(nodes))
		cards := make([]string, 0, end-start)
		for _, n := range nodes[start:end] {
			cards = append(cards, m.renderCard(n))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cards...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m SearchModel) renderCard(n render.Node) string {
	lines := []string{n.Payload}

	switch m.renderer.OverlayPhase(n.ID) {
	case feedback.PhaseVisible:
		lines = append(lines, copiedStyle.Render("✓ Copied!"))
	case feedback.PhaseFading:
		lines = append(lines, fadingStyle.Render("✓ Copied!"))
	default:
		lines = append(lines, labelStyle.Render(render.Truncate(n.Label, cardWidth)))
	}

	lines = append(lines, categoryStyle.Render(render.Truncate(n.Category, cardWidth)))
	if n.HasBadge {
		lines = append(lines, scoreStyle.Render(n.Badge))
	} else {
		lines = append(lines, "")
	}

	style := cardStyle
	if m.focus == focusResults && n.Index == m.selected {
		style = selectedCardStyle
	}
	return style.Render(strings.Join(lines, "\n"))
}

func (m SearchModel) helpLine() string {
	if m.focus == focusResults {
		return "←↑↓→ navigate  enter copy  tab search box  esc clear  q quit"
	}
	return "enter search  tab results  esc clear  ctrl+c quit"
}

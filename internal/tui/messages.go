package tui

import (
	"time"

	"github.com/mgomes/emofind/internal/feedback"
	"github.com/mgomes/emofind/internal/notify"
	"github.com/mgomes/emofind/internal/render"
	"github.com/mgomes/emofind/internal/search"
)

type SetupSubmitMsg struct {
	BaseURL string
	TopK    int
}

type SetupErrorMsg struct {
	Error string
}

type searchDoneMsg struct {
	RequestID string
	Results   []search.Result
	Err       error
}

type copyDoneMsg struct {
	Result render.CopyResult
}

type overlayTickMsg struct {
	Timer feedback.Timer
}

type toastTickMsg struct {
	Timer notify.Timer
}

type revealTickMsg struct {
	Generation int
	Elapsed    time.Duration
}

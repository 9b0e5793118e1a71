// Package clipboard copies text to the system clipboard, falling back to an
// OSC52 terminal escape sequence when no native clipboard tool works.
package clipboard

import (
	"fmt"
	"io"
	"os"
	"strings"

	errors "github.com/Laisky/errors/v2"
	"github.com/atotto/clipboard"
	"github.com/aymanbagabas/go-osc52/v2"
	"go.uber.org/zap"
)

var (
	ErrNativeUnavailable = errors.New("native clipboard unavailable")
	ErrNoTerminal        = errors.New("no terminal for osc52")
)

type Writer interface {
	Write(text string) error
}

// WriteError reports that both the native and the fallback path failed.
type WriteError struct {
	Native   error
	Fallback error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("clipboard write failed: native: %v; osc52: %v", e.Native, e.Fallback)
}

func (e *WriteError) Unwrap() []error {
	return []error{e.Native, e.Fallback}
}

type System struct {
	nativeAvailable func() bool
	native          func(string) error
	term            io.Writer
	getenv          func(string) string
	log             *zap.Logger
}

type Option func(*System)

// WithNative replaces the native clipboard backend.
func WithNative(available func() bool, write func(string) error) Option {
	return func(s *System) {
		s.nativeAvailable = available
		s.native = write
	}
}

func WithEnv(getenv func(string) string) Option {
	return func(s *System) {
		s.getenv = getenv
	}
}

func WithLogger(log *zap.Logger) Option {
	return func(s *System) {
		s.log = log
	}
}

// NewSystem returns a Writer that tries the native clipboard first and
// writes an OSC52 sequence to term otherwise.
func NewSystem(term io.Writer, opts ...Option) *System {
	s := &System{
		nativeAvailable: func() bool { return !clipboard.Unsupported },
		native:          clipboard.WriteAll,
		term:            term,
		getenv:          os.Getenv,
		log:             zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Write makes a single attempt per path. There are no retries.
func (s *System) Write(text string) error {
	nativeErr := s.writeNative(text)
	if nativeErr == nil {
		return nil
	}
	s.log.Debug("native clipboard failed, trying osc52", zap.Error(nativeErr))

	fallbackErr := s.writeOSC52(text)
	if fallbackErr == nil {
		return nil
	}

	return &WriteError{Native: nativeErr, Fallback: fallbackErr}
}

func (s *System) writeNative(text string) error {
	if s.native == nil || s.nativeAvailable == nil || !s.nativeAvailable() {
		return ErrNativeUnavailable
	}
	if err := s.native(text); err != nil {
		return errors.Wrap(err, "native clipboard write")
	}
	return nil
}

func (s *System) writeOSC52(text string) error {
	if s.term == nil {
		return ErrNoTerminal
	}

	seq := osc52.New(text)
	switch {
	case s.getenv("TMUX") != "":
		seq = seq.Tmux()
	case strings.HasPrefix(s.getenv("TERM"), "screen"):
		seq = seq.Screen()
	}

	if _, err := seq.WriteTo(s.term); err != nil {
		return errors.Wrap(err, "write osc52 sequence")
	}
	return nil
}

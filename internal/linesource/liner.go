package linesource

import (
	"context"
	"io"

	"github.com/peterh/liner"
	"github.com/pkg/errors"
)

// LinerSource is a line editor adapter over peterh/liner. Ctrl-C aborts the
// current line and Ctrl-D on an empty line ends the session.
type LinerSource struct {
	state    *liner.State
	complete CompleteFunc
}

// NewLiner puts the terminal into raw mode for the lifetime of the source.
func NewLiner() *LinerSource {
	s := &LinerSource{state: liner.NewLiner()}
	s.state.SetCtrlCAborts(true)
	s.state.SetTabCompletionStyle(liner.TabPrints)
	s.state.SetCompleter(func(line string) []string {
		if s.complete == nil {
			return nil
		}
		return s.complete(line)
	})
	return s
}

func (s *LinerSource) Name() string { return "liner" }

// Prompt blocks in liner's editor; liner reads keys itself, so ctx is not
// consulted once editing has started.
func (s *LinerSource) Prompt(_ context.Context, prompt string) (string, error) {
	line, err := s.state.Prompt(prompt)
	switch {
	case err == nil:
		if line != "" {
			s.state.AppendHistory(line)
		}
		return line, nil
	case errors.Is(err, liner.ErrPromptAborted):
		return "", ErrInterrupted
	case errors.Is(err, io.EOF):
		return "", ErrEndOfSession
	default:
		return "", errors.Wrap(err, "liner prompt")
	}
}

func (s *LinerSource) Next(ctx context.Context) (string, error) {
	return s.Prompt(ctx, "")
}

func (s *LinerSource) SetCompleter(fn CompleteFunc) { s.complete = fn }

// Close restores the terminal mode.
func (s *LinerSource) Close() error { return s.state.Close() }

package linesource

import (
	"context"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/pkg/errors"
)

// ReadlineSource is a line editor adapter over chzyer/readline.
type ReadlineSource struct {
	rl       *readline.Instance
	complete CompleteFunc
}

// NewReadline creates the editor without a history file.
func NewReadline() (*ReadlineSource, error) {
	s := &ReadlineSource{}
	rl, err := readline.NewEx(&readline.Config{
		AutoComplete:      suffixCompleter{src: s},
		InterruptPrompt:   "^C",
		HistoryLimit:      500,
		HistorySearchFold: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "readline init")
	}
	s.rl = rl
	return s, nil
}

func (s *ReadlineSource) Name() string { return "readline" }

func (s *ReadlineSource) Prompt(_ context.Context, prompt string) (string, error) {
	s.rl.SetPrompt(prompt)
	line, err := s.rl.Readline()
	switch {
	case err == nil:
		return line, nil
	case errors.Is(err, readline.ErrInterrupt):
		return "", ErrInterrupted
	case errors.Is(err, io.EOF):
		return "", ErrEndOfSession
	default:
		return "", errors.Wrap(err, "readline")
	}
}

func (s *ReadlineSource) Next(ctx context.Context) (string, error) {
	return s.Prompt(ctx, "")
}

func (s *ReadlineSource) SetCompleter(fn CompleteFunc) { s.complete = fn }

func (s *ReadlineSource) Close() error { return s.rl.Close() }

// suffixCompleter adapts whole-line candidates to readline's suffix protocol.
type suffixCompleter struct {
	src *ReadlineSource
}

func (c suffixCompleter) Do(line []rune, pos int) ([][]rune, int) {
	if c.src.complete == nil {
		return nil, 0
	}
	return completionSuffixes(string(line[:pos]), c.src.complete(string(line[:pos]))), 0
}

// completionSuffixes keeps candidates that extend head and returns the part
// still to be typed. Candidates that do not extend head cannot be expressed
// as an insertion and are dropped.
func completionSuffixes(head string, candidates []string) [][]rune {
	var out [][]rune
	for _, c := range candidates {
		if len(c) > len(head) && strings.HasPrefix(c, head) {
			out = append(out, []rune(c[len(head):]))
		}
	}
	return out
}

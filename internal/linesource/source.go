// Package linesource abstracts "read one line given a prompt" over the
// interchangeable input adapters a REPL session can switch between.
package linesource

import (
	"context"
	"errors"
	"io"
)

var (
	// ErrInterrupted is returned when the user cancels the line being edited.
	ErrInterrupted = errors.New("input interrupted")

	// ErrEndOfSession is returned when the user explicitly ends the session
	// from an interactive editor (Ctrl-D on an empty line). Exhausted streams
	// report io.EOF instead.
	ErrEndOfSession = errors.New("end of session")

	// ErrBadEncoding is returned when raw input cannot be decoded.
	ErrBadEncoding = errors.New("input is not valid in the configured encoding")
)

// Source is the narrow read contract every adapter implements. Next blocks
// until a line (without its terminator) is available.
type Source interface {
	Name() string
	Next(ctx context.Context) (string, error)
}

// Prompter is implemented by adapters that draw the prompt themselves.
type Prompter interface {
	Prompt(ctx context.Context, prompt string) (string, error)
}

// CompleteFunc returns whole-line candidates for the line typed so far.
type CompleteFunc func(line string) []string

// Completer is implemented by adapters that support tab completion.
type Completer interface {
	SetCompleter(fn CompleteFunc)
}

// SupportsPrompt reports whether src takes the prompt as an argument.
func SupportsPrompt(src Source) bool {
	_, ok := src.(Prompter)
	return ok
}

// SupportsCompletion reports whether src accepts a completion callback.
func SupportsCompletion(src Source) bool {
	_, ok := src.(Completer)
	return ok
}

// Echoes reports whether typed input shows up on the output terminal. Line
// editors draw their own echo; other sources may report it through an
// Echoes method.
func Echoes(src Source) bool {
	if e, ok := src.(interface{ Echoes() bool }); ok {
		return e.Echoes()
	}
	return SupportsPrompt(src)
}

// InstallCompleter sets fn on src when src supports completion.
func InstallCompleter(src Source, fn CompleteFunc) bool {
	c, ok := src.(Completer)
	if !ok {
		return false
	}
	c.SetCompleter(fn)
	return true
}

// Read reads one line from src. Adapters that cannot draw a prompt get it
// written to out first.
func Read(ctx context.Context, src Source, prompt string, out io.Writer) (string, error) {
	if p, ok := src.(Prompter); ok {
		return p.Prompt(ctx, prompt)
	}
	if prompt != "" && out != nil {
		io.WriteString(out, prompt)
		if f, ok := out.(interface{ Flush() error }); ok {
			f.Flush()
		}
	}
	return src.Next(ctx)
}

// Close closes src if it holds resources.
func Close(src Source) error {
	if c, ok := src.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

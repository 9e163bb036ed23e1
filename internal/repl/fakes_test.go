package repl

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/nextlevelbuilder/gorepl/internal/linesource"
)

var errBoom = errors.New("boom")

// step is one scripted read result.
type step struct {
	line  string
	err   error
	block bool          // wait for the read context to end
	ready chan struct{} // closed once a blocking read is waiting
}

func lines(ls ...string) []step {
	steps := make([]step, len(ls))
	for i, l := range ls {
		steps[i] = step{line: l}
	}
	return steps
}

// scriptSource replays steps, then reports io.EOF forever.
type scriptSource struct {
	name   string
	steps  []step
	pos    int
	reads  int
	closed int
}

func newScript(name string, steps ...step) *scriptSource {
	return &scriptSource{name: name, steps: steps}
}

func (s *scriptSource) Name() string { return s.name }

func (s *scriptSource) Next(ctx context.Context) (string, error) {
	s.reads++
	if s.pos >= len(s.steps) {
		return "", io.EOF
	}
	st := s.steps[s.pos]
	s.pos++
	if st.block {
		if st.ready != nil {
			close(st.ready)
		}
		<-ctx.Done()
		return "", ctx.Err()
	}
	return st.line, st.err
}

func (s *scriptSource) Close() error {
	s.closed++
	return nil
}

// editorSource behaves like a line editor: it draws prompts and completes.
type editorSource struct {
	*scriptSource
	prompts     []string
	complete    linesource.CompleteFunc
	completions [][]string
}

func newEditor(steps ...step) *editorSource {
	return &editorSource{scriptSource: newScript("editor", steps...)}
}

func (e *editorSource) Prompt(ctx context.Context, prompt string) (string, error) {
	e.prompts = append(e.prompts, prompt)
	if e.complete != nil {
		e.completions = append(e.completions, e.complete("pu"))
	}
	return e.Next(ctx)
}

func (e *editorSource) SetCompleter(fn linesource.CompleteFunc) { e.complete = fn }

// fakeEval buffers "if ... end" blocks and stops on a few keywords.
type fakeEval struct {
	inputs  []Input
	hooks   []string
	resets  int
	depth   int
	hookErr map[string]error
	onEval  func(Input)

	spinning chan struct{} // closed when "spin" starts waiting on its context
	cause    error         // why the "spin" context ended
}

func (f *fakeEval) CurrentPrompt() string {
	if f.depth > 0 {
		return "* "
	}
	return "> "
}

func (f *fakeEval) Eval(ctx context.Context, in Input) Verdict {
	f.inputs = append(f.inputs, in)
	if f.onEval != nil {
		f.onEval(in)
	}
	if in.EndOfSession {
		return Stop(nil)
	}
	text := strings.TrimSpace(in.Text)
	switch {
	case strings.HasPrefix(text, "if "):
		f.depth++
	case text == "end" && f.depth > 0:
		f.depth--
	case text == "exit":
		return Stop(42)
	case text == "boom":
		return Abort(errBoom)
	case text == "spin":
		if f.spinning != nil {
			close(f.spinning)
		}
		<-ctx.Done()
		f.cause = context.Cause(ctx)
	}
	return Continue()
}

func (f *fakeEval) ResetBuffer() {
	f.resets++
	f.depth = 0
}

func (f *fakeEval) IsBufferEmpty() bool { return f.depth == 0 }

func (f *fakeEval) Completion(partial string) []string {
	return []string{partial + "ts"}
}

func (f *fakeEval) ExecHook(_ context.Context, name string, _ io.Writer, _ *Session) error {
	f.hooks = append(f.hooks, name)
	return f.hookErr[name]
}

func (f *fakeEval) texts() []string {
	out := make([]string, 0, len(f.inputs))
	for _, in := range f.inputs {
		out = append(out, in.Text)
	}
	return out
}

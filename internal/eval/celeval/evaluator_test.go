package celeval

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/nextlevelbuilder/gorepl/internal/repl"
)

func feed(e *Evaluator, lines ...string) repl.Verdict {
	var v repl.Verdict
	for _, l := range lines {
		v = e.Eval(context.Background(), repl.Input{Text: l})
	}
	return v
}

func TestEval_ExpressionsAndBindings(t *testing.T) {
	var out bytes.Buffer
	e := New(&out)
	feed(e, "1 + 2", "let name = 'cel'", "name + '!'", "_ == 'cel!'")

	want := "3\nname = \"cel\"\n\"cel!\"\ntrue\n"
	if out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
}

func TestEval_MultiLine(t *testing.T) {
	var out bytes.Buffer
	e := New(&out)
	feed(e, "[1, 2,")
	if e.IsBufferEmpty() || e.CurrentPrompt() != DefaultContinuation {
		t.Fatal("open list should wait for more input")
	}
	feed(e, "3].size()")
	if out.String() != "3\n" || !e.IsBufferEmpty() {
		t.Errorf("output = %q", out.String())
	}
}

func TestEval_Errors(t *testing.T) {
	var out bytes.Buffer
	e := New(&out)
	feed(e, "undefined_var + 1")
	if !strings.Contains(out.String(), "undefined_var") || !e.IsBufferEmpty() {
		t.Errorf("output = %q", out.String())
	}
}

func TestEval_Meta(t *testing.T) {
	var out bytes.Buffer
	e := New(&out)
	feed(e, "let a = 1", ".vars")
	if !strings.Contains(out.String(), "_ = 1\na = 1\n") {
		t.Errorf(".vars output = %q", out.String())
	}
	feed(e, ".clear")
	out.Reset()
	feed(e, ".vars")
	if out.String() != "" {
		t.Errorf("bindings survived .clear: %q", out.String())
	}
	if v := feed(e, ".exit"); v.Kind != repl.VerdictStop {
		t.Errorf(".exit = %v", v)
	}
	if v := e.Eval(context.Background(), repl.Input{EndOfSession: true}); v.Kind != repl.VerdictStop {
		t.Errorf("end of session = %v", v)
	}
}

func TestCompletion(t *testing.T) {
	e := New(&bytes.Buffer{})
	feed(e, "let total = 10")
	got := e.Completion("1 + tot")
	if len(got) == 0 || got[0] != "1 + total" {
		t.Errorf("completions = %v", got)
	}
	if got := e.Completion("1 + "); got != nil {
		t.Errorf("completions without a word = %v", got)
	}
}

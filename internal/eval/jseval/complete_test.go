package jseval

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCompletion_Globals(t *testing.T) {
	e, _ := newTest(t, Options{})
	feed(t, e, "var counter = 1", "var count = 2")

	got := e.Completion("x = coun")
	if len(got) < 2 {
		t.Fatalf("completions = %v", got)
	}
	for _, c := range got[:2] {
		if c != "x = counter" && c != "x = count" {
			t.Errorf("unexpected candidate %q", c)
		}
	}
}

func TestCompletion_Properties(t *testing.T) {
	e, _ := newTest(t, Options{})
	got := e.Completion("Math.flo")
	if len(got) == 0 || got[0] != "Math.floor" {
		t.Errorf("completions = %v", got)
	}
	if got := e.Completion("nothing.here"); got != nil {
		t.Errorf("completions on an undefined path = %v", got)
	}
}

func TestCompletion_CacheInvalidatedByEval(t *testing.T) {
	e, _ := newTest(t, Options{})
	if got := e.Completion("zeb"); len(got) != 0 {
		t.Fatalf("completions = %v", got)
	}
	feed(t, e, "var zebra = 1")
	if diff := cmp.Diff([]string{"zebra"}, e.Completion("zeb")); diff != "" {
		t.Errorf("completions (-want +got):\n%s", diff)
	}
}

func TestCompletion_Meta(t *testing.T) {
	e, _ := newTest(t, Options{})
	if diff := cmp.Diff([]string{".exit"}, e.Completion(".ex")); diff != "" {
		t.Errorf("completions (-want +got):\n%s", diff)
	}
}

func TestCompletion_MetaNotOfferedInsideStatement(t *testing.T) {
	e, _ := newTest(t, Options{})
	if diff := cmp.Diff([]string{".exit"}, e.Completion(".ex")); diff != "" {
		t.Fatalf("completions (-want +got):\n%s", diff)
	}

	feed(t, e, "if (true) {")
	if e.IsBufferEmpty() {
		t.Fatal("statement should still be buffered")
	}
	for _, c := range e.Completion(".ex") {
		if c == ".exit" {
			t.Errorf("meta command offered inside a statement: %v", e.Completion(".ex"))
		}
	}
}

func TestSplitWord(t *testing.T) {
	head, word := splitWord("let y = Math.fl")
	if head != "let y = " || word != "Math.fl" {
		t.Errorf("splitWord = %q, %q", head, word)
	}
}

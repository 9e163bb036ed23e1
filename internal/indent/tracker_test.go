package indent

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

type step struct {
	line   string // as echoed after the prompt prefix
	text   string // corrected
	prefix string // prefix for the next prompt
}

func runSteps(t *testing.T, tr *Tracker, steps []step) {
	t.Helper()
	for i, s := range steps {
		c := tr.Advance(tr.Prefix() + s.line)
		if c.Text != s.text {
			t.Errorf("line %d %q: text = %q, want %q", i+1, s.line, c.Text, s.text)
		}
		if got := tr.Prefix(); got != s.prefix {
			t.Errorf("line %d %q: prefix = %q, want %q", i+1, s.line, got, s.prefix)
		}
	}
}

func TestTracker_IfEnd(t *testing.T) {
	tr := NewTracker(Keyword, "")
	var prompts []string
	for _, line := range []string{"if true", "puts 1", "end"} {
		prompts = append(prompts, tr.Prefix())
		tr.Advance(tr.Prefix() + line)
	}
	if diff := cmp.Diff([]string{"", "  ", "  "}, prompts); diff != "" {
		t.Errorf("prompt prefixes (-want +got):\n%s", diff)
	}
	if tr.Depth() != 0 || !tr.IsReset() {
		t.Errorf("depth after end = %d, want 0", tr.Depth())
	}
}

func TestTracker_EndIsCorrected(t *testing.T) {
	tr := NewTracker(Keyword, "")
	tr.Advance("if true")
	c := tr.Advance("  end")
	if !c.Changed || c.Text != "end" || c.Depth != 0 {
		t.Errorf("correction = %+v", c)
	}
}

func TestTracker_Keyword(t *testing.T) {
	runSteps(t, NewTracker(Keyword, ""), []step{
		{"def greet(name)", "def greet(name)", "  "},
		{"if name", "  if name", "    "},
		{"puts name", "    puts name", "    "},
		{"else", "  else", "    "},
		{"puts 'nobody' if quiet", "    puts 'nobody' if quiet", "    "},
		{"end", "  end", "  "},
		{"[1, 2].each do |x|", "  [1, 2].each do |x|", "    "},
		{"while x do", "    while x do", "      "},
		{"end", "    end", "    "},
		{"end", "  end", "  "},
		{"s = \"an end # not code\"", "  s = \"an end # not code\"", "  "},
		{"x.end # method call", "  x.end # method call", "  "},
		{"end", "end", ""},
	})
}

func TestTracker_CLike(t *testing.T) {
	runSteps(t, NewTracker(CLike, "    "), []step{
		{"function f(a) {", "function f(a) {", "    "},
		{"if (a) {", "    if (a) {", "        "},
		{"return [", "        return [", "            "},
		{"1, 2", "            1, 2", "            "},
		{"];", "        ];", "        "},
		{"} else {", "    } else {", "        "},
		{"return '}'; // }", "        return '}'; // }", "        "},
		{"}", "    }", "    "},
		{"}", "}", ""},
	})
}

func TestTracker_MultilineString(t *testing.T) {
	tr := NewTracker(CLike, "")
	tr.Advance("let s = `first {")
	if tr.Prefix() != "" || tr.IsReset() {
		t.Fatalf("inside template literal: prefix = %q reset = %v", tr.Prefix(), tr.IsReset())
	}
	c := tr.Advance("   kept as typed")
	if c.Changed || c.Text != "   kept as typed" {
		t.Errorf("string body was reindented: %+v", c)
	}
	tr.Advance("end`;")
	if !tr.IsReset() {
		t.Errorf("tracker not reset after closing quote, depth %d", tr.Depth())
	}
}

func TestTracker_ResetIsIdempotent(t *testing.T) {
	tr := NewTracker(Keyword, "")
	tr.Advance("class A")
	tr.Advance("def b")
	tr.Reset()
	if tr.Prefix() != "" || tr.Depth() != 0 || !tr.IsReset() {
		t.Errorf("after reset: prefix %q depth %d", tr.Prefix(), tr.Depth())
	}
	tr.Reset()
	if !tr.IsReset() {
		t.Error("second reset")
	}
}

func TestTracker_UnbalancedCloser(t *testing.T) {
	tr := NewTracker(CLike, "")
	c := tr.Advance("   )")
	if c.Text != ")" || c.Depth != 0 {
		t.Errorf("correction = %+v", c)
	}
}

func TestTracker_BlankLine(t *testing.T) {
	tr := NewTracker(CLike, "")
	tr.Advance("{")
	c := tr.Advance("  ")
	if c.Text != "" || c.Depth != 1 {
		t.Errorf("blank line correction = %+v", c)
	}
}

func TestByName(t *testing.T) {
	if g, ok := ByName("ruby"); !ok || g.Name != "keyword" {
		t.Errorf("ByName(ruby) = %v, %v", g.Name, ok)
	}
	if _, ok := ByName("cobol"); ok {
		t.Error("ByName(cobol) should fail")
	}
}

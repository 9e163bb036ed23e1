package jseval

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nextlevelbuilder/gorepl/internal/linesource"
	"github.com/nextlevelbuilder/gorepl/internal/recovery"
	"github.com/nextlevelbuilder/gorepl/internal/repl"
)

func TestSession_LoadFallsBackToStdin(t *testing.T) {
	script := filepath.Join(t.TempDir(), "lib.js")
	body := "function twice(x) {\nreturn x * 2\n}\nprint('loaded')\n"
	if err := os.WriteFile(script, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	stdin := strings.NewReader(".load " + script + "\ntwice(21)\n")
	def, err := linesource.NewStdio("stdio", stdin, "")
	if err != nil {
		t.Fatal(err)
	}
	defer def.Close()

	var out bytes.Buffer
	e := New(Options{Output: &out, Prompt: "> ", Continuation: ". "})
	s := repl.NewSession(e, repl.Options{
		DefaultSource: def,
		Output:        &out,
		Retry:         recovery.DefaultRetryConfig(),
		AutoIndent:    true,
	}, nil)

	exit, err := s.Start(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if exit.Reason != repl.ExitExhausted {
		t.Errorf("reason = %v", exit.Reason)
	}
	got := out.String()
	if !strings.Contains(got, "loaded\n") || !strings.Contains(got, "42\n") {
		t.Errorf("output = %q", got)
	}
	if strings.Index(got, "loaded") > strings.Index(got, "42") {
		t.Error("stdin line evaluated before the loaded script finished")
	}
	// The function body was read at depth 1.
	if !strings.Contains(got, ". ") {
		t.Errorf("continuation prompt missing: %q", got)
	}
}

package linesource

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type promptingSource struct {
	gotPrompt string
	complete  CompleteFunc
}

func (p *promptingSource) Name() string { return "prompting" }

func (p *promptingSource) Next(ctx context.Context) (string, error) { return p.Prompt(ctx, "") }

func (p *promptingSource) Prompt(_ context.Context, prompt string) (string, error) {
	p.gotPrompt = prompt
	return "typed", nil
}

func (p *promptingSource) SetCompleter(fn CompleteFunc) { p.complete = fn }

func TestRead_PromptCapability(t *testing.T) {
	var out bytes.Buffer
	src := &promptingSource{}

	line, err := Read(context.Background(), src, "js> ", &out)
	if err != nil {
		t.Fatal(err)
	}
	if line != "typed" {
		t.Errorf("line = %q", line)
	}
	if src.gotPrompt != "js> " {
		t.Errorf("prompt passed = %q, want %q", src.gotPrompt, "js> ")
	}
	if out.Len() != 0 {
		t.Errorf("prompt should not be written for prompting adapters, got %q", out.String())
	}
}

func TestRead_PlainSourceGetsPromptWritten(t *testing.T) {
	var out bytes.Buffer
	src, err := NewStdio("stdio", strings.NewReader("x\n"), "")
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()

	line, err := Read(context.Background(), src, "> ", &out)
	if err != nil {
		t.Fatal(err)
	}
	if line != "x" || out.String() != "> " {
		t.Errorf("line = %q, out = %q", line, out.String())
	}
}

func TestCapabilities(t *testing.T) {
	plain, _ := NewStdio("stdio", strings.NewReader(""), "")
	defer plain.Close()
	prompting := &promptingSource{}

	if SupportsPrompt(plain) || SupportsCompletion(plain) {
		t.Error("stdio source should not report prompt or completion support")
	}
	if !SupportsPrompt(prompting) || !SupportsCompletion(prompting) {
		t.Error("prompting source should report both capabilities")
	}

	if Echoes(plain) || !Echoes(prompting) {
		t.Error("only the prompting source echoes here")
	}

	if InstallCompleter(plain, func(string) []string { return nil }) {
		t.Error("InstallCompleter on stdio should report false")
	}
	if !InstallCompleter(prompting, func(line string) []string { return []string{line + "!"} }) {
		t.Fatal("InstallCompleter should succeed")
	}
	if got := prompting.complete("a"); len(got) != 1 || got[0] != "a!" {
		t.Errorf("installed completer returned %v", got)
	}
}

func TestCompletionSuffixes(t *testing.T) {
	got := completionSuffixes("Ma", []string{"Math", "Map", "xMa", "Ma"})
	want := [][]rune{[]rune("th"), []rune("p")}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("suffixes (-want +got):\n%s", diff)
	}
}

func TestOpen_UnknownAdapter(t *testing.T) {
	if _, err := Open("teletype", OpenOptions{Stdin: strings.NewReader("")}); err == nil {
		t.Error("expected error for unknown adapter")
	}
}

func TestOpen_AutoNonInteractiveIsStdio(t *testing.T) {
	src, err := Open(AdapterAuto, OpenOptions{Stdin: strings.NewReader("")})
	if err != nil {
		t.Fatal(err)
	}
	defer Close(src)
	if src.Name() != AdapterStdio {
		t.Errorf("auto adapter = %q, want stdio", src.Name())
	}
}

package cmd

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/nextlevelbuilder/gorepl/internal/config"
	"github.com/nextlevelbuilder/gorepl/internal/repl"
	"github.com/nextlevelbuilder/gorepl/internal/terminal"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		exit repl.Exit
		want int
	}{
		{repl.Exit{Reason: repl.ExitExhausted}, 0},
		{repl.Exit{Reason: repl.ExitCanceled}, 0},
		{repl.Exit{Reason: repl.ExitRequested}, 0},
		{repl.Exit{Reason: repl.ExitRequested, Value: 3}, 3},
		{repl.Exit{Reason: repl.ExitRequested, Value: int64(7)}, 7},
		{repl.Exit{Reason: repl.ExitRequested, Value: float64(2)}, 2},
		{repl.Exit{Reason: repl.ExitRequested, Value: "bye"}, 0},
	}
	for _, tt := range tests {
		if got := exitCode(tt.exit); got != tt.want {
			t.Errorf("exitCode(%v, %v) = %d, want %d", tt.exit.Reason, tt.exit.Value, got, tt.want)
		}
	}
}

func TestReplFlagsApply(t *testing.T) {
	cfg := config.Default()
	replFlags{input: "Editor", lang: "JavaScript", script: "init.js", noIndent: true, noColor: true}.apply(cfg)

	if cfg.Input.Adapter != "liner" {
		t.Errorf("Adapter = %q, want %q", cfg.Input.Adapter, "liner")
	}
	if cfg.Evaluator.Lang != "js" {
		t.Errorf("Lang = %q, want %q", cfg.Evaluator.Lang, "js")
	}
	if cfg.Input.Script != "init.js" {
		t.Errorf("Script = %q, want %q", cfg.Input.Script, "init.js")
	}
	if cfg.Indent.Auto {
		t.Error("Indent.Auto should be off with --no-indent")
	}
	if cfg.Output.Color {
		t.Error("Output.Color should be off with --no-color")
	}
}

func TestReplFlagsApplyKeepsConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Evaluator.Lang = "cel"
	replFlags{}.apply(cfg)
	if cfg.Evaluator.Lang != "cel" {
		t.Errorf("Lang = %q, want %q", cfg.Evaluator.Lang, "cel")
	}
	if !cfg.Indent.Auto {
		t.Error("Indent.Auto should be unchanged without flags")
	}
}

func TestProbeOutputOverrides(t *testing.T) {
	var buf bytes.Buffer

	p, err := probeOutput(&buf, config.OutputConfig{Interactive: "auto", Family: "auto"})
	if err != nil {
		t.Fatalf("probeOutput: %v", err)
	}
	if p.Interactive {
		t.Error("a buffer should not probe as interactive")
	}

	p, err = probeOutput(&buf, config.OutputConfig{Interactive: "always", Family: "basic"})
	if err != nil {
		t.Fatalf("probeOutput: %v", err)
	}
	if !p.Interactive {
		t.Error("interactive=always should force interactive")
	}
	if p.Family != terminal.FamilyBasic {
		t.Errorf("Family = %v, want %v", p.Family, terminal.FamilyBasic)
	}

	if _, err := probeOutput(&buf, config.OutputConfig{Family: "vt52"}); err == nil {
		t.Error("expected an error for an unknown family")
	}
}

func TestNewEvaluatorLang(t *testing.T) {
	var buf bytes.Buffer
	for _, lang := range []string{"js", "cel"} {
		cfg := config.Default()
		cfg.Evaluator.Lang = lang
		cfg.Evaluator.RCFile = ""
		if _, err := newEvaluator(cfg, &buf); err != nil {
			t.Errorf("newEvaluator(%q): %v", lang, err)
		}
	}

	cfg := config.Default()
	cfg.Evaluator.Lang = "lua"
	if _, err := newEvaluator(cfg, &buf); err == nil {
		t.Error("expected an error for an unknown language")
	}
}

func TestResolveConfigPath(t *testing.T) {
	dir := t.TempDir()
	env := filepath.Join(dir, "env.yaml")
	t.Setenv(config.EnvConfigPath, env)

	cfgFile = ""
	if got := resolveConfigPath(); got != env {
		t.Errorf("resolveConfigPath() = %q, want %q", got, env)
	}

	flag := filepath.Join(dir, "flag.json5")
	cfgFile = flag
	defer func() { cfgFile = "" }()
	if got := resolveConfigPath(); got != flag {
		t.Errorf("resolveConfigPath() = %q, want %q", got, flag)
	}
}

func TestRedactConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Telemetry.Headers = map[string]string{"authorization": "Bearer abcdefghijkl"}

	raw := redactConfig(cfg).(map[string]interface{})
	tel := raw["telemetry"].(map[string]interface{})
	headers := tel["headers"].(map[string]interface{})
	if got := headers["authorization"]; got != "Bear****ijkl" {
		t.Errorf("authorization = %q, want %q", got, "Bear****ijkl")
	}
}

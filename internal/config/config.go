// Package config loads the REPL configuration from a json5 or yaml file.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/titanous/json5"
	"gopkg.in/yaml.v3"
)

// EnvConfigPath overrides the default config location.
const EnvConfigPath = "GOREPL_CONFIG"

// Config is the root configuration.
type Config struct {
	Input     InputConfig     `json:"input" yaml:"input"`
	Output    OutputConfig    `json:"output" yaml:"output"`
	Retry     RetryConfig     `json:"retry" yaml:"retry"`
	Indent    IndentConfig    `json:"indent" yaml:"indent"`
	Evaluator EvaluatorConfig `json:"evaluator" yaml:"evaluator"`
	Logging   LoggingConfig   `json:"logging" yaml:"logging"`
	Telemetry TelemetryConfig `json:"telemetry" yaml:"telemetry"`
}

// InputConfig selects the default input adapter.
type InputConfig struct {
	Adapter  string `json:"adapter" yaml:"adapter"`   // auto, stdio, liner, readline
	Encoding string `json:"encoding" yaml:"encoding"` // e.g. "latin1"; empty = utf-8
	Script   string `json:"script,omitempty" yaml:"script,omitempty"`
	Connect  string `json:"connect,omitempty" yaml:"connect,omitempty"` // ws:// feed read before stdin
}

// OutputConfig describes the output sink and terminal handling.
type OutputConfig struct {
	Stream      string `json:"stream" yaml:"stream"`           // stdout, stderr
	Interactive string `json:"interactive" yaml:"interactive"` // auto, always, never
	Family      string `json:"family" yaml:"family"`           // auto, ansi, basic
	CursorReset bool   `json:"cursorReset" yaml:"cursorReset"`
	Color       bool   `json:"color" yaml:"color"`
}

// RetryConfig controls bounded retry of input faults.
type RetryConfig struct {
	Kinds  []string `json:"kinds" yaml:"kinds"`
	Budget int      `json:"budget" yaml:"budget"`
	Pacing string   `json:"pacing,omitempty" yaml:"pacing,omitempty"` // duration, e.g. "50ms"
}

// IndentConfig controls auto-indentation.
type IndentConfig struct {
	Auto              bool   `json:"auto" yaml:"auto"`
	CorrectOnTerminal bool   `json:"correctOnTerminal" yaml:"correctOnTerminal"`
	Unit              string `json:"unit" yaml:"unit"`
	Grammar           string `json:"grammar,omitempty" yaml:"grammar,omitempty"` // empty = evaluator's
}

// EvaluatorConfig selects and configures the language.
type EvaluatorConfig struct {
	Lang         string `json:"lang" yaml:"lang"` // js, cel
	Prompt       string `json:"prompt,omitempty" yaml:"prompt,omitempty"`
	Continuation string `json:"continuation,omitempty" yaml:"continuation,omitempty"`
	IgnoreEOF    bool   `json:"ignoreEof" yaml:"ignoreEof"`
	RCFile       string `json:"rcFile,omitempty" yaml:"rcFile,omitempty"`
}

// LoggingConfig configures slog output.
type LoggingConfig struct {
	Level string `json:"level" yaml:"level"`
	File  string `json:"file,omitempty" yaml:"file,omitempty"`
}

// TelemetryConfig configures OTLP span export (builds with -tags otel).
type TelemetryConfig struct {
	Enabled     bool              `json:"enabled" yaml:"enabled"`
	Endpoint    string            `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	Protocol    string            `json:"protocol,omitempty" yaml:"protocol,omitempty"`
	Insecure    bool              `json:"insecure,omitempty" yaml:"insecure,omitempty"`
	ServiceName string            `json:"serviceName,omitempty" yaml:"serviceName,omitempty"`
	Headers     map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Input:  InputConfig{Adapter: "auto"},
		Output: OutputConfig{Stream: "stdout", Interactive: "auto", Family: "auto", CursorReset: true, Color: true},
		Retry: RetryConfig{
			Kinds:  []string{"eio", "eintr", "eagain", "timeout", "unexpected_eof", "encoding"},
			Budget: 5,
		},
		Indent:    IndentConfig{Auto: true, CorrectOnTerminal: true, Unit: "  "},
		Evaluator: EvaluatorConfig{Lang: "js", RCFile: "~/.gorepl/rc.js"},
		Logging:   LoggingConfig{Level: "warn"},
	}
}

// DefaultPath is $GOREPL_CONFIG or ~/.gorepl/config.json5.
func DefaultPath() string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return ExpandHome(p)
	}
	return ExpandHome("~/.gorepl/config.json5")
}

// Load reads path over the defaults. A missing file yields Default().
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if isYAML(path) {
		err = yaml.Unmarshal(data, cfg)
	} else {
		err = json5.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg to path, as yaml for .yaml/.yml and JSON otherwise.
func Save(path string, cfg *Config) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(cfg)
	} else {
		data, err = json.MarshalIndent(cfg, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0o600)
}

// PacingDuration parses Retry.Pacing; an empty value is zero.
func (c *Config) PacingDuration() time.Duration {
	d, _ := time.ParseDuration(c.Retry.Pacing)
	return d
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

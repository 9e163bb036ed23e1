package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/nextlevelbuilder/gorepl/internal/linesource"
	"github.com/nextlevelbuilder/gorepl/internal/recovery"
)

// ValidationError lists every problem found in a config.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid config: " + strings.Join(e.Problems, "; ")
}

var (
	validAdapters    = linesource.Adapters()
	validStreams     = []string{"stdout", "stderr"}
	validInteractive = []string{"auto", "always", "never"}
	validFamilies    = []string{"auto", "ansi", "basic"}
	validKinds       = recovery.KnownKinds()
	validLangs       = []string{"js", "cel"}
	validGrammars    = []string{"", "clike", "keyword"}
	validLevels      = []string{"debug", "info", "warn", "error"}
	validProtocols   = []string{"", "grpc", "http"}
)

// Validate checks enumerated fields and ranges. Call Normalize first.
func (c *Config) Validate() error {
	var problems []string
	check := func(field, value string, allowed []string) {
		for _, a := range allowed {
			if value == a {
				return
			}
		}
		problems = append(problems, fmt.Sprintf("%s: %q is not one of %s", field, value, strings.Join(nonEmpty(allowed), ", ")))
	}

	check("input.adapter", c.Input.Adapter, validAdapters)
	if c.Input.Connect != "" {
		if !strings.HasPrefix(c.Input.Connect, "ws://") && !strings.HasPrefix(c.Input.Connect, "wss://") {
			problems = append(problems, fmt.Sprintf("input.connect: %q is not a ws:// or wss:// URL", c.Input.Connect))
		}
		if c.Input.Script != "" {
			problems = append(problems, "input.connect: cannot be combined with input.script")
		}
	}
	check("output.stream", c.Output.Stream, validStreams)
	check("output.interactive", c.Output.Interactive, validInteractive)
	check("output.family", c.Output.Family, validFamilies)
	for _, k := range c.Retry.Kinds {
		check("retry.kinds", k, validKinds)
	}
	if c.Retry.Budget < 1 {
		problems = append(problems, fmt.Sprintf("retry.budget: must be at least 1, got %d", c.Retry.Budget))
	}
	if c.Retry.Pacing != "" {
		if d, err := time.ParseDuration(c.Retry.Pacing); err != nil || d < 0 {
			problems = append(problems, fmt.Sprintf("retry.pacing: %q is not a duration", c.Retry.Pacing))
		}
	}
	if strings.TrimSpace(c.Indent.Unit) != "" {
		problems = append(problems, "indent.unit: must contain only spaces or tabs")
	}
	check("indent.grammar", c.Indent.Grammar, validGrammars)
	check("evaluator.lang", c.Evaluator.Lang, validLangs)
	check("logging.level", c.Logging.Level, validLevels)
	check("telemetry.protocol", c.Telemetry.Protocol, validProtocols)
	if c.Telemetry.Enabled && c.Telemetry.Endpoint == "" {
		problems = append(problems, "telemetry.endpoint: required when telemetry is enabled")
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

package config

import (
	"regexp"
	"strings"
)

var (
	invalidChars = regexp.MustCompile(`[^a-z0-9_]+`)
	edgeUnders   = regexp.MustCompile(`^_+|_+$`)
)

var aliases = map[string]string{
	// adapters
	"editor": "liner",
	"plain":  "stdio",
	"pipe":   "stdio",
	// families
	"vt":    "ansi",
	"xterm": "ansi",
	"dumb":  "basic",
	// languages
	"javascript": "js",
	"ecmascript": "js",
	// grammars
	"ruby": "keyword",
	"c":    "clike",
	// levels
	"warning": "warn",
}

// NormalizeName lowercases a user-provided enum value, resolves aliases
// and turns separators into underscores ("Unexpected-EOF" becomes
// "unexpected_eof").
func NormalizeName(name string) string {
	lower := strings.ToLower(strings.TrimSpace(name))
	if lower == "" {
		return ""
	}
	result := invalidChars.ReplaceAllString(lower, "_")
	result = edgeUnders.ReplaceAllString(result, "")
	if a, ok := aliases[result]; ok {
		return a
	}
	return result
}

// Normalize canonicalizes every enumerated field in place.
func (c *Config) Normalize() {
	c.Input.Adapter = orDefault(NormalizeName(c.Input.Adapter), "auto")
	c.Output.Stream = orDefault(NormalizeName(c.Output.Stream), "stdout")
	c.Output.Interactive = orDefault(NormalizeName(c.Output.Interactive), "auto")
	c.Output.Family = orDefault(NormalizeName(c.Output.Family), "auto")
	for i, k := range c.Retry.Kinds {
		c.Retry.Kinds[i] = NormalizeName(k)
	}
	c.Indent.Grammar = NormalizeName(c.Indent.Grammar)
	c.Evaluator.Lang = orDefault(NormalizeName(c.Evaluator.Lang), "js")
	c.Logging.Level = orDefault(NormalizeName(c.Logging.Level), "warn")
	c.Telemetry.Protocol = NormalizeName(c.Telemetry.Protocol)
	if c.Indent.Unit == "" {
		c.Indent.Unit = "  "
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

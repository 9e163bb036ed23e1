package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/gorepl/internal/bus"
	"github.com/nextlevelbuilder/gorepl/internal/config"
	"github.com/nextlevelbuilder/gorepl/internal/eval/celeval"
	"github.com/nextlevelbuilder/gorepl/internal/eval/jseval"
	"github.com/nextlevelbuilder/gorepl/internal/indent"
	"github.com/nextlevelbuilder/gorepl/internal/linesource"
	"github.com/nextlevelbuilder/gorepl/internal/recovery"
	"github.com/nextlevelbuilder/gorepl/internal/repl"
	"github.com/nextlevelbuilder/gorepl/internal/terminal"
	"github.com/nextlevelbuilder/gorepl/internal/tracing"
)

// replFlags are the per-run overrides shared by the root and repl commands.
type replFlags struct {
	input    string
	script   string
	connect  string
	lang     string
	encoding string
	noIndent bool
	noColor  bool
}

func (f *replFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.input, "input", "", "input adapter: auto, stdio, liner, readline")
	cmd.Flags().StringVar(&f.script, "script", "", "read statements from this file first, then fall back to stdin")
	cmd.Flags().StringVar(&f.connect, "connect", "", "read statements from a ws:// feed first, then fall back to stdin")
	cmd.Flags().StringVarP(&f.lang, "lang", "l", "", "evaluator language: js, cel")
	cmd.Flags().StringVar(&f.encoding, "encoding", "", "input encoding (default utf-8)")
	cmd.Flags().BoolVar(&f.noIndent, "no-indent", false, "disable auto-indentation")
	cmd.Flags().BoolVar(&f.noColor, "no-color", false, "disable colored output")
}

func (f replFlags) apply(cfg *config.Config) {
	if f.input != "" {
		cfg.Input.Adapter = config.NormalizeName(f.input)
	}
	if f.script != "" {
		cfg.Input.Script = f.script
	}
	if f.connect != "" {
		cfg.Input.Connect = f.connect
	}
	if f.lang != "" {
		cfg.Evaluator.Lang = config.NormalizeName(f.lang)
	}
	if f.encoding != "" {
		cfg.Input.Encoding = f.encoding
	}
	if f.noIndent {
		cfg.Indent.Auto = false
	}
	if f.noColor {
		cfg.Output.Color = false
	}
}

func replCmd() *cobra.Command {
	var flags replFlags
	cmd := &cobra.Command{
		Use:   "repl [script]",
		Short: "Start an interactive session (default command)",
		Args:  cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) == 1 {
				flags.script = args[0]
			}
			os.Exit(runREPL(flags))
		},
	}
	flags.bind(cmd)
	return cmd
}

// promptSetter is implemented by every evaluator; hot reload uses it.
type promptSetter interface {
	SetPrompts(prompt, continuation string)
}

// runREPL runs one session and returns the process exit code.
func runREPL(flags replFlags) int {
	cfgPath := resolveConfigPath()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %s\n", err)
		return 1
	}
	flags.apply(cfg)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return 1
	}

	closeLog, err := setupLogging(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return 1
	}
	defer closeLog()

	if !cfg.Output.Color {
		os.Setenv("NO_COLOR", "1")
	}

	out := outputStream(cfg.Output.Stream)
	probe, err := probeOutput(out, cfg.Output)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return 1
	}

	def, err := linesource.Open(cfg.Input.Adapter, linesource.OpenOptions{
		Stdin:       os.Stdin,
		Encoding:    cfg.Input.Encoding,
		Interactive: probe.Interactive && terminal.IsInteractive(os.Stdin),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening input: %s\n", err)
		return 1
	}
	defer linesource.Close(def)

	var initial linesource.Source
	if cfg.Input.Script != "" {
		src, err := linesource.OpenFile(config.ExpandHome(cfg.Input.Script), cfg.Input.Encoding)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
			return 1
		}
		initial = src
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	if cfg.Input.Connect != "" {
		src, err := linesource.DialWebSocket(ctx, cfg.Input.Connect, cfg.Input.Encoding)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
			return 1
		}
		initial = src
	}

	eval, err := newEvaluator(cfg, out)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return 1
	}

	var grammar *indent.Grammar
	if cfg.Indent.Grammar != "" {
		if g, ok := indent.ByName(cfg.Indent.Grammar); ok {
			grammar = &g
		}
	}

	sigs := recovery.NotifyInterrupts()
	defer sigs.Stop()

	events := bus.New()
	events.Subscribe("log", bus.LogHandler(slog.Default()))

	var tracer *tracing.Collector
	if exp := newSpanExporter(ctx, cfg); exp != nil {
		tracer = tracing.NewCollector(time.Second)
		tracer.SetExporter(exp)
		tracer.Start()
		defer tracer.Stop()
	}

	if ps, ok := eval.(promptSetter); ok {
		if w := startWatcher(cfgPath, ps); w != nil {
			defer w.Stop()
		}
	}

	session := repl.NewSession(eval, repl.Options{
		DefaultSource: def,
		Output:        out,
		Probe:         probe,
		Retry: recovery.RetryConfig{
			Kinds:  recovery.Kinds(cfg.Retry.Kinds),
			Budget: cfg.Retry.Budget,
			Pacing: cfg.PacingDuration(),
			Remedy: recovery.DefaultRemedy(cfgPath),
		},
		AutoIndent:        cfg.Indent.Auto,
		CorrectOnTerminal: cfg.Indent.CorrectOnTerminal,
		CursorReset:       cfg.Output.CursorReset,
		IndentUnit:        cfg.Indent.Unit,
		Grammar:           grammar,
		Interrupts:        sigs,
		Events:            events,
		Tracer:            tracer,
	}, initial)

	exit, err := session.Start(ctx)
	if err != nil {
		var abort *jseval.AbortError
		if errors.As(err, &abort) {
			fmt.Fprintf(os.Stderr, "Aborted: %s\n", abort.Message)
			return 1
		}
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return 1
	}
	slog.Debug("session ended", "reason", exit.Reason.String())
	return exitCode(exit)
}

func newEvaluator(cfg *config.Config, out io.Writer) (repl.Evaluator, error) {
	switch cfg.Evaluator.Lang {
	case "", "js":
		rc := cfg.Evaluator.RCFile
		if rc != "" {
			rc = config.ExpandHome(rc)
		}
		return jseval.New(jseval.Options{
			Prompt:       cfg.Evaluator.Prompt,
			Continuation: cfg.Evaluator.Continuation,
			IgnoreEOF:    cfg.Evaluator.IgnoreEOF,
			RCFile:       rc,
			Encoding:     cfg.Input.Encoding,
			Output:       out,
		}), nil
	case "cel":
		ev := celeval.New(out)
		ev.SetPrompts(cfg.Evaluator.Prompt, cfg.Evaluator.Continuation)
		return ev, nil
	}
	return nil, fmt.Errorf("unknown evaluator language %q (want js or cel)", cfg.Evaluator.Lang)
}

func outputStream(name string) io.Writer {
	if name == "stderr" {
		return os.Stderr
	}
	return os.Stdout
}

// probeOutput detects the output terminal, then applies config overrides.
func probeOutput(out io.Writer, cfg config.OutputConfig) (terminal.Probe, error) {
	probe := terminal.Detect(out)
	switch cfg.Interactive {
	case "always":
		probe.Interactive = true
	case "never":
		probe.Interactive = false
	}
	if cfg.Family != "" && cfg.Family != "auto" {
		f, err := terminal.ParseFamily(cfg.Family)
		if err != nil {
			return probe, err
		}
		probe.Family = f
	}
	return probe, nil
}

// startWatcher reloads prompts when the config file changes. Other settings
// take effect on the next run.
func startWatcher(path string, ps promptSetter) *config.Watcher {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	w, err := config.NewWatcher(path)
	if err != nil {
		slog.Debug("config watcher unavailable", "error", err)
		return nil
	}
	w.OnChange(func(c *config.Config) {
		ps.SetPrompts(c.Evaluator.Prompt, c.Evaluator.Continuation)
		slog.Info("prompts reloaded", "path", path)
	})
	if err := w.Start(); err != nil {
		slog.Debug("config watcher unavailable", "error", err)
		w.Stop()
		return nil
	}
	return w
}

// exitCode maps a deliberate exit to a process status. Numeric exit values
// become the status; anything else is success.
func exitCode(exit repl.Exit) int {
	if exit.Reason != repl.ExitRequested {
		return 0
	}
	switch v := exit.Value.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

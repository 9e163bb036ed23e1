package cmd

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/gorepl/internal/config"
	"github.com/nextlevelbuilder/gorepl/internal/linesource"
	"github.com/nextlevelbuilder/gorepl/internal/terminal"
)

var (
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))
	headStyle = lipgloss.NewStyle().Bold(true)
)

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check terminal environment and configuration health",
		Run: func(cmd *cobra.Command, args []string) {
			runDoctor()
		},
	}
}

func runDoctor() {
	fmt.Println(headStyle.Render("gorepl doctor"))
	fmt.Printf("  Version:  %s\n", Version)
	fmt.Printf("  OS:       %s/%s\n", runtime.GOOS, runtime.GOARCH)
	fmt.Printf("  Go:       %s\n", runtime.Version())
	fmt.Println()

	cfgPath := resolveConfigPath()
	fmt.Printf("  Config:   %s", cfgPath)
	if _, err := os.Stat(cfgPath); err != nil {
		fmt.Println(warnStyle.Render(" (NOT FOUND, using defaults)"))
	} else {
		fmt.Println(okStyle.Render(" (OK)"))
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Printf("  Config load error: %s\n", err)
		return
	}

	fmt.Println()
	fmt.Println("  Terminal:")
	checkStream("stdin:", terminal.IsInteractive(os.Stdin))
	out := outputStream(cfg.Output.Stream)
	probe, err := probeOutput(out, cfg.Output)
	if err != nil {
		fmt.Printf("    %-12s %s\n", "output:", warnStyle.Render(err.Error()))
	} else {
		checkStream(cfg.Output.Stream+":", probe.Interactive)
		fmt.Printf("    %-12s %s\n", "family:", probe.Family)
		width := "unknown"
		if probe.Width > 0 {
			width = fmt.Sprintf("%d columns", probe.Width)
		}
		fmt.Printf("    %-12s %s\n", "width:", width)
	}
	term := os.Getenv("TERM")
	if term == "" {
		term = "(unset)"
	}
	fmt.Printf("    %-12s %s\n", "TERM:", term)

	fmt.Println()
	fmt.Println("  Session:")
	fmt.Printf("    %-12s %s (available: %s)\n", "adapter:", cfg.Input.Adapter, strings.Join(linesource.Adapters(), ", "))
	fmt.Printf("    %-12s %s\n", "language:", cfg.Evaluator.Lang)
	fmt.Printf("    %-12s %s (budget %d)\n", "retry:", strings.Join(cfg.Retry.Kinds, ", "), cfg.Retry.Budget)
	indentStatus := "off"
	if cfg.Indent.Auto {
		indentStatus = "on"
	}
	fmt.Printf("    %-12s %s\n", "indent:", indentStatus)
	if cfg.Evaluator.RCFile != "" {
		rc := config.ExpandHome(cfg.Evaluator.RCFile)
		if _, err := os.Stat(rc); err != nil {
			fmt.Printf("    %-12s %s %s\n", "rc file:", rc, warnStyle.Render("(not found)"))
		} else {
			fmt.Printf("    %-12s %s %s\n", "rc file:", rc, okStyle.Render("(OK)"))
		}
	}

	fmt.Println()
	fmt.Println("Doctor check complete.")
}

func checkStream(name string, tty bool) {
	if tty {
		fmt.Printf("    %-12s %s\n", name, okStyle.Render("terminal"))
	} else {
		fmt.Printf("    %-12s %s\n", name, warnStyle.Render("not a terminal"))
	}
}

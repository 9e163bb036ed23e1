package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/gorepl/internal/config"
)

// Version is set at build time with -ldflags "-X .../cmd.Version=...".
var Version = "dev"

var (
	cfgFile string
	verbose bool
)

func rootCmd() *cobra.Command {
	var flags replFlags
	cmd := &cobra.Command{
		Use:   "gorepl [script]",
		Short: "Interactive JavaScript and CEL shell",
		Long: `gorepl reads statements from the terminal, a pipe or a script file and
evaluates them one at a time.

Examples:
  gorepl                         # interactive JavaScript
  gorepl --lang cel              # CEL expressions
  gorepl init.js                 # run init.js, then continue interactively
  echo '1 + 1' | gorepl          # evaluate piped input`,
		Args: cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) == 1 {
				flags.script = args[0]
			}
			os.Exit(runREPL(flags))
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $GOREPL_CONFIG or ~/.gorepl/config.json5)")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	flags.bind(cmd)

	cmd.AddCommand(replCmd())
	cmd.AddCommand(configCmd())
	cmd.AddCommand(doctorCmd())
	cmd.AddCommand(versionCmd())
	return cmd
}

// Execute runs the command line.
func Execute() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func resolveConfigPath() string {
	if cfgFile != "" {
		return config.ExpandHome(cfgFile)
	}
	return config.DefaultPath()
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("gorepl %s\n", Version)
		},
	}
}

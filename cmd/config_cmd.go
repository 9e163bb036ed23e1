package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/gorepl/internal/config"
	"github.com/nextlevelbuilder/gorepl/internal/recovery"
)

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "View and manage configuration",
	}
	cmd.AddCommand(configShowCmd())
	cmd.AddCommand(configPathCmd())
	cmd.AddCommand(configValidateCmd())
	cmd.AddCommand(configInitCmd())
	return cmd
}

func configShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display current configuration (secrets redacted)",
		Run: func(cmd *cobra.Command, args []string) {
			cfgPath := resolveConfigPath()
			cfg, err := config.Load(cfgPath)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error loading config: %s\n", err)
				os.Exit(1)
			}

			redacted := redactConfig(cfg)
			data, _ := json.MarshalIndent(redacted, "", "  ")
			fmt.Println(string(data))
		},
	}
}

func configPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file path",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(resolveConfigPath())
		},
	}
}

func configValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration file",
		Run: func(cmd *cobra.Command, args []string) {
			cfgPath := resolveConfigPath()
			_, err := config.Load(cfgPath)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Invalid config: %s\n", err)
				os.Exit(1)
			}
			fmt.Printf("Config at %s is valid.\n", cfgPath)
		},
	}
}

func configInitCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a config file interactively",
		Run: func(cmd *cobra.Command, args []string) {
			cfgPath := resolveConfigPath()
			if _, err := os.Stat(cfgPath); err == nil && !force {
				fmt.Fprintf(os.Stderr, "Config already exists at %s (use --force to overwrite)\n", cfgPath)
				os.Exit(1)
			}
			cfg, err := runConfigWizard(config.Default())
			if errors.Is(err, errWizardAborted) {
				fmt.Fprintln(os.Stderr, "Aborted, nothing written.")
				os.Exit(1)
			}
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %s\n", err)
				os.Exit(1)
			}
			if err := config.Save(cfgPath, cfg); err != nil {
				fmt.Fprintf(os.Stderr, "Error saving config: %s\n", err)
				os.Exit(1)
			}
			fmt.Printf("Config written to %s\n", cfgPath)
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")
	return cmd
}

func runConfigWizard(cfg *config.Config) (*config.Config, error) {
	lang, err := promptSelect("Evaluator language", "", []SelectOption[string]{
		{Label: "JavaScript", Value: "js"},
		{Label: "CEL (Common Expression Language)", Value: "cel"},
	}, 0)
	if err != nil {
		return nil, err
	}
	cfg.Evaluator.Lang = lang

	adapter, err := promptSelect("Input adapter", "Used when no script or feed is given", []SelectOption[string]{
		{Label: "auto (line editor on a terminal, plain stdin otherwise)", Value: "auto"},
		{Label: "liner", Value: "liner"},
		{Label: "readline", Value: "readline"},
		{Label: "stdio (no line editing)", Value: "stdio"},
	}, 0)
	if err != nil {
		return nil, err
	}
	cfg.Input.Adapter = adapter

	prompt, err := promptString("Prompt", "Shown before each statement; empty keeps the evaluator default", "")
	if err != nil {
		return nil, err
	}
	cfg.Evaluator.Prompt = prompt

	if cfg.Indent.Auto, err = promptConfirm("Auto-indent continuation lines?", true); err != nil {
		return nil, err
	}

	kinds := make([]SelectOption[string], 0, len(recovery.KnownKinds()))
	for _, k := range recovery.KnownKinds() {
		kinds = append(kinds, SelectOption[string]{Label: k, Value: k})
	}
	if cfg.Retry.Kinds, err = promptMultiSelect("Retryable input errors",
		"Faults of these kinds are reported and the read is retried", kinds, cfg.Retry.Kinds); err != nil {
		return nil, err
	}

	if cfg.Telemetry.Enabled, err = promptConfirm("Export traces over OTLP?", false); err != nil {
		return nil, err
	}
	if cfg.Telemetry.Enabled {
		if cfg.Telemetry.Endpoint, err = promptString("OTLP endpoint", "", "localhost:4317"); err != nil {
			return nil, err
		}
		token, err := promptPassword("Collector token", "Sent as a bearer Authorization header; leave empty for none")
		if err != nil {
			return nil, err
		}
		if token = strings.TrimSpace(token); token != "" {
			cfg.Telemetry.Headers = map[string]string{"authorization": "Bearer " + token}
		}
	}
	return cfg, nil
}

// redactConfig returns a JSON-safe copy with secrets masked.
func redactConfig(cfg *config.Config) interface{} {
	data, _ := json.Marshal(cfg)
	var raw map[string]interface{}
	json.Unmarshal(data, &raw)
	redactMap(raw)
	return raw
}

func redactMap(m map[string]interface{}) {
	secretKeys := map[string]bool{
		"authorization": true, "token": true, "apiKey": true, "secret": true,
	}
	for k, v := range m {
		if secretKeys[strings.ToLower(k)] || secretKeys[k] {
			if s, ok := v.(string); ok && len(s) > 8 {
				m[k] = s[:4] + "****" + s[len(s)-4:]
			} else if s, ok := v.(string); ok && s != "" {
				m[k] = "****"
			}
		} else if sub, ok := v.(map[string]interface{}); ok {
			redactMap(sub)
		}
	}
}

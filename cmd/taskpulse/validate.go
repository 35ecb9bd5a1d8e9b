package main

import (
	"fmt"

	"github.com/jpalmerr/taskpulse/config"
	"github.com/spf13/cobra"
)

// validateCmd validates a config file without starting the server.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config file",
	Long: `Validate a TaskPulse configuration file without starting the server.

This command parses the YAML, expands environment variables, and validates
all fields. It's useful for CI/CD pipelines or pre-deployment checks.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  taskpulse validate -c config.yaml
  taskpulse validate --config /etc/taskpulse/config.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = validateCmd.MarkFlagRequired("config")
}

func runValidate(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	title := cfg.Title
	if title == "" {
		title = "TaskPulse (default)"
	}
	persistence := cfg.DataFile
	if persistence == "" {
		persistence = "disabled"
	}

	fmt.Printf("Config is valid!\n")
	fmt.Printf("  Port:         %d\n", cfg.Port)
	fmt.Printf("  Title:        %s\n", title)
	fmt.Printf("  Data file:    %s\n", persistence)
	fmt.Printf("  Peers:        %d\n", len(cfg.Peers))
	fmt.Printf("  Peer timeout: %s\n", cfg.PeerTimeout.Duration())

	return nil
}

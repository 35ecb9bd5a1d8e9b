// Package main is the entry point for the taskpulse CLI.
//
// TaskPulse can be run either as a library (SDK) or as a standalone binary
// with YAML configuration. This CLI provides the standalone binary approach.
//
// Usage:
//
//	taskpulse serve -c config.yaml          # Start the task list server
//	taskpulse validate -c config.yaml       # Validate configuration
//	taskpulse sync --from A --to B          # Reconcile two instances
//	taskpulse version                       # Show version info
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information - set by GoReleaser at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCmd is the base command when called without subcommands.
// It just displays help - actual functionality is in subcommands.
var rootCmd = &cobra.Command{
	Use:   "taskpulse",
	Short: "A real-time shared task list",
	Long: `TaskPulse is a lightweight, real-time shared task list.

Every connected browser sees the same list: changes made by one client are
pushed to all of them over WebSocket. State can be persisted to a SQLite
snapshot, and separate instances can reconcile their lists with each other.

Quick start:
  1. Create a config file (taskpulse.yaml)
  2. Run: taskpulse serve -c taskpulse.yaml
  3. Open http://localhost:8080 in your browser

Example config:
  port: 8080
  title: "Team Tasks"
  data_file: tasks.db
  peers:
    - "tasks-b.internal:8080"
  peer_timeout: 30s`,
	// No Run/RunE means this just shows help when called without subcommands
}

// Execute runs the root command.
// This is the main entry point called from main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error, just exit with code 1
		os.Exit(1)
	}
}

func main() {
	Execute()
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this taskpulse binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("taskpulse %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
	},
}

func init() {
	// Register subcommands with root
	rootCmd.AddCommand(versionCmd)
}

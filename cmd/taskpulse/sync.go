package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/jpalmerr/taskpulse/config"
	"github.com/jpalmerr/taskpulse/internal/peer"
	"github.com/spf13/cobra"
)

// syncCmd reconciles the task lists of two running instances.
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Copy tasks from one instance into another",
	Long: `Copy the task list of one running instance into another.

The command pulls the full task snapshot from the --from instance and merges
it into the --to instance. The source is never modified; the destination
keeps its own tasks and appends the pulled ones. Run the command in both
directions to fully reconcile two instances.

Addresses may be bare host:port pairs (http is assumed) or full URLs.

With --config, the peer_timeout from the file bounds each request; an
explicit --timeout takes precedence.

Example:
  taskpulse sync --from localhost:8080 --to localhost:8081
  taskpulse sync -c config.yaml --from tasks-a.internal:8080 --to tasks-b.internal:8080
  taskpulse sync --from tasks-a.internal:8080 --to https://tasks-b.example.com --timeout 5s`,
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)

	syncCmd.Flags().StringP("config", "c", "", "config file supplying the peer_timeout default")
	syncCmd.Flags().String("from", "", "address of the instance to pull tasks from (required)")
	syncCmd.Flags().String("to", "", "address of the instance to merge tasks into (required)")
	syncCmd.Flags().Duration("timeout", peer.DefaultTimeout, "bound on each request (overrides config)")
	_ = syncCmd.MarkFlagRequired("from")
	_ = syncCmd.MarkFlagRequired("to")
}

func runSync(cmd *cobra.Command, args []string) error {
	from, _ := cmd.Flags().GetString("from")
	to, _ := cmd.Flags().GetString("to")

	// an explicit --timeout wins; otherwise a config file's peer_timeout
	// replaces the built-in default
	timeout, _ := cmd.Flags().GetDuration("timeout")
	if configFile, _ := cmd.Flags().GetString("config"); configFile != "" && !cmd.Flags().Changed("timeout") {
		cfg, err := config.Load(configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		timeout = cfg.PeerTimeout.Duration()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := peer.NewClient(timeout)
	defer client.Close()

	tasks, err := client.Share(ctx, from)
	if err != nil {
		return fmt.Errorf("failed to pull tasks from %s: %w", from, err)
	}

	if len(tasks) == 0 {
		fmt.Printf("Nothing to sync: %s has no tasks\n", from)
		return nil
	}

	if err := client.Merge(ctx, to, tasks); err != nil {
		return fmt.Errorf("failed to merge tasks into %s: %w", to, err)
	}

	fmt.Printf("Synced %d task(s) from %s into %s\n", len(tasks), from, to)
	return nil
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jpalmerr/taskpulse"
)

func main() {
	// set up context with signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// start a second instance to sync against (see peer_instance.go)
	go StartPeerInstance(ctx, 8081)

	// the main instance knows about its peer and logs every change
	tp, err := taskpulse.New(
		taskpulse.WithTitle("Team Tasks"),
		taskpulse.WithPort(8080),
		taskpulse.WithPeers("localhost:8081"),
		taskpulse.WithOnEvent(func(ev taskpulse.Event) {
			slog.Info("task change", "type", ev.Type, "tasks", len(ev.Tasks))
		}),
	)
	if err != nil {
		slog.Error("failed to create taskpulse", "error", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("  ╔═══════════════════════════════════════════════════════╗")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   TaskPulse Demo                                      ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Open http://localhost:8080 in your browser          ║")
	fmt.Println("  ║   (two tabs side by side show the live broadcast)     ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   A second instance runs at http://localhost:8081     ║")
	fmt.Println("  ║   Copy its tasks into the first one with:             ║")
	fmt.Println("  ║     taskpulse sync --from localhost:8081 \\            ║")
	fmt.Println("  ║                    --to localhost:8080                ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Press Ctrl+C to stop                                ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ╚═══════════════════════════════════════════════════════╝")
	fmt.Println()

	if err := tp.Start(ctx); err != nil {
		slog.Error("taskpulse error", "error", err)
		os.Exit(1)
	}
}

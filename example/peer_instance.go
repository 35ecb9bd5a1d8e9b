package main

import (
	"context"
	"log/slog"

	"github.com/jpalmerr/taskpulse"
)

// StartPeerInstance runs a second task list on the given port so the demo
// has something to reconcile with. Call it in a goroutine before starting
// the main instance; it stops when ctx is cancelled.
func StartPeerInstance(ctx context.Context, port int) {
	tp, err := taskpulse.New(
		taskpulse.WithTitle("Peer Tasks"),
		taskpulse.WithPort(port),
		taskpulse.WithPeers("localhost:8080"),
	)
	if err != nil {
		slog.Error("failed to create peer instance", "error", err)
		return
	}

	if err := tp.Start(ctx); err != nil {
		slog.Error("peer instance error", "error", err)
	}
}

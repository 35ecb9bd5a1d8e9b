// Package taskpulse provides a lightweight, embeddable shared task list
// served over HTTP and WebSocket in real-time.
//
// TaskPulse is designed as an SDK-first library, allowing developers to
// run a collaborative task list as part of their applications. Every
// connected client sees the same list: any change made by one client is
// broadcast to all of them over WebSocket, so there is no per-client view
// and no polling. Instances can reconcile their lists with each other
// through a peer endpoint (or programmatically via [TaskPulse.SyncFrom]),
// and state can be persisted to a SQLite snapshot so it survives restarts.
//
// # Quick Start
//
// Create an instance and run it with graceful shutdown:
//
//	tp, _ := taskpulse.New(taskpulse.WithPort(8080))
//
//	// Set up graceful shutdown on SIGINT/SIGTERM
//	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer stop()
//
//	tp.Start(ctx) // blocks until context is cancelled
//
// # Configuration
//
// TaskPulse uses the functional options pattern for configuration:
//
//	tp, err := taskpulse.New(
//	    taskpulse.WithTitle("Team Tasks"),
//	    taskpulse.WithPort(9090),
//	    taskpulse.WithDataPath("/var/lib/taskpulse/tasks.db"),
//	    taskpulse.WithPeers("tasks-b.internal:8080"),
//	    taskpulse.WithPeerTimeout(5 * time.Second),
//	)
//
// # Events
//
// Observers can watch every broadcast change without opening a WebSocket
// connection, via [WithOnEvent]:
//
//	tp, err := taskpulse.New(
//	    taskpulse.WithOnEvent(func(ev taskpulse.Event) {
//	        log.Printf("%s (%d tasks)", ev.Type, len(ev.Tasks))
//	    }),
//	)
//
// Callbacks run on the hub goroutine and must not block; see [WithOnEvent]
// for details.
//
// # Architecture
//
// TaskPulse consists of several internal packages (under internal/):
//
//   - internal/task: The in-memory task list and its operations
//   - internal/hub: Single-goroutine actor owning state, subscribers, and fan-out
//   - internal/protocol: Wire types for WebSocket commands and broadcast events
//   - internal/snapshot: SQLite persistence with a coalescing background writer
//   - internal/peer: HTTP client for share/merge reconciliation between instances
//   - internal/server: HTTP server with the API, peer, and WebSocket endpoints
//   - webui: Embedded web UI assets
//
// The internal packages are not part of the public API and may change
// without notice. The library is designed for single-binary deployment
// using Go's embed directive for static assets.
package taskpulse

package taskpulse

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jpalmerr/taskpulse/internal/hub"
	"github.com/jpalmerr/taskpulse/internal/peer"
	"github.com/jpalmerr/taskpulse/internal/server"
	"github.com/jpalmerr/taskpulse/internal/snapshot"
	"github.com/jpalmerr/taskpulse/internal/task"
	"github.com/jpalmerr/taskpulse/webui"
)

const defaultPort = 8080

// DefaultPeerTimeout is the bound applied to each outbound share or merge
// request when [WithPeerTimeout] is not used: 30 seconds, the peer client's
// own fallback.
const DefaultPeerTimeout = peer.DefaultTimeout

// MinPeerTimeout is the smallest accepted peer timeout. Sub-second bounds
// make share and merge exchanges across a real network fail routinely, so
// [WithPeerTimeout] and the YAML config layer both reject them.
const MinPeerTimeout = time.Second

// TaskPulse is the main orchestrator for the shared task list service.
//
// TaskPulse owns the task state, serves a real-time web UI over HTTP and
// WebSocket, and exposes a peer endpoint for reconciling task lists between
// instances. It is created using [New] with functional options and started
// with [TaskPulse.Start].
//
// The typical lifecycle is:
//
//	tp, err := taskpulse.New(taskpulse.WithPort(8080))
//	if err != nil {
//	    slog.Error("failed to create taskpulse", "error", err)
//	    os.Exit(1)
//	}
//
//	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer cancel()
//
//	tp.Start(ctx) // blocks until context cancelled
//
// The caller controls the lifecycle via the context. Cancel the context to
// trigger graceful shutdown.
type TaskPulse struct {
	title       string
	port        int
	dataPath    string
	peers       []string
	peerTimeout time.Duration
	logger      *slog.Logger
	onEvent     []func(Event)

	mu  sync.Mutex
	hub *hub.Hub // set while Start runs, nil otherwise
}

// New creates a new [TaskPulse] instance with the given options.
//
// All options have sensible defaults:
//   - Port: 8080
//   - Title: "TaskPulse"
//   - Peer timeout: 30 seconds
//   - Persistence: in-memory only, unless [WithDataPath] is set
//
// Returns an error if any option is invalid.
//
// Example:
//
//	tp, err := taskpulse.New(
//	    taskpulse.WithPort(9090),
//	    taskpulse.WithDataPath("tasks.db"),
//	    taskpulse.WithPeers("tasks-b.internal:8080"),
//	)
func New(opts ...Option) (*TaskPulse, error) {
	cfg := &tpConfig{
		port:        defaultPort,
		peerTimeout: DefaultPeerTimeout,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	// validate peer address uniqueness (the snapshot peer list is a set)
	seen := make(map[string]bool, len(cfg.peers))
	for _, addr := range cfg.peers {
		if seen[addr] {
			return nil, fmt.Errorf("duplicate peer address: %q", addr)
		}
		seen[addr] = true
	}

	if cfg.port < 1 || cfg.port > 65535 {
		return nil, fmt.Errorf("port must be between 1 and 65535, got %d", cfg.port)
	}

	// default to slog.Default() if no logger provided
	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	return &TaskPulse{
		title:       cfg.title,
		port:        cfg.port,
		dataPath:    cfg.dataPath,
		peers:       cfg.peers,
		peerTimeout: cfg.peerTimeout,
		logger:      logger,
		onEvent:     cfg.onEvent,
	}, nil
}

// Start runs the task list service.
//
// Start is a blocking call that runs until the provided context is cancelled.
// During execution:
//
//   - Persisted state is restored from the data path, if one is configured
//   - The hub processes commands and broadcasts changes to connected clients
//   - Every change is snapshotted to disk in the background
//   - The web UI is available at http://localhost:<port>
//
// The caller controls the lifecycle via context cancellation. For signal
// handling, use [signal.NotifyContext]:
//
//	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer cancel()
//	tp.Start(ctx)
//
// On shutdown the hub stops first, then a final snapshot is flushed, so no
// accepted change is lost. Returns nil on graceful shutdown. Returns an error
// if the snapshot store cannot be opened or the HTTP server fails to start.
func (tp *TaskPulse) Start(ctx context.Context) error {
	tp.logger.Info("taskpulse starting", "port", tp.port, "peer_count", len(tp.peers))
	tp.logger.Info("web ui available", "url", fmt.Sprintf("http://localhost:%d", tp.port))

	// check if context already cancelled
	if ctx.Err() != nil {
		return nil
	}

	store := task.NewStore()
	peers := tp.peers

	var snapStore *snapshot.Store
	if tp.dataPath != "" {
		var err error
		snapStore, err = snapshot.Open(tp.dataPath)
		if err != nil {
			return fmt.Errorf("failed to open snapshot store: %w", err)
		}
		tasks, remembered, err := snapStore.Load()
		if err != nil {
			snapStore.Close()
			return fmt.Errorf("failed to restore snapshot: %w", err)
		}
		store.Replace(tasks)
		peers = mergePeers(tp.peers, remembered)
		tp.logger.Info("snapshot restored", "path", tp.dataPath, "task_count", len(tasks))
	}

	// The writer and hub run on their own contexts, not the caller's, so
	// shutdown can be ordered: the hub stops first, then the writer flushes
	// the final state before the store closes.
	var wg sync.WaitGroup

	var snap hub.Snapshotter
	var stopWriter context.CancelFunc
	if snapStore != nil {
		writer := snapshot.NewWriter(snapStore, peers, tp.logger)
		writerCtx, cancel := context.WithCancel(context.Background())
		stopWriter = cancel
		wg.Add(1)
		go func() {
			defer wg.Done()
			writer.Run(writerCtx)
		}()
		snap = writer
	}

	var onEvent func(hub.Event)
	if len(tp.onEvent) > 0 {
		callbacks := tp.onEvent
		logger := tp.logger
		onEvent = func(ev hub.Event) {
			public := hubEventToPublicEvent(ev)
			for _, cb := range callbacks {
				invokeCallbackSafe(cb, public, logger)
			}
		}
	}

	h := hub.New(store, snap, onEvent, tp.logger)
	hubCtx, stopHub := context.WithCancel(context.Background())
	hubDone := make(chan struct{})
	go func() {
		defer close(hubDone)
		h.Run(hubCtx)
	}()
	tp.setHub(h) // SyncFrom works from here until cleanup

	// cleanup stops mutation sources before flushing, in order
	cleanup := func() {
		tp.setHub(nil)
		stopHub()
		<-hubDone // no mutations past this point
		if stopWriter != nil {
			stopWriter()
		}
		wg.Wait() // final snapshot flushed
		if snapStore != nil {
			if err := snapStore.Close(); err != nil {
				tp.logger.Error("failed to close snapshot store", "error", err)
			}
		}
	}

	httpServer := server.NewServer(h, tp.port, webui.Assets, tp.title, tp.logger)
	if err := httpServer.Start(ctx); err != nil {
		cleanup()
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	<-ctx.Done()
	cleanup()
	tp.logger.Info("taskpulse stopped")
	return nil
}

// Title returns the configured web UI title.
// Empty means the "TaskPulse" default is applied at render time.
func (tp *TaskPulse) Title() string {
	return tp.title
}

// Port returns the configured HTTP port.
func (tp *TaskPulse) Port() int {
	return tp.port
}

// DataPath returns the configured snapshot file path.
// Empty means persistence is disabled.
func (tp *TaskPulse) DataPath() string {
	return tp.dataPath
}

// Peers returns a copy of the configured peer addresses.
//
// The returned slice is a copy; modifying it does not affect the TaskPulse.
func (tp *TaskPulse) Peers() []string {
	cp := make([]string, len(tp.peers))
	copy(cp, tp.peers)
	return cp
}

// PeerTimeout returns the configured timeout for requests to peers.
func (tp *TaskPulse) PeerTimeout() time.Duration {
	return tp.peerTimeout
}

// mergePeers unions configured and snapshot-remembered peer addresses,
// configured first, duplicates removed.
func mergePeers(configured, remembered []string) []string {
	merged := make([]string, 0, len(configured)+len(remembered))
	seen := make(map[string]bool, len(configured)+len(remembered))

	for _, addr := range configured {
		if !seen[addr] {
			seen[addr] = true
			merged = append(merged, addr)
		}
	}
	for _, addr := range remembered {
		if !seen[addr] {
			seen[addr] = true
			merged = append(merged, addr)
		}
	}

	return merged
}

// hubEventToPublicEvent converts an internal hub event to the public API type.
// Creates copies of mutable fields so observers never alias hub state.
func hubEventToPublicEvent(ev hub.Event) Event {
	out := Event{
		Type:  EventType(ev.Type),
		Tasks: make([]Task, len(ev.Tasks)),
	}
	for i, t := range ev.Tasks {
		out.Tasks[i] = Task{ID: t.ID, Text: t.Text, Completed: t.Completed}
	}
	if ev.Task != nil {
		t := Task{ID: ev.Task.ID, Text: ev.Task.Text, Completed: ev.Task.Completed}
		out.Task = &t
	}
	return out
}

// invokeCallbackSafe calls an event callback with panic recovery.
// Panics are logged but do not propagate.
func invokeCallbackSafe(cb func(Event), ev Event, logger *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("event callback panicked",
				"panic", r,
				"event_type", ev.Type,
			)
		}
	}()
	cb(ev)
}

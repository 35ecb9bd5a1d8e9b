package taskpulse

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// tpConfig holds mutable state during TaskPulse construction.
type tpConfig struct {
	title       string
	port        int
	dataPath    string
	peers       []string
	peerTimeout time.Duration
	logger      *slog.Logger
	onEvent     []func(Event)
}

// Option is a function that configures a [TaskPulse] instance during construction.
//
// Option implements the functional options pattern, allowing optional
// configuration to be passed to [New] in a type-safe, extensible way.
// Options return an error if validation fails.
//
// Built-in options: [WithPort], [WithTitle], [WithDataPath], [WithPeers],
// [WithPeerTimeout], [WithLogger], [WithOnEvent].
type Option func(*tpConfig) error

// WithPort sets the HTTP port for the task list server.
//
// The web UI, API, and WebSocket endpoint will be available at
// http://localhost:<port>. Defaults to 8080 if not specified.
//
// Example:
//
//	tp, err := taskpulse.New(
//	    taskpulse.WithPort(9090),
//	)
//
// Returns an error if the port is outside the valid range (1-65535).
func WithPort(port int) Option {
	return func(cfg *tpConfig) error {
		if port < 1 || port > 65535 {
			return errors.New("port must be between 1 and 65535")
		}
		cfg.port = port
		return nil
	}
}

// WithTitle sets the list title displayed in the browser tab and header.
//
// If not specified, defaults to "TaskPulse".
//
// Example:
//
//	tp, err := taskpulse.New(
//	    taskpulse.WithTitle("Kitchen Renovation"),
//	)
func WithTitle(title string) Option {
	return func(cfg *tpConfig) error {
		cfg.title = title
		return nil
	}
}

// WithDataPath enables snapshot persistence at the given SQLite file path.
//
// When set, the task list is restored from the file on [TaskPulse.Start] and
// written back after every change, so tasks survive restarts. The file and
// any missing parent directories are created on first use. If not specified,
// state is held in memory only and is lost on shutdown.
//
// Example:
//
//	tp, err := taskpulse.New(
//	    taskpulse.WithDataPath("/var/lib/taskpulse/tasks.db"),
//	)
//
// Returns an error if the path is blank.
func WithDataPath(path string) Option {
	return func(cfg *tpConfig) error {
		if strings.TrimSpace(path) == "" {
			return errors.New("data path cannot be blank")
		}
		cfg.dataPath = path
		return nil
	}
}

// WithPeers registers the addresses of peer instances for task sharing.
//
// Peers are other running instances this one can reconcile with. The list is
// written alongside every snapshot when persistence is enabled, so a restarted
// instance remembers its peers. Addresses may be bare host:port pairs or full
// http/https URLs. Can be called multiple times; addresses accumulate.
//
// Example:
//
//	tp, err := taskpulse.New(
//	    taskpulse.WithPeers("tasks-a.internal:8080", "https://tasks-b.example.com"),
//	)
//
// Returns an error if any address is blank.
func WithPeers(addrs ...string) Option {
	return func(cfg *tpConfig) error {
		for i, addr := range addrs {
			if strings.TrimSpace(addr) == "" {
				return fmt.Errorf("peer address %d cannot be blank", i)
			}
		}
		cfg.peers = append(cfg.peers, addrs...)
		return nil
	}
}

// WithPeerTimeout sets the timeout for HTTP requests to peer instances.
//
// The timeout bounds each individual share or merge request made while
// reconciling with a peer via [TaskPulse.SyncFrom]. Defaults to
// [DefaultPeerTimeout] if not specified.
//
// Example:
//
//	tp, err := taskpulse.New(
//	    taskpulse.WithPeers("tasks-b.internal:8080"),
//	    taskpulse.WithPeerTimeout(5 * time.Second),
//	)
//
// Returns an error if the duration is less than [MinPeerTimeout].
func WithPeerTimeout(d time.Duration) Option {
	return func(cfg *tpConfig) error {
		if d < MinPeerTimeout {
			return fmt.Errorf("peer timeout must be at least %s", MinPeerTimeout)
		}
		cfg.peerTimeout = d
		return nil
	}
}

// WithLogger sets a custom [slog.Logger] for the TaskPulse instance.
//
// This allows SDK consumers to control where logs are written and in what
// format. If not specified, [slog.Default] is used.
//
// Example:
//
//	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
//	tp, err := taskpulse.New(
//	    taskpulse.WithLogger(logger),
//	)
//
// Returns an error if the logger is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *tpConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithOnEvent registers a function to be called on every broadcast change.
//
// The callback receives an [Event] describing the change after it has been
// applied and fanned out to connected clients. Peer merges are applied
// silently and do not trigger callbacks.
//
// Multiple callbacks may be registered by calling WithOnEvent multiple
// times; they execute in registration order.
//
// IMPORTANT: Callbacks must be non-blocking. Long-running operations should
// dispatch work to a separate goroutine. Blocking callbacks stall the hub
// and delay delivery to connected clients.
//
// Callbacks are invoked synchronously from a single goroutine. Panics within
// callbacks are recovered and logged; they do not crash the hub.
//
// Example:
//
//	tp, err := taskpulse.New(
//	    taskpulse.WithOnEvent(func(ev taskpulse.Event) {
//	        if ev.Type == taskpulse.EventTaskAdded {
//	            log.Printf("new task: %s", ev.Task.Text)
//	        }
//	    }),
//	)
//
// Nil callbacks are silently ignored.
func WithOnEvent(cb func(Event)) Option {
	return func(cfg *tpConfig) error {
		if cb == nil {
			return nil // no-op for nil callback (safe to call)
		}
		cfg.onEvent = append(cfg.onEvent, cb)
		return nil
	}
}

package snapshot

import (
	"context"
	"log/slog"
	"sync"

	"github.com/jpalmerr/taskpulse/internal/task"
)

// saver is the slice of [Store] the writer needs.
type saver interface {
	Save(tasks []task.Task, peers []string) error
}

// Writer decouples mutation paths from disk latency.
//
// Save records the newest task state and signals a background goroutine;
// it never blocks, so the hub actor can trigger persistence after every
// mutation without waiting on I/O. Bursts of saves coalesce: the goroutine
// always writes the latest recorded state, skipping intermediates.
//
// The peer list is fixed at construction and written alongside every
// snapshot.
type Writer struct {
	store  saver
	peers  []string
	logger *slog.Logger

	mu      sync.Mutex
	pending []task.Task
	dirty   bool

	// size 1: at most one wake-up is ever queued
	signal chan struct{}
}

// NewWriter creates a [Writer] persisting to store. Run must be started for
// writes to happen.
func NewWriter(store saver, peers []string, logger *slog.Logger) *Writer {
	return &Writer{
		store:  store,
		peers:  append([]string(nil), peers...),
		logger: logger,
		signal: make(chan struct{}, 1),
	}
}

// Save records tasks as the newest state and wakes the writer. Never blocks.
func (w *Writer) Save(tasks []task.Task) {
	w.mu.Lock()
	w.pending = tasks
	w.dirty = true
	w.mu.Unlock()

	select {
	case w.signal <- struct{}{}:
	default:
		// a wake-up is already queued
	}
}

// Run writes pending snapshots until the context is cancelled, then flushes
// any remaining state synchronously before returning. Run the writer on its
// own context and cancel it only after the last mutation source has stopped,
// so the final flush observes the final state.
func (w *Writer) Run(ctx context.Context) {
	for {
		select {
		case <-w.signal:
			w.flush()
		case <-ctx.Done():
			w.flush()
			return
		}
	}
}

// flush writes the pending state if there is any.
func (w *Writer) flush() {
	w.mu.Lock()
	if !w.dirty {
		w.mu.Unlock()
		return
	}
	tasks := w.pending
	w.dirty = false
	w.mu.Unlock()

	if err := w.store.Save(tasks, w.peers); err != nil {
		w.logger.Error("failed to write snapshot", "error", err)
	}
}

package taskpulse

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jpalmerr/taskpulse/internal/hub"
	"github.com/jpalmerr/taskpulse/internal/peer"
)

// ErrNotRunning is returned by [TaskPulse.SyncFrom] when the instance is not
// currently running, that is before [TaskPulse.Start] or after shutdown.
var ErrNotRunning = errors.New("taskpulse is not running")

// SyncFrom pulls the full task snapshot from the peer at addr and merges it
// into the local list. It returns the number of tasks merged.
//
// The pull is bounded by the configured peer timeout (see [WithPeerTimeout]);
// a peer that does not answer within the bound fails the call. The peer is
// never modified. Pulled tasks are appended without deduplication and, like
// any peer merge, are not broadcast: connected clients see them on their
// next get_tasks request.
//
// addr may be a bare host:port (http is assumed) or a full http(s) URL; it
// does not need to appear in the configured peer list. SyncFrom requires a
// running instance and returns [ErrNotRunning] otherwise.
func (tp *TaskPulse) SyncFrom(ctx context.Context, addr string) (int, error) {
	if strings.TrimSpace(addr) == "" {
		return 0, errors.New("peer address cannot be blank")
	}

	h := tp.runningHub()
	if h == nil {
		return 0, ErrNotRunning
	}

	client := peer.NewClient(tp.peerTimeout)
	defer client.Close()

	tasks, err := client.Share(ctx, addr)
	if err != nil {
		return 0, err
	}
	if len(tasks) == 0 {
		return 0, nil
	}

	if err := h.Merge(ctx, tasks); err != nil {
		return 0, fmt.Errorf("failed to merge tasks from %s: %w", addr, err)
	}

	tp.logger.Info("peer tasks merged", "peer", addr, "task_count", len(tasks))
	return len(tasks), nil
}

// setHub publishes the hub handle for the duration of a Start run.
func (tp *TaskPulse) setHub(h *hub.Hub) {
	tp.mu.Lock()
	tp.hub = h
	tp.mu.Unlock()
}

// runningHub returns the hub while Start is running, nil otherwise.
func (tp *TaskPulse) runningHub() *hub.Hub {
	tp.mu.Lock()
	defer tp.mu.Unlock()
	return tp.hub
}

package snapshot

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jpalmerr/taskpulse/internal/task"
)

// countingSaver records every write for assertions. An optional delay
// simulates slow disks so coalescing behavior becomes observable.
type countingSaver struct {
	mu        sync.Mutex
	writes    int
	lastTasks []task.Task
	lastPeers []string
	delay     time.Duration
}

func (c *countingSaver) Save(tasks []task.Task, peers []string) error {
	if c.delay > 0 {
		time.Sleep(c.delay)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writes++
	c.lastTasks = tasks
	c.lastPeers = peers
	return nil
}

func (c *countingSaver) snapshot() (int, []task.Task) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.writes, c.lastTasks
}

// runWriter starts a writer loop and returns a stop function that blocks
// until the final flush completed.
func runWriter(t *testing.T, w *Writer) (stop func()) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	return func() {
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("writer did not stop after context cancellation")
		}
	}
}

func TestWriter_WritesLatestState(t *testing.T) {
	saver := &countingSaver{}
	w := NewWriter(saver, nil, testLogger())
	stop := runWriter(t, w)

	w.Save([]task.Task{{ID: "1", Text: "first"}})
	w.Save([]task.Task{{ID: "1", Text: "first"}, {ID: "2", Text: "second"}})

	stop()

	writes, last := saver.snapshot()
	if writes == 0 {
		t.Fatal("no snapshot was written")
	}
	if len(last) != 2 {
		t.Errorf("last write = %v tasks, want 2", len(last))
	}
}

func TestWriter_CoalescesBursts(t *testing.T) {
	saver := &countingSaver{delay: 20 * time.Millisecond}
	w := NewWriter(saver, nil, testLogger())
	stop := runWriter(t, w)

	const burst = 25
	var state []task.Task
	for i := 0; i < burst; i++ {
		state = append(state, task.Task{ID: "x", Text: "task"})
		w.Save(state)
	}

	stop()

	writes, last := saver.snapshot()
	if writes >= burst {
		t.Errorf("writes = %v, want far fewer than %v (bursts should coalesce)", writes, burst)
	}
	if len(last) != burst {
		t.Errorf("last write = %v tasks, want %v (newest state must win)", len(last), burst)
	}
}

func TestWriter_SaveNeverBlocks(t *testing.T) {
	// no Run loop at all: Save must still return immediately
	w := NewWriter(&countingSaver{}, nil, testLogger())

	done := make(chan struct{})
	go func() {
		for i := 0; i < 200; i++ {
			w.Save([]task.Task{{ID: "1", Text: "task"}})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Save() blocked without a running writer")
	}
}

func TestWriter_FinalFlushOnShutdown(t *testing.T) {
	saver := &countingSaver{}
	w := NewWriter(saver, nil, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	tasks := []task.Task{{ID: "1", Text: "must survive shutdown"}}
	w.Save(tasks)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("writer did not stop after context cancellation")
	}

	writes, last := saver.snapshot()
	if writes == 0 {
		t.Fatal("state recorded before shutdown was never written")
	}
	if len(last) != 1 || last[0].Text != "must survive shutdown" {
		t.Errorf("last write = %+v, want the recorded state", last)
	}
}

func TestWriter_PersistsPeersAlongside(t *testing.T) {
	saver := &countingSaver{}
	w := NewWriter(saver, []string{"peer-a:8080"}, testLogger())
	stop := runWriter(t, w)

	w.Save([]task.Task{{ID: "1", Text: "task"}})
	stop()

	saver.mu.Lock()
	defer saver.mu.Unlock()
	if len(saver.lastPeers) != 1 || saver.lastPeers[0] != "peer-a:8080" {
		t.Errorf("peers written = %v, want [peer-a:8080]", saver.lastPeers)
	}
}

func TestWriter_IntegrationWithStore(t *testing.T) {
	store := openTestStore(t)
	w := NewWriter(store, []string{"peer-a:8080"}, testLogger())
	stop := runWriter(t, w)

	w.Save([]task.Task{{ID: "1", Text: "task", Completed: true}})
	stop()

	tasks, peers, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(tasks) != 1 || !tasks[0].Completed {
		t.Errorf("Load() tasks = %+v, want the saved task", tasks)
	}
	if len(peers) != 1 || peers[0] != "peer-a:8080" {
		t.Errorf("Load() peers = %v, want [peer-a:8080]", peers)
	}
}

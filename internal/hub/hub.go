package hub

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jpalmerr/taskpulse/internal/protocol"
	"github.com/jpalmerr/taskpulse/internal/task"
)

// ErrStopped is returned for operations submitted after the hub's Run loop
// has exited.
var ErrStopped = errors.New("hub stopped")

// Snapshotter receives a fire-and-forget persistence trigger after every
// mutation. Save is called from the actor goroutine and must not block on
// I/O; implementations queue the state and write in the background.
type Snapshotter interface {
	Save(tasks []task.Task)
}

// Event describes one broadcast, delivered to the optional observer
// callback after fan-out. Task is set for task_added/task_toggled only.
type Event struct {
	Type  string
	Task  *task.Task
	Tasks []task.Task
}

// Hub owns the task store and the set of live push subscribers.
//
// All state lives behind a single actor goroutine: [Hub.Run] processes one
// operation to completion before admitting the next, so mutation, fan-out,
// and the persistence trigger for one inbound event happen atomically with
// respect to every other event. That is what gives each subscriber its
// mutation-ordered event stream without any locks around the store or the
// registry.
//
// The exported methods are safe to call from any goroutine; each submits a
// closure to the actor and waits for it, bounded by the caller's context.
type Hub struct {
	store   *task.Store
	snap    Snapshotter  // may be nil: no persistence
	onEvent func(Event)  // may be nil: no observer
	logger  *slog.Logger

	channels map[uint64]*Channel
	nextID   uint64

	ops  chan func()
	done chan struct{} // closed when Run exits
}

// New creates a [Hub] owning the given store.
//
// snap and onEvent may be nil. Operations block until [Hub.Run] is started.
func New(store *task.Store, snap Snapshotter, onEvent func(Event), logger *slog.Logger) *Hub {
	return &Hub{
		store:    store,
		snap:     snap,
		onEvent:  onEvent,
		logger:   logger,
		channels: make(map[uint64]*Channel),
		ops:      make(chan func()),
		done:     make(chan struct{}),
	}
}

// Run executes submitted operations one at a time until the context is
// cancelled. Must be called from exactly one goroutine.
//
// On shutdown every registered channel's queue is closed, which releases
// the transport goroutines draining them.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case op := <-h.ops:
			op()
		case <-ctx.Done():
			for id, ch := range h.channels {
				delete(h.channels, id)
				close(ch.out)
			}
			return
		}
	}
}

// do submits fn to the actor and waits for it to finish.
func (h *Hub) do(ctx context.Context, fn func()) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	ran := make(chan struct{})
	wrapped := func() {
		fn()
		close(ran)
	}

	select {
	case h.ops <- wrapped:
	case <-h.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-ran:
		return nil
	case <-h.done:
		return ErrStopped
	}
}

// Tasks returns a snapshot of the current task list. No side effects.
func (h *Hub) Tasks(ctx context.Context) ([]task.Task, error) {
	var tasks []task.Task
	err := h.do(ctx, func() {
		tasks = h.store.List()
	})
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// Create appends a new task and broadcasts task_added to every subscriber.
// Returns [task.ErrEmptyText] without mutating or broadcasting when the
// text trims to nothing.
func (h *Hub) Create(ctx context.Context, text string) (task.Task, error) {
	var (
		created task.Task
		opErr   error
	)
	err := h.do(ctx, func() {
		created, opErr = h.store.Create(text)
		if opErr != nil {
			return
		}
		tasks := h.store.List()
		data, merr := protocol.MarshalTaskAdded(created, tasks)
		if merr != nil {
			h.logger.Error("failed to marshal task_added event", "error", merr)
		} else {
			h.broadcast(data)
			added := created
			h.notify(Event{Type: protocol.TypeTaskAdded, Task: &added, Tasks: tasks})
		}
		h.persist(tasks)
	})
	if err != nil {
		return task.Task{}, err
	}
	return created, opErr
}

// Toggle flips a task's completed flag and broadcasts task_toggled to every
// subscriber. Returns [task.ErrNotFound] without mutating or broadcasting
// when no task has the id.
func (h *Hub) Toggle(ctx context.Context, id string) (task.Task, error) {
	var (
		toggled task.Task
		opErr   error
	)
	err := h.do(ctx, func() {
		toggled, opErr = h.store.Toggle(id)
		if opErr != nil {
			return
		}
		tasks := h.store.List()
		data, merr := protocol.MarshalTaskToggled(toggled, tasks)
		if merr != nil {
			h.logger.Error("failed to marshal task_toggled event", "error", merr)
		} else {
			h.broadcast(data)
			updated := toggled
			h.notify(Event{Type: protocol.TypeTaskToggled, Task: &updated, Tasks: tasks})
		}
		h.persist(tasks)
	})
	if err != nil {
		return task.Task{}, err
	}
	return toggled, opErr
}

// Merge appends the incoming tasks without deduplication and triggers a
// snapshot. No event is broadcast: subscribers observe merged tasks on
// their next get_tasks request.
func (h *Hub) Merge(ctx context.Context, incoming []task.Task) error {
	return h.do(ctx, func() {
		h.store.Merge(incoming)
		h.persist(h.store.List())
	})
}

// Overview broadcasts a tasks_overview with the full current list to every
// subscriber, requester included.
func (h *Hub) Overview(ctx context.Context) error {
	return h.do(ctx, func() {
		tasks := h.store.List()
		data, merr := protocol.MarshalOverview(tasks)
		if merr != nil {
			h.logger.Error("failed to marshal tasks_overview event", "error", merr)
			return
		}
		h.broadcast(data)
		h.notify(Event{Type: protocol.TypeTasksOverview, Tasks: tasks})
	})
}

// Subscribe registers a new push channel and returns it. The caller owns
// draining [Channel.Out] and must call [Hub.Unsubscribe] when done.
func (h *Hub) Subscribe(ctx context.Context) (*Channel, error) {
	var ch *Channel
	err := h.do(ctx, func() {
		h.nextID++
		ch = &Channel{id: h.nextID, out: make(chan []byte, sendBuffer)}
		h.channels[ch.id] = ch
	})
	if err != nil {
		return nil, err
	}
	return ch, nil
}

// Unsubscribe removes a channel from the registry and closes its queue.
// Removing an unknown or already-removed channel is a no-op, and calling
// after shutdown is safe (shutdown closed the queue already).
//
// Unsubscribe deliberately takes no context: it is called from transport
// teardown paths whose request context is already cancelled.
func (h *Hub) Unsubscribe(ch *Channel) {
	if ch == nil {
		return
	}
	_ = h.do(context.Background(), func() {
		if _, ok := h.channels[ch.id]; !ok {
			return
		}
		delete(h.channels, ch.id)
		close(ch.out)
	})
}

// Ack queues an ack frame to one channel only, in reply to a liveness
// probe from that subscriber. Unknown channels are ignored.
func (h *Hub) Ack(ctx context.Context, ch *Channel) error {
	if ch == nil {
		return nil
	}
	return h.do(ctx, func() {
		if _, ok := h.channels[ch.id]; !ok {
			return
		}
		h.deliver(ch, protocol.MarshalAck())
	})
}

// broadcast queues the same frame to every registered channel. Delivery is
// independent per channel: one full queue never affects the others.
func (h *Hub) broadcast(frame []byte) {
	for _, ch := range h.channels {
		h.deliver(ch, frame)
	}
}

func (h *Hub) deliver(ch *Channel, frame []byte) {
	if !ch.trySend(frame) {
		// subscriber is slow, drop the frame
		h.logger.Warn("subscriber queue full, dropping frame", "channel_id", ch.id)
	}
}

func (h *Hub) persist(tasks []task.Task) {
	if h.snap == nil {
		return
	}
	h.snap.Save(tasks)
}

func (h *Hub) notify(ev Event) {
	if h.onEvent == nil {
		return
	}
	h.onEvent(ev)
}

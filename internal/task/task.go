package task

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrEmptyText indicates a create whose text is empty or
	// whitespace-only after trimming.
	ErrEmptyText = errors.New("task text is empty")

	// ErrNotFound indicates an operation referencing an id no stored
	// task has.
	ErrNotFound = errors.New("task not found")
)

// Task is a single entry in the shared list.
//
// Task is the canonical representation used on every surface: the store,
// the push-channel protocol, the peer exchange, and the snapshot all
// serialize exactly these three fields.
type Task struct {
	// ID uniquely identifies the task. Generated once at creation and
	// immutable thereafter.
	ID string `json:"id"`

	// Text is the task description. Never empty for a created task;
	// stored trimmed of leading/trailing whitespace.
	Text string `json:"text"`

	// Completed reports whether the task has been marked done.
	Completed bool `json:"completed"`
}

// Store is the authoritative ordered collection of tasks.
//
// Tasks keep insertion order; appends go to the end and toggling never
// reorders. Store performs no I/O and is not safe for concurrent use: it is
// designed to be owned by a single goroutine (the hub actor), which
// serializes all access. Persistence and broadcasting are the owner's
// responsibility.
type Store struct {
	tasks []Task
}

// NewStore creates an empty [Store].
func NewStore() *Store {
	return &Store{tasks: []Task{}}
}

// List returns a copy of the collection in insertion order.
//
// The returned slice is never nil; an empty store yields an empty slice so
// downstream JSON always carries an array. Modifying the copy does not
// affect the store.
func (s *Store) List() []Task {
	out := make([]Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

// Create appends a new task with the given text and returns it.
//
// Text is trimmed of leading and trailing whitespace before storage; if
// nothing remains, Create returns [ErrEmptyText] and the store is unchanged.
// The new task gets a fresh UUID and starts not completed.
func (s *Store) Create(text string) (Task, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Task{}, ErrEmptyText
	}

	t := Task{
		ID:   uuid.NewString(),
		Text: trimmed,
	}
	s.tasks = append(s.tasks, t)
	return t, nil
}

// Toggle flips the completed flag of the task with the given id, in place,
// and returns the updated task. Returns [ErrNotFound] if no task has that
// id. When duplicate ids exist (possible after [Store.Merge]), the first
// task in insertion order is the one toggled.
func (s *Store) Toggle(id string) (Task, error) {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			s.tasks[i].Completed = !s.tasks[i].Completed
			return s.tasks[i], nil
		}
	}
	return Task{}, ErrNotFound
}

// Merge appends every incoming task to the collection verbatim.
//
// There is no deduplication by id: reconciliation is append-only, so a merge
// can introduce tasks whose ids already exist locally. Merge never fails and
// never partially applies.
func (s *Store) Merge(incoming []Task) {
	s.tasks = append(s.tasks, incoming...)
}

// Replace discards the current collection and installs the given tasks,
// preserving their order. Used to restore state from a snapshot at startup.
func (s *Store) Replace(tasks []Task) {
	s.tasks = make([]Task, len(tasks))
	copy(s.tasks, tasks)
}

// Len returns the number of stored tasks.
func (s *Store) Len() int {
	return len(s.tasks)
}

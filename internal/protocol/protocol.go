package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jpalmerr/taskpulse/internal/task"
)

// Event type discriminants carried in the "type" field of every
// server-to-client frame.
const (
	TypeTasksOverview = "tasks_overview"
	TypeTaskAdded     = "task_added"
	TypeTaskToggled   = "task_toggled"
	TypeAck           = "ack"
)

// Action values recognized in client-to-server command frames.
const (
	actionGetTasks   = "get_tasks"
	actionAddTask    = "add_task"
	actionToggleTask = "toggle_task"
)

var (
	// ErrMalformed indicates a frame that is not a JSON command object.
	ErrMalformed = errors.New("malformed message")

	// ErrUnknownAction indicates a well-formed command object whose
	// action value is not recognized.
	ErrUnknownAction = errors.New("unknown action")
)

// Command is an inbound push-channel request, parsed at the boundary into
// a closed set of variants: [GetTasks], [AddTask], or [ToggleTask].
type Command interface {
	isCommand()
}

// GetTasks requests a tasks_overview broadcast.
type GetTasks struct{}

// AddTask requests creation of a task with the given text.
type AddTask struct {
	Text string
}

// ToggleTask requests flipping the completed flag of the task with ID.
type ToggleTask struct {
	ID string
}

func (GetTasks) isCommand()   {}
func (AddTask) isCommand()    {}
func (ToggleTask) isCommand() {}

// rawCommand is the wire shape shared by all commands. Fields not relevant
// to an action simply decode to their zero value.
type rawCommand struct {
	Action string `json:"action"`
	Text   string `json:"text,omitempty"`
	ID     string `json:"id,omitempty"`
}

// ParseCommand decodes a client frame into a [Command].
//
// Frames that are not a JSON object or carry no action return
// [ErrMalformed]; a recognized shape with an unrecognized action returns
// [ErrUnknownAction]. Missing text/id fields decode to "" and are rejected
// downstream by the store, not here.
func ParseCommand(data []byte) (Command, error) {
	var raw rawCommand
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	switch raw.Action {
	case actionGetTasks:
		return GetTasks{}, nil
	case actionAddTask:
		return AddTask{Text: raw.Text}, nil
	case actionToggleTask:
		return ToggleTask{ID: raw.ID}, nil
	case "":
		return nil, fmt.Errorf("%w: missing action", ErrMalformed)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, raw.Action)
	}
}

// EncodeCommand renders a [Command] as a wire frame. Used by client-side
// callers (tests, example tooling); the server only parses.
func EncodeCommand(cmd Command) ([]byte, error) {
	switch c := cmd.(type) {
	case GetTasks:
		return json.Marshal(rawCommand{Action: actionGetTasks})
	case AddTask:
		return json.Marshal(rawCommand{Action: actionAddTask, Text: c.Text})
	case ToggleTask:
		return json.Marshal(rawCommand{Action: actionToggleTask, ID: c.ID})
	default:
		return nil, fmt.Errorf("unsupported command type %T", cmd)
	}
}

// overviewEvent, taskEvent and ackEvent are the three outbound frame shapes.
// The tasks field always serializes as a JSON array, never null, so clients
// can treat it as iterable without nil checks.
type overviewEvent struct {
	Type  string      `json:"type"`
	Tasks []task.Task `json:"tasks"`
}

type taskEvent struct {
	Type  string      `json:"type"`
	Task  task.Task   `json:"task"`
	Tasks []task.Task `json:"tasks"`
}

type ackEvent struct {
	Type string `json:"type"`
}

// MarshalOverview renders a tasks_overview frame carrying the full list.
func MarshalOverview(tasks []task.Task) ([]byte, error) {
	return json.Marshal(overviewEvent{Type: TypeTasksOverview, Tasks: nonNil(tasks)})
}

// MarshalTaskAdded renders a task_added frame carrying the new task and the
// full updated list.
func MarshalTaskAdded(added task.Task, tasks []task.Task) ([]byte, error) {
	return json.Marshal(taskEvent{Type: TypeTaskAdded, Task: added, Tasks: nonNil(tasks)})
}

// MarshalTaskToggled renders a task_toggled frame carrying the updated task
// and the full updated list.
func MarshalTaskToggled(toggled task.Task, tasks []task.Task) ([]byte, error) {
	return json.Marshal(taskEvent{Type: TypeTaskToggled, Task: toggled, Tasks: nonNil(tasks)})
}

// MarshalAck renders the ack frame sent in reply to a liveness probe.
func MarshalAck() []byte {
	return []byte(`{"type":"` + TypeAck + `"}`)
}

// Event is the decoded form of a server-to-client frame, used by clients
// and tests. Which fields are populated depends on Type.
type Event struct {
	Type  string      `json:"type"`
	Task  *task.Task  `json:"task,omitempty"`
	Tasks []task.Task `json:"tasks,omitempty"`
}

// ParseEvent decodes a server frame. Frames without a type discriminant
// return [ErrMalformed].
func ParseEvent(data []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if ev.Type == "" {
		return Event{}, fmt.Errorf("%w: missing type", ErrMalformed)
	}
	return ev, nil
}

func nonNil(tasks []task.Task) []task.Task {
	if tasks == nil {
		return []task.Task{}
	}
	return tasks
}

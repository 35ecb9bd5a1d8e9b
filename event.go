package taskpulse

// Task is a single entry in the shared task list.
//
// Tasks are created through the WebSocket command surface or merged in from
// peer instances; the SDK exposes them read-only through [Event] callbacks
// registered with [WithOnEvent]. The JSON field names match the wire
// protocol, so a Task can be re-serialized for logging or forwarding without
// translation.
type Task struct {
	// ID is the server-assigned UUID identifying the task.
	ID string `json:"id"`

	// Text is the task description as submitted by the client.
	Text string `json:"text"`

	// Completed reports whether the task has been toggled done.
	Completed bool `json:"completed"`
}

// EventType identifies the kind of state change carried by an [Event].
//
// EventType is a string type that can hold one of three predefined values:
// [EventTasksOverview], [EventTaskAdded], or [EventTaskToggled]. The values
// match the "type" field of the broadcast frames, so an observer can
// correlate callback invocations with traffic seen on the wire.
type EventType string

const (
	// EventTasksOverview indicates a full task list was broadcast, usually
	// in response to a client requesting the current state.
	EventTasksOverview EventType = "tasks_overview"

	// EventTaskAdded indicates a new task was created and broadcast.
	EventTaskAdded EventType = "task_added"

	// EventTaskToggled indicates an existing task's completion state was
	// flipped and broadcast.
	EventTaskToggled EventType = "task_toggled"
)

// String returns the string representation of the event type.
// This implements the fmt.Stringer interface.
func (t EventType) String() string {
	return string(t)
}

// Event describes one broadcast state change.
//
// Events are delivered to [WithOnEvent] callbacks after the change has been
// applied and fanned out to connected WebSocket clients. Peer merges do not
// produce events; only changes that are broadcast do. The Task pointer and
// Tasks slice are copies detached from internal state, so observers may
// retain them after the callback returns.
type Event struct {
	// Type identifies the kind of change.
	Type EventType

	// Task is the task that was added or toggled. nil for
	// [EventTasksOverview] events, which carry no single subject.
	Task *Task

	// Tasks is the full task list after the change was applied.
	Tasks []Task
}

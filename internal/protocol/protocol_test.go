package protocol

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/jpalmerr/taskpulse/internal/task"
)

func TestParseCommand_Variants(t *testing.T) {
	tests := []struct {
		name  string
		frame string
		want  Command
	}{
		{"get_tasks", `{"action":"get_tasks"}`, GetTasks{}},
		{"add_task", `{"action":"add_task","text":"buy milk"}`, AddTask{Text: "buy milk"}},
		{"toggle_task", `{"action":"toggle_task","id":"abc"}`, ToggleTask{ID: "abc"}},
		{"add_task missing text", `{"action":"add_task"}`, AddTask{}},
		{"toggle_task missing id", `{"action":"toggle_task"}`, ToggleTask{}},
		{"extra fields ignored", `{"action":"get_tasks","junk":42}`, GetTasks{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCommand([]byte(tt.frame))
			if err != nil {
				t.Fatalf("ParseCommand(%s) error = %v", tt.frame, err)
			}
			if got != tt.want {
				t.Errorf("ParseCommand(%s) = %#v, want %#v", tt.frame, got, tt.want)
			}
		})
	}
}

func TestParseCommand_Malformed(t *testing.T) {
	frames := []string{
		``,
		`not json`,
		`[1,2,3]`,
		`"just a string"`,
		`{}`,
		`{"action":""}`,
		`{"text":"no action"}`,
	}

	for _, frame := range frames {
		_, err := ParseCommand([]byte(frame))
		if !errors.Is(err, ErrMalformed) {
			t.Errorf("ParseCommand(%q) error = %v, want ErrMalformed", frame, err)
		}
	}
}

func TestParseCommand_UnknownAction(t *testing.T) {
	_, err := ParseCommand([]byte(`{"action":"delete_task","id":"abc"}`))
	if !errors.Is(err, ErrUnknownAction) {
		t.Fatalf("ParseCommand() error = %v, want ErrUnknownAction", err)
	}

	// the offending action should be named for the log line
	if !strings.Contains(err.Error(), "delete_task") {
		t.Errorf("error %q does not name the action", err.Error())
	}
}

func TestEncodeCommand_RoundTrip(t *testing.T) {
	commands := []Command{
		GetTasks{},
		AddTask{Text: "buy milk"},
		ToggleTask{ID: "abc"},
	}

	for _, cmd := range commands {
		data, err := EncodeCommand(cmd)
		if err != nil {
			t.Fatalf("EncodeCommand(%#v) error = %v", cmd, err)
		}
		got, err := ParseCommand(data)
		if err != nil {
			t.Fatalf("ParseCommand(%s) error = %v", data, err)
		}
		if got != cmd {
			t.Errorf("round trip = %#v, want %#v", got, cmd)
		}
	}
}

func TestMarshalOverview(t *testing.T) {
	tasks := []task.Task{
		{ID: "1", Text: "one", Completed: false},
		{ID: "2", Text: "two", Completed: true},
	}

	data, err := MarshalOverview(tasks)
	if err != nil {
		t.Fatalf("MarshalOverview() error = %v", err)
	}

	ev, err := ParseEvent(data)
	if err != nil {
		t.Fatalf("ParseEvent() error = %v", err)
	}
	if ev.Type != TypeTasksOverview {
		t.Errorf("Type = %q, want %q", ev.Type, TypeTasksOverview)
	}
	if len(ev.Tasks) != 2 {
		t.Fatalf("Tasks = %v items, want 2", len(ev.Tasks))
	}
	if ev.Tasks[1] != tasks[1] {
		t.Errorf("Tasks[1] = %+v, want %+v", ev.Tasks[1], tasks[1])
	}
}

func TestMarshalOverview_EmptyIsArray(t *testing.T) {
	data, err := MarshalOverview(nil)
	if err != nil {
		t.Fatalf("MarshalOverview() error = %v", err)
	}

	// clients iterate tasks unconditionally; null would break them
	if !strings.Contains(string(data), `"tasks":[]`) {
		t.Errorf("MarshalOverview(nil) = %s, want tasks to be []", data)
	}
}

func TestMarshalTaskAdded(t *testing.T) {
	added := task.Task{ID: "1", Text: "one"}
	data, err := MarshalTaskAdded(added, []task.Task{added})
	if err != nil {
		t.Fatalf("MarshalTaskAdded() error = %v", err)
	}

	ev, err := ParseEvent(data)
	if err != nil {
		t.Fatalf("ParseEvent() error = %v", err)
	}
	if ev.Type != TypeTaskAdded {
		t.Errorf("Type = %q, want %q", ev.Type, TypeTaskAdded)
	}
	if ev.Task == nil || *ev.Task != added {
		t.Errorf("Task = %+v, want %+v", ev.Task, added)
	}
	if len(ev.Tasks) != 1 {
		t.Errorf("Tasks = %v items, want 1", len(ev.Tasks))
	}
}

func TestMarshalTaskToggled(t *testing.T) {
	toggled := task.Task{ID: "1", Text: "one", Completed: true}
	data, err := MarshalTaskToggled(toggled, []task.Task{toggled})
	if err != nil {
		t.Fatalf("MarshalTaskToggled() error = %v", err)
	}

	ev, err := ParseEvent(data)
	if err != nil {
		t.Fatalf("ParseEvent() error = %v", err)
	}
	if ev.Type != TypeTaskToggled {
		t.Errorf("Type = %q, want %q", ev.Type, TypeTaskToggled)
	}
	if ev.Task == nil || !ev.Task.Completed {
		t.Errorf("Task = %+v, want completed", ev.Task)
	}
}

func TestMarshalAck(t *testing.T) {
	data := MarshalAck()

	var ev ackEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		t.Fatalf("ack frame is not valid JSON: %v", err)
	}
	if ev.Type != TypeAck {
		t.Errorf("Type = %q, want %q", ev.Type, TypeAck)
	}
}

func TestParseEvent_MissingType(t *testing.T) {
	for _, frame := range []string{`{}`, `{"tasks":[]}`, `garbage`} {
		_, err := ParseEvent([]byte(frame))
		if !errors.Is(err, ErrMalformed) {
			t.Errorf("ParseEvent(%q) error = %v, want ErrMalformed", frame, err)
		}
	}
}

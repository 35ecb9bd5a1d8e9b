// Standalone WebSocket client for exercising a running instance from the
// command line. It speaks the same wire protocol as the web UI.
//
// Usage:
//
//	go run ./example/cmd/wsclient                      # print the list
//	go run ./example/cmd/wsclient -add "buy milk"      # add a task
//	go run ./example/cmd/wsclient -toggle <id>         # toggle a task
//	go run ./example/cmd/wsclient -watch               # keep printing broadcasts
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/websocket"
)

func main() {
	if err := mainInner(); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}

func mainInner() error {
	addrVar := flag.String("addr", "127.0.0.1:8080", "host:port of a running taskpulse instance")
	addVar := flag.String("add", "", "text of a task to add")
	toggleVar := flag.String("toggle", "", "id of a task to toggle")
	watchVar := flag.Bool("watch", false, "keep the connection open and print every broadcast")
	flag.Parse()

	u := url.URL{Scheme: "ws", Host: *addrVar, Path: "/ws"}
	conn, resp, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to dial %s: %w", u.String(), err)
	}
	defer conn.Close()
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}

	var command map[string]string
	switch {
	case *addVar != "":
		command = map[string]string{"action": "add_task", "text": *addVar}
	case *toggleVar != "":
		command = map[string]string{"action": "toggle_task", "id": *toggleVar}
	default:
		command = map[string]string{"action": "get_tasks"}
	}

	payload, err := json.Marshal(command)
	if err != nil {
		return fmt.Errorf("failed to encode command: %w", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return fmt.Errorf("failed to send command: %w", err)
	}

	// an interrupt closes the connection, which ends the read loop
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("connection closed: %w", err)
		}
		printFrame(frame)
		if !*watchVar {
			return nil
		}
	}
}

// wireTask mirrors the task object carried by broadcast frames.
type wireTask struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

func printFrame(frame []byte) {
	var ev struct {
		Type  string     `json:"type"`
		Task  *wireTask  `json:"task"`
		Tasks []wireTask `json:"tasks"`
	}
	if err := json.Unmarshal(frame, &ev); err != nil {
		fmt.Printf("unparsed frame: %s\n", frame)
		return
	}

	switch ev.Type {
	case "task_added":
		if ev.Task != nil {
			fmt.Printf("added: %s\n", formatTask(*ev.Task))
		}
	case "task_toggled":
		if ev.Task != nil {
			fmt.Printf("toggled: %s\n", formatTask(*ev.Task))
		}
	case "tasks_overview":
		fmt.Printf("%d task(s):\n", len(ev.Tasks))
		for _, t := range ev.Tasks {
			fmt.Printf("  %s\n", formatTask(t))
		}
	case "ack":
		fmt.Println("ack")
	default:
		fmt.Printf("unknown frame type %q: %s\n", ev.Type, frame)
	}
}

func formatTask(t wireTask) string {
	box := "[ ]"
	if t.Completed {
		box = "[x]"
	}
	return fmt.Sprintf("%s %s  (%s)", box, t.Text, t.ID)
}

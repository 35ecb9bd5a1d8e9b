package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/jpalmerr/taskpulse/internal/hub"
	"github.com/jpalmerr/taskpulse/internal/protocol"
)

// controlWriteTimeout bounds pong replies so a dead peer cannot wedge the
// read loop inside a control handler.
const controlWriteTimeout = 5 * time.Second

// handleWS upgrades the connection and attaches it to the hub as a push
// subscriber.
//
// The read loop runs in the handler goroutine; a second goroutine drains
// the channel's outbound queue to the socket. Text frames carry commands;
// command failures are logged and the frame is dropped with no error reply.
// Binary frames are rejected. Ping and pong probes are answered with an ack
// frame routed through the hub, so acks serialize with broadcasts.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written an HTTP error to the client
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	ch, err := s.hub.Subscribe(r.Context())
	if err != nil {
		s.logger.Error("websocket subscribe failed", "error", err)
		_ = conn.Close()
		return
	}

	logger := s.logger.With("channel_id", ch.ID(), "remote", conn.RemoteAddr().String())
	logger.Info("websocket connected")

	// Write pump. Exits when the hub closes the queue (unsubscribe or
	// shutdown) or a write fails; closing the connection unblocks the read
	// loop below either way.
	go func() {
		defer conn.Close()
		for frame := range ch.Out() {
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				logger.Warn("websocket write failed", "error", err)
				return
			}
		}
	}()

	conn.SetPingHandler(func(appData string) error {
		deadline := time.Now().Add(controlWriteTimeout)
		if err := conn.WriteControl(websocket.PongMessage, []byte(appData), deadline); err != nil {
			logger.Warn("websocket pong reply failed", "error", err)
		}
		s.ack(r.Context(), ch, logger)
		return nil
	})
	conn.SetPongHandler(func(string) error {
		s.ack(r.Context(), ch, logger)
		return nil
	})

	defer func() {
		s.hub.Unsubscribe(ch)
		logger.Info("websocket disconnected")
	}()

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) &&
				!errors.Is(err, net.ErrClosed) {
				logger.Warn("websocket read failed", "error", err)
			}
			return
		}

		switch msgType {
		case websocket.TextMessage:
			s.runCommand(r.Context(), data, logger)
		case websocket.BinaryMessage:
			logger.Warn("binary frame rejected")
		}
	}
}

// runCommand parses one inbound text frame and applies it against the hub.
// All failures are logged and dropped; no error frame goes back to the
// client.
func (s *Server) runCommand(ctx context.Context, data []byte, logger *slog.Logger) {
	cmd, err := protocol.ParseCommand(data)
	if err != nil {
		logger.Warn("dropping command", "error", err)
		return
	}

	switch c := cmd.(type) {
	case protocol.GetTasks:
		err = s.hub.Overview(ctx)
	case protocol.AddTask:
		_, err = s.hub.Create(ctx, c.Text)
	case protocol.ToggleTask:
		_, err = s.hub.Toggle(ctx, c.ID)
	}
	if err != nil {
		logger.Warn("dropping command", "error", err)
	}
}

// ack queues an ack frame to the probing subscriber only.
func (s *Server) ack(ctx context.Context, ch *hub.Channel, logger *slog.Logger) {
	if err := s.hub.Ack(ctx, ch); err != nil {
		logger.Warn("ack failed", "error", err)
	}
}

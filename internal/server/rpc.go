package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/jpalmerr/taskpulse/internal/hub"
	"github.com/jpalmerr/taskpulse/internal/task"
)

// maxRequestBodySize bounds inbound request bodies, peer merge payloads
// included.
const maxRequestBodySize = 1 << 20 // 1MB

// errBadArgument marks a request whose method argument failed to decode.
var errBadArgument = errors.New("bad argument")

// rpcHandler executes one named method. arg is the JSON value carried under
// the method's key in the request body.
type rpcHandler func(ctx context.Context, arg json.RawMessage) (any, error)

// handleAPI serves the query surface. The request body is a JSON object
// with exactly one key naming the method, e.g. {"tasks": "sync"}. A bare
// request with an empty body reads as a task list request.
func (s *Server) handleAPI(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodySize))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	if len(bytes.TrimSpace(body)) == 0 {
		body = []byte(`{"tasks":""}`)
	}
	s.serveRPC(w, r, s.apiMethods, body)
}

// handlePeer serves share/merge calls from other instances.
func (s *Server) handlePeer(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodySize))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	s.serveRPC(w, r, s.peerMethods, body)
}

// serveRPC decodes the single-method envelope and dispatches to the handler
// registered under that name.
func (s *Server) serveRPC(w http.ResponseWriter, r *http.Request, methods map[string]rpcHandler, body []byte) {
	var req map[string]json.RawMessage
	if err := json.Unmarshal(body, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if len(req) != 1 {
		s.writeError(w, http.StatusBadRequest, "request must name exactly one method")
		return
	}

	for name, arg := range req {
		h, ok := methods[name]
		if !ok {
			s.writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown method %q", name))
			return
		}
		result, err := h(r.Context(), arg)
		if err != nil {
			s.writeError(w, statusFor(err), err.Error())
			return
		}
		s.writeJSON(w, http.StatusOK, result)
	}
}

// rpcTasks returns the current task list. The argument is an arbitrary
// request string and is ignored.
func (s *Server) rpcTasks(ctx context.Context, _ json.RawMessage) (any, error) {
	return s.hub.Tasks(ctx)
}

// rpcShareTasks hands the full local task list to a remote peer. Sharing
// never mutates local state.
func (s *Server) rpcShareTasks(ctx context.Context, _ json.RawMessage) (any, error) {
	return s.hub.Tasks(ctx)
}

// rpcMergeTasks appends a remote peer's tasks to the local store.
func (s *Server) rpcMergeTasks(ctx context.Context, arg json.RawMessage) (any, error) {
	var incoming []task.Task
	if err := json.Unmarshal(arg, &incoming); err != nil {
		return nil, fmt.Errorf("%w: merge_tasks expects a task array", errBadArgument)
	}
	if err := s.hub.Merge(ctx, incoming); err != nil {
		return nil, err
	}
	return "ok", nil
}

// statusFor maps a handler error to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadArgument):
		return http.StatusBadRequest
	case errors.Is(err, hub.ErrStopped):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeJSON renders a success payload.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

// writeError renders an error as a JSON-encoded string with a non-2xx
// status, the shape peers and the web UI expect.
func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(msg); err != nil {
		s.logger.Error("failed to encode error response", "error", err)
	}
}

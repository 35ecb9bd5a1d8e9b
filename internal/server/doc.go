// Package server provides the HTTP server for the TaskPulse UI, API, and
// WebSocket surface.
//
// This package is internal to TaskPulse and handles all HTTP concerns:
//
//   - Web UI serving: Serves the embedded HTML/JS page at "/"
//   - Query API: JSON method dispatch at "/api" for reading the task list
//   - Peer endpoint: share/merge dispatch at "/peer" for reconciliation
//   - WebSocket: command and broadcast channel at "/ws"
//
// The server supports graceful shutdown via context cancellation, with a
// 5-second timeout for in-flight requests.
//
// Users of the taskpulse library should not need to interact with this
// package directly. The server is started automatically by [taskpulse.TaskPulse.Start].
package server

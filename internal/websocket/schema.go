package websocket

import "github.com/stemsi/exprep-backend/internal/model"

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionPing   Action = "ping"
	ActionStatus Action = "status"
)

// RequestEnvelope is every client message on the sync stream.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError  Event = "error"
	EventStatus Event = "status"
	EventPong   Event = "pong"
)

// StatusResponse carries the learner's sync state, sent on connect, on
// request and whenever the worker publishes a change.
type StatusResponse struct {
	Event Event `json:"event"`
	model.SyncState
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}

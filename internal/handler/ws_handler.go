package handler

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/stemsi/exprep-backend/internal/middleware"
	"github.com/stemsi/exprep-backend/internal/model"
	"github.com/stemsi/exprep-backend/internal/response"
	"github.com/stemsi/exprep-backend/internal/service"
	ws "github.com/stemsi/exprep-backend/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// SyncHandler reports cloud mirror state, once over HTTP or as a stream.
type SyncHandler struct {
	syncService *service.SyncService
	log         zerolog.Logger
	upgrader    websocket.Upgrader
}

// NewSyncHandler creates a new SyncHandler.
func NewSyncHandler(syncService *service.SyncService, log zerolog.Logger, allowedOrigins []string) *SyncHandler {
	return &SyncHandler{
		syncService: syncService,
		log:         log.With().Str("component", "sync_handler").Logger(),
		upgrader:    buildUpgrader(allowedOrigins),
	}
}

// Status godoc
// GET /api/v1/sync/status
func (h *SyncHandler) Status(c *gin.Context) {
	learner := middleware.GetLearner(c)
	response.Success(c, http.StatusOK, h.syncService.Status(c.Request.Context(), learner.ID))
}

// Stream godoc
// WS /ws/v1/sync/stream
// Sends the current sync state on connect and every change published by the
// sync worker. Clients may send {"action":"ping"} or {"action":"status"}.
func (h *SyncHandler) Stream(c *gin.Context) {
	learner := middleware.GetLearner(c)
	if !h.syncService.Enabled() {
		response.Fail(c, http.StatusServiceUnavailable, response.ErrRemoteUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	ctx := c.Request.Context()
	wsLog := h.log.With().Str("learner_id", learner.ID).Logger()
	wsLog.Info().Msg("Sync stream connected")

	sub := h.syncService.Subscribe(ctx, learner.ID)
	defer sub.Close()
	events := sub.Channel()

	requests := make(chan ws.Action)
	go func() {
		defer close(requests)
		for {
			var msg ws.RequestEnvelope
			if err := ws.ReadJSON(conn, &msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					wsLog.Warn().Err(err).Msg("Unexpected close")
				}
				return
			}
			select {
			case requests <- msg.Action:
			case <-ctx.Done():
				return
			}
		}
	}()

	sendStatus := func(state model.SyncState) error {
		return ws.WriteTyped(conn, ws.StatusResponse{Event: ws.EventStatus, SyncState: state})
	}
	if err := sendStatus(h.syncService.Status(ctx, learner.ID)); err != nil {
		return
	}

	ping := time.NewTicker(ws.PingPeriod)
	defer ping.Stop()

	for {
		var err error
		select {
		case <-ctx.Done():
			return

		case action, ok := <-requests:
			if !ok {
				wsLog.Debug().Msg("Sync stream closed")
				return
			}
			switch action {
			case ws.ActionPing:
				err = ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong})
			case ws.ActionStatus:
				err = sendStatus(h.syncService.Status(ctx, learner.ID))
			default:
				err = ws.WriteError(conn, "unknown action")
			}

		case msg, ok := <-events:
			if !ok {
				return
			}
			var state model.SyncState
			if jsonErr := json.Unmarshal([]byte(msg.Payload), &state); jsonErr != nil {
				wsLog.Warn().Err(jsonErr).Msg("Malformed sync event")
				continue
			}
			err = sendStatus(state)

		case <-ping.C:
			err = ws.WritePing(conn)
		}

		if err != nil {
			wsLog.Debug().Err(err).Msg("Sync stream write failed")
			return
		}
	}
}

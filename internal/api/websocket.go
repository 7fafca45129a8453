// websocket.go - Batch progress streaming over WebSocket
package api

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

// WebSocket message types for the progress protocol
const (
	// Client -> Server messages
	MsgTypePing = "ping"

	// Server -> Client messages
	MsgTypeConnected = "connected"
	MsgTypeBatch     = "batch"
	MsgTypeComplete  = "complete"
	MsgTypeError     = "error"
	MsgTypePong      = "pong"
)

// snapshotInterval is how often the pusher re-checks the batch for changes.
const snapshotInterval = 500 * time.Millisecond

// WSMessage is the typed envelope for every frame in both directions.
type WSMessage struct {
	Type      string          `json:"type"`
	ID        string          `json:"id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// WSErrorResponse is the payload of an error frame.
type WSErrorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// WebSocketHandler streams batch progress to connected clients. Each
// connection watches exactly one batch; the server pushes a fresh snapshot
// whenever the batch changes and a final frame when it finishes.
type WebSocketHandler struct {
	batchMgr BatchManager
	upgrader websocket.Upgrader
}

// NewWebSocketHandler creates a new progress streaming handler
func NewWebSocketHandler(batchMgr BatchManager) *WebSocketHandler {
	return &WebSocketHandler{
		batchMgr: batchMgr,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// Same-origin enforcement happens at the CORS layer; the
				// embedded frontend and dev servers both connect here.
				return true
			},
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 16 * 1024,
		},
	}
}

// HandleBatchSocket upgrades the connection and streams snapshots of one
// batch until it reaches a terminal status or the client disconnects.
func (wsh *WebSocketHandler) HandleBatchSocket(c echo.Context) error {
	batchID := c.Param("id")
	if batchID == "" {
		return NewValidationError("id")
	}

	if _, ok := wsh.batchMgr.GetBatch(batchID); !ok {
		return NewNotFoundError("batch", batchID)
	}

	ws, err := wsh.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer ws.Close()

	logCtx := slog.With("component", "ws", "batch", batchID)
	logCtx.Debug("Client connected for batch progress")

	wsh.sendMessage(ws, WSMessage{
		Type:      MsgTypeConnected,
		ID:        batchID,
		Timestamp: time.Now().UnixMilli(),
	})

	// The connection supports at most one concurrent writer, so every
	// outbound frame funnels through pushLoop; readLoop only enqueues
	// replies on the outbox.
	done := make(chan struct{})
	outbox := make(chan WSMessage, 8)
	go wsh.readLoop(ws, batchID, done, outbox)

	wsh.pushLoop(ws, batchID, done, outbox)

	logCtx.Debug("Client disconnected")
	return nil
}

// readLoop drains client frames. Pings get a pong and count as batch
// keepalive activity; a read error means the client went away.
func (wsh *WebSocketHandler) readLoop(ws *websocket.Conn, batchID string, done chan struct{}, outbox chan<- WSMessage) {
	defer close(done)

	for {
		var msg WSMessage
		if err := ws.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				slog.Debug("WebSocket read error", "batch", batchID, "error", err)
			}
			return
		}

		var reply WSMessage
		switch msg.Type {
		case MsgTypePing:
			wsh.batchMgr.TouchBatch(batchID)
			reply = WSMessage{Type: MsgTypePong, Timestamp: time.Now().UnixMilli()}
		default:
			reply = WSMessage{
				Type:      MsgTypeError,
				Timestamp: time.Now().UnixMilli(),
				Payload:   mustJSON(WSErrorResponse{Message: "Unknown message type: " + msg.Type, Code: "INVALID_TYPE"}),
			}
		}

		select {
		case outbox <- reply:
		default:
			// Client pings faster than the writer drains; dropping a pong
			// is harmless, the next one will get through.
		}
	}
}

// pushLoop is the connection's sole writer. It sends a batch snapshot
// whenever it differs from the last one sent, relays readLoop's queued
// replies, then sends a final complete frame once the batch reaches a
// terminal status.
func (wsh *WebSocketHandler) pushLoop(ws *websocket.Conn, batchID string, done <-chan struct{}, outbox <-chan WSMessage) {
	ticker := time.NewTicker(snapshotInterval)
	defer ticker.Stop()

	var lastSent []byte

	for {
		select {
		case <-done:
			return
		case msg := <-outbox:
			wsh.sendMessage(ws, msg)
		case <-ticker.C:
			batch, ok := wsh.batchMgr.GetBatch(batchID)
			if !ok {
				wsh.sendError(ws, "batch no longer exists", "NOT_FOUND")
				return
			}

			payload, err := json.Marshal(batch)
			if err != nil {
				wsh.sendError(ws, "failed to encode batch: "+err.Error(), "ENCODE_ERROR")
				return
			}

			if bytes.Equal(payload, lastSent) {
				continue
			}
			lastSent = payload

			msgType := MsgTypeBatch
			terminal := batch.Status == "complete" || batch.Status == "error"
			if terminal {
				msgType = MsgTypeComplete
			}

			wsh.sendMessage(ws, WSMessage{
				Type:      msgType,
				ID:        batchID,
				Payload:   payload,
				Timestamp: time.Now().UnixMilli(),
			})

			if terminal {
				// Keep answering pings until the client hangs up so the
				// final frame is not lost to an early close.
				for {
					select {
					case <-done:
						return
					case msg := <-outbox:
						wsh.sendMessage(ws, msg)
					}
				}
			}
		}
	}
}

// Helper methods

func (wsh *WebSocketHandler) sendMessage(ws *websocket.Conn, msg WSMessage) {
	if err := ws.WriteJSON(msg); err != nil {
		slog.Debug("Failed to send WebSocket message", "error", err)
	}
}

func (wsh *WebSocketHandler) sendError(ws *websocket.Conn, message, code string) {
	wsh.sendMessage(ws, WSMessage{
		Type:      MsgTypeError,
		Timestamp: time.Now().UnixMilli(),
		Payload:   mustJSON(WSErrorResponse{Message: message, Code: code}),
	})
}

func mustJSON(v interface{}) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return []byte("{}")
	}
	return data
}

package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/plc-visualizer/twin-editor/internal/command"
	"github.com/plc-visualizer/twin-editor/internal/editor"
	"github.com/plc-visualizer/twin-editor/internal/logs"
	"github.com/plc-visualizer/twin-editor/internal/session"
)

// WebSocket message types for the editor feed
const (
	// Client -> Server messages
	MsgTypePointer = "pointer"
	MsgTypeKey     = "key"
	MsgTypeWheel   = "wheel"
	MsgTypeCommand = "command"
	MsgTypePing    = "ping"

	// Server -> Client messages
	MsgTypeConnected = "connected"
	MsgTypeAck       = "ack"
	MsgTypeError     = "error"
	MsgTypePong      = "pong"
)

const (
	feedBuffer   = 64
	writeTimeout = 10 * time.Second
	pingInterval = 30 * time.Second
)

// WebSocket message structure
type WSMessage struct {
	Type      string          `json:"type"`
	ID        string          `json:"id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// WebSocket ack payload
type WSAckResponse struct {
	Handled bool   `json:"handled"`
	Result  string `json:"result,omitempty"`
}

// WebSocket error response
type WSErrorResponse struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// WebSocketHandler streams store notifications and accepts input over WebSocket
type WebSocketHandler struct {
	*base
	upgrader websocket.Upgrader
}

// NewWebSocketHandler creates a new WebSocket feed handler
func NewWebSocketHandler(b *base) *WebSocketHandler {
	return &WebSocketHandler{
		base: b,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// Allow connections from dev server
				return true
			},
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 64 * 1024,
		},
	}
}

// HandleWebSocket upgrades the connection, sends the current state and then
// every notification of the workspace until the client leaves.
func (wsh *WebSocketHandler) HandleWebSocket(c echo.Context) error {
	w, err := wsh.workspace(c)
	if err != nil {
		return err
	}
	var view *session.ViewState
	if err := w.Do(func() { view = w.View() }); err != nil {
		return FromError(err)
	}

	conn, err := wsh.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	log := logs.For("websocket").WithField("session", w.ID)
	log.Info("[WebSocket] Client connected")

	feed, cancel := w.Feed.Subscribe(feedBuffer)
	out := make(chan WSMessage, 16)
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		wsh.writeLoop(conn, feed, out, done)
	}()

	wsh.queue(out, done, WSMessage{
		Type:      MsgTypeConnected,
		ID:        w.ID,
		Timestamp: time.Now().UnixMilli(),
		Payload:   mustJSON(view),
	})

	// Main message loop
	for {
		var msg WSMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warnf("[WebSocket] Connection error: %v", err)
			}
			break
		}
		wsh.sessions.TouchSession(w.ID)
		wsh.queue(out, done, wsh.handleMessage(w, msg))
	}

	cancel()
	close(done)
	wg.Wait()
	log.Info("[WebSocket] Client disconnected")
	return nil
}

// writeLoop is the only goroutine that writes to conn.
func (wsh *WebSocketHandler) writeLoop(conn *websocket.Conn, feed <-chan session.Notification, out <-chan WSMessage, done <-chan struct{}) {
	ping := time.NewTicker(pingInterval)
	defer ping.Stop()

	write := func(v interface{}) bool {
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteJSON(v); err != nil {
			logs.For("websocket").Debugf("[WebSocket] Failed to send message: %v", err)
			conn.Close()
			return false
		}
		return true
	}

	for {
		select {
		case <-done:
			return
		case n, ok := <-feed:
			if !ok {
				// Workspace closed.
				conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "session closed"),
					time.Now().Add(writeTimeout))
				conn.Close()
				return
			}
			if !write(n) {
				return
			}
		case m := <-out:
			if !write(m) {
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				conn.Close()
				return
			}
		}
	}
}

func (wsh *WebSocketHandler) queue(out chan<- WSMessage, done <-chan struct{}, msg WSMessage) {
	select {
	case out <- msg:
	case <-done:
	}
}

// handleMessage applies one client message on the workspace loop and builds the reply.
func (wsh *WebSocketHandler) handleMessage(w *session.Workspace, msg WSMessage) WSMessage {
	var handled bool
	var result string
	var opErr, doErr error

	switch msg.Type {
	case MsgTypePing:
		// Respond with pong to keep connection alive
		return WSMessage{Type: MsgTypePong, ID: msg.ID, Timestamp: time.Now().UnixMilli()}

	case MsgTypePointer:
		var req pointerRequest
		if err := json.Unmarshal(msg.Payload, &req); err != nil {
			return errorMessage(msg.ID, "Invalid pointer payload: "+err.Error(), "INVALID_PAYLOAD")
		}
		doErr = w.Do(func() { handled, opErr = dispatchPointer(w, req.Phase, req.PointerEvent) })

	case MsgTypeKey:
		var req keyRequest
		if err := json.Unmarshal(msg.Payload, &req); err != nil {
			return errorMessage(msg.ID, "Invalid key payload: "+err.Error(), "INVALID_PAYLOAD")
		}
		doErr = w.Do(func() { handled, opErr = dispatchKey(w, req.Phase, req.KeyEvent) })

	case MsgTypeWheel:
		var ev editor.WheelEvent
		if err := json.Unmarshal(msg.Payload, &ev); err != nil {
			return errorMessage(msg.ID, "Invalid wheel payload: "+err.Error(), "INVALID_PAYLOAD")
		}
		doErr = w.Do(func() {
			w.Engine.Wheel(ev)
			handled = true
		})

	case MsgTypeCommand:
		var req commandRequest
		if err := json.Unmarshal(msg.Payload, &req); err != nil {
			return errorMessage(msg.ID, "Invalid command payload: "+err.Error(), "INVALID_PAYLOAD")
		}
		doErr = w.Do(func() {
			result, opErr = command.Run(w.History, req.Input)
			handled = opErr == nil
		})

	default:
		return errorMessage(msg.ID, "Unknown message type: "+msg.Type, "INVALID_TYPE")
	}

	if doErr != nil {
		opErr = doErr
	}
	if opErr != nil {
		apiErr := FromError(opErr)
		return errorMessage(msg.ID, apiErr.Message+detailSuffix(apiErr), apiErr.Code)
	}
	return WSMessage{
		Type:      MsgTypeAck,
		ID:        msg.ID,
		Timestamp: time.Now().UnixMilli(),
		Payload:   mustJSON(WSAckResponse{Handled: handled, Result: result}),
	}
}

func detailSuffix(e *APIError) string {
	if e.Details == "" {
		return ""
	}
	return ": " + e.Details
}

func errorMessage(id, message, code string) WSMessage {
	return WSMessage{
		Type:      MsgTypeError,
		ID:        id,
		Timestamp: time.Now().UnixMilli(),
		Payload: mustJSON(WSErrorResponse{
			Type:    MsgTypeError,
			Message: message,
			Code:    code,
		}),
	}
}

func mustJSON(v interface{}) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return []byte("{}")
	}
	return data
}

package socket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"mdviewer/internal/autosave"
	"mdviewer/pkg/logger"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The editor UI is served from a different dev origin.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Client is one open editor: a WebSocket plus the autosave controller that
// watches its buffer.
type Client struct {
	Hub       *Hub
	Conn      *websocket.Conn
	SessionID string
	UserID    string
	Send      chan []byte
	Autosave  *autosave.Controller

	mu     sync.Mutex
	closed bool
}

func ServeWs(hub *Hub, w http.ResponseWriter, r *http.Request, userID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Sugar.Error(err)
		return
	}

	client := &Client{
		Hub:       hub,
		Conn:      conn,
		SessionID: uuid.NewString(),
		UserID:    userID,
		Send:      make(chan []byte, 256),
	}
	client.Autosave = hub.newController(client)

	client.Hub.Register <- client

	go client.writePump()
	go client.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.Hub.Unregister <- c
		c.Conn.Close()
	}()

	for {
		_, rawMessage, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Sugar.Errorf("error: %v", err)
			}
			break
		}

		var msg WSMessage
		if err := json.Unmarshal(rawMessage, &msg); err != nil {
			logger.Sugar.Errorf("Error unmarshalling message: %v", err)
			continue
		}

		switch msg.Type {
		case BufferType:
			var payload BufferPayload
			if err := json.Unmarshal(msg.Payload, &payload); err != nil {
				logger.Sugar.Warnf("Session %s sent a malformed buffer: %v", c.SessionID, err)
				continue
			}
			c.Autosave.BufferChanged(payload.Content)

		case AutosaveType:
			var payload AutosavePayload
			if err := json.Unmarshal(msg.Payload, &payload); err != nil {
				logger.Sugar.Warnf("Session %s sent a malformed autosave toggle: %v", c.SessionID, err)
				continue
			}
			if err := c.Hub.prefs.SetAutoSave(context.Background(), payload.Enabled); err != nil {
				logger.Sugar.Warnf("Failed to persist autosave preference: %v", err)
			}
			c.Hub.AutosaveChanged(payload.Enabled)

		default:
			logger.Sugar.Warnf("Session %s sent unknown message type %q", c.SessionID, msg.Type)
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case message, ok := <-c.Send:
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				c.Conn.Close()
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// enqueue reports false only when the send buffer is full.
func (c *Client) enqueue(payload []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || payload == nil {
		return true
	}
	select {
	case c.Send <- payload:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.Send)
	}
}

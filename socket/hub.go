package socket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"mdviewer/internal/autosave"
	"mdviewer/internal/document/model"
	"mdviewer/internal/document/repository"
	"mdviewer/internal/preferences"
	"mdviewer/pkg/logger"
)

const (
	BufferType    = "BUFFER"    // Editor buffer changed (client -> server)
	AutosaveType  = "AUTOSAVE"  // Autosave toggled (both directions)
	StatusType    = "STATUS"    // Session snapshot sent on connect
	SavedType     = "SAVED"     // A checkpoint or explicit save was recorded
	DocumentsType = "DOCUMENTS" // The cached document list must be replaced
)

type WSMessage struct {
	Type      string          `json:"type"`
	SessionID string          `json:"session_id,omitempty"`
	UserID    string          `json:"user_id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

type BufferPayload struct {
	Content string `json:"content"`
}

type AutosavePayload struct {
	Enabled bool `json:"enabled"`
}

type SavedPayload struct {
	Document model.SavedDocument `json:"document"`
	SavedAt  time.Time           `json:"saved_at"`
}

type StatusPayload struct {
	AutosaveEnabled bool                  `json:"autosave_enabled"`
	Theme           string                `json:"theme"`
	Documents       []model.SavedDocument `json:"documents"`
}

// Hub tracks open editor sessions. Each session owns an autosave controller;
// document list changes fan out to every session.
type Hub struct {
	Sessions   map[*Client]bool
	Broadcast  chan WSMessage
	Register   chan *Client
	Unregister chan *Client

	docs     *repository.DocumentRepository
	prefs    *preferences.Store
	autosave autosave.Options
	mu       sync.Mutex
}

func NewHub(docs *repository.DocumentRepository, prefs *preferences.Store, opts autosave.Options) *Hub {
	return &Hub{
		Sessions:   make(map[*Client]bool),
		Broadcast:  make(chan WSMessage, 16),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		docs:       docs,
		prefs:      prefs,
		autosave:   opts,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			h.Sessions[client] = true
			h.mu.Unlock()

			ctx := context.Background()
			status := StatusPayload{
				AutosaveEnabled: client.Autosave.Enabled(),
				Theme:           string(h.prefs.Theme(ctx)),
				Documents:       h.docs.ListAll(ctx),
			}
			client.enqueue(encode(StatusType, client.SessionID, status))
			logger.Sugar.Infof("Editor session %s opened by %s", client.SessionID, client.UserID)

		case client := <-h.Unregister:
			h.mu.Lock()
			if _, ok := h.Sessions[client]; ok {
				delete(h.Sessions, client)
				client.Autosave.Close()
				client.close()
				logger.Sugar.Infof("Editor session %s closed", client.SessionID)
			}
			h.mu.Unlock()

		case msg := <-h.Broadcast:
			payload, err := json.Marshal(msg)
			if err != nil {
				logger.Sugar.Errorf("Error marshalling broadcast message: %v", err)
				continue
			}

			// Copy recipients so no lock is held during sends.
			h.mu.Lock()
			clientsToSend := make([]*Client, 0, len(h.Sessions))
			for client := range h.Sessions {
				if msg.SessionID == "" || client.SessionID != msg.SessionID {
					clientsToSend = append(clientsToSend, client)
				}
			}
			h.mu.Unlock()

			for _, client := range clientsToSend {
				if !client.enqueue(payload) {
					logger.Sugar.Warnf("Session %s's send buffer is full. Unregistering.", client.SessionID)
					go func(c *Client) { h.Unregister <- c }(client)
				}
			}
		}
	}
}

// DocumentsChanged pushes a fresh copy of the collection to every session.
func (h *Hub) DocumentsChanged(docs []model.SavedDocument) {
	raw, err := json.Marshal(docs)
	if err != nil {
		logger.Sugar.Errorf("Error marshalling document list: %v", err)
		return
	}
	h.Broadcast <- WSMessage{Type: DocumentsType, Payload: raw}
}

// AutosaveChanged applies a new autosave preference to every open session.
// Persisting the preference is the caller's job.
func (h *Hub) AutosaveChanged(enabled bool) {
	h.mu.Lock()
	for client := range h.Sessions {
		client.Autosave.SetEnabled(enabled)
	}
	h.mu.Unlock()

	raw, _ := json.Marshal(AutosavePayload{Enabled: enabled})
	h.Broadcast <- WSMessage{Type: AutosaveType, Payload: raw}
}

// DocumentSaved records an explicit save as every session's last save and
// tells the editors about it.
func (h *Hub) DocumentSaved(doc model.SavedDocument) {
	h.mu.Lock()
	for client := range h.Sessions {
		client.Autosave.RecordSave(doc.UpdatedAt)
	}
	h.mu.Unlock()

	raw, err := json.Marshal(SavedPayload{Document: doc, SavedAt: doc.UpdatedAt})
	if err != nil {
		logger.Sugar.Errorf("Error marshalling saved document: %v", err)
		return
	}
	h.Broadcast <- WSMessage{Type: SavedType, Payload: raw}
}

// SessionCount returns the number of registered sessions.
func (h *Hub) SessionCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.Sessions)
}

func (h *Hub) newController(client *Client) *autosave.Controller {
	opts := h.autosave
	opts.OnCheckpoint = func(doc model.SavedDocument, at time.Time) {
		client.enqueue(encode(SavedType, client.SessionID, SavedPayload{Document: doc, SavedAt: at}))
		h.DocumentsChanged(h.docs.ListAll(context.Background()))
	}
	ctrl := autosave.New(h.docs, opts)
	ctrl.SetEnabled(h.prefs.AutoSave(context.Background()))
	return ctrl
}

func encode(msgType, sessionID string, payload interface{}) []byte {
	raw, err := json.Marshal(payload)
	if err != nil {
		logger.Sugar.Errorf("Error marshalling %s payload: %v", msgType, err)
		return nil
	}
	out, _ := json.Marshal(WSMessage{Type: msgType, SessionID: sessionID, Payload: raw})
	return out
}

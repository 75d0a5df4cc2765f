package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/Noe001/work-optimizer-sub001/internal/services"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var chatUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin policy is enforced by the CORS layer on the upgrade request.
		return true
	},
}

// ChatClientFrame is what the frontend sends over the WebSocket.
type ChatClientFrame struct {
	Type    string `json:"type"` // "message", "typing_start", "typing_stop", "read", "ping"
	Content string `json:"content,omitempty"`
}

// wsSession serializes all outbound writes on one connection. gorilla
// permits a single concurrent writer, and events reach a connection from
// two goroutines: the hub forwarder and the reader loop's acks and errors.
type wsSession struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (s *wsSession) writeEvent(evt services.ChatEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(evt)
}

// ChatWebSocket serves a room's real-time stream. Authentication uses the
// usual bearer token, with a `token` query parameter fallback for browser
// WebSocket clients. Each connection is bound to one room via `room_id`.
func ChatWebSocket(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(r)
	if !ok {
		http.Error(w, "missing or invalid token", http.StatusUnauthorized)
		return
	}

	roomID, err := parseRoomQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	allowed, err := services.CanAccessRoom(r.Context(), roomID, userID)
	if err != nil || !allowed {
		http.Error(w, "you do not have access to this room", http.StatusForbidden)
		return
	}

	userName, _ := services.GetUserNameByID(r.Context(), userID)

	conn, err := chatUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	sess := &wsSession{conn: conn}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Local subscription fed by the Redis subscriber.
	eventsCh, unsubscribe := services.SubscribeToRoom(roomID.String())
	defer unsubscribe()

	// Forward room events to this connection through the session lock.
	go func() {
		for evt := range eventsCh {
			if err := sess.writeEvent(evt); err != nil {
				return
			}
		}
	}()

	conn.SetReadLimit(64 * 1024)
	_ = conn.SetReadDeadline(time.Now().Add(90 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(90 * time.Second))
		return nil
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var frame ChatClientFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			continue
		}

		switch frame.Type {
		case "message":
			handleIncomingChatMessage(ctx, sess, roomID, userID, frame.Content)
		case "typing_start":
			_ = services.PublishTyping(ctx, roomID.String(), userID.String(), userName, true)
		case "typing_stop":
			_ = services.PublishTyping(ctx, roomID.String(), userID.String(), userName, false)
		case "read":
			services.EnqueueMarkRead(roomID, userID)
		case "ping":
			_ = conn.SetReadDeadline(time.Now().Add(90 * time.Second))
		default:
			// Ignore unknown frame types.
		}
	}
}

// parseRoomQuery reads and validates the room_id query parameter.
func parseRoomQuery(r *http.Request) (uuid.UUID, error) {
	raw := r.URL.Query().Get("room_id")
	if raw == "" {
		return uuid.Nil, errors.New("room_id is required")
	}
	roomID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, errors.New("room_id must be a valid uuid")
	}
	return roomID, nil
}

// handleIncomingChatMessage runs the full ingestion pipeline and sends an
// acknowledgement back to the sender. Fan-out to the room happens through
// Redis inside the service call.
func handleIncomingChatMessage(ctx context.Context, sess *wsSession, roomID, userID uuid.UUID, content string) {
	saved, err := services.SendMessage(ctx, roomID, userID, content, nil)
	if err != nil {
		reason := "failed to send message"
		var verr *services.ValidationError
		if errors.As(err, &verr) {
			reason = verr.Error()
		}
		_ = sess.writeEvent(services.ChatEvent{
			Type:      services.EventTypeError,
			RoomID:    roomID.String(),
			Error:     reason,
			Timestamp: time.Now().UTC(),
		})
		return
	}

	_ = sess.writeEvent(services.ChatEvent{
		Type:      services.EventTypeMessageAck,
		RoomID:    roomID.String(),
		Message:   saved,
		Timestamp: time.Now().UTC(),
	})
}

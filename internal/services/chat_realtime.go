package services

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/Noe001/work-optimizer-sub001/internal/database"
	"github.com/Noe001/work-optimizer-sub001/internal/models"
)

// Event types broadcast over a room's stream.
const (
	EventTypeMessage     = "message"
	EventTypeMessageAck  = "message_ack"
	EventTypeTypingStart = "typing_start"
	EventTypeTypingStop  = "typing_stop"
	EventTypeError       = "error"
)

const streamPrefix = "chat_room_"

// StreamName is the pub/sub stream for a room.
func StreamName(roomID string) string {
	return streamPrefix + roomID
}

// ChatEvent is the payload broadcast over Redis and WebSocket. Message
// events carry the persisted message; typing events are ephemeral and carry
// only the user's id and display name.
type ChatEvent struct {
	Type      string              `json:"type"`
	RoomID    string              `json:"room_id,omitempty"`
	UserID    string              `json:"user_id,omitempty"`
	UserName  string              `json:"user_name,omitempty"`
	Message   *models.ChatMessage `json:"message,omitempty"`
	Error     string              `json:"error,omitempty"`
	Timestamp time.Time           `json:"timestamp,omitempty"`
}

// ChatHub fans events out to local stream subscribers. Each subscriber owns
// a buffered channel; a subscriber that cannot keep up drops events rather
// than blocking the rest of the room (at-most-once, no replay).
type ChatHub struct {
	mu    sync.RWMutex
	rooms map[string]map[chan ChatEvent]struct{}
}

const subscriberBuffer = 16

var (
	chatHub      = &ChatHub{rooms: make(map[string]map[chan ChatEvent]struct{})}
	redisStarted sync.Once
)

// Subscribe registers a local subscriber for a room's stream. The returned
// function unsubscribes and closes the channel.
func (h *ChatHub) Subscribe(roomID string) (<-chan ChatEvent, func()) {
	ch := make(chan ChatEvent, subscriberBuffer)

	h.mu.Lock()
	subs, ok := h.rooms[roomID]
	if !ok {
		subs = make(map[chan ChatEvent]struct{})
		h.rooms[roomID] = subs
	}
	subs[ch] = struct{}{}
	h.mu.Unlock()

	unsubscribe := func() {
		h.mu.Lock()
		if subs, ok := h.rooms[roomID]; ok {
			if _, present := subs[ch]; present {
				delete(subs, ch)
				close(ch)
			}
			if len(subs) == 0 {
				delete(h.rooms, roomID)
			}
		}
		h.mu.Unlock()
	}
	return ch, unsubscribe
}

// Broadcast delivers an event to every current local subscriber of the
// event's room. Best-effort: full subscriber buffers are skipped.
func (h *ChatHub) Broadcast(event ChatEvent) {
	if event.RoomID == "" {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.rooms[event.RoomID] {
		select {
		case ch <- event:
		default:
			// Slow subscriber; it misses this event and catches up via
			// the pull-based history endpoint after resubscribing.
		}
	}
}

// SubscribeToRoom subscribes to a room's stream on the shared hub.
func SubscribeToRoom(roomID string) (<-chan ChatEvent, func()) {
	return chatHub.Subscribe(roomID)
}

// StartRedisChatSubscriber ensures a single shared Redis listener per instance.
func StartRedisChatSubscriber(ctx context.Context) {
	redisStarted.Do(func() {
		go runRedisSubscriber(ctx)
	})
}

func runRedisSubscriber(ctx context.Context) {
	client := database.RedisClient
	if client == nil {
		log.Println("Redis client not initialized; chat subscriber not started")
		return
	}

	backoff := time.Second

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		func() {
			pubsub := client.PSubscribe(ctx, streamPrefix+"*")
			defer pubsub.Close()

			log.Printf("✅ Chat Redis subscriber started (pattern: %s*)", streamPrefix)

			for {
				msg, err := pubsub.ReceiveMessage(ctx)
				if err != nil {
					log.Printf("Redis subscriber error: %v", err)
					time.Sleep(backoff)
					backoff *= 2
					if backoff > 30*time.Second {
						backoff = 30 * time.Second
					}
					return
				}

				backoff = time.Second

				var event ChatEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					log.Printf("failed to unmarshal chat event: %v", err)
					continue
				}
				if event.RoomID == "" {
					event.RoomID = strings.TrimPrefix(msg.Channel, streamPrefix)
				}

				chatHub.Broadcast(event)
			}
		}()
	}
}

// PublishChatEvent publishes an event onto its room's stream. Every current
// subscriber on every instance receives it via the shared Redis listener.
func PublishChatEvent(ctx context.Context, event ChatEvent) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return database.RedisClient.Publish(ctx, StreamName(event.RoomID), data).Err()
}

// PublishTyping broadcasts an ephemeral typing event. Nothing is persisted;
// delivery is fire-and-forget and last-write-wins at the UI.
func PublishTyping(ctx context.Context, roomID, userID, userName string, typing bool) error {
	eventType := EventTypeTypingStop
	if typing {
		eventType = EventTypeTypingStart
	}
	return PublishChatEvent(ctx, ChatEvent{
		Type:     eventType,
		RoomID:   roomID,
		UserID:   userID,
		UserName: userName,
	})
}

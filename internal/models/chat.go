package models

import (
	"time"

	"github.com/google/uuid"
)

// MemberRole is the role a user carries inside a room.
// Valid values: "member", "admin".
type MemberRole string

const (
	RoleMember MemberRole = "member"
	RoleAdmin  MemberRole = "admin"
)

// ParseMemberRole validates a raw role string.
func ParseMemberRole(s string) (MemberRole, bool) {
	switch MemberRole(s) {
	case RoleMember:
		return RoleMember, true
	case RoleAdmin:
		return RoleAdmin, true
	default:
		return "", false
	}
}

// ChatRoom is a named channel with a set of member users. Direct-message
// rooms have no display name and are uniquely identified by their sorted
// two-member pair key.
type ChatRoom struct {
	ID              uuid.UUID `json:"id"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	Name            string    `json:"name"`
	IsDirectMessage bool      `json:"is_direct_message"`
	DirectPairKey   string    `json:"-"`
}

// RoomMembership links one user to one room with a role; unique per (user, room).
type RoomMembership struct {
	ID       uuid.UUID  `json:"id"`
	RoomID   uuid.UUID  `json:"room_id"`
	UserID   uuid.UUID  `json:"user_id"`
	UserName string     `json:"user_name,omitempty"`
	Role     MemberRole `json:"role"`
	JoinedAt time.Time  `json:"joined_at"`
}

// ChatMessage is one persisted message. Content is sanitized before insert
// and immutable afterwards. The read flag transitions false→true exactly
// once and never reverts; it never transitions for the sender's own reads.
type ChatMessage struct {
	ID         uuid.UUID   `json:"id"`
	CreatedAt  time.Time   `json:"created_at"`
	RoomID     uuid.UUID   `json:"room_id"`
	SenderID   uuid.UUID   `json:"sender_id"`
	SenderName string      `json:"sender_name,omitempty"`
	Content    string      `json:"content"`
	Attachment *Attachment `json:"attachment,omitempty"`
	Read       bool        `json:"read"`
	ReadAt     *time.Time  `json:"read_at,omitempty"`
}

// Attachment is the stored metadata for a message's single file attachment.
// ID is the blob reference in the file store; URL is resolved per request
// as a signed, time-limited link and never persisted.
type Attachment struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	MimeType string `json:"mime_type"`
	Size     int64  `json:"size"`
	URL      string `json:"url,omitempty"`
}

// RoomStats is the cached aggregate view of a room.
type RoomStats struct {
	RoomID       uuid.UUID  `json:"room_id"`
	MemberCount  int        `json:"member_count"`
	MessageCount int        `json:"message_count"`
	LastActivity *time.Time `json:"last_activity,omitempty"`
}

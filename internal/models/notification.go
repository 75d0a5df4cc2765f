package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TargetKind enumerates the entity kinds a notification can point at.
type TargetKind string

const (
	TargetRoom    TargetKind = "room"
	TargetMessage TargetKind = "message"
)

// ParseTargetKind validates a raw kind string.
func ParseTargetKind(s string) (TargetKind, bool) {
	switch TargetKind(s) {
	case TargetRoom:
		return TargetRoom, true
	case TargetMessage:
		return TargetMessage, true
	default:
		return "", false
	}
}

// TargetRef identifies a notification target by (kind, id). Resolution goes
// through an explicit kind switch, not reflection or dynamic lookup.
type TargetRef struct {
	Kind TargetKind `json:"kind"`
	ID   uuid.UUID  `json:"id"`
}

func (r TargetRef) Validate() error {
	if _, ok := ParseTargetKind(string(r.Kind)); !ok {
		return fmt.Errorf("unknown notification target kind %q", r.Kind)
	}
	if r.ID == uuid.Nil {
		return fmt.Errorf("notification target id is required")
	}
	return nil
}

// Notification is one bookkeeping row telling a user something happened.
type Notification struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UserID    uuid.UUID `json:"user_id"`
	Target    TargetRef `json:"target"`
	Body      string    `json:"body"`
	Read      bool      `json:"read"`
}

package services

import (
	"context"
	"database/sql"

	"github.com/Noe001/work-optimizer-sub001/internal/database"
	"github.com/google/uuid"
)

// IsMember checks the membership table directly, bypassing the cache.
// Message ingestion always uses this form so a revoked membership takes
// effect on the next send, not when the cached check expires.
func IsMember(ctx context.Context, roomID, userID uuid.UUID) (bool, error) {
	var exists bool
	err := database.PostgresDB.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM chat_room_members WHERE room_id = $1 AND user_id = $2)
	`, roomID, userID).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// CanAccessRoom is the cached accessibility check used on the hot read path
// (stream subscription, history, unread counts). Membership changes rarely
// relative to read volume, so a 30s window is acceptable.
func CanAccessRoom(ctx context.Context, roomID, userID uuid.UUID) (bool, error) {
	var allowed bool
	err := Cache.GetOrCompute(ctx, RoomAccessKey(roomID.String(), userID.String()), AccessibilityTTL, &allowed, func() (interface{}, error) {
		ok, err := IsMember(ctx, roomID, userID)
		if err != nil {
			return nil, err
		}
		return ok, nil
	})
	if err != nil {
		return false, err
	}
	return allowed, nil
}

// GetMembership returns a user's membership row in a room, or nil when the
// user is not a member.
func GetMembership(ctx context.Context, roomID, userID uuid.UUID) (*RoomMember, error) {
	var m RoomMember
	err := database.PostgresDB.QueryRowContext(ctx, `
		SELECT m.user_id, u.name, m.role, m.joined_at
		FROM chat_room_members m
		JOIN users u ON u.id = m.user_id
		WHERE m.room_id = $1 AND m.user_id = $2
	`, roomID, userID).Scan(&m.UserID, &m.Name, &m.Role, &m.JoinedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

package services

import (
	"context"
	"database/sql"
	"log"
	"time"

	"github.com/Noe001/work-optimizer-sub001/internal/database"
	"github.com/Noe001/work-optimizer-sub001/internal/models"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// RoomMember is the member-list snapshot cached per room.
type RoomMember struct {
	UserID   uuid.UUID         `json:"user_id"`
	Name     string            `json:"name"`
	Role     models.MemberRole `json:"role"`
	JoinedAt time.Time         `json:"joined_at"`
}

// CreateRoom creates a group room and adds the creator as its admin.
func CreateRoom(ctx context.Context, name string, creatorID uuid.UUID) (*models.ChatRoom, error) {
	room := &models.ChatRoom{
		ID:        uuid.New(),
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
		Name:      name,
	}

	_, err := database.PostgresDB.ExecContext(ctx, `
		INSERT INTO chat_rooms (id, created_at, updated_at, name, is_direct_message)
		VALUES ($1, $2, $3, $4, FALSE)
	`, room.ID, room.CreatedAt, room.UpdatedAt, room.Name)
	if err != nil {
		return nil, err
	}

	_, err = database.PostgresDB.ExecContext(ctx, `
		INSERT INTO chat_room_members (id, room_id, user_id, role, joined_at)
		VALUES (gen_random_uuid(), $1, $2, 'admin', $3)
		ON CONFLICT (room_id, user_id) DO NOTHING
	`, room.ID, creatorID, room.CreatedAt)
	if err != nil {
		return nil, err
	}

	return room, nil
}

// DirectPairKey builds the order-independent lookup key for a DM room.
func DirectPairKey(a, b uuid.UUID) string {
	if a.String() < b.String() {
		return a.String() + ":" + b.String()
	}
	return b.String() + ":" + a.String()
}

// OpenDirectMessage finds or creates the DM room for a pair of users. The
// unique constraint on direct_pair_key makes the create atomic: when two
// requests race, the loser's INSERT fails with a unique violation and the
// existing room is re-fetched.
func OpenDirectMessage(ctx context.Context, a, b uuid.UUID) (*models.ChatRoom, error) {
	pairKey := DirectPairKey(a, b)

	if room, err := getRoomByPairKey(ctx, pairKey); err != nil {
		return nil, err
	} else if room != nil {
		return room, nil
	}

	room := &models.ChatRoom{
		ID:              uuid.New(),
		CreatedAt:       time.Now().UTC(),
		UpdatedAt:       time.Now().UTC(),
		IsDirectMessage: true,
		DirectPairKey:   pairKey,
	}

	_, err := database.PostgresDB.ExecContext(ctx, `
		INSERT INTO chat_rooms (id, created_at, updated_at, name, is_direct_message, direct_pair_key)
		VALUES ($1, $2, $3, '', TRUE, $4)
	`, room.ID, room.CreatedAt, room.UpdatedAt, pairKey)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			// Lost the race; the other request created it.
			existing, ferr := getRoomByPairKey(ctx, pairKey)
			if ferr != nil {
				return nil, ferr
			}
			if existing != nil {
				return existing, nil
			}
		}
		return nil, err
	}

	for _, userID := range []uuid.UUID{a, b} {
		_, err = database.PostgresDB.ExecContext(ctx, `
			INSERT INTO chat_room_members (id, room_id, user_id, role, joined_at)
			VALUES (gen_random_uuid(), $1, $2, 'member', $3)
			ON CONFLICT (room_id, user_id) DO NOTHING
		`, room.ID, userID, room.CreatedAt)
		if err != nil {
			return nil, err
		}
	}

	return room, nil
}

func getRoomByPairKey(ctx context.Context, pairKey string) (*models.ChatRoom, error) {
	var room models.ChatRoom
	err := database.PostgresDB.QueryRowContext(ctx, `
		SELECT id, created_at, updated_at, name, is_direct_message, COALESCE(direct_pair_key, '')
		FROM chat_rooms WHERE direct_pair_key = $1
	`, pairKey).Scan(&room.ID, &room.CreatedAt, &room.UpdatedAt, &room.Name, &room.IsDirectMessage, &room.DirectPairKey)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &room, nil
}

// GetRoom loads a room by id.
func GetRoom(ctx context.Context, roomID uuid.UUID) (*models.ChatRoom, error) {
	var room models.ChatRoom
	err := database.PostgresDB.QueryRowContext(ctx, `
		SELECT id, created_at, updated_at, name, is_direct_message, COALESCE(direct_pair_key, '')
		FROM chat_rooms WHERE id = $1
	`, roomID).Scan(&room.ID, &room.CreatedAt, &room.UpdatedAt, &room.Name, &room.IsDirectMessage, &room.DirectPairKey)
	if err == sql.ErrNoRows {
		return nil, ErrRoomNotFound
	}
	if err != nil {
		return nil, err
	}
	return &room, nil
}

// ListRoomsForUser returns the rooms a user belongs to, most recent first.
func ListRoomsForUser(ctx context.Context, userID uuid.UUID) ([]models.ChatRoom, error) {
	rows, err := database.PostgresDB.QueryContext(ctx, `
		SELECT r.id, r.created_at, r.updated_at, r.name, r.is_direct_message, COALESCE(r.direct_pair_key, '')
		FROM chat_rooms r
		JOIN chat_room_members m ON m.room_id = r.id
		WHERE m.user_id = $1
		ORDER BY r.updated_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rooms []models.ChatRoom
	for rows.Next() {
		var room models.ChatRoom
		if err := rows.Scan(&room.ID, &room.CreatedAt, &room.UpdatedAt, &room.Name, &room.IsDirectMessage, &room.DirectPairKey); err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	return rooms, rows.Err()
}

// UpdateRoom renames a group room and evicts every cached view scoped to it.
func UpdateRoom(ctx context.Context, roomID uuid.UUID, name string) error {
	res, err := database.PostgresDB.ExecContext(ctx, `
		UPDATE chat_rooms SET name = $1, updated_at = NOW()
		WHERE id = $2 AND is_direct_message = FALSE
	`, name, roomID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrRoomNotFound
	}

	InvalidateRoomCache(ctx, roomID)
	return nil
}

// DeleteRoom destroys a room; memberships and messages go with it via
// ON DELETE CASCADE, and the room's whole cache prefix is evicted.
func DeleteRoom(ctx context.Context, roomID uuid.UUID) error {
	res, err := database.PostgresDB.ExecContext(ctx, `DELETE FROM chat_rooms WHERE id = $1`, roomID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrRoomNotFound
	}

	InvalidateRoomCache(ctx, roomID)
	return nil
}

// AddMember adds a user to a room with the given role.
func AddMember(ctx context.Context, roomID, userID uuid.UUID, role models.MemberRole) error {
	if _, err := GetRoom(ctx, roomID); err != nil {
		return err
	}
	if exists, err := UserExists(ctx, userID); err != nil {
		return err
	} else if !exists {
		return ErrUserNotFound
	}

	_, err := database.PostgresDB.ExecContext(ctx, `
		INSERT INTO chat_room_members (id, room_id, user_id, role, joined_at)
		VALUES (gen_random_uuid(), $1, $2, $3, NOW())
		ON CONFLICT (room_id, user_id) DO NOTHING
	`, roomID, userID, string(role))
	if err != nil {
		return err
	}

	// Membership changed: the member list and this user's accessibility
	// view are both stale now.
	_ = Cache.Delete(ctx, RoomMembersKey(roomID.String()))
	_ = Cache.Delete(ctx, RoomAccessKey(roomID.String(), userID.String()))
	return nil
}

// RemoveMember removes a user from a room.
func RemoveMember(ctx context.Context, roomID, userID uuid.UUID) error {
	res, err := database.PostgresDB.ExecContext(ctx, `
		DELETE FROM chat_room_members WHERE room_id = $1 AND user_id = $2
	`, roomID, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotMember
	}

	_ = Cache.Delete(ctx, RoomMembersKey(roomID.String()))
	_ = Cache.Delete(ctx, RoomAccessKey(roomID.String(), userID.String()))
	return nil
}

// GetRoomMembers returns the cached member-list snapshot (5 min TTL).
func GetRoomMembers(ctx context.Context, roomID uuid.UUID) ([]RoomMember, error) {
	var members []RoomMember
	err := Cache.GetOrCompute(ctx, RoomMembersKey(roomID.String()), MemberListTTL, &members, func() (interface{}, error) {
		rows, err := database.PostgresDB.QueryContext(ctx, `
			SELECT m.user_id, u.name, m.role, m.joined_at
			FROM chat_room_members m
			JOIN users u ON u.id = m.user_id
			WHERE m.room_id = $1
			ORDER BY m.joined_at ASC
		`, roomID)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		out := []RoomMember{}
		for rows.Next() {
			var m RoomMember
			if err := rows.Scan(&m.UserID, &m.Name, &m.Role, &m.JoinedAt); err != nil {
				return nil, err
			}
			out = append(out, m)
		}
		return out, rows.Err()
	})
	return members, err
}

// UnreadCount returns the cached count of messages in the room that the
// user has not read and did not author (30s TTL).
func UnreadCount(ctx context.Context, roomID, userID uuid.UUID) (int, error) {
	var count int
	err := Cache.GetOrCompute(ctx, RoomUnreadKey(roomID.String(), userID.String()), UnreadCountTTL, &count, func() (interface{}, error) {
		var n int
		err := database.PostgresDB.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM chat_messages
			WHERE room_id = $1 AND sender_id <> $2 AND read = FALSE
		`, roomID, userID).Scan(&n)
		return n, err
	})
	return count, err
}

// LastMessage returns the cached newest message of a room (1 min TTL), or
// nil when the room has none.
func LastMessage(ctx context.Context, roomID uuid.UUID) (*models.ChatMessage, error) {
	var msg *models.ChatMessage
	err := Cache.GetOrCompute(ctx, RoomLastMessageKey(roomID.String()), LastMessageTTL, &msg, func() (interface{}, error) {
		m, err := getLastMessage(ctx, roomID)
		if err != nil {
			return nil, err
		}
		return m, nil
	})
	return msg, err
}

func getLastMessage(ctx context.Context, roomID uuid.UUID) (*models.ChatMessage, error) {
	row := database.PostgresDB.QueryRowContext(ctx, `
		SELECT m.id, m.created_at, m.room_id, m.sender_id, u.name, m.content, m.read, m.read_at
		FROM chat_messages m
		JOIN users u ON u.id = m.sender_id
		WHERE m.room_id = $1
		ORDER BY m.created_at DESC
		LIMIT 1
	`, roomID)

	var m models.ChatMessage
	err := row.Scan(&m.ID, &m.CreatedAt, &m.RoomID, &m.SenderID, &m.SenderName, &m.Content, &m.Read, &m.ReadAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// GetRoomStats returns the cached aggregate view of a room (10 min TTL).
func GetRoomStats(ctx context.Context, roomID uuid.UUID) (models.RoomStats, error) {
	var stats models.RoomStats
	err := Cache.GetOrCompute(ctx, RoomStatsKey(roomID.String()), RoomStatsTTL, &stats, func() (interface{}, error) {
		s := models.RoomStats{RoomID: roomID}
		err := database.PostgresDB.QueryRowContext(ctx, `
			SELECT
				(SELECT COUNT(*) FROM chat_room_members WHERE room_id = $1),
				(SELECT COUNT(*) FROM chat_messages WHERE room_id = $1),
				(SELECT MAX(created_at) FROM chat_messages WHERE room_id = $1)
		`, roomID).Scan(&s.MemberCount, &s.MessageCount, &s.LastActivity)
		return s, err
	})
	return stats, err
}

// OnlineCount returns the cached online-user estimate for a room (30s TTL).
// No presence protocol exists yet; this is the total membership and is an
// acknowledged placeholder.
func OnlineCount(ctx context.Context, roomID uuid.UUID) (int, error) {
	var count int
	err := Cache.GetOrCompute(ctx, RoomOnlineKey(roomID.String()), OnlineCountTTL, &count, func() (interface{}, error) {
		var n int
		err := database.PostgresDB.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM chat_room_members WHERE room_id = $1
		`, roomID).Scan(&n)
		return n, err
	})
	return count, err
}

// InvalidateRoomCache evicts every cached view scoped to a room, whatever
// user-specific suffix each entry carries.
func InvalidateRoomCache(ctx context.Context, roomID uuid.UUID) {
	if err := Cache.DeleteByPrefix(ctx, RoomCachePrefix(roomID.String())); err != nil {
		log.Printf("failed to invalidate cache for room %s: %v", roomID, err)
	}
}

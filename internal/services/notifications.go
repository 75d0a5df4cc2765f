package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Noe001/work-optimizer-sub001/internal/database"
	"github.com/Noe001/work-optimizer-sub001/internal/models"
	"github.com/Noe001/work-optimizer-sub001/internal/tasks"
	"github.com/google/uuid"
)

// NotifyRoomMessage writes a notification row for every room member except
// the sender. Runs in the background: notification bookkeeping must never
// delay the send path, and its failures stay internal.
func NotifyRoomMessage(roomID, senderID, messageID uuid.UUID) {
	tasks.Enqueue("notify_room:"+roomID.String(), tasks.DefaultRetryPolicy(), func(ctx context.Context) error {
		_, err := database.PostgresDB.ExecContext(ctx, `
			INSERT INTO notifications (user_id, target_kind, target_id, body)
			SELECT m.user_id, 'message', $1, ''
			FROM chat_room_members m
			WHERE m.room_id = $2 AND m.user_id <> $3
		`, messageID, roomID, senderID)
		return err
	})
}

// ListNotifications returns a user's notifications, newest first.
func ListNotifications(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	query := `
		SELECT id, created_at, user_id, target_kind, target_id, body, read
		FROM notifications
		WHERE user_id = $1`
	if unreadOnly {
		query += ` AND read = FALSE`
	}
	query += ` ORDER BY created_at DESC LIMIT $2`

	rows, err := database.PostgresDB.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Notification{}
	for rows.Next() {
		var n models.Notification
		var kind string
		if err := rows.Scan(&n.ID, &n.CreatedAt, &n.UserID, &kind, &n.Target.ID, &n.Body, &n.Read); err != nil {
			return nil, err
		}
		n.Target.Kind = models.TargetKind(kind)
		out = append(out, n)
	}
	return out, rows.Err()
}

// MarkNotificationRead flips one of the user's notifications to read.
func MarkNotificationRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	_, err := database.PostgresDB.ExecContext(ctx, `
		UPDATE notifications SET read = TRUE WHERE id = $1 AND user_id = $2
	`, notificationID, userID)
	return err
}

// ResolveTarget looks up the entity behind a notification reference. The
// dispatch is an exhaustive switch over the closed kind set.
func ResolveTarget(ctx context.Context, ref models.TargetRef) (interface{}, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}

	switch ref.Kind {
	case models.TargetRoom:
		return GetRoom(ctx, ref.ID)
	case models.TargetMessage:
		return getMessageByID(ctx, ref.ID)
	default:
		return nil, fmt.Errorf("unknown notification target kind %q", ref.Kind)
	}
}

func getMessageByID(ctx context.Context, messageID uuid.UUID) (*models.ChatMessage, error) {
	row := database.PostgresDB.QueryRowContext(ctx, `
		SELECT m.id, m.created_at, m.room_id, m.sender_id, u.name, m.content, m.read, m.read_at
		FROM chat_messages m
		JOIN users u ON u.id = m.sender_id
		WHERE m.id = $1
	`, messageID)

	var m models.ChatMessage
	err := row.Scan(&m.ID, &m.CreatedAt, &m.RoomID, &m.SenderID, &m.SenderName, &m.Content, &m.Read, &m.ReadAt)
	if err == sql.ErrNoRows {
		return nil, ErrMessageNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

package services

import (
	"context"

	"github.com/Noe001/work-optimizer-sub001/internal/database"
	"github.com/Noe001/work-optimizer-sub001/internal/tasks"
	"github.com/google/uuid"
)

// ReadBatchSize bounds one read-state update. Messages arriving mid-batch
// are simply picked up by the next invocation.
const ReadBatchSize = 100

// MarkRoomMessagesRead marks up to ReadBatchSize unread messages authored
// by someone other than the reader as read, in one batched update, then
// drops the reader's cached unread count. Idempotent: already-
// read rows are never touched again, so re-invocation with nothing newly
// unread is a no-op, and concurrent executions for the same (room, reader)
// each only flip rows still unread as of their own read.
func MarkRoomMessagesRead(ctx context.Context, roomID, readerID uuid.UUID) (int, error) {
	if _, err := GetRoom(ctx, roomID); err != nil {
		return 0, err
	}
	if exists, err := UserExists(ctx, readerID); err != nil {
		return 0, err
	} else if !exists {
		return 0, ErrUserNotFound
	}

	res, err := database.PostgresDB.ExecContext(ctx, `
		UPDATE chat_messages SET read = TRUE, read_at = NOW()
		WHERE id IN (
			SELECT id FROM chat_messages
			WHERE room_id = $1 AND sender_id <> $2 AND read = FALSE
			ORDER BY created_at ASC
			LIMIT $3
		)
	`, roomID, readerID, ReadBatchSize)
	if err != nil {
		return 0, err
	}
	updated, _ := res.RowsAffected()

	if err := Cache.Delete(ctx, RoomUnreadKey(roomID.String(), readerID.String())); err != nil {
		return int(updated), err
	}
	return int(updated), nil
}

// EnqueueMarkRead dispatches the read-state update off the critical path of
// message display. Vanished room/user is permanent; anything else retries
// with backoff and, once exhausted, surfaces only as a failed task.
func EnqueueMarkRead(roomID, readerID uuid.UUID) {
	tasks.Enqueue("mark_read:"+roomID.String(), tasks.DefaultRetryPolicy(), func(ctx context.Context) error {
		_, err := MarkRoomMessagesRead(ctx, roomID, readerID)
		if IsNotFound(err) {
			return tasks.Permanent(err)
		}
		return err
	})
}

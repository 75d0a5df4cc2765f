package services

import (
	"context"
	"log"
	"mime/multipart"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/Noe001/work-optimizer-sub001/internal/database"
	"github.com/Noe001/work-optimizer-sub001/internal/models"
	"github.com/google/uuid"
)

// MaxMessageLength bounds the sanitized content, in characters.
const MaxMessageLength = 2000

// attachmentStore is wired at startup; nil when Cloudinary credentials are
// absent, in which case sends with attachments are rejected.
var attachmentStore *AttachmentStore

// InitAttachmentStore sets the process-wide attachment store.
func InitAttachmentStore(s *AttachmentStore) {
	attachmentStore = s
}

// IncomingAttachment is an attachment blob as received from the client,
// not yet validated or stored.
type IncomingAttachment struct {
	File     multipart.File
	Filename string
	MimeType string
	Size     int64
}

// SendMessage runs the full ingestion pipeline: membership re-check,
// presence and length validation, sanitization, attachment constraints,
// a single INSERT, then fan-out. Nothing is persisted on any rejection.
func SendMessage(ctx context.Context, roomID, senderID uuid.UUID, content string, att *IncomingAttachment) (*models.ChatMessage, error) {
	// Membership is re-validated on every send rather than trusting the
	// earlier subscription check, so revocation takes effect promptly.
	member, err := IsMember(ctx, roomID, senderID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, ErrNotMember
	}

	content = SanitizeMessageContent(content)
	if content == "" && att == nil {
		return nil, &ValidationError{Field: "content", Reason: "message content or attachment is required"}
	}
	if utf8.RuneCountInString(content) > MaxMessageLength {
		return nil, &ValidationError{Field: "content", Reason: "message exceeds the 2000 character limit"}
	}

	var stored *models.Attachment
	if att != nil {
		if verr := ValidateAttachment(att.Filename, att.MimeType, att.Size); verr != nil {
			return nil, verr
		}
		if attachmentStore == nil {
			return nil, &ValidationError{Field: "attachment", Reason: "file uploads are not available"}
		}
		ref, err := attachmentStore.Upload(ctx, att.File)
		if err != nil {
			return nil, err
		}
		stored = &models.Attachment{
			ID:       ref,
			Filename: att.Filename,
			MimeType: att.MimeType,
			Size:     att.Size,
		}
	}

	senderName, err := GetUserNameByID(ctx, senderID)
	if err != nil {
		return nil, err
	}

	msg := &models.ChatMessage{
		ID:         uuid.New(),
		CreatedAt:  time.Now().UTC(),
		RoomID:     roomID,
		SenderID:   senderID,
		SenderName: senderName,
		Content:    content,
		Attachment: stored,
	}

	var attID, attName, attType interface{}
	var attSize interface{}
	if stored != nil {
		attID, attName, attType, attSize = stored.ID, stored.Filename, stored.MimeType, stored.Size
	}
	_, err = database.PostgresDB.ExecContext(ctx, `
		INSERT INTO chat_messages (id, created_at, room_id, sender_id, content, attachment_id, attachment_name, attachment_type, attachment_size, read)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, FALSE)
	`, msg.ID, msg.CreatedAt, msg.RoomID, msg.SenderID, msg.Content, attID, attName, attType, attSize)
	if err != nil {
		return nil, err
	}

	resolveAttachmentURL(msg)

	// The cached last-message snapshot is stale the moment a new row lands.
	_ = Cache.Delete(ctx, RoomLastMessageKey(roomID.String()))

	// Fan out to the room's stream. Best-effort: a failed publish does not
	// unwind the persisted message.
	if err := PublishChatEvent(ctx, ChatEvent{
		Type:    EventTypeMessage,
		RoomID:  roomID.String(),
		Message: msg,
	}); err != nil {
		log.Printf("failed to publish message %s to room %s: %v", msg.ID, roomID, err)
	}

	NotifyRoomMessage(roomID, senderID, msg.ID)

	return msg, nil
}

// resolveAttachmentURL fills in a signed, time-limited link for the
// message's attachment, if any.
func resolveAttachmentURL(msg *models.ChatMessage) {
	if msg.Attachment == nil || attachmentStore == nil {
		return
	}
	msg.Attachment.URL = attachmentStore.SignedURL(msg.Attachment.ID, AttachmentURLLifetime)
}

// clampHistoryLimit normalizes a requested page size. Missing or invalid
// values default to 50, and anything above 100 is capped at 100.
func clampHistoryLimit(limit int64) int64 {
	if limit <= 0 {
		return 50
	}
	if limit > 100 {
		return 100
	}
	return limit
}

// ListMessages returns paginated history for a room, oldest-first, with
// newest-first scrolling via the before cursor.
func ListMessages(ctx context.Context, roomID uuid.UUID, before *time.Time, limit int64) ([]models.ChatMessage, bool, error) {
	limit = clampHistoryLimit(limit)

	query := `
		SELECT m.id, m.created_at, m.room_id, m.sender_id, u.name, m.content,
		       m.attachment_id, m.attachment_name, m.attachment_type, m.attachment_size,
		       m.read, m.read_at
		FROM chat_messages m
		JOIN users u ON u.id = m.sender_id
		WHERE m.room_id = $1`
	args := []interface{}{roomID}
	if before != nil {
		query += ` AND m.created_at < $2`
		args = append(args, before.UTC())
	}
	query += ` ORDER BY m.created_at DESC LIMIT $` + strconv.Itoa(len(args)+1)
	args = append(args, limit+1)

	rows, err := database.PostgresDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, false, err
	}
	defer rows.Close()

	var msgs []models.ChatMessage
	for rows.Next() {
		var m models.ChatMessage
		var attID, attName, attType *string
		var attSize *int64
		if err := rows.Scan(&m.ID, &m.CreatedAt, &m.RoomID, &m.SenderID, &m.SenderName, &m.Content,
			&attID, &attName, &attType, &attSize, &m.Read, &m.ReadAt); err != nil {
			return nil, false, err
		}
		if attID != nil {
			m.Attachment = &models.Attachment{ID: *attID}
			if attName != nil {
				m.Attachment.Filename = *attName
			}
			if attType != nil {
				m.Attachment.MimeType = *attType
			}
			if attSize != nil {
				m.Attachment.Size = *attSize
			}
		}
		resolveAttachmentURL(&m)
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, false, err
	}

	hasMore := int64(len(msgs)) > limit
	if hasMore {
		msgs = msgs[:len(msgs)-1]
	}

	// Reverse to oldest-first for the UI.
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}

	return msgs, hasMore, nil
}

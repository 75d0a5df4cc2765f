package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Noe001/work-optimizer-sub001/internal/models"
	"github.com/Noe001/work-optimizer-sub001/internal/services"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type SendMessageRequest struct {
	Content string `json:"content"`
}

// SendMessage accepts a chat message over HTTP. JSON bodies carry text-only
// messages; multipart bodies may additionally carry one file attachment.
func SendMessage(w http.ResponseWriter, r *http.Request) {
	roomID, userID, ok := requireMember(w, r)
	if !ok {
		return
	}

	var content string
	var incoming *services.IncomingAttachment

	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseMultipartForm(services.MaxAttachmentSize + 1<<20); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid multipart body")
			return
		}
		content = r.FormValue("content")

		file, header, err := r.FormFile("attachment")
		if err == nil {
			defer file.Close()
			incoming = &services.IncomingAttachment{
				File:     file,
				Filename: header.Filename,
				MimeType: header.Header.Get("Content-Type"),
				Size:     header.Size,
			}
		} else if err != http.ErrMissingFile {
			writeError(w, http.StatusBadRequest, "Invalid attachment")
			return
		}
	} else {
		var req SendMessageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		content = req.Content
	}

	msg, err := services.SendMessage(r.Context(), roomID, userID, content, incoming)
	if err != nil {
		var verr *services.ValidationError
		switch {
		case errors.As(err, &verr):
			writeError(w, http.StatusBadRequest, verr.Error())
		case errors.Is(err, services.ErrNotMember):
			roomAccessDenied(w)
		default:
			writeError(w, http.StatusInternalServerError, "Failed to send message")
		}
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": msg,
	})
}

// GetMessages returns a page of room history, oldest first. Pagination walks
// backwards with the `before` RFC3339 cursor.
func GetMessages(w http.ResponseWriter, r *http.Request) {
	roomID, _, ok := requireMember(w, r)
	if !ok {
		return
	}

	limit := int64(50)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = parsed
	}

	var before *time.Time
	if raw := r.URL.Query().Get("before"); raw != "" {
		parsed, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid before cursor")
			return
		}
		before = &parsed
	}

	messages, hasMore, err := services.ListMessages(r.Context(), roomID, before, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load messages")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"messages": messages,
		"has_more": hasMore,
	})
}

// GetAttachment serves a signed attachment link: the token is verified and
// the client is redirected to the backing asset. The signature stands in
// for bearer auth, since links get embedded in image tags and file viewers
// that cannot carry a header.
func GetAttachment(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	sig := r.URL.Query().Get("sig")
	exp, err := strconv.ParseInt(r.URL.Query().Get("exp"), 10, 64)
	if id == "" || sig == "" || err != nil {
		writeError(w, http.StatusBadRequest, "Invalid attachment link")
		return
	}

	target, err := services.ResolveAttachmentAsset(id, exp, sig)
	if err != nil {
		writeError(w, http.StatusForbidden, "Attachment link is invalid or has expired")
		return
	}
	http.Redirect(w, r, target, http.StatusFound)
}

// MarkMessagesRead queues the read-state update for the caller and returns
// immediately. The batch runs in the background with retries.
func MarkMessagesRead(w http.ResponseWriter, r *http.Request) {
	roomID, userID, ok := requireMember(w, r)
	if !ok {
		return
	}

	services.EnqueueMarkRead(roomID, userID)

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"success": true,
		"message": "Read-state update queued",
	})
}

// GetUnreadCount returns the caller's cached unread count for the room.
func GetUnreadCount(w http.ResponseWriter, r *http.Request) {
	roomID, userID, ok := requireMember(w, r)
	if !ok {
		return
	}

	count, err := services.UnreadCount(r.Context(), roomID, userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load unread count")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":      true,
		"unread_count": count,
	})
}

// ListNotifications returns the caller's notifications, newest first.
func ListNotifications(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	unreadOnly := r.URL.Query().Get("unread") == "true"
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = parsed
	}

	notifications, err := services.ListNotifications(r.Context(), userID, unreadOnly, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load notifications")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":       true,
		"notifications": notifications,
		"total":         len(notifications),
	})
}

// MarkNotificationRead flags one of the caller's notifications as read.
func MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	notificationID, err := uuid.Parse(chi.URLParam(r, "notificationID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid notification id")
		return
	}

	if err := services.MarkNotificationRead(r.Context(), userID, notificationID); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update notification")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// ResolveNotificationTarget dereferences a notification target so clients can
// jump to the room or message it points at.
func ResolveNotificationTarget(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	kind, kindOK := models.ParseTargetKind(r.URL.Query().Get("kind"))
	targetID, err := uuid.Parse(r.URL.Query().Get("id"))
	if !kindOK || err != nil {
		writeError(w, http.StatusBadRequest, "A valid target kind and id are required")
		return
	}

	ref := models.TargetRef{Kind: kind, ID: targetID}
	target, err := services.ResolveTarget(r.Context(), ref)
	if err != nil {
		if services.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "Target not found")
		} else {
			writeError(w, http.StatusInternalServerError, "Failed to resolve target")
		}
		return
	}

	// Targets live inside rooms, so membership still gates the result.
	var roomID uuid.UUID
	switch t := target.(type) {
	case *models.ChatRoom:
		roomID = t.ID
	case *models.ChatMessage:
		roomID = t.RoomID
	}
	allowed, err := services.CanAccessRoom(r.Context(), roomID, userID)
	if err != nil || !allowed {
		writeError(w, http.StatusNotFound, "Target not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"kind":    kind,
		"target":  target,
	})
}

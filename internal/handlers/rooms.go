package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/Noe001/work-optimizer-sub001/internal/models"
	"github.com/Noe001/work-optimizer-sub001/internal/services"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type CreateRoomRequest struct {
	Name string `json:"name"`
}

type UpdateRoomRequest struct {
	Name string `json:"name"`
}

type OpenDirectMessageRequest struct {
	UserID string `json:"user_id"`
}

type AddMemberRequest struct {
	UserID string `json:"user_id"`
	Role   string `json:"role,omitempty"`
}

// roomAccessDenied writes the uniform denial used for non-members. The same
// body is sent whether the room is missing or merely off-limits, so nothing
// leaks about room existence.
func roomAccessDenied(w http.ResponseWriter) {
	writeError(w, http.StatusForbidden, "You do not have access to this room")
}

// roomFromPath parses the room id URL parameter.
func roomFromPath(r *http.Request) (uuid.UUID, bool) {
	roomID, err := uuid.Parse(chi.URLParam(r, "roomID"))
	return roomID, err == nil
}

// requireMember authenticates and checks (cached) room accessibility.
func requireMember(w http.ResponseWriter, r *http.Request) (roomID, userID uuid.UUID, ok bool) {
	userID, authed := currentUser(r)
	if !authed {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return uuid.Nil, uuid.Nil, false
	}
	roomID, valid := roomFromPath(r)
	if !valid {
		writeError(w, http.StatusBadRequest, "Invalid room id")
		return uuid.Nil, uuid.Nil, false
	}
	allowed, err := services.CanAccessRoom(r.Context(), roomID, userID)
	if err != nil || !allowed {
		roomAccessDenied(w)
		return uuid.Nil, uuid.Nil, false
	}
	return roomID, userID, true
}

// requireAdmin is requireMember plus a role check on the fresh membership row.
func requireAdmin(w http.ResponseWriter, r *http.Request) (roomID, userID uuid.UUID, ok bool) {
	roomID, userID, ok = requireMember(w, r)
	if !ok {
		return
	}
	m, err := services.GetMembership(r.Context(), roomID, userID)
	if err != nil || m == nil {
		roomAccessDenied(w)
		return uuid.Nil, uuid.Nil, false
	}
	switch m.Role {
	case models.RoleAdmin:
		return roomID, userID, true
	case models.RoleMember:
		writeError(w, http.StatusForbidden, "Room admin role required")
		return uuid.Nil, uuid.Nil, false
	default:
		roomAccessDenied(w)
		return uuid.Nil, uuid.Nil, false
	}
}

// CreateRoom creates a group room with the caller as admin.
func CreateRoom(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Room name is required")
		return
	}

	room, err := services.CreateRoom(r.Context(), req.Name, userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create room")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"room":    room,
	})
}

// ListRooms returns the caller's rooms.
func ListRooms(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	rooms, err := services.ListRoomsForUser(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load rooms")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"rooms":   rooms,
		"total":   len(rooms),
	})
}

// UpdateRoom renames a room (admin only). All cached views scoped to the
// room are evicted.
func UpdateRoom(w http.ResponseWriter, r *http.Request) {
	roomID, _, ok := requireAdmin(w, r)
	if !ok {
		return
	}

	var req UpdateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Room name is required")
		return
	}

	if err := services.UpdateRoom(r.Context(), roomID, req.Name); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update room")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// DeleteRoom destroys a room (admin only), cascading to memberships and
// messages and evicting the room's cache prefix.
func DeleteRoom(w http.ResponseWriter, r *http.Request) {
	roomID, _, ok := requireAdmin(w, r)
	if !ok {
		return
	}

	if err := services.DeleteRoom(r.Context(), roomID); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete room")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// OpenDirectMessage finds or creates the DM room between the caller and
// another user.
func OpenDirectMessage(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req OpenDirectMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	otherID, err := uuid.Parse(req.UserID)
	if err != nil || otherID == userID {
		writeError(w, http.StatusBadRequest, "A valid other user id is required")
		return
	}
	if exists, err := services.UserExists(r.Context(), otherID); err != nil || !exists {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}

	room, err := services.OpenDirectMessage(r.Context(), userID, otherID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to open direct message")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"room":    room,
	})
}

// AddMember adds a user to a room (admin only).
func AddMember(w http.ResponseWriter, r *http.Request) {
	roomID, _, ok := requireAdmin(w, r)
	if !ok {
		return
	}

	var req AddMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	newUserID, err := uuid.Parse(req.UserID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "A valid user id is required")
		return
	}
	role := models.RoleMember
	if req.Role != "" {
		parsed, ok := models.ParseMemberRole(req.Role)
		if !ok {
			writeError(w, http.StatusBadRequest, "Role must be member or admin")
			return
		}
		role = parsed
	}

	if err := services.AddMember(r.Context(), roomID, newUserID, role); err != nil {
		switch err {
		case services.ErrUserNotFound:
			writeError(w, http.StatusNotFound, "User not found")
		default:
			writeError(w, http.StatusInternalServerError, "Failed to add member")
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// RemoveMember removes a user from a room. Members may remove themselves;
// removing anyone else requires admin.
func RemoveMember(w http.ResponseWriter, r *http.Request) {
	roomID, userID, ok := requireMember(w, r)
	if !ok {
		return
	}

	targetID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid user id")
		return
	}

	if targetID != userID {
		m, err := services.GetMembership(r.Context(), roomID, userID)
		if err != nil || m == nil || m.Role != models.RoleAdmin {
			writeError(w, http.StatusForbidden, "Room admin role required")
			return
		}
	}

	if err := services.RemoveMember(r.Context(), roomID, targetID); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to remove member")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// GetRoomMembers returns the room's cached member-list snapshot.
func GetRoomMembers(w http.ResponseWriter, r *http.Request) {
	roomID, _, ok := requireMember(w, r)
	if !ok {
		return
	}

	members, err := services.GetRoomMembers(r.Context(), roomID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load members")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"members": members,
		"total":   len(members),
	})
}

// GetRoomStats returns the cached aggregate view plus the caller's unread
// count and the online estimate.
func GetRoomStats(w http.ResponseWriter, r *http.Request) {
	roomID, userID, ok := requireMember(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	stats, err := services.GetRoomStats(ctx, roomID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load room stats")
		return
	}
	unread, err := services.UnreadCount(ctx, roomID, userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load unread count")
		return
	}
	online, err := services.OnlineCount(ctx, roomID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load online count")
		return
	}
	lastMessage, err := services.LastMessage(ctx, roomID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load last message")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":      true,
		"stats":        stats,
		"unread_count": unread,
		"online_count": online,
		"last_message": lastMessage,
	})
}

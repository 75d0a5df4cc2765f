package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/Noe001/work-optimizer-sub001/internal/database"
	"github.com/Noe001/work-optimizer-sub001/internal/models"
	"github.com/Noe001/work-optimizer-sub001/internal/services"
	"github.com/Noe001/work-optimizer-sub001/pkg/utils"
	"github.com/google/uuid"
)

type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SigninRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Success      bool         `json:"success"`
	Message      string       `json:"message,omitempty"`
	Token        string       `json:"token,omitempty"`
	SessionToken string       `json:"session_token,omitempty"`
	User         *models.User `json:"user,omitempty"`
}

// Signup registers a new user account.
func Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Name == "" || req.Email == "" || len(req.Password) < 8 {
		writeError(w, http.StatusBadRequest, "Name, email, and a password of at least 8 characters are required")
		return
	}

	var exists bool
	if err := database.PostgresDB.QueryRowContext(r.Context(), `
		SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)
	`, req.Email).Scan(&exists); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to validate email")
		return
	}
	if exists {
		writeError(w, http.StatusConflict, "Email already registered")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create account")
		return
	}

	user := &models.User{
		ID:        uuid.New(),
		CreatedAt: time.Now().UTC(),
		Name:      req.Name,
		Email:     req.Email,
		IsActive:  true,
	}
	if _, err := database.PostgresDB.ExecContext(r.Context(), `
		INSERT INTO users (id, name, email, password_hash, created_at, is_active)
		VALUES ($1, $2, $3, $4, $5, TRUE)
	`, user.ID, user.Name, user.Email, hash, user.CreatedAt); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create account")
		return
	}

	issueTokens(w, r, user)
}

// Signin authenticates a user and issues tokens.
func Signin(w http.ResponseWriter, r *http.Request) {
	var req SigninRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	user := &models.User{}
	var hash string
	err := database.PostgresDB.QueryRowContext(r.Context(), `
		SELECT id, created_at, name, email, password_hash, is_active
		FROM users WHERE email = $1 AND is_active = TRUE
	`, req.Email).Scan(&user.ID, &user.CreatedAt, &user.Name, &user.Email, &hash, &user.IsActive)
	if err == sql.ErrNoRows {
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to sign in")
		return
	}

	ok, err := utils.VerifyPassword(req.Password, hash)
	if err != nil || !ok {
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	issueTokens(w, r, user)
}

func issueTokens(w http.ResponseWriter, r *http.Request, user *models.User) {
	accessToken, err := services.IssueAccessToken(user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to issue token")
		return
	}
	sessionToken, err := services.CreateSession(r.Context(), user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create session")
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{
		Success:      true,
		Token:        accessToken,
		SessionToken: sessionToken,
		User:         user,
	})
}

// GetMe returns the authenticated user's profile.
func GetMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	user := &models.User{}
	err := database.PostgresDB.QueryRowContext(r.Context(), `
		SELECT id, created_at, name, email, is_active
		FROM users WHERE id = $1 AND is_active = TRUE
	`, userID).Scan(&user.ID, &user.CreatedAt, &user.Name, &user.Email, &user.IsActive)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid session")
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{Success: true, User: user})
}

// Signout invalidates the user's session.
func Signout(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	services.InvalidateUserSessions(r.Context(), userID)
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

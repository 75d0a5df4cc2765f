package services

import (
	"context"
	"database/sql"

	"github.com/Noe001/work-optimizer-sub001/internal/database"
	"github.com/google/uuid"
)

// GetUserNameByID retrieves a user's display name for denormalized responses.
func GetUserNameByID(ctx context.Context, userID uuid.UUID) (string, error) {
	var name string
	err := database.PostgresDB.QueryRowContext(ctx, `
		SELECT name FROM users WHERE id = $1 AND is_active = TRUE
	`, userID).Scan(&name)

	if err != nil {
		if err == sql.ErrNoRows {
			return "", ErrUserNotFound
		}
		return "", err
	}

	return name, nil
}

// UserExists reports whether an active user with the given id exists.
func UserExists(ctx context.Context, userID uuid.UUID) (bool, error) {
	var exists bool
	err := database.PostgresDB.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM users WHERE id = $1 AND is_active = TRUE)
	`, userID).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

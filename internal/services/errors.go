package services

import "errors"

var (
	// ErrNotMember is returned when a user tries to read from or write to a
	// room they do not belong to. Handlers must not reveal whether the room
	// exists when rejecting on it.
	ErrNotMember = errors.New("not a member of this room")

	ErrRoomNotFound    = errors.New("room not found")
	ErrUserNotFound    = errors.New("user not found")
	ErrMessageNotFound = errors.New("message not found")

	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// ValidationError reports a rejected input with the field it belongs to.
// Each validation step of message ingestion produces a distinct reason.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Reason
}

// IsNotFound reports whether err is one of the vanished-entity errors that
// the background path treats as permanently failed rather than retryable.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrRoomNotFound) || errors.Is(err, ErrUserNotFound) || errors.Is(err, ErrMessageNotFound)
}

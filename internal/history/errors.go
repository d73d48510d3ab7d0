package history

import (
	"errors"
	"fmt"
)

// ErrNotFound matches any NotFoundError via errors.Is.
var ErrNotFound = errors.New("session not found")

// NotFoundError indicates no session matches the identity tuple.
type NotFoundError struct {
	SessionID string
	UserID    string
	AppName   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("session %s not found for user %s in app %s", e.SessionID, e.UserID, e.AppName)
}

// Is reports whether target is ErrNotFound.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

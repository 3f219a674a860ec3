package shared

import "github.com/google/uuid"

// NewID returns a random (v4) UUID string used for session and request ids
func NewID() string {
	return uuid.NewString()
}

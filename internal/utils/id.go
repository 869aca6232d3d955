package utils

import "github.com/google/uuid"

// NewID returns a random identifier used to correlate log lines of one session.
func NewID() string {
	return uuid.NewString()
}

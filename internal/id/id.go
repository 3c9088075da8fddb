package id

import "github.com/google/uuid"

// NewUUIDv7 returns a time-ordered UUID suitable for primary keys.
// Falls back to v4 if the system clock is unusable.
func NewUUIDv7() string {
	u, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return u.String()
}

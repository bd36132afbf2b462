// Package uuid provides time-ordered identifiers for users and saved paths.
// UUID v7 sorts by creation time, which keeps the SQLite primary key index
// append-mostly and gives saved paths a stable newest-first tiebreak.
package uuid

import (
	guuid "github.com/google/uuid"
)

// UUID is a 128-bit RFC 9562 identifier.
type UUID = guuid.UUID

// NewV7 returns a new UUID v7. If the random source fails it falls back to
// a random v4 so callers never have to handle an error.
func NewV7() UUID {
	u, err := guuid.NewV7()
	if err != nil {
		return guuid.New()
	}
	return u
}

// Parse decodes s in canonical form. Used to reject malformed path ids
// before they reach the store.
func Parse(s string) (UUID, error) {
	return guuid.Parse(s)
}

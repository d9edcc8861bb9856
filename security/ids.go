package security

import (
	"strings"

	"github.com/google/uuid"
)

// MaxIDLength matches the VARCHAR(12) identifier columns.
const MaxIDLength = 12

// GenerateID returns prefix followed by random upper-case hex characters,
// at most MaxIDLength long.
func GenerateID(prefix string) string {
	random := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	id := prefix + random
	if len(id) > MaxIDLength {
		id = id[:MaxIDLength]
	}
	return id
}

// NewToken returns an opaque, URL-safe token for one-time links.
func NewToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "") + strings.ReplaceAll(uuid.NewString(), "-", "")
}

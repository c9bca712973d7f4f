/*
Package randx provides functions for generating unique identifiers and randomized user identity.

It is used to generate UUID stroke and user identifiers, plus the display names and
palette colors assigned to participants when they join a room.
*/
package randx

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/google/uuid"
)

const (
	// GuestIDPrefix is the prefix for server-generated user IDs.
	GuestIDPrefix = "guest_"

	// MaxRoomIDLength is the longest accepted room identifier.
	MaxRoomIDLength = 64
)

// userColors is the palette of colors assigned to users so they are easy to
// tell apart on the canvas.
var userColors = []string{
	"#EF4444", "#F97316", "#EAB308", "#22C55E",
	"#14B8A6", "#3B82F6", "#8B5CF6", "#EC4899",
	"#F43F5E", "#06B6D4", "#10B981", "#6366F1",
}

var nameAdjectives = []string{"Swift", "Bright", "Cool", "Happy", "Lucky", "Quick", "Smart", "Brave"}

var nameNouns = []string{"Artist", "Painter", "Creator", "Designer", "Drawer", "Sketcher", "Maker", "Crafter"}

// randomIndex returns a uniform random index in [0, n) using crypto/rand.
func randomIndex(n int) int {
	num, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		// crypto/rand failing means the platform entropy source is broken.
		panic(fmt.Sprintf("randx: failed to read random source: %v", err))
	}
	return int(num.Int64())
}

// StrokeID generates a UUID v4 string to serve as a unique identifier for a stroke.
func StrokeID() string {
	return uuid.New().String()
}

// UserID generates a prefixed UUID v4 string identifying one connection.
func UserID() string {
	return GuestIDPrefix + uuid.New().String()
}

// UserName generates a random display name such as "SwiftArtist42".
func UserName() string {
	adj := nameAdjectives[randomIndex(len(nameAdjectives))]
	noun := nameNouns[randomIndex(len(nameNouns))]
	return fmt.Sprintf("%s%s%d", adj, noun, randomIndex(100))
}

// UserColor picks a random color from the user palette.
func UserColor() string {
	return userColors[randomIndex(len(userColors))]
}

// IsValidRoomID checks whether the given string is usable as a room identifier.
// Room IDs are client-chosen; they must be non-empty, at most MaxRoomIDLength
// characters, and contain only letters, digits, '-' or '_'.
func IsValidRoomID(id string) bool {
	if id == "" || len(id) > MaxRoomIDLength {
		return false
	}

	for _, char := range id {
		switch {
		case char >= 'a' && char <= 'z':
		case char >= 'A' && char <= 'Z':
		case char >= '0' && char <= '9':
		case char == '-' || char == '_':
		default:
			return false
		}
	}

	return true
}

// IsValidUserID checks whether the given string is a server-generated user ID.
func IsValidUserID(id string) bool {
	if !strings.HasPrefix(id, GuestIDPrefix) {
		return false
	}

	_, err := uuid.Parse(id[len(GuestIDPrefix):])
	return err == nil
}

/*
Package canvas contains the core state for shared drawing rooms.

This file defines the Registry struct, which owns every room's History and
membership set. Rooms are created lazily on first join and destroyed the
instant their member set becomes empty; no room state is retained for a room
with zero viewers.
*/
package canvas

import (
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/CTTECH108/Collabrative-Canvas/internal/app/user"
	"github.com/CTTECH108/Collabrative-Canvas/internal/pkg/logx"
)

// Registry maps room identifiers to their History and connected-user set.
// It is the exclusive owner of both; other components must not retain
// references beyond a request's duration, so destruction is safe and
// immediate.
//
// The registry mutex only guards the rooms map. Each History carries its own
// lock, so rooms never serialize each other.
type Registry struct {
	mu sync.RWMutex

	// rooms maps room ID to its state. Entries exist only while the room has
	// members, or after a lazy HistoryFor lookup pending a first join.
	rooms map[string]*roomEntry

	// historyLimit is the per-room stroke cap applied to new histories.
	historyLimit int

	logger zerolog.Logger
}

type roomEntry struct {
	history *History
	members map[string]user.User
}

// RoomInfo describes one room for the observability API.
type RoomInfo struct {
	RoomID    string      `json:"id"`
	UserCount int         `json:"userCount"`
	Users     []user.User `json:"users"`
	History   Summary     `json:"history"`
}

// NewRegistry creates an empty Registry whose rooms cap their stroke history
// at historyLimit.
func NewRegistry(historyLimit int) *Registry {
	if historyLimit < 1 {
		historyLimit = 1
	}

	registryLogger := logx.Logger().With().Str("component", "Registry").Logger()

	return &Registry{
		rooms:        make(map[string]*roomEntry),
		historyLimit: historyLimit,
		logger:       registryLogger,
	}
}

// Join adds a user record to the room, creating the room lazily if absent.
// Joining with an ID that is already present replaces the existing record.
func (reg *Registry) Join(roomID string, u user.User) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	entry := reg.entryLocked(roomID)
	entry.members[u.ID] = u

	reg.logger.Info().
		Str("room_id", roomID).
		Str("user_id", u.ID).
		Int("total_users", len(entry.members)).
		Msg("User joined room.")
}

// Leave removes the user from the room and reports whether a removal
// occurred. When the last member leaves, the room's history and membership
// are discarded entirely.
func (reg *Registry) Leave(roomID, userID string) bool {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	entry, ok := reg.rooms[roomID]
	if !ok {
		return false
	}

	if _, ok := entry.members[userID]; !ok {
		return false
	}
	delete(entry.members, userID)

	if len(entry.members) == 0 {
		delete(reg.rooms, roomID)
		reg.logger.Info().Str("room_id", roomID).Msg("Room destroyed (empty).")
		return true
	}

	reg.logger.Info().
		Str("room_id", roomID).
		Str("user_id", userID).
		Int("total_users", len(entry.members)).
		Msg("User left room.")

	return true
}

// Members returns the room's user records ordered by join time (ties broken
// by ID). Unknown rooms yield an empty slice.
func (reg *Registry) Members(roomID string) []user.User {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	entry, ok := reg.rooms[roomID]
	if !ok {
		return []user.User{}
	}

	members := make([]user.User, 0, len(entry.members))
	for _, u := range entry.members {
		members = append(members, u)
	}

	sort.Slice(members, func(i, j int) bool {
		if members[i].JoinedAt != members[j].JoinedAt {
			return members[i].JoinedAt < members[j].JoinedAt
		}
		return members[i].ID < members[j].ID
	})

	return members
}

// HistoryFor returns the room's History, creating the room lazily if missing.
// This mirrors Join's creation policy so a lookup never fails; callers on the
// transport path always Join first.
func (reg *Registry) HistoryFor(roomID string) *History {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	return reg.entryLocked(roomID).history
}

// RoomCount reports the number of live rooms.
func (reg *Registry) RoomCount() int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	return len(reg.rooms)
}

// UserCount reports the number of users in one room; zero for unknown rooms.
func (reg *Registry) UserCount(roomID string) int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	entry, ok := reg.rooms[roomID]
	if !ok {
		return 0
	}
	return len(entry.members)
}

// TotalUserCount reports the number of users across all rooms.
func (reg *Registry) TotalUserCount() int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	count := 0
	for _, entry := range reg.rooms {
		count += len(entry.members)
	}
	return count
}

// RoomIDs returns the identifiers of all live rooms, sorted.
func (reg *Registry) RoomIDs() []string {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	ids := make([]string, 0, len(reg.rooms))
	for id := range reg.rooms {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Info describes one room for observability reads. Unknown rooms report empty
// defaults, equivalent to a fresh empty room; the lookup never creates state.
func (reg *Registry) Info(roomID string) RoomInfo {
	reg.mu.RLock()
	entry, ok := reg.rooms[roomID]
	reg.mu.RUnlock()

	if !ok {
		return RoomInfo{
			RoomID:    roomID,
			UserCount: 0,
			Users:     []user.User{},
			History:   Summary{},
		}
	}

	users := reg.Members(roomID)

	return RoomInfo{
		RoomID:    roomID,
		UserCount: len(users),
		Users:     users,
		History:   entry.history.Summary(),
	}
}

// entryLocked returns the room's entry, creating it if absent.
// Callers must hold mu for writing.
func (reg *Registry) entryLocked(roomID string) *roomEntry {
	entry, ok := reg.rooms[roomID]
	if !ok {
		entry = &roomEntry{
			history: NewHistory(reg.historyLimit),
			members: make(map[string]user.User),
		}
		reg.rooms[roomID] = entry

		reg.logger.Info().Str("room_id", roomID).Msg("Room created.")
	}
	return entry
}

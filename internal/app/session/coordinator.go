/*
Package session contains the transport layer for collaborative drawing rooms.

This file defines the Coordinator struct, which serves as the central manager
for the session layer. It owns the canvas registry, creates room loops on
demand, and cleans them up when they shut down.
*/
package session

import (
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/CTTECH108/Collabrative-Canvas/internal/app/canvas"
	"github.com/CTTECH108/Collabrative-Canvas/internal/app/user"
	"github.com/CTTECH108/Collabrative-Canvas/internal/configs"
	"github.com/CTTECH108/Collabrative-Canvas/internal/pkg/logx"
)

// Coordinator is responsible for coordinating all active room session loops.
// Rooms are created lazily when the first client attaches and removed when
// their Run loop exits.
type Coordinator struct {
	// registry owns every room's drawing history and membership records.
	registry *canvas.Registry

	// Config holds the application's read-only configuration settings.
	config *configs.AppConfig

	// rooms stores all live Room loops, keyed by room ID.
	rooms map[string]*Room

	// mu protects concurrent access to the rooms map.
	mu sync.RWMutex

	// the channel used by Rooms to notify the Coordinator to remove them.
	cleanup chan RoomCleanupMsg

	// roomsWG tracks running room loops so Shutdown can wait for them.
	roomsWG sync.WaitGroup

	// cleanupWG waits for the runCleanupLoop goroutine during shutdown.
	cleanupWG sync.WaitGroup

	// structured logger with Coordinator context.
	logger zerolog.Logger
}

// NewCoordinator constructs a Coordinator and starts its cleanup loop.
func NewCoordinator(cfg *configs.AppConfig) *Coordinator {
	coordinatorLogger := logx.Logger().With().Str("component", "Coordinator").Logger()

	co := &Coordinator{
		registry: canvas.NewRegistry(cfg.MaxHistorySize),
		config:   cfg,
		rooms:    make(map[string]*Room),
		cleanup:  make(chan RoomCleanupMsg, 16),
		logger:   coordinatorLogger,
	}

	co.cleanupWG.Add(1)
	go co.runCleanupLoop()

	return co
}

// Registry exposes the canvas registry for read-side consumers such as the
// observability API. Mutations must flow through room loops.
func (co *Coordinator) Registry() *canvas.Registry {
	return co.registry
}

// Attach binds a new connection to a room, creating the room loop lazily.
// It retries when a room shuts down between lookup and registration, so the
// caller always ends up in a live room.
func (co *Coordinator) Attach(roomID string, conn *websocket.Conn, u user.User) *Client {
	for {
		room := co.roomFor(roomID)
		client := NewClient(room, conn, u)

		if room.RegisterClient(client) {
			return client
		}
	}
}

// roomFor retrieves the live Room loop for the given ID, creating and
// starting one if absent or if the previous loop already exited.
func (co *Coordinator) roomFor(roomID string) *Room {
	co.mu.Lock()
	defer co.mu.Unlock()

	if room, ok := co.rooms[roomID]; ok && !room.Stopped() {
		return room
	}

	room := NewRoom(roomID, co.registry, co.cleanup)
	co.rooms[roomID] = room

	co.roomsWG.Add(1)
	go func() {
		defer co.roomsWG.Done()
		room.Run()
	}()

	co.logger.Info().Str("room_id", roomID).Msg("New Room loop created and started.")

	return room
}

// Stopped reports whether the room's Run loop has exited.
func (r *Room) Stopped() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}

// runCleanupLoop is a blocking loop that listens on the cleanup channel.
// When a RoomCleanupMsg is received, it removes the corresponding room.
func (co *Coordinator) runCleanupLoop() {
	defer co.cleanupWG.Done()

	co.logger.Info().Msg("Cleanup loop started.")

	for msg := range co.cleanup {
		co.deleteRoom(msg.RoomID)
	}

	co.logger.Info().Msg("Cleanup loop stopped.")
}

// deleteRoom removes the specified room from the Coordinator's rooms map,
// unless it has already been replaced by a newer loop for the same ID.
func (co *Coordinator) deleteRoom(roomID string) {
	co.mu.Lock()
	defer co.mu.Unlock()

	if room, ok := co.rooms[roomID]; ok && room.Stopped() {
		delete(co.rooms, roomID)
		co.logger.Info().Str("room_id", roomID).Msg("Room loop removed.")
	}
}

// Shutdown gracefully shuts down the Coordinator and all room loops.
// It stops every Run loop, waits for them to exit, then stops the cleanup
// goroutine.
func (co *Coordinator) Shutdown() {
	co.logger.Info().Msg("Shutting down Coordinator...")

	co.mu.Lock()
	for _, room := range co.rooms {
		room.Stop()
	}
	co.mu.Unlock()

	co.roomsWG.Wait()

	close(co.cleanup)
	co.cleanupWG.Wait()

	co.logger.Info().Msg("Coordinator shutdown complete.")
}

/*
Package session contains the transport layer for collaborative drawing rooms.

This file defines the Room struct, the single-owner event loop for one room.
All mutations for a room (join, leave, commit, undo, redo, clear) flow through
its Run goroutine in server-arrival order, which is the authoritative order
for concurrent edits. Rooms are fully independent; nothing serializes one
room against another.
*/
package session

import (
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/CTTECH108/Collabrative-Canvas/internal/app/canvas"
	"github.com/CTTECH108/Collabrative-Canvas/internal/app/user"
	"github.com/CTTECH108/Collabrative-Canvas/internal/pkg/errs"
	"github.com/CTTECH108/Collabrative-Canvas/internal/pkg/logx"
	"github.com/CTTECH108/Collabrative-Canvas/internal/pkg/randx"
)

const (
	// buffered capacity of the inbound event channel.
	eventChannelBuffer = 1024

	// MaxStrokePoints bounds the point count of a single committed stroke.
	MaxStrokePoints = 4096
)

// RoomCleanupMsg notifies the Coordinator that a room has shut down and
// should be removed from its map.
type RoomCleanupMsg struct {
	RoomID string
}

// event is one inbound client message awaiting the room loop.
type event struct {
	client  *Client
	msgType MessageType
	payload json.RawMessage
}

// Room is the per-room session hub. Its Run loop is the single owner of the
// clients map and the only writer of the room's canvas history, giving every
// room single-thread affinity without a cross-room lock.
type Room struct {
	// unique identifier for the room.
	ID string

	// registry owning this room's history and membership records.
	registry *canvas.Registry

	// the room's shared drawing history, owned by the registry.
	history *canvas.History

	// currently connected clients, keyed by user ID. Owned by Run.
	clients map[string]*Client

	// inbound client events awaiting processing.
	events chan event

	// a channel for clients requesting to join the room.
	register chan *Client

	// a channel for clients requesting to leave the room.
	unregister chan *Client

	// a write-only channel used to notify the Coordinator to clean up this room.
	cleanupChan chan<- RoomCleanupMsg

	// used to signal the Room to stop its Run loop immediately.
	stopChan chan struct{}

	// closed when the Run loop has exited; guards sends to a dead room.
	done chan struct{}

	// structured logger with room context.
	logger zerolog.Logger
}

// NewRoom creates and initializes a new Room instance.
func NewRoom(roomID string, registry *canvas.Registry, cleanupChan chan<- RoomCleanupMsg) *Room {
	roomLogger := logx.Logger().With().
		Str("room_id", roomID).
		Logger()

	return &Room{
		ID:          roomID,
		registry:    registry,
		history:     registry.HistoryFor(roomID),
		clients:     make(map[string]*Client),
		events:      make(chan event, eventChannelBuffer),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		cleanupChan: cleanupChan,
		stopChan:    make(chan struct{}),
		done:        make(chan struct{}),
		logger:      roomLogger,
	}
}

// Stop sends a signal to immediately terminate the Room's Run loop.
func (r *Room) Stop() {
	select {
	case <-r.stopChan:
	default:
		close(r.stopChan)
	}
}

// RegisterClient hands a client to the room loop. It reports false when the
// room has already shut down, in which case the caller must obtain a fresh
// room and retry.
func (r *Room) RegisterClient(client *Client) bool {
	select {
	case r.register <- client:
		return true
	case <-r.done:
		return false
	}
}

// dispatch queues one inbound client event for the room loop. Volatile events
// are dropped when the loop is backlogged; reliable events wait.
func (r *Room) dispatch(c *Client, msgType MessageType, payload json.RawMessage, volatile bool) {
	ev := event{client: c, msgType: msgType, payload: payload}

	if volatile {
		select {
		case r.events <- ev:
		case <-r.done:
		default:
		}
		return
	}

	select {
	case r.events <- ev:
	case <-r.done:
	}
}

// Run starts the main event loop for the Room. It handles client
// registration, deregistration and drawing events, and exits the instant the
// last client leaves; an empty room's state is destroyed, not retained.
func (r *Room) Run() {
	defer func() {
		close(r.done)

		for _, client := range r.clients {
			close(client.send)
		}

		r.cleanupChan <- RoomCleanupMsg{RoomID: r.ID}

		r.logger.Info().Msg("Room Run loop finished.")
	}()

	for {
		select {
		case client := <-r.register:
			r.handleRegister(client)

		case client := <-r.unregister:
			if r.handleUnregister(client) {
				return
			}

		case ev := <-r.events:
			r.handleEvent(ev)
			if len(r.clients) == 0 {
				r.logger.Info().Msg("Room is empty. Shutting down Room.Run() loop.")
				return
			}

		case <-r.stopChan:
			r.logger.Info().Msg("Room forced stop initiated.")
			return
		}
	}
}

// handleRegister adds a client to the room, replacing any existing connection
// with the same user ID, and sends the joiner its confirmation plus the full
// visible history.
func (r *Room) handleRegister(client *Client) {
	userID := client.user.ID

	if existing, ok := r.clients[userID]; ok {
		r.logger.Warn().
			Str("client_id", userID).
			Msg("Client ID already connected. Replacing old connection.")

		existing.Kick("Session replaced by new connection.")
		close(existing.send)
	}

	r.clients[userID] = client
	r.registry.Join(r.ID, client.user)

	r.logger.Info().
		Str("client_id", userID).
		Int("total_users", len(r.clients)).
		Msg("Client joined room.")

	r.sendTo(client, TypeRoomJoined, SystemUser, RoomJoinedPayload{
		RoomID: r.ID,
		User:   client.user,
	})

	r.sendTo(client, TypeHistorySync, SystemUser, HistorySyncPayload{
		Strokes: r.history.VisibleStrokes(),
		CanUndo: r.history.CanUndo(),
		CanRedo: r.history.CanRedo(),
	})

	r.broadcastReliable(TypeUserJoined, SystemUser, UserEventPayload{User: client.user}, client)
	r.broadcastReliable(TypeUsersUpdate, SystemUser, UsersUpdatePayload{Users: r.registry.Members(r.ID)}, nil)
}

// handleUnregister removes a client from the room and reports whether the
// room is now empty and the loop should exit.
func (r *Room) handleUnregister(client *Client) bool {
	userID := client.user.ID

	current, ok := r.clients[userID]
	if !ok || current != client {
		// stale connection that was already replaced or dropped
		return len(r.clients) == 0
	}

	delete(r.clients, userID)
	close(client.send)
	r.registry.Leave(r.ID, userID)

	r.logger.Info().
		Str("client_id", userID).
		Int("total_users", len(r.clients)).
		Msg("Client left room.")

	if len(r.clients) == 0 {
		r.logger.Info().Msg("Room is empty. Shutting down Room.Run() loop.")
		return true
	}

	r.broadcastReliable(TypeUserLeft, SystemUser, UserEventPayload{User: client.user}, nil)
	r.broadcastReliable(TypeUsersUpdate, SystemUser, UsersUpdatePayload{Users: r.registry.Members(r.ID)}, nil)

	return false
}

// handleEvent routes one inbound client event to its handler. Events from
// connections that were already replaced are ignored.
func (r *Room) handleEvent(ev event) {
	if current, ok := r.clients[ev.client.user.ID]; !ok || current != ev.client {
		return
	}

	switch ev.msgType {
	case TypeStrokeStart:
		r.handleStrokeStart(ev.client, ev.payload)
	case TypeStrokeMove:
		r.handleStrokeMove(ev.client, ev.payload)
	case TypeStrokeEnd:
		r.handleStrokeEnd(ev.client, ev.payload)
	case TypeCursorMove:
		r.handleCursorMove(ev.client, ev.payload)
	case TypeUndoRequest:
		r.handleUndo(ev.client)
	case TypeRedoRequest:
		r.handleRedo(ev.client)
	case TypeClearRequest:
		r.handleClear(ev.client)
	}
}

// handleStrokeStart relays the opening point of an in-progress stroke to the
// rest of the room.
func (r *Room) handleStrokeStart(c *Client, payloadBytes json.RawMessage) {
	var payload StrokeStartPayload
	if err := json.Unmarshal(payloadBytes, &payload); err != nil {
		c.logger.Warn().Err(err).Msg("Client sent invalid STROKE_START payload")
		return
	}

	payload.UserID = c.user.ID
	payload.UserName = c.user.Name

	r.broadcastReliable(TypeStrokeStart, c.user, payload, c)
}

// handleStrokeMove relays in-progress stroke points on the volatile path.
func (r *Room) handleStrokeMove(c *Client, payloadBytes json.RawMessage) {
	var payload StrokeMovePayload
	if err := json.Unmarshal(payloadBytes, &payload); err != nil {
		return
	}

	payload.UserID = c.user.ID

	r.broadcastVolatile(TypeStrokeMove, c.user, payload, c)
}

// handleStrokeEnd validates and commits a completed stroke, then broadcasts
// it to everyone except the author, plus the updated undo/redo state to all.
func (r *Room) handleStrokeEnd(c *Client, payloadBytes json.RawMessage) {
	var stroke canvas.Stroke
	if err := json.Unmarshal(payloadBytes, &stroke); err != nil {
		c.logger.Warn().Err(err).Msg("Client sent invalid STROKE_END payload")
		c.SendError(errs.NewError(errs.ErrInvalidStroke))
		return
	}

	if len(stroke.Points) == 0 || stroke.StrokeWidth <= 0 {
		c.SendError(errs.NewError(errs.ErrInvalidStroke))
		return
	}

	if len(stroke.Points) > MaxStrokePoints {
		c.SendError(errs.NewError(errs.ErrStrokeTooLarge))
		return
	}

	if stroke.ID == "" {
		stroke.ID = randx.StrokeID()
	}

	stroke = canvas.ResolveTool(stroke)
	stroke.AuthorID = c.user.ID
	stroke.AuthorName = c.user.Name
	stroke.AuthorColor = c.user.Color
	stroke.Timestamp = time.Now().UnixMilli()

	committed := r.history.Commit(stroke)

	r.broadcastReliable(TypeStrokeEnd, c.user, committed, c)
	r.broadcastReliable(TypeUndoRedoState, SystemUser, UndoRedoStatePayload{
		CanUndo: r.history.CanUndo(),
		CanRedo: r.history.CanRedo(),
	}, nil)
}

// handleCursorMove relays a cursor position to the rest of the room on the
// volatile path.
func (r *Room) handleCursorMove(c *Client, payloadBytes json.RawMessage) {
	var payload CursorMovePayload
	if err := json.Unmarshal(payloadBytes, &payload); err != nil {
		return
	}

	r.broadcastVolatile(TypeCursorUpdate, c.user, CursorUpdatePayload{
		UserID:   c.user.ID,
		UserName: c.user.Name,
		Color:    c.user.Color,
		X:        payload.X,
		Y:        payload.Y,
	}, c)
}

// handleUndo applies an undo to the shared timeline. Success is broadcast to
// the whole room; failure is reported to the requester only and never logged
// as an error, since an empty history is an expected condition.
func (r *Room) handleUndo(c *Client) {
	strokes, undoErr := r.history.Undo()
	if undoErr != nil {
		c.SendError(undoErr)
		return
	}

	r.broadcastReliable(TypeUndoApplied, SystemUser, UndoAppliedPayload{
		Strokes:  strokes,
		CanUndo:  r.history.CanUndo(),
		CanRedo:  r.history.CanRedo(),
		UndoneBy: c.user.Name,
	}, nil)
}

// handleRedo is symmetric to handleUndo.
func (r *Room) handleRedo(c *Client) {
	strokes, redoErr := r.history.Redo()
	if redoErr != nil {
		c.SendError(redoErr)
		return
	}

	r.broadcastReliable(TypeRedoApplied, SystemUser, RedoAppliedPayload{
		Strokes:  strokes,
		CanUndo:  r.history.CanUndo(),
		CanRedo:  r.history.CanRedo(),
		RedoneBy: c.user.Name,
	}, nil)
}

// handleClear irreversibly wipes the room's canvas and announces it.
func (r *Room) handleClear(c *Client) {
	r.history.Clear()

	r.logger.Info().Str("client_id", c.user.ID).Msg("Canvas cleared.")

	r.broadcastReliable(TypeCanvasCleared, SystemUser, CanvasClearedPayload{ClearedBy: c.user.Name}, nil)
	r.broadcastReliable(TypeUndoRedoState, SystemUser, UndoRedoStatePayload{
		CanUndo: false,
		CanRedo: false,
	}, nil)
}

// sendTo queues one message on a single client's reliable channel.
func (r *Room) sendTo(c *Client, msgType MessageType, sender user.User, payload any) {
	msg, err := NewMessage(msgType, r.ID, sender, payload)
	if err != nil {
		r.logger.Error().Err(err).Str("msg_type", string(msgType)).Msg("Failed to build message.")
		return
	}

	if err := c.sendMessage(msg); err != nil {
		r.dropClient(c)
	}
}

// broadcastReliable fans one message out to every client except the excluded
// one, over the reliable channel. Clients whose queue overflows are dropped;
// a participant that cannot keep up with committed state must resync.
func (r *Room) broadcastReliable(msgType MessageType, sender user.User, payload any, except *Client) {
	messageBytes, ok := r.marshalMessage(msgType, sender, payload)
	if !ok {
		return
	}

	var overflowed []*Client

	for _, client := range r.clients {
		if client == except {
			continue
		}
		if err := client.queueReliable(messageBytes); err != nil {
			overflowed = append(overflowed, client)
		}
	}

	for _, client := range overflowed {
		r.dropClient(client)
	}
}

// broadcastVolatile fans one message out over the droppable channel.
func (r *Room) broadcastVolatile(msgType MessageType, sender user.User, payload any, except *Client) {
	messageBytes, ok := r.marshalMessage(msgType, sender, payload)
	if !ok {
		return
	}

	for _, client := range r.clients {
		if client == except {
			continue
		}
		client.queueVolatile(messageBytes)
	}
}

// marshalMessage builds and marshals one envelope for fan-out.
func (r *Room) marshalMessage(msgType MessageType, sender user.User, payload any) ([]byte, bool) {
	msg, err := NewMessage(msgType, r.ID, sender, payload)
	if err != nil {
		r.logger.Error().Err(err).Str("msg_type", string(msgType)).Msg("Failed to build message for broadcast.")
		return nil, false
	}

	messageBytes, err := json.Marshal(msg)
	if err != nil {
		r.logger.Error().Err(err).Str("msg_type", string(msgType)).Msg("Error marshaling message for broadcast.")
		return nil, false
	}

	return messageBytes, true
}

// dropClient removes a client that can no longer keep up and closes its
// reliable queue, terminating its WritePump.
func (r *Room) dropClient(client *Client) {
	userID := client.user.ID

	if current, ok := r.clients[userID]; !ok || current != client {
		return
	}

	r.logger.Warn().Str("client_id", userID).Msg("Dropping client with full reliable queue.")

	delete(r.clients, userID)
	close(client.send)
	r.registry.Leave(r.ID, userID)
}

/*
Package session contains the transport layer for collaborative drawing rooms:
client connections, the per-room event loop, and message fan-out.

This file defines the wire message envelope and the typed payloads exchanged
with drawing clients. Every message kind is an explicit constant; payloads are
typed structs rather than string-keyed tables.
*/
package session

import (
	"encoding/json"
	"time"

	"github.com/CTTECH108/Collabrative-Canvas/internal/app/canvas"
	"github.com/CTTECH108/Collabrative-Canvas/internal/app/user"
	"github.com/CTTECH108/Collabrative-Canvas/internal/pkg/randx"
)

// MessageType identifies the kind of a wire message.
type MessageType string

// Inbound message types (client to server). Joining a room is the websocket
// connection itself; leaving is the disconnect.
const (
	TypeStrokeStart  MessageType = "STROKE_START"
	TypeStrokeMove   MessageType = "STROKE_MOVE"
	TypeStrokeEnd    MessageType = "STROKE_END"
	TypeCursorMove   MessageType = "CURSOR_MOVE"
	TypeUndoRequest  MessageType = "UNDO_REQUEST"
	TypeRedoRequest  MessageType = "REDO_REQUEST"
	TypeClearRequest MessageType = "CLEAR_REQUEST"
)

// Outbound message types (server to client).
const (
	TypeRoomJoined    MessageType = "ROOM_JOINED"
	TypeHistorySync   MessageType = "HISTORY_SYNC"
	TypeUserJoined    MessageType = "USER_JOINED"
	TypeUserLeft      MessageType = "USER_LEFT"
	TypeUsersUpdate   MessageType = "USERS_UPDATE"
	TypeUndoRedoState MessageType = "UNDOREDO_STATE"
	TypeUndoApplied   MessageType = "UNDO_APPLIED"
	TypeRedoApplied   MessageType = "REDO_APPLIED"
	TypeCanvasCleared MessageType = "CANVAS_CLEARED"
	TypeCursorUpdate  MessageType = "CURSOR_UPDATE"
	TypeError         MessageType = "ERROR"
)

// SystemUser is the reserved sender identity for server-originated messages.
var SystemUser = user.User{
	ID:   "system",
	Name: "System",
}

// Message is the wire envelope for every server-to-client message.
type Message struct {
	// ID uniquely identifies the message.
	ID string `json:"id"`

	// Type is the message kind.
	Type MessageType `json:"type"`

	// Room is the room this message belongs to.
	Room string `json:"room"`

	// Sender identifies the originating user; SystemUser for server messages.
	Sender user.User `json:"sender"`

	// Payload carries the type-specific body.
	Payload json.RawMessage `json:"payload,omitempty"`

	// Timestamp is the server send time in Unix milliseconds.
	Timestamp int64 `json:"timestamp"`
}

// NewMessage builds a Message envelope around the given payload.
func NewMessage(msgType MessageType, roomID string, sender user.User, payload any) (Message, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return Message{}, err
	}

	return Message{
		ID:        randx.StrokeID(),
		Type:      msgType,
		Room:      roomID,
		Sender:    sender,
		Payload:   payloadBytes,
		Timestamp: time.Now().UnixMilli(),
	}, nil
}

// RoomJoinedPayload confirms a join to the joining client.
type RoomJoinedPayload struct {
	RoomID string    `json:"roomId"`
	User   user.User `json:"user"`
}

// HistorySyncPayload carries the full visible history to a joining client.
type HistorySyncPayload struct {
	Strokes []canvas.Stroke `json:"strokes"`
	CanUndo bool            `json:"canUndo"`
	CanRedo bool            `json:"canRedo"`
}

// UserEventPayload announces a single user joining or leaving.
type UserEventPayload struct {
	User user.User `json:"user"`
}

// UsersUpdatePayload carries the room's full member list, in join order.
type UsersUpdatePayload struct {
	Users []user.User `json:"users"`
}

// UndoRedoStatePayload updates the undo/redo button state for the room.
type UndoRedoStatePayload struct {
	CanUndo bool `json:"canUndo"`
	CanRedo bool `json:"canRedo"`
}

// UndoAppliedPayload broadcasts the room state after a successful undo.
type UndoAppliedPayload struct {
	Strokes  []canvas.Stroke `json:"strokes"`
	CanUndo  bool            `json:"canUndo"`
	CanRedo  bool            `json:"canRedo"`
	UndoneBy string          `json:"undoneBy"`
}

// RedoAppliedPayload broadcasts the room state after a successful redo.
type RedoAppliedPayload struct {
	Strokes  []canvas.Stroke `json:"strokes"`
	CanUndo  bool            `json:"canUndo"`
	CanRedo  bool            `json:"canRedo"`
	RedoneBy string          `json:"redoneBy"`
}

// CanvasClearedPayload announces an irreversible canvas clear.
type CanvasClearedPayload struct {
	ClearedBy string `json:"clearedBy"`
}

// StrokeStartPayload relays the first point of an in-progress stroke.
// The server stamps the author fields before relaying.
type StrokeStartPayload struct {
	StrokeID    string       `json:"strokeId"`
	Tool        canvas.Tool  `json:"tool"`
	Color       string       `json:"color"`
	StrokeWidth int          `json:"strokeWidth"`
	Point       canvas.Point `json:"point"`
	UserID      string       `json:"userId,omitempty"`
	UserName    string       `json:"userName,omitempty"`
}

// StrokeMovePayload relays in-progress stroke points. Delivery is volatile:
// dropped updates are acceptable, the committed stroke carries the full path.
type StrokeMovePayload struct {
	StrokeID string         `json:"strokeId"`
	Points   []canvas.Point `json:"points"`
	UserID   string         `json:"userId,omitempty"`
}

// CursorMovePayload is the inbound cursor position report.
type CursorMovePayload struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// CursorUpdatePayload relays a cursor position to the rest of the room.
// Delivery is volatile.
type CursorUpdatePayload struct {
	UserID   string  `json:"userId"`
	UserName string  `json:"userName"`
	Color    string  `json:"color"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
}

// ErrorPayload reports an application error to a single client.
type ErrorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

package session

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/CTTECH108/Collabrative-Canvas/internal/app/canvas"
	"github.com/CTTECH108/Collabrative-Canvas/internal/app/user"
	"github.com/CTTECH108/Collabrative-Canvas/internal/pkg/errs"
)

const recvTimeout = 2 * time.Second

// newTestRoom starts a Room loop backed by a fresh registry. Tests drive it
// through the register/unregister channels and dispatch, never through
// websocket pumps.
func newTestRoom(t *testing.T) (*Room, *canvas.Registry, chan RoomCleanupMsg) {
	t.Helper()

	registry := canvas.NewRegistry(1000)
	cleanup := make(chan RoomCleanupMsg, 4)
	room := NewRoom("room1", registry, cleanup)
	go room.Run()

	t.Cleanup(func() {
		room.Stop()
	})

	return room, registry, cleanup
}

func newTestClient(room *Room, id, name string) *Client {
	return NewClient(room, nil, user.User{
		ID:       id,
		Name:     name,
		Color:    "#3B82F6",
		JoinedAt: time.Now().UnixMilli(),
	})
}

// recvReliable reads the next message from the client's reliable queue.
func recvReliable(t *testing.T, c *Client) Message {
	t.Helper()

	select {
	case raw, ok := <-c.send:
		if !ok {
			t.Fatalf("Client %s reliable queue closed unexpectedly", c.user.ID)
		}
		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			t.Fatalf("Failed to unmarshal message for %s: %v", c.user.ID, err)
		}
		return msg
	case <-time.After(recvTimeout):
		t.Fatalf("Timed out waiting for reliable message for %s", c.user.ID)
	}
	return Message{}
}

// expectReliable reads the next reliable message and asserts its type.
func expectReliable(t *testing.T, c *Client, want MessageType) Message {
	t.Helper()

	msg := recvReliable(t, c)
	if msg.Type != want {
		t.Fatalf("Client %s: expected %s, got %s", c.user.ID, want, msg.Type)
	}
	return msg
}

// recvVolatile reads the next message from the client's droppable queue.
func recvVolatile(t *testing.T, c *Client) Message {
	t.Helper()

	select {
	case raw := <-c.volatile:
		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			t.Fatalf("Failed to unmarshal volatile message for %s: %v", c.user.ID, err)
		}
		return msg
	case <-time.After(recvTimeout):
		t.Fatalf("Timed out waiting for volatile message for %s", c.user.ID)
	}
	return Message{}
}

// join registers the client and consumes its join traffic (ROOM_JOINED,
// HISTORY_SYNC, USERS_UPDATE), returning the history sync payload.
func join(t *testing.T, room *Room, c *Client) HistorySyncPayload {
	t.Helper()

	if !room.RegisterClient(c) {
		t.Fatalf("RegisterClient failed for %s", c.user.ID)
	}

	expectReliable(t, c, TypeRoomJoined)

	syncMsg := expectReliable(t, c, TypeHistorySync)
	var sync HistorySyncPayload
	if err := json.Unmarshal(syncMsg.Payload, &sync); err != nil {
		t.Fatalf("Failed to unmarshal HISTORY_SYNC payload: %v", err)
	}

	expectReliable(t, c, TypeUsersUpdate)

	return sync
}

// joinSecond joins another client and consumes the membership traffic the
// first client receives about it.
func joinSecond(t *testing.T, room *Room, first, second *Client) {
	t.Helper()

	join(t, room, second)
	expectReliable(t, first, TypeUserJoined)
	expectReliable(t, first, TypeUsersUpdate)
}

func strokePayload(t *testing.T, s canvas.Stroke) json.RawMessage {
	t.Helper()

	raw, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("Failed to marshal stroke: %v", err)
	}
	return raw
}

func TestJoinSyncsHistory(t *testing.T) {
	room, registry, _ := newTestRoom(t)

	registry.HistoryFor("room1").Commit(canvas.Stroke{
		ID:          "pre",
		Tool:        canvas.ToolBrush,
		Color:       "#000000",
		StrokeWidth: 3,
		Points:      []canvas.Point{{X: 1, Y: 1}},
	})

	c := newTestClient(room, "u1", "Alice")
	sync := join(t, room, c)

	if len(sync.Strokes) != 1 || sync.Strokes[0].ID != "pre" {
		t.Errorf("Expected sync with stroke pre, got %+v", sync.Strokes)
	}
	if !sync.CanUndo || sync.CanRedo {
		t.Errorf("Expected canUndo=true canRedo=false, got %+v", sync)
	}
	if got := registry.UserCount("room1"); got != 1 {
		t.Errorf("Expected 1 member after join, got %d", got)
	}
}

func TestStrokeEndBroadcastSkipsAuthor(t *testing.T) {
	room, registry, _ := newTestRoom(t)

	a := newTestClient(room, "ua", "Alice")
	b := newTestClient(room, "ub", "Bob")
	join(t, room, a)
	joinSecond(t, room, a, b)

	room.dispatch(a, TypeStrokeEnd, strokePayload(t, canvas.Stroke{
		ID:          "s1",
		Tool:        canvas.ToolBrush,
		Color:       "#112233",
		StrokeWidth: 5,
		Points:      []canvas.Point{{X: 1, Y: 2}, {X: 3, Y: 4}},
	}), false)

	// the observer gets the committed stroke, then the state update
	strokeMsg := expectReliable(t, b, TypeStrokeEnd)
	var committed canvas.Stroke
	if err := json.Unmarshal(strokeMsg.Payload, &committed); err != nil {
		t.Fatalf("Failed to unmarshal committed stroke: %v", err)
	}
	if committed.AuthorID != "ua" || committed.AuthorName != "Alice" {
		t.Errorf("Stroke should be stamped with author, got %s/%s", committed.AuthorID, committed.AuthorName)
	}
	if committed.Timestamp == 0 {
		t.Error("Committed stroke should carry a server timestamp")
	}
	expectReliable(t, b, TypeUndoRedoState)

	// the author gets only the state update, never its own stroke back
	stateMsg := expectReliable(t, a, TypeUndoRedoState)
	var state UndoRedoStatePayload
	if err := json.Unmarshal(stateMsg.Payload, &state); err != nil {
		t.Fatalf("Failed to unmarshal state payload: %v", err)
	}
	if !state.CanUndo || state.CanRedo {
		t.Errorf("Expected canUndo=true canRedo=false, got %+v", state)
	}

	if got := len(registry.HistoryFor("room1").VisibleStrokes()); got != 1 {
		t.Errorf("Expected 1 committed stroke, got %d", got)
	}
}

func TestStrokeEndResolvesEraser(t *testing.T) {
	room, _, _ := newTestRoom(t)

	a := newTestClient(room, "ua", "Alice")
	b := newTestClient(room, "ub", "Bob")
	join(t, room, a)
	joinSecond(t, room, a, b)

	room.dispatch(a, TypeStrokeEnd, strokePayload(t, canvas.Stroke{
		ID:          "s1",
		Tool:        canvas.ToolEraser,
		Color:       "#112233",
		StrokeWidth: 4,
		Points:      []canvas.Point{{X: 1, Y: 2}},
	}), false)

	strokeMsg := expectReliable(t, b, TypeStrokeEnd)
	var committed canvas.Stroke
	if err := json.Unmarshal(strokeMsg.Payload, &committed); err != nil {
		t.Fatalf("Failed to unmarshal committed stroke: %v", err)
	}
	if committed.Color != canvas.EraserColor {
		t.Errorf("Eraser stroke color should be %s, got %s", canvas.EraserColor, committed.Color)
	}
	if committed.StrokeWidth != 4*canvas.EraserWidthFactor {
		t.Errorf("Eraser stroke width should be widened to %d, got %d", 4*canvas.EraserWidthFactor, committed.StrokeWidth)
	}
}

func TestInvalidStrokeRejected(t *testing.T) {
	room, registry, _ := newTestRoom(t)

	a := newTestClient(room, "ua", "Alice")
	join(t, room, a)

	room.dispatch(a, TypeStrokeEnd, strokePayload(t, canvas.Stroke{
		ID:          "s1",
		Tool:        canvas.ToolBrush,
		Color:       "#000000",
		StrokeWidth: 5,
		Points:      []canvas.Point{},
	}), false)

	errMsg := expectReliable(t, a, TypeError)
	var payload ErrorPayload
	if err := json.Unmarshal(errMsg.Payload, &payload); err != nil {
		t.Fatalf("Failed to unmarshal error payload: %v", err)
	}
	if payload.Code != errs.ErrInvalidStroke {
		t.Errorf("Expected code %d, got %d", errs.ErrInvalidStroke, payload.Code)
	}

	if got := len(registry.HistoryFor("room1").VisibleStrokes()); got != 0 {
		t.Errorf("Invalid stroke must not be committed, got %d strokes", got)
	}
}

func TestUndoFailureGoesToRequesterOnly(t *testing.T) {
	room, _, _ := newTestRoom(t)

	a := newTestClient(room, "ua", "Alice")
	b := newTestClient(room, "ub", "Bob")
	join(t, room, a)
	joinSecond(t, room, a, b)

	room.dispatch(b, TypeUndoRequest, nil, false)

	errMsg := expectReliable(t, b, TypeError)
	var payload ErrorPayload
	if err := json.Unmarshal(errMsg.Payload, &payload); err != nil {
		t.Fatalf("Failed to unmarshal error payload: %v", err)
	}
	if payload.Code != errs.ErrNothingToUndo {
		t.Errorf("Expected code %d, got %d", errs.ErrNothingToUndo, payload.Code)
	}

	// a sees nothing; the next room-wide event must be the first thing queued
	room.dispatch(b, TypeClearRequest, nil, false)
	expectReliable(t, a, TypeCanvasCleared)
}

func TestUndoRedoBroadcastToAll(t *testing.T) {
	room, _, _ := newTestRoom(t)

	a := newTestClient(room, "ua", "Alice")
	b := newTestClient(room, "ub", "Bob")
	join(t, room, a)
	joinSecond(t, room, a, b)

	room.dispatch(a, TypeStrokeEnd, strokePayload(t, canvas.Stroke{
		Tool:        canvas.ToolBrush,
		Color:       "#000000",
		StrokeWidth: 5,
		Points:      []canvas.Point{{X: 1, Y: 1}},
	}), false)
	expectReliable(t, a, TypeUndoRedoState)
	expectReliable(t, b, TypeStrokeEnd)
	expectReliable(t, b, TypeUndoRedoState)

	// undo requested by b applies to the shared timeline
	room.dispatch(b, TypeUndoRequest, nil, false)

	for _, c := range []*Client{a, b} {
		undoMsg := expectReliable(t, c, TypeUndoApplied)
		var undo UndoAppliedPayload
		if err := json.Unmarshal(undoMsg.Payload, &undo); err != nil {
			t.Fatalf("Failed to unmarshal undo payload: %v", err)
		}
		if len(undo.Strokes) != 0 {
			t.Errorf("Expected blank canvas after undo, got %d strokes", len(undo.Strokes))
		}
		if undo.CanUndo || !undo.CanRedo {
			t.Errorf("Expected canUndo=false canRedo=true, got %+v", undo)
		}
		if undo.UndoneBy != "Bob" {
			t.Errorf("Expected undoneBy=Bob, got %s", undo.UndoneBy)
		}
	}

	room.dispatch(a, TypeRedoRequest, nil, false)

	for _, c := range []*Client{a, b} {
		redoMsg := expectReliable(t, c, TypeRedoApplied)
		var redo RedoAppliedPayload
		if err := json.Unmarshal(redoMsg.Payload, &redo); err != nil {
			t.Fatalf("Failed to unmarshal redo payload: %v", err)
		}
		if len(redo.Strokes) != 1 {
			t.Errorf("Expected 1 stroke restored, got %d", len(redo.Strokes))
		}
		if redo.RedoneBy != "Alice" {
			t.Errorf("Expected redoneBy=Alice, got %s", redo.RedoneBy)
		}
	}
}

func TestClearIsIrreversible(t *testing.T) {
	room, _, _ := newTestRoom(t)

	a := newTestClient(room, "ua", "Alice")
	join(t, room, a)

	room.dispatch(a, TypeStrokeEnd, strokePayload(t, canvas.Stroke{
		Tool:        canvas.ToolBrush,
		Color:       "#000000",
		StrokeWidth: 5,
		Points:      []canvas.Point{{X: 1, Y: 1}},
	}), false)
	expectReliable(t, a, TypeUndoRedoState)

	room.dispatch(a, TypeClearRequest, nil, false)

	clearMsg := expectReliable(t, a, TypeCanvasCleared)
	var cleared CanvasClearedPayload
	if err := json.Unmarshal(clearMsg.Payload, &cleared); err != nil {
		t.Fatalf("Failed to unmarshal cleared payload: %v", err)
	}
	if cleared.ClearedBy != "Alice" {
		t.Errorf("Expected clearedBy=Alice, got %s", cleared.ClearedBy)
	}

	stateMsg := expectReliable(t, a, TypeUndoRedoState)
	var state UndoRedoStatePayload
	if err := json.Unmarshal(stateMsg.Payload, &state); err != nil {
		t.Fatalf("Failed to unmarshal state payload: %v", err)
	}
	if state.CanUndo || state.CanRedo {
		t.Errorf("Clear must disable undo and redo, got %+v", state)
	}

	room.dispatch(a, TypeUndoRequest, nil, false)
	errMsg := expectReliable(t, a, TypeError)
	var payload ErrorPayload
	if err := json.Unmarshal(errMsg.Payload, &payload); err != nil {
		t.Fatalf("Failed to unmarshal error payload: %v", err)
	}
	if payload.Code != errs.ErrNothingToUndo {
		t.Errorf("Undo after clear should fail with %d, got %d", errs.ErrNothingToUndo, payload.Code)
	}
}

func TestCursorRelayIsVolatile(t *testing.T) {
	room, _, _ := newTestRoom(t)

	a := newTestClient(room, "ua", "Alice")
	b := newTestClient(room, "ub", "Bob")
	join(t, room, a)
	joinSecond(t, room, a, b)

	raw, _ := json.Marshal(CursorMovePayload{X: 10, Y: 20})
	room.dispatch(a, TypeCursorMove, raw, true)

	cursorMsg := recvVolatile(t, b)
	if cursorMsg.Type != TypeCursorUpdate {
		t.Fatalf("Expected CURSOR_UPDATE, got %s", cursorMsg.Type)
	}
	var cursor CursorUpdatePayload
	if err := json.Unmarshal(cursorMsg.Payload, &cursor); err != nil {
		t.Fatalf("Failed to unmarshal cursor payload: %v", err)
	}
	if cursor.UserID != "ua" || cursor.X != 10 || cursor.Y != 20 {
		t.Errorf("Unexpected cursor relay: %+v", cursor)
	}

	// force a later room-wide event through, then the author queue must
	// still be empty; cursor updates are never echoed back
	room.dispatch(a, TypeClearRequest, nil, false)
	expectReliable(t, b, TypeCanvasCleared)
	if got := len(a.volatile); got != 0 {
		t.Errorf("Author should not receive its own cursor update, queue has %d", got)
	}
}

func TestLeaveBroadcastsMembership(t *testing.T) {
	room, registry, _ := newTestRoom(t)

	a := newTestClient(room, "ua", "Alice")
	b := newTestClient(room, "ub", "Bob")
	join(t, room, a)
	joinSecond(t, room, a, b)

	room.unregister <- a

	leftMsg := expectReliable(t, b, TypeUserLeft)
	var left UserEventPayload
	if err := json.Unmarshal(leftMsg.Payload, &left); err != nil {
		t.Fatalf("Failed to unmarshal user event payload: %v", err)
	}
	if left.User.ID != "ua" {
		t.Errorf("Expected USER_LEFT for ua, got %s", left.User.ID)
	}

	updateMsg := expectReliable(t, b, TypeUsersUpdate)
	var update UsersUpdatePayload
	if err := json.Unmarshal(updateMsg.Payload, &update); err != nil {
		t.Fatalf("Failed to unmarshal users update payload: %v", err)
	}
	if len(update.Users) != 1 || update.Users[0].ID != "ub" {
		t.Errorf("Expected remaining member ub, got %+v", update.Users)
	}

	if got := registry.UserCount("room1"); got != 1 {
		t.Errorf("Expected 1 member after leave, got %d", got)
	}
}

func TestLastLeaveDestroysRoom(t *testing.T) {
	room, registry, cleanup := newTestRoom(t)

	a := newTestClient(room, "ua", "Alice")
	join(t, room, a)

	room.dispatch(a, TypeStrokeEnd, strokePayload(t, canvas.Stroke{
		Tool:        canvas.ToolBrush,
		Color:       "#000000",
		StrokeWidth: 5,
		Points:      []canvas.Point{{X: 1, Y: 1}},
	}), false)
	expectReliable(t, a, TypeUndoRedoState)

	room.unregister <- a

	select {
	case msg := <-cleanup:
		if msg.RoomID != "room1" {
			t.Errorf("Expected cleanup for room1, got %s", msg.RoomID)
		}
	case <-time.After(recvTimeout):
		t.Fatal("Timed out waiting for room cleanup message")
	}

	if !room.Stopped() {
		t.Error("Room loop should have exited")
	}
	if got := registry.RoomCount(); got != 0 {
		t.Errorf("Empty room must be destroyed, got %d rooms", got)
	}

	// drawing state is gone with the room
	if got := len(registry.HistoryFor("room1").VisibleStrokes()); got != 0 {
		t.Errorf("Recreated room should start blank, got %d strokes", got)
	}
}

func TestRegisterAfterStopFails(t *testing.T) {
	room, _, cleanup := newTestRoom(t)

	room.Stop()

	select {
	case <-cleanup:
	case <-time.After(recvTimeout):
		t.Fatal("Timed out waiting for room cleanup message")
	}

	c := newTestClient(room, "ua", "Alice")
	if room.RegisterClient(c) {
		t.Error("RegisterClient should fail on a stopped room")
	}
}

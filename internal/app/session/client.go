/*
Package session contains the transport layer for collaborative drawing rooms.

This file defines the Client struct, representing one active WebSocket
connection. It manages the connection lifecycle, the read and write pumps, and
the split between the reliable and volatile outbound queues.
*/
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/CTTECH108/Collabrative-Canvas/internal/app/user"
	"github.com/CTTECH108/Collabrative-Canvas/internal/pkg/errs"
	"github.com/CTTECH108/Collabrative-Canvas/internal/pkg/logx"
)

const (
	// timeout duration for writing to the WebSocket connection.
	writeWait = 10 * time.Second

	// maximum time allowed for the server to wait for a Pong message from the client.
	pongWait = 60 * time.Second

	// frequency at which the server sends a Ping message.
	pingPeriod = (pongWait * 9) / 10

	// maximum allowed size (in bytes) of a message sent by the client.
	// Committed strokes carry their full point path, so the limit is generous.
	maxMessageSize = 1024 * 1024

	// reliable outbound queue capacity. Overflow disconnects the client; a
	// committed stroke must never be silently dropped.
	sendQueueSize = 256

	// volatile outbound queue capacity. Overflow drops the message; cursor
	// and in-progress updates are superseded by the next one anyway.
	volatileQueueSize = 64

	// inbound per-client rate limit (token bucket).
	inboundPerSecond = 100
	inboundBurst     = 200

	// inbound messages dropped over the limit before the client is disconnected.
	maxRateViolations = 1000

	// WsCloseCodeSessionReplaced is a custom WebSocket Close Code (4000-4999
	// range) signaling that the session was replaced by a newer connection
	// with the same user ID.
	WsCloseCodeSessionReplaced = 4001
)

// Client represents an active WebSocket connection and its associated user.
//
// Outbound traffic is split over two queues. The send queue is the reliable
// channel for commits, undo/redo results, membership and sync messages. The
// volatile queue is the unreliable channel for cursor positions and
// in-progress stroke points, where dropped messages are acceptable.
type Client struct {
	// the room the client currently belongs to.
	room *Room

	// underlying WebSocket connection object.
	conn *websocket.Conn

	// associated user record.
	user user.User

	// reliable outbound queue.
	send chan []byte

	// droppable outbound queue.
	volatile chan []byte

	// token bucket limiting inbound message rate.
	limiter *rate.Limiter

	// structured logger with client and room context.
	logger zerolog.Logger
}

// NewClient constructs and returns a new Client instance.
func NewClient(room *Room, wsConn *websocket.Conn, u user.User) *Client {
	clientLogger := logx.Logger().With().
		Str("client_id", u.ID).
		Str("room_id", room.ID).
		Logger()

	return &Client{
		room:     room,
		conn:     wsConn,
		user:     u,
		send:     make(chan []byte, sendQueueSize),
		volatile: make(chan []byte, volatileQueueSize),
		limiter:  rate.NewLimiter(inboundPerSecond, inboundBurst),
		logger:   clientLogger,
	}
}

// User returns the client's user record.
func (c *Client) User() user.User {
	return c.user
}

// ReadPump reads messages from the WebSocket connection and dispatches them
// to the room's event loop. It handles heartbeats (Pong), per-client rate
// limiting, and cleanup upon connection closure.
func (c *Client) ReadPump() {
	defer c.cleanupOnDisconnect()

	c.conn.SetReadLimit(maxMessageSize)

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set read deadline")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	rateViolations := 0

	for {
		_, messageBytes, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Info().Err(err).Msg("Error reading message (client close/going away)")
			}
			break
		}

		if !c.limiter.Allow() {
			rateViolations++
			if rateViolations%100 == 1 {
				c.logger.Warn().
					Int("violations", rateViolations).
					Msg("Client exceeded inbound rate limit, dropping message.")
			}
			if rateViolations > maxRateViolations {
				c.logger.Warn().Msg("Disconnecting client for excessive rate limit violations.")
				c.SendError(errs.NewError(errs.ErrRateLimitExceeded))
				return
			}
			continue
		}

		c.processInboundMessage(messageBytes)
	}
}

// cleanupOnDisconnect handles the necessary cleanup steps when the client's ReadPump terminates.
func (c *Client) cleanupOnDisconnect() {
	c.logger.Info().Msg("Client connection cleanup starting.")

	// notify the room to unregister the client
	select {
	case c.room.unregister <- c:
	case <-c.room.done:
	}

	// close the connection
	if err := c.conn.Close(); err != nil && !errors.Is(err, websocket.ErrCloseSent) {
		c.logger.Error().Err(err).Msg("Client connection close error")
	}
}

// processInboundMessage parses the envelope and hands the event to the room.
func (c *Client) processInboundMessage(messageBytes []byte) {
	var inboundMsg struct {
		Type    MessageType     `json:"type"`
		Payload json.RawMessage `json:"payload,omitempty"`
	}

	if err := json.Unmarshal(messageBytes, &inboundMsg); err != nil {
		c.logger.Warn().Err(err).Msg("Client sent invalid JSON")
		c.SendError(errs.NewError(errs.ErrInvalidJSONFormat))
		return
	}

	switch inboundMsg.Type {
	case TypeStrokeEnd, TypeUndoRequest, TypeRedoRequest, TypeClearRequest, TypeStrokeStart:
		c.room.dispatch(c, inboundMsg.Type, inboundMsg.Payload, false)

	case TypeStrokeMove, TypeCursorMove:
		// high-frequency events ride the droppable path end to end
		c.room.dispatch(c, inboundMsg.Type, inboundMsg.Payload, true)

	default:
		c.logger.Warn().Str("msg_type", string(inboundMsg.Type)).Msg("Client sent unsupported message type")
		c.SendError(errs.NewError(errs.ErrInvalidParams))
	}
}

// WritePump writes queued messages to the WebSocket connection. Messages on
// the reliable queue take priority over volatile ones; a ping is sent every
// pingPeriod to keep the connection alive.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()

		if err := c.conn.Close(); err != nil && !errors.Is(err, websocket.ErrCloseSent) {
			c.logger.Error().Err(err).Msg("Client connection close error in WritePump")
		}
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !c.writeQueuedMessage(message, ok) {
				return
			}

		case message := <-c.volatile:
			if !c.writeQueuedMessage(message, true) {
				return
			}

		case <-ticker.C:
			if !c.writePingMessage() {
				return
			}
		}
	}
}

// writeQueuedMessage writes one queued message to the WebSocket.
// Returns true if the WritePump loop should continue, false if it should terminate.
func (c *Client) writeQueuedMessage(message []byte, ok bool) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline")
		return false
	}

	if !ok {
		if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil && !errors.Is(err, websocket.ErrCloseSent) {
			c.logger.Error().Err(err).Msg("Error writing close message")
		}
		return false
	}

	if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
		c.logger.Error().Err(err).Msg("Error writing message")
		return false
	}

	return true
}

// writePingMessage sends a periodic WebSocket Ping message to maintain the connection heartbeat.
// Returns false if the WritePump loop should terminate due to write failure.
func (c *Client) writePingMessage() bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline on ping")
		return false
	}

	if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
		c.logger.Error().Err(err).Msg("Error writing ping")
		return false
	}

	return true
}

// queueReliable enqueues bytes on the reliable channel. A full queue means
// the client cannot keep up with committed state; it reports failure so the
// room can disconnect the client, which will resync on rejoin.
func (c *Client) queueReliable(messageBytes []byte) error {
	select {
	case c.send <- messageBytes:
		return nil
	default:
		c.logger.Warn().Int("queue_len", len(c.send)).Msg("Client reliable queue full.")
		return fmt.Errorf("client send queue full")
	}
}

// queueVolatile enqueues bytes on the droppable channel. A full queue drops
// the message silently; the next update supersedes it.
func (c *Client) queueVolatile(messageBytes []byte) {
	select {
	case c.volatile <- messageBytes:
	default:
	}
}

// sendMessage marshals the message and queues it on the reliable channel.
func (c *Client) sendMessage(msg Message) error {
	messageBytes, err := json.Marshal(msg)
	if err != nil {
		c.logger.Error().Err(err).Msg("Error marshaling message for client")
		return err
	}

	return c.queueReliable(messageBytes)
}

// SendError constructs and sends a TypeError message to this client only.
// Expected conditions such as NothingToUndo take this path and are never
// broadcast.
func (c *Client) SendError(err error) {
	var code int
	var message string

	var customErr *errs.CustomError
	if errors.As(err, &customErr) {
		code = customErr.Code
		message = customErr.Message
	} else {
		code = errs.ErrUnknown
		message = fmt.Sprintf("Internal server error: %v", err)
	}

	errorMsg, msgErr := NewMessage(TypeError, c.room.ID, SystemUser, ErrorPayload{
		Code:    code,
		Message: message,
	})

	if msgErr != nil {
		c.logger.Error().Err(msgErr).Msg("Failed to build error message in SendError")
		return
	}

	if err := c.sendMessage(errorMsg); err != nil {
		c.logger.Error().Err(err).Msg("Failed to queue error message")
	}
}

// Kick gracefully closes the client's connection with a custom WebSocket
// Close Frame (code 4001) indicating that the session was replaced.
func (c *Client) Kick(reason string) {
	c.logger.Warn().
		Int("close_code", WsCloseCodeSessionReplaced).
		Str("reason", reason).
		Msg("Sending WS Kick message and closing connection.")

	closeMessage := websocket.FormatCloseMessage(WsCloseCodeSessionReplaced, reason)

	// WriteControl is safe to call concurrently with the WritePump.
	err := c.conn.WriteControl(websocket.CloseMessage, closeMessage, time.Now().Add(writeWait))
	if err != nil && !errors.Is(err, websocket.ErrCloseSent) {
		c.logger.Warn().Err(err).Msg("Failed to send WS 4001 Close Message.")
	}
}

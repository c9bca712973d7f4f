/*
Package handler provides the HTTP handler function for WebSocket connection upgrading and initialization.

This file contains the HandleWebSocket function, which is responsible for rate limiting,
validating the room parameter, assigning the connection its user identity, upgrading the
HTTP connection to WebSocket, and initiating the client lifecycle.
*/
package handler

import (
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/CTTECH108/Collabrative-Canvas/internal/app/user"
	"github.com/CTTECH108/Collabrative-Canvas/internal/pkg/errs"
	"github.com/CTTECH108/Collabrative-Canvas/internal/pkg/limiter"
	"github.com/CTTECH108/Collabrative-Canvas/internal/pkg/logx"
	"github.com/CTTECH108/Collabrative-Canvas/internal/pkg/randx"
	"github.com/CTTECH108/Collabrative-Canvas/internal/pkg/resp"
)

// HandleWebSocket creates an HTTP HandlerFunc to process WebSocket connection requests.
//
// Connecting to /ws/{room} is the join: the room is created lazily on first
// join, and the server assigns the connection a generated identity (ID, display
// name and palette color). An optional "uid" query parameter lets a client
// reclaim its identity after a reconnect; the previous connection with that ID
// is replaced.
func HandleWebSocket(upgrader websocket.Upgrader, rateLimiter *limiter.IPRateLimiter, deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}

		if ip == "" {
			ip = "unknown_ip"
		}

		if !rateLimiter.GetLimiter(ip).Allow() {
			logx.Warn("WebSocket connection rejected: Rate limit exceeded.", "ip", ip)
			resp.RespondError(w, r, errs.NewError(errs.ErrRateLimitExceeded))
			return
		}

		roomID := chi.URLParam(r, "room")
		if !randx.IsValidRoomID(roomID) {
			logx.Warn("WebSocket request rejected: Invalid room ID", "room_id", roomID)
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		userID := r.URL.Query().Get("uid")
		if userID == "" {
			userID = randx.UserID()
		} else if !randx.IsValidUserID(userID) {
			logx.Warn("WebSocket request rejected: Malformed uid query parameter", "room_id", roomID)
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		currentUser := user.User{
			ID:       userID,
			Name:     randx.UserName(),
			Color:    randx.UserColor(),
			JoinedAt: time.Now().UnixMilli(),
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error(err, "Failed to upgrade connection to WebSocket")
			return
		}

		client := deps.Coordinator.Attach(roomID, conn, currentUser)

		logx.Info("WebSocket connection established and client registered",
			"client_id", currentUser.ID, "room_id", roomID)

		go client.WritePump()

		client.ReadPump()
	}
}

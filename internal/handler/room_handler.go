/*
Package handler provides HTTP handler functions for the observability API:
health checks and read-only room state summaries.

These endpoints never create or mutate room state; an unknown room reads as a
fresh empty room rather than an error.
*/
package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/CTTECH108/Collabrative-Canvas/internal/app/canvas"
	"github.com/CTTECH108/Collabrative-Canvas/internal/pkg/resp"
)

// HandleHealth reports server liveness plus room and user counts.
func HandleHealth(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := map[string]any{
			"status":        "ok",
			"uptimeSeconds": int64(time.Since(deps.StartedAt).Seconds()),
			"rooms":         deps.Registry.RoomCount(),
			"users":         deps.Registry.TotalUserCount(),
		}
		resp.RespondSuccess(w, r, data)
	}
}

// HandleListRooms returns the info of every live room, sorted by room ID.
func HandleListRooms(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ids := deps.Registry.RoomIDs()

		rooms := make([]canvas.RoomInfo, 0, len(ids))
		for _, id := range ids {
			rooms = append(rooms, deps.Registry.Info(id))
		}

		resp.RespondSuccess(w, r, map[string]any{
			"rooms": rooms,
		})
	}
}

// HandleRoomInfo returns one room's membership and history summary.
// Unknown rooms respond with empty defaults, equivalent to a fresh room.
func HandleRoomInfo(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roomID := chi.URLParam(r, "id")

		resp.RespondSuccess(w, r, deps.Registry.Info(roomID))
	}
}

// Package handler holds the HTTP handlers for pages, HTMX partials and the
// JSON API.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/dukerupert/barhop/internal/model"
	ws "github.com/dukerupert/barhop/internal/websocket"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// announce tells pages watching the activity that a check-in was recorded.
func announce(hub *ws.Hub, c *model.Checkin) {
	if hub == nil {
		return
	}
	hub.Broadcast(ws.NewMessage("checkin", "created", c.ActivityID, c.ID, map[string]any{
		"location_id": c.LocationID,
	}))
}

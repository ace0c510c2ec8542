package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/barhop/internal/checkin"
	"github.com/dukerupert/barhop/internal/metrics"
	"github.com/dukerupert/barhop/internal/store"
	ws "github.com/dukerupert/barhop/internal/websocket"
)

type CheckinHandler struct {
	store    *store.CheckinStore
	verifier *checkin.Verifier
	hub      *ws.Hub
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

func NewCheckinHandler(s *store.CheckinStore, v *checkin.Verifier, hub *ws.Hub, m *metrics.Metrics, logger *slog.Logger) *CheckinHandler {
	return &CheckinHandler{store: s, verifier: v, hub: hub, metrics: m, logger: logger}
}

// requestDevice returns the device_id query parameter if present, else the
// id resolved from the device cookie. Only reads may name another device.
func requestDevice(r *http.Request) string {
	if id := strings.TrimSpace(r.URL.Query().Get("device_id")); id != "" {
		return id
	}
	return deviceID(r)
}

func (h *CheckinHandler) List(w http.ResponseWriter, r *http.Request) {
	dev := requestDevice(r)
	if dev == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "device id required"})
		return
	}

	checkins, err := h.store.ListByActivityAndDevice(r.Context(), r.PathValue("id"), dev)
	if err != nil {
		h.logger.Error("list checkins", "activity_id", r.PathValue("id"), "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list checkins"})
		return
	}
	writeJSON(w, http.StatusOK, checkins)
}

func (h *CheckinHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		LocationID string `json:"location_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	req.LocationID = strings.TrimSpace(req.LocationID)
	if req.LocationID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "location_id is required"})
		return
	}

	activityID := r.PathValue("id")
	c, _, err := h.verifier.Record(r.Context(), activityID, req.LocationID, deviceID(r))
	h.metrics.TrackCheckin(checkin.Outcome(err))
	if err != nil {
		status := http.StatusConflict
		switch {
		case errors.Is(err, checkin.ErrActivityNotFound):
			status = http.StatusNotFound
		case errors.Is(err, checkin.ErrNoDevice):
			status = http.StatusBadRequest
		case !checkin.IsRejection(err):
			h.logger.Error("record checkin", "activity_id", activityID, "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to record checkin"})
			return
		}
		writeJSON(w, status, map[string]string{
			"error":  err.Error(),
			"reason": checkin.Reason(err),
		})
		return
	}

	announce(h.hub, c)
	writeJSON(w, http.StatusCreated, c)
}

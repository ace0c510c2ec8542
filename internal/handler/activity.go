package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/barhop/internal/model"
	"github.com/dukerupert/barhop/internal/store"
)

type ActivityHandler struct {
	store  *store.ActivityStore
	logger *slog.Logger
}

func NewActivityHandler(s *store.ActivityStore, logger *slog.Logger) *ActivityHandler {
	return &ActivityHandler{store: s, logger: logger}
}

func (h *ActivityHandler) List(w http.ResponseWriter, r *http.Request) {
	activities, err := h.store.List(r.Context())
	if err != nil {
		h.logger.Error("list activities", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list activities"})
		return
	}
	if activities == nil {
		activities = []model.Activity{}
	}
	writeJSON(w, http.StatusOK, activities)
}

func (h *ActivityHandler) Get(w http.ResponseWriter, r *http.Request) {
	a, err := h.store.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		h.logger.Error("get activity", "id", r.PathValue("id"), "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get activity"})
		return
	}
	if a == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "activity not found"})
		return
	}
	writeJSON(w, http.StatusOK, a)
}

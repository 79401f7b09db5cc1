package api

import (
	"encoding/json"
	"net/http"

	"parkit/internal/entities"
	"parkit/internal/service"
)

type AdminHandler struct {
	Admin        *service.AdminService
	Reservations *service.ReservationService
}

func NewAdminHandler(admin *service.AdminService, reservations *service.ReservationService) *AdminHandler {
	return &AdminHandler{Admin: admin, Reservations: reservations}
}

func (h *AdminHandler) CreateSlot(w http.ResponseWriter, r *http.Request) {
	var req entities.CreateSlotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	slot, err := h.Admin.CreateSlot(r.Context(), &req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, slot)
}

func (h *AdminHandler) ListSlots(w http.ResponseWriter, r *http.Request) {
	slots, err := h.Admin.ListSlots(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"slots": slots})
}

func (h *AdminHandler) ListReservations(w http.ResponseWriter, r *http.Request) {
	list, err := h.Reservations.ListAll(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reservations": list})
}

func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Admin.Stats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *AdminHandler) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	var req entities.FeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	fb, err := h.Admin.SubmitFeedback(r.Context(), &req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, fb)
}

func (h *AdminHandler) ListFeedback(w http.ResponseWriter, r *http.Request) {
	list, err := h.Admin.ListFeedback(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"feedback": list})
}

package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"parkit/internal/auth"
	"parkit/internal/entities"
	"parkit/internal/service"
)

// UserReservationHandler serves the reservation routes available to a
// logged-in driver.
type UserReservationHandler struct {
	Reservations *service.ReservationService
	Lifecycle    *service.LifecycleService
}

func NewUserReservationHandler(reservations *service.ReservationService, lifecycle *service.LifecycleService) *UserReservationHandler {
	return &UserReservationHandler{Reservations: reservations, Lifecycle: lifecycle}
}

func (h *UserReservationHandler) CreateReservation(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	var req struct {
		VehiclePlate string    `json:"vehicle_plate"`
		SlotNumber   string    `json:"slot_number"`
		StartTime    time.Time `json:"start_time"`
		EndTime      time.Time `json:"end_time"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	res, err := h.Reservations.Reserve(r.Context(), &entities.ReservationRequest{
		UserID:       claims.ID,
		VehiclePlate: req.VehiclePlate,
		SlotNumber:   req.SlotNumber,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *UserReservationHandler) GetReservation(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	code := mux.Vars(r)["code"]
	res, err := h.Reservations.GetByCode(r.Context(), code)
	if err != nil {
		writeError(w, err)
		return
	}
	if claims.Role == "user" && res.UserID != claims.ID {
		http.Error(w, "Reservation not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *UserReservationHandler) ListReservations(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	list, err := h.Reservations.ListForUser(r.Context(), claims.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reservations": list})
}

func (h *UserReservationHandler) CancelReservation(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	actorID := claims.ID
	if claims.Role != "user" {
		actorID = 0 // staff may cancel anyone's reservation
	}
	res, err := h.Reservations.Cancel(r.Context(), mux.Vars(r)["code"], actorID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// CheckIn is used both by drivers and by security staff at the gate.
func (h *UserReservationHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	if !h.authorizeLifecycle(w, r, code) {
		return
	}
	res, err := h.Lifecycle.CheckIn(r.Context(), code)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *UserReservationHandler) CheckOut(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	if !h.authorizeLifecycle(w, r, code) {
		return
	}
	result, err := h.Lifecycle.CheckOut(r.Context(), code)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// authorizeLifecycle lets staff act on any reservation and drivers only on
// their own. Writes the response itself when it returns false.
func (h *UserReservationHandler) authorizeLifecycle(w http.ResponseWriter, r *http.Request, code string) bool {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return false
	}
	if claims.Role != "user" {
		return true
	}
	res, err := h.Reservations.GetByCode(r.Context(), code)
	if err != nil {
		writeError(w, err)
		return false
	}
	if res.UserID != claims.ID {
		http.Error(w, "Reservation not found", http.StatusNotFound)
		return false
	}
	return true
}

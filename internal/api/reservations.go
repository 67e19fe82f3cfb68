package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/antoniwrobel/sprzet/internal/model"
	"github.com/antoniwrobel/sprzet/internal/store"
)

// ReservationsHandler handles reservation lifecycle endpoints.
type ReservationsHandler struct {
	DB *sql.DB
}

type createReservationRequest struct {
	StartDate   time.Time         `json:"start_date"`
	EndDate     time.Time         `json:"end_date"`
	ProjectName string            `json:"project_name"`
	ProjectID   string            `json:"project_id"`
	Items       map[int64][]int64 `json:"items"` // parent id -> item ids
}

// Create handles POST /api/reservations.
func (h *ReservationsHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req createReservationRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	reservation, err := store.CreateReservation(r.Context(), h.DB, claims.UserID,
		req.StartDate, req.EndDate, req.ProjectName, req.ProjectID, req.Items)
	if err != nil {
		storeError(w, err)
		return
	}

	slog.Info("reservation created", "reservation_id", reservation.ID, "user", claims.Email)
	jsonResponse(w, http.StatusCreated, reservation)
}

// List handles GET /api/reservations (caller's own reservations).
func (h *ReservationsHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	reservations, err := store.ListReservationsForUser(r.Context(), h.DB, claims.UserID)
	if err != nil {
		storeError(w, err)
		return
	}
	if reservations == nil {
		reservations = []model.Reservation{}
	}
	jsonResponse(w, http.StatusOK, reservations)
}

// ListAll handles GET /api/reservations/all (admin view).
func (h *ReservationsHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	reservations, err := store.ListAllReservations(r.Context(), h.DB)
	if err != nil {
		storeError(w, err)
		return
	}
	if reservations == nil {
		reservations = []model.Reservation{}
	}
	jsonResponse(w, http.StatusOK, reservations)
}

// Get handles GET /api/reservations/{id}; owners see their own, admins
// see everything.
func (h *ReservationsHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid reservation id")
		return
	}

	detail, err := store.GetReservationDetail(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err)
		return
	}
	if detail.Reservation.UserID != claims.UserID && !claims.IsAdmin {
		jsonError(w, http.StatusForbidden, "not your reservation")
		return
	}

	jsonResponse(w, http.StatusOK, detail)
}

// Confirm handles POST /api/reservations/{id}/confirm.
func (h *ReservationsHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid reservation id")
		return
	}

	if err := store.ConfirmReservation(r.Context(), h.DB, id, claims.UserID); err != nil {
		storeError(w, err)
		return
	}

	slog.Info("reservation confirmed", "reservation_id", id, "admin", claims.Email)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "reservation confirmed"})
}

// Return handles POST /api/reservations/{id}/return.
func (h *ReservationsHandler) Return(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid reservation id")
		return
	}

	if err := store.ReturnReservation(r.Context(), h.DB, id); err != nil {
		storeError(w, err)
		return
	}

	slog.Info("reservation returned", "reservation_id", id)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "reservation returned"})
}

// Reject handles POST /api/reservations/{id}/reject.
func (h *ReservationsHandler) Reject(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid reservation id")
		return
	}

	if err := store.RejectReservation(r.Context(), h.DB, id); err != nil {
		storeError(w, err)
		return
	}

	slog.Info("reservation rejected", "reservation_id", id)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "reservation rejected"})
}

// Delete handles DELETE /api/reservations/{id} (owner cancellation).
func (h *ReservationsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid reservation id")
		return
	}

	if err := store.CancelReservation(r.Context(), h.DB, id, claims.UserID); err != nil {
		storeError(w, err)
		return
	}

	slog.Info("reservation cancelled", "reservation_id", id, "user", claims.Email)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "reservation cancelled"})
}

package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/diagnosis/luxsuv-hotel/internal/http/response"
	"github.com/diagnosis/luxsuv-hotel/internal/utils"
	"github.com/diagnosis/luxsuv-hotel/services/reservations/internal/domain"
)

// CreateReservation drafts a pending reservation. Clients retrying after a
// network failure should send an Idempotency-Key.
func (h *Handlers) CreateReservation(w http.ResponseWriter, r *http.Request) {
	var req CreateReservationRequest
	if err := decodeJSON(r, &req); err != nil {
		response.BadRequest(w, "Invalid JSON")
		return
	}

	guestID := utils.NormalizeString(req.GuestID)
	if guestID == "" || req.RoomNumber <= 0 {
		response.BadRequest(w, "guest_id and room_number are required")
		return
	}
	checkIn, err := domain.ParseDate(req.CheckIn)
	if err != nil {
		response.BadRequest(w, err.Error())
		return
	}
	checkOut, err := domain.ParseDate(req.CheckOut)
	if err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	res, err := h.hotel.CreateReservation(r.Context(), guestID, req.RoomNumber, checkIn, checkOut)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.WriteJSON(w, http.StatusCreated, toReservationDTO(res))
}

// ListReservations is the audit view: every reservation, optionally filtered
// by ?status=.
func (h *Handlers) ListReservations(w http.ResponseWriter, r *http.Request) {
	seq := h.hotel.Reservations(r.Context())
	if s := r.URL.Query().Get("status"); s != "" {
		status, ok := domain.ParseStatus(s)
		if !ok {
			response.BadRequest(w, "Invalid status parameter")
			return
		}
		seq = h.hotel.ReservationsByStatus(r.Context(), status)
	}

	out := []ReservationDTO{}
	for res := range seq {
		out = append(out, toReservationDTO(res))
	}
	response.WriteJSON(w, http.StatusOK, map[string]any{"reservations": out})
}

func (h *Handlers) GetReservation(w http.ResponseWriter, r *http.Request) {
	id, ok := parseReservationID(r)
	if !ok {
		response.BadRequest(w, "Invalid reservation ID")
		return
	}

	res, err := h.hotel.GetReservation(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, toReservationDTO(res))
}

func (h *Handlers) ConfirmReservation(w http.ResponseWriter, r *http.Request) {
	id, ok := parseReservationID(r)
	if !ok {
		response.BadRequest(w, "Invalid reservation ID")
		return
	}

	res, err := h.hotel.ConfirmReservation(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, toReservationDTO(res))
}

// CancelReservation accepts an optional {"reason": "..."} body.
func (h *Handlers) CancelReservation(w http.ResponseWriter, r *http.Request) {
	id, ok := parseReservationID(r)
	if !ok {
		response.BadRequest(w, "Invalid reservation ID")
		return
	}

	var req CancelReservationRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		response.BadRequest(w, "Invalid JSON")
		return
	}
	reason := utils.NormalizeString(req.Reason)
	if reason == "" {
		reason = domain.ReasonGuestRequest
	}

	res, err := h.hotel.CancelReservation(r.Context(), id, reason)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, toReservationDTO(res))
}

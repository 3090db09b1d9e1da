package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/diagnosis/luxsuv-hotel/internal/http/response"
	"github.com/diagnosis/luxsuv-hotel/services/reservations/internal/domain"
)

func (h *Handlers) CreateGuest(w http.ResponseWriter, r *http.Request) {
	var req CreateGuestRequest
	if err := decodeJSON(r, &req); err != nil {
		response.BadRequest(w, "Invalid JSON")
		return
	}

	guest, err := h.hotel.RegisterGuest(r.Context(), domain.Guest{ID: req.ID, Name: req.Name, Email: req.Email})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.WriteJSON(w, http.StatusCreated, guest)
}

func (h *Handlers) GetGuest(w http.ResponseWriter, r *http.Request) {
	guest, err := h.hotel.GetGuest(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, guest)
}

// ListGuestReservations returns the guest's confirmed stays by check-in date.
func (h *Handlers) ListGuestReservations(w http.ResponseWriter, r *http.Request) {
	seq, err := h.hotel.GuestReservations(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := []ReservationDTO{}
	for res := range seq {
		out = append(out, toReservationDTO(res))
	}
	response.WriteJSON(w, http.StatusOK, map[string]any{"reservations": out})
}

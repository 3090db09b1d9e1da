package handlers

import (
	"net/http"
	"time"

	"github.com/diagnosis/luxsuv-hotel/internal/http/response"
	"github.com/diagnosis/luxsuv-hotel/services/reservations/internal/domain"
)

func (h *Handlers) ListRooms(w http.ResponseWriter, r *http.Request) {
	rooms := []domain.Room{}
	for room := range h.hotel.Rooms(r.Context()) {
		rooms = append(rooms, room)
	}
	response.WriteJSON(w, http.StatusOK, map[string]any{"rooms": rooms})
}

// AvailableRooms answers either ?check_in&check_out or ?date (one night).
// With no parameters it reports tonight.
func (h *Handlers) AvailableRooms(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var (
		rooms []domain.Room
		err   error
	)
	switch {
	case q.Get("check_in") != "" || q.Get("check_out") != "":
		checkIn, checkOut, perr := parseStay(r)
		if perr != nil {
			response.BadRequest(w, perr.Error())
			return
		}
		rooms, err = h.hotel.AvailableRooms(r.Context(), checkIn, checkOut)
	default:
		var day time.Time
		if s := q.Get("date"); s != "" {
			d, perr := domain.ParseDate(s)
			if perr != nil {
				response.BadRequest(w, perr.Error())
				return
			}
			day = d
		}
		rooms, err = h.hotel.AvailableRoomsOn(r.Context(), day)
	}
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if rooms == nil {
		rooms = []domain.Room{}
	}
	response.WriteJSON(w, http.StatusOK, map[string]any{"rooms": rooms})
}

func (h *Handlers) GetRoom(w http.ResponseWriter, r *http.Request) {
	number, ok := parseRoomNumber(r)
	if !ok {
		response.BadRequest(w, "Invalid room number")
		return
	}

	room, err := h.hotel.GetRoom(r.Context(), number)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, room)
}

func (h *Handlers) RoomAvailability(w http.ResponseWriter, r *http.Request) {
	number, ok := parseRoomNumber(r)
	if !ok {
		response.BadRequest(w, "Invalid room number")
		return
	}
	checkIn, checkOut, err := parseStay(r)
	if err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	available, err := h.hotel.CheckAvailability(r.Context(), number, checkIn, checkOut)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, AvailabilityResponse{
		RoomNumber: number,
		CheckIn:    checkIn.Format(domain.DateLayout),
		CheckOut:   checkOut.Format(domain.DateLayout),
		Available:  available,
	})
}

func (h *Handlers) CreateRoom(w http.ResponseWriter, r *http.Request) {
	var req CreateRoomRequest
	if err := decodeJSON(r, &req); err != nil {
		response.BadRequest(w, "Invalid JSON")
		return
	}

	room, err := domain.NewRoom(req.Number, domain.RoomType(req.Type), req.NightlyPriceCents)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := h.hotel.AddRoom(r.Context(), room); err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.WriteJSON(w, http.StatusCreated, room)
}

func (h *Handlers) DeleteRoom(w http.ResponseWriter, r *http.Request) {
	number, ok := parseRoomNumber(r)
	if !ok {
		response.BadRequest(w, "Invalid room number")
		return
	}

	if err := h.hotel.RemoveRoom(r.Context(), number); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

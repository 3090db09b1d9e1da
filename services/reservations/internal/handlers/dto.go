package handlers

import (
	"time"

	"github.com/diagnosis/luxsuv-hotel/services/reservations/internal/domain"
)

type ReservationDTO struct {
	ID           int64      `json:"id"`
	RoomNumber   int        `json:"room_number"`
	GuestID      string     `json:"guest_id"`
	CheckIn      string     `json:"check_in"`
	CheckOut     string     `json:"check_out"`
	Nights       int        `json:"nights"`
	TotalCents   int64      `json:"total_cents"`
	Status       string     `json:"status"`
	CancelReason string     `json:"cancel_reason,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	ConfirmedAt  *time.Time `json:"confirmed_at,omitempty"`
	CancelledAt  *time.Time `json:"cancelled_at,omitempty"`
}

func toReservationDTO(r domain.Reservation) ReservationDTO {
	return ReservationDTO{
		ID:           r.ID,
		RoomNumber:   r.RoomNumber,
		GuestID:      r.GuestID,
		CheckIn:      r.CheckIn().Format(domain.DateLayout),
		CheckOut:     r.CheckOut().Format(domain.DateLayout),
		Nights:       r.Nights(),
		TotalCents:   r.TotalCents,
		Status:       string(r.Status),
		CancelReason: r.CancelReason,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
		ConfirmedAt:  r.ConfirmedAt,
		CancelledAt:  r.CancelledAt,
	}
}

type CreateRoomRequest struct {
	Number            int    `json:"number"`
	Type              string `json:"type"`
	NightlyPriceCents int64  `json:"nightly_price_cents"`
}

type CreateGuestRequest struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type CreateReservationRequest struct {
	GuestID    string `json:"guest_id"`
	RoomNumber int    `json:"room_number"`
	CheckIn    string `json:"check_in"`
	CheckOut   string `json:"check_out"`
}

type CancelReservationRequest struct {
	Reason string `json:"reason"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type AvailabilityResponse struct {
	RoomNumber int    `json:"room_number"`
	CheckIn    string `json:"check_in"`
	CheckOut   string `json:"check_out"`
	Available  bool   `json:"available"`
}

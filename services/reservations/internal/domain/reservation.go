package domain

import (
	"fmt"
	"time"

	"github.com/diagnosis/luxsuv-hotel/internal/utils"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusPending, StatusConfirmed, StatusCancelled:
		return Status(s), true
	default:
		return "", false
	}
}

// Active reports whether reservations in this status hold a place in the
// room's interval index.
func (s Status) Active() bool {
	return s == StatusPending || s == StatusConfirmed
}

// CanTransition encodes the reservation lifecycle:
//
//	pending -> confirmed -> cancelled
//	pending -> cancelled
//
// Cancelled is terminal.
func CanTransition(from, to Status) bool {
	switch from {
	case StatusPending:
		return to == StatusConfirmed || to == StatusCancelled
	case StatusConfirmed:
		return to == StatusCancelled
	default:
		return false
	}
}

// Cancellation reasons recorded by the system itself.
const (
	ReasonRoomRemoved  = "room_removed"
	ReasonGuestRequest = "guest_request"
)

type Reservation struct {
	ID           int64      `json:"id"`
	RoomNumber   int        `json:"room_number"`
	GuestID      string     `json:"guest_id"`
	Stay         DateRange  `json:"-"`
	TotalCents   int64      `json:"total_cents"`
	Status       Status     `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	ConfirmedAt  *time.Time `json:"confirmed_at,omitempty"`
	CancelledAt  *time.Time `json:"cancelled_at,omitempty"`
	CancelReason string     `json:"cancel_reason,omitempty"`
}

// NewReservation drafts a pending reservation for room and prices it.
func NewReservation(id int64, room Room, guestID string, checkIn, checkOut, now time.Time) (Reservation, error) {
	stay, err := NewDateRange(checkIn, checkOut)
	if err != nil {
		return Reservation{}, err
	}
	now = now.UTC()
	return Reservation{
		ID:         id,
		RoomNumber: room.Number,
		GuestID:    guestID,
		Stay:       stay,
		TotalCents: room.PriceFor(stay),
		Status:     StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

func (r Reservation) CheckIn() time.Time  { return r.Stay.CheckIn }
func (r Reservation) CheckOut() time.Time { return r.Stay.CheckOut }
func (r Reservation) Nights() int         { return r.Stay.Nights() }

// Transition moves the reservation to status, stamping the matching
// timestamp. It does not touch any index.
func (r *Reservation) Transition(to Status, now time.Time, reason string) error {
	if r.Status == StatusCancelled {
		return ErrAlreadyCancelled
	}
	if !CanTransition(r.Status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, r.Status, to)
	}
	now = now.UTC()
	r.Status = to
	r.UpdatedAt = now
	switch to {
	case StatusConfirmed:
		r.ConfirmedAt = &now
	case StatusCancelled:
		r.CancelledAt = &now
		r.CancelReason = reason
	}
	return nil
}

// Clone returns a copy that shares no pointers with r.
func (r Reservation) Clone() Reservation {
	c := r
	if r.ConfirmedAt != nil {
		t := *r.ConfirmedAt
		c.ConfirmedAt = &t
	}
	if r.CancelledAt != nil {
		t := *r.CancelledAt
		c.CancelledAt = &t
	}
	return c
}

func (r Reservation) String() string {
	return fmt.Sprintf("Reservation #%d: room %d, %s, %d nights, %s [%s]",
		r.ID, r.RoomNumber, r.Stay, r.Nights(), utils.FormatCents(r.TotalCents), r.Status)
}

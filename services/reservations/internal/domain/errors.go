package domain

import "errors"

var (
	ErrInvalidDateRange    = errors.New("check-out date must be after check-in date")
	ErrRoomNotFound        = errors.New("room not found")
	ErrGuestNotFound       = errors.New("guest not found")
	ErrReservationNotFound = errors.New("reservation not found")
	ErrEmployeeNotFound    = errors.New("employee not found")
	ErrDuplicateRoom       = errors.New("room already exists")
	ErrDuplicateGuest      = errors.New("guest already exists")
	ErrRoomInUse           = errors.New("room has active future reservations")
	ErrRoomUnavailable     = errors.New("room is not available for the selected dates")
	ErrAlreadyCancelled    = errors.New("reservation already cancelled")
	ErrInvalidTransition   = errors.New("invalid reservation status transition")
	ErrInvalidRoom         = errors.New("invalid room")
	ErrInvalidGuest        = errors.New("invalid guest")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrForbidden           = errors.New("permission denied")

	// ErrInvariant marks internal inconsistencies. Operations returning it
	// have been rolled back and must not be retried blindly.
	ErrInvariant = errors.New("internal invariant violated")
)

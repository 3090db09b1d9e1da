package repository

import (
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/diagnosis/luxsuv-hotel/services/reservations/internal/domain"
)

// GuestDirectory holds guest identities and each guest's confirmed
// reservation history.
type GuestDirectory interface {
	Register(guest domain.Guest) (domain.Guest, error)
	Get(id string) (domain.Guest, error)
	RecordReservation(guestID string, reservationID int64) error
	ReservationIDs(guestID string) ([]int64, error)
}

type guestEntry struct {
	guest   domain.Guest
	history []int64
}

type guestDirectory struct {
	mu     sync.RWMutex
	guests map[string]*guestEntry
}

func NewGuestDirectory() GuestDirectory {
	return &guestDirectory{guests: make(map[string]*guestEntry)}
}

// Register stores guest, assigning a random id when none is set.
func (d *guestDirectory) Register(guest domain.Guest) (domain.Guest, error) {
	if guest.ID == "" {
		guest.ID = uuid.NewString()
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.guests[guest.ID]; ok {
		return domain.Guest{}, domain.ErrDuplicateGuest
	}
	d.guests[guest.ID] = &guestEntry{guest: guest}
	return guest, nil
}

func (d *guestDirectory) Get(id string) (domain.Guest, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	e, ok := d.guests[id]
	if !ok {
		return domain.Guest{}, domain.ErrGuestNotFound
	}
	return e.guest, nil
}

// RecordReservation appends reservationID to the guest's history. Recording
// the same id twice is a no-op.
func (d *guestDirectory) RecordReservation(guestID string, reservationID int64) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	e, ok := d.guests[guestID]
	if !ok {
		return domain.ErrGuestNotFound
	}
	if !slices.Contains(e.history, reservationID) {
		e.history = append(e.history, reservationID)
	}
	return nil
}

func (d *guestDirectory) ReservationIDs(guestID string) ([]int64, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	e, ok := d.guests[guestID]
	if !ok {
		return nil, domain.ErrGuestNotFound
	}
	return slices.Clone(e.history), nil
}

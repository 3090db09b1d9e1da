package service

import (
	"iter"

	"github.com/diagnosis/luxsuv-hotel/services/reservations/internal/domain"
	"github.com/diagnosis/luxsuv-hotel/services/reservations/internal/repository"
)

// Availability answers date-range questions against confirmed reservations.
// Pending drafts never make a room unavailable.
type Availability struct {
	ledger repository.Ledger
}

func NewAvailability(ledger repository.Ledger) *Availability {
	return &Availability{ledger: ledger}
}

func (a *Availability) IsFree(room int, stay domain.DateRange) bool {
	return !a.HasConflict(room, stay, 0)
}

// HasConflict reports whether a confirmed reservation other than exclude
// overlaps stay.
func (a *Availability) HasConflict(room int, stay domain.DateRange, exclude int64) bool {
	return a.ledger.HasConflict(room, stay, exclude, repository.ConfirmedOnly)
}

// FreeRooms filters rooms down to the ones free for the whole stay.
func (a *Availability) FreeRooms(rooms iter.Seq[domain.Room], stay domain.DateRange) []domain.Room {
	var free []domain.Room
	for room := range rooms {
		if a.IsFree(room.Number, stay) {
			free = append(free, room)
		}
	}
	return free
}

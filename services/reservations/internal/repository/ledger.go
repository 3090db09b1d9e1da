package repository

import (
	"cmp"
	"fmt"
	"iter"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/diagnosis/luxsuv-hotel/services/reservations/internal/domain"
)

// ConflictFilter selects which reservations count when looking for overlaps.
type ConflictFilter int

const (
	// ActiveOnly counts pending and confirmed reservations.
	ActiveOnly ConflictFilter = iota
	// ConfirmedOnly counts confirmed reservations. Availability is decided on
	// this view; pending drafts never block anyone.
	ConfirmedOnly
)

func (f ConflictFilter) matches(s domain.Status) bool {
	if f == ConfirmedOnly {
		return s == domain.StatusConfirmed
	}
	return s.Active()
}

// Ledger is the authoritative record of reservations. It keeps every
// reservation ever inserted, plus a per-room index of the active ones ordered
// by check-in date.
type Ledger interface {
	NextID() int64
	Insert(r domain.Reservation) error
	UpdateStatus(id int64, to domain.Status, now time.Time, reason string) (domain.Reservation, error)
	Restore(prev domain.Reservation) error
	Remove(id int64) error
	Get(id int64) (domain.Reservation, error)
	HasConflict(room int, stay domain.DateRange, exclude int64, filter ConflictFilter) bool
	Active(room int) []domain.Reservation
	All() iter.Seq[domain.Reservation]
	ByStatus(status domain.Status) iter.Seq[domain.Reservation]
	DropRoom(room int) int
}

type ledger struct {
	seq atomic.Int64

	mu    sync.RWMutex
	log   map[int64]*domain.Reservation
	order []int64
	index map[int][]*domain.Reservation

	// reservations whose room bucket was dropped while they were active
	archived map[int64]struct{}
}

func NewLedger() Ledger {
	return &ledger{
		log:      make(map[int64]*domain.Reservation),
		index:    make(map[int][]*domain.Reservation),
		archived: make(map[int64]struct{}),
	}
}

// NextID hands out ids starting at 1. Ids are never reused, even when the
// reservation they were drawn for is rolled back.
func (l *ledger) NextID() int64 {
	return l.seq.Add(1)
}

func byCheckIn(a, b *domain.Reservation) int {
	if c := a.Stay.CheckIn.Compare(b.Stay.CheckIn); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

func (l *ledger) Insert(r domain.Reservation) error {
	if !r.Status.Active() {
		return fmt.Errorf("%w: insert of %s reservation %d", domain.ErrInvariant, r.Status, r.ID)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.log[r.ID]; ok {
		return fmt.Errorf("%w: duplicate reservation id %d", domain.ErrInvariant, r.ID)
	}

	stored := r.Clone()
	l.log[r.ID] = &stored
	l.order = append(l.order, r.ID)

	bucket := l.index[r.RoomNumber]
	i, _ := slices.BinarySearchFunc(bucket, &stored, byCheckIn)
	l.index[r.RoomNumber] = slices.Insert(bucket, i, &stored)
	return nil
}

// position finds r in its room bucket.
func (l *ledger) position(r *domain.Reservation) (int, bool) {
	bucket := l.index[r.RoomNumber]
	i, found := slices.BinarySearchFunc(bucket, r, byCheckIn)
	if !found || bucket[i] != r {
		return 0, false
	}
	return i, true
}

// UpdateStatus applies a lifecycle transition. Leaving the active set drops
// the reservation from its room bucket; the log entry stays.
func (l *ledger) UpdateStatus(id int64, to domain.Status, now time.Time, reason string) (domain.Reservation, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	r, ok := l.log[id]
	if !ok {
		return domain.Reservation{}, domain.ErrReservationNotFound
	}

	pos, indexed := l.position(r)
	_, archived := l.archived[id]
	if r.Status.Active() && !indexed && !archived {
		return domain.Reservation{}, fmt.Errorf("%w: active reservation %d missing from room %d index", domain.ErrInvariant, id, r.RoomNumber)
	}

	if err := r.Transition(to, now, reason); err != nil {
		return domain.Reservation{}, err
	}
	if !to.Active() && indexed {
		bucket := l.index[r.RoomNumber]
		l.index[r.RoomNumber] = slices.Delete(bucket, pos, pos+1)
	}
	return r.Clone(), nil
}

// Restore puts back a snapshot taken before a status change that has to be
// undone. The snapshot must be active and describe the same room and stay.
// A reservation that was cancelled since the snapshot goes back into its room
// bucket; callers hold the room lock, so no confirmed overlap can have
// appeared in between.
func (l *ledger) Restore(prev domain.Reservation) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	r, ok := l.log[prev.ID]
	if !ok {
		return domain.ErrReservationNotFound
	}
	if !prev.Status.Active() || r.RoomNumber != prev.RoomNumber || r.Stay != prev.Stay {
		return fmt.Errorf("%w: cannot restore reservation %d", domain.ErrInvariant, prev.ID)
	}
	if _, indexed := l.position(r); indexed {
		*r = prev.Clone()
		return nil
	}

	_, archived := l.archived[prev.ID]
	if r.Status.Active() || archived {
		return fmt.Errorf("%w: cannot restore reservation %d", domain.ErrInvariant, prev.ID)
	}
	*r = prev.Clone()
	bucket := l.index[r.RoomNumber]
	i, _ := slices.BinarySearchFunc(bucket, r, byCheckIn)
	l.index[r.RoomNumber] = slices.Insert(bucket, i, r)
	return nil
}

// Remove erases a reservation entirely. It undoes an Insert whose caller gave
// up before the create could be reported.
func (l *ledger) Remove(id int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	r, ok := l.log[id]
	if !ok {
		return domain.ErrReservationNotFound
	}
	if pos, indexed := l.position(r); indexed {
		bucket := l.index[r.RoomNumber]
		l.index[r.RoomNumber] = slices.Delete(bucket, pos, pos+1)
	}
	delete(l.log, id)
	delete(l.archived, id)
	if i := slices.Index(l.order, id); i >= 0 {
		l.order = slices.Delete(l.order, i, i+1)
	}
	return nil
}

func (l *ledger) Get(id int64) (domain.Reservation, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	r, ok := l.log[id]
	if !ok {
		return domain.Reservation{}, domain.ErrReservationNotFound
	}
	return r.Clone(), nil
}

// HasConflict reports whether any reservation selected by filter on room
// overlaps stay. exclude skips one reservation id (0 skips nothing).
func (l *ledger) HasConflict(room int, stay domain.DateRange, exclude int64, filter ConflictFilter) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	bucket := l.index[room]
	// Everything from end onwards checks in on or after stay.CheckOut.
	end, _ := slices.BinarySearchFunc(bucket, stay.CheckOut, func(r *domain.Reservation, t time.Time) int {
		return r.Stay.CheckIn.Compare(t)
	})
	for _, r := range bucket[:end] {
		if r.ID == exclude || !filter.matches(r.Status) {
			continue
		}
		if r.Stay.CheckOut.After(stay.CheckIn) {
			return true
		}
	}
	return false
}

// Active returns the room's pending and confirmed reservations ordered by
// check-in.
func (l *ledger) Active(room int) []domain.Reservation {
	l.mu.RLock()
	defer l.mu.RUnlock()

	bucket := l.index[room]
	out := make([]domain.Reservation, 0, len(bucket))
	for _, r := range bucket {
		out = append(out, r.Clone())
	}
	return out
}

func (l *ledger) snapshot(keep func(*domain.Reservation) bool) []domain.Reservation {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]domain.Reservation, 0, len(l.order))
	for _, id := range l.order {
		if r := l.log[id]; keep(r) {
			out = append(out, r.Clone())
		}
	}
	return out
}

// All yields every reservation in creation order, cancelled ones included.
func (l *ledger) All() iter.Seq[domain.Reservation] {
	return func(yield func(domain.Reservation) bool) {
		for _, r := range l.snapshot(func(*domain.Reservation) bool { return true }) {
			if !yield(r) {
				return
			}
		}
	}
}

func (l *ledger) ByStatus(status domain.Status) iter.Seq[domain.Reservation] {
	return func(yield func(domain.Reservation) bool) {
		for _, r := range l.snapshot(func(r *domain.Reservation) bool { return r.Status == status }) {
			if !yield(r) {
				return
			}
		}
	}
}

// DropRoom detaches the room's bucket from the active index and reports how
// many entries it held. Log entries are kept for history.
func (l *ledger) DropRoom(room int) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	bucket := l.index[room]
	for _, r := range bucket {
		l.archived[r.ID] = struct{}{}
	}
	delete(l.index, room)
	return len(bucket)
}

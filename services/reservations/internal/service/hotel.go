package service

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"slices"
	"time"

	"github.com/diagnosis/luxsuv-hotel/pkg/clock"
	"github.com/diagnosis/luxsuv-hotel/pkg/events"
	"github.com/diagnosis/luxsuv-hotel/pkg/logger"
	"github.com/diagnosis/luxsuv-hotel/services/reservations/internal/domain"
	"github.com/diagnosis/luxsuv-hotel/services/reservations/internal/repository"
)

// HotelService is what the HTTP layer and the CLI drive.
type HotelService interface {
	Name() string
	Address() string

	AddRoom(ctx context.Context, room domain.Room) error
	RemoveRoom(ctx context.Context, number int) error
	GetRoom(ctx context.Context, number int) (domain.Room, error)
	Rooms(ctx context.Context) iter.Seq[domain.Room]

	RegisterGuest(ctx context.Context, guest domain.Guest) (domain.Guest, error)
	GetGuest(ctx context.Context, id string) (domain.Guest, error)
	GuestReservations(ctx context.Context, guestID string) (iter.Seq[domain.Reservation], error)

	CreateReservation(ctx context.Context, guestID string, roomNumber int, checkIn, checkOut time.Time) (domain.Reservation, error)
	ConfirmReservation(ctx context.Context, id int64) (domain.Reservation, error)
	CancelReservation(ctx context.Context, id int64, reason string) (domain.Reservation, error)
	GetReservation(ctx context.Context, id int64) (domain.Reservation, error)
	Reservations(ctx context.Context) iter.Seq[domain.Reservation]
	ReservationsByStatus(ctx context.Context, status domain.Status) iter.Seq[domain.Reservation]

	CheckAvailability(ctx context.Context, roomNumber int, checkIn, checkOut time.Time) (bool, error)
	AvailableRooms(ctx context.Context, checkIn, checkOut time.Time) ([]domain.Room, error)
	AvailableRoomsOn(ctx context.Context, day time.Time) ([]domain.Room, error)
}

// Options configures a Hotel. Nil collaborators get in-memory defaults.
type Options struct {
	Name    string
	Address string

	Rooms     repository.RoomRegistry
	Ledger    repository.Ledger
	Guests    repository.GuestDirectory
	Clock     clock.Clock
	Publisher events.Publisher
	Logger    *slog.Logger
}

// Hotel owns the room inventory and the reservation ledger and coordinates
// every reservation state change. Mutations on a room are serialised by that
// room's lock; events are published once the lock is released.
type Hotel struct {
	name    string
	address string

	rooms        repository.RoomRegistry
	ledger       repository.Ledger
	guests       repository.GuestDirectory
	availability *Availability
	locks        *roomLocks
	clock        clock.Clock
	publisher    events.Publisher
	log          *slog.Logger
}

func NewHotel(opts Options) *Hotel {
	h := &Hotel{
		name:      opts.Name,
		address:   opts.Address,
		rooms:     opts.Rooms,
		ledger:    opts.Ledger,
		guests:    opts.Guests,
		clock:     opts.Clock,
		publisher: opts.Publisher,
		log:       opts.Logger,
		locks:     newRoomLocks(),
	}
	if h.rooms == nil {
		h.rooms = repository.NewRoomRegistry()
	}
	if h.ledger == nil {
		h.ledger = repository.NewLedger()
	}
	if h.guests == nil {
		h.guests = repository.NewGuestDirectory()
	}
	if h.clock == nil {
		h.clock = clock.System()
	}
	if h.log == nil {
		h.log = logger.Default()
	}
	h.availability = NewAvailability(h.ledger)
	return h
}

func (h *Hotel) Name() string    { return h.name }
func (h *Hotel) Address() string { return h.address }
func (h *Hotel) String() string  { return h.name + " - " + h.address }

// Room management

func (h *Hotel) AddRoom(ctx context.Context, room domain.Room) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := h.rooms.Add(room); err != nil {
		return err
	}
	h.publish(ctx, events.RoomAdded, roomEvent(room, h.clock.Now()))
	return nil
}

// RemoveRoom takes a room out of inventory. It fails with ErrRoomInUse while a
// confirmed reservation for the room has not yet ended. Pending drafts are
// cancelled with reason room_removed and the room's index bucket is archived.
func (h *Hotel) RemoveRoom(ctx context.Context, number int) error {
	unlock, err := h.locks.lock(ctx, number)
	if err != nil {
		return err
	}

	room, drafts, err := h.removeRoomLocked(number)
	unlock()
	if err != nil {
		if errors.Is(err, domain.ErrInvariant) {
			logger.FromContext(ctx, h.log).Error("Room removal rolled back", "room", number, "error", err)
		}
		return err
	}

	log := logger.FromContext(ctx, h.log)
	log.Info("Room removed", "room", number, "cancelled_drafts", len(drafts))
	for _, r := range drafts {
		h.publishReservation(ctx, events.ReservationCancelled, r)
	}
	h.publish(ctx, events.RoomRemoved, roomEvent(room, h.clock.Now()))
	return nil
}

func (h *Hotel) removeRoomLocked(number int) (domain.Room, []domain.Reservation, error) {
	room, err := h.rooms.Get(number)
	if err != nil {
		return domain.Room{}, nil, err
	}

	today := clock.Today(h.clock)
	var drafts []domain.Reservation
	for _, r := range h.ledger.Active(number) {
		if r.Status == domain.StatusConfirmed && r.CheckOut().After(today) {
			return domain.Room{}, nil, fmt.Errorf("%w: reservation %d ends %s", domain.ErrRoomInUse, r.ID, r.CheckOut().Format(domain.DateLayout))
		}
		if r.Status == domain.StatusPending {
			drafts = append(drafts, r)
		}
	}

	now := h.clock.Now()
	cancelled := make([]domain.Reservation, 0, len(drafts))
	for i, r := range drafts {
		updated, err := h.ledger.UpdateStatus(r.ID, domain.StatusCancelled, now, domain.ReasonRoomRemoved)
		if err != nil {
			err = fmt.Errorf("%w: cancel draft %d: %v", domain.ErrInvariant, r.ID, err)
			return domain.Room{}, nil, h.undoCancellations(drafts[:i], err)
		}
		cancelled = append(cancelled, updated)
	}

	if _, err := h.rooms.Remove(number); err != nil {
		err = fmt.Errorf("%w: remove room %d: %v", domain.ErrInvariant, number, err)
		return domain.Room{}, nil, h.undoCancellations(drafts, err)
	}
	h.ledger.DropRoom(number)
	return room, cancelled, nil
}

// undoCancellations puts drafts cancelled by a failed removal back to their
// pending snapshots, newest first.
func (h *Hotel) undoCancellations(drafts []domain.Reservation, cause error) error {
	for i := len(drafts) - 1; i >= 0; i-- {
		if err := h.ledger.Restore(drafts[i]); err != nil {
			cause = errors.Join(cause, fmt.Errorf("restore draft %d: %w", drafts[i].ID, err))
		}
	}
	return cause
}

func (h *Hotel) GetRoom(ctx context.Context, number int) (domain.Room, error) {
	return h.rooms.Get(number)
}

func (h *Hotel) Rooms(ctx context.Context) iter.Seq[domain.Room] {
	return h.rooms.All()
}

// Guest management

func (h *Hotel) RegisterGuest(ctx context.Context, guest domain.Guest) (domain.Guest, error) {
	g, err := domain.NewGuest(guest.ID, guest.Name, guest.Email)
	if err != nil {
		return domain.Guest{}, err
	}
	return h.guests.Register(g)
}

func (h *Hotel) GetGuest(ctx context.Context, id string) (domain.Guest, error) {
	return h.guests.Get(id)
}

// GuestReservations lists the guest's confirmed reservation history ordered
// by check-in. The sequence re-reads the directory each time it is ranged.
func (h *Hotel) GuestReservations(ctx context.Context, guestID string) (iter.Seq[domain.Reservation], error) {
	if _, err := h.guests.Get(guestID); err != nil {
		return nil, err
	}
	return func(yield func(domain.Reservation) bool) {
		ids, err := h.guests.ReservationIDs(guestID)
		if err != nil {
			return
		}
		list := make([]domain.Reservation, 0, len(ids))
		for _, id := range ids {
			if r, err := h.ledger.Get(id); err == nil {
				list = append(list, r)
			}
		}
		slices.SortFunc(list, func(a, b domain.Reservation) int {
			if c := a.CheckIn().Compare(b.CheckIn()); c != 0 {
				return c
			}
			return cmp.Compare(a.ID, b.ID)
		})
		for _, r := range list {
			if !yield(r) {
				return
			}
		}
	}, nil
}

// Reservation lifecycle

// CreateReservation drafts a pending reservation. Drafts do not block anyone;
// the room is only claimed by ConfirmReservation.
func (h *Hotel) CreateReservation(ctx context.Context, guestID string, roomNumber int, checkIn, checkOut time.Time) (domain.Reservation, error) {
	if !h.rooms.Exists(roomNumber) {
		return domain.Reservation{}, domain.ErrRoomNotFound
	}
	if _, err := h.guests.Get(guestID); err != nil {
		return domain.Reservation{}, err
	}
	if _, err := domain.NewDateRange(checkIn, checkOut); err != nil {
		return domain.Reservation{}, err
	}

	unlock, err := h.locks.lock(ctx, roomNumber)
	if err != nil {
		return domain.Reservation{}, err
	}
	r, err := h.createLocked(ctx, roomNumber, guestID, checkIn, checkOut)
	unlock()
	if err != nil {
		return domain.Reservation{}, err
	}

	logger.FromContext(ctx, h.log).Info("Reservation created",
		"reservation_id", r.ID, "room", r.RoomNumber, "guest_id", r.GuestID, "stay", r.Stay.String())
	h.publishReservation(ctx, events.ReservationCreated, r)
	return r, nil
}

// createLocked prices the draft from the room as it stands under the lock;
// the room may have been removed or replaced while we waited.
func (h *Hotel) createLocked(ctx context.Context, number int, guestID string, checkIn, checkOut time.Time) (domain.Reservation, error) {
	room, err := h.rooms.Get(number)
	if err != nil {
		return domain.Reservation{}, err
	}
	r, err := domain.NewReservation(h.ledger.NextID(), room, guestID, checkIn, checkOut, h.clock.Now())
	if err != nil {
		return domain.Reservation{}, err
	}
	if err := h.ledger.Insert(r); err != nil {
		return domain.Reservation{}, err
	}
	// a caller that has given up gets an error, so it must not leave a draft
	if err := ctx.Err(); err != nil {
		if rerr := h.ledger.Remove(r.ID); rerr != nil {
			return domain.Reservation{}, errors.Join(err, fmt.Errorf("%w: remove draft %d: %v", domain.ErrInvariant, r.ID, rerr))
		}
		return domain.Reservation{}, err
	}
	return r, nil
}

// ConfirmReservation claims the room for a pending reservation. The conflict
// check against other confirmed reservations and the status change happen
// under the room lock. On conflict the reservation stays pending and
// ErrRoomUnavailable is returned.
func (h *Hotel) ConfirmReservation(ctx context.Context, id int64) (domain.Reservation, error) {
	current, err := h.ledger.Get(id)
	if err != nil {
		return domain.Reservation{}, err
	}

	unlock, err := h.locks.lock(ctx, current.RoomNumber)
	if err != nil {
		return domain.Reservation{}, err
	}
	r, err := h.confirmLocked(id)
	unlock()

	log := logger.FromContext(ctx, h.log)
	if err != nil {
		if errors.Is(err, domain.ErrInvariant) {
			log.Error("Reservation confirm rolled back", "reservation_id", id, "error", err)
		}
		return domain.Reservation{}, err
	}

	log.Info("Reservation confirmed", "reservation_id", r.ID, "room", r.RoomNumber, "stay", r.Stay.String())
	h.publishReservation(ctx, events.ReservationConfirmed, r)
	return r, nil
}

func (h *Hotel) confirmLocked(id int64) (domain.Reservation, error) {
	prev, err := h.ledger.Get(id)
	if err != nil {
		return domain.Reservation{}, err
	}
	switch prev.Status {
	case domain.StatusCancelled:
		return domain.Reservation{}, domain.ErrAlreadyCancelled
	case domain.StatusConfirmed:
		return domain.Reservation{}, fmt.Errorf("%w: reservation %d is already confirmed", domain.ErrInvalidTransition, id)
	}

	if h.availability.HasConflict(prev.RoomNumber, prev.Stay, id) {
		return domain.Reservation{}, domain.ErrRoomUnavailable
	}

	confirmed, err := h.ledger.UpdateStatus(id, domain.StatusConfirmed, h.clock.Now(), "")
	if err != nil {
		return domain.Reservation{}, err
	}
	if err := h.guests.RecordReservation(confirmed.GuestID, id); err != nil {
		if rerr := h.ledger.Restore(prev); rerr != nil {
			return domain.Reservation{}, fmt.Errorf("%w: record guest history: %v; rollback: %v", domain.ErrInvariant, err, rerr)
		}
		return domain.Reservation{}, fmt.Errorf("%w: record guest history: %v", domain.ErrInvariant, err)
	}
	return confirmed, nil
}

// CancelReservation cancels a pending or confirmed reservation and frees its
// dates. Cancelling twice returns ErrAlreadyCancelled.
func (h *Hotel) CancelReservation(ctx context.Context, id int64, reason string) (domain.Reservation, error) {
	current, err := h.ledger.Get(id)
	if err != nil {
		return domain.Reservation{}, err
	}

	unlock, err := h.locks.lock(ctx, current.RoomNumber)
	if err != nil {
		return domain.Reservation{}, err
	}
	r, err := h.ledger.UpdateStatus(id, domain.StatusCancelled, h.clock.Now(), reason)
	unlock()
	if err != nil {
		return domain.Reservation{}, err
	}

	logger.FromContext(ctx, h.log).Info("Reservation cancelled", "reservation_id", r.ID, "room", r.RoomNumber, "reason", reason)
	h.publishReservation(ctx, events.ReservationCancelled, r)
	return r, nil
}

func (h *Hotel) GetReservation(ctx context.Context, id int64) (domain.Reservation, error) {
	return h.ledger.Get(id)
}

// Reservations lists every reservation, cancelled ones included.
func (h *Hotel) Reservations(ctx context.Context) iter.Seq[domain.Reservation] {
	return h.ledger.All()
}

func (h *Hotel) ReservationsByStatus(ctx context.Context, status domain.Status) iter.Seq[domain.Reservation] {
	return h.ledger.ByStatus(status)
}

// Queries

// CheckAvailability reports whether no confirmed reservation for the room
// overlaps [checkIn, checkOut).
func (h *Hotel) CheckAvailability(ctx context.Context, roomNumber int, checkIn, checkOut time.Time) (bool, error) {
	if _, err := h.rooms.Get(roomNumber); err != nil {
		return false, err
	}
	stay, err := domain.NewDateRange(checkIn, checkOut)
	if err != nil {
		return false, err
	}
	return h.availability.IsFree(roomNumber, stay), nil
}

func (h *Hotel) AvailableRooms(ctx context.Context, checkIn, checkOut time.Time) ([]domain.Room, error) {
	stay, err := domain.NewDateRange(checkIn, checkOut)
	if err != nil {
		return nil, err
	}
	return h.availability.FreeRooms(h.rooms.All(), stay), nil
}

// AvailableRoomsOn lists rooms free for the night of day. A zero day means
// today.
func (h *Hotel) AvailableRoomsOn(ctx context.Context, day time.Time) ([]domain.Room, error) {
	if day.IsZero() {
		day = clock.Today(h.clock)
	}
	stay := domain.SingleDay(day)
	return h.availability.FreeRooms(h.rooms.All(), stay), nil
}

// events

func (h *Hotel) publish(ctx context.Context, subject string, data any) {
	if h.publisher == nil {
		return
	}
	if err := h.publisher.Publish(ctx, subject, data); err != nil {
		logger.FromContext(ctx, h.log).Warn("Failed to publish event", "subject", subject, "error", err)
	}
}

func (h *Hotel) publishReservation(ctx context.Context, subject string, r domain.Reservation) {
	ev := events.ReservationEvent{
		ReservationID: r.ID,
		RoomNumber:    r.RoomNumber,
		GuestID:       r.GuestID,
		CheckIn:       r.CheckIn().Format(domain.DateLayout),
		CheckOut:      r.CheckOut().Format(domain.DateLayout),
		TotalCents:    r.TotalCents,
		Status:        string(r.Status),
		Reason:        r.CancelReason,
		OccurredAt:    h.clock.Now(),
	}
	if g, err := h.guests.Get(r.GuestID); err == nil {
		ev.GuestName = g.Name
		ev.GuestEmail = g.Email
	}
	h.publish(ctx, subject, ev)
}

func roomEvent(room domain.Room, now time.Time) events.RoomEvent {
	return events.RoomEvent{
		RoomNumber:        room.Number,
		RoomType:          string(room.Type),
		NightlyPriceCents: room.NightlyPriceCents,
		OccurredAt:        now,
	}
}

package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/diagnosis/luxsuv-hotel/pkg/logger"
	"github.com/diagnosis/luxsuv-hotel/services/reservations/internal/domain"
)

func TestRoomLocks_TimeoutLeavesLedgerUntouched(t *testing.T) {
	h := NewHotel(Options{Logger: logger.Discard()})
	ctx := context.Background()

	room, _ := domain.NewRoom(101, domain.RoomSingle, 10000)
	require.NoError(t, h.AddRoom(ctx, room))
	g, err := h.RegisterGuest(ctx, domain.Guest{Name: "John Doe", Email: "john@example.com"})
	require.NoError(t, err)
	r, err := h.CreateReservation(ctx, g.ID, 101, domain.Date(2030, 1, 1), domain.Date(2030, 1, 3))
	require.NoError(t, err)

	unlock, err := h.locks.lock(ctx, 101)
	require.NoError(t, err)

	tctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	_, err = h.ConfirmReservation(tctx, r.ID)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	_, err = h.CancelReservation(tctx, r.ID, "")
	require.ErrorIs(t, err, context.DeadlineExceeded)

	got, err := h.GetReservation(ctx, r.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusPending, got.Status)

	unlock()
	_, err = h.ConfirmReservation(ctx, r.ID)
	require.NoError(t, err)
}

func TestRoomLocks_IndependentRooms(t *testing.T) {
	l := newRoomLocks()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	unlockA, err := l.lock(ctx, 1)
	require.NoError(t, err)
	defer unlockA()

	unlockB, err := l.lock(ctx, 2)
	require.NoError(t, err)
	unlockB()
}

func TestCreate_PricesRoomAsSeenUnderLock(t *testing.T) {
	h := NewHotel(Options{Logger: logger.Discard()})
	ctx := context.Background()

	room, _ := domain.NewRoom(101, domain.RoomSingle, 10000)
	require.NoError(t, h.AddRoom(ctx, room))
	g, err := h.RegisterGuest(ctx, domain.Guest{Name: "John Doe", Email: "john@example.com"})
	require.NoError(t, err)

	unlock, err := h.locks.lock(ctx, 101)
	require.NoError(t, err)

	type result struct {
		r   domain.Reservation
		err error
	}
	done := make(chan result, 1)
	go func() {
		r, err := h.CreateReservation(ctx, g.ID, 101, domain.Date(2030, 1, 1), domain.Date(2030, 1, 5))
		done <- result{r, err}
	}()
	time.Sleep(20 * time.Millisecond)

	// the room is replaced while the create waits for it
	_, _, err = h.removeRoomLocked(101)
	require.NoError(t, err)
	suite, _ := domain.NewRoom(101, domain.RoomSuite, 30000)
	require.NoError(t, h.rooms.Add(suite))
	unlock()

	res := <-done
	require.NoError(t, res.err)
	require.Equal(t, int64(4*30000), res.r.TotalCents)
}

// cancelOnNow cancels the caller's context the first time the hotel reads
// the clock once armed.
type cancelOnNow struct {
	cancel context.CancelFunc
	armed  bool
}

func (c *cancelOnNow) Now() time.Time {
	if c.armed {
		c.cancel()
	}
	return time.Date(2029, 12, 1, 9, 0, 0, 0, time.UTC)
}

func TestCreate_CallerGivingUpLeavesNoDraft(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	clk := &cancelOnNow{cancel: cancel}
	h := NewHotel(Options{Clock: clk, Logger: logger.Discard()})

	room, _ := domain.NewRoom(101, domain.RoomSingle, 10000)
	require.NoError(t, h.AddRoom(ctx, room))
	g, err := h.RegisterGuest(ctx, domain.Guest{Name: "John Doe", Email: "john@example.com"})
	require.NoError(t, err)

	clk.armed = true
	_, err = h.CreateReservation(ctx, g.ID, 101, domain.Date(2030, 1, 1), domain.Date(2030, 1, 5))
	require.ErrorIs(t, err, context.Canceled)

	var left []domain.Reservation
	for r := range h.Reservations(context.Background()) {
		left = append(left, r)
	}
	require.Empty(t, left)
	require.Empty(t, h.ledger.Active(101))
}

package service_test

import (
	"context"
	"errors"
	"iter"
	"math/rand/v2"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/diagnosis/luxsuv-hotel/pkg/clock"
	"github.com/diagnosis/luxsuv-hotel/pkg/events"
	"github.com/diagnosis/luxsuv-hotel/pkg/logger"
	"github.com/diagnosis/luxsuv-hotel/services/reservations/internal/domain"
	"github.com/diagnosis/luxsuv-hotel/services/reservations/internal/repository"
	"github.com/diagnosis/luxsuv-hotel/services/reservations/internal/service"
)

func dec(day int) time.Time { return domain.Date(2024, 12, day) }

type fixture struct {
	hotel *service.Hotel
	clock *clock.Fixed
	bus   *events.LocalBus
	guest domain.Guest
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clk := clock.NewFixed(time.Date(2024, 11, 15, 10, 0, 0, 0, time.UTC))
	bus := events.NewLocalBus()
	h := service.NewHotel(service.Options{
		Name:      "Grand Plaza",
		Address:   "1234 Sunset Blvd",
		Clock:     clk,
		Publisher: bus,
		Logger:    logger.Discard(),
	})

	ctx := context.Background()
	for _, r := range []struct {
		n     int
		typ   domain.RoomType
		cents int64
	}{
		{101, domain.RoomSingle, 10000},
		{102, domain.RoomDouble, 15000},
		{201, domain.RoomSuite, 30000},
	} {
		room, err := domain.NewRoom(r.n, r.typ, r.cents)
		require.NoError(t, err)
		require.NoError(t, h.AddRoom(ctx, room))
	}

	g, err := h.RegisterGuest(ctx, domain.Guest{Name: "John Doe", Email: "john@example.com"})
	require.NoError(t, err)
	return &fixture{hotel: h, clock: clk, bus: bus, guest: g}
}

func (f *fixture) book(t *testing.T, room, in, out int) domain.Reservation {
	t.Helper()
	r, err := f.hotel.CreateReservation(context.Background(), f.guest.ID, room, dec(in), dec(out))
	require.NoError(t, err)
	return r
}

func (f *fixture) bookConfirmed(t *testing.T, room, in, out int) domain.Reservation {
	t.Helper()
	r, err := f.hotel.ConfirmReservation(context.Background(), f.book(t, room, in, out).ID)
	require.NoError(t, err)
	return r
}

func TestCreateReservation_RejectsEmptyOrReversedRange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.hotel.CreateReservation(ctx, f.guest.ID, 101, dec(3), dec(3))
	require.ErrorIs(t, err, domain.ErrInvalidDateRange)

	_, err = f.hotel.CreateReservation(ctx, f.guest.ID, 101, dec(5), dec(1))
	require.ErrorIs(t, err, domain.ErrInvalidDateRange)

	require.Empty(t, slices.Collect(f.hotel.Reservations(ctx)))
}

func TestCreateReservation_ValidatesReferences(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.hotel.CreateReservation(ctx, f.guest.ID, 999, dec(1), dec(2))
	require.ErrorIs(t, err, domain.ErrRoomNotFound)

	_, err = f.hotel.CreateReservation(ctx, "nobody", 101, dec(1), dec(2))
	require.ErrorIs(t, err, domain.ErrGuestNotFound)
}

func TestCreateReservation_PricesNights(t *testing.T) {
	f := newFixture(t)
	r := f.book(t, 101, 1, 5)

	require.Equal(t, int64(40000), r.TotalCents)
	require.Equal(t, 4, r.Nights())
	require.Equal(t, domain.StatusPending, r.Status)
}

func TestScenario_OverlapBlockedOtherRoomFree(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.bookConfirmed(t, 101, 1, 5)
	require.Equal(t, domain.StatusConfirmed, first.Status)

	second := f.book(t, 101, 2, 4)
	_, err := f.hotel.ConfirmReservation(ctx, second.ID)
	require.ErrorIs(t, err, domain.ErrRoomUnavailable)

	stillPending, err := f.hotel.GetReservation(ctx, second.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusPending, stillPending.Status)

	other := f.bookConfirmed(t, 102, 2, 4)
	require.Equal(t, domain.StatusConfirmed, other.Status)
}

func TestConfirm_BackToBackStaysAreFine(t *testing.T) {
	f := newFixture(t)
	f.bookConfirmed(t, 101, 1, 5)
	r := f.bookConfirmed(t, 101, 5, 7)
	require.Equal(t, domain.StatusConfirmed, r.Status)
}

func TestConfirm_PendingDraftsDoNotBlock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.book(t, 101, 1, 5)
	ok, err := f.hotel.CheckAvailability(ctx, 101, dec(1), dec(5))
	require.NoError(t, err)
	require.True(t, ok)

	r := f.bookConfirmed(t, 101, 2, 3)
	require.Equal(t, domain.StatusConfirmed, r.Status)
}

func TestConfirm_RejectsNonPending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	r := f.bookConfirmed(t, 101, 1, 5)
	_, err := f.hotel.ConfirmReservation(ctx, r.ID)
	require.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = f.hotel.CancelReservation(ctx, r.ID, domain.ReasonGuestRequest)
	require.NoError(t, err)
	_, err = f.hotel.ConfirmReservation(ctx, r.ID)
	require.ErrorIs(t, err, domain.ErrAlreadyCancelled)

	_, err = f.hotel.ConfirmReservation(ctx, 9999)
	require.ErrorIs(t, err, domain.ErrReservationNotFound)
}

func TestConfirm_ConcurrentOverlapExactlyOneWins(t *testing.T) {
	for i := 0; i < 50; i++ {
		f := newFixture(t)
		a := f.book(t, 101, 1, 5)
		b := f.book(t, 101, 3, 8)

		var (
			wg    sync.WaitGroup
			start = make(chan struct{})
			errs  = make([]error, 2)
		)
		for j, id := range []int64{a.ID, b.ID} {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				_, errs[j] = f.hotel.ConfirmReservation(context.Background(), id)
			}()
		}
		close(start)
		wg.Wait()

		var ok, unavailable int
		for _, err := range errs {
			switch {
			case err == nil:
				ok++
			case errors.Is(err, domain.ErrRoomUnavailable):
				unavailable++
			default:
				t.Fatalf("unexpected error: %v", err)
			}
		}
		require.Equal(t, 1, ok)
		require.Equal(t, 1, unavailable)
		require.Len(t, slices.Collect(f.hotel.ReservationsByStatus(context.Background(), domain.StatusConfirmed)), 1)
	}
}

func TestConfirmedReservationsNeverOverlap(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(seed uint64) {
			defer wg.Done()
			rng := rand.New(rand.NewPCG(seed, seed*31+7))
			for i := 0; i < 40; i++ {
				room := []int{101, 102}[rng.IntN(2)]
				in := 1 + rng.IntN(25)
				out := in + 1 + rng.IntN(5)
				r, err := f.hotel.CreateReservation(ctx, f.guest.ID, room, dec(in), dec(out))
				if err != nil {
					continue
				}
				if rng.IntN(3) == 0 {
					f.hotel.CancelReservation(ctx, r.ID, "")
					continue
				}
				f.hotel.ConfirmReservation(ctx, r.ID)
			}
		}(uint64(w + 1))
	}
	wg.Wait()

	confirmed := slices.Collect(f.hotel.ReservationsByStatus(ctx, domain.StatusConfirmed))
	require.NotEmpty(t, confirmed)
	for i, a := range confirmed {
		for _, b := range confirmed[i+1:] {
			if a.RoomNumber == b.RoomNumber {
				require.False(t, a.Stay.Overlaps(b.Stay), "%s overlaps %s", a, b)
			}
		}
	}
}

func TestCancel_FreesDates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	r := f.bookConfirmed(t, 101, 1, 5)
	ok, err := f.hotel.CheckAvailability(ctx, 101, dec(1), dec(5))
	require.NoError(t, err)
	require.False(t, ok)

	cancelled, err := f.hotel.CancelReservation(ctx, r.ID, domain.ReasonGuestRequest)
	require.NoError(t, err)
	require.Equal(t, domain.StatusCancelled, cancelled.Status)
	require.Equal(t, domain.ReasonGuestRequest, cancelled.CancelReason)

	ok, err = f.hotel.CheckAvailability(ctx, 101, dec(1), dec(5))
	require.NoError(t, err)
	require.True(t, ok)
}

func TestCancel_Twice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	r := f.book(t, 101, 1, 5)
	_, err := f.hotel.CancelReservation(ctx, r.ID, "")
	require.NoError(t, err)
	_, err = f.hotel.CancelReservation(ctx, r.ID, "")
	require.ErrorIs(t, err, domain.ErrAlreadyCancelled)

	_, err = f.hotel.CancelReservation(ctx, 9999, "")
	require.ErrorIs(t, err, domain.ErrReservationNotFound)
}

func TestRemoveRoom_InUseUntilCancelled(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	r := f.bookConfirmed(t, 101, 1, 5)
	err := f.hotel.RemoveRoom(ctx, 101)
	require.ErrorIs(t, err, domain.ErrRoomInUse)

	_, err = f.hotel.GetRoom(ctx, 101)
	require.NoError(t, err)

	_, err = f.hotel.CancelReservation(ctx, r.ID, "")
	require.NoError(t, err)
	require.NoError(t, f.hotel.RemoveRoom(ctx, 101))

	_, err = f.hotel.GetRoom(ctx, 101)
	require.ErrorIs(t, err, domain.ErrRoomNotFound)
	require.ErrorIs(t, f.hotel.RemoveRoom(ctx, 101), domain.ErrRoomNotFound)
}

func TestRemoveRoom_PastStaysAndDraftsDoNotBlock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	past := f.bookConfirmed(t, 101, 1, 5)
	draft := f.book(t, 101, 10, 12)

	f.clock.Set(dec(5))
	require.NoError(t, f.hotel.RemoveRoom(ctx, 101))

	gotDraft, err := f.hotel.GetReservation(ctx, draft.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusCancelled, gotDraft.Status)
	require.Equal(t, domain.ReasonRoomRemoved, gotDraft.CancelReason)

	gotPast, err := f.hotel.GetReservation(ctx, past.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusConfirmed, gotPast.Status)

	_, err = f.hotel.CreateReservation(ctx, f.guest.ID, 101, dec(20), dec(21))
	require.ErrorIs(t, err, domain.ErrRoomNotFound)
}

func TestAddRoom_Duplicate(t *testing.T) {
	f := newFixture(t)
	room, _ := domain.NewRoom(101, domain.RoomSuite, 1)
	require.ErrorIs(t, f.hotel.AddRoom(context.Background(), room), domain.ErrDuplicateRoom)

	var numbers []int
	for r := range f.hotel.Rooms(context.Background()) {
		numbers = append(numbers, r.Number)
	}
	require.Equal(t, []int{101, 102, 201}, numbers)
}

func TestAvailableRooms(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.bookConfirmed(t, 101, 1, 5)
	f.book(t, 102, 1, 5)

	free, err := f.hotel.AvailableRooms(ctx, dec(2), dec(3))
	require.NoError(t, err)
	require.Equal(t, []int{102, 201}, roomNumbers(free))

	free, err = f.hotel.AvailableRoomsOn(ctx, dec(5))
	require.NoError(t, err)
	require.Equal(t, []int{101, 102, 201}, roomNumbers(free))

	f.clock.Set(time.Date(2024, 12, 3, 18, 0, 0, 0, time.UTC))
	free, err = f.hotel.AvailableRoomsOn(ctx, time.Time{})
	require.NoError(t, err)
	require.Equal(t, []int{102, 201}, roomNumbers(free))

	_, err = f.hotel.AvailableRooms(ctx, dec(3), dec(2))
	require.ErrorIs(t, err, domain.ErrInvalidDateRange)

	_, err = f.hotel.CheckAvailability(ctx, 999, dec(1), dec(2))
	require.ErrorIs(t, err, domain.ErrRoomNotFound)
}

func roomNumbers(rooms []domain.Room) []int {
	out := make([]int, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, r.Number)
	}
	return out
}

func TestGuestReservations_OnlyConfirmedOrderedByCheckIn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	late := f.bookConfirmed(t, 102, 20, 22)
	early := f.bookConfirmed(t, 101, 1, 3)
	f.book(t, 201, 10, 11)

	seq, err := f.hotel.GuestReservations(ctx, f.guest.ID)
	require.NoError(t, err)
	require.Equal(t, []int64{early.ID, late.ID}, reservationIDs(seq))

	more := f.bookConfirmed(t, 201, 5, 6)
	require.Equal(t, []int64{early.ID, more.ID, late.ID}, reservationIDs(seq))

	_, err = f.hotel.GuestReservations(ctx, "nobody")
	require.ErrorIs(t, err, domain.ErrGuestNotFound)
}

func reservationIDs(seq iter.Seq[domain.Reservation]) []int64 {
	var ids []int64
	for r := range seq {
		ids = append(ids, r.ID)
	}
	return ids
}

func TestRegisterGuest_Validates(t *testing.T) {
	f := newFixture(t)
	_, err := f.hotel.RegisterGuest(context.Background(), domain.Guest{Name: "Jane", Email: "jane.example.com"})
	require.ErrorIs(t, err, domain.ErrInvalidGuest)

	_, err = f.hotel.RegisterGuest(context.Background(), domain.Guest{ID: f.guest.ID, Name: "Jane", Email: "jane@example.com"})
	require.ErrorIs(t, err, domain.ErrDuplicateGuest)
}

func TestLifecycleEventsArePublished(t *testing.T) {
	f := newFixture(t)

	var mu sync.Mutex
	got := map[string][]events.ReservationEvent{}
	for _, subject := range []string{events.ReservationCreated, events.ReservationConfirmed, events.ReservationCancelled} {
		require.NoError(t, f.bus.Subscribe(subject, func(msg *events.Message) {
			var ev events.ReservationEvent
			require.NoError(t, msg.Decode(&ev))
			mu.Lock()
			got[msg.Subject] = append(got[msg.Subject], ev)
			mu.Unlock()
		}))
	}

	r := f.bookConfirmed(t, 101, 1, 5)
	_, err := f.hotel.CancelReservation(context.Background(), r.ID, domain.ReasonGuestRequest)
	require.NoError(t, err)

	require.Len(t, got[events.ReservationCreated], 1)
	require.Len(t, got[events.ReservationConfirmed], 1)
	require.Len(t, got[events.ReservationCancelled], 1)

	confirmed := got[events.ReservationConfirmed][0]
	require.Equal(t, r.ID, confirmed.ReservationID)
	require.Equal(t, "john@example.com", confirmed.GuestEmail)
	require.Equal(t, "2024-12-01", confirmed.CheckIn)
	require.Equal(t, int64(40000), confirmed.TotalCents)
	require.Equal(t, domain.ReasonGuestRequest, got[events.ReservationCancelled][0].Reason)
}

func TestPublishFailureDoesNotFailOperation(t *testing.T) {
	bus := events.NewLocalBus()
	require.NoError(t, bus.Close())
	h := service.NewHotel(service.Options{Publisher: bus, Logger: logger.Discard()})

	room, _ := domain.NewRoom(1, domain.RoomSingle, 100)
	require.NoError(t, h.AddRoom(context.Background(), room))
}

type brokenHistory struct {
	repository.GuestDirectory
}

func (brokenHistory) RecordReservation(string, int64) error {
	return errors.New("history unavailable")
}

func TestConfirm_RollsBackWhenHistoryFails(t *testing.T) {
	guests := brokenHistory{repository.NewGuestDirectory()}
	h := service.NewHotel(service.Options{
		Guests: guests,
		Clock:  clock.NewFixed(dec(1)),
		Logger: logger.Discard(),
	})
	ctx := context.Background()

	room, _ := domain.NewRoom(101, domain.RoomSingle, 10000)
	require.NoError(t, h.AddRoom(ctx, room))
	g, err := h.RegisterGuest(ctx, domain.Guest{Name: "Jane", Email: "jane@example.com"})
	require.NoError(t, err)

	r, err := h.CreateReservation(ctx, g.ID, 101, dec(2), dec(4))
	require.NoError(t, err)

	_, err = h.ConfirmReservation(ctx, r.ID)
	require.ErrorIs(t, err, domain.ErrInvariant)

	got, err := h.GetReservation(ctx, r.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusPending, got.Status)
	require.Nil(t, got.ConfirmedAt)

	ok, err := h.CheckAvailability(ctx, 101, dec(2), dec(4))
	require.NoError(t, err)
	require.True(t, ok)
}

func TestCancelledContextAbandonsBeforeMutation(t *testing.T) {
	f := newFixture(t)
	r := f.book(t, 101, 1, 5)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.hotel.ConfirmReservation(ctx, r.ID)
	require.ErrorIs(t, err, context.Canceled)

	got, err := f.hotel.GetReservation(context.Background(), r.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusPending, got.Status)
}

// flakyLedger fails the nth cancellation it is asked to apply.
type flakyLedger struct {
	repository.Ledger
	failOn  int
	cancels int
}

func (l *flakyLedger) UpdateStatus(id int64, to domain.Status, now time.Time, reason string) (domain.Reservation, error) {
	if to == domain.StatusCancelled {
		l.cancels++
		if l.cancels == l.failOn {
			return domain.Reservation{}, errors.New("ledger write failed")
		}
	}
	return l.Ledger.UpdateStatus(id, to, now, reason)
}

func TestRemoveRoom_RollsBackCancelledDrafts(t *testing.T) {
	ledger := &flakyLedger{Ledger: repository.NewLedger(), failOn: 2}
	bus := events.NewLocalBus()
	var cancelled []string
	require.NoError(t, bus.Subscribe(events.ReservationCancelled, func(msg *events.Message) {
		cancelled = append(cancelled, string(msg.Data))
	}))
	h := service.NewHotel(service.Options{
		Ledger:    ledger,
		Clock:     clock.NewFixed(dec(1)),
		Publisher: bus,
		Logger:    logger.Discard(),
	})
	ctx := context.Background()

	room, _ := domain.NewRoom(101, domain.RoomSingle, 10000)
	require.NoError(t, h.AddRoom(ctx, room))
	g, err := h.RegisterGuest(ctx, domain.Guest{Name: "Jane", Email: "jane@example.com"})
	require.NoError(t, err)

	a, err := h.CreateReservation(ctx, g.ID, 101, dec(2), dec(4))
	require.NoError(t, err)
	b, err := h.CreateReservation(ctx, g.ID, 101, dec(10), dec(12))
	require.NoError(t, err)

	err = h.RemoveRoom(ctx, 101)
	require.ErrorIs(t, err, domain.ErrInvariant)

	_, err = h.GetRoom(ctx, 101)
	require.NoError(t, err)
	for _, id := range []int64{a.ID, b.ID} {
		got, err := h.GetReservation(ctx, id)
		require.NoError(t, err)
		require.Equal(t, domain.StatusPending, got.Status)
		require.Nil(t, got.CancelledAt)
		require.Empty(t, got.CancelReason)
	}
	require.Empty(t, cancelled)

	// the restored drafts are still live: they confirm and block their dates
	_, err = h.ConfirmReservation(ctx, a.ID)
	require.NoError(t, err)
	free, err := h.CheckAvailability(ctx, 101, dec(3), dec(5))
	require.NoError(t, err)
	require.False(t, free)
}

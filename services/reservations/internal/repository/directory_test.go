package repository_test

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/diagnosis/luxsuv-hotel/services/reservations/internal/domain"
	"github.com/diagnosis/luxsuv-hotel/services/reservations/internal/repository"
)

func TestRoomRegistry(t *testing.T) {
	reg := repository.NewRoomRegistry()
	for _, n := range []int{201, 101, 102} {
		room, err := domain.NewRoom(n, domain.RoomSingle, 10000)
		require.NoError(t, err)
		require.NoError(t, reg.Add(room))
	}

	dup, _ := domain.NewRoom(101, domain.RoomSuite, 30000)
	require.ErrorIs(t, reg.Add(dup), domain.ErrDuplicateRoom)

	var numbers []int
	for r := range reg.All() {
		numbers = append(numbers, r.Number)
	}
	require.Equal(t, []int{201, 101, 102}, numbers)

	got, err := reg.Get(101)
	require.NoError(t, err)
	require.Equal(t, domain.RoomSingle, got.Type)

	_, err = reg.Remove(101)
	require.NoError(t, err)
	_, err = reg.Remove(101)
	require.ErrorIs(t, err, domain.ErrRoomNotFound)
	_, err = reg.Get(101)
	require.ErrorIs(t, err, domain.ErrRoomNotFound)
	require.False(t, reg.Exists(101))
	require.Equal(t, 2, reg.Len())
	require.Len(t, slices.Collect(reg.All()), 2)
}

func TestGuestDirectory(t *testing.T) {
	dir := repository.NewGuestDirectory()

	g, err := dir.Register(domain.Guest{Name: "John Doe", Email: "john@example.com"})
	require.NoError(t, err)
	require.NotEmpty(t, g.ID)

	_, err = dir.Register(domain.Guest{ID: g.ID, Name: "Other", Email: "o@example.com"})
	require.ErrorIs(t, err, domain.ErrDuplicateGuest)

	require.NoError(t, dir.RecordReservation(g.ID, 3))
	require.NoError(t, dir.RecordReservation(g.ID, 1))
	require.NoError(t, dir.RecordReservation(g.ID, 3))

	ids, err := dir.ReservationIDs(g.ID)
	require.NoError(t, err)
	require.Equal(t, []int64{3, 1}, ids)

	ids[0] = 99
	again, _ := dir.ReservationIDs(g.ID)
	require.Equal(t, int64(3), again[0])

	require.ErrorIs(t, dir.RecordReservation("missing", 1), domain.ErrGuestNotFound)
	_, err = dir.Get("missing")
	require.ErrorIs(t, err, domain.ErrGuestNotFound)
}

func TestEmployeeDirectory_Authenticate(t *testing.T) {
	dir := repository.NewEmployeeDirectory()
	admin := domain.NewAdmin("", "Bob Johnson")
	admin.Username = " Bob "

	created, err := dir.Create(admin, "s3cret")
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	require.Equal(t, "bob", created.Username)

	got, err := dir.Authenticate("BOB", "s3cret")
	require.NoError(t, err)
	require.True(t, got.Can(domain.CanManageRooms))

	_, err = dir.Authenticate("bob", "wrong")
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)
	_, err = dir.Authenticate("nobody", "s3cret")
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = dir.Create(admin, "again")
	require.Error(t, err)

	_, err = dir.Get("missing")
	require.ErrorIs(t, err, domain.ErrEmployeeNotFound)
}

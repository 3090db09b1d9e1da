package events_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/diagnosis/luxsuv-hotel/pkg/events"
)

func TestLocalBus_DeliversToSubscribers(t *testing.T) {
	bus := events.NewLocalBus()

	var got []events.ReservationEvent
	require.NoError(t, bus.Subscribe(events.ReservationConfirmed, func(msg *events.Message) {
		var ev events.ReservationEvent
		require.NoError(t, msg.Decode(&ev))
		got = append(got, ev)
	}))

	require.NoError(t, bus.Publish(context.Background(), events.ReservationConfirmed, events.ReservationEvent{
		ReservationID: 7,
		RoomNumber:    101,
		Status:        "confirmed",
	}))
	require.NoError(t, bus.Publish(context.Background(), events.ReservationCancelled, events.ReservationEvent{ReservationID: 8}))

	require.Len(t, got, 1)
	require.Equal(t, int64(7), got[0].ReservationID)
	require.Equal(t, 101, got[0].RoomNumber)
}

func TestLocalBus_QueueGroupDeliversOnce(t *testing.T) {
	bus := events.NewLocalBus()

	var a, b int
	require.NoError(t, bus.QueueSubscribe(events.ReservationCreated, "notify", func(*events.Message) { a++ }))
	require.NoError(t, bus.QueueSubscribe(events.ReservationCreated, "notify", func(*events.Message) { b++ }))

	for i := 0; i < 4; i++ {
		require.NoError(t, bus.Publish(context.Background(), events.ReservationCreated, map[string]int{"i": i}))
	}

	require.Equal(t, 4, a+b)
	require.Equal(t, 2, a)
}

func TestLocalBus_PublishAfterClose(t *testing.T) {
	bus := events.NewLocalBus()
	require.NoError(t, bus.Close())
	require.Error(t, bus.Publish(context.Background(), events.RoomAdded, events.RoomEvent{RoomNumber: 1}))
}

package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/diagnosis/luxsuv-hotel/pkg/clock"
	"github.com/diagnosis/luxsuv-hotel/pkg/events"
	"github.com/diagnosis/luxsuv-hotel/pkg/logger"
	"github.com/diagnosis/luxsuv-hotel/services/reservations/internal/domain"
	"github.com/diagnosis/luxsuv-hotel/services/reservations/internal/repository"
	"github.com/diagnosis/luxsuv-hotel/services/reservations/internal/service"
)

func newDemoCmd() *cobra.Command {
	var (
		today      string
		showEvents bool
	)
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run a scripted booking session against an in-memory hotel",
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := domain.ParseDate(today)
			if err != nil {
				return fmt.Errorf("--today: %w", err)
			}
			return runDemo(cmd.Context(), cmd.OutOrStdout(), day, showEvents)
		},
	}
	cmd.Flags().StringVar(&today, "today", "2024-11-15", "date the hotel clock starts on (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&showEvents, "events", false, "print every event the hotel publishes")
	return cmd
}

// demo keeps the running session so each step can print its outcome.
type demo struct {
	out   io.Writer
	hotel *service.Hotel
	authz service.AuthService
}

func (d *demo) printf(format string, args ...any) {
	fmt.Fprintf(d.out, format, args...)
}

// try prints the outcome of one step. Failures are part of the script and do
// not stop the session.
func (d *demo) try(label string, fn func() error) bool {
	if err := fn(); err != nil {
		d.printf("  %s: failed: %v\n", label, err)
		return false
	}
	return true
}

func runDemo(ctx context.Context, out io.Writer, today time.Time, showEvents bool) error {
	if ctx == nil {
		ctx = context.Background()
	}

	bus := events.NewLocalBus()
	defer bus.Close()
	if showEvents {
		for _, subject := range []string{
			events.RoomAdded, events.RoomRemoved,
			events.ReservationCreated, events.ReservationConfirmed, events.ReservationCancelled,
		} {
			bus.Subscribe(subject, func(msg *events.Message) {
				fmt.Fprintf(out, "  [event] %s %s\n", msg.Subject, msg.Data)
			})
		}
	}

	hotel := service.NewHotel(service.Options{
		Name:      "Grand Plaza",
		Address:   "1234 Sunset Blvd",
		Clock:     clock.NewFixed(today),
		Publisher: bus,
		Logger:    logger.Discard(),
	})
	d := &demo{
		out:   out,
		hotel: hotel,
		authz: service.NewAuthService(repository.NewEmployeeDirectory(), "", time.Minute),
	}

	d.printf("Hotel: %s\n", hotel)

	d.printf("\nAdding rooms\n")
	for _, seed := range []struct {
		number int
		kind   domain.RoomType
		cents  int64
	}{
		{101, domain.RoomSingle, 10000},
		{102, domain.RoomDouble, 15000},
		{103, domain.RoomSuite, 20000},
	} {
		room, err := domain.NewRoom(seed.number, seed.kind, seed.cents)
		if err != nil {
			return err
		}
		if err := hotel.AddRoom(ctx, room); err != nil {
			return err
		}
		d.printf("  %s\n", room)
	}

	guest, err := hotel.RegisterGuest(ctx, domain.Guest{Name: "John Doe", Email: "john@example.com"})
	if err != nil {
		return err
	}
	d.printf("\nGuest: %s\n", guest)

	year := today.Year()
	if !domain.Date(year, time.December, 1).After(today) {
		year++
	}
	dec := func(day int) time.Time { return domain.Date(year, time.December, day) }

	d.printf("\nBooking room 101 with check-out before check-in\n")
	d.try("reserve", func() error {
		_, err := hotel.CreateReservation(ctx, guest.ID, 101, dec(5), dec(1))
		return err
	})

	d.printf("\nBooking room 101 from %s to %s\n", dec(1).Format(domain.DateLayout), dec(5).Format(domain.DateLayout))
	var first domain.Reservation
	d.try("reserve", func() error {
		r, err := hotel.CreateReservation(ctx, guest.ID, 101, dec(1), dec(5))
		if err != nil {
			return err
		}
		first, err = hotel.ConfirmReservation(ctx, r.ID)
		if err != nil {
			return err
		}
		d.printf("  %s\n", first)
		return nil
	})

	d.printf("\nBooking room 101 again from %s to %s\n", dec(2).Format(domain.DateLayout), dec(4).Format(domain.DateLayout))
	d.try("reserve", func() error {
		r, err := hotel.CreateReservation(ctx, guest.ID, 101, dec(2), dec(4))
		if err != nil {
			return err
		}
		if _, err := hotel.ConfirmReservation(ctx, r.ID); err != nil {
			if _, cerr := hotel.CancelReservation(ctx, r.ID, domain.ReasonGuestRequest); cerr != nil {
				return cerr
			}
			return err
		}
		return nil
	})

	d.printf("\nReservations for %s\n", guest.Name)
	if err := d.guestReservations(ctx, guest.ID); err != nil {
		return err
	}

	clerk := domain.NewEmployee("emp-1", "Alice", "Front Desk")
	admin := domain.NewAdmin("emp-2", "Bob")

	d.printf("\n%s checks room 101 for %s to %s\n", clerk, dec(1).Format(domain.DateLayout), dec(5).Format(domain.DateLayout))
	d.try("availability", func() error {
		free, err := hotel.CheckAvailability(ctx, 101, dec(1), dec(5))
		if err != nil {
			return err
		}
		d.printf("  room 101 available: %t\n", free)
		return nil
	})

	d.printf("\n%s adds room 101\n", clerk)
	d.try("add room", func() error { return d.addRoom(ctx, clerk, 101) })

	d.printf("\n%s adds room 101\n", admin)
	d.try("add room", func() error { return d.addRoom(ctx, admin, 101) })

	d.printf("\n%s removes room 999\n", admin)
	d.try("remove room", func() error {
		if err := d.authz.Authorize(admin, domain.CanManageRooms); err != nil {
			return err
		}
		return hotel.RemoveRoom(ctx, 999)
	})

	d.printf("\n%s views all reservations\n", admin)
	d.try("view all", func() error {
		if err := d.authz.Authorize(admin, domain.CanViewAllReservations); err != nil {
			return err
		}
		for r := range hotel.Reservations(ctx) {
			d.printf("  %s\n", r)
		}
		return nil
	})

	d.printf("\nAvailable rooms on %s\n", dec(2).Format(domain.DateLayout))
	if err := d.availableOn(ctx, dec(2)); err != nil {
		return err
	}

	if first.ID != 0 {
		d.printf("\nCancelling reservation #%d\n", first.ID)
		d.try("cancel", func() error {
			r, err := hotel.CancelReservation(ctx, first.ID, domain.ReasonGuestRequest)
			if err != nil {
				return err
			}
			d.printf("  %s\n", r)
			return nil
		})
	}

	d.printf("\nAvailable rooms on %s\n", dec(2).Format(domain.DateLayout))
	return d.availableOn(ctx, dec(2))
}

func (d *demo) addRoom(ctx context.Context, emp domain.Employee, number int) error {
	if err := d.authz.Authorize(emp, domain.CanManageRooms); err != nil {
		return err
	}
	room, err := domain.NewRoom(number, domain.RoomSingle, 10000)
	if err != nil {
		return err
	}
	return d.hotel.AddRoom(ctx, room)
}

func (d *demo) guestReservations(ctx context.Context, guestID string) error {
	list, err := d.hotel.GuestReservations(ctx, guestID)
	if err != nil {
		return err
	}
	for r := range list {
		d.printf("  %s\n", r)
	}
	return nil
}

func (d *demo) availableOn(ctx context.Context, day time.Time) error {
	rooms, err := d.hotel.AvailableRoomsOn(ctx, day)
	if err != nil {
		return err
	}
	for _, room := range rooms {
		d.printf("  %s\n", room)
	}
	return nil
}

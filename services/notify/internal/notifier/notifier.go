package notifier

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"time"

	"github.com/diagnosis/luxsuv-hotel/internal/platform/mailer"
	"github.com/diagnosis/luxsuv-hotel/internal/utils"
	"github.com/diagnosis/luxsuv-hotel/pkg/events"
	"github.com/diagnosis/luxsuv-hotel/pkg/logger"
)

const sendTimeout = 15 * time.Second

// Notifier emails guests when their reservation is confirmed or cancelled.
type Notifier struct {
	mailer    mailer.Service
	hotelName string
	log       *slog.Logger
}

func New(m mailer.Service, hotelName string, log *slog.Logger) *Notifier {
	if log == nil {
		log = logger.Default()
	}
	return &Notifier{mailer: m, hotelName: hotelName, log: log}
}

// Subscribe joins queue on every subject the notifier reacts to. Running
// several notify instances on the same queue sends each email once.
func (n *Notifier) Subscribe(sub events.Subscriber, queue string) error {
	for _, subject := range []string{events.ReservationConfirmed, events.ReservationCancelled} {
		if err := sub.QueueSubscribe(subject, queue, n.Handle); err != nil {
			return fmt.Errorf("subscribe %s: %w", subject, err)
		}
	}
	return nil
}

// Handle processes one event. Bad payloads are logged and dropped.
func (n *Notifier) Handle(msg *events.Message) {
	log := n.log.With("subject", msg.Subject, "event_id", msg.ID)

	var ev events.ReservationEvent
	if err := msg.Decode(&ev); err != nil {
		log.Warn("Dropping malformed event", "error", err)
		return
	}
	if ev.GuestEmail == "" {
		log.Warn("Dropping event without guest email", "reservation_id", ev.ReservationID)
		return
	}

	subject, text, body, ok := n.compose(msg.Subject, ev)
	if !ok {
		log.Debug("Ignoring event")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	id, err := n.mailer.Send(ctx, ev.GuestEmail, ev.GuestName, subject, text, body)
	if err != nil {
		log.Error("Failed to send reservation email", "reservation_id", ev.ReservationID, "error", err)
		return
	}
	log.Info("Reservation email sent", "reservation_id", ev.ReservationID, "message_id", id)
}

// compose returns subject, text and html bodies. Event strings come from
// guest input and are escaped for the html body.
func (n *Notifier) compose(subject string, ev events.ReservationEvent) (string, string, string, bool) {
	name, in, out := html.EscapeString(ev.GuestName), html.EscapeString(ev.CheckIn), html.EscapeString(ev.CheckOut)
	switch subject {
	case events.ReservationConfirmed:
		title := fmt.Sprintf("Your stay at %s is confirmed", n.hotelName)
		text := fmt.Sprintf("Hi %s,\n\nReservation #%d for room %d is confirmed.\nCheck-in: %s\nCheck-out: %s\nTotal: %s\n",
			ev.GuestName, ev.ReservationID, ev.RoomNumber, ev.CheckIn, ev.CheckOut, utils.FormatCents(ev.TotalCents))
		body := fmt.Sprintf(`<p>Hi %s,</p><p>Reservation <b>#%d</b> for room <b>%d</b> is confirmed.</p>
<p>Check-in: %s<br>Check-out: %s<br>Total: %s</p>`,
			name, ev.ReservationID, ev.RoomNumber, in, out, utils.FormatCents(ev.TotalCents))
		return title, text, body, true
	case events.ReservationCancelled:
		title := fmt.Sprintf("Your reservation at %s was cancelled", n.hotelName)
		text := fmt.Sprintf("Hi %s,\n\nReservation #%d for room %d (%s to %s) has been cancelled.\n",
			ev.GuestName, ev.ReservationID, ev.RoomNumber, ev.CheckIn, ev.CheckOut)
		body := fmt.Sprintf(`<p>Hi %s,</p><p>Reservation <b>#%d</b> for room <b>%d</b> (%s to %s) has been cancelled.</p>`,
			name, ev.ReservationID, ev.RoomNumber, in, out)
		return title, text, body, true
	default:
		return "", "", "", false
	}
}

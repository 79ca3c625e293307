// AngelaMos | 2026
// notifier.go

package notification

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/waitlist-backend/internal/core"
)

// Gateway sends customer-facing text messages. The boolean reports
// whether the message was accepted; callers log the error and carry on.
type Gateway interface {
	SendWaitlistNotification(ctx context.Context, msg WaitlistMessage) (bool, error)
	SendTableReadyNotification(ctx context.Context, msg WaitlistMessage) (bool, error)
	SendReservationConfirmation(ctx context.Context, msg ReservationMessage) (bool, error)
	SendReservationReminder(ctx context.Context, msg ReservationMessage) (bool, error)
	SendSMS(ctx context.Context, phone, body string) (bool, error)
}

type WaitlistMessage struct {
	Phone         string
	CustomerName  string
	BusinessName  string
	BusinessPhone string
	Position      int
	EstimatedWait int
}

type ReservationMessage struct {
	Phone        string
	CustomerName string
	BusinessName string
	Date         string
	Time         string
	PartySize    int
}

type Notifier struct {
	sender Sender
	logger *slog.Logger
}

func NewNotifier(sender Sender, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{sender: sender, logger: logger}
}

func (n *Notifier) SendWaitlistNotification(ctx context.Context, m WaitlistMessage) (bool, error) {
	return n.send(ctx, "waitlist_joined", m.Phone, WaitlistJoinedText(m))
}

func (n *Notifier) SendTableReadyNotification(ctx context.Context, m WaitlistMessage) (bool, error) {
	return n.send(ctx, "table_ready", m.Phone, TableReadyText(m))
}

func (n *Notifier) SendReservationConfirmation(ctx context.Context, m ReservationMessage) (bool, error) {
	return n.send(ctx, "reservation_confirmed", m.Phone, ReservationConfirmedText(m))
}

func (n *Notifier) SendReservationReminder(ctx context.Context, m ReservationMessage) (bool, error) {
	return n.send(ctx, "reservation_reminder", m.Phone, ReservationReminderText(m))
}

func (n *Notifier) SendSMS(ctx context.Context, phone, body string) (bool, error) {
	return n.send(ctx, "manual", phone, body)
}

// Status asks the sender for the delivery state of a message.
func (n *Notifier) Status(ctx context.Context, messageID string) (string, error) {
	return n.sender.Status(ctx, messageID)
}

func (n *Notifier) send(ctx context.Context, kind, phone, body string) (bool, error) {
	ctx, span := core.StartSpan(ctx, "notification.send",
		attribute.String("notification.kind", kind),
	)
	defer span.End()

	if phone == "" {
		err := fmt.Errorf("%s notification: %w", kind,
			core.Errorf(core.ErrInvalidInput, "recipient has no phone number"))
		core.SetSpanError(ctx, err)
		return false, err
	}

	id, err := n.sender.Send(ctx, phone, body)
	if err != nil {
		core.SetSpanError(ctx, err)
		return false, fmt.Errorf("%s notification: %w", kind, err)
	}

	span.SetAttributes(attribute.String("notification.message_id", id))
	return true, nil
}

func WaitlistJoinedText(m WaitlistMessage) string {
	return fmt.Sprintf(
		"You're #%d on the waitlist at %s. Estimated wait: %d min. We'll text you when your table is ready.",
		m.Position, m.BusinessName, m.EstimatedWait,
	)
}

func TableReadyText(m WaitlistMessage) string {
	text := fmt.Sprintf(
		"Your table is ready at %s! Please come to the host stand within 15 min.",
		m.BusinessName,
	)
	if m.BusinessPhone != "" {
		text += " Tel: " + m.BusinessPhone
	}
	return text
}

func ReservationConfirmedText(m ReservationMessage) string {
	people := "people"
	if m.PartySize == 1 {
		people = "person"
	}
	return fmt.Sprintf(
		"Reservation confirmed at %s: %s at %s for %d %s. See you soon!",
		m.BusinessName, m.Date, m.Time, m.PartySize, people,
	)
}

func ReservationReminderText(m ReservationMessage) string {
	return fmt.Sprintf(
		"Reminder: your reservation at %s is tomorrow (%s) at %s. Please arrive 5 min early.",
		m.BusinessName, m.Date, m.Time,
	)
}

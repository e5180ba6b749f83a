// Package notifier consumes booking lifecycle events and sends email
// notifications to the booking's user. Delivery is best-effort: a
// malformed event or an unresolvable recipient goes to the log (and the
// DLQ via the consumer), never back into the write path.
package notifier

import (
	"context"
	"strings"

	"resbook/internal/events"
	"resbook/pkg/kafka"
	"resbook/pkg/logger"
	"resbook/pkg/model"
)

// ResourceProvider resolves resource display names for email bodies.
type ResourceProvider interface {
	FindByID(ctx context.Context, id string) (*model.Resource, error)
}

type Notifier struct {
	resources ResourceProvider
	mailer    Mailer
	log       *logger.Logger
}

func New(resources ResourceProvider, mailer Mailer, log *logger.Logger) *Notifier {
	return &Notifier{
		resources: resources,
		mailer:    mailer,
		log:       log,
	}
}

// HandleMessage is the Kafka consumer entry point.
func (n *Notifier) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var event events.BookingEvent
	if err := msg.DecodeValue(&event); err != nil {
		return kafka.NewPermanentError("failed to decode booking event", err)
	}

	return n.Notify(ctx, event)
}

// Notify composes and sends the email for one booking event.
func (n *Notifier) Notify(ctx context.Context, event events.BookingEvent) error {
	email := ComposeEmail(event, n.resourceName(ctx, event.Booking.ResourceID))

	// User management is an external collaborator; the user identifier
	// doubles as the recipient address when it is one.
	if !strings.Contains(email.To, "@") {
		n.log.Warn("Booking user has no deliverable address, skipping email",
			"booking_id", event.Booking.ID,
			"user_id", event.Booking.UserID,
			"kind", event.Kind,
		)
		return nil
	}

	if err := n.mailer.Send(ctx, email); err != nil {
		n.log.Error("Failed to send booking notification",
			"booking_id", event.Booking.ID,
			"kind", event.Kind,
			"error", err,
		)
		return err
	}

	n.log.Info("Booking notification sent",
		"booking_id", event.Booking.ID,
		"kind", event.Kind,
		"to", email.To,
	)
	return nil
}

func (n *Notifier) resourceName(ctx context.Context, resourceID string) string {
	if n.resources == nil {
		return resourceID
	}

	resource, err := n.resources.FindByID(ctx, resourceID)
	if err != nil {
		n.log.Warn("Failed to resolve resource name for notification",
			"resource_id", resourceID,
			"error", err,
		)
		return resourceID
	}
	return resource.Name
}

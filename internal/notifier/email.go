package notifier

import (
	"fmt"

	"resbook/internal/events"
)

// Email is a composed notification ready for delivery.
type Email struct {
	To      string
	Subject string
	Body    string
}

var subjects = map[string]string{
	events.KindCreated:       "Booking Created",
	events.KindUpdated:       "Booking Updated",
	events.KindStatusChanged: "Booking Status Updated",
	events.KindCancelled:     "Booking Cancelled",
}

// ComposeEmail renders the notification for a booking event. The
// resource name is resolved by the caller; it falls back to the raw
// resource ID when the lookup fails.
func ComposeEmail(event events.BookingEvent, resourceName string) Email {
	booking := event.Booking

	subject, ok := subjects[event.Kind]
	if !ok {
		subject = "Booking Notification"
	}

	notes := booking.Notes
	if notes == "" {
		notes = "No notes given"
	}

	var statusText string
	if event.Kind == events.KindCancelled {
		statusText = "been cancelled"
	} else {
		statusText = fmt.Sprintf("been %s", booking.Status)
	}

	body := fmt.Sprintf(
		"Dear %s,\n\n"+
			"Your booking for %s from %s to %s has %s.\n"+
			"Notes: %s\n\n"+
			"Thank you.",
		booking.UserID,
		resourceName,
		booking.StartTime.Format("2006-01-02 15:04"),
		booking.EndTime.Format("15:04"),
		statusText,
		notes,
	)

	return Email{
		To:      booking.UserID,
		Subject: subject,
		Body:    body,
	}
}

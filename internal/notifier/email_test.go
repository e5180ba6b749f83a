package notifier

import (
	"context"
	"strings"
	"testing"
	"time"

	"resbook/internal/events"
	"resbook/pkg/logger"
	"resbook/pkg/model"
)

func testBooking() model.Booking {
	return model.Booking{
		ID:         "booking-1",
		ResourceID: "res-1",
		UserID:     "alice@example.com",
		StartTime:  time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC),
		EndTime:    time.Date(2025, 3, 10, 16, 0, 0, 0, time.UTC),
		Status:     model.StatusConfirmed,
		Notes:      "Projector needed",
	}
}

func TestComposeEmail(t *testing.T) {
	event := events.BookingEvent{
		Kind:    events.KindStatusChanged,
		Booking: testBooking(),
	}

	email := ComposeEmail(event, "Conference Room A")

	if email.To != "alice@example.com" {
		t.Errorf("To = %q, want alice@example.com", email.To)
	}
	if email.Subject != "Booking Status Updated" {
		t.Errorf("Subject = %q, want Booking Status Updated", email.Subject)
	}

	for _, fragment := range []string{
		"Dear alice@example.com,",
		"Your booking for Conference Room A from 2025-03-10 14:00 to 16:00 has been confirmed.",
		"Notes: Projector needed",
		"Thank you.",
	} {
		if !strings.Contains(email.Body, fragment) {
			t.Errorf("body missing %q\nbody:\n%s", fragment, email.Body)
		}
	}
}

func TestComposeEmail_CancelledOverridesStatusText(t *testing.T) {
	booking := testBooking()
	booking.Status = model.StatusConfirmed

	email := ComposeEmail(events.BookingEvent{
		Kind:    events.KindCancelled,
		Booking: booking,
	}, "Conference Room A")

	if email.Subject != "Booking Cancelled" {
		t.Errorf("Subject = %q, want Booking Cancelled", email.Subject)
	}
	if !strings.Contains(email.Body, "has been cancelled.") {
		t.Errorf("cancelled event must say 'been cancelled' regardless of status, body:\n%s", email.Body)
	}
}

func TestComposeEmail_EmptyNotesFallback(t *testing.T) {
	booking := testBooking()
	booking.Notes = ""

	email := ComposeEmail(events.BookingEvent{
		Kind:    events.KindCreated,
		Booking: booking,
	}, "Conference Room A")

	if !strings.Contains(email.Body, "Notes: No notes given") {
		t.Errorf("empty notes must render as 'No notes given', body:\n%s", email.Body)
	}
}

func TestComposeEmail_UnknownKindSubject(t *testing.T) {
	email := ComposeEmail(events.BookingEvent{
		Kind:    "something_else",
		Booking: testBooking(),
	}, "Conference Room A")

	if email.Subject != "Booking Notification" {
		t.Errorf("Subject = %q, want Booking Notification", email.Subject)
	}
}

// mailer spy
type recordingMailer struct {
	sent []Email
	err  error
}

func (m *recordingMailer) Send(_ context.Context, email Email) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, email)
	return nil
}

type staticResources struct {
	resource *model.Resource
	err      error
}

func (s *staticResources) FindByID(_ context.Context, _ string) (*model.Resource, error) {
	return s.resource, s.err
}

func testLogger() *logger.Logger {
	return logger.New(logger.Config{
		Level:     "error",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "notifier-test",
	})
}

func TestNotify_SendsEmail(t *testing.T) {
	mailer := &recordingMailer{}
	n := New(&staticResources{resource: &model.Resource{Name: "Conference Room A"}}, mailer, testLogger())

	err := n.Notify(context.Background(), events.BookingEvent{
		Kind:    events.KindCreated,
		Booking: testBooking(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(mailer.sent) != 1 {
		t.Fatalf("expected 1 email, got %d", len(mailer.sent))
	}
	if !strings.Contains(mailer.sent[0].Body, "Conference Room A") {
		t.Errorf("body should use the resolved resource name, got:\n%s", mailer.sent[0].Body)
	}
}

func TestNotify_SkipsNonAddressRecipients(t *testing.T) {
	mailer := &recordingMailer{}
	n := New(&staticResources{resource: &model.Resource{Name: "Room"}}, mailer, testLogger())

	booking := testBooking()
	booking.UserID = "user-42"

	err := n.Notify(context.Background(), events.BookingEvent{
		Kind:    events.KindCreated,
		Booking: booking,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(mailer.sent) != 0 {
		t.Fatalf("expected no email for non-address user ID, got %d", len(mailer.sent))
	}
}

func TestNotify_FallsBackToResourceID(t *testing.T) {
	mailer := &recordingMailer{}
	n := New(&staticResources{err: context.DeadlineExceeded}, mailer, testLogger())

	err := n.Notify(context.Background(), events.BookingEvent{
		Kind:    events.KindCreated,
		Booking: testBooking(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(mailer.sent) != 1 {
		t.Fatalf("expected 1 email, got %d", len(mailer.sent))
	}
	if !strings.Contains(mailer.sent[0].Body, "res-1") {
		t.Errorf("body should fall back to the resource ID, got:\n%s", mailer.sent[0].Body)
	}
}

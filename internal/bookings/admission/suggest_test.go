package admission

import (
	"context"
	"testing"
	"time"

	"resbook/pkg/model"
)

func TestSuggest_ChainOfClashes(t *testing.T) {
	// Existing bookings [14:00, 15:00) and [16:00, 17:00). A two-hour
	// request at 14:30 clashes; the scan must walk past both bookings
	// and land on [17:00, 19:00).
	engine := newTestEngine(&memoryRepository{bookings: []model.Booking{
		booking("b1", "res-1", model.StatusConfirmed, at(14, 0), at(15, 0)),
		booking("b2", "res-1", model.StatusConfirmed, at(16, 0), at(17, 0)),
	}})

	decision, err := engine.Check(context.Background(), Request{
		ResourceID: "res-1",
		StartTime:  at(14, 30),
		EndTime:    at(16, 30),
		IsNew:      true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision.Admitted || decision.Reason != ReasonConflict {
		t.Fatalf("expected conflict rejection, got %+v", decision)
	}
	if decision.Suggestion == nil {
		t.Fatal("expected a suggestion")
	}
	if !decision.Suggestion.StartTime.Equal(at(17, 0)) || !decision.Suggestion.EndTime.Equal(at(19, 0)) {
		t.Errorf("suggestion = [%v, %v), want [17:00, 19:00)", decision.Suggestion.StartTime, decision.Suggestion.EndTime)
	}
}

func TestSuggest_SlotBetweenBookings(t *testing.T) {
	// A one-hour gap between 15:00 and 16:00 fits a one-hour request.
	engine := newTestEngine(&memoryRepository{bookings: []model.Booking{
		booking("b1", "res-1", model.StatusConfirmed, at(14, 0), at(15, 0)),
		booking("b2", "res-1", model.StatusConfirmed, at(16, 0), at(17, 0)),
	}})

	decision, err := engine.Check(context.Background(), Request{
		ResourceID: "res-1",
		StartTime:  at(14, 0),
		EndTime:    at(15, 0),
		IsNew:      true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision.Suggestion == nil {
		t.Fatal("expected a suggestion")
	}
	if !decision.Suggestion.StartTime.Equal(at(15, 0)) || !decision.Suggestion.EndTime.Equal(at(16, 0)) {
		t.Errorf("suggestion = [%v, %v), want [15:00, 16:00)", decision.Suggestion.StartTime, decision.Suggestion.EndTime)
	}
}

func TestSuggest_SuggestionPreservesDuration(t *testing.T) {
	engine := newTestEngine(&memoryRepository{bookings: []model.Booking{
		booking("b1", "res-1", model.StatusConfirmed, at(14, 0), at(16, 0)),
	}})

	duration := 45 * time.Minute
	decision, err := engine.Check(context.Background(), Request{
		ResourceID: "res-1",
		StartTime:  at(14, 15),
		EndTime:    at(14, 15).Add(duration),
		IsNew:      true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision.Suggestion == nil {
		t.Fatal("expected a suggestion")
	}
	if got := decision.Suggestion.EndTime.Sub(decision.Suggestion.StartTime); got != duration {
		t.Errorf("suggested duration = %v, want %v", got, duration)
	}
}

func TestSuggest_CapExhaustedReturnsNoSuggestion(t *testing.T) {
	// Back-to-back one-hour bookings covering well over 20x the
	// requested duration with no gaps. The scan must hit its round cap
	// and return no suggestion instead of looping.
	var bookings []model.Booking
	for i := 0; i < 30; i++ {
		start := at(13, 0).Add(time.Duration(i) * time.Hour)
		bookings = append(bookings, booking(
			string(rune('a'+i%26))+"-chain", "res-1", model.StatusConfirmed, start, start.Add(time.Hour),
		))
	}
	engine := newTestEngine(&memoryRepository{bookings: bookings})

	decision, err := engine.Check(context.Background(), Request{
		ResourceID: "res-1",
		StartTime:  at(13, 0),
		EndTime:    at(14, 0),
		IsNew:      true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision.Admitted || decision.Reason != ReasonConflict {
		t.Fatalf("expected conflict rejection, got %+v", decision)
	}
	if decision.Suggestion != nil {
		t.Errorf("expected no suggestion once the scan cap is reached, got %+v", decision.Suggestion)
	}
}

func TestSuggest_IgnoresInactiveAndForeignBookings(t *testing.T) {
	// A cancelled booking after the conflict must not push the
	// suggestion further out, and another resource's schedule is
	// irrelevant.
	engine := newTestEngine(&memoryRepository{bookings: []model.Booking{
		booking("b1", "res-1", model.StatusConfirmed, at(14, 0), at(15, 0)),
		booking("b2", "res-1", model.StatusCancelled, at(15, 0), at(16, 0)),
		booking("b3", "res-2", model.StatusConfirmed, at(15, 0), at(16, 0)),
	}})

	decision, err := engine.Check(context.Background(), Request{
		ResourceID: "res-1",
		StartTime:  at(14, 0),
		EndTime:    at(15, 0),
		IsNew:      true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision.Suggestion == nil {
		t.Fatal("expected a suggestion")
	}
	if !decision.Suggestion.StartTime.Equal(at(15, 0)) {
		t.Errorf("suggestion start = %v, want 15:00", decision.Suggestion.StartTime)
	}
}

func TestSuggest_ExcludesBookingBeingEdited(t *testing.T) {
	// Shifting b1 one hour later conflicts with b2; b1's own old
	// interval must not affect the scan.
	engine := newTestEngine(&memoryRepository{bookings: []model.Booking{
		booking("b1", "res-1", model.StatusConfirmed, at(14, 0), at(15, 0)),
		booking("b2", "res-1", model.StatusConfirmed, at(15, 0), at(16, 0)),
	}})

	decision, err := engine.Check(context.Background(), Request{
		ResourceID:       "res-1",
		StartTime:        at(15, 0),
		EndTime:          at(16, 0),
		ExcludeBookingID: "b1",
		IsNew:            false,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision.Admitted || decision.Reason != ReasonConflict {
		t.Fatalf("expected conflict rejection, got %+v", decision)
	}
	if decision.Suggestion == nil {
		t.Fatal("expected a suggestion")
	}
	if !decision.Suggestion.StartTime.Equal(at(16, 0)) || !decision.Suggestion.EndTime.Equal(at(17, 0)) {
		t.Errorf("suggestion = [%v, %v), want [16:00, 17:00)", decision.Suggestion.StartTime, decision.Suggestion.EndTime)
	}
}

package validator

import (
	"strings"
	"testing"
	"time"

	"resbook/pkg/logger"
	"resbook/pkg/model"
)

func newTestValidator() *BookingValidator {
	log := logger.New(logger.Config{
		Level:     "info",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	})
	return NewBookingValidator(log)
}

func validBooking() *model.Booking {
	start := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)
	return &model.Booking{
		ResourceID: "6563f0d1a2b3c4d5e6f70001",
		UserID:     "alice@example.com",
		StartTime:  start,
		EndTime:    start.Add(time.Hour),
		Status:     model.StatusPending,
	}
}

func TestValidate(t *testing.T) {
	v := newTestValidator()

	tests := []struct {
		name      string
		mutate    func(b *model.Booking)
		wantError bool
		wantField string
	}{
		{
			name:      "valid booking",
			mutate:    func(b *model.Booking) {},
			wantError: false,
		},
		{
			name:      "missing resource id",
			mutate:    func(b *model.Booking) { b.ResourceID = "" },
			wantError: true,
			wantField: "ResourceID",
		},
		{
			name:      "malformed resource id",
			mutate:    func(b *model.Booking) { b.ResourceID = "not-an-object-id" },
			wantError: true,
			wantField: "ResourceID",
		},
		{
			name:      "missing user id",
			mutate:    func(b *model.Booking) { b.UserID = "" },
			wantError: true,
			wantField: "UserID",
		},
		{
			name:      "unknown status",
			mutate:    func(b *model.Booking) { b.Status = "maybe" },
			wantError: true,
			wantField: "Status",
		},
		{
			name:      "rejected status is accepted",
			mutate:    func(b *model.Booking) { b.Status = model.StatusRejected },
			wantError: false,
		},
		{
			name:      "notes too long",
			mutate:    func(b *model.Booking) { b.Notes = strings.Repeat("x", 2001) },
			wantError: true,
			wantField: "Notes",
		},
		{
			name: "end before start passes field validation",
			mutate: func(b *model.Booking) {
				b.EndTime = b.StartTime.Add(-time.Hour)
			},
			wantError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			booking := validBooking()
			tt.mutate(booking)

			err := v.Validate(booking)
			if tt.wantError && err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !tt.wantError && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantField != "" && !strings.Contains(err.Error(), tt.wantField) {
				t.Errorf("expected error mentioning %s, got: %v", tt.wantField, err)
			}
		})
	}
}

func TestValidateUpdate(t *testing.T) {
	v := newTestValidator()

	start := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	notes := "updated notes"

	tests := []struct {
		name      string
		update    *model.BookingUpdate
		wantError bool
	}{
		{
			name:      "empty update",
			update:    &model.BookingUpdate{},
			wantError: false,
		},
		{
			name:      "notes only",
			update:    &model.BookingUpdate{Notes: &notes},
			wantError: false,
		},
		{
			name:      "full reschedule",
			update:    &model.BookingUpdate{StartTime: &start, EndTime: &end},
			wantError: false,
		},
		{
			name:      "start without end",
			update:    &model.BookingUpdate{StartTime: &start},
			wantError: true,
		},
		{
			name:      "end without start",
			update:    &model.BookingUpdate{EndTime: &end},
			wantError: true,
		},
		{
			name:      "invalid status",
			update:    &model.BookingUpdate{Status: "archived"},
			wantError: true,
		},
		{
			name:      "malformed resource id",
			update:    &model.BookingUpdate{ResourceID: "nope"},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateUpdate(tt.update)
			if tt.wantError && err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !tt.wantError && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

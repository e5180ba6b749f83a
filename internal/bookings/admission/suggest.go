package admission

import (
	"context"
	"time"

	"resbook/pkg/model"
)

// suggestNextSlot proposes the earliest free interval of the requested
// duration, or nil when the scan cap is exhausted.
//
// This is a greedy forward scan, not a global free-interval search: the
// candidate start only ever sits at an existing booking's end time. That
// is sufficient because any free interval of the required duration must
// begin at or after some existing end time (the originally requested
// start is already known to conflict).
func (e *Engine) suggestNextSlot(ctx context.Context, req Request, now time.Time, conflicts []model.Booking) (*Interval, error) {
	duration := req.EndTime.Sub(req.StartTime)

	// Seed at the end of the latest-ending booking among those that
	// actually overlapped the request.
	candidateStart := conflicts[0].EndTime
	for _, b := range conflicts[1:] {
		if b.EndTime.After(candidateStart) {
			candidateStart = b.EndTime
		}
	}

	future, err := e.repo.FindActiveFuture(ctx, req.ResourceID, now, req.ExcludeBookingID)
	if err != nil {
		return nil, err
	}

	for round := 0; round < e.scanRounds; round++ {
		candidateEnd := candidateStart.Add(duration)

		clash, found := firstClash(future, candidateStart, candidateEnd)
		if !found {
			return &Interval{StartTime: candidateStart, EndTime: candidateEnd}, nil
		}

		candidateStart = clash.EndTime
	}

	// Cap reached under a back-to-back booking chain. The caller falls
	// back to a generic "try a different time" message.
	return nil, nil
}

// firstClash returns the first booking in the end-time-ordered list that
// overlaps [start, end).
func firstClash(bookings []model.Booking, start, end time.Time) (model.Booking, bool) {
	for _, b := range bookings {
		if Overlaps(start, end, b.StartTime, b.EndTime) {
			return b, true
		}
	}
	return model.Booking{}, false
}

// Package admission decides whether a proposed booking interval may be
// written. It combines structural checks (ordering, lead time, past
// start) with overlap detection against the resource's active bookings,
// and enriches conflict rejections with an alternative-slot suggestion.
//
// The engine is a pure computation over data fetched through its
// Repository: it never persists anything and never sends notifications.
// The check and the eventual insert are not atomic; callers must
// serialize admission per resource (the booking service does this with a
// per-resource lock) or tolerate the race window.
package admission

import (
	"context"
	"time"

	"resbook/pkg/clock"
	"resbook/pkg/model"
)

// Rejection reasons. All four are expected, user-correctable outcomes,
// not system faults.
const (
	ReasonLeadTime = "lead_time_violation"
	ReasonOrdering = "ordering_violation"
	ReasonPast     = "past_violation"
	ReasonConflict = "conflict"
)

// Repository is the read-only view of stored bookings the engine needs.
type Repository interface {
	// FindActiveOverlapping returns all active bookings for the resource
	// whose [start_time, end_time) interval overlaps [start, end),
	// excluding excludeID when non-empty.
	FindActiveOverlapping(ctx context.Context, resourceID string, start, end time.Time, excludeID string) ([]model.Booking, error)

	// FindActiveFuture returns all active bookings for the resource whose
	// end_time is strictly after now, excluding excludeID when non-empty,
	// ordered by end_time ascending.
	FindActiveFuture(ctx context.Context, resourceID string, now time.Time, excludeID string) ([]model.Booking, error)
}

// Request is a candidate booking interval to admit.
type Request struct {
	ResourceID string
	StartTime  time.Time
	EndTime    time.Time

	// ExcludeBookingID names the booking being edited, so it is not
	// compared against itself. Empty for new bookings.
	ExcludeBookingID string

	// IsNew marks a booking with no prior persisted state. Lead-time and
	// past-start checks apply to new bookings only: an update may touch a
	// booking whose time has already elapsed.
	IsNew bool
}

// Interval is a half-open [start, end) time range.
type Interval struct {
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

// Decision is the outcome of an admission check. When Admitted is false,
// Reason names the first failed check and the remaining fields carry its
// details.
type Decision struct {
	Admitted bool
	Reason   string

	// EarliestStart is the first acceptable start instant, set for
	// lead-time rejections.
	EarliestStart time.Time

	// Conflicts holds up to MaxConflictDetails overlapping intervals, set
	// for conflict rejections.
	Conflicts []Interval

	// Suggestion is the earliest free interval of the requested duration,
	// if the forward scan found one. Nil when the scan cap was exhausted.
	Suggestion *Interval
}

// Options tune the engine. Zero values fall back to the defaults below.
type Options struct {
	LeadTime             time.Duration
	MaxConflictDetails   int
	SuggestionScanRounds int
}

const (
	defaultLeadTime             = 30 * time.Minute
	defaultMaxConflictDetails   = 3
	defaultSuggestionScanRounds = 20
)

type Engine struct {
	repo       Repository
	clk        clock.Clock
	leadTime   time.Duration
	maxDetails int
	scanRounds int
}

func NewEngine(repo Repository, clk clock.Clock, opts Options) *Engine {
	if opts.LeadTime <= 0 {
		opts.LeadTime = defaultLeadTime
	}
	if opts.MaxConflictDetails <= 0 {
		opts.MaxConflictDetails = defaultMaxConflictDetails
	}
	if opts.SuggestionScanRounds <= 0 {
		opts.SuggestionScanRounds = defaultSuggestionScanRounds
	}
	if clk == nil {
		clk = clock.System()
	}

	return &Engine{
		repo:       repo,
		clk:        clk,
		leadTime:   opts.LeadTime,
		maxDetails: opts.MaxConflictDetails,
		scanRounds: opts.SuggestionScanRounds,
	}
}

// Check runs the admission checks in order; the first failure wins.
// Repository errors propagate unchanged, they are not rejections.
func (e *Engine) Check(ctx context.Context, req Request) (Decision, error) {
	now := e.clk.Now()

	if req.IsNew {
		// An already-elapsed start would also trip the lead-time check;
		// report it as a past start, the more specific rejection.
		if req.StartTime.Before(now) {
			return Decision{Reason: ReasonPast}, nil
		}

		earliest := now.Add(e.leadTime)
		if req.StartTime.Before(earliest) {
			return Decision{Reason: ReasonLeadTime, EarliestStart: earliest}, nil
		}
	}

	if !req.EndTime.After(req.StartTime) {
		return Decision{Reason: ReasonOrdering}, nil
	}

	conflicts, err := e.repo.FindActiveOverlapping(ctx, req.ResourceID, req.StartTime, req.EndTime, req.ExcludeBookingID)
	if err != nil {
		return Decision{}, err
	}

	if len(conflicts) == 0 {
		return Decision{Admitted: true}, nil
	}

	decision := Decision{
		Reason:    ReasonConflict,
		Conflicts: summarize(conflicts, e.maxDetails),
	}

	suggestion, err := e.suggestNextSlot(ctx, req, now, conflicts)
	if err != nil {
		return Decision{}, err
	}
	decision.Suggestion = suggestion

	return decision, nil
}

// Overlaps reports whether two half-open intervals [aStart, aEnd) and
// [bStart, bEnd) intersect. Adjacency is not overlap: an interval ending
// exactly when another starts leaves both free.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

func summarize(conflicts []model.Booking, limit int) []Interval {
	if len(conflicts) > limit {
		conflicts = conflicts[:limit]
	}

	intervals := make([]Interval, 0, len(conflicts))
	for _, b := range conflicts {
		intervals = append(intervals, Interval{StartTime: b.StartTime, EndTime: b.EndTime})
	}
	return intervals
}

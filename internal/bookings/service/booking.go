package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"resbook/internal/bookings/admission"
	bookingserrors "resbook/internal/bookings/errors"
	"resbook/internal/bookings/repository"
	"resbook/internal/bookings/validator"
	"resbook/internal/events"
	resourceserrors "resbook/internal/resources/errors"
	"resbook/pkg/config"
	apperrors "resbook/pkg/errors"
	"resbook/pkg/model"
	"resbook/pkg/sanitizer"
)

type BookingService interface {
	Create(ctx context.Context, booking *model.Booking) error
	GetByID(ctx context.Context, id string) (*model.Booking, error)
	GetAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, int64, error)
	Update(ctx context.Context, id string, updates *model.BookingUpdate) error
	Delete(ctx context.Context, id string) error
	SearchByResource(ctx context.Context, resourceID string, startTime, endTime *time.Time, limit int, offset int64) ([]*model.Booking, int64, error)
}

// ResourceProvider is the slice of the resources module the booking
// write path needs: existence and availability of the target resource.
type ResourceProvider interface {
	FindByID(ctx context.Context, id string) (*model.Resource, error)
}

type bookingService struct {
	repo      repository.BookingRepository
	lockRepo  repository.BookingLockRepository
	resources ResourceProvider
	engine    *admission.Engine
	validator *validator.BookingValidator
	publisher events.Publisher
	cfg       *config.Config
}

func NewBookingService(
	repo repository.BookingRepository,
	lockRepo repository.BookingLockRepository,
	resources ResourceProvider,
	engine *admission.Engine,
	validator *validator.BookingValidator,
	publisher events.Publisher,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		repo:      repo,
		lockRepo:  lockRepo,
		resources: resources,
		engine:    engine,
		validator: validator,
		publisher: publisher,
		cfg:       cfg,
	}
}

func (s *bookingService) Create(ctx context.Context, booking *model.Booking) error {
	s.applyDefaults(booking)
	s.sanitize(booking)
	if err := s.validate(booking); err != nil {
		return err
	}

	if err := s.checkResourceAvailable(ctx, booking.ResourceID); err != nil {
		return err
	}

	// The admission check and the insert are not atomic on their own;
	// the per-resource advisory lock serializes concurrent admissions
	// for the same resource.
	lockID, err := s.acquireResourceLock(ctx, booking.ResourceID)
	if err != nil {
		return err
	}
	defer func() {
		if releaseErr := s.releaseResourceLock(ctx, lockID); releaseErr != nil {
			s.cfg.Log.Warn("Failed to release booking lock", "lock_id", lockID, "error", releaseErr)
		}
	}()

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.admit(sessCtx, admission.Request{
			ResourceID: booking.ResourceID,
			StartTime:  booking.StartTime,
			EndTime:    booking.EndTime,
			IsNew:      true,
		}); err != nil {
			return err
		}

		if err := s.repo.Create(sessCtx, booking); err != nil {
			return apperrors.Internal("Failed to create booking", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to create booking", "error", err)
		return err
	}

	s.publish(ctx, events.BookingEvent{
		Kind:       events.KindCreated,
		Booking:    *booking,
		OccurredAt: time.Now().UTC(),
	})

	s.cfg.Log.Info("Booking created successfully",
		"id", booking.ID,
		"resource_id", booking.ResourceID,
		"start_time", booking.StartTime,
	)
	return nil
}

func (s *bookingService) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Booking", id)
		}
		if errors.Is(err, bookingserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid booking ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve booking", err)
	}

	return booking, nil
}

func (s *bookingService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, int64, error) {
	var count int64
	var bookings []*model.Booking
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count bookings", "error", errCount)
			errCount = apperrors.Internal("Failed to count bookings", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		bookings, errFind = s.repo.FindAll(ctx, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list bookings", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve bookings", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return bookings, count, nil
}

func (s *bookingService) Update(ctx context.Context, id string, updates *model.BookingUpdate) error {
	if id == "" {
		return apperrors.InvalidInput("Booking ID cannot be empty")
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Booking", id)
		}
		if errors.Is(err, bookingserrors.ErrInvalidID) {
			return apperrors.InvalidInput("Invalid booking ID format")
		}
		return apperrors.Internal("Failed to check booking existence", err)
	}

	if err := s.validator.ValidateUpdate(updates); err != nil {
		s.cfg.Log.Warn("Booking update validation failed", "id", id, "error", err)
		return apperrors.Validation("Invalid update input", map[string]any{"error": err.Error()})
	}

	merged := s.mergeBookingUpdates(existing, updates)
	s.sanitize(merged)
	if err := s.validate(merged); err != nil {
		return err
	}

	// Only a request carrying resource_id, start_time and end_time
	// re-enters the admission engine. Partial updates (notes, status)
	// proceed unconditionally with respect to scheduling rules.
	if updates.TouchesSchedule() {
		err = s.updateWithAdmission(ctx, id, merged)
	} else {
		err = s.updateDirect(ctx, id, merged)
	}
	if err != nil {
		s.cfg.Log.Error("Failed to update booking", "id", id, "error", err)
		return err
	}

	s.publish(ctx, events.BookingEvent{
		Kind:       eventKindForUpdate(existing, updates),
		Booking:    *merged,
		OldStatus:  existing.Status,
		OccurredAt: time.Now().UTC(),
	})

	s.cfg.Log.Info("Booking updated successfully", "id", id)
	return nil
}

func (s *bookingService) updateWithAdmission(ctx context.Context, id string, merged *model.Booking) error {
	if err := s.checkResourceAvailable(ctx, merged.ResourceID); err != nil {
		return err
	}

	lockID, err := s.acquireResourceLock(ctx, merged.ResourceID)
	if err != nil {
		return err
	}
	defer func() {
		if releaseErr := s.releaseResourceLock(ctx, lockID); releaseErr != nil {
			s.cfg.Log.Warn("Failed to release booking lock", "lock_id", lockID, "error", releaseErr)
		}
	}()

	return s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.admit(sessCtx, admission.Request{
			ResourceID:       merged.ResourceID,
			StartTime:        merged.StartTime,
			EndTime:          merged.EndTime,
			ExcludeBookingID: id,
			IsNew:            false,
		}); err != nil {
			return err
		}

		if _, err := s.repo.Update(sessCtx, id, merged); err != nil {
			return apperrors.Internal("Failed to update booking", err)
		}
		return nil
	})
}

func (s *bookingService) updateDirect(ctx context.Context, id string, merged *model.Booking) error {
	if _, err := s.repo.Update(ctx, id, merged); err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Booking", id)
		}
		return apperrors.Internal("Failed to update booking", err)
	}
	return nil
}

func (s *bookingService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Booking ID cannot be empty")
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Booking", id)
		}
		if errors.Is(err, bookingserrors.ErrInvalidID) {
			return apperrors.InvalidInput("Invalid booking ID format")
		}
		return apperrors.Internal("Failed to check booking existence", err)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Booking", id)
		}
		return apperrors.Internal("Failed to delete booking", err)
	}

	s.publish(ctx, events.BookingEvent{
		Kind:       events.KindCancelled,
		Booking:    *existing,
		OldStatus:  existing.Status,
		OccurredAt: time.Now().UTC(),
	})

	s.cfg.Log.Info("Booking deleted successfully", "id", id)
	return nil
}

func (s *bookingService) SearchByResource(ctx context.Context, resourceID string, startTime, endTime *time.Time, limit int, offset int64) ([]*model.Booking, int64, error) {
	if resourceID == "" {
		return nil, 0, apperrors.InvalidInput("Resource ID is required")
	}

	var count int64
	var bookings []*model.Booking
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		var err error
		count, err = s.repo.CountByResource(ctx, resourceID, startTime, endTime)
		if err != nil {
			s.cfg.Log.Error("Failed to count bookings by resource",
				"resource_id", resourceID,
				"error", err,
			)
			errCount = apperrors.Internal("Failed to count bookings", err)
		}
	}()

	go func() {
		defer wg.Done()
		var err error
		bookings, err = s.repo.FindByResource(ctx, resourceID, startTime, endTime, limit, offset)
		if err != nil {
			s.cfg.Log.Error("Failed to search bookings",
				"resource_id", resourceID,
				"limit", limit,
				"offset", offset,
				"error", err,
			)
			errFind = apperrors.Internal("Failed to search bookings", err)
		}
	}()

	wg.Wait()

	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	s.cfg.Log.Debug("Booking search completed",
		"resource_id", resourceID,
		"count", len(bookings),
		"total_count", count,
	)
	return bookings, count, nil
}

// --- Helpers ---

func (s *bookingService) sanitize(b *model.Booking) {
	b.UserID = sanitizer.SanitizeUserID(b.UserID)
	b.Notes = sanitizer.SanitizeNotes(b.Notes)
}

func (s *bookingService) applyDefaults(b *model.Booking) {
	if b.Status == "" {
		b.Status = model.StatusPending
	}
}

func (s *bookingService) mergeBookingUpdates(existing *model.Booking, updates *model.BookingUpdate) *model.Booking {
	merged := *existing

	if updates.ResourceID != "" {
		merged.ResourceID = updates.ResourceID
	}
	if updates.StartTime != nil {
		merged.StartTime = *updates.StartTime
	}
	if updates.EndTime != nil {
		merged.EndTime = *updates.EndTime
	}
	if updates.Status != "" {
		merged.Status = updates.Status
	}
	if updates.Notes != nil {
		merged.Notes = *updates.Notes
	}

	return &merged
}

func (s *bookingService) validate(booking *model.Booking) error {
	if err := s.validator.Validate(booking); err != nil {
		s.cfg.Log.Warn("Booking validation failed", "error", err)
		return apperrors.Validation("Booking validation failed", map[string]any{"error": err.Error()})
	}
	return nil
}

func (s *bookingService) checkResourceAvailable(ctx context.Context, resourceID string) error {
	resource, err := s.resources.FindByID(ctx, resourceID)
	if err != nil {
		if errors.Is(err, resourceserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Resource", resourceID)
		}
		if errors.Is(err, resourceserrors.ErrInvalidID) {
			return apperrors.InvalidInput("Invalid resource ID format")
		}
		return apperrors.Internal("Failed to check resource", err)
	}

	if !resource.IsAvailable {
		return apperrors.Validation("Resource is not available for booking", map[string]any{
			"resource_id": resourceID,
		})
	}
	return nil
}

// admit runs the admission engine and maps a rejection to its API error.
func (s *bookingService) admit(ctx context.Context, req admission.Request) error {
	decision, err := s.engine.Check(ctx, req)
	if err != nil {
		return apperrors.Internal("Failed to check booking admission", err)
	}
	if decision.Admitted {
		return nil
	}
	return rejectionError(decision, s.cfg.BookingLeadTime)
}

func rejectionError(decision admission.Decision, leadTime time.Duration) error {
	switch decision.Reason {
	case admission.ReasonLeadTime:
		return apperrors.Validation(
			fmt.Sprintf("Bookings must be made at least %d minutes in advance", int(leadTime.Minutes())),
			map[string]any{
				"reason":             decision.Reason,
				"earliest_available": decision.EarliestStart.Format(time.RFC3339),
			},
		)
	case admission.ReasonOrdering:
		return apperrors.Validation("End time must be after start time", map[string]any{
			"reason": decision.Reason,
		})
	case admission.ReasonPast:
		return apperrors.Validation("Cannot book in the past", map[string]any{
			"reason": decision.Reason,
		})
	case admission.ReasonConflict:
		details := map[string]any{
			"reason":    decision.Reason,
			"conflicts": decision.Conflicts,
		}
		if decision.Suggestion != nil {
			details["suggested_slot"] = decision.Suggestion
		} else {
			details["hint"] = "No nearby free slot found, please try a different time"
		}
		return apperrors.ConflictWithDetails("Booking time conflicts with existing bookings", details)
	default:
		return apperrors.Internal("Unknown admission rejection", fmt.Errorf("reason %q", decision.Reason))
	}
}

// eventKindForUpdate distinguishes a schedule/notes edit from a status
// transition, and cancellation from other transitions.
func eventKindForUpdate(existing *model.Booking, updates *model.BookingUpdate) string {
	if updates.Status == "" || updates.Status == existing.Status {
		return events.KindUpdated
	}
	if updates.Status == model.StatusCancelled {
		return events.KindCancelled
	}
	return events.KindStatusChanged
}

func (s *bookingService) publish(ctx context.Context, event events.BookingEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishBookingEvent(ctx, event); err != nil {
		s.cfg.Log.Error("Failed to publish booking event",
			"kind", event.Kind,
			"booking_id", event.Booking.ID,
			"error", err,
		)
	}
}

// acquireResourceLock creates an advisory lock serializing admissions
// for a resource. Returns the lock ID, or a conflict error if another
// request holds it.
func (s *bookingService) acquireResourceLock(ctx context.Context, resourceID string) (string, error) {
	lockID := fmt.Sprintf("booking_lock_%s", resourceID)

	lock := &model.BookingLock{
		ID:        lockID,
		ExpiresAt: time.Now().Add(s.cfg.BookingLockTTL),
	}

	_, err := s.lockRepo.Create(ctx, lock)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", apperrors.Conflict("This resource is currently being booked by another request. Please try again.")
		}
		return "", apperrors.Internal("Failed to acquire booking lock", err)
	}

	return lockID, nil
}

func (s *bookingService) releaseResourceLock(ctx context.Context, lockID string) error {
	return s.lockRepo.Delete(ctx, lockID)
}

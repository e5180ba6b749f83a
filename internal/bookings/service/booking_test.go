package service

import (
	"context"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"resbook/internal/bookings/admission"
	"resbook/internal/bookings/validator"
	"resbook/internal/events"
	"resbook/pkg/clock"
	"resbook/pkg/config"
	mongotx "resbook/pkg/db/mongo"
	apperrors "resbook/pkg/errors"
	"resbook/pkg/logger"
	"resbook/pkg/model"
)

const (
	testResourceID = "6563f0d1a2b3c4d5e6f70001"
	testBookingID  = "6563f0d1a2b3c4d5e6f70099"
)

var testNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

// Mock repository for booking service tests
type mockBookingRepository struct {
	createFunc                func(ctx context.Context, booking *model.Booking) error
	findByIDFunc              func(ctx context.Context, id string) (*model.Booking, error)
	updateFunc                func(ctx context.Context, id string, booking *model.Booking) (*mongo.UpdateResult, error)
	deleteFunc                func(ctx context.Context, id string) error
	findActiveOverlappingFunc func(ctx context.Context, resourceID string, start, end time.Time, excludeID string) ([]model.Booking, error)
	findActiveFutureFunc      func(ctx context.Context, resourceID string, now time.Time, excludeID string) ([]model.Booking, error)

	overlapCalls int
	createdCalls int
	updateCalls  int
}

func (m *mockBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	m.createdCalls++
	if m.createFunc != nil {
		return m.createFunc(ctx, booking)
	}
	booking.ID = testBookingID
	return nil
}

func (m *mockBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockBookingRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, error) {
	return []*model.Booking{}, nil
}

func (m *mockBookingRepository) FindByResource(ctx context.Context, resourceID string, startTime, endTime *time.Time, limit int, offset int64) ([]*model.Booking, error) {
	return []*model.Booking{}, nil
}

func (m *mockBookingRepository) CountByResource(ctx context.Context, resourceID string, startTime, endTime *time.Time) (int64, error) {
	return 0, nil
}

func (m *mockBookingRepository) Count(ctx context.Context) (int64, error) {
	return 0, nil
}

func (m *mockBookingRepository) Update(ctx context.Context, id string, booking *model.Booking) (*mongo.UpdateResult, error) {
	m.updateCalls++
	if m.updateFunc != nil {
		return m.updateFunc(ctx, id, booking)
	}
	return &mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil
}

func (m *mockBookingRepository) Delete(ctx context.Context, id string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

func (m *mockBookingRepository) FindActiveOverlapping(ctx context.Context, resourceID string, start, end time.Time, excludeID string) ([]model.Booking, error) {
	m.overlapCalls++
	if m.findActiveOverlappingFunc != nil {
		return m.findActiveOverlappingFunc(ctx, resourceID, start, end, excludeID)
	}
	return nil, nil
}

func (m *mockBookingRepository) FindActiveFuture(ctx context.Context, resourceID string, now time.Time, excludeID string) ([]model.Booking, error) {
	if m.findActiveFutureFunc != nil {
		return m.findActiveFutureFunc(ctx, resourceID, now, excludeID)
	}
	return nil, nil
}

func (m *mockBookingRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	sessCtx := mongo.NewSessionContext(ctx, nil)
	return fn(sessCtx)
}

type mockLockRepository struct {
	createFunc func(ctx context.Context, lock *model.BookingLock) (*model.BookingLock, error)

	acquireCalls int
	releaseCalls int
}

func (m *mockLockRepository) Create(ctx context.Context, lock *model.BookingLock) (*model.BookingLock, error) {
	m.acquireCalls++
	if m.createFunc != nil {
		return m.createFunc(ctx, lock)
	}
	return lock, nil
}

func (m *mockLockRepository) Delete(ctx context.Context, lockID string) error {
	m.releaseCalls++
	return nil
}

type mockResourceProvider struct {
	findByIDFunc func(ctx context.Context, id string) (*model.Resource, error)
}

func (m *mockResourceProvider) FindByID(ctx context.Context, id string) (*model.Resource, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return &model.Resource{ID: id, Name: "Room A", Capacity: 4, IsAvailable: true}, nil
}

type mockPublisher struct {
	published []events.BookingEvent
}

func (m *mockPublisher) PublishBookingEvent(ctx context.Context, event events.BookingEvent) error {
	m.published = append(m.published, event)
	return nil
}

func (m *mockPublisher) Close() error { return nil }

func testConfig() *config.Config {
	log := logger.New(logger.Config{
		Level:     "error",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	})

	return &config.Config{
		Log:             log,
		ReadTimeout:     5 * time.Second,
		WriteTimeout:    5 * time.Second,
		BookingLeadTime: 30 * time.Minute,
		BookingLockTTL:  10 * time.Second,
	}
}

type testDeps struct {
	repo      *mockBookingRepository
	locks     *mockLockRepository
	resources *mockResourceProvider
	publisher *mockPublisher
}

func newTestService(t *testing.T, deps *testDeps) BookingService {
	t.Helper()

	cfg := testConfig()
	engine := admission.NewEngine(deps.repo, clock.Fixed{Instant: testNow}, admission.Options{
		LeadTime: cfg.BookingLeadTime,
	})

	return NewBookingService(
		deps.repo,
		deps.locks,
		deps.resources,
		engine,
		validator.NewBookingValidator(cfg.Log),
		deps.publisher,
		cfg,
	)
}

func defaultDeps() *testDeps {
	return &testDeps{
		repo:      &mockBookingRepository{},
		locks:     &mockLockRepository{},
		resources: &mockResourceProvider{},
		publisher: &mockPublisher{},
	}
}

func newBookingRequest() *model.Booking {
	return &model.Booking{
		ResourceID: testResourceID,
		UserID:     "alice@example.com",
		StartTime:  testNow.Add(2 * time.Hour),
		EndTime:    testNow.Add(3 * time.Hour),
	}
}

func TestCreate_Success(t *testing.T) {
	deps := defaultDeps()
	service := newTestService(t, deps)

	booking := newBookingRequest()
	if err := service.Create(context.Background(), booking); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if booking.Status != model.StatusPending {
		t.Errorf("expected status to default to pending, got %q", booking.Status)
	}
	if booking.ID != testBookingID {
		t.Errorf("expected booking ID to be set, got %q", booking.ID)
	}
	if deps.locks.acquireCalls != 1 || deps.locks.releaseCalls != 1 {
		t.Errorf("expected lock acquired and released once, got acquire=%d release=%d",
			deps.locks.acquireCalls, deps.locks.releaseCalls)
	}
	if len(deps.publisher.published) != 1 {
		t.Fatalf("expected 1 event, got %d", len(deps.publisher.published))
	}
	if deps.publisher.published[0].Kind != events.KindCreated {
		t.Errorf("expected %q event, got %q", events.KindCreated, deps.publisher.published[0].Kind)
	}
}

func TestCreate_ConflictReturnsSuggestion(t *testing.T) {
	existing := model.Booking{
		ID:         "6563f0d1a2b3c4d5e6f70011",
		ResourceID: testResourceID,
		Status:     model.StatusConfirmed,
		StartTime:  testNow.Add(2 * time.Hour),
		EndTime:    testNow.Add(4 * time.Hour),
	}

	deps := defaultDeps()
	deps.repo.findActiveOverlappingFunc = func(ctx context.Context, resourceID string, start, end time.Time, excludeID string) ([]model.Booking, error) {
		return []model.Booking{existing}, nil
	}
	deps.repo.findActiveFutureFunc = func(ctx context.Context, resourceID string, now time.Time, excludeID string) ([]model.Booking, error) {
		return []model.Booking{existing}, nil
	}
	service := newTestService(t, deps)

	booking := newBookingRequest()
	booking.StartTime = testNow.Add(3 * time.Hour)
	booking.EndTime = testNow.Add(5 * time.Hour)

	err := service.Create(context.Background(), booking)
	if err == nil {
		t.Fatal("expected conflict error, got nil")
	}

	appErr := apperrors.AsAppError(err)
	if appErr == nil {
		t.Fatalf("expected AppError, got %T: %v", err, err)
	}
	if appErr.Code != apperrors.CodeConflict {
		t.Errorf("expected code %s, got %s", apperrors.CodeConflict, appErr.Code)
	}
	if _, ok := appErr.Details["conflicts"]; !ok {
		t.Error("expected conflicts detail in error")
	}
	if _, ok := appErr.Details["suggested_slot"]; !ok {
		t.Error("expected suggested_slot detail in error")
	}

	if deps.repo.createdCalls != 0 {
		t.Errorf("expected no insert on rejection, got %d", deps.repo.createdCalls)
	}
	if len(deps.publisher.published) != 0 {
		t.Errorf("expected no event on rejection, got %d", len(deps.publisher.published))
	}
	if deps.locks.releaseCalls != 1 {
		t.Errorf("expected lock released after rejection, got %d", deps.locks.releaseCalls)
	}
}

func TestCreate_LeadTimeRejection(t *testing.T) {
	deps := defaultDeps()
	service := newTestService(t, deps)

	booking := newBookingRequest()
	booking.StartTime = testNow.Add(10 * time.Minute)
	booking.EndTime = testNow.Add(time.Hour)

	err := service.Create(context.Background(), booking)
	if err == nil {
		t.Fatal("expected lead time rejection, got nil")
	}

	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != apperrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if appErr.Details["reason"] != admission.ReasonLeadTime {
		t.Errorf("expected reason %q, got %v", admission.ReasonLeadTime, appErr.Details["reason"])
	}

	earliest, ok := appErr.Details["earliest_available"].(string)
	if !ok {
		t.Fatal("expected earliest_available detail")
	}
	if earliest != testNow.Add(30*time.Minute).Format(time.RFC3339) {
		t.Errorf("unexpected earliest_available: %s", earliest)
	}
}

func TestCreate_ResourceNotAvailable(t *testing.T) {
	deps := defaultDeps()
	deps.resources.findByIDFunc = func(ctx context.Context, id string) (*model.Resource, error) {
		return &model.Resource{ID: id, Name: "Closed Room", Capacity: 2, IsAvailable: false}, nil
	}
	service := newTestService(t, deps)

	err := service.Create(context.Background(), newBookingRequest())
	if err == nil {
		t.Fatal("expected rejection for unavailable resource, got nil")
	}

	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != apperrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if deps.locks.acquireCalls != 0 {
		t.Errorf("expected no lock attempt for unavailable resource, got %d", deps.locks.acquireCalls)
	}
}

func TestCreate_LockContention(t *testing.T) {
	deps := defaultDeps()
	deps.locks.createFunc = func(ctx context.Context, lock *model.BookingLock) (*model.BookingLock, error) {
		return nil, mongo.WriteException{
			WriteErrors: mongo.WriteErrors{{Code: 11000, Message: "duplicate key"}},
		}
	}
	service := newTestService(t, deps)

	err := service.Create(context.Background(), newBookingRequest())
	if err == nil {
		t.Fatal("expected conflict on held lock, got nil")
	}

	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != apperrors.CodeConflict {
		t.Fatalf("expected conflict error, got %v", err)
	}
	if deps.repo.overlapCalls != 0 {
		t.Errorf("expected admission skipped when lock is held, got %d overlap queries", deps.repo.overlapCalls)
	}
}

func existingBooking() *model.Booking {
	return &model.Booking{
		ID:         testBookingID,
		ResourceID: testResourceID,
		UserID:     "alice@example.com",
		StartTime:  testNow.Add(2 * time.Hour),
		EndTime:    testNow.Add(3 * time.Hour),
		Status:     model.StatusPending,
		Notes:      "original",
	}
}

func TestUpdate_NotesOnlySkipsAdmission(t *testing.T) {
	deps := defaultDeps()
	deps.repo.findByIDFunc = func(ctx context.Context, id string) (*model.Booking, error) {
		return existingBooking(), nil
	}
	service := newTestService(t, deps)

	notes := "bring the projector"
	err := service.Update(context.Background(), testBookingID, &model.BookingUpdate{Notes: &notes})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if deps.repo.overlapCalls != 0 {
		t.Errorf("notes-only update must not run conflict checks, got %d", deps.repo.overlapCalls)
	}
	if deps.locks.acquireCalls != 0 {
		t.Errorf("notes-only update must not take the resource lock, got %d", deps.locks.acquireCalls)
	}
	if deps.repo.updateCalls != 1 {
		t.Errorf("expected one update call, got %d", deps.repo.updateCalls)
	}
	if len(deps.publisher.published) != 1 || deps.publisher.published[0].Kind != events.KindUpdated {
		t.Errorf("expected a single %q event, got %+v", events.KindUpdated, deps.publisher.published)
	}
}

func TestUpdate_RescheduleRunsAdmission(t *testing.T) {
	var capturedExclude string

	deps := defaultDeps()
	deps.repo.findByIDFunc = func(ctx context.Context, id string) (*model.Booking, error) {
		return existingBooking(), nil
	}
	deps.repo.findActiveOverlappingFunc = func(ctx context.Context, resourceID string, start, end time.Time, excludeID string) ([]model.Booking, error) {
		capturedExclude = excludeID
		return nil, nil
	}
	service := newTestService(t, deps)

	start := testNow.Add(4 * time.Hour)
	end := testNow.Add(5 * time.Hour)
	err := service.Update(context.Background(), testBookingID, &model.BookingUpdate{
		ResourceID: testResourceID,
		StartTime:  &start,
		EndTime:    &end,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if deps.repo.overlapCalls != 1 {
		t.Errorf("expected one conflict check, got %d", deps.repo.overlapCalls)
	}
	if capturedExclude != testBookingID {
		t.Errorf("expected booking excluded from its own conflict check, got %q", capturedExclude)
	}
	if deps.locks.acquireCalls != 1 || deps.locks.releaseCalls != 1 {
		t.Errorf("expected lock held around admission, got acquire=%d release=%d",
			deps.locks.acquireCalls, deps.locks.releaseCalls)
	}
}

func TestUpdate_PartialScheduleRejected(t *testing.T) {
	deps := defaultDeps()
	deps.repo.findByIDFunc = func(ctx context.Context, id string) (*model.Booking, error) {
		return existingBooking(), nil
	}
	service := newTestService(t, deps)

	start := testNow.Add(4 * time.Hour)
	err := service.Update(context.Background(), testBookingID, &model.BookingUpdate{
		StartTime: &start,
	})
	if err == nil {
		t.Fatal("expected rejection for start_time without end_time, got nil")
	}

	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != apperrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if deps.repo.updateCalls != 0 {
		t.Errorf("expected no write on invalid update, got %d", deps.repo.updateCalls)
	}
}

func TestUpdate_EventKinds(t *testing.T) {
	tests := []struct {
		name     string
		status   string
		expected string
	}{
		{"status confirmed", model.StatusConfirmed, events.KindStatusChanged},
		{"status cancelled", model.StatusCancelled, events.KindCancelled},
		{"status unchanged", model.StatusPending, events.KindUpdated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps := defaultDeps()
			deps.repo.findByIDFunc = func(ctx context.Context, id string) (*model.Booking, error) {
				return existingBooking(), nil
			}
			service := newTestService(t, deps)

			err := service.Update(context.Background(), testBookingID, &model.BookingUpdate{Status: tt.status})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if len(deps.publisher.published) != 1 {
				t.Fatalf("expected 1 event, got %d", len(deps.publisher.published))
			}
			event := deps.publisher.published[0]
			if event.Kind != tt.expected {
				t.Errorf("expected %q event, got %q", tt.expected, event.Kind)
			}
			if event.OldStatus != model.StatusPending {
				t.Errorf("expected old status recorded, got %q", event.OldStatus)
			}
		})
	}
}

func TestDelete_PublishesCancelled(t *testing.T) {
	deps := defaultDeps()
	deps.repo.findByIDFunc = func(ctx context.Context, id string) (*model.Booking, error) {
		return existingBooking(), nil
	}
	service := newTestService(t, deps)

	if err := service.Delete(context.Background(), testBookingID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(deps.publisher.published) != 1 {
		t.Fatalf("expected 1 event, got %d", len(deps.publisher.published))
	}
	event := deps.publisher.published[0]
	if event.Kind != events.KindCancelled {
		t.Errorf("expected %q event, got %q", events.KindCancelled, event.Kind)
	}
	if event.Booking.ID != testBookingID {
		t.Errorf("expected deleted booking snapshot in event, got %q", event.Booking.ID)
	}
}

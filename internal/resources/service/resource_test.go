package service

import (
	"context"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	resourceserrors "resbook/internal/resources/errors"
	"resbook/internal/resources/validator"
	"resbook/pkg/config"
	apperrors "resbook/pkg/errors"
	"resbook/pkg/logger"
	"resbook/pkg/model"
)

// Mock repository for resource service tests
type mockResourceRepository struct {
	createFunc   func(ctx context.Context, resource *model.Resource) error
	findByIDFunc func(ctx context.Context, id string) (*model.Resource, error)
	updateFunc   func(ctx context.Context, id string, resource *model.Resource) (*mongo.UpdateResult, error)

	capturedResource *model.Resource
}

func (m *mockResourceRepository) Create(ctx context.Context, resource *model.Resource) error {
	m.capturedResource = resource
	if m.createFunc != nil {
		return m.createFunc(ctx, resource)
	}
	resource.ID = "6563f0d1a2b3c4d5e6f70001"
	return nil
}

func (m *mockResourceRepository) FindByID(ctx context.Context, id string) (*model.Resource, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, resourceserrors.ErrNotFound
}

func (m *mockResourceRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Resource, error) {
	return []*model.Resource{}, nil
}

func (m *mockResourceRepository) Count(ctx context.Context) (int64, error) {
	return 0, nil
}

func (m *mockResourceRepository) Update(ctx context.Context, id string, resource *model.Resource) (*mongo.UpdateResult, error) {
	m.capturedResource = resource
	if m.updateFunc != nil {
		return m.updateFunc(ctx, id, resource)
	}
	return &mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil
}

func (m *mockResourceRepository) Delete(ctx context.Context, id string) error {
	return nil
}

func newTestService(t *testing.T, repo *mockResourceRepository) ResourceService {
	t.Helper()

	log := logger.New(logger.Config{
		Level:     "error",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	})
	cfg := &config.Config{
		Log:         log,
		ReadTimeout: 5 * time.Second,
	}

	return NewResourceService(repo, validator.NewResourceValidator(log), cfg)
}

func TestCreate_DefaultsApplied(t *testing.T) {
	repo := &mockResourceRepository{}
	service := newTestService(t, repo)

	resource := &model.Resource{Name: "Conference Room B"}
	if err := service.Create(context.Background(), resource); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !resource.IsAvailable {
		t.Error("expected new resource to start available")
	}
	if resource.Capacity != 1 {
		t.Errorf("expected capacity to default to 1, got %d", resource.Capacity)
	}
	if resource.ID == "" {
		t.Error("expected resource ID to be set after create")
	}
}

func TestCreate_ForcesAvailability(t *testing.T) {
	repo := &mockResourceRepository{}
	service := newTestService(t, repo)

	// A JSON body cannot distinguish is_available:false from the field
	// being absent, so creation always starts available.
	resource := &model.Resource{Name: "Court 1", Capacity: 2, IsAvailable: false}
	if err := service.Create(context.Background(), resource); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !resource.IsAvailable {
		t.Error("expected availability forced on create")
	}
}

func TestCreate_InvalidName(t *testing.T) {
	repo := &mockResourceRepository{}
	service := newTestService(t, repo)

	err := service.Create(context.Background(), &model.Resource{Name: "x"})
	if err == nil {
		t.Fatal("expected validation error for short name, got nil")
	}

	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != apperrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if repo.capturedResource != nil {
		t.Error("expected no write on invalid resource")
	}
}

func TestUpdate_DisableAvailability(t *testing.T) {
	repo := &mockResourceRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Resource, error) {
			return &model.Resource{
				ID:          id,
				Name:        "Room A",
				Capacity:    4,
				IsAvailable: true,
			}, nil
		},
	}
	service := newTestService(t, repo)

	off := false
	err := service.Update(context.Background(), "6563f0d1a2b3c4d5e6f70001", &model.ResourceUpdate{
		IsAvailable: &off,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if repo.capturedResource == nil {
		t.Fatal("expected update to reach the repository")
	}
	if repo.capturedResource.IsAvailable {
		t.Error("expected availability disabled after update")
	}
	if repo.capturedResource.Name != "Room A" {
		t.Errorf("expected untouched fields preserved, got name %q", repo.capturedResource.Name)
	}
}

func TestUpdate_NotFound(t *testing.T) {
	repo := &mockResourceRepository{}
	service := newTestService(t, repo)

	capacity := 10
	err := service.Update(context.Background(), "6563f0d1a2b3c4d5e6f70002", &model.ResourceUpdate{
		Capacity: &capacity,
	})
	if err == nil {
		t.Fatal("expected not found error, got nil")
	}

	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != apperrors.CodeNotFound {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestGetByID_EmptyID(t *testing.T) {
	service := newTestService(t, &mockResourceRepository{})

	_, err := service.GetByID(context.Background(), "")
	if err == nil {
		t.Fatal("expected error for empty ID, got nil")
	}

	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != apperrors.CodeInvalidInput {
		t.Fatalf("expected invalid input error, got %v", err)
	}
}

package service

import (
	"context"
	"errors"
	"sync"

	resourceserrors "resbook/internal/resources/errors"
	"resbook/internal/resources/repository"
	"resbook/internal/resources/validator"
	"resbook/pkg/config"
	apperrors "resbook/pkg/errors"
	"resbook/pkg/model"
	"resbook/pkg/sanitizer"
)

type ResourceService interface {
	Create(ctx context.Context, resource *model.Resource) error
	GetByID(ctx context.Context, id string) (*model.Resource, error)
	GetAll(ctx context.Context, limit int, offset int64) ([]*model.Resource, int64, error)
	Update(ctx context.Context, id string, updates *model.ResourceUpdate) error
	Delete(ctx context.Context, id string) error
}

type resourceService struct {
	repo      repository.ResourceRepository
	validator *validator.ResourceValidator
	cfg       *config.Config
}

func NewResourceService(
	repo repository.ResourceRepository,
	validator *validator.ResourceValidator,
	cfg *config.Config,
) ResourceService {
	return &resourceService{
		repo:      repo,
		validator: validator,
		cfg:       cfg,
	}
}

func (s *resourceService) Create(ctx context.Context, resource *model.Resource) error {
	// New resources start available; administrators disable them
	// explicitly afterwards.
	resource.IsAvailable = true
	if resource.Capacity == 0 {
		resource.Capacity = 1
	}

	s.sanitize(resource)
	if err := s.validate(resource); err != nil {
		return err
	}

	if err := s.repo.Create(ctx, resource); err != nil {
		s.cfg.Log.Error("Failed to create resource", "error", err)
		return apperrors.Internal("Failed to create resource", err)
	}

	s.cfg.Log.Info("Resource created successfully", "id", resource.ID, "name", resource.Name)
	return nil
}

func (s *resourceService) GetByID(ctx context.Context, id string) (*model.Resource, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Resource ID cannot be empty")
	}

	resource, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, resourceserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Resource", id)
		}
		if errors.Is(err, resourceserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid resource ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve resource", err)
	}

	return resource, nil
}

func (s *resourceService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Resource, int64, error) {
	var count int64
	var resources []*model.Resource
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count resources", "error", errCount)
			errCount = apperrors.Internal("Failed to count resources", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		resources, errFind = s.repo.FindAll(ctx, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list resources", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve resources", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return resources, count, nil
}

func (s *resourceService) Update(ctx context.Context, id string, updates *model.ResourceUpdate) error {
	if id == "" {
		return apperrors.InvalidInput("Resource ID cannot be empty")
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, resourceserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Resource", id)
		}
		if errors.Is(err, resourceserrors.ErrInvalidID) {
			return apperrors.InvalidInput("Invalid resource ID format")
		}
		return apperrors.Internal("Failed to check resource existence", err)
	}

	if err := s.validator.ValidateUpdate(updates); err != nil {
		s.cfg.Log.Warn("Resource update validation failed", "id", id, "error", err)
		return apperrors.Validation("Invalid update input", map[string]any{"error": err.Error()})
	}

	merged := s.mergeResourceUpdates(existing, updates)
	s.sanitize(merged)
	if err := s.validate(merged); err != nil {
		return err
	}

	if _, err := s.repo.Update(ctx, id, merged); err != nil {
		if errors.Is(err, resourceserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Resource", id)
		}
		s.cfg.Log.Error("Failed to update resource", "id", id, "error", err)
		return apperrors.Internal("Failed to update resource", err)
	}

	s.cfg.Log.Info("Resource updated successfully", "id", id)
	return nil
}

func (s *resourceService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Resource ID cannot be empty")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, resourceserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Resource", id)
		}
		if errors.Is(err, resourceserrors.ErrInvalidID) {
			return apperrors.InvalidInput("Invalid resource ID format")
		}
		return apperrors.Internal("Failed to delete resource", err)
	}

	s.cfg.Log.Info("Resource deleted successfully", "id", id)
	return nil
}

// --- Helpers ---

func (s *resourceService) sanitize(r *model.Resource) {
	r.Name = sanitizer.SanitizeResourceName(r.Name)
	r.Description = sanitizer.SanitizeNotes(r.Description)
}

func (s *resourceService) mergeResourceUpdates(existing *model.Resource, updates *model.ResourceUpdate) *model.Resource {
	merged := *existing

	if updates.Name != "" {
		merged.Name = updates.Name
	}
	if updates.Description != nil {
		merged.Description = *updates.Description
	}
	if updates.Capacity != nil {
		merged.Capacity = *updates.Capacity
	}
	if updates.IsAvailable != nil {
		merged.IsAvailable = *updates.IsAvailable
	}

	return &merged
}

func (s *resourceService) validate(resource *model.Resource) error {
	if err := s.validator.Validate(resource); err != nil {
		s.cfg.Log.Warn("Resource validation failed", "error", err)
		return apperrors.Validation("Resource validation failed", map[string]any{"error": err.Error()})
	}
	return nil
}

package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/SscSPs/property_fines_app/internal/apperrors"
	"github.com/SscSPs/property_fines_app/internal/core/domain"
	"github.com/SscSPs/property_fines_app/internal/core/ports/external"
	portsrepo "github.com/SscSPs/property_fines_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/property_fines_app/internal/core/ports/services"
	"github.com/SscSPs/property_fines_app/internal/dto"
)

// categoryService manages violation categories
type categoryService struct {
	BaseService
	categoryRepo portsrepo.CategoryRepositoryFacade
}

// NewCategoryService creates a new CategoryService.
func NewCategoryService(categoryRepo portsrepo.CategoryRepositoryFacade, opts ...ServiceOption) portssvc.CategorySvcFacade {
	return &categoryService{
		BaseService:  newBaseService(opts...),
		categoryRepo: categoryRepo,
	}
}

var (
	_ portssvc.CategorySvcFacade = (*categoryService)(nil)
	_ external.CategoryProvider  = (*categoryService)(nil)
)

func (s *categoryService) GetCategory(ctx context.Context, categoryID string) (*domain.ViolationCategory, error) {
	return s.categoryRepo.FindCategoryByID(ctx, categoryID)
}

func (s *categoryService) ListCategories(ctx context.Context, includeInactive bool) ([]domain.ViolationCategory, error) {
	categories, err := s.categoryRepo.ListCategories(ctx, includeInactive)
	if err != nil {
		s.LogError(ctx, err, "Failed to list categories")
		return nil, err
	}
	if categories == nil {
		return []domain.ViolationCategory{}, nil
	}
	return categories, nil
}

func (s *categoryService) GetCategoryStats(ctx context.Context, categoryID string) (*domain.CategoryStats, error) {
	if _, err := s.categoryRepo.FindCategoryByID(ctx, categoryID); err != nil {
		return nil, err
	}
	return s.categoryRepo.GetCategoryStats(ctx, categoryID)
}

func (s *categoryService) CreateCategory(ctx context.Context, req dto.CreateCategoryRequest, actorID string) (*domain.ViolationCategory, error) {
	category := domain.ViolationCategory{
		CategoryID:     uuid.NewString(),
		Name:           strings.TrimSpace(req.Name),
		Description:    req.Description,
		BaseFineAmount: req.BaseFineAmount,
		Severity:       req.Severity,
		IsActive:       true,
		AuditFields:    domain.NewAuditFields(actorID, s.Now()),
	}
	if err := category.Validate(); err != nil {
		return nil, err
	}

	if err := s.categoryRepo.SaveCategory(ctx, category); err != nil {
		if !errors.Is(err, apperrors.ErrDuplicate) {
			s.LogError(ctx, err, "Failed to save category", slog.String("name", category.Name))
		}
		return nil, err
	}
	s.LogInfo(ctx, "Category created", slog.String("category_id", category.CategoryID), slog.String("name", category.Name))
	return &category, nil
}

func (s *categoryService) UpdateCategory(ctx context.Context, categoryID string, req dto.UpdateCategoryRequest, actorID string) (*domain.ViolationCategory, error) {
	category, err := s.categoryRepo.FindCategoryByID(ctx, categoryID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		category.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		category.Description = *req.Description
	}
	if req.BaseFineAmount != nil {
		category.BaseFineAmount = *req.BaseFineAmount
	}
	if req.Severity != nil {
		category.Severity = *req.Severity
	}
	if req.IsActive != nil {
		category.IsActive = *req.IsActive
	}
	if err := category.Validate(); err != nil {
		return nil, err
	}

	category.Touch(actorID, s.Now())
	if err := s.categoryRepo.UpdateCategory(ctx, category); err != nil {
		if !errors.Is(err, apperrors.ErrConcurrentModification) && !errors.Is(err, apperrors.ErrDuplicate) {
			s.LogError(ctx, err, "Failed to update category", slog.String("category_id", categoryID))
		}
		return nil, err
	}
	s.LogInfo(ctx, "Category updated", slog.String("category_id", categoryID))
	return category, nil
}

func (s *categoryService) DeactivateCategory(ctx context.Context, categoryID string, actorID string) error {
	inactive := false
	_, err := s.UpdateCategory(ctx, categoryID, dto.UpdateCategoryRequest{IsActive: &inactive}, actorID)
	return err
}

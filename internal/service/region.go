package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/ksk-project/employee-service/internal/access"
	"github.com/ksk-project/employee-service/internal/models"
)

// RegionService handles region-related business logic
type RegionService struct {
	regions RegionStore
	audit   Auditor
}

// NewRegionService creates a new region service
func NewRegionService(regions RegionStore, audit Auditor) *RegionService {
	return &RegionService{
		regions: regions,
		audit:   audit,
	}
}

// List retrieves regions, optionally filtered by code or name
func (s *RegionService) List(ctx context.Context, actor *models.User, search string) ([]models.Region, error) {
	if !access.Allow(actor, access.OperationRead) {
		return nil, ErrForbidden
	}
	return s.regions.List(ctx, strings.TrimSpace(search))
}

// Get retrieves a region by ID
func (s *RegionService) Get(ctx context.Context, actor *models.User, id uuid.UUID) (*models.Region, error) {
	if !access.Allow(actor, access.OperationRead) {
		return nil, ErrForbidden
	}
	return s.regions.GetByID(ctx, id)
}

// Create creates a new region
func (s *RegionService) Create(ctx context.Context, actor *models.User, req models.RegionRequest) (*models.Region, error) {
	if !access.Allow(actor, access.OperationCreate) {
		return nil, ErrForbidden
	}

	region, err := regionFromRequest(req)
	if err != nil {
		return nil, err
	}

	created, err := s.regions.Create(ctx, region)
	if err != nil {
		return nil, codeConflict(err, region.Code)
	}

	s.audit.Record(ctx, actor, ActionRegionCreate, created.String())
	return created, nil
}

// Update updates a region
func (s *RegionService) Update(ctx context.Context, actor *models.User, id uuid.UUID, req models.RegionRequest) (*models.Region, error) {
	if !access.Allow(actor, access.OperationUpdate) {
		return nil, ErrForbidden
	}

	region, err := regionFromRequest(req)
	if err != nil {
		return nil, err
	}
	region.ID = id

	updated, err := s.regions.Update(ctx, region)
	if err != nil {
		return nil, codeConflict(err, region.Code)
	}

	s.audit.Record(ctx, actor, ActionRegionUpdate, updated.String())
	return updated, nil
}

// Delete removes a region that no employee references
func (s *RegionService) Delete(ctx context.Context, actor *models.User, id uuid.UUID) error {
	if !access.Allow(actor, access.OperationDelete) {
		return ErrForbidden
	}

	region, err := s.regions.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.regions.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrInUse) {
			return fmt.Errorf("region %s is assigned to employees: %w", region, ErrInUse)
		}
		return err
	}

	s.audit.Record(ctx, actor, ActionRegionDelete, region.String())
	return nil
}

func regionFromRequest(req models.RegionRequest) (models.Region, error) {
	req.Code = strings.TrimSpace(req.Code)
	req.Name = strings.TrimSpace(req.Name)

	if err := validateStruct(req).Err(); err != nil {
		return models.Region{}, err
	}
	return models.Region{Code: req.Code, Name: req.Name}, nil
}

func codeConflict(err error, code string) error {
	if errors.Is(err, ErrConflict) {
		return fmt.Errorf("region code %s already exists: %w", code, ErrConflict)
	}
	return err
}

package repository

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/ksk-project/employee-service/internal/models"
)

const regionColumns = `id, code, name, created_at, updated_at`

// RegionRepository handles region data access
type RegionRepository struct {
	db *sqlx.DB
}

// NewRegionRepository creates a new region repository
func NewRegionRepository(db *sqlx.DB) *RegionRepository {
	return &RegionRepository{db: db}
}

// GetByID retrieves a region by ID
func (r *RegionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Region, error) {
	query := `SELECT ` + regionColumns + ` FROM regions WHERE id = $1`

	var region models.Region
	if err := r.db.GetContext(ctx, &region, query, id); err != nil {
		return nil, classify(err, "failed to get region")
	}

	return &region, nil
}

// List returns regions ordered by code. A non-empty search matches code
// or name case-insensitively.
func (r *RegionRepository) List(ctx context.Context, search string) ([]models.Region, error) {
	qb := sq.Select(regionColumns).
		From("regions").
		OrderBy("code ASC").
		PlaceholderFormat(sq.Dollar)

	if search != "" {
		pattern := likePattern(search)
		qb = qb.Where(sq.Or{
			sq.ILike{"code": pattern},
			sq.ILike{"name": pattern},
		})
	}

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build region query: %w", err)
	}

	regions := []models.Region{}
	if err := r.db.SelectContext(ctx, &regions, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list regions: %w", err)
	}

	return regions, nil
}

// Create creates a new region
func (r *RegionRepository) Create(ctx context.Context, region models.Region) (*models.Region, error) {
	query := `
		INSERT INTO regions (code, name)
		VALUES ($1, $2)
		RETURNING ` + regionColumns

	var created models.Region
	if err := r.db.GetContext(ctx, &created, query, region.Code, region.Name); err != nil {
		return nil, classify(err, "failed to create region")
	}

	return &created, nil
}

// Update updates a region
func (r *RegionRepository) Update(ctx context.Context, region models.Region) (*models.Region, error) {
	query := `
		UPDATE regions
		SET code = $1, name = $2, updated_at = $3
		WHERE id = $4
		RETURNING ` + regionColumns

	var updated models.Region
	err := r.db.GetContext(ctx, &updated, query, region.Code, region.Name, time.Now(), region.ID)
	if err != nil {
		return nil, classify(err, "failed to update region")
	}

	return &updated, nil
}

// Delete removes a region. Regions still referenced by an employee are
// protected by the foreign key and yield ErrInUse.
func (r *RegionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM regions WHERE id = $1`, id)
	if err != nil {
		return classify(err, "failed to delete region")
	}

	return expectOneRow(result, "failed to delete region")
}

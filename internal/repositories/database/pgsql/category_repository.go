package pgsql

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/SscSPs/property_fines_app/internal/apperrors"
	"github.com/SscSPs/property_fines_app/internal/core/domain"
	portsrepo "github.com/SscSPs/property_fines_app/internal/core/ports/repositories"
	"github.com/SscSPs/property_fines_app/internal/models"
	"github.com/SscSPs/property_fines_app/internal/utils/mapping"
)

const categoryColumns = `category_id, name, description, base_fine_amount, severity, is_active,
	created_at, created_by, last_updated_at, last_updated_by, version`

type PgxCategoryRepository struct {
	BaseRepository
}

// newPgxCategoryRepository creates a new repository for violation categories.
func newPgxCategoryRepository(pool *pgxpool.Pool) portsrepo.CategoryRepositoryFacade {
	return &PgxCategoryRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

var _ portsrepo.CategoryRepositoryFacade = (*PgxCategoryRepository)(nil)

func scanCategory(row pgx.Row) (models.ViolationCategory, error) {
	var m models.ViolationCategory
	err := row.Scan(
		&m.CategoryID,
		&m.Name,
		&m.Description,
		&m.BaseFineAmount,
		&m.Severity,
		&m.IsActive,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
		&m.Version,
	)
	return m, err
}

func (r *PgxCategoryRepository) SaveCategory(ctx context.Context, category domain.ViolationCategory) error {
	m := mapping.ToModelCategory(category)
	query := `INSERT INTO violation_categories (` + categoryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);`
	_, err := r.Pool.Exec(ctx, query,
		m.CategoryID, m.Name, m.Description, m.BaseFineAmount, m.Severity, m.IsActive,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy, m.Version,
	)
	if err != nil {
		return mapWriteError(err, "category "+m.Name)
	}
	return nil
}

func (r *PgxCategoryRepository) FindCategoryByID(ctx context.Context, categoryID string) (*domain.ViolationCategory, error) {
	query := `SELECT ` + categoryColumns + ` FROM violation_categories WHERE category_id = $1;`
	m, err := scanCategory(r.Pool.QueryRow(ctx, query, categoryID))
	if err != nil {
		return nil, mapReadError(err, "category "+categoryID)
	}
	d := mapping.ToDomainCategory(m)
	return &d, nil
}

func (r *PgxCategoryRepository) ListCategories(ctx context.Context, includeInactive bool) ([]domain.ViolationCategory, error) {
	query := `SELECT ` + categoryColumns + ` FROM violation_categories`
	if !includeInactive {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY name;`

	rows, err := r.Pool.Query(ctx, query)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query categories", err)
	}
	defer rows.Close()

	modelCategories, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.ViolationCategory, error) {
		return scanCategory(row)
	})
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to scan categories", err)
	}
	return mapping.ToDomainCategorySlice(modelCategories), nil
}

// GetCategoryStats counts violations and averages issued fine amounts over them.
func (r *PgxCategoryRepository) GetCategoryStats(ctx context.Context, categoryID string) (*domain.CategoryStats, error) {
	query := `
		SELECT COUNT(v.violation_id),
		       COALESCE(ROUND(SUM(f.fine_amount) / NULLIF(COUNT(v.violation_id), 0), 2), 0)
		FROM violations v
		LEFT JOIN fines f ON f.violation_id = v.violation_id
		WHERE v.category_id = $1;
	`
	stats := domain.CategoryStats{CategoryID: categoryID}
	if err := r.Pool.QueryRow(ctx, query, categoryID).Scan(&stats.TotalViolations, &stats.AverageFinePerViolation); err != nil {
		return nil, apperrors.NewAppError(500, "failed to compute stats for category "+categoryID, err)
	}
	return &stats, nil
}

// UpdateCategory writes the mutable fields guarded by the version column.
func (r *PgxCategoryRepository) UpdateCategory(ctx context.Context, category *domain.ViolationCategory) error {
	m := mapping.ToModelCategory(*category)
	query := `
		UPDATE violation_categories
		SET name = $2, description = $3, base_fine_amount = $4, severity = $5, is_active = $6,
		    last_updated_at = $7, last_updated_by = $8, version = version + 1
		WHERE category_id = $1 AND version = $9;
	`
	tag, err := r.Pool.Exec(ctx, query,
		m.CategoryID, m.Name, m.Description, m.BaseFineAmount, m.Severity, m.IsActive,
		m.LastUpdatedAt, m.LastUpdatedBy, m.Version,
	)
	if err != nil {
		return mapWriteError(err, "category "+m.CategoryID)
	}
	if tag.RowsAffected() == 0 {
		return r.versionMiss(ctx, "violation_categories", "category_id", m.CategoryID)
	}
	category.Version++
	return nil
}

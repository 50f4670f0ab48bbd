package pgsql

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/SscSPs/property_fines_app/internal/apperrors"
	"github.com/SscSPs/property_fines_app/internal/core/domain"
	portsrepo "github.com/SscSPs/property_fines_app/internal/core/ports/repositories"
	"github.com/SscSPs/property_fines_app/internal/models"
	"github.com/SscSPs/property_fines_app/internal/utils/mapping"
	"github.com/SscSPs/property_fines_app/internal/utils/pagination"
)

const violationColumns = `violation_id, category_id, severity, incident_at, location, reported_by,
	resident_id, unit_number, vehicle_number, evidence, description, status,
	reviewed_by, reviewed_at, review_notes, assigned_fine_amount, priority,
	created_at, created_by, last_updated_at, last_updated_by, version`

type PgxViolationRepository struct {
	BaseRepository
}

// newPgxViolationRepository creates a new repository for violations.
func newPgxViolationRepository(pool *pgxpool.Pool) portsrepo.ViolationRepositoryFacade {
	return &PgxViolationRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

var _ portsrepo.ViolationRepositoryFacade = (*PgxViolationRepository)(nil)

func scanViolation(row pgx.Row) (models.Violation, error) {
	var m models.Violation
	err := row.Scan(
		&m.ViolationID,
		&m.CategoryID,
		&m.Severity,
		&m.IncidentAt,
		&m.Location,
		&m.ReportedBy,
		&m.ResidentID,
		&m.UnitNumber,
		&m.VehicleNumber,
		&m.Evidence,
		&m.Description,
		&m.Status,
		&m.ReviewedBy,
		&m.ReviewedAt,
		&m.ReviewNotes,
		&m.AssignedFineAmount,
		&m.Priority,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
		&m.Version,
	)
	return m, err
}

func (r *PgxViolationRepository) SaveViolation(ctx context.Context, violation domain.Violation) error {
	m, err := mapping.ToModelViolation(violation)
	if err != nil {
		return apperrors.NewAppError(500, "failed to map violation", err)
	}
	query := `INSERT INTO violations (` + violationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22);`
	_, err = r.Pool.Exec(ctx, query,
		m.ViolationID, m.CategoryID, m.Severity, m.IncidentAt, m.Location, m.ReportedBy,
		m.ResidentID, m.UnitNumber, m.VehicleNumber, m.Evidence, m.Description, m.Status,
		m.ReviewedBy, m.ReviewedAt, m.ReviewNotes, m.AssignedFineAmount, m.Priority,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy, m.Version,
	)
	if err != nil {
		return mapWriteError(err, "violation "+m.ViolationID)
	}
	return nil
}

func (r *PgxViolationRepository) FindViolationByID(ctx context.Context, violationID string) (*domain.Violation, error) {
	query := `SELECT ` + violationColumns + ` FROM violations WHERE violation_id = $1;`
	m, err := scanViolation(r.Pool.QueryRow(ctx, query, violationID))
	if err != nil {
		return nil, mapReadError(err, "violation "+violationID)
	}
	d, err := mapping.ToDomainViolation(m)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to map violation", err)
	}
	return &d, nil
}

// ListViolations pages newest first on (created_at, violation_id).
func (r *PgxViolationRepository) ListViolations(ctx context.Context, filter portsrepo.ViolationFilter, limit int, nextToken *string) ([]domain.Violation, *string, error) {
	var (
		conds []string
		args  []any
	)
	addCond := func(format string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(format, len(args)))
	}
	if filter.Status != "" {
		addCond("status = $%d", string(filter.Status))
	}
	if filter.CategoryID != "" {
		addCond("category_id = $%d", filter.CategoryID)
	}
	if filter.ResidentID != "" {
		addCond("resident_id = $%d", filter.ResidentID)
	}
	if nextToken != nil && *nextToken != "" {
		cursor, err := pagination.DecodeCursor(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
		args = append(args, cursor.At, cursor.ID)
		conds = append(conds, fmt.Sprintf("(created_at, violation_id) < ($%d, $%d)", len(args)-1, len(args)))
	}

	query := `SELECT ` + violationColumns + ` FROM violations`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	// Fetch one extra row to know whether another page exists
	args = append(args, limit+1)
	query += fmt.Sprintf(` ORDER BY created_at DESC, violation_id DESC LIMIT $%d;`, len(args))

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, apperrors.NewAppError(500, "failed to query violations", err)
	}
	defer rows.Close()

	modelViolations, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Violation, error) {
		return scanViolation(row)
	})
	if err != nil {
		return nil, nil, apperrors.NewAppError(500, "failed to scan violations", err)
	}

	var next *string
	if len(modelViolations) > limit {
		modelViolations = modelViolations[:limit]
		last := modelViolations[limit-1]
		token := pagination.EncodeCursor(last.CreatedAt, last.ViolationID)
		next = &token
	}

	violations := make([]domain.Violation, 0, len(modelViolations))
	for _, m := range modelViolations {
		d, err := mapping.ToDomainViolation(m)
		if err != nil {
			return nil, nil, apperrors.NewAppError(500, "failed to map violation", err)
		}
		violations = append(violations, d)
	}
	return violations, next, nil
}

func (r *PgxViolationRepository) UpdateViolation(ctx context.Context, violation *domain.Violation) error {
	m, err := mapping.ToModelViolation(*violation)
	if err != nil {
		return apperrors.NewAppError(500, "failed to map violation", err)
	}
	query := `
		UPDATE violations
		SET status = $2, reviewed_by = $3, reviewed_at = $4, review_notes = $5,
		    assigned_fine_amount = $6, priority = $7, evidence = $8,
		    last_updated_at = $9, last_updated_by = $10, version = version + 1
		WHERE violation_id = $1 AND version = $11;
	`
	tag, err := r.Pool.Exec(ctx, query,
		m.ViolationID, m.Status, m.ReviewedBy, m.ReviewedAt, m.ReviewNotes,
		m.AssignedFineAmount, m.Priority, m.Evidence,
		m.LastUpdatedAt, m.LastUpdatedBy, m.Version,
	)
	if err != nil {
		return mapWriteError(err, "violation "+m.ViolationID)
	}
	if tag.RowsAffected() == 0 {
		return r.versionMiss(ctx, "violations", "violation_id", m.ViolationID)
	}
	violation.Version++
	return nil
}

// DeleteViolation relies on the fines foreign key to refuse deleting a fined violation.
func (r *PgxViolationRepository) DeleteViolation(ctx context.Context, violationID string) error {
	tag, err := r.Pool.Exec(ctx, `DELETE FROM violations WHERE violation_id = $1;`, violationID)
	if err != nil {
		return mapWriteError(err, "violation "+violationID)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: violation %s", apperrors.ErrNotFound, violationID)
	}
	return nil
}

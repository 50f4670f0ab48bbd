package pgsql

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/SscSPs/property_fines_app/internal/apperrors"
	"github.com/SscSPs/property_fines_app/internal/core/domain"
	portsrepo "github.com/SscSPs/property_fines_app/internal/core/ports/repositories"
	"github.com/SscSPs/property_fines_app/internal/models"
	"github.com/SscSPs/property_fines_app/internal/utils/mapping"
	"github.com/SscSPs/property_fines_app/internal/utils/pagination"
)

const fineColumns = `fine_id, violation_id, resident_id, fine_amount, late_fee, total_amount, paid_amount,
	currency_code, issued_date, due_date, paid_date, last_payment_at, status, accrual_paused_seconds,
	reminder_count, last_reminder_at, waiver, dispute, bill,
	created_at, created_by, last_updated_at, last_updated_by, version`

var openFineStatuses = []string{
	string(domain.FinePending),
	string(domain.FinePartiallyPaid),
	string(domain.FineOverdue),
}

type PgxFineRepository struct {
	BaseRepository
}

// newPgxFineRepository creates a new repository for fines.
func newPgxFineRepository(pool *pgxpool.Pool) portsrepo.FineRepositoryFacade {
	return &PgxFineRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

var _ portsrepo.FineRepositoryFacade = (*PgxFineRepository)(nil)

func scanFine(row pgx.Row) (models.Fine, error) {
	var m models.Fine
	err := row.Scan(
		&m.FineID,
		&m.ViolationID,
		&m.ResidentID,
		&m.FineAmount,
		&m.LateFee,
		&m.TotalAmount,
		&m.PaidAmount,
		&m.CurrencyCode,
		&m.IssuedDate,
		&m.DueDate,
		&m.PaidDate,
		&m.LastPaymentAt,
		&m.Status,
		&m.AccrualPausedSeconds,
		&m.ReminderCount,
		&m.LastReminderAt,
		&m.Waiver,
		&m.Dispute,
		&m.Bill,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
		&m.Version,
	)
	return m, err
}

func (r *PgxFineRepository) findOne(ctx context.Context, where string, arg any, what string) (*domain.Fine, error) {
	query := `SELECT ` + fineColumns + ` FROM fines WHERE ` + where + ` = $1;`
	m, err := scanFine(r.Pool.QueryRow(ctx, query, arg))
	if err != nil {
		return nil, mapReadError(err, what)
	}
	d, err := mapping.ToDomainFine(m)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to map fine", err)
	}
	return &d, nil
}

func (r *PgxFineRepository) FindFineByID(ctx context.Context, fineID string) (*domain.Fine, error) {
	return r.findOne(ctx, "fine_id", fineID, "fine "+fineID)
}

func (r *PgxFineRepository) FindFineByViolationID(ctx context.Context, violationID string) (*domain.Fine, error) {
	return r.findOne(ctx, "violation_id", violationID, "fine for violation "+violationID)
}

func (r *PgxFineRepository) queryFines(ctx context.Context, query string, args ...any) ([]domain.Fine, error) {
	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query fines", err)
	}
	defer rows.Close()

	modelFines, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Fine, error) {
		return scanFine(row)
	})
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to scan fines", err)
	}

	fines := make([]domain.Fine, 0, len(modelFines))
	for _, m := range modelFines {
		d, err := mapping.ToDomainFine(m)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to map fine", err)
		}
		fines = append(fines, d)
	}
	return fines, nil
}

// ListFines pages newest first on (issued_date, fine_id).
func (r *PgxFineRepository) ListFines(ctx context.Context, filter portsrepo.FineFilter, limit int, nextToken *string) ([]domain.Fine, *string, error) {
	var (
		conds []string
		args  []any
	)
	addCond := func(format string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(format, len(args)))
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		if filter.StatusAsOf != nil {
			args = append(args, statuses, *filter.StatusAsOf)
			conds = append(conds, fmt.Sprintf(`(CASE WHEN status IN ('pending', 'partially_paid') AND due_date < $%d
				THEN 'overdue' ELSE status END) = ANY($%d)`, len(args), len(args)-1))
		} else {
			addCond("status = ANY($%d)", statuses)
		}
	}
	if filter.ResidentID != "" {
		addCond("resident_id = $%d", filter.ResidentID)
	}
	if filter.ViolationID != "" {
		addCond("violation_id = $%d", filter.ViolationID)
	}
	if filter.IssuedFrom != nil {
		addCond("issued_date >= $%d", *filter.IssuedFrom)
	}
	if filter.IssuedTo != nil {
		addCond("issued_date < $%d", *filter.IssuedTo)
	}
	if nextToken != nil && *nextToken != "" {
		cursor, err := pagination.DecodeCursor(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
		args = append(args, cursor.At, cursor.ID)
		conds = append(conds, fmt.Sprintf("(issued_date, fine_id) < ($%d, $%d)", len(args)-1, len(args)))
	}

	query := `SELECT ` + fineColumns + ` FROM fines`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	args = append(args, limit+1)
	query += fmt.Sprintf(` ORDER BY issued_date DESC, fine_id DESC LIMIT $%d;`, len(args))

	fines, err := r.queryFines(ctx, query, args...)
	if err != nil {
		return nil, nil, err
	}
	var next *string
	if len(fines) > limit {
		fines = fines[:limit]
		last := fines[limit-1]
		token := pagination.EncodeCursor(last.IssuedDate, last.FineID)
		next = &token
	}
	return fines, next, nil
}

func (r *PgxFineRepository) ListFinesIssuedBetween(ctx context.Context, from, to time.Time) ([]domain.Fine, error) {
	query := `SELECT ` + fineColumns + ` FROM fines
		WHERE issued_date >= $1 AND issued_date < $2
		ORDER BY issued_date, fine_id;`
	return r.queryFines(ctx, query, from, to)
}

// ListOpenFinesDueBefore pages oldest due date first on (due_date, fine_id).
func (r *PgxFineRepository) ListOpenFinesDueBefore(ctx context.Context, cutoff time.Time, limit int, nextToken *string) ([]domain.Fine, *string, error) {
	args := []any{openFineStatuses, cutoff}
	query := `SELECT ` + fineColumns + ` FROM fines WHERE status = ANY($1) AND due_date < $2`
	if nextToken != nil && *nextToken != "" {
		cursor, err := pagination.DecodeCursor(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
		args = append(args, cursor.At, cursor.ID)
		query += ` AND (due_date, fine_id) > ($3, $4)`
	}
	args = append(args, limit+1)
	query += fmt.Sprintf(` ORDER BY due_date, fine_id LIMIT $%d;`, len(args))

	fines, err := r.queryFines(ctx, query, args...)
	if err != nil {
		return nil, nil, err
	}
	var next *string
	if len(fines) > limit {
		fines = fines[:limit]
		last := fines[limit-1]
		token := pagination.EncodeCursor(last.DueDate, last.FineID)
		next = &token
	}
	return fines, next, nil
}

func (r *PgxFineRepository) ListFineStatusChanges(ctx context.Context, fineID string) ([]domain.FineStatusChange, error) {
	query := `
		SELECT fine_id, old_status, new_status, note, changed_by, changed_at
		FROM fine_status_log
		WHERE fine_id = $1
		ORDER BY log_id;
	`
	rows, err := r.Pool.Query(ctx, query, fineID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query status log of fine "+fineID, err)
	}
	defer rows.Close()

	modelChanges, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.FineStatusChange])
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to scan status log of fine "+fineID, err)
	}
	changes := make([]domain.FineStatusChange, len(modelChanges))
	for i, m := range modelChanges {
		changes[i] = mapping.ToDomainFineStatusChange(m)
	}
	return changes, nil
}

func (r *PgxFineRepository) SaveFine(ctx context.Context, fine domain.Fine, change domain.FineStatusChange) error {
	m, err := mapping.ToModelFine(fine)
	if err != nil {
		return apperrors.NewAppError(500, "failed to map fine", err)
	}
	return r.inTx(ctx, func(tx pgx.Tx) error {
		query := `INSERT INTO fines (` + fineColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24);`
		_, err := tx.Exec(ctx, query,
			m.FineID, m.ViolationID, m.ResidentID, m.FineAmount, m.LateFee, m.TotalAmount, m.PaidAmount,
			m.CurrencyCode, m.IssuedDate, m.DueDate, m.PaidDate, m.LastPaymentAt, m.Status, m.AccrualPausedSeconds,
			m.ReminderCount, m.LastReminderAt, m.Waiver, m.Dispute, m.Bill,
			m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy, m.Version,
		)
		if err != nil {
			return mapWriteError(err, "fine for violation "+m.ViolationID)
		}
		return insertStatusChanges(ctx, tx, []domain.FineStatusChange{change})
	})
}

func (r *PgxFineRepository) UpdateFine(ctx context.Context, fine *domain.Fine, changes []domain.FineStatusChange) error {
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		return updateFineTx(ctx, tx, fine, changes)
	})
	if err != nil {
		return r.explainFineUpdate(ctx, fine.FineID, err)
	}
	fine.Version++
	return nil
}

// errVersionMiss marks a version-guarded fine update that matched no row. It never leaves the package.
var errVersionMiss = errors.New("fine version miss")

// updateFineTx writes every mutable fine column guarded by the version, appends the status log
// and resolves the approved violation once the fine is settled.
func updateFineTx(ctx context.Context, tx pgx.Tx, fine *domain.Fine, changes []domain.FineStatusChange) error {
	m, err := mapping.ToModelFine(*fine)
	if err != nil {
		return apperrors.NewAppError(500, "failed to map fine", err)
	}
	query := `
		UPDATE fines
		SET fine_amount = $2, late_fee = $3, total_amount = $4, paid_amount = $5, due_date = $6,
		    paid_date = $7, last_payment_at = $8, status = $9, accrual_paused_seconds = $10,
		    reminder_count = $11, last_reminder_at = $12, waiver = $13, dispute = $14, bill = $15,
		    last_updated_at = $16, last_updated_by = $17, version = version + 1
		WHERE fine_id = $1 AND version = $18;
	`
	tag, err := tx.Exec(ctx, query,
		m.FineID, m.FineAmount, m.LateFee, m.TotalAmount, m.PaidAmount, m.DueDate,
		m.PaidDate, m.LastPaymentAt, m.Status, m.AccrualPausedSeconds,
		m.ReminderCount, m.LastReminderAt, m.Waiver, m.Dispute, m.Bill,
		m.LastUpdatedAt, m.LastUpdatedBy, m.Version,
	)
	if err != nil {
		return mapWriteError(err, "fine "+m.FineID)
	}
	if tag.RowsAffected() == 0 {
		return errVersionMiss
	}

	if err := insertStatusChanges(ctx, tx, changes); err != nil {
		return err
	}

	if fine.Status == domain.FinePaid || fine.Status == domain.FineWaived {
		return resolveViolationTx(ctx, tx, fine.ViolationID, fine.LastUpdatedBy, fine.LastUpdatedAt)
	}
	return nil
}

// resolveViolationTx moves the fined violation to resolved under a row lock. Violations that are
// already past approved are left as they are.
func resolveViolationTx(ctx context.Context, tx pgx.Tx, violationID, actorID string, now time.Time) error {
	row := tx.QueryRow(ctx, `SELECT `+violationColumns+` FROM violations WHERE violation_id = $1 FOR UPDATE;`, violationID)
	model, err := scanViolation(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return apperrors.NewAppError(500, "failed to load violation "+violationID, err)
	}
	violation, err := mapping.ToDomainViolation(model)
	if err != nil {
		return apperrors.NewAppError(500, "failed to map violation "+violationID, err)
	}
	if violation.Status != domain.ViolationApproved {
		return nil
	}
	if err := violation.MarkResolved(actorID, now); err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `
		UPDATE violations
		SET status = $2, last_updated_at = $3, last_updated_by = $4, version = version + 1
		WHERE violation_id = $1 AND version = $5;`,
		violation.ViolationID, string(violation.Status), violation.LastUpdatedAt, violation.LastUpdatedBy, violation.Version,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to resolve violation "+violationID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewAppError(500, "violation "+violationID+" changed under its row lock", nil)
	}
	return nil
}

func insertStatusChanges(ctx context.Context, tx pgx.Tx, changes []domain.FineStatusChange) error {
	if len(changes) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, c := range changes {
		m := mapping.ToModelFineStatusChange(c)
		batch.Queue(`
			INSERT INTO fine_status_log (fine_id, old_status, new_status, note, changed_by, changed_at)
			VALUES ($1, $2, $3, $4, $5, $6);`,
			m.FineID, m.OldStatus, m.NewStatus, m.Note, m.ChangedBy, m.ChangedAt,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return apperrors.NewAppError(500, "failed to append fine status log", err)
	}
	return nil
}

// explainFineUpdate turns a version miss into not found or concurrent modification.
func (b *BaseRepository) explainFineUpdate(ctx context.Context, fineID string, err error) error {
	if errors.Is(err, errVersionMiss) {
		return b.versionMiss(ctx, "fines", "fine_id", fineID)
	}
	return err
}

package pgsql

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/SscSPs/property_fines_app/internal/apperrors"
	"github.com/SscSPs/property_fines_app/internal/core/domain"
	portsrepo "github.com/SscSPs/property_fines_app/internal/core/ports/repositories"
	"github.com/SscSPs/property_fines_app/internal/models"
	"github.com/SscSPs/property_fines_app/internal/utils/mapping"
)

const paymentColumns = `payment_id, fine_id, amount, method, reference, paid_at, status,
	gateway_order_id, gateway_payment_id, refund_of, failure_reason,
	created_at, created_by, last_updated_at, last_updated_by, version`

type PgxPaymentRepository struct {
	BaseRepository
}

// newPgxPaymentRepository creates a new repository for fine payments.
func newPgxPaymentRepository(pool *pgxpool.Pool) portsrepo.PaymentRepositoryFacade {
	return &PgxPaymentRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

var _ portsrepo.PaymentRepositoryFacade = (*PgxPaymentRepository)(nil)

func (r *PgxPaymentRepository) FindPaymentByID(ctx context.Context, paymentID string) (*domain.Payment, error) {
	return r.findOne(ctx, "payment_id", paymentID, "payment "+paymentID)
}

func (r *PgxPaymentRepository) FindPaymentByGatewayOrderID(ctx context.Context, orderID string) (*domain.Payment, error) {
	return r.findOne(ctx, "gateway_order_id", orderID, "payment for order "+orderID)
}

func (r *PgxPaymentRepository) findOne(ctx context.Context, column string, arg string, what string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM fine_payments WHERE ` + column + ` = $1;`
	rows, err := r.Pool.Query(ctx, query, arg)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query "+what, err)
	}
	m, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[models.Payment])
	if err != nil {
		return nil, mapReadError(err, what)
	}
	d := mapping.ToDomainPayment(m)
	return &d, nil
}

func (r *PgxPaymentRepository) ListPaymentsByFineID(ctx context.Context, fineID string) ([]domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM fine_payments WHERE fine_id = $1 ORDER BY created_at, payment_id;`
	rows, err := r.Pool.Query(ctx, query, fineID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query payments of fine "+fineID, err)
	}
	defer rows.Close()

	modelPayments, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.Payment])
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to scan payments of fine "+fineID, err)
	}
	return mapping.ToDomainPaymentSlice(modelPayments), nil
}

func insertPayment(ctx context.Context, tx pgx.Tx, payment domain.Payment) error {
	m := mapping.ToModelPayment(payment)
	query := `INSERT INTO fine_payments (` + paymentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16);`
	_, err := tx.Exec(ctx, query,
		m.PaymentID, m.FineID, m.Amount, m.Method, m.Reference, m.PaidAt, m.Status,
		m.GatewayOrderID, m.GatewayPaymentID, m.RefundOf, m.FailureReason,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy, m.Version,
	)
	if err != nil {
		return mapWriteError(err, "payment "+m.PaymentID)
	}
	return nil
}

// updatePaymentTx writes the status columns of a payment guarded by its version.
func updatePaymentTx(ctx context.Context, tx pgx.Tx, payment *domain.Payment) error {
	m := mapping.ToModelPayment(*payment)
	query := `
		UPDATE fine_payments
		SET status = $2, gateway_payment_id = $3, failure_reason = $4, paid_at = $5,
		    last_updated_at = $6, last_updated_by = $7, version = version + 1
		WHERE payment_id = $1 AND version = $8;
	`
	tag, err := tx.Exec(ctx, query,
		m.PaymentID, m.Status, m.GatewayPaymentID, m.FailureReason, m.PaidAt,
		m.LastUpdatedAt, m.LastUpdatedBy, m.Version,
	)
	if err != nil {
		return mapWriteError(err, "payment "+m.PaymentID)
	}
	if tag.RowsAffected() == 0 {
		return errPaymentVersionMiss
	}
	return nil
}

var errPaymentVersionMiss = errors.New("payment version miss")

func (r *PgxPaymentRepository) SavePayment(ctx context.Context, payment domain.Payment) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		return insertPayment(ctx, tx, payment)
	})
}

func (r *PgxPaymentRepository) UpdatePayment(ctx context.Context, payment *domain.Payment) error {
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		return updatePaymentTx(ctx, tx, payment)
	})
	if err != nil {
		return r.explainPaymentUpdate(ctx, payment.PaymentID, err)
	}
	payment.Version++
	return nil
}

func (r *PgxPaymentRepository) SavePaymentWithFine(ctx context.Context, payment domain.Payment, fine *domain.Fine, changes []domain.FineStatusChange) error {
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		if err := insertPayment(ctx, tx, payment); err != nil {
			return err
		}
		return updateFineTx(ctx, tx, fine, changes)
	})
	if err != nil {
		return r.explainFineUpdate(ctx, fine.FineID, err)
	}
	fine.Version++
	return nil
}

func (r *PgxPaymentRepository) CompletePaymentWithFine(ctx context.Context, payment *domain.Payment, fine *domain.Fine, changes []domain.FineStatusChange) error {
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		if err := updatePaymentTx(ctx, tx, payment); err != nil {
			return err
		}
		return updateFineTx(ctx, tx, fine, changes)
	})
	if err != nil {
		if errors.Is(err, errPaymentVersionMiss) {
			return r.explainPaymentUpdate(ctx, payment.PaymentID, err)
		}
		return r.explainFineUpdate(ctx, fine.FineID, err)
	}
	payment.Version++
	fine.Version++
	return nil
}

func (b *BaseRepository) explainPaymentUpdate(ctx context.Context, paymentID string, err error) error {
	if errors.Is(err, errPaymentVersionMiss) {
		return b.versionMiss(ctx, "fine_payments", "payment_id", paymentID)
	}
	return err
}

package pgsql

import (
	"github.com/jackc/pgx/v5/pgxpool"

	portsrepo "github.com/SscSPs/property_fines_app/internal/core/ports/repositories"
)

func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		CategoryRepo:  newPgxCategoryRepository(dbPool),
		ViolationRepo: newPgxViolationRepository(dbPool),
		FineRepo:      newPgxFineRepository(dbPool),
		PaymentRepo:   newPgxPaymentRepository(dbPool),
	}
}

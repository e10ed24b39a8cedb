package services

import (
	"context"
	"time"

	"deposit-backend/internal/models"
)

// DepositStore is the tenant-scoped snapshot side of the ledger store.
// Implemented by repositories.DepositRepository; tests use an in-memory fake.
type DepositStore interface {
	Create(ctx context.Context, deposit *models.Deposit) error
	GetByID(ctx context.Context, tenantID, id int) (*models.Deposit, error)
	GetByRentalID(ctx context.Context, tenantID, rentalID int) (*models.Deposit, error)
	// UpdateStatus writes the deposit snapshot with an optimistic version
	// check and bumps the version on success
	UpdateStatus(ctx context.Context, deposit *models.Deposit) error
	List(ctx context.Context, tenantID int, filter models.DepositFilter) ([]*models.Deposit, error)
}

// TransactionLog is the append-only ledger of deposit lifecycle actions
type TransactionLog interface {
	Append(ctx context.Context, tx *models.DepositTransaction) error
	ListByDeposit(ctx context.Context, tenantID, depositID int) ([]*models.DepositTransaction, error)
}

// RentalFeed reads rental-return records. It is an untrusted external stream:
// callers must tolerate missing rentals and must not assume referential
// integrity with the deposit store.
type RentalFeed interface {
	// FindReturnedInPeriod returns rentals marked returned in [start, end).
	// A zero start means no lower bound.
	FindReturnedInPeriod(ctx context.Context, tenantID int, start, end time.Time) ([]models.ReturnedRental, error)
	FindByID(ctx context.Context, tenantID, rentalID int) (*models.RentalInfo, error)
}

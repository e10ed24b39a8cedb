package repositories

import (
	"context"
	"fmt"

	"deposit-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DepositTransactionRepository is the append-only ledger table. There is no
// update or delete path; corrections happen through new lifecycle transitions.
type DepositTransactionRepository struct {
	DB *pgxpool.Pool
}

func NewDepositTransactionRepository(db *pgxpool.Pool) *DepositTransactionRepository {
	return &DepositTransactionRepository{DB: db}
}

func (r *DepositTransactionRepository) Append(ctx context.Context, tx *models.DepositTransaction) error {
	query := `
		INSERT INTO deposit_transactions (
			tenant_id, deposit_id, type, amount, payment_method,
			actor, note, external_reference
		) VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), NULLIF($8, ''))
		RETURNING id, created_at
	`

	err := r.DB.QueryRow(ctx, query,
		tx.TenantID,
		tx.DepositID,
		string(tx.Type),
		tx.Amount,
		string(tx.PaymentMethod),
		tx.Actor,
		tx.Note,
		tx.ExternalReference,
	).Scan(&tx.ID, &tx.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to append deposit transaction: %w", err)
	}
	return nil
}

func (r *DepositTransactionRepository) ListByDeposit(ctx context.Context, tenantID, depositID int) ([]*models.DepositTransaction, error) {
	query := `
		SELECT id, tenant_id, deposit_id, type, amount, payment_method,
		       actor, COALESCE(note, '') as note,
		       COALESCE(external_reference, '') as external_reference, created_at
		FROM deposit_transactions
		WHERE tenant_id = $1 AND deposit_id = $2
		ORDER BY id ASC
	`

	rows, err := r.DB.Query(ctx, query, tenantID, depositID)
	if err != nil {
		return nil, fmt.Errorf("failed to list deposit transactions: %w", err)
	}
	defer rows.Close()

	var txs []*models.DepositTransaction
	for rows.Next() {
		tx := &models.DepositTransaction{}
		var rawType, rawMethod string
		err := rows.Scan(
			&tx.ID, &tx.TenantID, &tx.DepositID, &rawType, &tx.Amount, &rawMethod,
			&tx.Actor, &tx.Note, &tx.ExternalReference, &tx.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan deposit transaction: %w", err)
		}
		tx.Type = models.DepositTransactionType(rawType)
		tx.PaymentMethod = models.PaymentMethod(rawMethod)
		txs = append(txs, tx)
	}

	return txs, rows.Err()
}

package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"deposit-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const depositColumns = `
	id, tenant_id, rental_id, COALESCE(rental_code, '') as rental_code,
	COALESCE(warehouse_id, 0) as warehouse_id, reference, amount, status, payment_method,
	COALESCE(external_payment_reference, '') as external_payment_reference,
	retained_amount, returned_amount,
	COALESCE(retention_reason, '') as retention_reason, COALESCE(retention_note, '') as retention_note,
	received_at, settled_at, received_by, settled_by,
	version, created_at, updated_at`

type DepositRepository struct {
	DB *pgxpool.Pool
}

func NewDepositRepository(db *pgxpool.Pool) *DepositRepository {
	return &DepositRepository{DB: db}
}

// GenerateReference takes the next deposit reference from the database
// sequence, so references stay gapless-ordered across pods
func (r *DepositRepository) GenerateReference(ctx context.Context) (string, error) {
	var nextNum int
	err := r.DB.QueryRow(ctx, "SELECT nextval('deposit_reference_sequence')").Scan(&nextNum)
	if err != nil {
		return "", fmt.Errorf("failed to get next deposit reference: %w", err)
	}
	return fmt.Sprintf("DEP-%06d", nextNum), nil
}

// Create inserts a new deposit. The unique index on (tenant_id, rental_id)
// backs the one-deposit-per-rental guard under concurrency.
func (r *DepositRepository) Create(ctx context.Context, d *models.Deposit) error {
	reference, err := r.GenerateReference(ctx)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO deposits (
			tenant_id, rental_id, rental_code, warehouse_id, reference,
			amount, status, payment_method, received_at, received_by, version
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 1)
		RETURNING id, created_at, updated_at
	`

	err = r.DB.QueryRow(ctx, query,
		d.TenantID,
		d.RentalID,
		d.RentalCode,
		nullableInt(d.WarehouseID),
		reference,
		d.Amount,
		string(d.Status),
		string(d.PaymentMethod),
		d.ReceivedAt,
		d.ReceivedBy,
	).Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return &models.DuplicateDepositError{RentalID: d.RentalID}
		}
		return fmt.Errorf("failed to create deposit: %w", err)
	}

	d.Reference = reference
	d.Version = 1
	return nil
}

func (r *DepositRepository) GetByID(ctx context.Context, tenantID, id int) (*models.Deposit, error) {
	query := fmt.Sprintf(`SELECT %s FROM deposits WHERE tenant_id = $1 AND id = $2`, depositColumns)
	return r.scanOne(r.DB.QueryRow(ctx, query, tenantID, id), "deposit", id)
}

func (r *DepositRepository) GetByRentalID(ctx context.Context, tenantID, rentalID int) (*models.Deposit, error) {
	query := fmt.Sprintf(`SELECT %s FROM deposits WHERE tenant_id = $1 AND rental_id = $2`, depositColumns)
	return r.scanOne(r.DB.QueryRow(ctx, query, tenantID, rentalID), "deposit for rental", rentalID)
}

// UpdateStatus writes the snapshot guarded by the optimistic version check.
// Zero rows affected means another transition won the race.
func (r *DepositRepository) UpdateStatus(ctx context.Context, d *models.Deposit) error {
	query := `
		UPDATE deposits SET
			status = $1,
			external_payment_reference = NULLIF($2, ''),
			retained_amount = $3,
			returned_amount = $4,
			retention_reason = NULLIF($5, ''),
			retention_note = NULLIF($6, ''),
			settled_at = $7,
			settled_by = $8,
			version = version + 1,
			updated_at = NOW()
		WHERE tenant_id = $9 AND id = $10 AND version = $11
	`

	tag, err := r.DB.Exec(ctx, query,
		string(d.Status),
		d.ExternalPaymentReference,
		d.RetainedAmount,
		d.ReturnedAmount,
		d.RetentionReason,
		d.RetentionNote,
		d.SettledAt,
		d.SettledBy,
		d.TenantID,
		d.ID,
		d.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update deposit %d: %w", d.ID, err)
	}

	if tag.RowsAffected() == 0 {
		// Distinguish a lost race from a bad id
		if _, err := r.GetByID(ctx, d.TenantID, d.ID); err != nil {
			return err
		}
		return &models.ConcurrentModificationError{DepositID: d.ID}
	}

	d.Version++
	return nil
}

// List returns deposits matching the filter. Zero/nil filter fields are skipped.
func (r *DepositRepository) List(ctx context.Context, tenantID int, filter models.DepositFilter) ([]*models.Deposit, error) {
	conditions := []string{"tenant_id = $1"}
	args := []interface{}{tenantID}
	argNum := 2

	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			placeholders[i] = fmt.Sprintf("$%d", argNum)
			args = append(args, string(s))
			argNum++
		}
		conditions = append(conditions, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ", ")))
	}

	if filter.ReceivedFrom != nil {
		conditions = append(conditions, fmt.Sprintf("received_at >= $%d", argNum))
		args = append(args, filter.ReceivedFrom)
		argNum++
	}

	if filter.ReceivedTo != nil {
		conditions = append(conditions, fmt.Sprintf("received_at <= $%d", argNum))
		args = append(args, filter.ReceivedTo)
		argNum++
	}

	if filter.SettledFrom != nil {
		conditions = append(conditions, fmt.Sprintf("settled_at >= $%d", argNum))
		args = append(args, filter.SettledFrom)
		argNum++
	}

	if filter.SettledTo != nil {
		conditions = append(conditions, fmt.Sprintf("settled_at <= $%d", argNum))
		args = append(args, filter.SettledTo)
		argNum++
	}

	if filter.WarehouseID != nil {
		conditions = append(conditions, fmt.Sprintf("warehouse_id = $%d", argNum))
		args = append(args, *filter.WarehouseID)
		argNum++
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM deposits
		WHERE %s
		ORDER BY received_at ASC, id ASC
	`, depositColumns, strings.Join(conditions, " AND "))

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list deposits: %w", err)
	}
	defer rows.Close()

	var deposits []*models.Deposit
	for rows.Next() {
		d, err := scanDeposit(rows)
		if err != nil {
			return nil, err
		}
		deposits = append(deposits, d)
	}

	return deposits, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *DepositRepository) scanOne(row pgx.Row, entity string, id int) (*models.Deposit, error) {
	d, err := scanDeposit(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &models.NotFoundError{Entity: entity, ID: id}
		}
		return nil, fmt.Errorf("failed to get %s %d: %w", entity, id, err)
	}
	return d, nil
}

func scanDeposit(row rowScanner) (*models.Deposit, error) {
	d := &models.Deposit{}
	var rawStatus, rawMethod string
	err := row.Scan(
		&d.ID, &d.TenantID, &d.RentalID, &d.RentalCode,
		&d.WarehouseID, &d.Reference, &d.Amount, &rawStatus, &rawMethod,
		&d.ExternalPaymentReference,
		&d.RetainedAmount, &d.ReturnedAmount,
		&d.RetentionReason, &d.RetentionNote,
		&d.ReceivedAt, &d.SettledAt, &d.ReceivedBy, &d.SettledBy,
		&d.Version, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	// Legacy rows may carry alias status names; canonicalize here so no
	// synonym ever reaches business logic
	status, ok := models.CanonicalStatus(rawStatus)
	if !ok {
		return nil, fmt.Errorf("deposit %d has unknown status %q", d.ID, rawStatus)
	}
	d.Status = status
	d.PaymentMethod = models.PaymentMethod(rawMethod)

	return d, nil
}

func nullableInt(v int) interface{} {
	if v == 0 {
		return nil
	}
	return v
}

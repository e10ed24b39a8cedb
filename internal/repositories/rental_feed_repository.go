package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"deposit-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RentalFeedRepository reads the rentals table the rental system writes into.
// This side only reads it; rows may reference rentals with no deposit and
// vice versa, which is exactly what reconciliation exists to find.
type RentalFeedRepository struct {
	DB *pgxpool.Pool
}

func NewRentalFeedRepository(db *pgxpool.Pool) *RentalFeedRepository {
	return &RentalFeedRepository{DB: db}
}

// FindReturnedInPeriod returns rentals marked returned in [start, end).
// A zero start means no lower bound.
func (r *RentalFeedRepository) FindReturnedInPeriod(ctx context.Context, tenantID int, start, end time.Time) ([]models.ReturnedRental, error) {
	query := `
		SELECT rental_id, COALESCE(code, '') as code,
		       COALESCE(required_deposit, 0) as required_deposit,
		       COALESCE(returned_deposit, 0) as returned_deposit,
		       COALESCE(retained_deposit, 0) as retained_deposit,
		       returned_at
		FROM rentals
		WHERE tenant_id = $1 AND returned_at IS NOT NULL AND returned_at < $2
	`
	args := []interface{}{tenantID, end}

	if !start.IsZero() {
		query += " AND returned_at >= $3"
		args = append(args, start)
	}
	query += " ORDER BY returned_at ASC, rental_id ASC"

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list returned rentals: %w", err)
	}
	defer rows.Close()

	var rentals []models.ReturnedRental
	for rows.Next() {
		var rental models.ReturnedRental
		err := rows.Scan(
			&rental.RentalID, &rental.Code,
			&rental.RequiredDeposit, &rental.ReturnedDeposit, &rental.RetainedDeposit,
			&rental.ReturnedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan returned rental: %w", err)
		}
		rentals = append(rentals, rental)
	}

	return rentals, rows.Err()
}

func (r *RentalFeedRepository) FindByID(ctx context.Context, tenantID, rentalID int) (*models.RentalInfo, error) {
	query := `
		SELECT rental_id, COALESCE(code, '') as code, COALESCE(warehouse_id, 0) as warehouse_id
		FROM rentals
		WHERE tenant_id = $1 AND rental_id = $2
	`

	info := &models.RentalInfo{}
	err := r.DB.QueryRow(ctx, query, tenantID, rentalID).Scan(&info.RentalID, &info.Code, &info.WarehouseID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &models.NotFoundError{Entity: "rental", ID: rentalID}
		}
		return nil, fmt.Errorf("failed to get rental %d: %w", rentalID, err)
	}
	return info, nil
}

package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"deposit-backend/internal/models"
)

// In-memory stores mirroring the repository semantics: tenant scoping,
// optimistic version checks and the one-deposit-per-rental rule.

type memDepositStore struct {
	nextID   int
	deposits map[int]*models.Deposit

	// afterGet runs between the service's read and its write, to force
	// version conflicts in tests
	afterGet func()
}

func newMemDepositStore() *memDepositStore {
	return &memDepositStore{deposits: make(map[int]*models.Deposit)}
}

func copyDeposit(d *models.Deposit) *models.Deposit {
	c := *d
	if d.RetainedAmount != nil {
		v := *d.RetainedAmount
		c.RetainedAmount = &v
	}
	if d.ReturnedAmount != nil {
		v := *d.ReturnedAmount
		c.ReturnedAmount = &v
	}
	if d.SettledAt != nil {
		v := *d.SettledAt
		c.SettledAt = &v
	}
	if d.SettledBy != nil {
		v := *d.SettledBy
		c.SettledBy = &v
	}
	return &c
}

func (s *memDepositStore) Create(ctx context.Context, d *models.Deposit) error {
	for _, existing := range s.deposits {
		if existing.TenantID == d.TenantID && existing.RentalID == d.RentalID {
			return &models.DuplicateDepositError{RentalID: d.RentalID}
		}
	}
	s.nextID++
	d.ID = s.nextID
	d.Reference = fmt.Sprintf("DEP-%06d", s.nextID)
	d.Version = 1
	d.CreatedAt = d.ReceivedAt
	d.UpdatedAt = d.ReceivedAt
	s.deposits[d.ID] = copyDeposit(d)
	return nil
}

func (s *memDepositStore) GetByID(ctx context.Context, tenantID, id int) (*models.Deposit, error) {
	d, ok := s.deposits[id]
	if !ok || d.TenantID != tenantID {
		return nil, &models.NotFoundError{Entity: "deposit", ID: id}
	}
	c := copyDeposit(d)
	if s.afterGet != nil {
		s.afterGet()
	}
	return c, nil
}

func (s *memDepositStore) GetByRentalID(ctx context.Context, tenantID, rentalID int) (*models.Deposit, error) {
	for _, d := range s.deposits {
		if d.TenantID == tenantID && d.RentalID == rentalID {
			return copyDeposit(d), nil
		}
	}
	return nil, &models.NotFoundError{Entity: "deposit for rental", ID: rentalID}
}

func (s *memDepositStore) UpdateStatus(ctx context.Context, d *models.Deposit) error {
	stored, ok := s.deposits[d.ID]
	if !ok || stored.TenantID != d.TenantID {
		return &models.NotFoundError{Entity: "deposit", ID: d.ID}
	}
	if stored.Version != d.Version {
		return &models.ConcurrentModificationError{DepositID: d.ID}
	}
	d.Version++
	s.deposits[d.ID] = copyDeposit(d)
	return nil
}

func (s *memDepositStore) List(ctx context.Context, tenantID int, filter models.DepositFilter) ([]*models.Deposit, error) {
	var out []*models.Deposit
	for _, d := range s.deposits {
		if d.TenantID != tenantID {
			continue
		}
		if len(filter.Statuses) > 0 && !statusAllowed(d.Status, filter.Statuses) {
			continue
		}
		if filter.ReceivedFrom != nil && d.ReceivedAt.Before(*filter.ReceivedFrom) {
			continue
		}
		if filter.ReceivedTo != nil && d.ReceivedAt.After(*filter.ReceivedTo) {
			continue
		}
		if filter.SettledFrom != nil && (d.SettledAt == nil || d.SettledAt.Before(*filter.SettledFrom)) {
			continue
		}
		if filter.SettledTo != nil && (d.SettledAt == nil || d.SettledAt.After(*filter.SettledTo)) {
			continue
		}
		if filter.WarehouseID != nil && d.WarehouseID != *filter.WarehouseID {
			continue
		}
		out = append(out, copyDeposit(d))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ReceivedAt.Equal(out[j].ReceivedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].ReceivedAt.Before(out[j].ReceivedAt)
	})
	return out, nil
}

// seed inserts a deposit directly, bypassing lifecycle rules
func (s *memDepositStore) seed(d *models.Deposit) *models.Deposit {
	s.nextID++
	d.ID = s.nextID
	if d.Reference == "" {
		d.Reference = fmt.Sprintf("DEP-%06d", s.nextID)
	}
	if d.Version == 0 {
		d.Version = 1
	}
	s.deposits[d.ID] = copyDeposit(d)
	return copyDeposit(d)
}

type memLedger struct {
	nextID  int
	entries []*models.DepositTransaction
}

func (l *memLedger) Append(ctx context.Context, tx *models.DepositTransaction) error {
	l.nextID++
	tx.ID = l.nextID
	c := *tx
	l.entries = append(l.entries, &c)
	return nil
}

func (l *memLedger) ListByDeposit(ctx context.Context, tenantID, depositID int) ([]*models.DepositTransaction, error) {
	var out []*models.DepositTransaction
	for _, tx := range l.entries {
		if tx.TenantID == tenantID && tx.DepositID == depositID {
			c := *tx
			out = append(out, &c)
		}
	}
	return out, nil
}

type memRentalFeed struct {
	returned []models.ReturnedRental
	infos    map[int]models.RentalInfo
}

func newMemRentalFeed() *memRentalFeed {
	return &memRentalFeed{infos: make(map[int]models.RentalInfo)}
}

func (f *memRentalFeed) FindReturnedInPeriod(ctx context.Context, tenantID int, start, end time.Time) ([]models.ReturnedRental, error) {
	var out []models.ReturnedRental
	for _, r := range f.returned {
		if !start.IsZero() && r.ReturnedAt.Before(start) {
			continue
		}
		if !r.ReturnedAt.Before(end) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (f *memRentalFeed) FindByID(ctx context.Context, tenantID, rentalID int) (*models.RentalInfo, error) {
	info, ok := f.infos[rentalID]
	if !ok {
		return nil, &models.NotFoundError{Entity: "rental", ID: rentalID}
	}
	return &info, nil
}

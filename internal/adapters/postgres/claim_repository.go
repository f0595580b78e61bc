package postgres

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/CalistoMango/TheShipyard-sub000/internal/domain"
)

type claimLedgerRepository struct {
	db *gorm.DB
}

// Record is the replay guard: the (tx_ref, claim_type) primary key rejecting
// the second insert is the only concurrency control.
func (r *claimLedgerRepository) Record(ctx context.Context, entry domain.ClaimLedgerEntry) error {
	rec := claimLedgerModel{
		TxRef:       entry.TxRef,
		ClaimType:   string(entry.ClaimType),
		PrincipalID: entry.PrincipalID,
		Amount:      entry.Amount,
		CreatedAt:   entry.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return err
	}
	return nil
}

func (r *claimLedgerRepository) Get(ctx context.Context, txRef string, claimType domain.ClaimType) (*domain.ClaimLedgerEntry, error) {
	var rec claimLedgerModel
	err := r.db.WithContext(ctx).
		Where("tx_ref = ? AND claim_type = ?", txRef, string(claimType)).
		Take(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &domain.ClaimLedgerEntry{
		TxRef:       rec.TxRef,
		ClaimType:   domain.ClaimType(rec.ClaimType),
		PrincipalID: rec.PrincipalID,
		Amount:      rec.Amount,
		CreatedAt:   rec.CreatedAt,
	}, nil
}

func (r *claimLedgerRepository) SumByPrincipal(ctx context.Context, principalID string, claimType domain.ClaimType) (decimal.Decimal, error) {
	var row struct {
		Total decimal.Decimal
	}
	err := r.db.WithContext(ctx).Raw(`
		SELECT COALESCE(SUM(amount), 0) AS total
		  FROM claim_ledger
		 WHERE principal_id = ? AND claim_type = ?`,
		principalID, string(claimType),
	).Scan(&row).Error
	if err != nil {
		return decimal.Zero, err
	}
	return row.Total, nil
}

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/CalistoMango/TheShipyard-sub000/internal/domain"
)

type principalRepository struct {
	db *gorm.DB
}

func (r *principalRepository) EnsureExists(ctx context.Context, principalID string, at time.Time) error {
	rec := principalModel{
		PrincipalID:        principalID,
		ClaimedRefundTotal: decimal.Zero,
		ClaimedRewardTotal: decimal.Zero,
		CreatedAt:          at,
		UpdatedAt:          at,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "principal_id"}},
			DoNothing: true,
		}).
		Create(&rec).Error
}

func (r *principalRepository) GetByID(ctx context.Context, principalID string) (domain.Principal, error) {
	var rec principalModel
	if err := r.db.WithContext(ctx).Where("principal_id = ?", principalID).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Principal{}, domain.ErrNotFound
		}
		return domain.Principal{}, err
	}
	return domain.Principal{
		PrincipalID:        rec.PrincipalID,
		DisplayName:        rec.DisplayName,
		WalletAddress:      rec.WalletAddress,
		ClaimedRefundTotal: rec.ClaimedRefundTotal,
		ClaimedRewardTotal: rec.ClaimedRewardTotal,
		CreatedAt:          rec.CreatedAt,
		UpdatedAt:          rec.UpdatedAt,
	}, nil
}

func (r *principalRepository) AddClaimedTotal(ctx context.Context, principalID string, claimType domain.ClaimType, amount decimal.Decimal, at time.Time) error {
	col, err := claimedTotalColumn(claimType)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Model(&principalModel{}).
		Where("principal_id = ?", principalID).
		Updates(map[string]any{
			col:          gorm.Expr(col+" + ?", amount),
			"updated_at": at,
		}).Error
}

func (r *principalRepository) SetClaimedTotal(ctx context.Context, principalID string, claimType domain.ClaimType, total decimal.Decimal, at time.Time) error {
	col, err := claimedTotalColumn(claimType)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Model(&principalModel{}).
		Where("principal_id = ?", principalID).
		Updates(map[string]any{col: total, "updated_at": at}).Error
}

func claimedTotalColumn(claimType domain.ClaimType) (string, error) {
	switch claimType {
	case domain.ClaimTypeRefund:
		return "claimed_refund_total", nil
	case domain.ClaimTypeReward:
		return "claimed_reward_total", nil
	default:
		return "", domain.ErrInvalidInput
	}
}

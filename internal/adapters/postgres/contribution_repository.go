package postgres

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/CalistoMango/TheShipyard-sub000/internal/domain"
	"github.com/CalistoMango/TheShipyard-sub000/internal/ports"
)

type contributionRepository struct {
	db *gorm.DB
}

// Contribute inserts the record and applies the balance delta inside one
// transaction. The increment is a single UPDATE with the race-mode flip folded
// into a CASE, so two concurrent contributions can never lose an update or
// both claim the threshold crossing.
func (r *contributionRepository) Contribute(ctx context.Context, params ports.ContributeParams) (ports.ContributeResult, error) {
	var result ports.ContributeResult
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec := contributionModel{
			ContributionID: params.ContributionID,
			IdeaID:         params.IdeaID,
			PrincipalID:    params.PrincipalID,
			Amount:         params.Amount,
			CreatedAt:      params.At,
		}
		if params.ExternalTxRef != "" {
			rec.ExternalTxRef = &params.ExternalTxRef
		}
		if err := tx.Create(&rec).Error; err != nil {
			if isUniqueViolation(err) {
				return domain.ErrConflict
			}
			return err
		}

		var row struct {
			PoolBalance decimal.Decimal
			Status      string
		}
		res := tx.Raw(`
			UPDATE ideas
			   SET pool_balance = pool_balance + ?,
			       status = CASE
			           WHEN ? > 0 AND status = ? AND pool_balance < ? AND pool_balance + ? >= ?
			           THEN ?
			           ELSE status
			       END,
			       updated_at = ?
			 WHERE idea_id = ? AND status = ?
			RETURNING pool_balance, status`,
			params.Amount,
			params.RaceThreshold, string(domain.IdeaStatusOpen), params.RaceThreshold, params.Amount, params.RaceThreshold,
			string(domain.IdeaStatusVoting),
			params.At,
			params.IdeaID, string(domain.IdeaStatusOpen),
		).Scan(&row)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrIdeaNotOpen
		}
		result = ports.ContributeResult{
			NewBalance:  row.PoolBalance,
			ModeChanged: row.Status == string(domain.IdeaStatusVoting),
		}
		return nil
	})
	if err != nil {
		return ports.ContributeResult{}, err
	}
	return result, nil
}

func (r *contributionRepository) ListByIdeaAndPrincipal(ctx context.Context, ideaID, principalID string) ([]domain.Contribution, error) {
	var recs []contributionModel
	err := r.db.WithContext(ctx).
		Where("idea_id = ? AND principal_id = ?", ideaID, principalID).
		Order("created_at ASC").
		Find(&recs).Error
	if err != nil {
		return nil, err
	}
	return mapContributions(recs), nil
}

func (r *contributionRepository) ListOutstandingByPrincipal(ctx context.Context, principalID string) ([]domain.Contribution, error) {
	var recs []contributionModel
	err := r.db.WithContext(ctx).
		Where("principal_id = ? AND refunded_at IS NULL", principalID).
		Order("created_at ASC").
		Find(&recs).Error
	if err != nil {
		return nil, err
	}
	return mapContributions(recs), nil
}

// ReleaseRefund stamps the records and debits the pool in one transaction.
// Already-stamped records return no amount, so a retry after a partial failure
// settles to a no-op instead of double-debiting the pool.
func (r *contributionRepository) ReleaseRefund(ctx context.Context, ideaID string, contributionIDs []string, at time.Time) (decimal.Decimal, error) {
	released := decimal.Zero
	if len(contributionIDs) == 0 {
		return released, nil
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rows []struct {
			Amount decimal.Decimal
		}
		res := tx.Raw(`
			UPDATE contributions
			   SET refunded_at = ?
			 WHERE idea_id = ? AND contribution_id IN ? AND refunded_at IS NULL
			RETURNING amount`,
			at, ideaID, contributionIDs,
		).Scan(&rows)
		if res.Error != nil {
			return res.Error
		}
		for _, row := range rows {
			released = released.Add(row.Amount)
		}
		if released.IsZero() {
			return nil
		}

		debit := tx.Exec(`
			UPDATE ideas
			   SET pool_balance = pool_balance - ?, updated_at = ?
			 WHERE idea_id = ? AND pool_balance >= ?`,
			released, at, ideaID, released,
		)
		if debit.Error != nil {
			return debit.Error
		}
		if debit.RowsAffected == 0 {
			return domain.ErrLedgerDrift
		}
		return nil
	})
	if err != nil {
		return decimal.Zero, err
	}
	return released, nil
}

func mapContributions(recs []contributionModel) []domain.Contribution {
	out := make([]domain.Contribution, 0, len(recs))
	for _, rec := range recs {
		c := domain.Contribution{
			ContributionID: rec.ContributionID,
			IdeaID:         rec.IdeaID,
			PrincipalID:    rec.PrincipalID,
			Amount:         rec.Amount,
			RefundedAt:     rec.RefundedAt,
			CreatedAt:      rec.CreatedAt,
		}
		if rec.ExternalTxRef != nil {
			c.ExternalTxRef = *rec.ExternalTxRef
		}
		out = append(out, c)
	}
	return out
}

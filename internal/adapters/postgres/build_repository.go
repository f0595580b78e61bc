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

type buildRepository struct {
	db *gorm.DB
}

func (r *buildRepository) Create(ctx context.Context, build domain.Build) error {
	rec := buildModel{
		BuildID:     build.BuildID,
		IdeaID:      build.IdeaID,
		BuilderID:   build.BuilderID,
		URL:         build.URL,
		Description: build.Description,
		Status:      string(build.Status),
		CreatedAt:   build.CreatedAt,
		UpdatedAt:   build.UpdatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return err
	}
	return nil
}

func (r *buildRepository) GetByID(ctx context.Context, buildID string) (domain.Build, error) {
	var rec buildModel
	if err := r.db.WithContext(ctx).Where("build_id = ?", buildID).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Build{}, domain.ErrNotFound
		}
		return domain.Build{}, err
	}
	return mapBuild(rec), nil
}

func (r *buildRepository) ListByIdea(ctx context.Context, ideaID string) ([]domain.Build, error) {
	var recs []buildModel
	err := r.db.WithContext(ctx).
		Where("idea_id = ?", ideaID).
		Order("created_at ASC").
		Find(&recs).Error
	if err != nil {
		return nil, err
	}
	out := make([]domain.Build, 0, len(recs))
	for _, rec := range recs {
		out = append(out, mapBuild(rec))
	}
	return out, nil
}

func (r *buildRepository) AdvanceToVoting(ctx context.Context, buildID string, deadline, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&buildModel{}).
		Where("build_id = ? AND status = ?", buildID, string(domain.BuildStatusPendingReview)).
		Updates(map[string]any{
			"status":          string(domain.BuildStatusVoting),
			"voting_deadline": deadline,
			"updated_at":      at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrConflict
	}
	return nil
}

// UpsertVote replaces the voter's live vote and re-derives both tallies from
// the vote set in the same transaction. Counts are never incremented in place,
// so a re-vote can only move a tally, never inflate it.
func (r *buildRepository) UpsertVote(ctx context.Context, vote domain.Vote) (int, int, error) {
	var approve, reject int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec := voteModel{
			VoteID:    vote.VoteID,
			BuildID:   vote.BuildID,
			VoterID:   vote.VoterID,
			Approve:   vote.Approve,
			CreatedAt: vote.CreatedAt,
			UpdatedAt: vote.UpdatedAt,
		}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "build_id"}, {Name: "voter_id"}},
			DoUpdates: clause.Assignments(map[string]any{"approve": vote.Approve, "updated_at": vote.UpdatedAt}),
		}).Create(&rec).Error
		if err != nil {
			return err
		}

		var tally struct {
			Approve int
			Reject  int
		}
		err = tx.Raw(`
			SELECT COUNT(*) FILTER (WHERE approve)     AS approve,
			       COUNT(*) FILTER (WHERE NOT approve) AS reject
			  FROM votes WHERE build_id = ?`, vote.BuildID,
		).Scan(&tally).Error
		if err != nil {
			return err
		}

		err = tx.Model(&buildModel{}).
			Where("build_id = ?", vote.BuildID).
			Updates(map[string]any{
				"approve_count": tally.Approve,
				"reject_count":  tally.Reject,
				"updated_at":    vote.UpdatedAt,
			}).Error
		if err != nil {
			return err
		}
		approve, reject = tally.Approve, tally.Reject
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	return approve, reject, nil
}

func (r *buildRepository) Resolve(ctx context.Context, buildID string, outcome domain.BuildStatus, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&buildModel{}).
		Where("build_id = ? AND status = ?", buildID, string(domain.BuildStatusVoting)).
		Updates(map[string]any{"status": string(outcome), "updated_at": at})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrConflict
	}
	return nil
}

func (r *buildRepository) MarkBuilderRewardClaimed(ctx context.Context, buildIDs []string, at time.Time) error {
	if len(buildIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&buildModel{}).
		Where("build_id IN ? AND builder_reward_claimed_at IS NULL", buildIDs).
		Updates(map[string]any{"builder_reward_claimed_at": at, "updated_at": at}).Error
}

func (r *buildRepository) ListApprovedByBuilder(ctx context.Context, principalID string) ([]domain.RewardSource, error) {
	var rows []struct {
		BuildID     string
		PoolBalance decimal.Decimal
		Claimed     bool
		EarnedAt    time.Time
	}
	err := r.db.WithContext(ctx).Raw(`
		SELECT b.build_id                               AS build_id,
		       i.pool_balance                           AS pool_balance,
		       b.builder_reward_claimed_at IS NOT NULL  AS claimed,
		       b.updated_at                             AS earned_at
		  FROM builds b
		  JOIN ideas i ON i.idea_id = b.idea_id
		 WHERE b.builder_id = ? AND b.status = ?`,
		principalID, string(domain.BuildStatusApproved),
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]domain.RewardSource, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.RewardSource{
			SourceID:    row.BuildID,
			PoolBalance: row.PoolBalance,
			Claimed:     row.Claimed,
			EarnedAt:    row.EarnedAt,
		})
	}
	return out, nil
}

func mapBuild(rec buildModel) domain.Build {
	return domain.Build{
		BuildID:                rec.BuildID,
		IdeaID:                 rec.IdeaID,
		BuilderID:              rec.BuilderID,
		URL:                    rec.URL,
		Description:            rec.Description,
		Status:                 domain.BuildStatus(rec.Status),
		ApproveCount:           rec.ApproveCount,
		RejectCount:            rec.RejectCount,
		VotingDeadline:         rec.VotingDeadline,
		BuilderRewardClaimedAt: rec.BuilderRewardClaimedAt,
		CreatedAt:              rec.CreatedAt,
		UpdatedAt:              rec.UpdatedAt,
	}
}

package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/CalistoMango/TheShipyard-sub000/internal/domain"
)

type ideaRepository struct {
	db *gorm.DB
}

func (r *ideaRepository) Create(ctx context.Context, idea domain.Idea) error {
	rec := ideaModel{
		IdeaID:      idea.IdeaID,
		Title:       idea.Title,
		Description: idea.Description,
		SubmitterID: idea.SubmitterID,
		Status:      string(idea.Status),
		PoolBalance: idea.PoolBalance,
		CreatedAt:   idea.CreatedAt,
		UpdatedAt:   idea.UpdatedAt,
	}
	if idea.SourcePostRef != "" {
		rec.SourcePostRef = &idea.SourcePostRef
	}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return err
	}
	return nil
}

func (r *ideaRepository) GetByID(ctx context.Context, ideaID string) (domain.Idea, error) {
	var rec ideaModel
	if err := r.db.WithContext(ctx).Where("idea_id = ?", ideaID).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Idea{}, domain.ErrNotFound
		}
		return domain.Idea{}, err
	}
	return mapIdea(rec), nil
}

func (r *ideaRepository) List(ctx context.Context, status domain.IdeaStatus, limit, offset int) ([]domain.Idea, error) {
	q := r.db.WithContext(ctx).Model(&ideaModel{}).Order("created_at DESC").Limit(limit).Offset(offset)
	if status != "" {
		q = q.Where("status = ?", string(status))
	}
	var recs []ideaModel
	if err := q.Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Idea, 0, len(recs))
	for _, rec := range recs {
		out = append(out, mapIdea(rec))
	}
	return out, nil
}

// UpdateStatus is guarded by the expected current status; a guard miss returns
// domain.ErrConflict so orchestration steps racing each other stay serialized.
func (r *ideaRepository) UpdateStatus(ctx context.Context, ideaID string, from, to domain.IdeaStatus, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&ideaModel{}).
		Where("idea_id = ? AND status = ?", ideaID, string(from)).
		Updates(map[string]any{"status": string(to), "updated_at": at})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrConflict
	}
	return nil
}

func (r *ideaRepository) MarkSubmitterRewardClaimed(ctx context.Context, ideaIDs []string, at time.Time) error {
	if len(ideaIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&ideaModel{}).
		Where("idea_id IN ? AND submitter_reward_claimed_at IS NULL", ideaIDs).
		Updates(map[string]any{"submitter_reward_claimed_at": at, "updated_at": at}).Error
}

func (r *ideaRepository) ListCompletedBySubmitter(ctx context.Context, principalID string) ([]domain.RewardSource, error) {
	var recs []ideaModel
	err := r.db.WithContext(ctx).
		Where("submitter_id = ? AND status = ?", principalID, string(domain.IdeaStatusCompleted)).
		Find(&recs).Error
	if err != nil {
		return nil, err
	}
	out := make([]domain.RewardSource, 0, len(recs))
	for _, rec := range recs {
		out = append(out, domain.RewardSource{
			SourceID:    rec.IdeaID,
			PoolBalance: rec.PoolBalance,
			Claimed:     rec.SubmitterRewardClaimedAt != nil,
			EarnedAt:    rec.UpdatedAt,
		})
	}
	return out, nil
}

func mapIdea(rec ideaModel) domain.Idea {
	out := domain.Idea{
		IdeaID:                   rec.IdeaID,
		Title:                    rec.Title,
		Description:              rec.Description,
		SubmitterID:              rec.SubmitterID,
		Status:                   domain.IdeaStatus(rec.Status),
		PoolBalance:              rec.PoolBalance,
		SubmitterRewardClaimedAt: rec.SubmitterRewardClaimedAt,
		CreatedAt:                rec.CreatedAt,
		UpdatedAt:                rec.UpdatedAt,
	}
	if rec.SourcePostRef != nil {
		out.SourcePostRef = *rec.SourcePostRef
	}
	return out
}

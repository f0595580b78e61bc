package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type IdeaStatus string

const (
	// IdeaStatusOpen accepts contributions and accrues pool balance.
	IdeaStatusOpen IdeaStatus = "open"
	// IdeaStatusVoting is race mode: a build is being voted on, or the pool
	// crossed the funding threshold. Contributions are closed.
	IdeaStatusVoting    IdeaStatus = "voting"
	IdeaStatusCompleted IdeaStatus = "completed"
	// IdeaStatusAlreadyExists marks an idea whose solution predates the pool.
	// Outstanding contributions become refund-eligible immediately.
	IdeaStatusAlreadyExists IdeaStatus = "already_exists"
)

// Idea is the aggregate root of one funding pool. PoolBalance is mutated only
// through atomic storage-level increments and never goes negative.
type Idea struct {
	IdeaID        string          `json:"idea_id"`
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	SubmitterID   string          `json:"submitter_id"`
	Status        IdeaStatus      `json:"status"`
	PoolBalance   decimal.Decimal `json:"pool_balance"`
	SourcePostRef string          `json:"source_post_ref,omitempty"`
	// SubmitterRewardClaimedAt is the reward-claimed flag for the submitter share.
	SubmitterRewardClaimedAt *time.Time `json:"submitter_reward_claimed_at,omitempty"`
	CreatedAt                time.Time  `json:"created_at"`
	UpdatedAt                time.Time  `json:"updated_at"`
}

// CanTransitionIdea reports whether an idea status change is legal. Transitions
// are one-directional except open<->voting, which may cycle when a build is
// rejected.
func CanTransitionIdea(from, to IdeaStatus) bool {
	switch from {
	case IdeaStatusOpen:
		return to == IdeaStatusVoting || to == IdeaStatusAlreadyExists
	case IdeaStatusVoting:
		return to == IdeaStatusCompleted || to == IdeaStatusOpen
	default:
		return false
	}
}

func ValidateIdeaInput(title, submitterID string) error {
	if strings.TrimSpace(title) == "" || strings.TrimSpace(submitterID) == "" {
		return ErrInvalidInput
	}
	return nil
}

// ExistingReport flags an idea as already solved elsewhere. Acceptance by an
// operator flips the idea to already_exists.
type ExistingReport struct {
	ReportID   string     `json:"report_id"`
	IdeaID     string     `json:"idea_id"`
	ReporterID string     `json:"reporter_id"`
	URL        string     `json:"url"`
	Note       string     `json:"note,omitempty"`
	AcceptedAt *time.Time `json:"accepted_at,omitempty"`
	RejectedAt *time.Time `json:"rejected_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

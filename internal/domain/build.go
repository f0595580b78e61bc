package domain

import (
	"strings"
	"time"
)

type BuildStatus string

const (
	BuildStatusPendingReview BuildStatus = "pending_review"
	BuildStatusVoting        BuildStatus = "voting"
	BuildStatusApproved      BuildStatus = "approved"
	BuildStatusRejected      BuildStatus = "rejected"
)

// Build is a submitted implementation racing for an idea's pool.
// VotingDeadline is nullable only while the build is pending review.
type Build struct {
	BuildID        string      `json:"build_id"`
	IdeaID         string      `json:"idea_id"`
	BuilderID      string      `json:"builder_id"`
	URL            string      `json:"url"`
	Description    string      `json:"description,omitempty"`
	Status         BuildStatus `json:"status"`
	ApproveCount   int         `json:"approve_count"`
	RejectCount    int         `json:"reject_count"`
	VotingDeadline *time.Time  `json:"voting_deadline,omitempty"`
	// BuilderRewardClaimedAt is the reward-claimed flag for the builder share.
	BuilderRewardClaimedAt *time.Time `json:"builder_reward_claimed_at,omitempty"`
	CreatedAt              time.Time  `json:"created_at"`
	UpdatedAt              time.Time  `json:"updated_at"`
}

// Vote is one voter's live position on a build. A re-vote before the deadline
// overwrites the previous row; tallies are always re-derived from the vote set,
// never incremented in place.
type Vote struct {
	VoteID    string    `json:"vote_id"`
	BuildID   string    `json:"build_id"`
	VoterID   string    `json:"voter_id"`
	Approve   bool      `json:"approve"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func ValidateBuildInput(ideaID, builderID, url string) error {
	if strings.TrimSpace(ideaID) == "" || strings.TrimSpace(builderID) == "" {
		return ErrInvalidInput
	}
	if strings.TrimSpace(url) == "" {
		return ErrInvalidInput
	}
	return nil
}

// ResolveVotes decides a build's final status from its tallies. Ties and
// zero-vote windows resolve to the configured default outcome.
func ResolveVotes(approveCount, rejectCount int, tieOutcome BuildStatus) BuildStatus {
	switch {
	case approveCount > rejectCount:
		return BuildStatusApproved
	case rejectCount > approveCount:
		return BuildStatusRejected
	default:
		return tieOutcome
	}
}

package ports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/CalistoMango/TheShipyard-sub000/internal/domain"
)

// ContributeParams captures one pool contribution. The repository must insert
// the record and apply the balance increment in a single transaction, using a
// single-statement atomic delta (never read-modify-write) so concurrent
// contributions cannot lose updates. ExternalTxRef relies on a storage-level
// uniqueness constraint; a duplicate insert returns domain.ErrConflict.
type ContributeParams struct {
	ContributionID string
	IdeaID         string
	PrincipalID    string
	Amount         decimal.Decimal
	ExternalTxRef  string
	// RaceThreshold flips the idea to voting inside the same statement when the
	// balance crosses it from below.
	RaceThreshold decimal.Decimal
	At            time.Time
}

// ContributeResult reports the post-increment balance and whether the
// contribution triggered race mode.
type ContributeResult struct {
	NewBalance  decimal.Decimal
	ModeChanged bool
}

// IdeaRepository is the ledger-store surface for the idea aggregate and its
// contributions.
type IdeaRepository interface {
	Create(ctx context.Context, idea domain.Idea) error
	GetByID(ctx context.Context, ideaID string) (domain.Idea, error)
	List(ctx context.Context, status domain.IdeaStatus, limit, offset int) ([]domain.Idea, error)
	// UpdateStatus applies a status transition, guarded by the expected current
	// status so concurrent orchestration steps cannot clobber each other.
	UpdateStatus(ctx context.Context, ideaID string, from, to domain.IdeaStatus, at time.Time) error
	// MarkSubmitterRewardClaimed stamps the submitter reward flag; a no-op when
	// already stamped.
	MarkSubmitterRewardClaimed(ctx context.Context, ideaIDs []string, at time.Time) error
	// ListCompletedBySubmitter returns reward sources for ideas the principal
	// submitted that reached completed.
	ListCompletedBySubmitter(ctx context.Context, principalID string) ([]domain.RewardSource, error)
}

// ContributionRepository covers contribution reads and the transactional
// contribute/refund mutations.
type ContributionRepository interface {
	Contribute(ctx context.Context, params ContributeParams) (ContributeResult, error)
	ListByIdeaAndPrincipal(ctx context.Context, ideaID, principalID string) ([]domain.Contribution, error)
	ListOutstandingByPrincipal(ctx context.Context, principalID string) ([]domain.Contribution, error)
	// ReleaseRefund stamps RefundedAt on the given records and decrements the
	// pool balance by the amount actually stamped, atomically. Records already
	// carrying a refund stamp are skipped, making a retry after partial failure
	// a no-op rather than an error.
	ReleaseRefund(ctx context.Context, ideaID string, contributionIDs []string, at time.Time) (decimal.Decimal, error)
}

// BuildRepository persists builds and votes. UpsertVote replaces a voter's live
// vote and the adapter re-derives both tallies from the vote set in the same
// transaction.
type BuildRepository interface {
	Create(ctx context.Context, build domain.Build) error
	GetByID(ctx context.Context, buildID string) (domain.Build, error)
	ListByIdea(ctx context.Context, ideaID string) ([]domain.Build, error)
	// AdvanceToVoting moves pending_review -> voting and sets the deadline.
	AdvanceToVoting(ctx context.Context, buildID string, deadline, at time.Time) error
	UpsertVote(ctx context.Context, vote domain.Vote) (approveCount, rejectCount int, err error)
	// Resolve finalizes a voting build; guarded by current status = voting.
	Resolve(ctx context.Context, buildID string, outcome domain.BuildStatus, at time.Time) error
	MarkBuilderRewardClaimed(ctx context.Context, buildIDs []string, at time.Time) error
	// ListApprovedByBuilder returns reward sources for builds the principal won.
	ListApprovedByBuilder(ctx context.Context, principalID string) ([]domain.RewardSource, error)
}

// ClaimLedgerRepository is the replay guard. Record performs a
// uniqueness-constrained insert on (tx_ref, claim_type); the storage layer
// rejecting the second insert is the sole concurrency control, no application
// locking. Get returns nil when no row exists.
type ClaimLedgerRepository interface {
	Record(ctx context.Context, entry domain.ClaimLedgerEntry) error
	Get(ctx context.Context, txRef string, claimType domain.ClaimType) (*domain.ClaimLedgerEntry, error)
	// SumByPrincipal reports the total ever claimed for a principal and type,
	// derived from the append-only entries themselves.
	SumByPrincipal(ctx context.Context, principalID string, claimType domain.ClaimType) (decimal.Decimal, error)
}

// PrincipalRepository provisions and reads principals. AddClaimedTotal updates
// the advisory running totals; callers treat failures as best-effort.
type PrincipalRepository interface {
	EnsureExists(ctx context.Context, principalID string, at time.Time) error
	GetByID(ctx context.Context, principalID string) (domain.Principal, error)
	AddClaimedTotal(ctx context.Context, principalID string, claimType domain.ClaimType, amount decimal.Decimal, at time.Time) error
	// SetClaimedTotal overwrites a running total with a value re-derived from the
	// claim ledger; used by the repair pass.
	SetClaimedTotal(ctx context.Context, principalID string, claimType domain.ClaimType, total decimal.Decimal, at time.Time) error
}

// ReportRepository stores existing-solution reports.
type ReportRepository interface {
	Create(ctx context.Context, report domain.ExistingReport) error
	GetByID(ctx context.Context, reportID string) (domain.ExistingReport, error)
	// Close stamps acceptance or rejection; returns domain.ErrReportAlreadyClosed
	// if the report was resolved before.
	Close(ctx context.Context, reportID string, accepted bool, at time.Time) error
}

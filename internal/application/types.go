package application

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/CalistoMango/TheShipyard-sub000/internal/domain"
)

// Config is the injected tunable surface of the pool service. Everything here
// is a constructor argument, never ambient process state, so tests can vary
// thresholds, splits, and windows per case.
type Config struct {
	ServiceName string
	// Project is the vault-side project identifier scoping cumulative claims.
	Project string
	// CurrencyExponent is the settlement currency's fraction digits (2..6).
	CurrencyExponent int32

	// RefundDelayDays is the per-contributor inactivity window. Zero is only
	// honored when NonProduction is set; production configs fall back to 30.
	RefundDelayDays int
	NonProduction   bool

	MinContribution decimal.Decimal
	RaceThreshold   decimal.Decimal
	FeeSplit        domain.FeeSplit
	// ClaimTolerance absorbs settlement rounding when comparing the verified
	// on-chain delta against the ledger-eligible amount.
	ClaimTolerance decimal.Decimal
	ClaimTTL       time.Duration

	VotingWindow      time.Duration
	RejectionCooldown time.Duration
	// VoteQuorum enables early tally-triggered resolution once total votes reach
	// it; zero disables the early path.
	VoteQuorum int
	TieOutcome domain.BuildStatus
}

// Actor is the verified request principal as established by the identity
// provider. The application layer never re-derives identity.
type Actor struct {
	PrincipalID string
	Operator    bool
	RequestID   string
}

type CreateIdeaInput struct {
	Title         string
	Description   string
	SourcePostRef string
}

type ContributeInput struct {
	IdeaID        string
	PrincipalID   string
	Amount        decimal.Decimal
	ExternalTxRef string
}

type ContributeOutput struct {
	ContributionID string
	NewBalance     decimal.Decimal
	ModeChanged    bool
	IdeaStatus     domain.IdeaStatus
}

type SignClaimInput struct {
	PrincipalID      string
	RecipientAddress string
	TTL              time.Duration
}

type RecordClaimInput struct {
	PrincipalID string
	TxRef       string
}

type RecordClaimOutput struct {
	Accepted    bool
	AlreadyUsed bool
	Amount      decimal.Decimal
}

type SubmitBuildInput struct {
	IdeaID      string
	BuilderID   string
	URL         string
	Description string
}

type CastVoteInput struct {
	BuildID string
	VoterID string
	Approve bool
}

type ReportExistingInput struct {
	IdeaID     string
	ReporterID string
	URL        string
	Note       string
}

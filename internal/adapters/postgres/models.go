package postgres

import (
	"time"

	"github.com/shopspring/decimal"
)

type ideaModel struct {
	IdeaID                   string          `gorm:"column:idea_id;type:uuid;primaryKey"`
	Title                    string          `gorm:"column:title"`
	Description              string          `gorm:"column:description"`
	SubmitterID              string          `gorm:"column:submitter_id"`
	Status                   string          `gorm:"column:status"`
	PoolBalance              decimal.Decimal `gorm:"column:pool_balance;type:numeric(20,6)"`
	SourcePostRef            *string         `gorm:"column:source_post_ref"`
	SubmitterRewardClaimedAt *time.Time      `gorm:"column:submitter_reward_claimed_at"`
	CreatedAt                time.Time       `gorm:"column:created_at"`
	UpdatedAt                time.Time       `gorm:"column:updated_at"`
}

func (ideaModel) TableName() string { return "ideas" }

type contributionModel struct {
	ContributionID string          `gorm:"column:contribution_id;type:uuid;primaryKey"`
	IdeaID         string          `gorm:"column:idea_id;type:uuid"`
	PrincipalID    string          `gorm:"column:principal_id"`
	Amount         decimal.Decimal `gorm:"column:amount;type:numeric(20,6)"`
	ExternalTxRef  *string         `gorm:"column:external_tx_ref"`
	RefundedAt     *time.Time      `gorm:"column:refunded_at"`
	CreatedAt      time.Time       `gorm:"column:created_at"`
}

func (contributionModel) TableName() string { return "contributions" }

type buildModel struct {
	BuildID                string     `gorm:"column:build_id;type:uuid;primaryKey"`
	IdeaID                 string     `gorm:"column:idea_id;type:uuid"`
	BuilderID              string     `gorm:"column:builder_id"`
	URL                    string     `gorm:"column:url"`
	Description            string     `gorm:"column:description"`
	Status                 string     `gorm:"column:status"`
	ApproveCount           int        `gorm:"column:approve_count"`
	RejectCount            int        `gorm:"column:reject_count"`
	VotingDeadline         *time.Time `gorm:"column:voting_deadline"`
	BuilderRewardClaimedAt *time.Time `gorm:"column:builder_reward_claimed_at"`
	CreatedAt              time.Time  `gorm:"column:created_at"`
	UpdatedAt              time.Time  `gorm:"column:updated_at"`
}

func (buildModel) TableName() string { return "builds" }

type voteModel struct {
	VoteID    string    `gorm:"column:vote_id;type:uuid;primaryKey"`
	BuildID   string    `gorm:"column:build_id;type:uuid"`
	VoterID   string    `gorm:"column:voter_id"`
	Approve   bool      `gorm:"column:approve"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (voteModel) TableName() string { return "votes" }

type claimLedgerModel struct {
	TxRef       string          `gorm:"column:tx_ref;primaryKey"`
	ClaimType   string          `gorm:"column:claim_type;primaryKey"`
	PrincipalID string          `gorm:"column:principal_id"`
	Amount      decimal.Decimal `gorm:"column:amount;type:numeric(20,6)"`
	CreatedAt   time.Time       `gorm:"column:created_at"`
}

func (claimLedgerModel) TableName() string { return "claim_ledger" }

type principalModel struct {
	PrincipalID        string          `gorm:"column:principal_id;primaryKey"`
	DisplayName        string          `gorm:"column:display_name"`
	WalletAddress      string          `gorm:"column:wallet_address"`
	ClaimedRefundTotal decimal.Decimal `gorm:"column:claimed_refund_total;type:numeric(20,6)"`
	ClaimedRewardTotal decimal.Decimal `gorm:"column:claimed_reward_total;type:numeric(20,6)"`
	CreatedAt          time.Time       `gorm:"column:created_at"`
	UpdatedAt          time.Time       `gorm:"column:updated_at"`
}

func (principalModel) TableName() string { return "principals" }

type existingReportModel struct {
	ReportID   string     `gorm:"column:report_id;type:uuid;primaryKey"`
	IdeaID     string     `gorm:"column:idea_id;type:uuid"`
	ReporterID string     `gorm:"column:reporter_id"`
	URL        string     `gorm:"column:url"`
	Note       string     `gorm:"column:note"`
	AcceptedAt *time.Time `gorm:"column:accepted_at"`
	RejectedAt *time.Time `gorm:"column:rejected_at"`
	CreatedAt  time.Time  `gorm:"column:created_at"`
}

func (existingReportModel) TableName() string { return "existing_reports" }

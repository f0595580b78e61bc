package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Principal is an authenticated platform actor. The claimed totals are
// denormalized running sums reconciled from claim ledger entries; they are
// eventually consistent and never consulted for replay decisions.
type Principal struct {
	PrincipalID        string          `json:"principal_id"`
	DisplayName        string          `json:"display_name,omitempty"`
	WalletAddress      string          `json:"wallet_address,omitempty"`
	ClaimedRefundTotal decimal.Decimal `json:"claimed_refund_total"`
	ClaimedRewardTotal decimal.Decimal `json:"claimed_reward_total"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

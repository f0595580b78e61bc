package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Contribution is an immutable funding record owned by its Idea. The only
// permitted mutation after insert is the single RefundedAt stamp; records are
// never deleted. ExternalTxRef carries a storage-level uniqueness constraint so
// a replayed settlement transaction cannot be double-inserted on retry.
type Contribution struct {
	ContributionID string          `json:"contribution_id"`
	IdeaID         string          `json:"idea_id"`
	PrincipalID    string          `json:"principal_id"`
	Amount         decimal.Decimal `json:"amount"`
	ExternalTxRef  string          `json:"external_tx_ref,omitempty"`
	RefundedAt     *time.Time      `json:"refunded_at,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// Outstanding reports whether the contribution still sits in the pool.
func (c Contribution) Outstanding() bool {
	return c.RefundedAt == nil
}

// OutstandingTotal sums the amounts of unrefunded contributions. Refunded
// records are never summed, regardless of recency.
func OutstandingTotal(contributions []Contribution) decimal.Decimal {
	total := decimal.Zero
	for _, c := range contributions {
		if c.Outstanding() {
			total = total.Add(c.Amount)
		}
	}
	return total
}

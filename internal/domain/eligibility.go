package domain

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// RefundEligibility is the output of the pure refund-eligibility calculator.
type RefundEligibility struct {
	Eligible            bool            `json:"eligible"`
	TotalOutstanding    decimal.Decimal `json:"total_outstanding"`
	DaysUntilEligible   int             `json:"days_until_eligible"`
	LatestOutstandingAt time.Time       `json:"latest_outstanding_at"`
}

// EvaluateRefundEligibility computes whether a contributor's outstanding
// contributions on one idea are currently refundable, and if not, in how many
// days they will be. Pure: no I/O, the clock is an argument.
//
// The waiting clock is measured from the contributor's *latest* outstanding
// contribution, not the earliest. A top-up resets the clock, so a contributor
// cannot lean on an old contribution's age while holding fresh funds they have
// not yet committed to leaving in the pool.
//
// Days-until is rounded with ceil uniformly: a contributor 15.2 days short
// waits 16 whole days, never 15.
func EvaluateRefundEligibility(status IdeaStatus, contributions []Contribution, now time.Time, window time.Duration) RefundEligibility {
	out := RefundEligibility{TotalOutstanding: decimal.Zero}

	// already_exists bypasses the window entirely: the pool was collected for
	// something that never needed building.
	if status != IdeaStatusOpen && status != IdeaStatusAlreadyExists {
		return out
	}

	var latest time.Time
	for _, c := range contributions {
		if !c.Outstanding() {
			continue
		}
		out.TotalOutstanding = out.TotalOutstanding.Add(c.Amount)
		if c.CreatedAt.After(latest) {
			latest = c.CreatedAt
		}
	}
	if out.TotalOutstanding.IsZero() {
		return out
	}
	out.LatestOutstandingAt = latest

	if status == IdeaStatusAlreadyExists {
		out.Eligible = true
		return out
	}

	remaining := window - now.Sub(latest)
	if remaining <= 0 {
		out.Eligible = true
		return out
	}
	out.DaysUntilEligible = int(math.Ceil(remaining.Hours() / 24))
	return out
}

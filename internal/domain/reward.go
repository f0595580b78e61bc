package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// FeeSplit carries the payout percentages for a completed idea's pool.
// Builder + Submitter + Platform must sum to 100; it is injected configuration,
// never read from ambient process state, so tests can vary it per case.
type FeeSplit struct {
	BuilderPct   decimal.Decimal
	SubmitterPct decimal.Decimal
	PlatformPct  decimal.Decimal
}

func (f FeeSplit) Valid() bool {
	sum := f.BuilderPct.Add(f.SubmitterPct).Add(f.PlatformPct)
	return sum.Equal(decimal.NewFromInt(100)) &&
		!f.BuilderPct.IsNegative() && !f.SubmitterPct.IsNegative() && !f.PlatformPct.IsNegative()
}

// RewardSource is one completed idea a principal earned from, either by
// building the approved build or by submitting the idea. SourceID identifies
// the record carrying the claimed flag: the build for builder shares, the idea
// for submitter shares.
type RewardSource struct {
	SourceID    string
	PoolBalance decimal.Decimal
	// Claimed mirrors the reward-claimed flag on the underlying record
	// (build or idea). Claimed sources contribute nothing.
	Claimed bool
	// EarnedAt is when the source reached its rewardable state. Claim replays
	// use it to bound which sources a recorded claim covers.
	EarnedAt time.Time
}

// RewardTotals is the output of the pure reward calculator.
type RewardTotals struct {
	BuilderShare   decimal.Decimal `json:"builder_share"`
	SubmitterShare decimal.Decimal `json:"submitter_share"`
	Total          decimal.Decimal `json:"total"`
}

// CalculateUnclaimedReward sums a principal's unclaimed reward across completed
// ideas they built or submitted. Shares are percentage cuts of each idea's pool,
// rounded down to the currency exponent so the platform share absorbs dust.
func CalculateUnclaimedReward(built, submitted []RewardSource, split FeeSplit, exponent int32) RewardTotals {
	out := RewardTotals{
		BuilderShare:   decimal.Zero,
		SubmitterShare: decimal.Zero,
	}
	hundred := decimal.NewFromInt(100)
	for _, src := range built {
		if src.Claimed {
			continue
		}
		share := src.PoolBalance.Mul(split.BuilderPct).Div(hundred).RoundDown(exponent)
		out.BuilderShare = out.BuilderShare.Add(share)
	}
	for _, src := range submitted {
		if src.Claimed {
			continue
		}
		share := src.PoolBalance.Mul(split.SubmitterPct).Div(hundred).RoundDown(exponent)
		out.SubmitterShare = out.SubmitterShare.Add(share)
	}
	out.Total = out.BuilderShare.Add(out.SubmitterShare)
	return out
}

package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

var eligNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

const eligWindow = 30 * 24 * time.Hour

func outstanding(id string, amount int64, age time.Duration) Contribution {
	return Contribution{
		ContributionID: id,
		Amount:         decimal.NewFromInt(amount),
		CreatedAt:      eligNow.Add(-age),
	}
}

func refunded(id string, amount int64, age time.Duration) Contribution {
	c := outstanding(id, amount, age)
	stamp := eligNow.Add(-age / 2)
	c.RefundedAt = &stamp
	return c
}

func TestEligibilityClockAnchorsOnLatestOutstanding(t *testing.T) {
	contributions := []Contribution{
		outstanding("c-1", 50, 45*24*time.Hour),
		outstanding("c-2", 20, 14*24*time.Hour),
	}
	out := EvaluateRefundEligibility(IdeaStatusOpen, contributions, eligNow, eligWindow)
	if out.Eligible {
		t.Fatal("top-up must reset the clock")
	}
	if !out.TotalOutstanding.Equal(decimal.NewFromInt(70)) {
		t.Fatalf("expected outstanding 70, got %s", out.TotalOutstanding)
	}
	if out.DaysUntilEligible != 16 {
		t.Fatalf("expected 16 days, got %d", out.DaysUntilEligible)
	}
}

func TestEligibilityPartialDayRoundsUp(t *testing.T) {
	contributions := []Contribution{
		outstanding("c-1", 10, 29*24*time.Hour+12*time.Hour),
	}
	out := EvaluateRefundEligibility(IdeaStatusOpen, contributions, eligNow, eligWindow)
	if out.Eligible {
		t.Fatal("half a day short is still short")
	}
	if out.DaysUntilEligible != 1 {
		t.Fatalf("expected 1 day, got %d", out.DaysUntilEligible)
	}
}

func TestEligibilityAfterWindowElapsed(t *testing.T) {
	contributions := []Contribution{
		outstanding("c-1", 10, 30*24*time.Hour),
	}
	out := EvaluateRefundEligibility(IdeaStatusOpen, contributions, eligNow, eligWindow)
	if !out.Eligible {
		t.Fatal("expected eligible exactly at the window boundary")
	}
	if out.DaysUntilEligible != 0 {
		t.Fatalf("expected 0 days, got %d", out.DaysUntilEligible)
	}
}

func TestEligibilityRefundedRecordsExcluded(t *testing.T) {
	contributions := []Contribution{
		refunded("c-1", 50, 60*24*time.Hour),
		outstanding("c-2", 20, 40*24*time.Hour),
	}
	out := EvaluateRefundEligibility(IdeaStatusOpen, contributions, eligNow, eligWindow)
	if !out.TotalOutstanding.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("refunded records must not be summed, got %s", out.TotalOutstanding)
	}
	if !out.LatestOutstandingAt.Equal(eligNow.Add(-40 * 24 * time.Hour)) {
		t.Fatalf("refunded records must not anchor the clock, got %v", out.LatestOutstandingAt)
	}
	if !out.Eligible {
		t.Fatal("expected eligible")
	}
}

func TestEligibilityAlreadyExistsBypassesWindow(t *testing.T) {
	contributions := []Contribution{
		outstanding("c-1", 10, time.Hour),
	}
	out := EvaluateRefundEligibility(IdeaStatusAlreadyExists, contributions, eligNow, eligWindow)
	if !out.Eligible {
		t.Fatal("already_exists must be immediately refundable")
	}
}

func TestEligibilityClosedStatusesNeverEligible(t *testing.T) {
	contributions := []Contribution{
		outstanding("c-1", 10, 90*24*time.Hour),
	}
	for _, status := range []IdeaStatus{IdeaStatusVoting, IdeaStatusCompleted} {
		out := EvaluateRefundEligibility(status, contributions, eligNow, eligWindow)
		if out.Eligible || !out.TotalOutstanding.IsZero() {
			t.Fatalf("status %s must report nothing refundable, got %+v", status, out)
		}
	}
}

func TestEligibilityNoOutstandingContributions(t *testing.T) {
	contributions := []Contribution{
		refunded("c-1", 10, 90*24*time.Hour),
	}
	out := EvaluateRefundEligibility(IdeaStatusOpen, contributions, eligNow, eligWindow)
	if out.Eligible || !out.TotalOutstanding.IsZero() {
		t.Fatalf("expected nothing refundable, got %+v", out)
	}
}

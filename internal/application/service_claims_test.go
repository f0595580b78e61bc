package application_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/CalistoMango/TheShipyard-sub000/internal/application"
	"github.com/CalistoMango/TheShipyard-sub000/internal/domain"
)

const recipient = "0x1111111111111111111111111111111111111111"

func seedEligibleRefund(f *fixture, ideaID, principalID string, amount decimal.Decimal) {
	f.seedIdea(ideaID, domain.IdeaStatusAlreadyExists, amount)
	f.contributions.seed(domain.Contribution{
		ContributionID: "c-" + ideaID + "-" + principalID,
		IdeaID:         ideaID,
		PrincipalID:    principalID,
		Amount:         amount,
		CreatedAt:      f.now.Add(-time.Hour),
	})
}

func TestSignRefundClaimCumulative(t *testing.T) {
	f := newFixture(application.Config{RefundDelayDays: 30})
	seedEligibleRefund(f, "idea-1", "alice", decimal.NewFromInt(40))

	auth, err := f.svc.SignRefundClaim(context.Background(), actorFor("alice"), application.SignClaimInput{
		PrincipalID:      "alice",
		RecipientAddress: recipient,
	})
	if err != nil {
		t.Fatalf("SignRefundClaim: %v", err)
	}
	if !auth.CumulativeAmount.Equal(decimal.NewFromInt(40)) {
		t.Fatalf("expected cumulative 40, got %s", auth.CumulativeAmount)
	}
	if !auth.Delta.Equal(decimal.NewFromInt(40)) {
		t.Fatalf("expected delta 40, got %s", auth.Delta)
	}
	if auth.Signature == "" {
		t.Fatal("expected a signature")
	}
	if !auth.Deadline.After(f.now) {
		t.Fatal("expected a future deadline")
	}
}

func TestSignRefundClaimAddsPriorClaimedTotal(t *testing.T) {
	f := newFixture(application.Config{RefundDelayDays: 30})
	seedEligibleRefund(f, "idea-1", "alice", decimal.NewFromInt(25))

	// One earlier consumed claim: the ledger cumulative is prior + owed.
	if err := f.claims.Record(context.Background(), domain.ClaimLedgerEntry{
		TxRef: "tx-old", ClaimType: domain.ClaimTypeRefund, PrincipalID: "alice",
		Amount: decimal.NewFromInt(60), CreatedAt: f.now.Add(-48 * time.Hour),
	}); err != nil {
		t.Fatalf("seed ledger: %v", err)
	}
	f.settlement.setLastPaid("alice", domain.ClaimTypeRefund, decimal.NewFromInt(60))

	auth, err := f.svc.SignRefundClaim(context.Background(), actorFor("alice"), application.SignClaimInput{
		PrincipalID:      "alice",
		RecipientAddress: recipient,
	})
	if err != nil {
		t.Fatalf("SignRefundClaim: %v", err)
	}
	if !auth.CumulativeAmount.Equal(decimal.NewFromInt(85)) {
		t.Fatalf("expected cumulative 85, got %s", auth.CumulativeAmount)
	}
	if !auth.Delta.Equal(decimal.NewFromInt(25)) {
		t.Fatalf("expected delta 25, got %s", auth.Delta)
	}
}

func TestSignClaimNothingOwedRefused(t *testing.T) {
	f := newFixture(application.Config{RefundDelayDays: 30})
	f.seedIdea("idea-1", domain.IdeaStatusOpen, decimal.Zero)

	_, err := f.svc.SignRefundClaim(context.Background(), actorFor("alice"), application.SignClaimInput{
		PrincipalID:      "alice",
		RecipientAddress: recipient,
	})
	if !errors.Is(err, domain.ErrNothingToClaim) {
		t.Fatalf("expected ErrNothingToClaim, got %v", err)
	}
}

func TestSignClaimReturnsCachedAuthorization(t *testing.T) {
	f := newFixture(application.Config{RefundDelayDays: 30})
	seedEligibleRefund(f, "idea-1", "alice", decimal.NewFromInt(40))

	input := application.SignClaimInput{PrincipalID: "alice", RecipientAddress: recipient}
	first, err := f.svc.SignRefundClaim(context.Background(), actorFor("alice"), input)
	if err != nil {
		t.Fatalf("SignRefundClaim first: %v", err)
	}

	// More becomes owed, but the live authorization is returned unchanged until
	// it expires.
	seedEligibleRefund(f, "idea-2", "alice", decimal.NewFromInt(10))
	second, err := f.svc.SignRefundClaim(context.Background(), actorFor("alice"), input)
	if err != nil {
		t.Fatalf("SignRefundClaim second: %v", err)
	}
	if !second.CumulativeAmount.Equal(first.CumulativeAmount) || second.Signature != first.Signature {
		t.Fatalf("expected cached authorization, got first=%+v second=%+v", first, second)
	}
}

func TestSignClaimInvalidRecipientRejected(t *testing.T) {
	f := newFixture(application.Config{RefundDelayDays: 30})
	_, err := f.svc.SignRefundClaim(context.Background(), actorFor("alice"), application.SignClaimInput{
		PrincipalID:      "alice",
		RecipientAddress: "not-an-address",
	})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestRecordRefundClaimReleasesAndGuards(t *testing.T) {
	f := newFixture(application.Config{RefundDelayDays: 30})
	seedEligibleRefund(f, "idea-1", "alice", decimal.NewFromInt(40))
	f.settlement.addTx(domain.SettlementTransaction{
		TxRef: "tx-1", Project: "shipyard", PrincipalID: "alice",
		ClaimType: domain.ClaimTypeRefund, Amount: decimal.NewFromInt(40),
	})

	out, err := f.svc.RecordRefundClaim(context.Background(), actorFor("alice"), application.RecordClaimInput{
		PrincipalID: "alice", TxRef: "tx-1",
	})
	if err != nil {
		t.Fatalf("RecordRefundClaim: %v", err)
	}
	if !out.Accepted || out.AlreadyUsed {
		t.Fatalf("expected accepted, got %+v", out)
	}

	idea, _ := f.ideas.GetByID(context.Background(), "idea-1")
	if !idea.PoolBalance.IsZero() {
		t.Fatalf("expected drained pool, got %s", idea.PoolBalance)
	}

	// Replaying the same transaction is reported, not re-applied.
	replay, err := f.svc.RecordRefundClaim(context.Background(), actorFor("alice"), application.RecordClaimInput{
		PrincipalID: "alice", TxRef: "tx-1",
	})
	if err != nil {
		t.Fatalf("RecordRefundClaim replay: %v", err)
	}
	if !replay.AlreadyUsed || replay.Accepted {
		t.Fatalf("expected already-used, got %+v", replay)
	}
	idea, _ = f.ideas.GetByID(context.Background(), "idea-1")
	if !idea.PoolBalance.IsZero() {
		t.Fatalf("replay must not double-debit, got %s", idea.PoolBalance)
	}

	principal, _ := f.principals.GetByID(context.Background(), "alice")
	if !principal.ClaimedRefundTotal.Equal(decimal.NewFromInt(40)) {
		t.Fatalf("expected running total 40, got %s", principal.ClaimedRefundTotal)
	}
}

func TestRecordRefundClaimSpansAllEligibleIdeas(t *testing.T) {
	f := newFixture(application.Config{RefundDelayDays: 30})
	seedEligibleRefund(f, "idea-1", "alice", decimal.NewFromInt(10))
	seedEligibleRefund(f, "idea-2", "alice", decimal.NewFromInt(20))

	// The authorization covers both ideas, so the vault pays one delta of 30.
	auth, err := f.svc.SignRefundClaim(context.Background(), actorFor("alice"), application.SignClaimInput{
		PrincipalID:      "alice",
		RecipientAddress: recipient,
	})
	if err != nil {
		t.Fatalf("SignRefundClaim: %v", err)
	}
	if !auth.Delta.Equal(decimal.NewFromInt(30)) {
		t.Fatalf("expected delta 30, got %s", auth.Delta)
	}
	f.settlement.addTx(domain.SettlementTransaction{
		TxRef: "tx-1", Project: "shipyard", PrincipalID: "alice",
		ClaimType: domain.ClaimTypeRefund, Amount: decimal.NewFromInt(30),
	})

	out, err := f.svc.RecordRefundClaim(context.Background(), actorFor("alice"), application.RecordClaimInput{
		PrincipalID: "alice", TxRef: "tx-1",
	})
	if err != nil {
		t.Fatalf("RecordRefundClaim: %v", err)
	}
	if !out.Accepted {
		t.Fatalf("expected the paid delta to reconcile, got %+v", out)
	}
	for _, ideaID := range []string{"idea-1", "idea-2"} {
		idea, _ := f.ideas.GetByID(context.Background(), ideaID)
		if !idea.PoolBalance.IsZero() {
			t.Fatalf("expected %s drained, got %s", ideaID, idea.PoolBalance)
		}
	}
}

func TestRecordRefundReplayLeavesLaterContributionsAlone(t *testing.T) {
	f := newFixture(application.Config{RefundDelayDays: 30})
	seedEligibleRefund(f, "idea-1", "alice", decimal.NewFromInt(40))
	f.settlement.addTx(domain.SettlementTransaction{
		TxRef: "tx-1", Project: "shipyard", PrincipalID: "alice",
		ClaimType: domain.ClaimTypeRefund, Amount: decimal.NewFromInt(40),
	})
	if _, err := f.svc.RecordRefundClaim(context.Background(), actorFor("alice"), application.RecordClaimInput{
		PrincipalID: "alice", TxRef: "tx-1",
	}); err != nil {
		t.Fatalf("RecordRefundClaim: %v", err)
	}

	// New money arrives after the claim was consumed.
	f.advance(time.Hour)
	f.contributions.seed(domain.Contribution{
		ContributionID: "c-late",
		IdeaID:         "idea-1",
		PrincipalID:    "alice",
		Amount:         decimal.NewFromInt(10),
		CreatedAt:      f.now,
	})

	replay, err := f.svc.RecordRefundClaim(context.Background(), actorFor("alice"), application.RecordClaimInput{
		PrincipalID: "alice", TxRef: "tx-1",
	})
	if err != nil {
		t.Fatalf("RecordRefundClaim replay: %v", err)
	}
	if !replay.AlreadyUsed {
		t.Fatalf("expected already-used, got %+v", replay)
	}

	// The replayed claim must not stamp money the vault never paid.
	f.contributions.mu.Lock()
	late := f.contributions.records["c-late"]
	f.contributions.mu.Unlock()
	if late.RefundedAt != nil {
		t.Fatal("later contribution must stay outstanding after replay")
	}
	idea, _ := f.ideas.GetByID(context.Background(), "idea-1")
	if !idea.PoolBalance.IsZero() {
		t.Fatalf("replay must not debit the pool, got %s", idea.PoolBalance)
	}
}

func TestRecordRewardReplayLeavesLaterSourcesUnclaimed(t *testing.T) {
	f := newFixture(application.Config{RefundDelayDays: 30})
	f.seedIdea("idea-1", domain.IdeaStatusCompleted, decimal.NewFromInt(100))
	f.builds.Create(context.Background(), domain.Build{
		BuildID: "build-1", IdeaID: "idea-1", BuilderID: "bob",
		Status: domain.BuildStatusApproved, CreatedAt: f.now, UpdatedAt: f.now,
	})
	f.settlement.addTx(domain.SettlementTransaction{
		TxRef: "tx-r1", Project: "shipyard", PrincipalID: "bob",
		ClaimType: domain.ClaimTypeReward, Amount: decimal.NewFromInt(70),
	})
	if _, err := f.svc.RecordRewardClaim(context.Background(), actorFor("bob"), application.RecordClaimInput{
		PrincipalID: "bob", TxRef: "tx-r1",
	}); err != nil {
		t.Fatalf("RecordRewardClaim: %v", err)
	}

	// A second build is approved after the claim was consumed.
	f.advance(time.Hour)
	f.seedIdea("idea-2", domain.IdeaStatusCompleted, decimal.NewFromInt(50))
	f.builds.Create(context.Background(), domain.Build{
		BuildID: "build-2", IdeaID: "idea-2", BuilderID: "bob",
		Status: domain.BuildStatusApproved, CreatedAt: f.now, UpdatedAt: f.now,
	})

	replay, err := f.svc.RecordRewardClaim(context.Background(), actorFor("bob"), application.RecordClaimInput{
		PrincipalID: "bob", TxRef: "tx-r1",
	})
	if err != nil {
		t.Fatalf("RecordRewardClaim replay: %v", err)
	}
	if !replay.AlreadyUsed {
		t.Fatalf("expected already-used, got %+v", replay)
	}

	build, _ := f.builds.GetByID(context.Background(), "build-2")
	if build.BuilderRewardClaimedAt != nil {
		t.Fatal("later source must stay unclaimed after replay")
	}
	totals, err := f.svc.RewardPreview(context.Background(), actorFor("bob"), "bob")
	if err != nil {
		t.Fatalf("RewardPreview: %v", err)
	}
	if !totals.Total.Equal(decimal.NewFromInt(35)) {
		t.Fatalf("expected later share 35 still owed, got %s", totals.Total)
	}
}

func TestRecordRefundClaimDriftRejected(t *testing.T) {
	f := newFixture(application.Config{RefundDelayDays: 30})
	seedEligibleRefund(f, "idea-1", "alice", decimal.NewFromInt(40))
	f.settlement.addTx(domain.SettlementTransaction{
		TxRef: "tx-1", Project: "shipyard", PrincipalID: "alice",
		ClaimType: domain.ClaimTypeRefund, Amount: decimal.NewFromInt(55),
	})

	_, err := f.svc.RecordRefundClaim(context.Background(), actorFor("alice"), application.RecordClaimInput{
		PrincipalID: "alice", TxRef: "tx-1",
	})
	if !errors.Is(err, domain.ErrLedgerDrift) {
		t.Fatalf("expected ErrLedgerDrift, got %v", err)
	}

	// Nothing may mutate on drift.
	idea, _ := f.ideas.GetByID(context.Background(), "idea-1")
	if !idea.PoolBalance.Equal(decimal.NewFromInt(40)) {
		t.Fatalf("pool must be untouched, got %s", idea.PoolBalance)
	}
	if entry, _ := f.claims.Get(context.Background(), "tx-1", domain.ClaimTypeRefund); entry != nil {
		t.Fatal("replay guard must not record a drifted claim")
	}
}

func TestRecordRefundClaimToleranceAbsorbsRounding(t *testing.T) {
	f := newFixture(application.Config{RefundDelayDays: 30})
	seedEligibleRefund(f, "idea-1", "alice", decimal.NewFromInt(40))
	f.settlement.addTx(domain.SettlementTransaction{
		TxRef: "tx-1", Project: "shipyard", PrincipalID: "alice",
		ClaimType: domain.ClaimTypeRefund, Amount: decimal.RequireFromString("39.99"),
	})

	out, err := f.svc.RecordRefundClaim(context.Background(), actorFor("alice"), application.RecordClaimInput{
		PrincipalID: "alice", TxRef: "tx-1",
	})
	if err != nil {
		t.Fatalf("RecordRefundClaim: %v", err)
	}
	if !out.Accepted {
		t.Fatalf("expected accepted within tolerance, got %+v", out)
	}
}

func TestRecordClaimUnverifiedTransactionFailsClosed(t *testing.T) {
	f := newFixture(application.Config{RefundDelayDays: 30})
	seedEligibleRefund(f, "idea-1", "alice", decimal.NewFromInt(40))

	_, err := f.svc.RecordRefundClaim(context.Background(), actorFor("alice"), application.RecordClaimInput{
		PrincipalID: "alice", TxRef: "tx-missing",
	})
	if !errors.Is(err, domain.ErrTxUnverified) {
		t.Fatalf("expected ErrTxUnverified, got %v", err)
	}
}

func TestRecordClaimVerificationOutageIsRetryable(t *testing.T) {
	f := newFixture(application.Config{RefundDelayDays: 30})
	seedEligibleRefund(f, "idea-1", "alice", decimal.NewFromInt(40))
	f.settlement.err = domain.ErrVerificationUnavailable

	_, err := f.svc.RecordRefundClaim(context.Background(), actorFor("alice"), application.RecordClaimInput{
		PrincipalID: "alice", TxRef: "tx-1",
	})
	if !errors.Is(err, domain.ErrVerificationUnavailable) {
		t.Fatalf("expected ErrVerificationUnavailable, got %v", err)
	}
	if entry, _ := f.claims.Get(context.Background(), "tx-1", domain.ClaimTypeRefund); entry != nil {
		t.Fatal("outage must not consume the transaction")
	}
}

func TestRecordClaimWrongPrincipalRejected(t *testing.T) {
	f := newFixture(application.Config{RefundDelayDays: 30})
	seedEligibleRefund(f, "idea-1", "alice", decimal.NewFromInt(40))
	f.settlement.addTx(domain.SettlementTransaction{
		TxRef: "tx-1", Project: "shipyard", PrincipalID: "mallory",
		ClaimType: domain.ClaimTypeRefund, Amount: decimal.NewFromInt(40),
	})

	_, err := f.svc.RecordRefundClaim(context.Background(), actorFor("alice"), application.RecordClaimInput{
		PrincipalID: "alice", TxRef: "tx-1",
	})
	if !errors.Is(err, domain.ErrTxUnverified) {
		t.Fatalf("expected ErrTxUnverified on principal mismatch, got %v", err)
	}
}

func TestRecordRewardClaimStampsSources(t *testing.T) {
	f := newFixture(application.Config{RefundDelayDays: 30})
	f.seedIdea("idea-1", domain.IdeaStatusCompleted, decimal.NewFromInt(100))
	f.builds.Create(context.Background(), domain.Build{
		BuildID: "build-1", IdeaID: "idea-1", BuilderID: "bob",
		Status: domain.BuildStatusApproved, CreatedAt: f.now, UpdatedAt: f.now,
	})
	// 70% builder share of a 100 pool.
	f.settlement.addTx(domain.SettlementTransaction{
		TxRef: "tx-r1", Project: "shipyard", PrincipalID: "bob",
		ClaimType: domain.ClaimTypeReward, Amount: decimal.NewFromInt(70),
	})

	out, err := f.svc.RecordRewardClaim(context.Background(), actorFor("bob"), application.RecordClaimInput{
		PrincipalID: "bob", TxRef: "tx-r1",
	})
	if err != nil {
		t.Fatalf("RecordRewardClaim: %v", err)
	}
	if !out.Accepted {
		t.Fatalf("expected accepted, got %+v", out)
	}

	totals, err := f.svc.RewardPreview(context.Background(), actorFor("bob"), "bob")
	if err != nil {
		t.Fatalf("RewardPreview: %v", err)
	}
	if !totals.Total.IsZero() {
		t.Fatalf("expected nothing left unclaimed, got %s", totals.Total)
	}
}

func TestRepairClaimReappliesMutation(t *testing.T) {
	f := newFixture(application.Config{RefundDelayDays: 30})
	seedEligibleRefund(f, "idea-1", "alice", decimal.NewFromInt(40))

	// Guard row committed but the mutation never landed.
	if err := f.claims.Record(context.Background(), domain.ClaimLedgerEntry{
		TxRef: "tx-1", ClaimType: domain.ClaimTypeRefund, PrincipalID: "alice",
		Amount: decimal.NewFromInt(40), CreatedAt: f.now,
	}); err != nil {
		t.Fatalf("seed guard row: %v", err)
	}

	if err := f.svc.RepairClaim(context.Background(), operatorActor(), "tx-1", domain.ClaimTypeRefund); err != nil {
		t.Fatalf("RepairClaim: %v", err)
	}
	idea, _ := f.ideas.GetByID(context.Background(), "idea-1")
	if !idea.PoolBalance.IsZero() {
		t.Fatalf("expected refund applied, got %s", idea.PoolBalance)
	}
	principal, _ := f.principals.GetByID(context.Background(), "alice")
	if !principal.ClaimedRefundTotal.Equal(decimal.NewFromInt(40)) {
		t.Fatalf("expected resynced total 40, got %s", principal.ClaimedRefundTotal)
	}
}

func TestRepairClaimRequiresOperator(t *testing.T) {
	f := newFixture(application.Config{RefundDelayDays: 30})
	err := f.svc.RepairClaim(context.Background(), actorFor("alice"), "tx-1", domain.ClaimTypeRefund)
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

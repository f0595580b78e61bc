package application

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/CalistoMango/TheShipyard-sub000/internal/domain"
)

// SignRefundClaim issues a time-bounded authorization to withdraw the caller's
// refund-eligible total from the vault, expressed as a cumulative amount.
func (s *Service) SignRefundClaim(ctx context.Context, actor Actor, input SignClaimInput) (domain.ClaimAuthorization, error) {
	if err := requireSelf(actor, input.PrincipalID); err != nil {
		return domain.ClaimAuthorization{}, err
	}
	if err := validateRecipientAddress(input.RecipientAddress); err != nil {
		return domain.ClaimAuthorization{}, err
	}
	owed, _, err := s.refundEligibleAcrossIdeas(ctx, input.PrincipalID)
	if err != nil {
		return domain.ClaimAuthorization{}, err
	}
	return s.signClaim(ctx, domain.ClaimTypeRefund, input, owed)
}

// SignRewardClaim issues the analogous authorization for unclaimed builder and
// submitter reward shares.
func (s *Service) SignRewardClaim(ctx context.Context, actor Actor, input SignClaimInput) (domain.ClaimAuthorization, error) {
	if err := requireSelf(actor, input.PrincipalID); err != nil {
		return domain.ClaimAuthorization{}, err
	}
	if err := validateRecipientAddress(input.RecipientAddress); err != nil {
		return domain.ClaimAuthorization{}, err
	}
	totals, err := s.unclaimedRewardTotals(ctx, input.PrincipalID)
	if err != nil {
		return domain.ClaimAuthorization{}, err
	}
	return s.signClaim(ctx, domain.ClaimTypeReward, input, totals.Total)
}

// signClaim computes the cumulative authorization amount and signs it. The
// cumulative is max(vault last-paid, ledger cumulative): never below what the
// vault already paid (it would reject), never above what the ledger owes (it
// would overpay). A non-positive delta refuses rather than signing a
// zero-value authorization. A still-live cached authorization for the same
// recipient is returned as issued; input.TTL only applies when a new
// authorization is signed.
func (s *Service) signClaim(ctx context.Context, claimType domain.ClaimType, input SignClaimInput, owedNow decimal.Decimal) (domain.ClaimAuthorization, error) {
	now := s.nowFn()
	if s.authCache != nil {
		if cached, err := s.authCache.Get(ctx, s.cfg.Project, input.PrincipalID, claimType); err == nil && cached != nil {
			if cached.RecipientAddress == input.RecipientAddress && cached.Deadline.After(now) {
				return *cached, nil
			}
		}
	}

	claimedTotal, err := s.claims.SumByPrincipal(ctx, input.PrincipalID, claimType)
	if err != nil {
		return domain.ClaimAuthorization{}, err
	}
	lastPaid, err := s.settlement.LastPaidCumulative(ctx, s.cfg.Project, input.PrincipalID, claimType)
	if err != nil {
		return domain.ClaimAuthorization{}, err
	}

	ledgerCumulative := claimedTotal.Add(owedNow)
	cumulative := ledgerCumulative
	if lastPaid.GreaterThan(cumulative) {
		cumulative = lastPaid
	}
	delta := cumulative.Sub(lastPaid)
	if !delta.IsPositive() {
		return domain.ClaimAuthorization{}, domain.ErrNothingToClaim
	}

	ttl := input.TTL
	if ttl <= 0 {
		ttl = s.cfg.ClaimTTL
	}
	auth := domain.ClaimAuthorization{
		Project:          s.cfg.Project,
		ClaimType:        claimType,
		PrincipalID:      input.PrincipalID,
		RecipientAddress: input.RecipientAddress,
		CumulativeAmount: cumulative,
		Delta:            delta,
		Deadline:         now.Add(ttl),
	}
	signed, err := s.signer.SignClaim(auth)
	if err != nil {
		return domain.ClaimAuthorization{}, err
	}
	if s.authCache != nil {
		if err := s.authCache.Put(ctx, signed); err != nil {
			s.logger.WarnContext(ctx, "claim authorization cache write failed",
				"operation", "sign_claim", "outcome", "degraded", "claim_type", string(claimType), "error", err.Error())
		}
	}
	s.logger.InfoContext(ctx, "claim authorization signed",
		"operation", "sign_claim", "outcome", "success",
		"claim_type", string(claimType), "principal_id", input.PrincipalID,
		"cumulative", cumulative.String(), "delta", delta.String())
	return signed, nil
}

// RecordRefundClaim reconciles a settlement refund transaction against the
// internal ledger. The refund scope is the principal's whole eligible set
// across ideas, the same scope SignRefundClaim authorized, so a legitimately
// paid delta always has a matching ledger derivation. Ordering is
// load-bearing: the replay-guard row commits before any ledger mutation, so a
// crash between the two leaves a retry path that re-applies only what the
// recorded claim covered instead of re-verifying.
func (s *Service) RecordRefundClaim(ctx context.Context, actor Actor, input RecordClaimInput) (RecordClaimOutput, error) {
	if err := requireSelf(actor, input.PrincipalID); err != nil {
		return RecordClaimOutput{}, err
	}
	input.TxRef = strings.TrimSpace(input.TxRef)
	if input.TxRef == "" {
		return RecordClaimOutput{}, domain.ErrInvalidInput
	}
	now := s.nowFn()

	// Step 1: replay-guard precheck. An existing row means the transaction was
	// consumed; re-apply the continuation bounded by that claim and report
	// already-used.
	if existing, err := s.claims.Get(ctx, input.TxRef, domain.ClaimTypeRefund); err != nil {
		return RecordClaimOutput{}, err
	} else if existing != nil {
		if err := s.releaseCoveredRefund(ctx, existing); err != nil {
			return RecordClaimOutput{}, err
		}
		return RecordClaimOutput{AlreadyUsed: true, Amount: existing.Amount}, nil
	}

	// Step 2: settlement verification, fail closed.
	tx, err := s.settlement.ResolveTransaction(ctx, input.TxRef)
	if err != nil {
		return RecordClaimOutput{}, err
	}
	if tx.PrincipalID != input.PrincipalID || tx.Project != s.cfg.Project || tx.ClaimType != domain.ClaimTypeRefund {
		return RecordClaimOutput{}, domain.ErrTxUnverified
	}

	// Steps 3-4: independent ledger derivation and tolerance comparison.
	eligible, releases, err := s.refundEligibleAcrossIdeas(ctx, input.PrincipalID)
	if err != nil {
		return RecordClaimOutput{}, err
	}
	if err := s.checkDrift(ctx, domain.ClaimTypeRefund, input.TxRef, tx.Amount, eligible); err != nil {
		return RecordClaimOutput{}, err
	}

	// Step 5: replay-guard commit. A concurrent recorder losing the unique
	// insert race lands here with ErrConflict.
	entry := domain.ClaimLedgerEntry{
		TxRef:       input.TxRef,
		ClaimType:   domain.ClaimTypeRefund,
		PrincipalID: input.PrincipalID,
		Amount:      tx.Amount,
		CreatedAt:   now,
	}
	if err := s.claims.Record(ctx, entry); err != nil {
		if err == domain.ErrConflict {
			return RecordClaimOutput{AlreadyUsed: true, Amount: tx.Amount}, nil
		}
		return RecordClaimOutput{}, err
	}

	// Step 6: ledger mutation, one idea at a time. A failure past this point
	// must not re-verify; retrying the operation re-enters through the
	// already-used continuation.
	for _, rel := range releases {
		if _, err := s.contributions.ReleaseRefund(ctx, rel.ideaID, rel.ids, now); err != nil {
			s.logger.ErrorContext(ctx, "refund mutation failed after replay-guard commit",
				"operation", "record_refund", "outcome", "partial_failure",
				"tx_ref", input.TxRef, "idea_id", rel.ideaID, "error", err.Error())
			return RecordClaimOutput{}, err
		}
	}

	// Step 7: advisory running total, best effort.
	if err := s.principals.AddClaimedTotal(ctx, input.PrincipalID, domain.ClaimTypeRefund, tx.Amount, now); err != nil {
		s.logger.WarnContext(ctx, "principal refund total update failed",
			"operation", "record_refund", "outcome", "degraded",
			"principal_id", input.PrincipalID, "error", err.Error())
	}
	return RecordClaimOutput{Accepted: true, Amount: tx.Amount}, nil
}

// RecordRewardClaim is the reward-side reconciliation handler; same ordering
// contract as RecordRefundClaim, with reward-claimed flags as the mutation.
func (s *Service) RecordRewardClaim(ctx context.Context, actor Actor, input RecordClaimInput) (RecordClaimOutput, error) {
	if err := requireSelf(actor, input.PrincipalID); err != nil {
		return RecordClaimOutput{}, err
	}
	input.TxRef = strings.TrimSpace(input.TxRef)
	if input.TxRef == "" {
		return RecordClaimOutput{}, domain.ErrInvalidInput
	}
	now := s.nowFn()

	if existing, err := s.claims.Get(ctx, input.TxRef, domain.ClaimTypeReward); err != nil {
		return RecordClaimOutput{}, err
	} else if existing != nil {
		// Bounded by the recorded claim: sources earned afterwards stay
		// unclaimed.
		if err := s.markRewardsClaimed(ctx, input.PrincipalID, existing.CreatedAt, now); err != nil {
			return RecordClaimOutput{}, err
		}
		return RecordClaimOutput{AlreadyUsed: true, Amount: existing.Amount}, nil
	}

	tx, err := s.settlement.ResolveTransaction(ctx, input.TxRef)
	if err != nil {
		return RecordClaimOutput{}, err
	}
	if tx.PrincipalID != input.PrincipalID || tx.Project != s.cfg.Project || tx.ClaimType != domain.ClaimTypeReward {
		return RecordClaimOutput{}, domain.ErrTxUnverified
	}

	totals, err := s.unclaimedRewardTotals(ctx, input.PrincipalID)
	if err != nil {
		return RecordClaimOutput{}, err
	}
	if err := s.checkDrift(ctx, domain.ClaimTypeReward, input.TxRef, tx.Amount, totals.Total); err != nil {
		return RecordClaimOutput{}, err
	}

	entry := domain.ClaimLedgerEntry{
		TxRef:       input.TxRef,
		ClaimType:   domain.ClaimTypeReward,
		PrincipalID: input.PrincipalID,
		Amount:      tx.Amount,
		CreatedAt:   now,
	}
	if err := s.claims.Record(ctx, entry); err != nil {
		if err == domain.ErrConflict {
			return RecordClaimOutput{AlreadyUsed: true, Amount: tx.Amount}, nil
		}
		return RecordClaimOutput{}, err
	}

	if err := s.markRewardsClaimed(ctx, input.PrincipalID, now, now); err != nil {
		s.logger.ErrorContext(ctx, "reward mutation failed after replay-guard commit",
			"operation", "record_reward", "outcome", "partial_failure",
			"tx_ref", input.TxRef, "error", err.Error())
		return RecordClaimOutput{}, err
	}

	if err := s.principals.AddClaimedTotal(ctx, input.PrincipalID, domain.ClaimTypeReward, tx.Amount, now); err != nil {
		s.logger.WarnContext(ctx, "principal reward total update failed",
			"operation", "record_reward", "outcome", "degraded",
			"principal_id", input.PrincipalID, "error", err.Error())
	}
	return RecordClaimOutput{Accepted: true, Amount: tx.Amount}, nil
}

// RewardPreview reports the caller's unclaimed reward shares.
func (s *Service) RewardPreview(ctx context.Context, actor Actor, principalID string) (domain.RewardTotals, error) {
	if err := requireSelf(actor, principalID); err != nil {
		return domain.RewardTotals{}, err
	}
	return s.unclaimedRewardTotals(ctx, principalID)
}

// RepairClaim reapplies the post-guard steps for a claim whose mutation failed
// after the replay-guard row committed. It never re-verifies: the guard row is
// the source of truth that the transaction was consumed, and the re-applied
// mutation is bounded by that row's timestamp. Running totals are re-derived
// from the claim ledger rather than re-added, so repair cannot double-count.
func (s *Service) RepairClaim(ctx context.Context, actor Actor, txRef string, claimType domain.ClaimType) error {
	if err := requireOperator(actor); err != nil {
		return err
	}
	txRef = strings.TrimSpace(txRef)
	if txRef == "" {
		return domain.ErrInvalidInput
	}
	entry, err := s.claims.Get(ctx, txRef, claimType)
	if err != nil {
		return err
	}
	if entry == nil {
		return domain.ErrNotFound
	}
	now := s.nowFn()
	switch claimType {
	case domain.ClaimTypeRefund:
		if err := s.releaseCoveredRefund(ctx, entry); err != nil {
			return err
		}
	case domain.ClaimTypeReward:
		if err := s.markRewardsClaimed(ctx, entry.PrincipalID, entry.CreatedAt, now); err != nil {
			return err
		}
	default:
		return domain.ErrInvalidInput
	}
	total, err := s.claims.SumByPrincipal(ctx, entry.PrincipalID, claimType)
	if err != nil {
		return err
	}
	if err := s.principals.SetClaimedTotal(ctx, entry.PrincipalID, claimType, total, now); err != nil {
		s.logger.WarnContext(ctx, "principal total resync failed",
			"operation", "repair_claim", "outcome", "degraded",
			"principal_id", entry.PrincipalID, "error", err.Error())
	}
	s.logger.InfoContext(ctx, "claim repair applied",
		"operation", "repair_claim", "outcome", "success",
		"tx_ref", txRef, "claim_type", string(claimType))
	return nil
}

// checkDrift compares the verified on-chain delta to the ledger-derived amount.
// Disagreement beyond tolerance is the highest-severity failure: it signals the
// two ledgers have drifted, and nothing may mutate. Logged distinctly for
// operational alerting.
func (s *Service) checkDrift(ctx context.Context, claimType domain.ClaimType, txRef string, verified, ledgerEligible decimal.Decimal) error {
	if verified.Sub(ledgerEligible).Abs().GreaterThan(s.cfg.ClaimTolerance) {
		s.logger.ErrorContext(ctx, "settlement delta mismatch",
			"operation", "record_claim", "outcome", "failure", "drift_alert", true,
			"claim_type", string(claimType), "tx_ref", txRef,
			"verified_delta", verified.String(), "ledger_eligible", ledgerEligible.String(),
			"tolerance", s.cfg.ClaimTolerance.String())
		return domain.ErrLedgerDrift
	}
	return nil
}

// refundRelease is the stamp set for one idea inside a cross-idea refund.
type refundRelease struct {
	ideaID string
	ids    []string
}

// refundEligibleAcrossIdeas derives the principal's refund-eligible total and
// the contribution sets backing it, one per idea. Each idea keeps its own
// independent eligibility clock. Sign and record both use this scope, so what
// the signer authorizes is exactly what recording reconciles.
func (s *Service) refundEligibleAcrossIdeas(ctx context.Context, principalID string) (decimal.Decimal, []refundRelease, error) {
	outstanding, err := s.contributions.ListOutstandingByPrincipal(ctx, principalID)
	if err != nil {
		return decimal.Zero, nil, err
	}
	byIdea := make(map[string][]domain.Contribution)
	for _, c := range outstanding {
		byIdea[c.IdeaID] = append(byIdea[c.IdeaID], c)
	}
	now := s.nowFn()
	total := decimal.Zero
	releases := make([]refundRelease, 0, len(byIdea))
	for ideaID, contributions := range byIdea {
		idea, err := s.ideas.GetByID(ctx, ideaID)
		if err != nil {
			return decimal.Zero, nil, err
		}
		elig := domain.EvaluateRefundEligibility(idea.Status, contributions, now, s.refundWindow())
		if !elig.Eligible {
			continue
		}
		total = total.Add(elig.TotalOutstanding)
		ids := make([]string, 0, len(contributions))
		for _, c := range contributions {
			ids = append(ids, c.ContributionID)
		}
		releases = append(releases, refundRelease{ideaID: ideaID, ids: ids})
	}
	return total, releases, nil
}

// releaseCoveredRefund re-applies the mutation for an already-recorded refund
// claim. Only contributions that existed when the guard row committed and
// were eligible on that claim's clock are stamped: anything contributed or
// unlocked afterwards belongs to a future claim, so a replayed txRef can
// never consume money the vault did not pay. With the covered set fully
// stamped it is a no-op.
func (s *Service) releaseCoveredRefund(ctx context.Context, entry *domain.ClaimLedgerEntry) error {
	outstanding, err := s.contributions.ListOutstandingByPrincipal(ctx, entry.PrincipalID)
	if err != nil {
		return err
	}
	byIdea := make(map[string][]domain.Contribution)
	for _, c := range outstanding {
		if c.CreatedAt.Before(entry.CreatedAt) {
			byIdea[c.IdeaID] = append(byIdea[c.IdeaID], c)
		}
	}
	at := s.nowFn()
	for ideaID, contributions := range byIdea {
		idea, err := s.ideas.GetByID(ctx, ideaID)
		if err != nil {
			return err
		}
		// Eligibility is evaluated at the claim's own timestamp so the stamped
		// set reconstructs what the claim paid for.
		elig := domain.EvaluateRefundEligibility(idea.Status, contributions, entry.CreatedAt, s.refundWindow())
		if !elig.Eligible {
			continue
		}
		ids := make([]string, 0, len(contributions))
		for _, c := range contributions {
			ids = append(ids, c.ContributionID)
		}
		if _, err := s.contributions.ReleaseRefund(ctx, ideaID, ids, at); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) unclaimedRewardTotals(ctx context.Context, principalID string) (domain.RewardTotals, error) {
	built, err := s.builds.ListApprovedByBuilder(ctx, principalID)
	if err != nil {
		return domain.RewardTotals{}, err
	}
	submitted, err := s.ideas.ListCompletedBySubmitter(ctx, principalID)
	if err != nil {
		return domain.RewardTotals{}, err
	}
	return domain.CalculateUnclaimedReward(built, submitted, s.cfg.FeeSplit, s.cfg.CurrencyExponent), nil
}

// markRewardsClaimed stamps the reward-claimed flags on unclaimed sources
// earned no later than cutoff. A fresh record passes now; replays and repairs
// pass the recorded claim's timestamp, so sources earned after a claim was
// consumed stay unclaimed for the next one.
func (s *Service) markRewardsClaimed(ctx context.Context, principalID string, cutoff, at time.Time) error {
	built, err := s.builds.ListApprovedByBuilder(ctx, principalID)
	if err != nil {
		return err
	}
	buildIDs := make([]string, 0, len(built))
	for _, src := range built {
		if !src.Claimed && !src.EarnedAt.After(cutoff) {
			buildIDs = append(buildIDs, src.SourceID)
		}
	}
	if len(buildIDs) > 0 {
		if err := s.builds.MarkBuilderRewardClaimed(ctx, buildIDs, at); err != nil {
			return err
		}
	}
	submitted, err := s.ideas.ListCompletedBySubmitter(ctx, principalID)
	if err != nil {
		return err
	}
	ideaIDs := make([]string, 0, len(submitted))
	for _, src := range submitted {
		if !src.Claimed && !src.EarnedAt.After(cutoff) {
			ideaIDs = append(ideaIDs, src.SourceID)
		}
	}
	if len(ideaIDs) > 0 {
		if err := s.ideas.MarkSubmitterRewardClaimed(ctx, ideaIDs, at); err != nil {
			return err
		}
	}
	return nil
}

func validateRecipientAddress(addr string) error {
	addr = strings.TrimSpace(addr)
	if len(addr) != 42 || !strings.HasPrefix(addr, "0x") {
		return domain.ErrInvalidInput
	}
	for _, r := range addr[2:] {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') && (r < 'A' || r > 'F') {
			return domain.ErrInvalidInput
		}
	}
	return nil
}

package application

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/CalistoMango/TheShipyard-sub000/internal/domain"
	"github.com/CalistoMango/TheShipyard-sub000/internal/ports"
)

func (s *Service) CreateIdea(ctx context.Context, actor Actor, input CreateIdeaInput) (domain.Idea, error) {
	if strings.TrimSpace(actor.PrincipalID) == "" {
		return domain.Idea{}, domain.ErrUnauthorized
	}
	input.Title = strings.TrimSpace(input.Title)
	if err := domain.ValidateIdeaInput(input.Title, actor.PrincipalID); err != nil {
		return domain.Idea{}, err
	}
	now := s.nowFn()
	if err := s.principals.EnsureExists(ctx, actor.PrincipalID, now); err != nil {
		return domain.Idea{}, err
	}
	idea := domain.Idea{
		IdeaID:        uuid.NewString(),
		Title:         input.Title,
		Description:   strings.TrimSpace(input.Description),
		SubmitterID:   actor.PrincipalID,
		Status:        domain.IdeaStatusOpen,
		SourcePostRef: strings.TrimSpace(input.SourcePostRef),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.ideas.Create(ctx, idea); err != nil {
		return domain.Idea{}, err
	}
	return idea, nil
}

func (s *Service) GetIdea(ctx context.Context, ideaID string) (domain.Idea, error) {
	ideaID = strings.TrimSpace(ideaID)
	if ideaID == "" {
		return domain.Idea{}, domain.ErrInvalidInput
	}
	return s.ideas.GetByID(ctx, ideaID)
}

func (s *Service) ListIdeas(ctx context.Context, status domain.IdeaStatus, limit, offset int) ([]domain.Idea, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.ideas.List(ctx, status, limit, offset)
}

// Contribute appends a contribution record and applies the pool increment
// atomically. Crossing the race threshold from below flips the idea to voting
// inside the same transaction.
func (s *Service) Contribute(ctx context.Context, actor Actor, input ContributeInput) (ContributeOutput, error) {
	if err := requireSelf(actor, input.PrincipalID); err != nil {
		return ContributeOutput{}, err
	}
	input.IdeaID = strings.TrimSpace(input.IdeaID)
	input.ExternalTxRef = strings.TrimSpace(input.ExternalTxRef)
	if input.IdeaID == "" {
		return ContributeOutput{}, domain.ErrInvalidInput
	}
	if input.Amount.LessThan(s.cfg.MinContribution) {
		return ContributeOutput{}, domain.ErrAmountBelowMin
	}
	idea, err := s.ideas.GetByID(ctx, input.IdeaID)
	if err != nil {
		return ContributeOutput{}, err
	}
	if idea.Status != domain.IdeaStatusOpen {
		return ContributeOutput{}, domain.ErrIdeaNotOpen
	}
	now := s.nowFn()
	// First contribution from a new principal provisions a minimal record.
	if err := s.principals.EnsureExists(ctx, input.PrincipalID, now); err != nil {
		return ContributeOutput{}, err
	}
	params := ports.ContributeParams{
		ContributionID: uuid.NewString(),
		IdeaID:         input.IdeaID,
		PrincipalID:    input.PrincipalID,
		Amount:         input.Amount.Truncate(s.cfg.CurrencyExponent),
		ExternalTxRef:  input.ExternalTxRef,
		RaceThreshold:  s.cfg.RaceThreshold,
		At:             now,
	}
	result, err := s.contributions.Contribute(ctx, params)
	if err != nil {
		return ContributeOutput{}, err
	}
	status := idea.Status
	if result.ModeChanged {
		status = domain.IdeaStatusVoting
		s.notifyRaceMode(ctx, input.IdeaID, result.NewBalance, actor.RequestID)
	}
	return ContributeOutput{
		ContributionID: params.ContributionID,
		NewBalance:     result.NewBalance,
		ModeChanged:    result.ModeChanged,
		IdeaStatus:     status,
	}, nil
}

// RefundPreview evaluates the caller's refund eligibility on one idea without
// side effects.
func (s *Service) RefundPreview(ctx context.Context, actor Actor, ideaID, principalID string) (domain.RefundEligibility, error) {
	if err := requireSelf(actor, principalID); err != nil {
		return domain.RefundEligibility{}, err
	}
	ideaID = strings.TrimSpace(ideaID)
	if ideaID == "" {
		return domain.RefundEligibility{}, domain.ErrInvalidInput
	}
	idea, err := s.ideas.GetByID(ctx, ideaID)
	if err != nil {
		return domain.RefundEligibility{}, err
	}
	contributions, err := s.contributions.ListByIdeaAndPrincipal(ctx, ideaID, principalID)
	if err != nil {
		return domain.RefundEligibility{}, err
	}
	return domain.EvaluateRefundEligibility(idea.Status, contributions, s.nowFn(), s.refundWindow()), nil
}

func (s *Service) GetPrincipal(ctx context.Context, actor Actor, principalID string) (domain.Principal, error) {
	if err := requireSelf(actor, principalID); err != nil {
		return domain.Principal{}, err
	}
	return s.principals.GetByID(ctx, principalID)
}

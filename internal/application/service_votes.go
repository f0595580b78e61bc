package application

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/CalistoMango/TheShipyard-sub000/internal/domain"
)

// SubmitBuild registers a build racing for an idea's pool. Builders under a
// rejection cooldown for the idea are turned away.
func (s *Service) SubmitBuild(ctx context.Context, actor Actor, input SubmitBuildInput) (domain.Build, error) {
	if err := requireSelf(actor, input.BuilderID); err != nil {
		return domain.Build{}, err
	}
	input.IdeaID = strings.TrimSpace(input.IdeaID)
	input.URL = strings.TrimSpace(input.URL)
	if err := domain.ValidateBuildInput(input.IdeaID, input.BuilderID, input.URL); err != nil {
		return domain.Build{}, err
	}
	idea, err := s.ideas.GetByID(ctx, input.IdeaID)
	if err != nil {
		return domain.Build{}, err
	}
	if idea.Status != domain.IdeaStatusOpen && idea.Status != domain.IdeaStatusVoting {
		return domain.Build{}, domain.ErrIdeaNotOpen
	}
	if s.cooldowns != nil {
		active, err := s.cooldowns.Active(ctx, input.IdeaID, input.BuilderID)
		if err != nil {
			s.logger.WarnContext(ctx, "cooldown lookup failed",
				"operation", "submit_build", "outcome", "degraded", "error", err.Error())
		} else if active {
			return domain.Build{}, domain.ErrCooldownActive
		}
	}
	now := s.nowFn()
	if err := s.principals.EnsureExists(ctx, input.BuilderID, now); err != nil {
		return domain.Build{}, err
	}
	build := domain.Build{
		BuildID:     uuid.NewString(),
		IdeaID:      input.IdeaID,
		BuilderID:   input.BuilderID,
		URL:         input.URL,
		Description: strings.TrimSpace(input.Description),
		Status:      domain.BuildStatusPendingReview,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.builds.Create(ctx, build); err != nil {
		return domain.Build{}, err
	}
	s.notifyBuildSubmitted(ctx, build, actor.RequestID)
	return build, nil
}

// AdvanceBuildToVoting is the operator transition pending_review -> voting.
// The idea follows into voting through its own guarded transition; the two
// state machines stay independent and only react to this orchestration step.
func (s *Service) AdvanceBuildToVoting(ctx context.Context, actor Actor, buildID string) (domain.Build, error) {
	if err := requireOperator(actor); err != nil {
		return domain.Build{}, err
	}
	buildID = strings.TrimSpace(buildID)
	if buildID == "" {
		return domain.Build{}, domain.ErrInvalidInput
	}
	build, err := s.builds.GetByID(ctx, buildID)
	if err != nil {
		return domain.Build{}, err
	}
	if build.Status != domain.BuildStatusPendingReview {
		return domain.Build{}, domain.ErrBuildNotPending
	}
	now := s.nowFn()
	deadline := now.Add(s.cfg.VotingWindow)
	if err := s.builds.AdvanceToVoting(ctx, buildID, deadline, now); err != nil {
		return domain.Build{}, err
	}
	idea, err := s.ideas.GetByID(ctx, build.IdeaID)
	if err != nil {
		return domain.Build{}, err
	}
	if idea.Status == domain.IdeaStatusOpen {
		if err := s.ideas.UpdateStatus(ctx, idea.IdeaID, domain.IdeaStatusOpen, domain.IdeaStatusVoting, now); err != nil && err != domain.ErrConflict {
			return domain.Build{}, err
		}
	}
	build.Status = domain.BuildStatusVoting
	build.VotingDeadline = &deadline
	build.UpdatedAt = now
	return build, nil
}

// CastVote records or replaces the voter's live vote. Tallies come back
// re-derived from the vote set, never incremented in place.
func (s *Service) CastVote(ctx context.Context, actor Actor, input CastVoteInput) (domain.Build, error) {
	if err := requireSelf(actor, input.VoterID); err != nil {
		return domain.Build{}, err
	}
	input.BuildID = strings.TrimSpace(input.BuildID)
	if input.BuildID == "" {
		return domain.Build{}, domain.ErrInvalidInput
	}
	build, err := s.builds.GetByID(ctx, input.BuildID)
	if err != nil {
		return domain.Build{}, err
	}
	if build.Status != domain.BuildStatusVoting {
		return domain.Build{}, domain.ErrBuildNotVoting
	}
	now := s.nowFn()
	if build.VotingDeadline == nil || !now.Before(*build.VotingDeadline) {
		return domain.Build{}, domain.ErrVotingClosed
	}
	if build.BuilderID == input.VoterID {
		return domain.Build{}, domain.ErrSelfVote
	}
	// First-time voters may have no principal row yet.
	if err := s.principals.EnsureExists(ctx, input.VoterID, now); err != nil {
		return domain.Build{}, err
	}
	vote := domain.Vote{
		VoteID:    uuid.NewString(),
		BuildID:   input.BuildID,
		VoterID:   input.VoterID,
		Approve:   input.Approve,
		CreatedAt: now,
		UpdatedAt: now,
	}
	approve, reject, err := s.builds.UpsertVote(ctx, vote)
	if err != nil {
		return domain.Build{}, err
	}
	build.ApproveCount = approve
	build.RejectCount = reject
	return build, nil
}

// ResolveBuild finalizes a voting build once the deadline has passed, or
// earlier when the configured quorum of votes is in. Any viewer crossing the
// deadline may trigger it; the outcome is a pure function of the final tallies.
func (s *Service) ResolveBuild(ctx context.Context, actor Actor, buildID string) (domain.Build, error) {
	if strings.TrimSpace(actor.PrincipalID) == "" {
		return domain.Build{}, domain.ErrUnauthorized
	}
	buildID = strings.TrimSpace(buildID)
	if buildID == "" {
		return domain.Build{}, domain.ErrInvalidInput
	}
	build, err := s.builds.GetByID(ctx, buildID)
	if err != nil {
		return domain.Build{}, err
	}
	if build.Status != domain.BuildStatusVoting {
		return domain.Build{}, domain.ErrBuildNotVoting
	}
	now := s.nowFn()
	deadlinePassed := build.VotingDeadline != nil && !now.Before(*build.VotingDeadline)
	quorumReached := s.cfg.VoteQuorum > 0 && build.ApproveCount+build.RejectCount >= s.cfg.VoteQuorum
	if !deadlinePassed && !quorumReached {
		return domain.Build{}, domain.ErrVotingStillOpen
	}

	outcome := domain.ResolveVotes(build.ApproveCount, build.RejectCount, s.cfg.TieOutcome)
	if err := s.builds.Resolve(ctx, buildID, outcome, now); err != nil {
		if err == domain.ErrConflict {
			// A concurrent viewer resolved it first; report the settled state.
			return s.builds.GetByID(ctx, buildID)
		}
		return domain.Build{}, err
	}
	build.Status = outcome
	build.UpdatedAt = now

	switch outcome {
	case domain.BuildStatusApproved:
		if err := s.ideas.UpdateStatus(ctx, build.IdeaID, domain.IdeaStatusVoting, domain.IdeaStatusCompleted, now); err != nil && err != domain.ErrConflict {
			return domain.Build{}, err
		}
	case domain.BuildStatusRejected:
		// A rejected build cycles the idea back to open for the next racer.
		if err := s.ideas.UpdateStatus(ctx, build.IdeaID, domain.IdeaStatusVoting, domain.IdeaStatusOpen, now); err != nil && err != domain.ErrConflict {
			return domain.Build{}, err
		}
		if s.cooldowns != nil {
			if err := s.cooldowns.Activate(ctx, build.IdeaID, build.BuilderID, s.cfg.RejectionCooldown); err != nil {
				s.logger.WarnContext(ctx, "cooldown activation failed",
					"operation", "resolve_build", "outcome", "degraded", "error", err.Error())
			}
		}
	}
	s.notifyVoteResolved(ctx, build, actor.RequestID)
	return build, nil
}

func (s *Service) GetBuild(ctx context.Context, buildID string) (domain.Build, error) {
	buildID = strings.TrimSpace(buildID)
	if buildID == "" {
		return domain.Build{}, domain.ErrInvalidInput
	}
	return s.builds.GetByID(ctx, buildID)
}

func (s *Service) ListBuilds(ctx context.Context, ideaID string) ([]domain.Build, error) {
	ideaID = strings.TrimSpace(ideaID)
	if ideaID == "" {
		return nil, domain.ErrInvalidInput
	}
	return s.builds.ListByIdea(ctx, ideaID)
}

// ReportExisting flags an idea as already solved elsewhere.
func (s *Service) ReportExisting(ctx context.Context, actor Actor, input ReportExistingInput) (domain.ExistingReport, error) {
	if err := requireSelf(actor, input.ReporterID); err != nil {
		return domain.ExistingReport{}, err
	}
	input.IdeaID = strings.TrimSpace(input.IdeaID)
	input.URL = strings.TrimSpace(input.URL)
	if input.IdeaID == "" || input.URL == "" {
		return domain.ExistingReport{}, domain.ErrInvalidInput
	}
	idea, err := s.ideas.GetByID(ctx, input.IdeaID)
	if err != nil {
		return domain.ExistingReport{}, err
	}
	if idea.Status != domain.IdeaStatusOpen {
		return domain.ExistingReport{}, domain.ErrIdeaNotOpen
	}
	now := s.nowFn()
	if err := s.principals.EnsureExists(ctx, input.ReporterID, now); err != nil {
		return domain.ExistingReport{}, err
	}
	report := domain.ExistingReport{
		ReportID:   uuid.NewString(),
		IdeaID:     input.IdeaID,
		ReporterID: input.ReporterID,
		URL:        input.URL,
		Note:       strings.TrimSpace(input.Note),
		CreatedAt:  now,
	}
	if err := s.reports.Create(ctx, report); err != nil {
		return domain.ExistingReport{}, err
	}
	s.notifyReportFlagged(ctx, report, actor.RequestID)
	return report, nil
}

// ResolveExistingReport accepts or dismisses a report. Acceptance flips the
// idea to already_exists, which makes its outstanding contributions
// immediately refund-eligible.
func (s *Service) ResolveExistingReport(ctx context.Context, actor Actor, reportID string, accept bool) (domain.ExistingReport, error) {
	if err := requireOperator(actor); err != nil {
		return domain.ExistingReport{}, err
	}
	reportID = strings.TrimSpace(reportID)
	if reportID == "" {
		return domain.ExistingReport{}, domain.ErrInvalidInput
	}
	report, err := s.reports.GetByID(ctx, reportID)
	if err != nil {
		return domain.ExistingReport{}, err
	}
	if report.AcceptedAt != nil || report.RejectedAt != nil {
		return domain.ExistingReport{}, domain.ErrReportAlreadyClosed
	}
	now := s.nowFn()
	if err := s.reports.Close(ctx, reportID, accept, now); err != nil {
		return domain.ExistingReport{}, err
	}
	if accept {
		if err := s.ideas.UpdateStatus(ctx, report.IdeaID, domain.IdeaStatusOpen, domain.IdeaStatusAlreadyExists, now); err != nil && err != domain.ErrConflict {
			return domain.ExistingReport{}, err
		}
		report.AcceptedAt = &now
	} else {
		report.RejectedAt = &now
	}
	return report, nil
}

package application

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/CalistoMango/TheShipyard-sub000/internal/contracts"
	"github.com/CalistoMango/TheShipyard-sub000/internal/domain"
)

// publish is strictly fire-and-forget: a dead notification sink never blocks
// or fails the operation that triggered it.
func (s *Service) publish(ctx context.Context, eventType, requestID string, payload any) {
	if s.notifier == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	event := contracts.NotificationEvent{
		EventID:    uuid.NewString(),
		EventType:  eventType,
		OccurredAt: s.nowFn(),
		RequestID:  requestID,
		Data:       data,
	}
	if err := s.notifier.Publish(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "notification publish failed",
			"operation", "publish_event", "outcome", "degraded",
			"event_type", eventType, "error", err.Error())
	}
}

func (s *Service) notifyBuildSubmitted(ctx context.Context, build domain.Build, requestID string) {
	s.publish(ctx, domain.EventBuildSubmitted, requestID, contracts.BuildSubmittedPayload{
		BuildID:   build.BuildID,
		IdeaID:    build.IdeaID,
		BuilderID: build.BuilderID,
		URL:       build.URL,
	})
}

func (s *Service) notifyReportFlagged(ctx context.Context, report domain.ExistingReport, requestID string) {
	s.publish(ctx, domain.EventReportFlagged, requestID, contracts.ReportFlaggedPayload{
		ReportID:   report.ReportID,
		IdeaID:     report.IdeaID,
		ReporterID: report.ReporterID,
		URL:        report.URL,
	})
}

func (s *Service) notifyVoteResolved(ctx context.Context, build domain.Build, requestID string) {
	s.publish(ctx, domain.EventVoteResolved, requestID, contracts.VoteResolvedPayload{
		BuildID:      build.BuildID,
		IdeaID:       build.IdeaID,
		Outcome:      string(build.Status),
		ApproveCount: build.ApproveCount,
		RejectCount:  build.RejectCount,
	})
}

func (s *Service) notifyRaceMode(ctx context.Context, ideaID string, newBalance decimal.Decimal, requestID string) {
	s.publish(ctx, domain.EventRaceModeEntered, requestID, contracts.RaceModePayload{
		IdeaID:     ideaID,
		NewBalance: newBalance.String(),
	})
}

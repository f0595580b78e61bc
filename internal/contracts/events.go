package contracts

import (
	"encoding/json"
	"time"
)

// NotificationEvent is the adapter-neutral envelope published to the
// notification sink.
type NotificationEvent struct {
	EventID    string          `json:"event_id"`
	EventType  string          `json:"event_type"`
	OccurredAt time.Time       `json:"occurred_at"`
	RequestID  string          `json:"request_id,omitempty"`
	Data       json.RawMessage `json:"data"`
}

type BuildSubmittedPayload struct {
	BuildID   string `json:"build_id"`
	IdeaID    string `json:"idea_id"`
	BuilderID string `json:"builder_id"`
	URL       string `json:"url"`
}

type ReportFlaggedPayload struct {
	ReportID   string `json:"report_id"`
	IdeaID     string `json:"idea_id"`
	ReporterID string `json:"reporter_id"`
	URL        string `json:"url"`
}

type VoteResolvedPayload struct {
	BuildID      string `json:"build_id"`
	IdeaID       string `json:"idea_id"`
	Outcome      string `json:"outcome"`
	ApproveCount int    `json:"approve_count"`
	RejectCount  int    `json:"reject_count"`
}

type RaceModePayload struct {
	IdeaID     string `json:"idea_id"`
	NewBalance string `json:"new_balance"`
}

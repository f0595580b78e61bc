package domain

// Notification event types published to the best-effort sink. Delivery failures
// never block or fail the triggering operation.
const (
	EventBuildSubmitted  = "pool.build.submitted"
	EventReportFlagged   = "pool.report.flagged"
	EventVoteResolved    = "pool.vote.resolved"
	EventRaceModeEntered = "pool.idea.race_mode"
)

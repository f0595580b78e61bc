package contracts

// Amounts cross the wire as decimal strings to preserve the settlement
// currency's exact fraction digits.

type CreateIdeaRequest struct {
	Title         string `json:"title"`
	Description   string `json:"description,omitempty"`
	SourcePostRef string `json:"source_post_ref,omitempty"`
}

type ContributeRequest struct {
	PrincipalID   string `json:"principal_id"`
	Amount        string `json:"amount"`
	ExternalTxRef string `json:"external_tx_ref,omitempty"`
}

type ContributeResponse struct {
	ContributionID string `json:"contribution_id"`
	NewBalance     string `json:"new_balance"`
	ModeChanged    bool   `json:"mode_changed"`
	IdeaStatus     string `json:"idea_status"`
}

type RefundEligibilityResponse struct {
	Eligible            bool   `json:"eligible"`
	TotalOutstanding    string `json:"total_outstanding"`
	DaysUntilEligible   int    `json:"days_until_eligible"`
	LatestOutstandingAt string `json:"latest_outstanding_at,omitempty"`
}

type SignClaimRequest struct {
	PrincipalID      string `json:"principal_id"`
	RecipientAddress string `json:"recipient_address"`
	TTLSeconds       int    `json:"ttl_seconds,omitempty"`
}

type ClaimAuthorizationResponse struct {
	Project          string `json:"project"`
	ClaimType        string `json:"claim_type"`
	PrincipalID      string `json:"principal_id"`
	RecipientAddress string `json:"recipient_address"`
	CumulativeAmount string `json:"cumulative_amount"`
	Delta            string `json:"delta"`
	Deadline         string `json:"deadline"`
	Signature        string `json:"signature"`
}

type RecordClaimRequest struct {
	PrincipalID string `json:"principal_id"`
	TxRef       string `json:"tx_ref"`
}

type RecordClaimResponse struct {
	Accepted    bool   `json:"accepted"`
	AlreadyUsed bool   `json:"already_used"`
	Amount      string `json:"amount,omitempty"`
}

type RewardPreviewResponse struct {
	BuilderShare   string `json:"builder_share"`
	SubmitterShare string `json:"submitter_share"`
	Total          string `json:"total"`
}

type SubmitBuildRequest struct {
	BuilderID   string `json:"builder_id"`
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
}

type CastVoteRequest struct {
	VoterID string `json:"voter_id"`
	Approve bool   `json:"approve"`
}

type VoteTallyResponse struct {
	BuildID      string `json:"build_id"`
	ApproveCount int    `json:"approve_count"`
	RejectCount  int    `json:"reject_count"`
	Status       string `json:"status"`
}

type ReportExistingRequest struct {
	ReporterID string `json:"reporter_id"`
	URL        string `json:"url"`
	Note       string `json:"note,omitempty"`
}

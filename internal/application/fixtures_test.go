package application_test

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/CalistoMango/TheShipyard-sub000/internal/adapters/events"
	"github.com/CalistoMango/TheShipyard-sub000/internal/application"
	"github.com/CalistoMango/TheShipyard-sub000/internal/domain"
	"github.com/CalistoMango/TheShipyard-sub000/internal/ports"
)

type fakeIdeaRepo struct {
	mu    sync.Mutex
	ideas map[string]domain.Idea
}

func newFakeIdeaRepo() *fakeIdeaRepo {
	return &fakeIdeaRepo{ideas: map[string]domain.Idea{}}
}

func (r *fakeIdeaRepo) Create(_ context.Context, idea domain.Idea) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.ideas[idea.IdeaID]; ok {
		return domain.ErrConflict
	}
	r.ideas[idea.IdeaID] = idea
	return nil
}

func (r *fakeIdeaRepo) GetByID(_ context.Context, ideaID string) (domain.Idea, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	idea, ok := r.ideas[ideaID]
	if !ok {
		return domain.Idea{}, domain.ErrNotFound
	}
	return idea, nil
}

func (r *fakeIdeaRepo) List(_ context.Context, status domain.IdeaStatus, limit, _ int) ([]domain.Idea, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.Idea{}
	for _, idea := range r.ideas {
		if status != "" && idea.Status != status {
			continue
		}
		out = append(out, idea)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (r *fakeIdeaRepo) UpdateStatus(_ context.Context, ideaID string, from, to domain.IdeaStatus, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	idea, ok := r.ideas[ideaID]
	if !ok || idea.Status != from {
		return domain.ErrConflict
	}
	idea.Status = to
	idea.UpdatedAt = at
	r.ideas[ideaID] = idea
	return nil
}

func (r *fakeIdeaRepo) MarkSubmitterRewardClaimed(_ context.Context, ideaIDs []string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ideaIDs {
		idea, ok := r.ideas[id]
		if !ok || idea.SubmitterRewardClaimedAt != nil {
			continue
		}
		stamp := at
		idea.SubmitterRewardClaimedAt = &stamp
		r.ideas[id] = idea
	}
	return nil
}

func (r *fakeIdeaRepo) ListCompletedBySubmitter(_ context.Context, principalID string) ([]domain.RewardSource, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.RewardSource{}
	for _, idea := range r.ideas {
		if idea.SubmitterID != principalID || idea.Status != domain.IdeaStatusCompleted {
			continue
		}
		out = append(out, domain.RewardSource{
			SourceID:    idea.IdeaID,
			PoolBalance: idea.PoolBalance,
			Claimed:     idea.SubmitterRewardClaimedAt != nil,
			EarnedAt:    idea.UpdatedAt,
		})
	}
	return out, nil
}

type fakeContributionRepo struct {
	mu      sync.Mutex
	ideas   *fakeIdeaRepo
	records map[string]domain.Contribution
}

func newFakeContributionRepo(ideas *fakeIdeaRepo) *fakeContributionRepo {
	return &fakeContributionRepo{ideas: ideas, records: map[string]domain.Contribution{}}
}

func (r *fakeContributionRepo) Contribute(_ context.Context, params ports.ContributeParams) (ports.ContributeResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if params.ExternalTxRef != "" {
		for _, c := range r.records {
			if c.ExternalTxRef == params.ExternalTxRef {
				return ports.ContributeResult{}, domain.ErrConflict
			}
		}
	}
	r.ideas.mu.Lock()
	defer r.ideas.mu.Unlock()
	idea, ok := r.ideas.ideas[params.IdeaID]
	if !ok || idea.Status != domain.IdeaStatusOpen {
		return ports.ContributeResult{}, domain.ErrIdeaNotOpen
	}
	r.records[params.ContributionID] = domain.Contribution{
		ContributionID: params.ContributionID,
		IdeaID:         params.IdeaID,
		PrincipalID:    params.PrincipalID,
		Amount:         params.Amount,
		ExternalTxRef:  params.ExternalTxRef,
		CreatedAt:      params.At,
	}
	newBalance := idea.PoolBalance.Add(params.Amount)
	modeChanged := params.RaceThreshold.IsPositive() &&
		idea.PoolBalance.LessThan(params.RaceThreshold) &&
		newBalance.GreaterThanOrEqual(params.RaceThreshold)
	idea.PoolBalance = newBalance
	if modeChanged {
		idea.Status = domain.IdeaStatusVoting
	}
	idea.UpdatedAt = params.At
	r.ideas.ideas[params.IdeaID] = idea
	return ports.ContributeResult{NewBalance: newBalance, ModeChanged: modeChanged}, nil
}

func (r *fakeContributionRepo) ListByIdeaAndPrincipal(_ context.Context, ideaID, principalID string) ([]domain.Contribution, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.Contribution{}
	for _, c := range r.records {
		if c.IdeaID == ideaID && c.PrincipalID == principalID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *fakeContributionRepo) ListOutstandingByPrincipal(_ context.Context, principalID string) ([]domain.Contribution, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.Contribution{}
	for _, c := range r.records {
		if c.PrincipalID == principalID && c.RefundedAt == nil {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *fakeContributionRepo) ReleaseRefund(_ context.Context, ideaID string, contributionIDs []string, at time.Time) (decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	released := decimal.Zero
	for _, id := range contributionIDs {
		c, ok := r.records[id]
		if !ok || c.IdeaID != ideaID || c.RefundedAt != nil {
			continue
		}
		stamp := at
		c.RefundedAt = &stamp
		r.records[id] = c
		released = released.Add(c.Amount)
	}
	if !released.IsZero() {
		r.ideas.mu.Lock()
		idea := r.ideas.ideas[ideaID]
		idea.PoolBalance = idea.PoolBalance.Sub(released)
		r.ideas.ideas[ideaID] = idea
		r.ideas.mu.Unlock()
	}
	return released, nil
}

func (r *fakeContributionRepo) seed(c domain.Contribution) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[c.ContributionID] = c
}

type fakeBuildRepo struct {
	mu     sync.Mutex
	ideas  *fakeIdeaRepo
	builds map[string]domain.Build
	votes  map[string]map[string]bool
}

func newFakeBuildRepo(ideas *fakeIdeaRepo) *fakeBuildRepo {
	return &fakeBuildRepo{ideas: ideas, builds: map[string]domain.Build{}, votes: map[string]map[string]bool{}}
}

func (r *fakeBuildRepo) Create(_ context.Context, build domain.Build) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.builds[build.BuildID] = build
	return nil
}

func (r *fakeBuildRepo) GetByID(_ context.Context, buildID string) (domain.Build, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	build, ok := r.builds[buildID]
	if !ok {
		return domain.Build{}, domain.ErrNotFound
	}
	return build, nil
}

func (r *fakeBuildRepo) ListByIdea(_ context.Context, ideaID string) ([]domain.Build, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.Build{}
	for _, b := range r.builds {
		if b.IdeaID == ideaID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *fakeBuildRepo) AdvanceToVoting(_ context.Context, buildID string, deadline, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	build, ok := r.builds[buildID]
	if !ok || build.Status != domain.BuildStatusPendingReview {
		return domain.ErrConflict
	}
	build.Status = domain.BuildStatusVoting
	build.VotingDeadline = &deadline
	build.UpdatedAt = at
	r.builds[buildID] = build
	return nil
}

func (r *fakeBuildRepo) UpsertVote(_ context.Context, vote domain.Vote) (int, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.votes[vote.BuildID] == nil {
		r.votes[vote.BuildID] = map[string]bool{}
	}
	r.votes[vote.BuildID][vote.VoterID] = vote.Approve
	approve, reject := 0, 0
	for _, v := range r.votes[vote.BuildID] {
		if v {
			approve++
		} else {
			reject++
		}
	}
	build := r.builds[vote.BuildID]
	build.ApproveCount = approve
	build.RejectCount = reject
	build.UpdatedAt = vote.UpdatedAt
	r.builds[vote.BuildID] = build
	return approve, reject, nil
}

func (r *fakeBuildRepo) Resolve(_ context.Context, buildID string, outcome domain.BuildStatus, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	build, ok := r.builds[buildID]
	if !ok || build.Status != domain.BuildStatusVoting {
		return domain.ErrConflict
	}
	build.Status = outcome
	build.UpdatedAt = at
	r.builds[buildID] = build
	return nil
}

func (r *fakeBuildRepo) MarkBuilderRewardClaimed(_ context.Context, buildIDs []string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range buildIDs {
		build, ok := r.builds[id]
		if !ok || build.BuilderRewardClaimedAt != nil {
			continue
		}
		stamp := at
		build.BuilderRewardClaimedAt = &stamp
		r.builds[id] = build
	}
	return nil
}

func (r *fakeBuildRepo) ListApprovedByBuilder(_ context.Context, principalID string) ([]domain.RewardSource, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.RewardSource{}
	for _, b := range r.builds {
		if b.BuilderID != principalID || b.Status != domain.BuildStatusApproved {
			continue
		}
		r.ideas.mu.Lock()
		balance := r.ideas.ideas[b.IdeaID].PoolBalance
		r.ideas.mu.Unlock()
		out = append(out, domain.RewardSource{
			SourceID:    b.BuildID,
			PoolBalance: balance,
			Claimed:     b.BuilderRewardClaimedAt != nil,
			EarnedAt:    b.UpdatedAt,
		})
	}
	return out, nil
}

type fakeClaimLedger struct {
	mu      sync.Mutex
	entries map[string]domain.ClaimLedgerEntry
}

func newFakeClaimLedger() *fakeClaimLedger {
	return &fakeClaimLedger{entries: map[string]domain.ClaimLedgerEntry{}}
}

func claimKey(txRef string, claimType domain.ClaimType) string {
	return txRef + "|" + string(claimType)
}

func (r *fakeClaimLedger) Record(_ context.Context, entry domain.ClaimLedgerEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := claimKey(entry.TxRef, entry.ClaimType)
	if _, ok := r.entries[key]; ok {
		return domain.ErrConflict
	}
	r.entries[key] = entry
	return nil
}

func (r *fakeClaimLedger) Get(_ context.Context, txRef string, claimType domain.ClaimType) (*domain.ClaimLedgerEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[claimKey(txRef, claimType)]
	if !ok {
		return nil, nil
	}
	return &entry, nil
}

func (r *fakeClaimLedger) SumByPrincipal(_ context.Context, principalID string, claimType domain.ClaimType) (decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	total := decimal.Zero
	for _, entry := range r.entries {
		if entry.PrincipalID == principalID && entry.ClaimType == claimType {
			total = total.Add(entry.Amount)
		}
	}
	return total, nil
}

type fakePrincipalRepo struct {
	mu         sync.Mutex
	principals map[string]domain.Principal
}

func newFakePrincipalRepo() *fakePrincipalRepo {
	return &fakePrincipalRepo{principals: map[string]domain.Principal{}}
}

func (r *fakePrincipalRepo) EnsureExists(_ context.Context, principalID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.principals[principalID]; !ok {
		r.principals[principalID] = domain.Principal{
			PrincipalID:        principalID,
			ClaimedRefundTotal: decimal.Zero,
			ClaimedRewardTotal: decimal.Zero,
			CreatedAt:          at,
			UpdatedAt:          at,
		}
	}
	return nil
}

func (r *fakePrincipalRepo) GetByID(_ context.Context, principalID string) (domain.Principal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.principals[principalID]
	if !ok {
		return domain.Principal{}, domain.ErrNotFound
	}
	return p, nil
}

func (r *fakePrincipalRepo) AddClaimedTotal(_ context.Context, principalID string, claimType domain.ClaimType, amount decimal.Decimal, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.principals[principalID]
	if claimType == domain.ClaimTypeRefund {
		p.ClaimedRefundTotal = p.ClaimedRefundTotal.Add(amount)
	} else {
		p.ClaimedRewardTotal = p.ClaimedRewardTotal.Add(amount)
	}
	p.UpdatedAt = at
	r.principals[principalID] = p
	return nil
}

func (r *fakePrincipalRepo) SetClaimedTotal(_ context.Context, principalID string, claimType domain.ClaimType, total decimal.Decimal, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.principals[principalID]
	if claimType == domain.ClaimTypeRefund {
		p.ClaimedRefundTotal = total
	} else {
		p.ClaimedRewardTotal = total
	}
	p.UpdatedAt = at
	r.principals[principalID] = p
	return nil
}

type fakeReportRepo struct {
	mu      sync.Mutex
	reports map[string]domain.ExistingReport
}

func newFakeReportRepo() *fakeReportRepo {
	return &fakeReportRepo{reports: map[string]domain.ExistingReport{}}
}

func (r *fakeReportRepo) Create(_ context.Context, report domain.ExistingReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports[report.ReportID] = report
	return nil
}

func (r *fakeReportRepo) GetByID(_ context.Context, reportID string) (domain.ExistingReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	report, ok := r.reports[reportID]
	if !ok {
		return domain.ExistingReport{}, domain.ErrNotFound
	}
	return report, nil
}

func (r *fakeReportRepo) Close(_ context.Context, reportID string, accepted bool, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	report, ok := r.reports[reportID]
	if !ok {
		return domain.ErrNotFound
	}
	if report.AcceptedAt != nil || report.RejectedAt != nil {
		return domain.ErrReportAlreadyClosed
	}
	stamp := at
	if accepted {
		report.AcceptedAt = &stamp
	} else {
		report.RejectedAt = &stamp
	}
	r.reports[reportID] = report
	return nil
}

type fakeSettlement struct {
	mu       sync.Mutex
	lastPaid map[string]decimal.Decimal
	txs      map[string]domain.SettlementTransaction
	err      error
}

func newFakeSettlement() *fakeSettlement {
	return &fakeSettlement{lastPaid: map[string]decimal.Decimal{}, txs: map[string]domain.SettlementTransaction{}}
}

func (s *fakeSettlement) LastPaidCumulative(_ context.Context, _, principalID string, claimType domain.ClaimType) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return decimal.Zero, s.err
	}
	return s.lastPaid[principalID+"|"+string(claimType)], nil
}

func (s *fakeSettlement) ResolveTransaction(_ context.Context, txRef string) (domain.SettlementTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return domain.SettlementTransaction{}, s.err
	}
	tx, ok := s.txs[txRef]
	if !ok {
		return domain.SettlementTransaction{}, domain.ErrTxUnverified
	}
	return tx, nil
}

func (s *fakeSettlement) setLastPaid(principalID string, claimType domain.ClaimType, amount decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastPaid[principalID+"|"+string(claimType)] = amount
}

func (s *fakeSettlement) addTx(tx domain.SettlementTransaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txs[tx.TxRef] = tx
}

type fakeSigner struct{}

func (fakeSigner) SignClaim(auth domain.ClaimAuthorization) (domain.ClaimAuthorization, error) {
	auth.Signature = "0xsigned-" + auth.CumulativeAmount.String()
	return auth, nil
}

func (fakeSigner) SignerAddress() string { return "0xsigner" }

type fakeCooldownStore struct {
	mu     sync.Mutex
	active map[string]bool
}

func newFakeCooldownStore() *fakeCooldownStore {
	return &fakeCooldownStore{active: map[string]bool{}}
}

func (s *fakeCooldownStore) Activate(_ context.Context, ideaID, builderID string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active[ideaID+"|"+builderID] = true
	return nil
}

func (s *fakeCooldownStore) Active(_ context.Context, ideaID, builderID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active[ideaID+"|"+builderID], nil
}

type fakeAuthCache struct {
	mu    sync.Mutex
	auths map[string]domain.ClaimAuthorization
}

func newFakeAuthCache() *fakeAuthCache {
	return &fakeAuthCache{auths: map[string]domain.ClaimAuthorization{}}
}

func (c *fakeAuthCache) Put(_ context.Context, auth domain.ClaimAuthorization) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.auths[auth.Project+"|"+string(auth.ClaimType)+"|"+auth.PrincipalID] = auth
	return nil
}

func (c *fakeAuthCache) Get(_ context.Context, project, principalID string, claimType domain.ClaimType) (*domain.ClaimAuthorization, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	auth, ok := c.auths[project+"|"+string(claimType)+"|"+principalID]
	if !ok {
		return nil, nil
	}
	return &auth, nil
}

type fixture struct {
	svc           *application.Service
	ideas         *fakeIdeaRepo
	contributions *fakeContributionRepo
	builds        *fakeBuildRepo
	claims        *fakeClaimLedger
	principals    *fakePrincipalRepo
	reports       *fakeReportRepo
	settlement    *fakeSettlement
	cooldowns     *fakeCooldownStore
	authCache     *fakeAuthCache
	notifier      *events.MemoryPublisher
	now           time.Time
}

func newFixture(cfg application.Config) *fixture {
	f := &fixture{
		ideas:      newFakeIdeaRepo(),
		claims:     newFakeClaimLedger(),
		principals: newFakePrincipalRepo(),
		reports:    newFakeReportRepo(),
		settlement: newFakeSettlement(),
		cooldowns:  newFakeCooldownStore(),
		authCache:  newFakeAuthCache(),
		notifier:   events.NewMemoryPublisher(),
		now:        time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	f.contributions = newFakeContributionRepo(f.ideas)
	f.builds = newFakeBuildRepo(f.ideas)
	f.svc = application.NewService(application.Dependencies{
		Config:        cfg,
		Ideas:         f.ideas,
		Contributions: f.contributions,
		Builds:        f.builds,
		Claims:        f.claims,
		Principals:    f.principals,
		Reports:       f.reports,
		Settlement:    f.settlement,
		Signer:        fakeSigner{},
		Cooldowns:     f.cooldowns,
		AuthCache:     f.authCache,
		Notifier:      f.notifier,
	}).WithNow(func() time.Time { return f.now })
	return f
}

func (f *fixture) advance(d time.Duration) {
	f.now = f.now.Add(d)
}

func (f *fixture) seedIdea(ideaID string, status domain.IdeaStatus, balance decimal.Decimal) {
	f.ideas.mu.Lock()
	defer f.ideas.mu.Unlock()
	f.ideas.ideas[ideaID] = domain.Idea{
		IdeaID:      ideaID,
		Title:       "idea " + ideaID,
		SubmitterID: "submitter",
		Status:      status,
		PoolBalance: balance,
		CreatedAt:   f.now,
		UpdatedAt:   f.now,
	}
}

func actorFor(principalID string) application.Actor {
	return application.Actor{PrincipalID: principalID, RequestID: "req-1"}
}

func operatorActor() application.Actor {
	return application.Actor{PrincipalID: "ops-1", Operator: true, RequestID: "req-op"}
}

package application

import (
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/CalistoMango/TheShipyard-sub000/internal/domain"
	"github.com/CalistoMango/TheShipyard-sub000/internal/ports"
)

// Service orchestrates the funding pool ledger, the claim protocol, and the
// build voting engine. All storage and external collaborators sit behind ports.
type Service struct {
	cfg           Config
	ideas         ports.IdeaRepository
	contributions ports.ContributionRepository
	builds        ports.BuildRepository
	claims        ports.ClaimLedgerRepository
	principals    ports.PrincipalRepository
	reports       ports.ReportRepository
	settlement    ports.SettlementLedger
	signer        ports.ClaimSigner
	cooldowns     ports.CooldownStore
	authCache     ports.ClaimAuthorizationCache
	notifier      ports.NotificationPublisher
	logger        *slog.Logger
	nowFn         func() time.Time
}

type Dependencies struct {
	Config        Config
	Ideas         ports.IdeaRepository
	Contributions ports.ContributionRepository
	Builds        ports.BuildRepository
	Claims        ports.ClaimLedgerRepository
	Principals    ports.PrincipalRepository
	Reports       ports.ReportRepository
	Settlement    ports.SettlementLedger
	Signer        ports.ClaimSigner
	Cooldowns     ports.CooldownStore
	AuthCache     ports.ClaimAuthorizationCache
	Notifier      ports.NotificationPublisher
	Logger        *slog.Logger
}

func NewService(deps Dependencies) *Service {
	cfg := deps.Config
	if cfg.ServiceName == "" {
		cfg.ServiceName = "shipyard-pool-service"
	}
	if cfg.Project == "" {
		cfg.Project = "shipyard"
	}
	if cfg.CurrencyExponent < 2 || cfg.CurrencyExponent > 6 {
		cfg.CurrencyExponent = 2
	}
	// A zero refund delay is a non-production shortcut only.
	if cfg.RefundDelayDays <= 0 && !cfg.NonProduction {
		cfg.RefundDelayDays = 30
	}
	if cfg.RefundDelayDays < 0 {
		cfg.RefundDelayDays = 0
	}
	if cfg.MinContribution.IsZero() {
		cfg.MinContribution = decimal.NewFromInt(1)
	}
	if !cfg.FeeSplit.Valid() {
		cfg.FeeSplit = domain.FeeSplit{
			BuilderPct:   decimal.NewFromInt(70),
			SubmitterPct: decimal.NewFromInt(20),
			PlatformPct:  decimal.NewFromInt(10),
		}
	}
	if cfg.ClaimTolerance.IsZero() {
		cfg.ClaimTolerance = decimal.New(1, -2)
	}
	if cfg.ClaimTTL <= 0 {
		cfg.ClaimTTL = 10 * time.Minute
	}
	if cfg.VotingWindow <= 0 {
		cfg.VotingWindow = 72 * time.Hour
	}
	if cfg.RejectionCooldown <= 0 {
		cfg.RejectionCooldown = 7 * 24 * time.Hour
	}
	if cfg.TieOutcome != domain.BuildStatusApproved {
		cfg.TieOutcome = domain.BuildStatusRejected
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		cfg:           cfg,
		ideas:         deps.Ideas,
		contributions: deps.Contributions,
		builds:        deps.Builds,
		claims:        deps.Claims,
		principals:    deps.Principals,
		reports:       deps.Reports,
		settlement:    deps.Settlement,
		signer:        deps.Signer,
		cooldowns:     deps.Cooldowns,
		authCache:     deps.AuthCache,
		notifier:      deps.Notifier,
		logger:        logger.With("service", cfg.ServiceName, "layer", "application"),
		nowFn:         func() time.Time { return time.Now().UTC() },
	}
}

// WithNow overrides the clock; test seam.
func (s *Service) WithNow(nowFn func() time.Time) *Service {
	s.nowFn = nowFn
	return s
}

func (s *Service) refundWindow() time.Duration {
	return time.Duration(s.cfg.RefundDelayDays) * 24 * time.Hour
}

// requireSelf enforces that the verified principal matches the principal named
// in the payload. Mismatch is ErrForbidden, distinct from missing identity.
func requireSelf(actor Actor, principalID string) error {
	if strings.TrimSpace(actor.PrincipalID) == "" {
		return domain.ErrUnauthorized
	}
	if strings.TrimSpace(principalID) == "" || actor.PrincipalID != principalID {
		return domain.ErrForbidden
	}
	return nil
}

func requireOperator(actor Actor) error {
	if strings.TrimSpace(actor.PrincipalID) == "" {
		return domain.ErrUnauthorized
	}
	if !actor.Operator {
		return domain.ErrForbidden
	}
	return nil
}

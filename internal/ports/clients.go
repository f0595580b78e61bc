package ports

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/CalistoMango/TheShipyard-sub000/internal/domain"
)

// SettlementLedger is the read-only surface of the external vault contract.
// The service signs authorizations for it but never submits transactions.
//
// Both calls must be bounded by a timeout; an unreachable or slow ledger maps
// to domain.ErrVerificationUnavailable, never to "unverified".
type SettlementLedger interface {
	// LastPaidCumulative returns the cumulative amount the vault has ever paid
	// for the (project, principal, claim type) scope.
	LastPaidCumulative(ctx context.Context, project, principalID string, claimType domain.ClaimType) (decimal.Decimal, error)
	// ResolveTransaction resolves a settlement transaction reference. Unresolvable
	// or ambiguous transactions return domain.ErrTxUnverified (fail closed).
	ResolveTransaction(ctx context.Context, txRef string) (domain.SettlementTransaction, error)
}

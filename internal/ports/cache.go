package ports

import (
	"context"
	"time"

	"github.com/CalistoMango/TheShipyard-sub000/internal/domain"
)

// CooldownStore tracks per-(idea, builder) resubmission cooldowns after a
// rejected build. TTL-expiring keys; a missing store disables cooldowns.
type CooldownStore interface {
	// Activate starts a cooldown; overwriting an existing one extends it.
	Activate(ctx context.Context, ideaID, builderID string, ttl time.Duration) error
	Active(ctx context.Context, ideaID, builderID string) (bool, error)
}

// ClaimAuthorizationCache remembers the most recently issued authorization per
// (project, principal, claim type) until its deadline, so a client retrying a
// sign request inside the validity window gets the same signature back instead
// of a competing one.
type ClaimAuthorizationCache interface {
	Put(ctx context.Context, auth domain.ClaimAuthorization) error
	Get(ctx context.Context, project, principalID string, claimType domain.ClaimType) (*domain.ClaimAuthorization, error)
}

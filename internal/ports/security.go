package ports

import (
	"time"

	"github.com/CalistoMango/TheShipyard-sub000/internal/domain"
)

// ClaimSigner produces vault-verifiable authorizations. Holding key material at
// adapter level keeps the application layer crypto-library agnostic.
type ClaimSigner interface {
	SignClaim(auth domain.ClaimAuthorization) (domain.ClaimAuthorization, error)
	// SignerAddress is the public address the vault trusts, exposed for
	// diagnostics and configuration checks.
	SignerAddress() string
}

// VerifiedPrincipal is the identity provider's output for one request.
type VerifiedPrincipal struct {
	PrincipalID string
	Operator    bool
	ExpiresAt   time.Time
}

// TokenVerifier turns a bearer token into a verified principal or an error.
// This service never derives identity itself.
type TokenVerifier interface {
	Verify(token string) (VerifiedPrincipal, error)
}

package security

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/CalistoMango/TheShipyard-sub000/internal/ports"
)

// JWTVerifier validates RS256 bearer tokens minted by the platform identity
// provider. This service only verifies; it never issues tokens.
type JWTVerifier struct {
	publicKey *rsa.PublicKey
}

func NewJWTVerifier(publicKeyPEM string) (*JWTVerifier, error) {
	if publicKeyPEM == "" {
		return nil, errors.New("jwt public key is required")
	}
	pub, err := parseRSAPublic(publicKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}
	return &JWTVerifier{publicKey: pub}, nil
}

type principalJWTClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

func (v *JWTVerifier) Verify(raw string) (ports.VerifiedPrincipal, error) {
	parsed, err := jwt.ParseWithClaims(raw, &principalJWTClaims{}, func(token *jwt.Token) (any, error) {
		if token.Method.Alg() != jwt.SigningMethodRS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %s", token.Method.Alg())
		}
		return v.publicKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}), jwt.WithLeeway(30*time.Second))
	if err != nil {
		return ports.VerifiedPrincipal{}, err
	}
	claims, ok := parsed.Claims.(*principalJWTClaims)
	if !ok || !parsed.Valid {
		return ports.VerifiedPrincipal{}, errors.New("invalid token claims")
	}
	if claims.Subject == "" {
		return ports.VerifiedPrincipal{}, errors.New("token missing subject")
	}

	out := ports.VerifiedPrincipal{
		PrincipalID: claims.Subject,
		Operator:    claims.Role == "operator",
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time.UTC()
	}
	return out, nil
}

func parseRSAPublic(raw string) (*rsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(raw))
	if block == nil {
		return nil, errors.New("invalid public PEM")
	}
	if key, err := x509.ParsePKCS1PublicKey(block.Bytes); err == nil {
		return key, nil
	}
	keyAny, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	key, ok := keyAny.(*rsa.PublicKey)
	if !ok {
		return nil, errors.New("public key is not RSA")
	}
	return key, nil
}

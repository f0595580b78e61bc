package security

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	btcecdsa "github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"golang.org/x/crypto/sha3"

	"github.com/CalistoMango/TheShipyard-sub000/internal/domain"
)

// VaultClaimSigner produces recoverable secp256k1 signatures over claim
// authorizations. The settlement vault recovers the signer address from the
// signature and compares it against its configured trusted signer.
type VaultClaimSigner struct {
	privateKey *btcec.PrivateKey
	address    string
	exponent   int
}

// NewVaultClaimSigner builds a signer from a hex-encoded secp256k1 private
// key. The currency exponent fixes the base-unit scaling of signed amounts and
// must match the vault's configuration.
func NewVaultClaimSigner(privateKeyHex string, currencyExponent int) (*VaultClaimSigner, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("decode signer key: %w", err)
	}
	if len(raw) != 32 {
		return nil, errors.New("signer key must be 32 bytes")
	}
	priv, pub := btcec.PrivKeyFromBytes(raw)
	return &VaultClaimSigner{
		privateKey: priv,
		address:    pubKeyAddress(pub),
		exponent:   currencyExponent,
	}, nil
}

// NewEphemeralVaultClaimSigner creates an in-memory keypair for local/dev use.
// The vault will not trust it; this exists to unblock runtime startup when a
// static key is intentionally absent.
func NewEphemeralVaultClaimSigner(currencyExponent int) (*VaultClaimSigner, error) {
	priv, err := btcec.NewPrivateKey()
	if err != nil {
		return nil, err
	}
	return &VaultClaimSigner{
		privateKey: priv,
		address:    pubKeyAddress(priv.PubKey()),
		exponent:   currencyExponent,
	}, nil
}

func (s *VaultClaimSigner) SignClaim(auth domain.ClaimAuthorization) (domain.ClaimAuthorization, error) {
	digest, err := claimDigest(auth, s.exponent)
	if err != nil {
		return domain.ClaimAuthorization{}, err
	}
	sig := btcecdsa.SignCompact(s.privateKey, digest, false)
	auth.Signature = "0x" + hex.EncodeToString(sig)
	return auth, nil
}

func (s *VaultClaimSigner) SignerAddress() string {
	return s.address
}

// claimDigest packs the fields the vault checks into a fixed layout and
// keccak-hashes it. Amounts are signed in base units; a fractional remainder
// below one base unit means the amount was not rounded to the currency
// exponent and is rejected outright.
func claimDigest(auth domain.ClaimAuthorization, exponent int) ([]byte, error) {
	baseUnits := auth.CumulativeAmount.Shift(int32(exponent))
	if !baseUnits.IsInteger() {
		return nil, fmt.Errorf("cumulative amount %s not aligned to exponent %d", auth.CumulativeAmount, exponent)
	}
	if baseUnits.Sign() < 0 {
		return nil, errors.New("cumulative amount is negative")
	}

	h := sha3.NewLegacyKeccak256()
	for _, field := range []string{auth.Project, string(auth.ClaimType), auth.PrincipalID, strings.ToLower(auth.RecipientAddress)} {
		var length [4]byte
		binary.BigEndian.PutUint32(length[:], uint32(len(field)))
		h.Write(length[:])
		h.Write([]byte(field))
	}
	var amount [32]byte
	baseUnits.BigInt().FillBytes(amount[:])
	h.Write(amount[:])
	var deadline [8]byte
	binary.BigEndian.PutUint64(deadline[:], uint64(auth.Deadline.Unix()))
	h.Write(deadline[:])
	return h.Sum(nil), nil
}

// pubKeyAddress derives the 20-byte keccak address of the uncompressed public
// key, the form the vault stores for its trusted signer.
func pubKeyAddress(pub *btcec.PublicKey) string {
	uncompressed := pub.SerializeUncompressed()
	h := sha3.NewLegacyKeccak256()
	h.Write(uncompressed[1:])
	sum := h.Sum(nil)
	return "0x" + hex.EncodeToString(sum[12:])
}

package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type ClaimType string

const (
	ClaimTypeRefund ClaimType = "refund"
	ClaimTypeReward ClaimType = "reward"
)

// ClaimLedgerEntry is one replay-guard row. Append-only, never mutated; the
// existence of a row for (TxRef, ClaimType) is the sole source of truth for
// "this settlement transaction has already been consumed". Any denormalized
// last-transaction fields elsewhere are advisory only.
type ClaimLedgerEntry struct {
	TxRef       string          `json:"tx_ref"`
	ClaimType   ClaimType       `json:"claim_type"`
	PrincipalID string          `json:"principal_id"`
	Amount      decimal.Decimal `json:"amount"`
	CreatedAt   time.Time       `json:"created_at"`
}

// ClaimAuthorization is a signed, time-bounded permission for a principal to
// withdraw up to CumulativeAmount from the settlement vault. The vault pays
// only the delta above its stored last-paid value and enforces the deadline
// itself, so an expired unused authorization simply lapses.
type ClaimAuthorization struct {
	Project          string          `json:"project"`
	ClaimType        ClaimType       `json:"claim_type"`
	PrincipalID      string          `json:"principal_id"`
	RecipientAddress string          `json:"recipient_address"`
	CumulativeAmount decimal.Decimal `json:"cumulative_amount"`
	// Delta is informational: the amount the vault will actually transfer.
	Delta     decimal.Decimal `json:"delta"`
	Deadline  time.Time       `json:"deadline"`
	Signature string          `json:"signature"`
}

// SettlementTransaction is the settlement ledger's view of one resolved
// transaction, as reported by the external vault.
type SettlementTransaction struct {
	TxRef       string
	Project     string
	PrincipalID string
	ClaimType   ClaimType
	// Amount is the value actually transferred (the paid delta).
	Amount decimal.Decimal
}

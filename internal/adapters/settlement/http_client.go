package settlement

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/CalistoMango/TheShipyard-sub000/internal/domain"
)

// HTTPClient reads the external settlement vault over its HTTP API. The vault
// is authoritative for paid cumulatives and resolved transactions; this
// adapter never submits anything.
type HTTPClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewHTTPClient builds a vault reader. The request timeout bounds every call
// so a stalled vault degrades to ErrVerificationUnavailable instead of
// hanging request handlers.
func NewHTTPClient(baseURL, apiKey string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

type lastPaidResponse struct {
	Cumulative decimal.Decimal `json:"cumulative"`
}

type transactionResponse struct {
	TxRef       string          `json:"tx_ref"`
	Project     string          `json:"project"`
	PrincipalID string          `json:"principal_id"`
	ClaimType   string          `json:"claim_type"`
	Amount      decimal.Decimal `json:"amount"`
	Status      string          `json:"status"`
}

func (c *HTTPClient) LastPaidCumulative(ctx context.Context, project, principalID string, claimType domain.ClaimType) (decimal.Decimal, error) {
	endpoint := fmt.Sprintf("%s/v1/projects/%s/claims/%s/%s/last-paid",
		c.baseURL, url.PathEscape(project), url.PathEscape(string(claimType)), url.PathEscape(principalID))

	var out lastPaidResponse
	if err := c.getJSON(ctx, endpoint, &out); err != nil {
		if errors.Is(err, errVaultNotFound) {
			// No payment history yet for this scope.
			return decimal.Zero, nil
		}
		return decimal.Zero, err
	}
	return out.Cumulative, nil
}

func (c *HTTPClient) ResolveTransaction(ctx context.Context, txRef string) (domain.SettlementTransaction, error) {
	endpoint := fmt.Sprintf("%s/v1/transactions/%s", c.baseURL, url.PathEscape(txRef))

	var out transactionResponse
	if err := c.getJSON(ctx, endpoint, &out); err != nil {
		if errors.Is(err, errVaultNotFound) {
			return domain.SettlementTransaction{}, domain.ErrTxUnverified
		}
		return domain.SettlementTransaction{}, err
	}
	if out.Status != "confirmed" {
		return domain.SettlementTransaction{}, domain.ErrTxUnverified
	}
	return domain.SettlementTransaction{
		TxRef:       out.TxRef,
		Project:     out.Project,
		PrincipalID: out.PrincipalID,
		ClaimType:   domain.ClaimType(out.ClaimType),
		Amount:      out.Amount,
	}, nil
}

var errVaultNotFound = errors.New("vault: not found")

func (c *HTTPClient) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		// Timeouts and transport failures are availability problems, not
		// verification verdicts.
		return fmt.Errorf("%w: %v", domain.ErrVerificationUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return errVaultNotFound
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: vault returned %d", domain.ErrVerificationUnavailable, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("vault returned %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode vault response: %w", err)
	}
	return nil
}

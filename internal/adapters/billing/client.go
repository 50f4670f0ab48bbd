// Package billing exports fines as line items to the external billing ledger.
package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/SscSPs/property_fines_app/internal/core/ports/external"
	"github.com/SscSPs/property_fines_app/internal/middleware"
)

const (
	lineItemsPath = "/api/v1/bills/line-items"
	maxRetries    = 2
)

// ErrNotConfigured is returned when no ledger URL is set.
var ErrNotConfigured = errors.New("billing ledger is not configured")

// Client talks to the billing ledger over HTTP.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	backoff    time.Duration
}

// NewClient creates a ledger client. An empty baseURL yields a client that always fails with ErrNotConfigured.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
		backoff:    200 * time.Millisecond,
	}
}

var _ external.BillingLedger = (*Client)(nil)

type errorBody struct {
	Error string `json:"error"`
}

// CreateBillLineItem posts the item. The fine id is the idempotency key so a retried export
// never bills a resident twice.
func (c *Client) CreateBillLineItem(ctx context.Context, item external.BillLineItem) (*external.BillReceipt, error) {
	if c.baseURL == "" {
		return nil, ErrNotConfigured
	}
	body, err := json.Marshal(item)
	if err != nil {
		return nil, fmt.Errorf("failed to encode bill line item: %w", err)
	}

	logger := middleware.GetLoggerFromCtx(ctx)
	var receipt external.BillReceipt
	attempt := 0
	backoff := retry.WithMaxRetries(maxRetries, retry.NewExponential(c.backoff))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		err := c.post(ctx, body, item.FineID, &receipt)
		var rerr retryable
		if errors.As(err, &rerr) {
			logger.Warn("billing ledger call failed, retrying",
				slog.String("fine_id", item.FineID),
				slog.Int("attempt", attempt),
				slog.String("error", err.Error()))
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return &receipt, nil
}

// retryable marks transport failures and 5xx answers.
type retryable struct{ err error }

func (r retryable) Error() string { return r.err.Error() }
func (r retryable) Unwrap() error { return r.err }

func (c *Client) post(ctx context.Context, body []byte, fineID string, out *external.BillReceipt) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+lineItemsPath, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build billing request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", fineID)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return retryable{fmt.Errorf("billing ledger unreachable: %w", err)}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return retryable{fmt.Errorf("failed to read billing response: %w", err)}
	}

	switch {
	case resp.StatusCode >= 500:
		return retryable{fmt.Errorf("billing ledger returned %d: %s", resp.StatusCode, describe(raw))}
	case resp.StatusCode >= 300:
		return fmt.Errorf("billing ledger rejected line item (%d): %s", resp.StatusCode, describe(raw))
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode billing response: %w", err)
	}
	if out.BillID == "" {
		return errors.New("billing ledger response has no bill id")
	}
	return nil
}

func describe(raw []byte) string {
	var e errorBody
	if json.Unmarshal(raw, &e) == nil && e.Error != "" {
		return e.Error
	}
	return strings.TrimSpace(string(raw))
}

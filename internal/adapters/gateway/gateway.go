// Package gateway opens checkout orders with the online payment gateway and verifies callbacks.
package gateway

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/SscSPs/property_fines_app/internal/apperrors"
	"github.com/SscSPs/property_fines_app/internal/core/ports/external"
	"github.com/SscSPs/property_fines_app/internal/middleware"
	"github.com/SscSPs/property_fines_app/internal/utils"
)

// Config configures the gateway client.
type Config struct {
	KeyID     string
	KeySecret string
	APIURL    string // empty keeps orders local and verifies by signature only
	Timeout   time.Duration
	Precision int32 // minor units per major unit, as a power of ten
}

// Client implements external.PaymentGateway.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient creates a gateway client.
func NewClient(cfg Config) *Client {
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")
	return &Client{cfg: cfg, httpClient: &http.Client{Timeout: cfg.Timeout}}
}

var _ external.PaymentGateway = (*Client)(nil)

type orderRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

type orderResponse struct {
	ID string `json:"id"`
}

type paymentResponse struct {
	ID       string `json:"id"`
	OrderID  string `json:"order_id"`
	Status   string `json:"status"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// Sign returns the hex HMAC-SHA256 of "orderID|paymentID" under secret.
func Sign(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func (c *Client) minorUnits(amount decimal.Decimal) int64 {
	return utils.ToMinorUnits(amount, c.cfg.Precision)
}

func (c *Client) CreateOrder(ctx context.Context, amount decimal.Decimal, currencyCode, receipt string) (*external.GatewayOrder, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: order amount must be positive", apperrors.ErrValidation)
	}
	if c.cfg.APIURL == "" {
		return &external.GatewayOrder{
			OrderID: "order_" + strings.ReplaceAll(uuid.NewString(), "-", ""),
			KeyID:   c.cfg.KeyID,
		}, nil
	}

	var resp orderResponse
	err := c.do(ctx, http.MethodPost, "/orders", orderRequest{
		Amount:   c.minorUnits(amount),
		Currency: currencyCode,
		Receipt:  receipt,
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.ID == "" {
		return nil, fmt.Errorf("gateway returned an order without id")
	}
	return &external.GatewayOrder{OrderID: resp.ID, KeyID: c.cfg.KeyID}, nil
}

// VerifyPayment checks the signature and, when the API is reachable, that the payment was
// captured for the expected order, amount and currency.
func (c *Client) VerifyPayment(ctx context.Context, v external.GatewayVerification) error {
	expected := Sign(c.cfg.KeySecret, v.OrderID, v.GatewayPaymentID)
	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(v.Signature))) {
		return fmt.Errorf("%w: signature mismatch", apperrors.ErrGatewayVerificationFailed)
	}
	if c.cfg.APIURL == "" {
		return nil
	}

	var p paymentResponse
	if err := c.do(ctx, http.MethodGet, "/payments/"+v.GatewayPaymentID, nil, &p); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrGatewayVerificationFailed, err)
	}
	switch {
	case p.OrderID != v.OrderID:
		return fmt.Errorf("%w: payment belongs to order %s", apperrors.ErrGatewayVerificationFailed, p.OrderID)
	case p.Status != "captured":
		return fmt.Errorf("%w: payment status is %s", apperrors.ErrGatewayVerificationFailed, p.Status)
	case p.Amount != c.minorUnits(v.Amount):
		return fmt.Errorf("%w: captured %d, expected %d", apperrors.ErrGatewayVerificationFailed, p.Amount, c.minorUnits(v.Amount))
	case !strings.EqualFold(p.Currency, v.CurrencyCode):
		return fmt.Errorf("%w: currency %s, expected %s", apperrors.ErrGatewayVerificationFailed, p.Currency, v.CurrencyCode)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body *bytes.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode gateway request: %w", err)
		}
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.APIURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build gateway request: %w", err)
	}
	req.SetBasicAuth(c.cfg.KeyID, c.cfg.KeySecret)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		middleware.GetLoggerFromCtx(ctx).Warn("gateway unreachable", slog.String("path", path), slog.String("error", err.Error()))
		return fmt.Errorf("gateway unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("gateway %s %s returned %d", method, path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode gateway response: %w", err)
	}
	return nil
}

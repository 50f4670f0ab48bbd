package domain

import (
	"fmt"
	"time"

	"github.com/SscSPs/property_fines_app/internal/apperrors"
	"github.com/shopspring/decimal"
)

// LateFeePolicy configures late-fee accrual for a deployment.
type LateFeePolicy struct {
	Percentage    decimal.Decimal // percent of the principal charged per elapsed period; 2 means 2%
	GraceDays     int             // no late fee while now <= dueDate + GraceDays
	MaxAmount     decimal.Decimal // cap on the late fee; zero means uncapped
	AccrualPeriod time.Duration   // accrual granularity, e.g. 24h (per day) or 720h (per 30 days)
}

// FinePolicy bundles every knob the fine lifecycle depends on.
type FinePolicy struct {
	LateFee             LateFeePolicy
	CurrencyCode        string
	CurrencyPrecision   int32
	DefaultDueDays      int
	AutoIssueOnApproval bool
	SendNotifications   bool
}

// DefaultFinePolicy mirrors the configuration defaults.
func DefaultFinePolicy() FinePolicy {
	return FinePolicy{
		LateFee: LateFeePolicy{
			Percentage:    decimal.NewFromInt(2),
			GraceDays:     15,
			MaxAmount:     decimal.Zero,
			AccrualPeriod: 30 * day,
		},
		CurrencyCode:        "INR",
		CurrencyPrecision:   DefaultMoneyPrecision,
		DefaultDueDays:      30,
		AutoIssueOnApproval: true,
		SendNotifications:   true,
	}
}

// Validate checks the policy is usable.
func (p FinePolicy) Validate() error {
	if p.LateFee.Percentage.IsNegative() {
		return fmt.Errorf("%w: late fee percentage must not be negative", apperrors.ErrValidation)
	}
	if p.LateFee.GraceDays < 0 {
		return fmt.Errorf("%w: late fee grace days must not be negative", apperrors.ErrValidation)
	}
	if p.LateFee.MaxAmount.IsNegative() {
		return fmt.Errorf("%w: max late fee must not be negative", apperrors.ErrValidation)
	}
	if p.LateFee.AccrualPeriod <= 0 {
		return fmt.Errorf("%w: late fee accrual period must be positive", apperrors.ErrValidation)
	}
	if p.DefaultDueDays <= 0 {
		return fmt.Errorf("%w: default due days must be positive", apperrors.ErrValidation)
	}
	if p.CurrencyPrecision < 0 {
		return fmt.Errorf("%w: currency precision must not be negative", apperrors.ErrValidation)
	}
	return nil
}

package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ComputeLateFee is the single source of truth for late fees. Every read and write path calls it.
//
// No fee accrues while now <= dueDate + GraceDays. Past the grace window the fee is
// fineAmount * Percentage/100 * elapsedPeriods, capped at MaxAmount when set. A started period counts
// as a whole one, so the result is non-decreasing as now advances.
func ComputeLateFee(fineAmount decimal.Decimal, dueDate, now time.Time, policy LateFeePolicy, precision int32) decimal.Decimal {
	if fineAmount.Sign() <= 0 || policy.Percentage.Sign() <= 0 || policy.AccrualPeriod <= 0 {
		return decimal.Zero
	}

	graceEnd := AddDays(dueDate, policy.GraceDays)
	if !now.After(graceEnd) {
		return decimal.Zero
	}

	periods := ElapsedPeriods(now.Sub(graceEnd), policy.AccrualPeriod)
	fee := fineAmount.Mul(policy.Percentage).Div(hundred).Mul(decimal.NewFromInt(periods))
	if policy.MaxAmount.Sign() > 0 && fee.GreaterThan(policy.MaxAmount) {
		fee = policy.MaxAmount
	}
	return RoundMoney(fee, precision)
}

// ElapsedPeriods counts started periods in elapsed (ceiling division).
func ElapsedPeriods(elapsed, period time.Duration) int64 {
	if elapsed <= 0 || period <= 0 {
		return 0
	}
	n := int64(elapsed / period)
	if elapsed%period != 0 {
		n++
	}
	return n
}

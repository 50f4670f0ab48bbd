package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultMoneyPrecision is used when a policy does not specify currency precision.
const DefaultMoneyPrecision int32 = 2

const day = 24 * time.Hour

var hundred = decimal.NewFromInt(100)

// RoundMoney rounds amount to the currency precision.
// Example: 12.345 with precision 2 returns 12.35
func RoundMoney(amount decimal.Decimal, precision int32) decimal.Decimal {
	return amount.Round(precision)
}

// DaysOverdue returns the number of whole days now is past dueDate, never negative.
func DaysOverdue(dueDate, now time.Time) int {
	if !now.After(dueDate) {
		return 0
	}
	return int(now.Sub(dueDate) / day)
}

// AddDays adds n 24h days to t.
func AddDays(t time.Time, n int) time.Time {
	return t.Add(time.Duration(n) * day)
}

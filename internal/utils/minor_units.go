package utils

import (
	"github.com/shopspring/decimal"
)

// ToMinorUnits converts an amount to the integer minor units payment gateways expect.
// Example: 1020.50 with precision 2 returns 102050
func ToMinorUnits(amount decimal.Decimal, precision int32) int64 {
	return amount.Shift(precision).Round(0).IntPart()
}

package handlers

import (
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

type decimalPayload struct {
	Positive    decimal.Decimal  `binding:"decimal_gt0"`
	NonNegative *decimal.Decimal `binding:"omitempty,decimal_gte0"`
}

func TestDecimalValidators(t *testing.T) {
	RegisterValidators()
	zero := decimal.Zero
	negative := decimal.NewFromInt(-1)

	tests := []struct {
		name    string
		payload decimalPayload
		wantErr bool
	}{
		{"positive and absent", decimalPayload{Positive: decimal.NewFromInt(5)}, false},
		{"zero allowed for gte0", decimalPayload{Positive: decimal.RequireFromString("0.01"), NonNegative: &zero}, false},
		{"zero rejected for gt0", decimalPayload{Positive: decimal.Zero}, true},
		{"negative rejected for gte0", decimalPayload{Positive: decimal.NewFromInt(1), NonNegative: &negative}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := binding.Validator.ValidateStruct(tt.payload)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

package mapping

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SscSPs/property_fines_app/internal/core/domain"
	"github.com/SscSPs/property_fines_app/internal/models"
)

func TestFineMapping_SubRecords(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	reviewer := "admin-1"
	fine := domain.Fine{
		FineID:        "fine-1",
		ViolationID:   "v-1",
		FineAmount:    decimal.NewFromInt(500),
		TotalAmount:   decimal.NewFromInt(500),
		Status:        domain.FineWaived,
		AccrualPaused: 36 * time.Hour,
		Waiver: &domain.Waiver{
			Reason:       "goodwill",
			Status:       domain.RequestApproved,
			ReviewedBy:   &reviewer,
			ReviewedAt:   &now,
			WaivedAmount: decimal.NewFromInt(500),
		},
	}

	model, err := ToModelFine(fine)
	require.NoError(t, err)
	assert.Nil(t, model.Dispute, "absent sub-records map to NULL")
	assert.Nil(t, model.Bill)
	assert.EqualValues(t, 36*3600, model.AccrualPausedSeconds)

	back, err := ToDomainFine(model)
	require.NoError(t, err)
	require.NotNil(t, back.Waiver)
	assert.Equal(t, "goodwill", back.Waiver.Reason)
	assert.True(t, back.Waiver.WaivedAmount.Equal(decimal.NewFromInt(500)))
	assert.Nil(t, back.Dispute)
	assert.Equal(t, 36*time.Hour, back.AccrualPaused)
}

func TestToDomainFine_CorruptJSON(t *testing.T) {
	_, err := ToDomainFine(models.Fine{FineID: "fine-1", Bill: []byte("{not json")})
	assert.Error(t, err)
}

func TestViolationMapping_EmptyEvidence(t *testing.T) {
	model, err := ToModelViolation(domain.Violation{ViolationID: "v-1"})
	require.NoError(t, err)
	assert.JSONEq(t, "[]", string(model.Evidence))

	back, err := ToDomainViolation(model)
	require.NoError(t, err)
	assert.Empty(t, back.Evidence)
}

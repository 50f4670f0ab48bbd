package apperrors_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/SscSPs/property_fines_app/internal/apperrors"
	"github.com/stretchr/testify/assert"
)

func TestKind(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"wrapped not found", fmt.Errorf("%w: fine f1", apperrors.ErrNotFound), "not_found"},
		{"invalid transition", fmt.Errorf("%w: paid -> pending", apperrors.ErrInvalidTransition), "invalid_transition"},
		{"overpayment", apperrors.ErrOverpayment, "overpayment"},
		{"app error wrapping conflict", apperrors.NewAppError(500, "update failed", apperrors.ErrConcurrentModification), "concurrent_modification"},
		{"unknown", errors.New("boom"), "internal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, apperrors.Kind(tt.err))
		})
	}
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, apperrors.HTTPStatus(apperrors.ErrNotFound))
	assert.Equal(t, http.StatusConflict, apperrors.HTTPStatus(apperrors.ErrInvalidTransition))
	assert.Equal(t, http.StatusUnprocessableEntity, apperrors.HTTPStatus(apperrors.ErrOverpayment))
	assert.Equal(t, http.StatusRequestEntityTooLarge, apperrors.HTTPStatus(apperrors.ErrBatchTooLarge))
	assert.Equal(t, http.StatusBadGateway, apperrors.HTTPStatus(apperrors.NewAppError(http.StatusBadGateway, "ledger down", nil)))
	assert.Equal(t, http.StatusInternalServerError, apperrors.HTTPStatus(errors.New("boom")))
}

package apperrors_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/SscSPs/partner_settlement_app/internal/apperrors"
	"github.com/stretchr/testify/assert"
)

func TestValidationError_MatchesSentinel(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", apperrors.NewValidationError("reason", apperrors.CodeReasonTooShort, "too short"))

	assert.ErrorIs(t, err, apperrors.ErrValidation)
	var vErr *apperrors.ValidationError
	assert.True(t, errors.As(err, &vErr))
	assert.Equal(t, "reason", vErr.Field)
	assert.Contains(t, err.Error(), "reason: too short")
}

func TestCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "validation code wins", err: apperrors.NewValidationError("reason", apperrors.CodeReasonTooShort, "x"), want: "reason_too_short"},
		{name: "wrapped invalid state", err: fmt.Errorf("%w: cannot pay", apperrors.ErrInvalidState), want: "invalid_state"},
		{name: "insufficient balance", err: apperrors.ErrInsufficientBalance, want: "insufficient_balance"},
		{name: "unknown", err: errors.New("boom"), want: "internal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, apperrors.Code(tt.err))
		})
	}
}

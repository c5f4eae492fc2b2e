package domain

import (
	"testing"

	"github.com/medflow/stockcheck-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in    string
		want  Status
		valid bool
	}{
		{"draft", StatusDraft, true},
		{"  Processing ", StatusProcessing, true},
		{"COMPLETED", StatusCompleted, true},
		{"cancelled", StatusCancelled, true},
		{"canceled", Status("canceled"), false},
		{"", Status(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseStatus(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.valid, ok)
		})
	}
}

func TestValidateTransition(t *testing.T) {
	all := []Status{StatusDraft, StatusProcessing, StatusCompleted, StatusCancelled}

	allowed := map[[2]Status]bool{
		{StatusDraft, StatusProcessing}:     true,
		{StatusDraft, StatusCancelled}:      true,
		{StatusProcessing, StatusCompleted}: true,
		{StatusProcessing, StatusCancelled}: true,
	}

	for _, from := range all {
		for _, to := range all {
			err := ValidateTransition("order-1", from, to)

			switch {
			case from == StatusCancelled:
				assert.True(t, errors.Is(err, errors.ErrOrderCancelled), "%s -> %s", from, to)
			case from == StatusCompleted && to == StatusCompleted:
				assert.True(t, errors.Is(err, errors.ErrAlreadyReconciled), "%s -> %s", from, to)
			case allowed[[2]Status{from, to}]:
				assert.NoError(t, err, "%s -> %s", from, to)
			default:
				assert.True(t, errors.Is(err, errors.ErrInvalidTransition), "%s -> %s: %v", from, to, err)
			}
		}
	}
}

func TestValidateTransition_DraftCannotSkipToCompleted(t *testing.T) {
	err := ValidateTransition("order-1", StatusDraft, StatusCompleted)

	var appErr *errors.AppError
	assert.True(t, errors.As(err, &appErr))
	assert.Equal(t, errors.CodeInvalidTransition, appErr.Code)
}

func TestEnsureMutable(t *testing.T) {
	assert.NoError(t, EnsureMutable("o", StatusDraft))
	assert.NoError(t, EnsureMutable("o", StatusProcessing))
	assert.True(t, errors.Is(EnsureMutable("o", StatusCancelled), errors.ErrOrderCancelled))
	assert.True(t, errors.Is(EnsureMutable("o", StatusCompleted), errors.ErrAlreadyReconciled))
}

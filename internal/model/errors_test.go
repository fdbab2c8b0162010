package model_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reyhansunduk/efatura-mcp-server/internal/model"
)

func TestValidationError(t *testing.T) {
	err := model.NewValidationError("supplier_vkn", "12345", "tax_id", "malformed")

	require.Contains(t, err.Error(), "supplier_vkn")
	require.Contains(t, err.Error(), "12345")
	require.Contains(t, err.Error(), "malformed")
}

func TestNetworkError_WithCause(t *testing.T) {
	cause := assert.AnError
	err := model.NewNetworkError("GetInvoiceList", "request failed", cause)

	require.Contains(t, err.Error(), "GetInvoiceList")
	require.ErrorIs(t, err, cause)
}

func TestCredentialError_NoValues(t *testing.T) {
	err := model.NewCredentialError("username is a placeholder", true)
	assert.Equal(t, "credentials rejected: username is a placeholder", err.Error())
	assert.True(t, err.Placeholder)
}

func TestUnsignedDraftError(t *testing.T) {
	cause := model.NewNetworkError("SignDraft", "request failed", nil)
	err := fmt.Errorf("create: %w", model.NewUnsignedDraftError("e-9", cause))

	var ud *model.UnsignedDraftError
	require.ErrorAs(t, err, &ud)
	assert.Equal(t, "e-9", ud.InvoiceID)
	assert.Contains(t, err.Error(), "e-9")
	require.ErrorIs(t, err, cause)
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want model.ErrorKind
	}{
		{"nil", nil, ""},
		{"validation", model.NewValidationError("limit", -1, "min", "must be >= 0"), model.KindValidation},
		{"not found", model.NewNotFoundError("x"), model.KindNotFound},
		{"state", model.NewStateError("x", model.StatusCancelled, model.StatusCancelled), model.KindState},
		{"credential", model.NewCredentialError("empty", false), model.KindCredential},
		{"network", model.NewNetworkError("Login", "timeout", nil), model.KindNetwork},
		{"wrapped", fmt.Errorf("cancel: %w", model.NewNotFoundError("x")), model.KindNotFound},
		{"unsigned draft", model.NewUnsignedDraftError("e-9", model.NewNetworkError("SignDraft", "timeout", nil)), model.KindNetwork},
		{"plain", assert.AnError, model.KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, model.KindOf(tt.err))
		})
	}
}

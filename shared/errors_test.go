package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServiceErrorMessage(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")

	assert.Equal(t, "plain", NewServiceError(ErrorCategoryProcessing, "X", "plain", "svc", "op", nil).Error())
	assert.Equal(t, "dial tcp: connection refused", NewServiceError(ErrorCategoryNetwork, "X", "", "svc", "op", cause).Error())
	assert.Equal(t, "fetch failed: dial tcp: connection refused", NewServiceError(ErrorCategoryNetwork, "X", "fetch failed", "svc", "op", cause).Error())
}

func TestWrapErrorKeepsExistingServiceError(t *testing.T) {
	original := NewServiceError(ErrorCategoryValidation, "BAD_INPUT", "bad input", "svc", "op", nil)
	wrapped := fmt.Errorf("context: %w", original)

	result := WrapError(wrapped, ErrorCategoryNetwork, "OTHER", "svc2", "op2")

	assert.Same(t, original, result)
	assert.Equal(t, ErrorCategoryValidation, CategoryOf(wrapped))
}

func TestWrapErrorPlainError(t *testing.T) {
	cause := errors.New("boom")

	result := WrapError(cause, ErrorCategoryProvider, "PROVIDER_FAILED", "svc", "op")

	require.NotNil(t, result)
	assert.Equal(t, "boom", result.Error())
	assert.Equal(t, ErrorCategoryProvider, result.Category)
	assert.ErrorIs(t, result, cause)
	assert.Nil(t, WrapError(nil, ErrorCategoryProvider, "X", "svc", "op"))
}

func TestCategoryOfDefaultsToProcessing(t *testing.T) {
	assert.Equal(t, ErrorCategoryProcessing, CategoryOf(errors.New("anything")))
}

func TestWithDetails(t *testing.T) {
	err := NewServiceError(ErrorCategoryParsing, "X", "m", "svc", "op", nil).WithDetails(map[string]int{"row": 3})

	assert.Equal(t, map[string]int{"row": 3}, err.Details)
	assert.NotPanics(t, err.LogError)
}

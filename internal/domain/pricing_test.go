package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateTickSize(t *testing.T) {
	assert.True(t, ValidateTickSize(0.55, 0.01))
	assert.False(t, ValidateTickSize(0.555, 0.01))
	assert.True(t, ValidateTickSize(0.555, 0.001))
	assert.True(t, ValidateTickSize(0.1, 0.1))
	assert.False(t, ValidateTickSize(0.55, 0))
}

func TestRoundToTickSize(t *testing.T) {
	assert.InDelta(t, 0.56, RoundToTickSize(0.555, 0.01), 1e-12)
	assert.InDelta(t, 0.55, RoundToTickSize(0.554, 0.01), 1e-12)
	assert.InDelta(t, 0.5, RoundToTickSize(0.52, 0.1), 1e-12)
	assert.InDelta(t, 0.123, RoundToTickSize(0.1234, 0.001), 1e-12)
}

func TestRoundToTickSize_ResultIsOnGrid(t *testing.T) {
	for _, p := range []float64{0.011, 0.333, 0.505, 0.999} {
		assert.True(t, ValidateTickSize(RoundToTickSize(p, 0.01), 0.01), "price %v", p)
	}
}

func TestErrors_UnwrapToSentinels(t *testing.T) {
	cause := errors.New("boom")

	assert.ErrorIs(t, &ValidationError{Field: "price"}, ErrValidation)
	assert.ErrorIs(t, &RiskRejectedError{Field: "maxNotional"}, ErrRiskRejected)
	assert.ErrorIs(t, &SigningError{Err: cause}, ErrSigning)
	assert.ErrorIs(t, &SigningError{Err: cause}, cause)
	assert.ErrorIs(t, &OrderSubmissionError{StatusCode: 400}, ErrOrderSubmission)
	assert.ErrorIs(t, &TransportError{Op: "send"}, ErrTransport)
	assert.ErrorIs(t, &ParseError{Err: cause}, ErrParse)
}

func TestValidationError_MessageIncludesSuggestion(t *testing.T) {
	err := &ValidationError{Field: "price", Message: "not a multiple of tick size 0.01", SuggestedPrice: 0.56}
	assert.Contains(t, err.Error(), "0.56")
}

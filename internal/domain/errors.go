package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors. Every typed error below unwraps to one of these.
var (
	ErrValidation          = errors.New("validation failed")
	ErrRiskRejected        = errors.New("risk rejected")
	ErrSigning             = errors.New("signing failed")
	ErrOrderSubmission     = errors.New("order submission failed")
	ErrTransport           = errors.New("transport error")
	ErrParse               = errors.New("parse error")
	ErrConnectionExhausted = errors.New("reconnect attempts exhausted")
)

// ValidationError reports a malformed order. SuggestedPrice is set when the
// price is off the tick grid.
type ValidationError struct {
	Field          string
	Message        string
	SuggestedPrice float64
}

func (e *ValidationError) Error() string {
	if e.SuggestedPrice > 0 {
		return fmt.Sprintf("%s: %s (suggested price %g)", e.Field, e.Message, e.SuggestedPrice)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// RiskRejectedError names the risk limit an order broke.
type RiskRejectedError struct {
	Field   string
	Message string
}

func (e *RiskRejectedError) Error() string {
	return fmt.Sprintf("risk %s: %s", e.Field, e.Message)
}

func (e *RiskRejectedError) Unwrap() error { return ErrRiskRejected }

// SigningError wraps a failure from the injected signer.
type SigningError struct {
	Err error
}

func (e *SigningError) Error() string {
	return fmt.Sprintf("%v: %v", ErrSigning, e.Err)
}

func (e *SigningError) Unwrap() []error { return []error{ErrSigning, e.Err} }

// OrderSubmissionError is a non-success answer (or no answer) from the exchange.
type OrderSubmissionError struct {
	StatusCode int // 0 when the request never got a response
	Message    string
}

func (e *OrderSubmissionError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%v: status %d: %s", ErrOrderSubmission, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%v: %s", ErrOrderSubmission, e.Message)
}

func (e *OrderSubmissionError) Unwrap() error { return ErrOrderSubmission }

// TransportError is a stream send or socket failure.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%v: %s", ErrTransport, e.Op)
	}
	return fmt.Sprintf("%v: %s: %v", ErrTransport, e.Op, e.Err)
}

func (e *TransportError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrTransport}
	}
	return []error{ErrTransport, e.Err}
}

// ParseError is an inbound frame that could not be decoded.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%v: %v", ErrParse, e.Err)
}

func (e *ParseError) Unwrap() []error { return []error{ErrParse, e.Err} }

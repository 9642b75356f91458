package fundamental

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidAssumption is returned when model parameters violate a
	// model precondition, e.g. a discount rate at or below terminal growth.
	ErrInvalidAssumption = errors.New("fundamental: invalid assumption")

	// ErrNoDividendData means the ticker has no dividend history. For a
	// non-payer this is the expected outcome of a DDM request.
	ErrNoDividendData = errors.New("fundamental: no dividend data")

	// ErrMissingFinancialData is returned when a statement lacks the line
	// items a model needs.
	ErrMissingFinancialData = errors.New("fundamental: missing financial data")

	// ErrMissingShareCount is a ErrMissingFinancialData for an unknown or zero
	// share count.
	ErrMissingShareCount = fmt.Errorf("%w: shares outstanding", ErrMissingFinancialData)
)

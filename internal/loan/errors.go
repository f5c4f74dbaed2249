package loan

import (
	"errors"
	"fmt"

	"finplan/internal/core"
)

var (
	ErrInvalidTerms        = errors.New("invalid loan terms")
	ErrPaymentInsufficient = errors.New("payment does not cover interest")
	ErrPaymentOutOfOrder   = errors.New("payment month not after last payment")
	ErrIterationLimit      = errors.New("amortization did not converge")
)

// PaymentError describes a rejected payment.
type PaymentError struct {
	Month    core.Month
	Amount   float64
	Interest float64
	Err      error
}

func (e *PaymentError) Error() string {
	return fmt.Sprintf("payment %.2f in %s: %v (interest due %.2f)", e.Amount, e.Month, e.Err, e.Interest)
}

func (e *PaymentError) Unwrap() error {
	return e.Err
}

package payment

import "errors"

var (
	ErrNotFound      = errors.New("booking not found")
	ErrInvalidAmount = errors.New("payment amount must be positive")
	ErrOverpayment   = errors.New("payment exceeds outstanding balance")
)

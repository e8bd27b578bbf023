package booking

import "errors"

var (
	ErrValidation      = errors.New("validation error")
	ErrNotFound        = errors.New("booking not found")
	ErrDuplicateNumber = errors.New("booking number already taken")
)

package settings

import "errors"

var ErrInvalidPolicy = errors.New("invalid cancellation policy")

package kafka

import (
	"errors"
	"fmt"
)

// ErrPermanent tags handler errors that redelivery cannot fix. The offset is committed anyway.
var ErrPermanent = errors.New("permanent")

// Permanent wraps err with ErrPermanent, keeping err in the chain.
func Permanent(err error) error {
	if err == nil {
		return ErrPermanent
	}
	return fmt.Errorf("%w: %w", ErrPermanent, err)
}

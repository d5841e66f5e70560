package apperr

import (
	"errors"
	"fmt"
)

// ErrInvalid is returned when the input fails domain validation.
var ErrInvalid = errors.New("invalid input")

// ErrConflict indicates a uniqueness or state conflict (HTTP 409).
var ErrConflict = errors.New("conflict")

// ErrNotFound indicates that the requested resource does not exist.
var ErrNotFound = errors.New("not found")

// ErrUnauthorized is returned when a request carries no valid identity.
var ErrUnauthorized = errors.New("unauthorized")

// ErrForbidden is returned when the actor may not perform the operation on the resource.
var ErrForbidden = errors.New("forbidden")

// ErrInvalidTransition means the requested status change is not in the transition table
// for the order's current status.
var ErrInvalidTransition = errors.New("invalid transition")

// ErrNoCourierAvailable means dispatch found no eligible courier. The order stays ready_for_pickup.
var ErrNoCourierAvailable = errors.New("no courier available")

// ErrAlreadyAssigned means a concurrent dispatch or transition committed first. Retryable.
var ErrAlreadyAssigned = errors.New("already assigned")

// ErrStaleLocation marks a candidate excluded because its last location report is too old.
var ErrStaleLocation = errors.New("stale location")

// ErrNotificationDeliveryFailed wraps sink failures. Never rolls back a transition.
var ErrNotificationDeliveryFailed = errors.New("notification delivery failed")

// TransitionError describes a rejected status change.
type TransitionError struct {
	From string
	To   string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid transition %s -> %s", e.From, e.To)
}

// Is makes TransitionError match ErrInvalidTransition.
func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

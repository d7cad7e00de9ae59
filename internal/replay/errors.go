package replay

import (
	"errors"
	"fmt"
)

// ErrJobInFlight is returned when a requester already has a paste running.
var ErrJobInFlight = errors.New("paste already in progress")

// InFlightError identifies the job that blocked a new paste.
type InFlightError struct {
	Requester string
	JobID     string
}

// Error implements the error interface.
func (e *InFlightError) Error() string {
	return fmt.Sprintf("%s (requester=%s, job=%s)", ErrJobInFlight, e.Requester, e.JobID)
}

// Is matches ErrJobInFlight.
func (e *InFlightError) Is(target error) bool {
	return target == ErrJobInFlight
}

// IsInFlight returns true if err reports a paste already in progress.
// Uses errors.Is to handle wrapped errors.
func IsInFlight(err error) bool {
	return errors.Is(err, ErrJobInFlight)
}

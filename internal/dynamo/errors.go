package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for solver operations.
var (
	// ErrInvalidArgument indicates a malformed request rejected before integration.
	ErrInvalidArgument = errors.New("dynamo: invalid argument")

	// ErrNotReady indicates results were requested before any successful solve.
	ErrNotReady = errors.New("dynamo: no trajectory computed yet")

	// ErrIOFailure indicates the trajectory could not be persisted.
	ErrIOFailure = errors.New("dynamo: trajectory write failed")

	// ErrIntegrationFailure indicates well-formed inputs whose integration did not converge.
	ErrIntegrationFailure = errors.New("dynamo: integration failed")

	// ErrInvalidState indicates a state vector with NaN or Inf components.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrStepTooSmall indicates adaptive timestep became too small.
	ErrStepTooSmall = errors.New("dynamo: adaptive timestep below minimum")

	// ErrStepBudget indicates too many internal steps between two grid points.
	ErrStepBudget = errors.New("dynamo: step budget exhausted before reaching grid point")
)

// IntegrationError wraps the cause of a failed integration with the position
// where it happened. It matches ErrIntegrationFailure under errors.Is.
type IntegrationError struct {
	Step    int
	Time    float64
	State   State
	Wrapped error
}

func (e *IntegrationError) Error() string {
	return fmt.Sprintf("%v at sample %d (t=%.6f): %v", ErrIntegrationFailure, e.Step, e.Time, e.Wrapped)
}

func (e *IntegrationError) Unwrap() error {
	return e.Wrapped
}

func (e *IntegrationError) Is(target error) bool {
	return target == ErrIntegrationFailure
}

// InvalidArgument builds an error matching ErrInvalidArgument.
func InvalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

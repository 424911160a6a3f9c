package rtdef

import (
	"fmt"

	"github.com/mcroute/mcroute/mesh"
)

// AllocationError indicates no key space or mask satisfies a partition.
type AllocationError struct {
	Partition string
	Err       error
}

func (e *AllocationError) Error() string {
	return fmt.Sprintf("cannot allocate keys for partition %s: %v", e.Partition, e.Err)
}

// Unwrap returns the underlying error.
func (e *AllocationError) Unwrap() error {
	return e.Err
}

// InvalidConstraintError indicates constraints on a partition are malformed or mutually unsatisfiable.
// Partition is empty when the error is raised outside of partition context.
type InvalidConstraintError struct {
	Partition string
	Reason    string
}

func (e *InvalidConstraintError) Error() string {
	if e.Partition == "" {
		return "invalid constraint: " + e.Reason
	}
	return fmt.Sprintf("invalid constraint on partition %s: %s", e.Partition, e.Reason)
}

// MinimisationFailedError indicates a router table cannot be compressed to the target length.
type MinimisationFailedError struct {
	TargetLength int
	FinalLength  int
	Router       mesh.Coords

	// Err is the reason for stopping early, such as ErrBudgetExceeded; nil if every option was exhausted.
	Err error
}

func (e *MinimisationFailedError) Error() string {
	s := fmt.Sprintf("router %s table has %d entries, exceeding target %d", e.Router, e.FinalLength, e.TargetLength)
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

// Unwrap returns the underlying error.
func (e *MinimisationFailedError) Unwrap() error {
	return e.Err
}

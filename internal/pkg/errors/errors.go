package errors

import "errors"

var (
	// ErrNotFound is a generic sentinel for missing resources.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized is a generic sentinel for auth failures.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidArgument is a generic sentinel for invalid input.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrLockUnavailable signals a distributed lock could not be acquired
	// within its wait budget.
	ErrLockUnavailable = errors.New("lock unavailable")
	// ErrCircuitOpen signals a call was rejected because its circuit breaker
	// is open.
	ErrCircuitOpen = errors.New("circuit open")
	// ErrInvariantBreach signals a caller attempted a state transition that
	// would violate an invariant the store is responsible for upholding.
	ErrInvariantBreach = errors.New("invariant breach")
)

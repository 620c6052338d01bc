package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors matched with errors.Is.
var (
	// ErrNotFound is returned when a referenced id is absent.
	ErrNotFound = errors.New("not found")
	// ErrRemote is returned when a persistence adapter call fails.
	ErrRemote = errors.New("remote call failed")
	// ErrInFlight is returned when an identical operation is already running.
	ErrInFlight = errors.New("operation already in flight")
	// ErrValidation is returned by caller-side guards before an operation is dispatched.
	ErrValidation = errors.New("validation rejected")
)

// NotFoundError reports a missing entity of the given kind.
type NotFoundError struct {
	Entity EntityType
	ID     string
}

func (e NotFoundError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s not found", e.Entity)
	}
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// Is matches ErrNotFound.
func (e NotFoundError) Is(target error) bool { return target == ErrNotFound }

// RemoteError wraps a failed persistence adapter call.
type RemoteError struct {
	Op  string
	Err error
}

func (e RemoteError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Is matches ErrRemote.
func (e RemoteError) Is(target error) bool { return target == ErrRemote }

func (e RemoteError) Unwrap() error { return e.Err }

// ValidationError describes a rejected caller input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// Is matches ErrValidation.
func (e ValidationError) Is(target error) bool { return target == ErrValidation }

// RuleViolationError is returned when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	for _, v := range e.Result.Violations {
		if v.Severity == SeverityBlock {
			return fmt.Sprintf("transaction blocked by rule %s: %s", v.Rule, v.Message)
		}
	}
	return "transaction blocked by rules"
}

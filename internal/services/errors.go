package services

import (
	"errors"
	"fmt"
)

// Sentinel errors of the engine. Eligibility and limit denials carry a
// human-readable reason for the caller to surface; lifecycle violations
// indicate a programming or data-integrity fault.
var (
	ErrNotFound                = errors.New("not found")
	ErrValidation              = errors.New("validation failed")
	ErrIneligible              = errors.New("ineligible")
	ErrLimitExceeded           = errors.New("limit exceeded")
	ErrStateConflict           = errors.New("state conflict")
	ErrExpired                 = errors.New("expired")
	ErrCodeGenerationExhausted = errors.New("redemption code generation exhausted")
)

// IneligibleError reports a failed business rule. It is normal flow, not
// an exceptional fault.
type IneligibleError struct {
	Reason string
}

func (e *IneligibleError) Error() string {
	return fmt.Sprintf("ineligible: %s", e.Reason)
}

func (e *IneligibleError) Unwrap() error { return ErrIneligible }

// LimitExceededError reports a reached usage cap or active cooldown.
type LimitExceededError struct {
	Reason string
}

func (e *LimitExceededError) Error() string {
	return fmt.Sprintf("limit exceeded: %s", e.Reason)
}

func (e *LimitExceededError) Unwrap() error { return ErrLimitExceeded }

// StateConflictError reports an illegal lifecycle transition attempt.
type StateConflictError struct {
	Reason string
}

func (e *StateConflictError) Error() string {
	return fmt.Sprintf("state conflict: %s", e.Reason)
}

func (e *StateConflictError) Unwrap() error { return ErrStateConflict }

// CheckResult is the structured outcome of an eligibility, availability
// or limit check. Rule failures are data, not errors.
type CheckResult struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// Allow returns a passing CheckResult.
func Allow() CheckResult {
	return CheckResult{Allowed: true}
}

// Deny returns a failing CheckResult with the given reason.
func Deny(reason string) CheckResult {
	return CheckResult{Allowed: false, Reason: reason}
}

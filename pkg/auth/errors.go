package auth

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidCredentials is returned when the login is unknown or the
	// password is wrong
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrAccountDisabled is returned when the account exists but is
	// deactivated
	ErrAccountDisabled = errors.New("account disabled")

	// ErrPasswordMismatch is returned when a new password and its
	// confirmation differ
	ErrPasswordMismatch = errors.New("passwords do not match")
)

// Failure reasons recorded in the audit log
const (
	reasonUserNotFound    = "User not found"
	reasonWrongPassword   = "Wrong password"
	reasonAccountLocked   = "Account locked"
	reasonAccountDisabled = "Account disabled"
)

// AccountLockedError reports an attempt against a currently locked
// account
type AccountLockedError struct {
	Remaining time.Duration
}

func (e *AccountLockedError) Error() string {
	return fmt.Sprintf("account locked for another %s", e.Remaining.Round(time.Second))
}

// CredentialsError reports a rejected login/password pair along with the
// lockout bookkeeping that resulted from it. It matches
// ErrInvalidCredentials in errors.Is checks.
type CredentialsError struct {
	// Reason is the audited failure reason
	Reason string
	// AttemptsRemaining is how many failures are left before the account
	// locks
	AttemptsRemaining int
	// Locked reports whether this failure locked the account
	Locked bool
	// LockDuration is the account lock time, meaningful when Locked
	LockDuration time.Duration
}

func (e *CredentialsError) Error() string { return "invalid credentials" }

func (e *CredentialsError) Is(target error) bool { return target == ErrInvalidCredentials }

// PolicyError reports a password rejected by the strength policy
type PolicyError struct {
	Message string
}

func (e *PolicyError) Error() string { return "password rejected by policy: " + e.Message }

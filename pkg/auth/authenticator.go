// Package auth orchestrates the login protocol: address and account
// lockout checks, account status, password verification and session
// creation. All authentication failures are recovered locally by
// re-prompting; the only terminal error is a failed credential read.
package auth

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/nvoronin/seccalc/pkg/audit"
	"github.com/nvoronin/seccalc/pkg/lockout"
	"github.com/nvoronin/seccalc/pkg/policy"
	"github.com/nvoronin/seccalc/pkg/users"
)

// Config holds authentication parameters. Zero values take the reference
// defaults.
type Config struct {
	// AccountMaxAttempts failures lock an account for AccountLockTime
	AccountMaxAttempts int
	AccountLockTime    time.Duration

	// AddressMaxAttempts failures lock a source address for
	// AddressLockTime
	AddressMaxAttempts int
	AddressLockTime    time.Duration

	// PollInterval is how often the blocking address-lock wait rechecks
	PollInterval time.Duration

	// SourceAddress is the logical client address used when no
	// ResolveAddress is supplied
	SourceAddress string

	// ResolveAddress supplies the source address for each session.
	// Network resolution is out of scope; the reference resolver returns
	// a fixed loopback value.
	ResolveAddress func() string

	// Output receives user-facing messages. Defaults to stdout.
	Output io.Writer

	// Clock is the time source. Defaults to time.Now.
	Clock func() time.Time

	// Sleep suspends the address-lock wait loop. Defaults to time.Sleep.
	Sleep func(time.Duration)
}

const (
	defaultAccountMaxAttempts = 3
	defaultAccountLockTime    = 30 * time.Second
	defaultAddressMaxAttempts = 10
	defaultAddressLockTime    = 60 * time.Second
	defaultPollInterval       = 10 * time.Second
	defaultSourceAddress      = "127.0.0.1"
)

// Authenticator runs the login protocol against a user store and a pair
// of lockout trackers
type Authenticator struct {
	config    Config
	store     *users.Store
	policy    *policy.Policy
	audit     *audit.Logger
	creds     CredentialReader
	accounts  *lockout.Tracker
	addresses *lockout.Tracker
	out       io.Writer
	clock     func() time.Time
	sleep     func(time.Duration)
}

// New creates an Authenticator. The store and credential reader are
// required; a nil policy or audit logger falls back to the default
// policy and a discarding logger.
func New(config *Config, store *users.Store, pol *policy.Policy, auditLog *audit.Logger, creds CredentialReader) (*Authenticator, error) {
	if store == nil {
		return nil, fmt.Errorf("user store is required")
	}
	if creds == nil {
		return nil, fmt.Errorf("credential reader is required")
	}

	cfg := Config{}
	if config != nil {
		cfg = *config
	}
	if cfg.AccountMaxAttempts == 0 {
		cfg.AccountMaxAttempts = defaultAccountMaxAttempts
	}
	if cfg.AccountLockTime == 0 {
		cfg.AccountLockTime = defaultAccountLockTime
	}
	if cfg.AddressMaxAttempts == 0 {
		cfg.AddressMaxAttempts = defaultAddressMaxAttempts
	}
	if cfg.AddressLockTime == 0 {
		cfg.AddressLockTime = defaultAddressLockTime
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.SourceAddress == "" {
		cfg.SourceAddress = defaultSourceAddress
	}
	if cfg.ResolveAddress == nil {
		addr := cfg.SourceAddress
		cfg.ResolveAddress = func() string { return addr }
	}
	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Sleep == nil {
		cfg.Sleep = time.Sleep
	}
	if pol == nil {
		pol = policy.New(policy.DefaultConfig())
	}
	if auditLog == nil {
		auditLog = audit.Discard()
	}

	return &Authenticator{
		config:    cfg,
		store:     store,
		policy:    pol,
		audit:     auditLog,
		creds:     creds,
		accounts:  lockout.NewTrackerWithClock(cfg.AccountMaxAttempts, cfg.AccountLockTime, cfg.Clock),
		addresses: lockout.NewTrackerWithClock(cfg.AddressMaxAttempts, cfg.AddressLockTime, cfg.Clock),
		out:       cfg.Output,
		clock:     cfg.Clock,
		sleep:     cfg.Sleep,
	}, nil
}

// Authenticate runs login attempts until one succeeds and returns the
// session. Failed attempts re-prompt; the only error return is a failed
// credential read (for example, closed input).
func (a *Authenticator) Authenticate() (*Session, error) {
	addr := a.config.ResolveAddress()
	a.printBanner(addr)

	for {
		a.waitAddressUnlocked(addr)

		session, err := a.attempt(addr)
		if err == nil {
			return session, nil
		}

		var lockErr *AccountLockedError
		var credErr *CredentialsError
		switch {
		case errors.As(err, &lockErr):
			fmt.Fprintf(a.out, "Account locked. Try again in %d seconds.\n", seconds(lockErr.Remaining))
		case errors.Is(err, ErrAccountDisabled):
			fmt.Fprintln(a.out, "Account is disabled. Contact your administrator.")
		case errors.As(err, &credErr):
			if credErr.Locked {
				fmt.Fprintln(a.out, "\nToo many failed attempts for this account!")
				fmt.Fprintf(a.out, "Account locked for %d seconds.\n", seconds(credErr.LockDuration))
			} else {
				fmt.Fprintf(a.out, "Invalid credentials. Attempts remaining for this account: %d\n", credErr.AttemptsRemaining)
			}
		default:
			// Credential input failed; there is nothing to re-prompt
			return nil, err
		}
		a.showAddressStats(addr)
	}
}

// attempt runs a single pass of the login protocol
func (a *Authenticator) attempt(addr string) (*Session, error) {
	login, err := a.creds.ReadLogin()
	if err != nil {
		return nil, fmt.Errorf("reading login: %w", err)
	}

	if locked, remaining := a.accounts.IsLocked(login); locked {
		a.audit.LoginFailure(login, addr, reasonAccountLocked)
		a.recordAddressFailure(addr)
		return nil, &AccountLockedError{Remaining: remaining}
	}

	account, exists := a.store.Get(login)
	if exists && !account.Active {
		a.audit.LoginFailure(login, addr, reasonAccountDisabled)
		a.recordAddressFailure(addr)
		return nil, ErrAccountDisabled
	}

	password, err := a.creds.ReadPassword("Password: ")
	if err != nil {
		return nil, fmt.Errorf("reading password: %w", err)
	}

	if exists && a.store.VerifyPassword(login, password) {
		fmt.Fprintf(a.out, "\nAccess granted! Welcome, %s!\n", login)
		fmt.Fprintf(a.out, "Your role: %s\n", account.Role)
		a.audit.LoginSuccess(login, addr)
		a.accounts.Reset(login)
		// One account's success wipes the lockout history for the whole
		// address, even if other accounts contributed failures
		a.addresses.Clear(addr)
		return &Session{
			ID:            uuid.New(),
			Username:      login,
			Role:          account.Role,
			SourceAddress: addr,
			CreatedAt:     a.clock(),
		}, nil
	}

	reason := reasonWrongPassword
	if !exists {
		reason = reasonUserNotFound
	}
	lockedNow := a.accounts.RecordFailure(login)
	a.recordAddressFailure(addr)
	a.audit.LoginFailure(login, addr, reason)
	if lockedNow {
		a.audit.SecurityEvent("Account locked", fmt.Sprintf("user=%s ip=%s", login, addr))
	}

	return nil, &CredentialsError{
		Reason:            reason,
		AttemptsRemaining: a.accounts.MaxFailures() - a.accounts.Failures(login),
		Locked:            lockedNow,
		LockDuration:      a.accounts.LockDuration(),
	}
}

// ChangePassword replaces the password for the session's account after
// verifying the current one and validating the new one against the
// strength policy
func (a *Authenticator) ChangePassword(session *Session, current, newPassword, confirm string) error {
	if !a.store.VerifyPassword(session.Username, current) {
		a.audit.PasswordChange(session.Username, false)
		return ErrInvalidCredentials
	}

	if result := a.policy.Validate(newPassword); !result.Valid {
		a.audit.PasswordChange(session.Username, false)
		return &PolicyError{Message: result.Message}
	}

	if newPassword != confirm {
		a.audit.PasswordChange(session.Username, false)
		return ErrPasswordMismatch
	}

	if err := a.store.SetPassword(session.Username, newPassword); err != nil {
		a.audit.PasswordChange(session.Username, false)
		return fmt.Errorf("storing new password: %w", err)
	}

	a.audit.PasswordChange(session.Username, true)
	return nil
}

// AddressStatus reports lockout statistics for an address
func (a *Authenticator) AddressStatus(addr string) (failures int, locked bool, remaining time.Duration) {
	locked, remaining = a.addresses.IsLocked(addr)
	return a.addresses.Failures(addr), locked, remaining
}

// Policy returns the password policy in effect
func (a *Authenticator) Policy() *policy.Policy { return a.policy }

// recordAddressFailure registers one address failure and audits the
// lock transition when it happens
func (a *Authenticator) recordAddressFailure(addr string) {
	if a.addresses.RecordFailure(addr) {
		a.audit.SecurityEvent("Address locked", "ip="+addr)
	}
}

// waitAddressUnlocked blocks while the address is locked, rechecking on
// a coarse interval until the lock lazily clears. The wait cannot be
// cancelled; only the unlock deadline ends it.
func (a *Authenticator) waitAddressUnlocked(addr string) {
	if locked, _ := a.addresses.IsLocked(addr); !locked {
		return
	}

	a.showAddressStats(addr)
	a.audit.SecurityEvent("Address blocked", "ip="+addr)

	for {
		locked, remaining := a.addresses.IsLocked(addr)
		if !locked {
			break
		}
		fmt.Fprintf(a.out, "Waiting for unlock... %d seconds\n", seconds(remaining))
		a.sleep(a.config.PollInterval)
	}

	fmt.Fprintln(a.out, "Address unlocked. Continuing...")
	a.audit.SecurityEvent("Address unblocked", "ip="+addr)
}

func (a *Authenticator) printBanner(addr string) {
	fmt.Fprintln(a.out, "=== AUTHENTICATION ===")
	fmt.Fprintf(a.out, "Maximum attempts per account: %d\n", a.accounts.MaxFailures())
	fmt.Fprintf(a.out, "Account lock time: %d seconds\n", seconds(a.accounts.LockDuration()))
	fmt.Fprintf(a.out, "Maximum attempts per address: %d\n", a.addresses.MaxFailures())
	fmt.Fprintf(a.out, "Address lock time: %d seconds\n", seconds(a.addresses.LockDuration()))
	fmt.Fprintf(a.out, "Your address: %s\n", addr)
}

func (a *Authenticator) showAddressStats(addr string) {
	failures, locked, remaining := a.AddressStatus(addr)

	if locked {
		fmt.Fprintln(a.out, "\nWARNING: your address is blocked after too many failed login attempts!")
		fmt.Fprintf(a.out, "Unlocks in: %d seconds\n", seconds(remaining))
		fmt.Fprintf(a.out, "Total attempts: %d\n", failures)
		return
	}
	if failures > 0 {
		fmt.Fprintln(a.out, "\nSecurity statistics:")
		fmt.Fprintf(a.out, "Failed attempts from your address: %d/%d\n", failures, a.addresses.MaxFailures())
		fmt.Fprintf(a.out, "After %d failed attempts the address is locked for %d seconds\n",
			a.addresses.MaxFailures(), seconds(a.addresses.LockDuration()))
	}
}

func seconds(d time.Duration) int {
	return int(d.Round(time.Second) / time.Second)
}

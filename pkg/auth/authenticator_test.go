package auth

import (
	"bytes"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvoronin/seccalc/pkg/audit"
	"github.com/nvoronin/seccalc/pkg/hashing"
	"github.com/nvoronin/seccalc/pkg/users"
)

// scriptedReader feeds a fixed sequence of inputs; logins and passwords
// are consumed from the same stream in prompt order
type scriptedReader struct {
	inputs []string
}

func (r *scriptedReader) next() (string, error) {
	if len(r.inputs) == 0 {
		return "", io.EOF
	}
	value := r.inputs[0]
	r.inputs = r.inputs[1:]
	return value, nil
}

func (r *scriptedReader) ReadLogin() (string, error)          { return r.next() }
func (r *scriptedReader) ReadPassword(string) (string, error) { return r.next() }

type fakeClock struct {
	current time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{current: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time          { return c.current }
func (c *fakeClock) Advance(d time.Duration) { c.current = c.current.Add(d) }

type testHarness struct {
	auth     *Authenticator
	store    *users.Store
	clock    *fakeClock
	out      *bytes.Buffer
	auditLog *bytes.Buffer
}

func newHarness(t *testing.T, inputs ...string) *testHarness {
	t.Helper()

	store, err := users.NewStore(afero.NewMemMapFs(), "users.dat", hashing.NewArgon2Hasher(), hashing.NewMultiVerifier())
	require.NoError(t, err)
	require.NoError(t, store.Load())

	clock := newFakeClock()
	out := &bytes.Buffer{}
	auditLog := &bytes.Buffer{}

	a, err := New(&Config{
		Output: out,
		Clock:  clock.Now,
		Sleep:  func(d time.Duration) { clock.Advance(d) },
	}, store, nil, audit.NewWithClock(auditLog, clock.Now), &scriptedReader{inputs: inputs})
	require.NoError(t, err)

	return &testHarness{auth: a, store: store, clock: clock, out: out, auditLog: auditLog}
}

func TestNew_RequiresDependencies(t *testing.T) {
	store, err := users.NewStore(afero.NewMemMapFs(), "users.dat", hashing.NewArgon2Hasher(), hashing.NewMultiVerifier())
	require.NoError(t, err)

	_, err = New(nil, nil, nil, nil, &scriptedReader{})
	assert.Error(t, err)
	_, err = New(nil, store, nil, nil, nil)
	assert.Error(t, err)
}

func TestAuthenticate_Success(t *testing.T) {
	h := newHarness(t, "admin", "admin123")

	session, err := h.auth.Authenticate()
	require.NoError(t, err)

	assert.Equal(t, "admin", session.Username)
	assert.Equal(t, users.Admin, session.Role)
	assert.Equal(t, "127.0.0.1", session.SourceAddress)
	assert.NotZero(t, session.ID)
	assert.Equal(t, h.clock.Now(), session.CreatedAt)

	assert.Contains(t, h.out.String(), "Access granted! Welcome, admin!")
	assert.Contains(t, h.auditLog.String(), "[SUCCESS] Login: user='admin' ip=127.0.0.1")
}

func TestAuthenticate_WrongPasswordThenSuccess(t *testing.T) {
	h := newHarness(t, "admin", "nope", "admin", "admin123")

	session, err := h.auth.Authenticate()
	require.NoError(t, err)
	assert.Equal(t, "admin", session.Username)

	assert.Contains(t, h.out.String(), "Invalid credentials. Attempts remaining for this account: 2")
	assert.Contains(t, h.auditLog.String(), "reason='Wrong password'")

	// Success resets the account counter and clears the address state
	assert.Equal(t, 0, h.auth.accounts.Failures("admin"))
	assert.Equal(t, 0, h.auth.addresses.Failures("127.0.0.1"))
}

func TestAuthenticate_InputClosed(t *testing.T) {
	h := newHarness(t) // no inputs at all

	_, err := h.auth.Authenticate()
	require.Error(t, err)
	assert.ErrorIs(t, err, io.EOF)
}

func TestAttempt_UnknownUser(t *testing.T) {
	h := newHarness(t, "ghost", "whatever")

	_, err := h.auth.attempt("127.0.0.1")
	require.Error(t, err)

	var credErr *CredentialsError
	require.ErrorAs(t, err, &credErr)
	assert.Equal(t, "User not found", credErr.Reason)
	assert.Equal(t, 2, credErr.AttemptsRemaining)
	assert.False(t, credErr.Locked)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// Unknown logins count against both keys
	assert.Equal(t, 1, h.auth.accounts.Failures("ghost"))
	assert.Equal(t, 1, h.auth.addresses.Failures("127.0.0.1"))
	assert.Contains(t, h.auditLog.String(), "reason='User not found'")
}

func TestAttempt_DisabledAccount(t *testing.T) {
	h := newHarness(t, "user1")
	require.True(t, h.store.ToggleActive("user1"))

	_, err := h.auth.attempt("127.0.0.1")
	assert.ErrorIs(t, err, ErrAccountDisabled)

	// No password is requested, but the address still takes a failure
	assert.Equal(t, 1, h.auth.addresses.Failures("127.0.0.1"))
	assert.Equal(t, 0, h.auth.accounts.Failures("user1"))
	assert.Contains(t, h.auditLog.String(), "reason='Account disabled'")
}

func TestAttempt_AccountLockoutScenario(t *testing.T) {
	h := newHarness(t,
		"admin", "bad1",
		"admin", "bad2",
		"admin", "bad3",
		"admin", // fourth attempt: lock check rejects before the password prompt
		"admin", "admin123",
	)
	const addr = "127.0.0.1"

	// Three wrong passwords lock the account
	for i := 0; i < 2; i++ {
		_, err := h.auth.attempt(addr)
		var credErr *CredentialsError
		require.ErrorAs(t, err, &credErr)
		assert.False(t, credErr.Locked)
	}
	_, err := h.auth.attempt(addr)
	var credErr *CredentialsError
	require.ErrorAs(t, err, &credErr)
	assert.True(t, credErr.Locked)
	assert.Equal(t, 30*time.Second, credErr.LockDuration)
	assert.Contains(t, h.auditLog.String(), "[SECURITY] Account locked: user=admin ip=127.0.0.1")

	// The correct password is still rejected while the lock holds
	_, err = h.auth.attempt(addr)
	var lockErr *AccountLockedError
	require.ErrorAs(t, err, &lockErr)
	assert.Equal(t, 30*time.Second, lockErr.Remaining)
	assert.Contains(t, h.auditLog.String(), "reason='Account locked'")

	// Once the deadline elapses the same credentials succeed and the
	// counter is zero immediately after
	h.clock.Advance(31 * time.Second)
	session, err := h.auth.attempt(addr)
	require.NoError(t, err)
	assert.Equal(t, "admin", session.Username)
	assert.Equal(t, 0, h.auth.accounts.Failures("admin"))
}

func TestAttempt_SuccessClearsAddressHistoryOfOtherAccounts(t *testing.T) {
	h := newHarness(t,
		"user1", "wrong",
		"user1", "wrong",
		"admin", "admin123",
	)
	const addr = "127.0.0.1"

	for i := 0; i < 2; i++ {
		_, err := h.auth.attempt(addr)
		require.ErrorIs(t, err, ErrInvalidCredentials)
	}
	require.Equal(t, 2, h.auth.addresses.Failures(addr))

	// admin's success wipes address history built up by user1's failures
	_, err := h.auth.attempt(addr)
	require.NoError(t, err)
	assert.Equal(t, 0, h.auth.addresses.Failures(addr))

	// user1's own account counter is untouched
	assert.Equal(t, 2, h.auth.accounts.Failures("user1"))
}

func TestAuthenticate_WaitsOutAddressLock(t *testing.T) {
	h := newHarness(t, "admin", "admin123")
	const addr = "127.0.0.1"

	for i := 0; i < 10; i++ {
		h.auth.addresses.RecordFailure(addr)
	}
	locked, _ := h.auth.addresses.IsLocked(addr)
	require.True(t, locked)

	// Sleep advances the fake clock, so the wait loop terminates once
	// the 60s deadline passes
	session, err := h.auth.Authenticate()
	require.NoError(t, err)
	assert.Equal(t, "admin", session.Username)

	out := h.out.String()
	assert.Contains(t, out, "WARNING: your address is blocked")
	assert.Contains(t, out, "Waiting for unlock...")
	assert.Contains(t, out, "Address unlocked. Continuing...")

	auditOut := h.auditLog.String()
	assert.Contains(t, auditOut, "[SECURITY] Address blocked: ip=127.0.0.1")
	assert.Contains(t, auditOut, "[SECURITY] Address unblocked: ip=127.0.0.1")
}

func TestChangePassword(t *testing.T) {
	t.Run("wrong current password", func(t *testing.T) {
		h := newHarness(t)
		session := &Session{Username: "user1", Role: users.User, SourceAddress: "127.0.0.1"}

		err := h.auth.ChangePassword(session, "wrong", "Fresh1!pw", "Fresh1!pw")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		assert.Contains(t, h.auditLog.String(), "[PASSWORD] Change: user='user1' success=false")
	})

	t.Run("weak new password", func(t *testing.T) {
		h := newHarness(t)
		session := &Session{Username: "user1", Role: users.User, SourceAddress: "127.0.0.1"}

		err := h.auth.ChangePassword(session, "user123", "weak", "weak")
		var policyErr *PolicyError
		require.ErrorAs(t, err, &policyErr)
		assert.Contains(t, policyErr.Message, "at least 8 characters")
	})

	t.Run("confirmation mismatch", func(t *testing.T) {
		h := newHarness(t)
		session := &Session{Username: "user1", Role: users.User, SourceAddress: "127.0.0.1"}

		err := h.auth.ChangePassword(session, "user123", "Fresh1!pw", "Other1!pw")
		assert.ErrorIs(t, err, ErrPasswordMismatch)
	})

	t.Run("success", func(t *testing.T) {
		h := newHarness(t)
		session := &Session{Username: "user1", Role: users.User, SourceAddress: "127.0.0.1"}

		require.NoError(t, h.auth.ChangePassword(session, "user123", "Fresh1!pw", "Fresh1!pw"))
		assert.True(t, h.store.VerifyPassword("user1", "Fresh1!pw"))
		assert.False(t, h.store.VerifyPassword("user1", "user123"))
		assert.Contains(t, h.auditLog.String(), "[PASSWORD] Change: user='user1' success=true")
	})
}

func TestSession_HasPermission(t *testing.T) {
	session := &Session{Username: "user1", Role: users.User}
	assert.True(t, session.HasPermission(users.Guest))
	assert.True(t, session.HasPermission(users.User))
	assert.False(t, session.HasPermission(users.Admin))
}

func TestAuthenticate_BannerShowsLimits(t *testing.T) {
	h := newHarness(t, "admin", "admin123")

	_, err := h.auth.Authenticate()
	require.NoError(t, err)

	out := h.out.String()
	for _, want := range []string{
		"=== AUTHENTICATION ===",
		"Maximum attempts per account: 3",
		"Account lock time: 30 seconds",
		"Maximum attempts per address: 10",
		"Address lock time: 60 seconds",
		"Your address: 127.0.0.1",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("banner missing %q", want)
		}
	}
}

package users

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/spf13/afero"

	"github.com/nvoronin/seccalc/pkg/hashing"
	"github.com/nvoronin/seccalc/pkg/logging"
)

const storeFileMode = 0600

// defaultAccounts seeds a fresh store with one account per role
var defaultAccounts = []struct {
	login    string
	password string
	role     Role
}{
	{"admin", "admin123", Admin},
	{"user1", "user123", User},
	{"guest", "guest123", Guest},
}

// Store is a durable mapping from login to account record. The file is
// read fully into memory on Load and rewritten fully on Save.
type Store struct {
	fs       afero.Fs
	path     string
	hasher   hashing.Hasher
	verifier hashing.Verifier

	mu       sync.RWMutex
	accounts map[string]*Account
}

// NewStore creates a Store backed by the given filesystem and path
func NewStore(fs afero.Fs, path string, hasher hashing.Hasher, verifier hashing.Verifier) (*Store, error) {
	if fs == nil {
		return nil, fmt.Errorf("filesystem is required")
	}
	if path == "" {
		return nil, fmt.Errorf("store path is required")
	}
	if hasher == nil {
		return nil, fmt.Errorf("hasher is required")
	}
	if verifier == nil {
		return nil, fmt.Errorf("verifier is required")
	}

	return &Store{
		fs:       fs,
		path:     path,
		hasher:   hasher,
		verifier: verifier,
		accounts: make(map[string]*Account),
	}, nil
}

// Load reads the store file. A missing or empty file seeds the default
// accounts and persists them. Malformed records are skipped with a
// warning; only a file with zero valid records triggers reseeding.
func (s *Store) Load() error {
	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		if os.IsNotExist(err) {
			logging.App.Info("User store not found, seeding defaults", "path", s.path)
			return s.seedAndSave()
		}
		return fmt.Errorf("reading user store: %w", err)
	}

	if strings.TrimSpace(string(data)) == "" {
		logging.App.Info("User store is empty, seeding defaults", "path", s.path)
		return s.seedAndSave()
	}

	accounts := make(map[string]*Account)
	for i, line := range strings.Split(string(data), "\n") {
		if line == "" {
			continue
		}
		account, err := parseRecord(line)
		if err != nil {
			logging.App.Warn("Skipping malformed user record", "path", s.path, "line", i+1, "error", err)
			continue
		}
		accounts[account.Login] = account
	}

	if len(accounts) == 0 {
		logging.App.Warn("User store contained no valid records, seeding defaults", "path", s.path)
		return s.seedAndSave()
	}

	s.mu.Lock()
	s.accounts = accounts
	s.mu.Unlock()

	logging.App.Info("Loaded user store", "path", s.path, "users", len(accounts))
	return nil
}

// Save serializes every record, one per line sorted by login, rewriting
// the file whole and restricting it to the owning user.
func (s *Store) Save() error {
	s.mu.RLock()
	lines := make([]string, 0, len(s.accounts))
	for _, login := range s.sortedLoginsLocked() {
		lines = append(lines, formatRecord(s.accounts[login]))
	}
	s.mu.RUnlock()

	data := []byte(strings.Join(lines, "\n") + "\n")
	if err := afero.WriteFile(s.fs, s.path, data, storeFileMode); err != nil {
		return fmt.Errorf("writing user store: %w", err)
	}
	// WriteFile applies the mode only on create; enforce it on rewrites too
	if err := s.fs.Chmod(s.path, storeFileMode); err != nil {
		return fmt.Errorf("restricting user store permissions: %w", err)
	}

	logging.App.Debug("Saved user store", "path", s.path, "users", len(lines))
	return nil
}

// seedAndSave replaces all records with the default accounts and persists
func (s *Store) seedAndSave() error {
	accounts := make(map[string]*Account, len(defaultAccounts))
	for _, d := range defaultAccounts {
		digest, err := s.hasher.Hash(d.password)
		if err != nil {
			return fmt.Errorf("hashing default password for %q: %w", d.login, err)
		}
		accounts[d.login] = &Account{
			Login:          d.login,
			PasswordDigest: digest,
			Role:           d.role,
			Active:         true,
		}
	}

	s.mu.Lock()
	s.accounts = accounts
	s.mu.Unlock()

	return s.Save()
}

// Get returns a copy of the record for login
func (s *Store) Get(login string) (Account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, ok := s.accounts[login]
	if !ok {
		return Account{}, false
	}
	return *account, true
}

// VerifyPassword checks a plaintext password against the stored digest
// for login. Unknown logins verify as false.
func (s *Store) VerifyPassword(login, password string) bool {
	s.mu.RLock()
	account, ok := s.accounts[login]
	s.mu.RUnlock()

	if !ok {
		return false
	}
	return s.verifier.Verify(password, account.PasswordDigest)
}

// AddUser hashes the password and stores a new active account. The login
// must be non-empty and not already taken.
func (s *Store) AddUser(login, password string, role Role) error {
	if login == "" {
		return ErrInvalidLogin
	}

	digest, err := s.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[login]; exists {
		return ErrUserExists
	}
	s.accounts[login] = &Account{
		Login:          login,
		PasswordDigest: digest,
		Role:           role,
		Active:         true,
	}
	return nil
}

// SetPassword rehashes and replaces the digest for an existing login
func (s *Store) SetPassword(login, password string) error {
	digest, err := s.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[login]
	if !ok {
		return ErrUserNotFound
	}
	account.PasswordDigest = digest
	return nil
}

// UpdateRole changes the role for login. Returns false when the login
// does not exist.
func (s *Store) UpdateRole(login string, role Role) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[login]
	if !ok {
		return false
	}
	account.Role = role
	return true
}

// ToggleActive flips the activation flag for login. Returns false when
// the login does not exist.
func (s *Store) ToggleActive(login string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[login]
	if !ok {
		return false
	}
	account.Active = !account.Active
	return true
}

// DeleteUser removes the record for login. Returns false when the login
// does not exist. Callers are responsible for refusing deletion of the
// currently authenticated account.
func (s *Store) DeleteUser(login string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[login]; !ok {
		return false
	}
	delete(s.accounts, login)
	return true
}

// Accounts returns copies of all records sorted by login
func (s *Store) Accounts() []Account {
	s.mu.RLock()
	defer s.mu.RUnlock()

	accounts := make([]Account, 0, len(s.accounts))
	for _, login := range s.sortedLoginsLocked() {
		accounts = append(accounts, *s.accounts[login])
	}
	return accounts
}

// Len returns the number of records
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.accounts)
}

func (s *Store) sortedLoginsLocked() []string {
	logins := make([]string, 0, len(s.accounts))
	for login := range s.accounts {
		logins = append(logins, login)
	}
	sort.Strings(logins)
	return logins
}

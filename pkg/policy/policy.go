// Package policy validates password strength before a password is ever
// hashed or stored.
package policy

import (
	"fmt"
	"strings"
	"unicode"
)

// SpecialCharacters is the set of symbols that satisfy the special
// character requirement
const SpecialCharacters = "!@#$%^&*()_+-=[]{};':\"\\|,.<>/?"

// Config controls which rules Validate applies. Each rule can be toggled
// independently.
type Config struct {
	MinLength      int
	RequireUpper   bool
	RequireLower   bool
	RequireDigit   bool
	RequireSpecial bool
	// Blocklist entries are rejected as case-insensitive substrings
	Blocklist []string
}

// DefaultConfig returns the standard policy: at least 8 characters, all
// four character classes required, common weak sequences rejected.
func DefaultConfig() Config {
	return Config{
		MinLength:      8,
		RequireUpper:   true,
		RequireLower:   true,
		RequireDigit:   true,
		RequireSpecial: true,
		Blocklist:      []string{"password", "admin", "111", "123"},
	}
}

// Result is the outcome of a single validation call
type Result struct {
	Valid   bool
	Message string
}

// Policy applies a fixed-order sequence of strength rules to candidate
// passwords
type Policy struct {
	config Config
}

// New creates a Policy with the given configuration
func New(config Config) *Policy {
	return &Policy{config: config}
}

// Validate checks the password against each enabled rule in fixed order,
// stopping at the first violation. The order is part of the contract:
// length, uppercase, lowercase, digit, special character, blocklist.
func (p *Policy) Validate(password string) Result {
	if len(password) < p.config.MinLength {
		return Result{false, fmt.Sprintf("password must be at least %d characters long", p.config.MinLength)}
	}

	if p.config.RequireUpper && !containsFunc(password, unicode.IsUpper) {
		return Result{false, "password must contain an uppercase letter"}
	}

	if p.config.RequireLower && !containsFunc(password, unicode.IsLower) {
		return Result{false, "password must contain a lowercase letter"}
	}

	if p.config.RequireDigit && !containsFunc(password, unicode.IsDigit) {
		return Result{false, "password must contain a digit"}
	}

	if p.config.RequireSpecial && !strings.ContainsAny(password, SpecialCharacters) {
		return Result{false, "password must contain a special character"}
	}

	lowered := strings.ToLower(password)
	for _, blocked := range p.config.Blocklist {
		if blocked == "" {
			continue
		}
		if strings.Contains(lowered, strings.ToLower(blocked)) {
			return Result{false, "password contains a common character sequence and was rejected"}
		}
	}

	return Result{true, "password is strong"}
}

func containsFunc(s string, f func(rune) bool) bool {
	return strings.IndexFunc(s, f) >= 0
}

package hashing

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	// Separator splits the hex salt from the hex digest in stored strings
	Separator = "|"

	saltLength = 16

	argonTime    = 2
	argonMemory  = 64 * 1024
	argonThreads = 1
	argonKeyLen  = 32
)

// Argon2Hasher hashes and verifies passwords using argon2id with a
// per-call random salt. Stored format: hex(salt) "|" hex(key).
type Argon2Hasher struct{}

// NewArgon2Hasher returns an Argon2Hasher
func NewArgon2Hasher() *Argon2Hasher { return &Argon2Hasher{} }

// Hash implements Hasher
func (h *Argon2Hasher) Hash(password string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)
	return hex.EncodeToString(salt) + Separator + hex.EncodeToString(key), nil
}

// Verify implements Verifier. It splits the digest on the separator,
// recomputes the key with the extracted salt and compares in constant
// time. Any malformed digest returns false.
func (h *Argon2Hasher) Verify(password, digest string) bool {
	saltHex, keyHex, found := strings.Cut(digest, Separator)
	if !found {
		return false
	}

	salt, err := hex.DecodeString(saltHex)
	if err != nil || len(salt) == 0 {
		return false
	}
	expected, err := hex.DecodeString(keyHex)
	if err != nil || len(expected) == 0 {
		return false
	}

	derived := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, uint32(len(expected)))
	return subtle.ConstantTimeCompare(derived, expected) == 1
}

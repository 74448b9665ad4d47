package hashing

import (
	"crypto/subtle"

	"github.com/digitive/crypt"
)

// UnixCrypt verifies legacy 13-character Unix crypt digests. Kept for
// user stores migrated from older deployments; new digests are always
// produced by Argon2Hasher.
type UnixCrypt struct{}

// NewUnixCrypt returns a UnixCrypt verifier
func NewUnixCrypt() *UnixCrypt { return &UnixCrypt{} }

// Verify implements Verifier
func (u *UnixCrypt) Verify(password, digest string) bool {
	if len(digest) < 2 {
		return false
	}

	// The salt is the first two characters of the stored digest
	computed, err := crypt.Crypt(password, digest[:2])
	if err != nil {
		return false
	}

	return subtle.ConstantTimeCompare([]byte(computed), []byte(digest)) == 1
}

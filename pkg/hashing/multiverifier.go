package hashing

import "strings"

// MultiVerifier detects the stored digest format and delegates to the
// appropriate verifier
type MultiVerifier struct {
	argon2    *Argon2Hasher
	unixCrypt *UnixCrypt
}

// NewMultiVerifier creates a verifier that supports both salted argon2
// digests and legacy Unix crypt digests
func NewMultiVerifier() *MultiVerifier {
	return &MultiVerifier{
		argon2:    NewArgon2Hasher(),
		unixCrypt: NewUnixCrypt(),
	}
}

// Verify implements Verifier. Unknown digest formats fail closed.
func (v *MultiVerifier) Verify(password, digest string) bool {
	if digest == "" {
		return false
	}

	if strings.Contains(digest, Separator) {
		// Salted format: hex(salt) "|" hex(key)
		return v.argon2.Verify(password, digest)
	}
	if len(digest) == 13 && !strings.Contains(digest, "$") {
		// Unix crypt format: 13 characters, no $ symbols
		return v.unixCrypt.Verify(password, digest)
	}

	return false
}

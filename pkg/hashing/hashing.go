// Package hashing provides password digest generation and verification.
//
// The primary scheme stores digests as hex(salt) + "|" + hex(argon2id key)
// with a fresh random salt per call, so hashing the same password twice
// never yields the same stored string. Legacy 13-character Unix crypt
// digests from older deployments remain verifiable through MultiVerifier.
package hashing

// Hasher produces a stored digest string from a plaintext password
type Hasher interface {
	// Hash generates a salted digest for the password. Each call uses a
	// fresh salt, so repeated calls return different digests.
	Hash(password string) (string, error)
}

// Verifier checks a plaintext password against a stored digest string
type Verifier interface {
	// Verify reports whether the password matches the digest. A malformed
	// digest fails closed: the result is false, never a panic.
	Verify(password, digest string) bool
}

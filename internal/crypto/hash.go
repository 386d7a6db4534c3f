package crypto

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// SecretHash computes the SHA-256 hex hash under which secrets are stored.
// Raw secrets never touch the database; lookups and comparisons run on this.
func SecretHash(secret string) string {
	h := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(h[:])
}

// SecretHashEquals compares a presented secret against a stored hash in
// constant time.
func SecretHashEquals(storedHash, presented string) bool {
	h := sha256.Sum256([]byte(presented))
	computed := hex.EncodeToString(h[:])
	return subtle.ConstantTimeCompare([]byte(storedHash), []byte(computed)) == 1
}

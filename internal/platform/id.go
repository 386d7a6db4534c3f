// Package platform holds small identifier and secret generators shared by
// every service layer.
package platform

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/google/uuid"
)

// NewID returns the UUID under which stored records are keyed.
func NewID() string {
	return uuid.New().String()
}

const nameAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// NewName returns a prefixed random basename. Key generation uses it for the
// transient files it writes, so concurrent issuances never share a path.
func NewName(prefix string) string {
	b := make([]byte, 10)
	if _, err := rand.Read(b); err != nil {
		panic("crypto/rand: " + err.Error())
	}
	for i := range b {
		b[i] = nameAlphabet[b[i]%byte(len(nameAlphabet))]
	}
	return prefix + string(b)
}

// NewSecret generates a random 32-byte secret, hex encoded with a prefix.
// The raw value is shown to the caller exactly once; only its hash is stored.
func NewSecret(prefix string) (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return prefix + hex.EncodeToString(b), nil
}

package util

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/google/uuid"
)

// TokenBytes is the amount of randomness behind an invitation token. The hex
// rendering is twice as long.
const TokenBytes = 32

// GenerateID returns a random record identifier.
func GenerateID() string {
	return uuid.NewString()
}

// GenerateToken returns a fixed-length hex token drawn from crypto/rand.
func GenerateToken() (string, error) {
	b := make([]byte, TokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// IsToken reports whether s has the shape produced by GenerateToken.
func IsToken(s string) bool {
	if len(s) != TokenBytes*2 {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}

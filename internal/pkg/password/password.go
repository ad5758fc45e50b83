// Package password hashes account passwords and refresh tokens.
package password

import (
	"crypto/sha256"
	"encoding/hex"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

// MinLength is the minimum number of characters of an account password.
// Arabic passwords count runes, not bytes.
const MinLength = 8

// cost is the bcrypt work factor
const cost = 12

// Hash returns the bcrypt hash of plain
func Hash(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Verify reports whether plain matches hash
func Verify(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// HashToken returns the hex SHA-256 of a refresh token. Only the digest is stored.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// ValidatePassword reports whether plain is long enough
func ValidatePassword(plain string) bool {
	return utf8.RuneCountInString(plain) >= MinLength
}

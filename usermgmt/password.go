package usermgmt

import (
	"crypto/sha256"
	"encoding/base64"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// BCryptCost is the work factor for stored password hashes.
var BCryptCost = 12

// bcrypt reads at most 72 bytes; longer passwords are digested first so
// every byte counts.
const bcryptMaxInput = 72

func passwordInput(password string) []byte {
	if len(password) <= bcryptMaxInput {
		return []byte(password)
	}
	sum := sha256.Sum256([]byte(password))
	return []byte(base64.StdEncoding.EncodeToString(sum[:]))
}

// HashPassword creates a bcrypt hash of the password
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword(passwordInput(password), BCryptCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// VerifyPassword checks if the provided password matches the hash
func VerifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), passwordInput(password)) == nil
}

// TemporaryPassword returns a random password for accounts created without one.
func TemporaryPassword() string {
	return uuid.NewString()
}

package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLen = 8
	// bcrypt ignores input past 72 bytes
	maxPasswordBytes = 72
)

var hashCost = bcrypt.DefaultCost

// SetHashCost changes the bcrypt cost for new hashes. Values outside bcrypt's
// range are ignored.
func SetHashCost(cost int) {
	if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
		hashCost = cost
	}
}

// HashPassword returns the bcrypt hash of password
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), hashCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPasswordHash reports whether password matches hash
func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// ValidatePassword enforces the length policy
func ValidatePassword(password string) error {
	switch {
	case len([]rune(password)) < minPasswordLen:
		return fmt.Errorf("password must be at least %d characters long", minPasswordLen)
	case len(password) > maxPasswordBytes:
		return errors.New("password is too long")
	}
	return nil
}

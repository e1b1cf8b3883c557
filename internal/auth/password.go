package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/expertpos/expert-pos/internal/shared"
)

// MinHashCost is the lowest bcrypt work factor accepted for stored passwords.
const MinHashCost = 12

const maxPasswordBytes = 72

// ErrWeakHashCost is returned when a Hasher is configured below MinHashCost.
var ErrWeakHashCost = fmt.Errorf("auth: bcrypt cost must be at least %d", MinHashCost)

// Hasher derives and verifies bcrypt password hashes.
type Hasher struct {
	cost int
}

// NewHasher returns a Hasher using cost. Costs below MinHashCost are rejected.
func NewHasher(cost int) (*Hasher, error) {
	if cost < MinHashCost {
		return nil, ErrWeakHashCost
	}
	if cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("auth: bcrypt cost must be at most %d", bcrypt.MaxCost)
	}
	return &Hasher{cost: cost}, nil
}

// Hash returns a salted bcrypt hash of plaintext.
func (h *Hasher) Hash(plaintext string) (string, error) {
	if len(plaintext) > maxPasswordBytes {
		return "", fmt.Errorf("%w: password must be at most %d bytes", shared.ErrValidation, maxPasswordBytes)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hash password: %w", err)
	}
	return string(hash), nil
}

// Verify reports whether plaintext matches hash. Malformed hashes never match.
func (h *Hasher) Verify(plaintext, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	return err == nil
}

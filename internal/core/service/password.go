package service

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/taskboard/tracker/internal/core/domain"
)

// DefaultBcryptCost keeps interactive logins well under a second on commodity
// hardware while staying at the adaptive-hash floor of 10 rounds.
const DefaultBcryptCost = 10

// MaxPasswordBytes is bcrypt's input limit.
const MaxPasswordBytes = 72

// equalizerSecret is hashed once at construction; Burn compares against it.
const equalizerSecret = "tracker:timing-equalizer"

// BcryptHasher implements ports.PasswordHasher. The salt is generated per
// call by bcrypt and embedded in the digest.
type BcryptHasher struct {
	cost  int
	dummy []byte
}

func NewBcryptHasher(cost int) (*BcryptHasher, error) {
	if cost == 0 {
		cost = DefaultBcryptCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range [%d,%d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	dummy, err := bcrypt.GenerateFromPassword([]byte(equalizerSecret), cost)
	if err != nil {
		return nil, fmt.Errorf("prepare equalizer digest: %w", err)
	}
	return &BcryptHasher{cost: cost, dummy: dummy}, nil
}

func (h *BcryptHasher) Hash(plaintext string) (string, error) {
	if len(plaintext) > MaxPasswordBytes {
		return "", fmt.Errorf("%w: password must be at most %d bytes", domain.ErrValidation, MaxPasswordBytes)
	}
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", fmt.Errorf("%w: password must be at most %d bytes", domain.ErrValidation, MaxPasswordBytes)
		}
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(digest), nil
}

func (h *BcryptHasher) Verify(plaintext, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}

func (h *BcryptHasher) Burn(plaintext string) {
	_ = bcrypt.CompareHashAndPassword(h.dummy, []byte(plaintext))
}

// Package auth holds credential hashing and verification.
package auth

import (
	"golang.org/x/crypto/bcrypt"
)

// CredentialVerifier turns a password into a stored credential and checks
// claims against it.
type CredentialVerifier interface {
	Hash(password string) (string, error)
	Verify(password, stored string) bool
}

// Bcrypt is a CredentialVerifier using bcrypt with the given cost.
type Bcrypt struct {
	Cost int
}

var _ CredentialVerifier = Bcrypt{}

// NewBcrypt returns a verifier, falling back to bcrypt.DefaultCost when cost
// is out of range.
func NewBcrypt(cost int) Bcrypt {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return Bcrypt{Cost: cost}
}

func (b Bcrypt) Hash(password string) (string, error) {
	cost := b.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (b Bcrypt) Verify(password, stored string) bool {
	if password == "" || stored == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil
}

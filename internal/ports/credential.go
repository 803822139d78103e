package ports

import (
	"crypto/subtle"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

var errEmptySecret = errors.New("secret is empty")

// StaticSecret compares candidates against a plain secret in constant time.
type StaticSecret struct {
	secret []byte
}

func NewStaticSecret(secret string) (*StaticSecret, error) {
	if secret == "" {
		return nil, errEmptySecret
	}
	return &StaticSecret{secret: []byte(secret)}, nil
}

func (s *StaticSecret) Verify(candidate string) bool {
	return subtle.ConstantTimeCompare(s.secret, []byte(candidate)) == 1
}

// HashedSecret verifies candidates against a bcrypt hash so the plain
// secret never has to live in config.
type HashedSecret struct {
	hash []byte
}

func NewHashedSecret(hash string) (*HashedSecret, error) {
	if hash == "" {
		return nil, errEmptySecret
	}
	if _, err := bcrypt.Cost([]byte(hash)); err != nil {
		return nil, fmt.Errorf("parse bcrypt hash: %w", err)
	}
	return &HashedSecret{hash: []byte(hash)}, nil
}

func (s *HashedSecret) Verify(candidate string) bool {
	return bcrypt.CompareHashAndPassword(s.hash, []byte(candidate)) == nil
}

// HashSecret produces a bcrypt hash suitable for NewHashedSecret.
func HashSecret(secret string) (string, error) {
	if secret == "" {
		return "", errEmptySecret
	}
	b, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash secret: %w", err)
	}
	return string(b), nil
}

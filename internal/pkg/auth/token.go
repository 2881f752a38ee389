package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidToken  = errors.New("invalid operator token")
	ErrAdminDisabled = errors.New("admin api disabled")
)

// TokenHasher defines hashing strategy for operator tokens.
type TokenHasher interface {
	Hash(token string) (string, error)
	Compare(hash string, token string) error
}

// BcryptHasher uses bcrypt to hash operator tokens.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher creates BcryptHasher with provided cost.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Hash(token string) (string, error) {
	encoded, err := bcrypt.GenerateFromPassword([]byte(token), h.cost)
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}

func (h *BcryptHasher) Compare(hash string, token string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(token))
}

// OperatorAuthenticator checks bearer tokens presented to the admin API.
type OperatorAuthenticator struct {
	hash   string
	hasher TokenHasher
}

func NewOperatorAuthenticator(hash string, hasher TokenHasher) *OperatorAuthenticator {
	return &OperatorAuthenticator{hash: hash, hasher: hasher}
}

// Enabled reports whether an operator token hash is configured.
func (a *OperatorAuthenticator) Enabled() bool {
	return a.hash != ""
}

// Authenticate returns ErrAdminDisabled when no hash is configured and ErrInvalidToken on mismatch.
func (a *OperatorAuthenticator) Authenticate(token string) error {
	if !a.Enabled() {
		return ErrAdminDisabled
	}
	if token == "" || a.hasher.Compare(a.hash, token) != nil {
		return ErrInvalidToken
	}
	return nil
}

// Package credentials checks the admin portal login against a bcrypt hash.
package credentials

import (
	"crypto/subtle"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	dErrors "numerano/pkg/domain-errors"
)

var errInvalidCredentials = dErrors.New(dErrors.CodeUnauthorized, "invalid username or password")

// Hash creates a bcrypt hash of a password for NUMERANO_ADMIN_PASSWORD_HASH.
func Hash(password string) (string, error) {
	if password == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "password cannot be empty")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", dErrors.New(dErrors.CodeInvalidInput, "password is too long")
		}
		return "", fmt.Errorf("could not hash password: %w", err)
	}
	return string(hashed), nil
}

// Checker holds the single admin account.
type Checker struct {
	username string
	hash     []byte
}

func NewChecker(username, passwordHash string) *Checker {
	return &Checker{username: username, hash: []byte(passwordHash)}
}

// Enabled reports whether a password hash is configured.
func (c *Checker) Enabled() bool {
	return len(c.hash) > 0
}

// Check returns nil when username and password match. Every mismatch yields
// the same unauthorized error.
func (c *Checker) Check(username, password string) error {
	if !c.Enabled() {
		return dErrors.New(dErrors.CodeForbidden, "admin login is not configured")
	}
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(c.username)) == 1
	err := bcrypt.CompareHashAndPassword(c.hash, []byte(password))
	if err != nil && !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return dErrors.Wrap(err, dErrors.CodeInternal, "could not verify password")
	}
	if !userOK || err != nil {
		return errInvalidCredentials
	}
	return nil
}

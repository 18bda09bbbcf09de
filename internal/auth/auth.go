// Package auth provides shared-token authentication for the admin channel.
//
// Tokens are minted per setup at generate time and stored next to the
// conductor config; both sides of the channel load the same file.
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// TokenFile is the token's file name inside a setup directory.
const TokenFile = "admin-token"

var ErrUnauthorized = errors.New("auth: unauthorized")

// Validator validates an authentication token.
type Validator interface {
	Validate(token []byte) error
}

// StaticToken validates against a single shared token.
type StaticToken struct {
	Token string
}

func (s StaticToken) Validate(token []byte) error {
	if s.Token == "" {
		return ErrUnauthorized
	}
	if subtle.ConstantTimeCompare([]byte(s.Token), token) != 1 {
		return ErrUnauthorized
	}
	return nil
}

// FuncValidator adapts a function into a Validator.
type FuncValidator func(token []byte) error

func (f FuncValidator) Validate(token []byte) error {
	return f(token)
}

// NewToken mints a random token.
func NewToken() (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("auth: mint token: %w", err)
	}
	return hex.EncodeToString(raw), nil
}

// WriteTokenFile stores a setup's admin token with owner-only permissions.
func WriteTokenFile(setupPath, token string) error {
	path := filepath.Join(setupPath, TokenFile)
	if err := os.WriteFile(path, []byte(token+"\n"), 0o600); err != nil {
		return fmt.Errorf("auth: write token file: %w", err)
	}
	return nil
}

// LoadTokenFile reads a setup's admin token. A missing file yields an
// empty token, which StaticToken refuses to validate.
func LoadTokenFile(setupPath string) (string, error) {
	data, err := os.ReadFile(filepath.Join(setupPath, TokenFile))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("auth: read token file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

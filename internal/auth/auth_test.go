package auth

import (
	"errors"
	"testing"
)

func TestStaticTokenValidate(t *testing.T) {
	v := StaticToken{Token: "secret"}
	if err := v.Validate([]byte("secret")); err != nil {
		t.Fatalf("valid token rejected: %v", err)
	}
	if err := v.Validate([]byte("wrong")); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestStaticTokenEmptyNeverValidates(t *testing.T) {
	v := StaticToken{}
	if err := v.Validate([]byte("")); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("empty token must not validate, got %v", err)
	}
}

func TestTokenFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	token, err := NewToken()
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	if err := WriteTokenFile(dir, token); err != nil {
		t.Fatalf("write token: %v", err)
	}
	got, err := LoadTokenFile(dir)
	if err != nil {
		t.Fatalf("load token: %v", err)
	}
	if got != token {
		t.Fatalf("token mismatch: got=%q want=%q", got, token)
	}
}

func TestLoadTokenFileMissingIsEmpty(t *testing.T) {
	got, err := LoadTokenFile(t.TempDir())
	if err != nil {
		t.Fatalf("load token: %v", err)
	}
	if got != "" {
		t.Fatalf("expected empty token, got %q", got)
	}
}

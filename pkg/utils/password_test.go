package utils

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher_SaltedDigest(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	a, err := h.Hash("password123")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	b, err := h.Hash("password123")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}

	if a == "password123" {
		t.Fatal("digest must not equal plaintext")
	}
	if a == b {
		t.Fatal("expected different digests for the same plaintext")
	}
	if len(a) != len(b) {
		t.Fatalf("expected fixed digest length, got %d and %d", len(a), len(b))
	}
	if err := bcrypt.CompareHashAndPassword([]byte(a), []byte("password123")); err != nil {
		t.Fatalf("digest does not verify: %v", err)
	}
}

func TestNewBcryptHasher_ClampsCost(t *testing.T) {
	if got := NewBcryptHasher(0).Cost; got != DefaultBcryptCost {
		t.Fatalf("expected default cost for 0, got %d", got)
	}
	if got := NewBcryptHasher(99).Cost; got != DefaultBcryptCost {
		t.Fatalf("expected default cost for 99, got %d", got)
	}
	if got := NewBcryptHasher(6).Cost; got != 6 {
		t.Fatalf("expected cost 6, got %d", got)
	}
}

func TestBcryptHasher_LengthLimit(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)
	if _, err := h.Hash(strings.Repeat("a", MaxPasswordBytes)); err != nil {
		t.Fatalf("72-byte password: %v", err)
	}
	if _, err := h.Hash(strings.Repeat("a", MaxPasswordBytes+1)); !errors.Is(err, bcrypt.ErrPasswordTooLong) {
		t.Fatalf("expected ErrPasswordTooLong, got %v", err)
	}
}

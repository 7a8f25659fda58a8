package auth

import (
	"bytes"
	"testing"
)

func TestNewKeys_RejectsEmptySecret(t *testing.T) {
	if _, err := NewKeys(nil); err == nil {
		t.Fatal("expected error for nil secret")
	}
	if _, err := NewKeys([]byte{}); err == nil {
		t.Fatal("expected error for empty secret")
	}
}

func TestNewKeys_SigningAndVerificationMatch(t *testing.T) {
	keys, err := NewKeys([]byte("test-secret"))
	if err != nil {
		t.Fatalf("NewKeys failed: %v", err)
	}
	if !bytes.Equal(keys.SigningKey(), keys.VerificationKey()) {
		t.Fatal("symmetric scheme: signing and verification keys must match")
	}
	if !bytes.Equal(keys.SigningKey(), []byte("test-secret")) {
		t.Fatal("key material must derive from the provided secret")
	}
}

func TestNewKeys_CopiesSecret(t *testing.T) {
	secret := []byte("mutable-secret")
	keys, err := NewKeys(secret)
	if err != nil {
		t.Fatalf("NewKeys failed: %v", err)
	}

	secret[0] = 'X'
	if keys.SigningKey()[0] == 'X' {
		t.Fatal("key material must not alias the caller's buffer")
	}
}

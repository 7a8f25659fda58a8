package auth

import (
	"errors"
	"strings"
	"testing"
)

func newTestHasher(t *testing.T) *PasswordHasher {
	t.Helper()
	// Lighter memory than production defaults keeps the test quick while
	// exercising the same code path.
	hasher, err := NewPasswordHasher(Argon2Params{Time: 1, Memory: 8 * 1024, Threads: 2})
	if err != nil {
		t.Fatalf("NewPasswordHasher failed: %v", err)
	}
	return hasher
}

func TestHash_ProducesUniqueSalts(t *testing.T) {
	hasher := newTestHasher(t)

	first, err := hasher.Hash("Sup3r$ecret")
	if err != nil {
		t.Fatalf("first hash failed: %v", err)
	}
	second, err := hasher.Hash("Sup3r$ecret")
	if err != nil {
		t.Fatalf("second hash failed: %v", err)
	}

	if first == second {
		t.Fatal("two hashes of the same password must differ (per-hash salt)")
	}

	for _, encoded := range []string{first, second} {
		ok, err := hasher.Verify("Sup3r$ecret", encoded)
		if err != nil {
			t.Fatalf("verify failed: %v", err)
		}
		if !ok {
			t.Fatal("correct password must verify")
		}
	}
}

func TestHash_EncodedFormat(t *testing.T) {
	hasher := newTestHasher(t)

	encoded, err := hasher.Hash("Sup3r$ecret")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	if !strings.HasPrefix(encoded, "$argon2id$v=19$") {
		t.Fatalf("unexpected hash prefix: %s", encoded)
	}
	if parts := strings.Split(encoded, "$"); len(parts) != 6 {
		t.Fatalf("expected 6 PHC segments, got %d", len(parts))
	}
}

func TestVerify_WrongPassword(t *testing.T) {
	hasher := newTestHasher(t)

	encoded, err := hasher.Hash("Sup3r$ecret")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}

	for _, wrong := range []string{"", "sup3r$ecret", "Sup3r$ecret ", "Sup3r$ecreT", "completely-different"} {
		ok, err := hasher.Verify(wrong, encoded)
		if err != nil {
			t.Fatalf("verify returned error for wrong password %q: %v", wrong, err)
		}
		if ok {
			t.Fatalf("wrong password %q must not verify", wrong)
		}
	}
}

func TestVerify_CorruptHash(t *testing.T) {
	hasher := newTestHasher(t)

	corrupt := []string{
		"",
		"not-a-hash",
		"$bcrypt$v=19$m=8192,t=1,p=2$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=8192,t=1,p=2$!!!$aGFzaA",
		"$argon2id$v=19$bogus$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=8192,t=1,p=2$c2FsdA",
	}
	for _, encoded := range corrupt {
		_, err := hasher.Verify("Sup3r$ecret", encoded)
		if !errors.Is(err, ErrHashCorrupt) {
			t.Fatalf("expected ErrHashCorrupt for %q, got %v", encoded, err)
		}
	}
}

func TestVerifyDecoy_NeverMatches(t *testing.T) {
	hasher := newTestHasher(t)

	// The decoy hash belongs to a random throwaway password; verifying any
	// realistic candidate against it must burn the cost and fail quietly.
	hasher.VerifyDecoy("Sup3r$ecret")

	ok, err := hasher.Verify("Sup3r$ecret", hasher.decoy)
	if err != nil {
		t.Fatalf("decoy hash must be structurally valid: %v", err)
	}
	if ok {
		t.Fatal("decoy hash must not verify real passwords")
	}
}

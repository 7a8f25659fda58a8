package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// ErrHashCorrupt reports a stored hash that cannot be parsed. It signals data
// corruption, not a failed login attempt, and must surface as an internal error.
var ErrHashCorrupt = errors.New("auth: stored password hash is corrupt")

// Argon2Params are the argon2id cost parameters applied to every new hash.
type Argon2Params struct {
	Time    uint32
	Memory  uint32
	Threads uint8
}

// DefaultArgon2Params follow the OWASP recommendation.
func DefaultArgon2Params() Argon2Params {
	return Argon2Params{Time: 1, Memory: 64 * 1024, Threads: 4}
}

const (
	argonSaltLen = 16
	argonKeyLen  = 32
)

// PasswordHasher produces and verifies argon2id password hashes in the
// standard PHC string format.
type PasswordHasher struct {
	params Argon2Params
	decoy  string
}

// NewPasswordHasher builds a hasher and precomputes the decoy hash used to
// equalize timing on lookups for unknown usernames.
func NewPasswordHasher(params Argon2Params) (*PasswordHasher, error) {
	if params.Time == 0 || params.Memory == 0 || params.Threads == 0 {
		params = DefaultArgon2Params()
	}
	h := &PasswordHasher{params: params}

	decoy, err := h.Hash(randomDecoyPassword())
	if err != nil {
		return nil, err
	}
	h.decoy = decoy
	return h, nil
}

// Hash derives an argon2id hash with a fresh random salt.
// Encoded as: $argon2id$v=19$m=MEMORY,t=TIME,p=THREADS$SALT$HASH
func (h *PasswordHasher) Hash(password string) (string, error) {
	salt := make([]byte, argonSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("auth: generate salt: %w", err)
	}

	derived := argon2.IDKey([]byte(password), salt, h.params.Time, h.params.Memory, h.params.Threads, argonKeyLen)

	encoded := fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.params.Memory, h.params.Time, h.params.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(derived),
	)
	return encoded, nil
}

// Verify recomputes the hash from the stored parameters and compares in
// constant time. A wrong password yields (false, nil); only an unparseable
// stored hash yields an error.
func (h *PasswordHasher) Verify(password, encodedHash string) (bool, error) {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return false, ErrHashCorrupt
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return false, ErrHashCorrupt
	}

	var memory, time uint32
	var threads uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return false, ErrHashCorrupt
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, ErrHashCorrupt
	}
	expected, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false, ErrHashCorrupt
	}

	derived := argon2.IDKey([]byte(password), salt, time, memory, threads, uint32(len(expected)))
	return subtle.ConstantTimeCompare(derived, expected) == 1, nil
}

// VerifyDecoy burns the same hashing cost as a real verification. Callers use
// it on the user-not-found path so that account existence cannot be inferred
// from response timing.
func (h *PasswordHasher) VerifyDecoy(password string) {
	_, _ = h.Verify(password, h.decoy)
}

func randomDecoyPassword() string {
	buf := make([]byte, 27)
	if _, err := rand.Read(buf); err != nil {
		// rand.Read failing means the platform entropy source is broken;
		// the subsequent Hash call will fail the same way and report it.
		return "fallback-decoy-password"
	}
	return base64.RawURLEncoding.EncodeToString(buf)
}

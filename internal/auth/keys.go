package auth

import "errors"

// Keys holds the symmetric key material used to sign and verify tokens.
// It is built once at startup, never mutated afterwards, and may be copied
// freely across concurrent request handlers.
type Keys struct {
	signing      []byte
	verification []byte
}

// NewKeys derives signing and verification handles from the shared secret.
// An empty secret is a configuration error and must stop startup.
func NewKeys(secret []byte) (Keys, error) {
	if len(secret) == 0 {
		return Keys{}, errors.New("auth: signing secret must not be empty")
	}
	material := make([]byte, len(secret))
	copy(material, secret)
	return Keys{signing: material, verification: material}, nil
}

// SigningKey returns the key used to sign issued tokens.
func (k Keys) SigningKey() []byte {
	return k.signing
}

// VerificationKey returns the key used to verify presented tokens.
func (k Keys) VerificationKey() []byte {
	return k.verification
}

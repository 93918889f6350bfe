package sanction

import (
	"context"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"github.com/viant/scy"
	"golang.org/x/crypto/blake2b"
)

// TokenSigner mints and verifies redemption tokens. A token is a keyed
// BLAKE2b MAC over (sanction id, user id, intent), so it is unguessable,
// bound to exactly one authorizer and sanction, and verification cannot
// distinguish a wrong user from a wrong token.
type TokenSigner struct {
	key []byte
}

// NewTokenSigner creates a signer from raw key material.
func NewTokenSigner(key []byte) (*TokenSigner, error) {
	if len(key) == 0 {
		return nil, fmt.Errorf("sanction: signing key is required")
	}
	if len(key) > blake2b.Size {
		// blake2b caps key length; longer material is folded down.
		sum := blake2b.Sum256(key)
		key = sum[:]
	}
	return &TokenSigner{key: key}, nil
}

// NewTokenSignerFromResource loads the signing key from a scy secret
// resource, e.g. an encrypted file or cloud secret URL.
func NewTokenSignerFromResource(ctx context.Context, URL, key string) (*TokenSigner, error) {
	secrets := scy.New()
	secret, err := secrets.Load(ctx, scy.NewResource(nil, URL, key))
	if err != nil {
		return nil, fmt.Errorf("sanction: failed to load signing key from %s: %w", URL, err)
	}
	return NewTokenSigner([]byte(secret.String()))
}

// Mint returns the token that redeems the given intent for one authorizer
// of one sanction.
func (s *TokenSigner) Mint(sanctionID, userID string, intent Intent) string {
	mac, _ := blake2b.New256(s.key)
	mac.Write([]byte(sanctionID))
	mac.Write([]byte{0})
	mac.Write([]byte(userID))
	mac.Write([]byte{0})
	mac.Write([]byte(intent))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify checks a presented token in constant time.
func (s *TokenSigner) Verify(sanctionID, userID string, intent Intent, token string) bool {
	expected := s.Mint(sanctionID, userID, intent)
	if len(expected) != len(token) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(token)) == 1
}

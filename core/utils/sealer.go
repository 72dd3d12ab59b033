package utils

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/nacl/secretbox"
)

const sealedPrefix = "sb1:"

var ErrUnseal = errors.New("unable to unseal value")

// Sealer encrypts token material at rest. A Sealer without a key passes values
// through, and Open accepts plaintext written before a key was configured.
type Sealer struct {
	key *[32]byte
}

// NewSealer decodes a base64 32 byte key. An empty key disables sealing.
func NewSealer(encodedKey string) (*Sealer, error) {
	if strings.TrimSpace(encodedKey) == "" {
		return &Sealer{}, nil
	}
	raw, err := base64.StdEncoding.DecodeString(encodedKey)
	if err != nil {
		return nil, fmt.Errorf("token encryption key: %w", err)
	}
	if len(raw) != 32 {
		return nil, fmt.Errorf("token encryption key must be 32 bytes, got %d", len(raw))
	}
	var key [32]byte
	copy(key[:], raw)
	return &Sealer{key: &key}, nil
}

func (s *Sealer) Enabled() bool {
	return s != nil && s.key != nil
}

func (s *Sealer) Seal(plain string) (string, error) {
	if !s.Enabled() || plain == "" {
		return plain, nil
	}
	var nonce [24]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", err
	}
	out := secretbox.Seal(nonce[:], []byte(plain), &nonce, s.key)
	return sealedPrefix + base64.RawStdEncoding.EncodeToString(out), nil
}

func (s *Sealer) Open(stored string) (string, error) {
	if !strings.HasPrefix(stored, sealedPrefix) {
		return stored, nil
	}
	if !s.Enabled() {
		return "", fmt.Errorf("%w: no key configured", ErrUnseal)
	}
	raw, err := base64.RawStdEncoding.DecodeString(strings.TrimPrefix(stored, sealedPrefix))
	if err != nil || len(raw) < 24+secretbox.Overhead {
		return "", ErrUnseal
	}
	var nonce [24]byte
	copy(nonce[:], raw[:24])
	plain, ok := secretbox.Open(nil, raw[24:], &nonce, s.key)
	if !ok {
		return "", ErrUnseal
	}
	return string(plain), nil
}

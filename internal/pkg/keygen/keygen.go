// Package keygen produces company identifiers and API keys.
package keygen

import (
	"crypto/rand"
	"fmt"

	"github.com/google/uuid"
	"github.com/mr-tron/base58"
)

// APIKeySize is the number of random bytes behind an API key.
const APIKeySize = 32

// Generator creates identifiers and credentials.
type Generator interface {
	GUID(prefix string) string
	APIKey() (string, error)
}

type defaultGenerator struct{}

// Default is the generator used when none is injected.
var Default Generator = defaultGenerator{}

func (defaultGenerator) GUID(prefix string) string {
	return NewGUID(prefix)
}

func (defaultGenerator) APIKey() (string, error) {
	return NewAPIKey()
}

// NewGUID returns prefix followed by the base58 form of a random UUID.
func NewGUID(prefix string) string {
	id := uuid.New()
	return prefix + base58.Encode(id[:])
}

// NewAPIKey returns APIKeySize random bytes encoded as base58.
func NewAPIKey() (string, error) {
	buf := make([]byte, APIKeySize)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return base58.Encode(buf), nil
}

// Package crypto generates the opaque credentials handed out by the server.
package crypto

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

const (
	longTokenBytes  = 32 // access tokens, refresh tokens, client secrets
	shortTokenBytes = 16 // authorization codes, client ids
)

// TokenGenerator produces hex encoded random strings from crypto/rand.
type TokenGenerator struct{}

// NewTokenGenerator returns a TokenGenerator.
func NewTokenGenerator() *TokenGenerator {
	return &TokenGenerator{}
}

func (g *TokenGenerator) GenerateAccessToken() string { return randomHex(longTokenBytes) }

func (g *TokenGenerator) GenerateRefreshToken() string { return randomHex(longTokenBytes) }

func (g *TokenGenerator) GenerateAuthorizationCode() string { return randomHex(shortTokenBytes) }

func (g *TokenGenerator) GenerateClientID() string { return randomHex(shortTokenBytes) }

func (g *TokenGenerator) GenerateClientSecret() string { return randomHex(longTokenBytes) }

// randomHex panics when the entropy source fails; there is no way to
// continue issuing credentials without it.
func randomHex(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("crypto: reading random bytes: %v", err))
	}
	return hex.EncodeToString(b)
}

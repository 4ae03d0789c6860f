package services

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"

	"go.pilab.hu/shadow-oauth/domain"
	serrors "go.pilab.hu/shadow-oauth/errors"
)

// PKCEValidator verifies a code_verifier against a stored code_challenge (RFC 7636).
type PKCEValidator struct{}

// NewPKCEValidator creates a new PKCE validator.
func NewPKCEValidator() *PKCEValidator {
	return &PKCEValidator{}
}

// Validate reports whether verifier matches challenge under method. Unknown
// methods fail with invalid_request. All comparisons are constant-time.
func (v *PKCEValidator) Validate(verifier, challenge, method string) (bool, error) {
	switch method {
	case domain.CodeChallengePlain:
		return constantTimeEqual(challenge, verifier), nil
	case domain.CodeChallengeS256:
		return constantTimeEqual(challenge, S256Challenge(verifier)), nil
	default:
		return false, serrors.NewUnsupportedPKCEMethod(method)
	}
}

// SupportsMethod reports whether method is a known challenge method.
func (v *PKCEValidator) SupportsMethod(method string) bool {
	return method == domain.CodeChallengePlain || method == domain.CodeChallengeS256
}

// S256Challenge computes base64url(SHA256(verifier)) without padding.
func S256Challenge(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

func constantTimeEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

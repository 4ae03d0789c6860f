package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	serrors "go.pilab.hu/shadow-oauth/errors"
)

func TestS256Challenge(t *testing.T) {
	// RFC 7636 appendix B
	assert.Equal(t,
		"E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cM",
		S256Challenge("dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk"))
}

func TestPKCEValidator(t *testing.T) {
	v := NewPKCEValidator()
	verifier := "dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk"

	tests := []struct {
		name      string
		verifier  string
		challenge string
		method    string
		want      bool
	}{
		{"S256 match", verifier, S256Challenge(verifier), "S256", true},
		{"S256 wrong verifier", "other", S256Challenge(verifier), "S256", false},
		{"S256 does not accept plain challenge", verifier, verifier, "S256", false},
		{"plain match", "abc", "abc", "plain", true},
		{"plain mismatch", "abc", "abd", "plain", false},
		{"plain does not accept hashed challenge", verifier, S256Challenge(verifier), "plain", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := v.Validate(tt.verifier, tt.challenge, tt.method)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestPKCEValidatorUnsupportedMethod(t *testing.T) {
	ok, err := NewPKCEValidator().Validate("abc", "abc", "foo")
	assert.False(t, ok)
	assert.ErrorIs(t, err, serrors.ErrInvalidRequest)
	assert.False(t, NewPKCEValidator().SupportsMethod("s256"))
}

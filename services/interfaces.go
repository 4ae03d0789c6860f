package services

// PasswordHasher hashes and verifies client secrets.
type PasswordHasher interface {
	Hash(secret string) (string, error)
	Verify(hashed, secret string) error
}

// TokenGenerator produces opaque random credential values.
type TokenGenerator interface {
	GenerateAccessToken() string
	GenerateRefreshToken() string
	GenerateAuthorizationCode() string
	GenerateClientID() string
	GenerateClientSecret() string
}

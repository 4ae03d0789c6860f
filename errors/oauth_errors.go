package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// OAuth2Error represents a standardized OAuth 2.0 error
type OAuth2Error struct {
	Code        string `json:"error"`
	Description string `json:"error_description,omitempty"`
	Status      int    `json:"-"`
}

func (e *OAuth2Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// Is reports whether target is an *OAuth2Error carrying the same code.
func (e *OAuth2Error) Is(target error) bool {
	var t *OAuth2Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// Standard OAuth2 error codes
const (
	InvalidRequest       = "invalid_request"
	InvalidClient        = "invalid_client"
	InvalidGrant         = "invalid_grant"
	InvalidScope         = "invalid_scope"
	InvalidToken         = "invalid_token"
	InsufficientScope    = "insufficient_scope"
	UnauthorizedClient   = "unauthorized_client"
	UnsupportedGrantType = "unsupported_grant_type"
	ServerError          = "server_error"
)

// Sentinels for errors.Is matching by code.
var (
	ErrInvalidRequest       = &OAuth2Error{Code: InvalidRequest}
	ErrInvalidClient        = &OAuth2Error{Code: InvalidClient}
	ErrInvalidGrant         = &OAuth2Error{Code: InvalidGrant}
	ErrInvalidScope         = &OAuth2Error{Code: InvalidScope}
	ErrInvalidToken         = &OAuth2Error{Code: InvalidToken}
	ErrInsufficientScope    = &OAuth2Error{Code: InsufficientScope}
	ErrUnauthorizedClient   = &OAuth2Error{Code: UnauthorizedClient}
	ErrUnsupportedGrantType = &OAuth2Error{Code: UnsupportedGrantType}
)

func newError(code string, status int, description string) *OAuth2Error {
	return &OAuth2Error{
		Code:        code,
		Description: description,
		Status:      status,
	}
}

// Common error constructors
func NewInvalidRequest(description string) *OAuth2Error {
	return newError(InvalidRequest, http.StatusBadRequest, description)
}

func NewInvalidClient(description string) *OAuth2Error {
	return newError(InvalidClient, http.StatusUnauthorized, description)
}

func NewInvalidGrant(description string) *OAuth2Error {
	return newError(InvalidGrant, http.StatusBadRequest, description)
}

func NewInvalidScope(description string) *OAuth2Error {
	return newError(InvalidScope, http.StatusBadRequest, description)
}

// NewInvalidScopeList builds an invalid_scope error naming the offending scopes.
func NewInvalidScopeList(prefix string, scopes []string) *OAuth2Error {
	return NewInvalidScope(fmt.Sprintf("%s: %s", prefix, strings.Join(scopes, ", ")))
}

func NewInvalidToken(description string) *OAuth2Error {
	return newError(InvalidToken, http.StatusUnauthorized, description)
}

func NewInsufficientScope(description string) *OAuth2Error {
	return newError(InsufficientScope, http.StatusForbidden, description)
}

func NewUnauthorizedClient(description string) *OAuth2Error {
	return newError(UnauthorizedClient, http.StatusBadRequest, description)
}

func NewUnsupportedGrantType(grantType string) *OAuth2Error {
	return newError(UnsupportedGrantType, http.StatusBadRequest,
		fmt.Sprintf("Grant type %q is not supported", grantType))
}

func NewServerError(description string) *OAuth2Error {
	return newError(ServerError, http.StatusInternalServerError, description)
}

// PKCE specific errors
func NewPKCEVerifierRequired() *OAuth2Error {
	return NewInvalidRequest("Code verifier required for PKCE")
}

func NewUnsupportedPKCEMethod(method string) *OAuth2Error {
	return NewInvalidRequest(fmt.Sprintf("Unsupported code challenge method: %s", method))
}

// AsOAuth2Error unwraps err looking for an *OAuth2Error.
func AsOAuth2Error(err error) (*OAuth2Error, bool) {
	var oerr *OAuth2Error
	if errors.As(err, &oerr) {
		return oerr, true
	}
	return nil, false
}

// StatusCode returns the HTTP status for err. Errors outside the OAuth2
// taxonomy map to 500.
func StatusCode(err error) int {
	if oerr, ok := AsOAuth2Error(err); ok && oerr.Status != 0 {
		return oerr.Status
	}
	return http.StatusInternalServerError
}

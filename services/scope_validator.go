package services

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"go.pilab.hu/shadow-oauth/domain"
	serrors "go.pilab.hu/shadow-oauth/errors"
)

// ScopeValidator checks requested scopes against the global registry and a
// client's permitted scopes.
type ScopeValidator struct {
	scopes domain.ScopeRepository
}

// NewScopeValidator creates a new ScopeValidator.
func NewScopeValidator(scopes domain.ScopeRepository) *ScopeValidator {
	return &ScopeValidator{scopes: scopes}
}

// Validate returns requested unchanged when every scope exists and is in
// allowed. Unknown scopes are reported before disallowed ones.
func (v *ScopeValidator) Validate(ctx context.Context, requested, allowed []string) ([]string, error) {
	if len(requested) == 0 {
		return []string{}, nil
	}

	found, err := v.scopes.FindByIdentifiers(ctx, requested)
	if err != nil {
		return nil, fmt.Errorf("failed to look up scopes: %w", err)
	}

	known := make(map[string]struct{}, len(found))
	for _, s := range found {
		known[s.Identifier] = struct{}{}
	}

	var unknown, disallowed []string
	for _, s := range requested {
		if _, ok := known[s]; !ok {
			unknown = append(unknown, s)
			continue
		}
		if !slices.Contains(allowed, s) {
			disallowed = append(disallowed, s)
		}
	}

	if len(unknown) > 0 {
		return nil, serrors.NewInvalidScopeList("Invalid scopes requested", unknown)
	}
	if len(disallowed) > 0 {
		return nil, serrors.NewInvalidScopeList("Scopes not allowed for this client", disallowed)
	}

	return requested, nil
}

// ParseScopes splits a space-delimited scope parameter.
func ParseScopes(scope string) []string {
	return strings.Fields(scope)
}

// JoinScopes renders scopes as a space-delimited scope parameter.
func JoinScopes(scopes []string) string {
	return strings.Join(scopes, " ")
}

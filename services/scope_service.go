package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.pilab.hu/shadow-oauth/domain"
	"go.pilab.hu/shadow-oauth/internal/audit"
)

// ScopeService administers the scope registry.
type ScopeService struct {
	scopes domain.ScopeRepository
}

// NewScopeService creates a new ScopeService.
func NewScopeService(scopes domain.ScopeRepository) *ScopeService {
	return &ScopeService{scopes: scopes}
}

// CreateScope registers a scope. Identifiers are single tokens without spaces.
func (s *ScopeService) CreateScope(ctx context.Context, identifier, description string, isDefault bool) (*domain.Scope, error) {
	if identifier == "" || strings.ContainsAny(identifier, " \t\n\"\\") {
		return nil, errors.New("invalid scope identifier")
	}

	scope := &domain.Scope{
		Identifier:  identifier,
		Description: description,
		IsDefault:   isDefault,
		CreatedAt:   time.Now(),
	}
	err := s.scopes.Save(ctx, scope)
	audit.Log(audit.Event{Service: "scope_registry", Action: "create_scope", Target: identifier, Success: err == nil}, err)
	if err != nil {
		return nil, fmt.Errorf("failed to save scope: %w", err)
	}
	return scope, nil
}

// ListScopes returns the whole registry.
func (s *ScopeService) ListScopes(ctx context.Context) ([]*domain.Scope, error) {
	return s.scopes.FindAll(ctx)
}

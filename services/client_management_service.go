package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.pilab.hu/shadow-oauth/domain"
	serrors "go.pilab.hu/shadow-oauth/errors"
	"go.pilab.hu/shadow-oauth/internal/audit"
	applog "go.pilab.hu/shadow-oauth/log"
)

const auditServiceClients = "client_management"

// CreateClientRequest describes a client to register.
type CreateClientRequest struct {
	Name          string
	Description   string
	RedirectURIs  []string
	GrantTypes    []domain.GrantType
	AllowedScopes []string
	Confidential  bool
}

// CreatedClient is returned once on registration. The plaintext secret is
// never stored and cannot be retrieved later.
type CreatedClient struct {
	Client       *domain.Client
	ClientSecret string
}

// ClientManagementService registers and administers OAuth2 clients.
type ClientManagementService struct {
	clients   domain.ClientRepository
	generator TokenGenerator
	hasher    PasswordHasher
	access    *AccessTokenService
	refresh   *RefreshTokenService
	logger    applog.Logger
}

// NewClientManagementService creates a new ClientManagementService.
func NewClientManagementService(
	clients domain.ClientRepository,
	generator TokenGenerator,
	hasher PasswordHasher,
	access *AccessTokenService,
	refresh *RefreshTokenService,
	logger applog.Logger,
) *ClientManagementService {
	return &ClientManagementService{
		clients:   clients,
		generator: generator,
		hasher:    hasher,
		access:    access,
		refresh:   refresh,
		logger:    logger,
	}
}

// CreateClient generates credentials for a new active client.
func (s *ClientManagementService) CreateClient(ctx context.Context, req CreateClientRequest) (*CreatedClient, error) {
	if req.Name == "" {
		return nil, serrors.NewInvalidRequest("Client name is required")
	}
	if len(req.GrantTypes) == 0 {
		return nil, serrors.NewInvalidRequest("At least one grant type is required")
	}
	for _, g := range req.GrantTypes {
		if !g.Valid() {
			return nil, serrors.NewInvalidRequest(fmt.Sprintf("Unsupported grant type %q", g))
		}
	}

	secret := s.generator.GenerateClientSecret()
	hash, err := s.hasher.Hash(secret)
	if err != nil {
		return nil, fmt.Errorf("failed to hash client secret: %w", err)
	}

	now := time.Now()
	client := &domain.Client{
		ID:            uuid.NewString(),
		ClientID:      s.generator.GenerateClientID(),
		SecretHash:    hash,
		Name:          req.Name,
		Description:   req.Description,
		RedirectURIs:  req.RedirectURIs,
		GrantTypes:    req.GrantTypes,
		AllowedScopes: req.AllowedScopes,
		Confidential:  req.Confidential,
		Active:        true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.clients.Save(ctx, client); err != nil {
		audit.Log(audit.Event{Service: auditServiceClients, Action: "create_client", Target: client.ClientID}, err)
		return nil, fmt.Errorf("failed to save client: %w", err)
	}

	audit.Log(audit.Event{Service: auditServiceClients, Action: "create_client", Target: client.ClientID, Details: client.Name, Success: true}, nil)
	s.logger.Info(ctx, "Client created", applog.Fields{"client_id": client.ClientID, "name": client.Name})

	return &CreatedClient{Client: client, ClientSecret: secret}, nil
}

// ListClients returns every client, or only active ones.
func (s *ClientManagementService) ListClients(ctx context.Context, activeOnly bool) ([]*domain.Client, error) {
	if activeOnly {
		return s.clients.FindActive(ctx)
	}
	return s.clients.FindAll(ctx)
}

// GetClient fails with domain.ErrNotFound for unknown ids.
func (s *ClientManagementService) GetClient(ctx context.Context, clientID string) (*domain.Client, error) {
	return s.clients.GetByClientID(ctx, clientID)
}

// DeactivateClient makes the client fail authentication without deleting it.
func (s *ClientManagementService) DeactivateClient(ctx context.Context, clientID string) error {
	client, err := s.clients.GetByClientID(ctx, clientID)
	if err != nil {
		return err
	}
	client.Active = false
	client.UpdatedAt = time.Now()

	err = s.clients.Save(ctx, client)
	audit.Log(audit.Event{Service: auditServiceClients, Action: "deactivate_client", Target: clientID, Success: err == nil}, err)
	return err
}

// DeleteClient revokes every token of the client and removes it.
func (s *ClientManagementService) DeleteClient(ctx context.Context, clientID string) error {
	if _, err := s.clients.GetByClientID(ctx, clientID); err != nil {
		return err
	}

	accessCount, err := s.access.RevokeAllForClient(ctx, clientID)
	if err != nil {
		return err
	}
	refreshCount, err := s.refresh.RevokeAllForClient(ctx, clientID)
	if err != nil {
		return err
	}

	err = s.clients.Delete(ctx, clientID)
	audit.Log(audit.Event{
		Service: auditServiceClients,
		Action:  "delete_client",
		Target:  clientID,
		Details: fmt.Sprintf("revoked %d access and %d refresh tokens", accessCount, refreshCount),
		Success: err == nil,
	}, err)
	if err != nil {
		return fmt.Errorf("failed to delete client: %w", err)
	}

	s.logger.Info(ctx, "Client deleted", applog.Fields{
		"client_id":      clientID,
		"access_tokens":  accessCount,
		"refresh_tokens": refreshCount,
	})
	return nil
}

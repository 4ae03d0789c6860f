package echo

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.pilab.hu/shadow-oauth/domain"
	serrors "go.pilab.hu/shadow-oauth/errors"
	"go.pilab.hu/shadow-oauth/middleware"
	"go.pilab.hu/shadow-oauth/services"
)

// ScopeAdmin is the scope a user token needs for the client administration
// endpoints.
const ScopeAdmin = "admin"

// ClientAPI exposes client administration over HTTP.
type ClientAPI struct {
	clients *services.ClientManagementService
	tokens  middleware.TokenValidator
}

// NewClientAPI creates a new ClientAPI.
func NewClientAPI(clients *services.ClientManagementService, tokens middleware.TokenValidator) *ClientAPI {
	return &ClientAPI{clients: clients, tokens: tokens}
}

// RegisterRoutes registers the /api/clients routes.
func (ca *ClientAPI) RegisterRoutes(e *echo.Echo) {
	admin := func(h middleware.TokenHandlerFunc) echo.HandlerFunc {
		return middleware.BearerAuth(ca.tokens, true, middleware.RequireScopes(h, ScopeAdmin))
	}

	g := e.Group("/api/clients")
	g.GET("", admin(ca.ListHandler))
	g.POST("", admin(ca.CreateHandler))
	g.GET("/:client_id", admin(ca.GetHandler))
	g.DELETE("/:client_id", admin(ca.DeleteHandler))
	g.POST("/:client_id/deactivate", admin(ca.DeactivateHandler))
}

type createClientParams struct {
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	RedirectURIs  []string `json:"redirect_uris"`
	GrantTypes    []string `json:"grant_types"`
	AllowedScopes []string `json:"allowed_scopes"`
	Confidential  bool     `json:"confidential"`
}

type createdClientResponse struct {
	*domain.Client
	ClientSecret string `json:"client_secret"`
}

// ListHandler lists clients; ?active=true restricts to active ones.
func (ca *ClientAPI) ListHandler(c echo.Context, _ *domain.AccessToken) error {
	activeOnly, _ := strconv.ParseBool(c.QueryParam("active"))

	clients, err := ca.clients.ListClients(c.Request().Context(), activeOnly)
	if err != nil {
		return writeError(c, err)
	}
	if clients == nil {
		clients = []*domain.Client{}
	}

	return c.JSON(http.StatusOK, clients)
}

// CreateHandler registers a client. The secret is only ever returned here.
func (ca *ClientAPI) CreateHandler(c echo.Context, _ *domain.AccessToken) error {
	var params createClientParams
	if err := c.Bind(&params); err != nil {
		return writeError(c, serrors.NewInvalidRequest("Malformed client registration"))
	}

	grantTypes := make([]domain.GrantType, 0, len(params.GrantTypes))
	for _, g := range params.GrantTypes {
		grantTypes = append(grantTypes, domain.GrantType(g))
	}

	created, err := ca.clients.CreateClient(c.Request().Context(), services.CreateClientRequest{
		Name:          params.Name,
		Description:   params.Description,
		RedirectURIs:  params.RedirectURIs,
		GrantTypes:    grantTypes,
		AllowedScopes: params.AllowedScopes,
		Confidential:  params.Confidential,
	})
	if err != nil {
		return writeError(c, err)
	}

	c.Response().Header().Set(echo.HeaderCacheControl, "no-store")

	return c.JSON(http.StatusCreated, createdClientResponse{Client: created.Client, ClientSecret: created.ClientSecret})
}

func (ca *ClientAPI) GetHandler(c echo.Context, _ *domain.AccessToken) error {
	client, err := ca.clients.GetClient(c.Request().Context(), c.Param("client_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, client)
}

// DeleteHandler removes the client and revokes its tokens.
func (ca *ClientAPI) DeleteHandler(c echo.Context, _ *domain.AccessToken) error {
	if err := ca.clients.DeleteClient(c.Request().Context(), c.Param("client_id")); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (ca *ClientAPI) DeactivateHandler(c echo.Context, _ *domain.AccessToken) error {
	if err := ca.clients.DeactivateClient(c.Request().Context(), c.Param("client_id")); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

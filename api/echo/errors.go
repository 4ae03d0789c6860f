package echo

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"go.pilab.hu/shadow-oauth/domain"
	serrors "go.pilab.hu/shadow-oauth/errors"
)

// writeError renders err as an OAuth2 error body. Errors outside the OAuth2
// taxonomy become server_error without leaking details.
func writeError(c echo.Context, err error) error {
	oerr, ok := serrors.AsOAuth2Error(err)
	if !ok {
		if errors.Is(err, domain.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{
				"error":             "not_found",
				"error_description": "Resource not found",
			})
		}

		log.Error().Ctx(c.Request().Context()).Err(err).Str("path", c.Path()).Msg("Request failed")
		oerr = serrors.NewServerError("Internal server error")
	}

	status := oerr.Status
	if status == 0 {
		status = http.StatusBadRequest
	}

	if oerr.Code == serrors.InvalidClient && usesBasicAuth(c) {
		c.Response().Header().Set(echo.HeaderWWWAuthenticate, `Basic realm="oauth2"`)
	}

	return c.JSON(status, oerr)
}

func usesBasicAuth(c echo.Context) bool {
	scheme, _, _ := strings.Cut(c.Request().Header.Get(echo.HeaderAuthorization), " ")
	return strings.EqualFold(scheme, "Basic")
}

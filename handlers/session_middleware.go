package handlers

import (
	"net/http"
	"strings"

	"nup_registration/services"
	"nup_registration/utils"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
)

const claimsContextKey = "sessionClaims"

// SessionTokenMiddleware only lets a request through when its token was
// issued for the session named in the path.
func SessionTokenMiddleware(tokens *services.JWTService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := sessionTokenFromRequest(c)
			if token == "" {
				return utils.ErrorResponse(c, http.StatusUnauthorized, "Session token is required", nil)
			}

			claims, err := tokens.ValidateToken(token)
			if err != nil {
				log.WithError(err).Debug("Rejected session token")
				return utils.ErrorResponse(c, http.StatusUnauthorized, "Invalid or expired session token", nil)
			}
			if claims.SessionID != c.Param("id") {
				return utils.ErrorResponse(c, http.StatusForbidden, "Token does not belong to this session", nil)
			}

			c.Set(claimsContextKey, claims)
			return next(c)
		}
	}
}

// sessionTokenFromRequest looks in the Authorization header, then the query string.
func sessionTokenFromRequest(c echo.Context) string {
	authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
	if token, ok := strings.CutPrefix(authHeader, "Bearer "); ok && token != "" {
		return token
	}
	return c.QueryParam("token")
}

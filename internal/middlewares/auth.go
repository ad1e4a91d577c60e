package middlewares

import (
	"crypto/subtle"
	"fmt"

	"github.com/labstack/echo/v4"

	"github.com/nightjar-records/pressroom/environments"
	"github.com/nightjar-records/pressroom/pkg/response"
)

const (
	// APIKeyHeader carries the shared secret for internal endpoints.
	APIKeyHeader = "x-pressroom-key"
)

// secureCompare compares two strings in a way that is safer against timing attacks.
func secureCompare(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// InternalAuth gates the composer's endpoints with either the shared-secret
// header or HTTP Basic credentials. With neither configured it fails closed:
// every request is rejected as a server-side misconfiguration.
func InternalAuth(cfg environments.AuthConfig) echo.MiddlewareFunc {
	keyConfigured := cfg.InternalAPIKey != ""
	basicConfigured := cfg.BasicUser != "" && cfg.BasicPass != ""

	if !keyConfigured && !basicConfigured {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error {
				return response.InternalServerError(
					c,
					fmt.Errorf("no credentials are configured for internal endpoints"),
				)
			}
		}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if keyConfigured {
				token := c.Request().Header.Get(APIKeyHeader)
				if token != "" && secureCompare(token, cfg.InternalAPIKey) {
					return next(c)
				}
			}

			if basicConfigured {
				user, pass, ok := c.Request().BasicAuth()
				if ok && secureCompare(user, cfg.BasicUser) && secureCompare(pass, cfg.BasicPass) {
					return next(c)
				}
				c.Response().Header().Set(echo.HeaderWWWAuthenticate, `Basic realm="pressroom"`)
			}

			return response.Unauthorized(c)
		}
	}
}

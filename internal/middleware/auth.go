package middleware

import (
	"checkout-builder/internal/apperr"
	"checkout-builder/internal/service"
	"strings"

	"github.com/labstack/echo/v4"
)

const merchantIDKey = "merchant_id"

// AuthMiddleware requires a bearer session token and stores the merchant id
// it carries on the context.
func AuthMiddleware(tokens service.TokenService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || strings.TrimSpace(token) == "" {
				return apperr.UnauthorizedErr("Please log in.")
			}

			merchantID, err := tokens.Parse(strings.TrimSpace(token))
			if err != nil {
				return err
			}

			c.Set(merchantIDKey, merchantID)
			return next(c)
		}
	}
}

// MerchantID returns the id set by AuthMiddleware.
func MerchantID(c echo.Context) string {
	id, _ := c.Get(merchantIDKey).(string)
	return id
}

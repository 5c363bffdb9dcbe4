package auth

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"

	"github.com/goatbot786-md/goattecc-bot/pkg/env"
	"github.com/goatbot786-md/goattecc-bot/pkg/router"
)

// AdminSecretKey guards the fleet-wide endpoints (reconnect, teardown)
var AdminSecretKey string

func init() {
	AdminSecretKey, _ = env.GetEnvString("ADMIN_SECRET_KEY")
}

// AdminAuth validates the X-Admin-Secret header for admin endpoints
func AdminAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		adminSecret := c.Get("X-Admin-Secret")
		if adminSecret == "" {
			return router.ResponseUnauthorized(c, "Missing X-Admin-Secret header")
		}

		if AdminSecretKey == "" {
			return router.ResponseInternalError(c, "Admin secret key not configured")
		}

		if subtle.ConstantTimeCompare([]byte(adminSecret), []byte(AdminSecretKey)) != 1 {
			return router.ResponseUnauthorized(c, "Invalid admin secret")
		}

		return c.Next()
	}
}

func isAdminSecret(secret string) bool {
	return AdminSecretKey != "" &&
		subtle.ConstantTimeCompare([]byte(secret), []byte(AdminSecretKey)) == 1
}

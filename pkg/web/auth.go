package web

import (
	"strings"

	"github.com/dukex/n8n-dashboard/pkg/n8n"
	"github.com/gofiber/fiber/v3"
)

type apiKeyContextKey struct{}

// RequireAPIKey rejects requests carrying neither an X-N8N-API-KEY header
// nor a bearer token. The presented key is stored in the request locals.
func RequireAPIKey() fiber.Handler {
	return func(c fiber.Ctx) error {
		key := strings.TrimSpace(c.Get(n8n.APIKeyHeader))
		if key == "" {
			auth := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
			if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
				key = strings.TrimSpace(token)
			}
		}

		if key == "" {
			return writeError(c, fiber.StatusUnauthorized, CodeUnauthorized, messageAPIKeyRequired, nil, false)
		}

		c.Locals(apiKeyContextKey{}, key)

		return c.Next()
	}
}

// APIKey returns the key accepted by RequireAPIKey, if any.
func APIKey(c fiber.Ctx) string {
	key, _ := c.Locals(apiKeyContextKey{}).(string)

	return key
}

package middleware

import (
	"github.com/gofiber/fiber/v2"

	"cognitolearn/backend/config"
	"cognitolearn/backend/utils"
)

func AuthMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		_, err := utils.ExtractUserIDFromToken(c, cfg)
		if err != nil {
			return utils.Unauthorized(c)
		}
		return c.Next()
	}
}

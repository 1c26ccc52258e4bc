// middleware/auth.go
package middleware

import (
	"errors"
	"log"

	"atlas-score-engine/models"
	"atlas-score-engine/store"

	"github.com/gofiber/fiber/v2"
)

// PlayerContextMiddleware resolves the caller's secret to a player record and
// attaches it to the request context. The secret travels in the
// X-Player-Secret header (query fallback for legacy clients).
func PlayerContextMiddleware(players store.PlayerStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		secret := c.Get("X-Player-Secret")
		if secret == "" {
			secret = c.Query("secret")
		}
		if secret == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing player secret",
			})
		}

		player, err := players.FindBySecret(c.UserContext(), secret)
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "User not found",
			})
		}
		if err != nil {
			log.Printf("[Auth] failed to resolve player secret: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "An error occurred",
			})
		}

		c.Locals("player", player)
		return c.Next()
	}
}

// CurrentPlayer pulls the player resolved by PlayerContextMiddleware, nil when
// the route is unauthenticated.
func CurrentPlayer(c *fiber.Ctx) *models.Player {
	player, _ := c.Locals("player").(*models.Player)
	return player
}

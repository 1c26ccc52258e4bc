// handlers/leaderboard.go
package handlers

import (
	"atlas-score-engine/middleware"
	"atlas-score-engine/models"
	"atlas-score-engine/services"
	"atlas-score-engine/store"

	"github.com/gofiber/fiber/v2"
)

func SetupLeaderboardRoutes(app *fiber.App, leaderboards *services.LeaderboardService, ratings *services.RatingService, players store.PlayerStore) {
	// 🔓 Public: rankings need no player context; callers pass their own
	// username when they want their position attached.
	app.Post("/leaderboard", func(c *fiber.Ctx) error {
		var req struct {
			Mode     string `json:"mode"`
			PastDay  bool   `json:"pastDay"`
			Username string `json:"username"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}

		mode := models.ModeElo
		if req.Mode == "xp" {
			mode = models.ModeXP
		}

		result, err := leaderboards.GetLeaderboard(c.UserContext(), mode, req.PastDay, req.Username)
		if err != nil {
			return fail(c, err)
		}

		// Legacy response shape: the score key is named after the mode.
		scoreKey := "myElo"
		if mode == models.ModeXP {
			scoreKey = "myXp"
		}
		return c.JSON(fiber.Map{
			"leaderboard": result.Leaderboard,
			"myRank":      result.MyRank,
			scoreKey:      result.MyScore,
		})
	})

	app.Get("/rating", func(c *fiber.Ctx) error {
		username := c.Query("username")
		secret := c.Get("X-Player-Secret")
		if username == "" && secret == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Username or secret is required"})
		}

		rating, err := ratings.GetPlayerRating(c.UserContext(), username, secret)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(rating)
	})

	// 🔐 Duel results come from the realtime server with a staff credential
	secured := app.Group("/rating/duel", middleware.PlayerContextMiddleware(players))
	secured.Post("/", func(c *fiber.Ctx) error {
		caller := middleware.CurrentPlayer(c)
		if !caller.Staff {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Access denied"})
		}

		var req struct {
			WinnerID string `json:"winnerId"`
			LoserID  string `json:"loserId"`
			Draw     bool   `json:"draw"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}
		if req.WinnerID == "" || req.LoserID == "" || req.WinnerID == req.LoserID {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input"})
		}

		winnerElo, loserElo, err := ratings.ApplyDuel(c.UserContext(), req.WinnerID, req.LoserID, req.Draw)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"success": true, "winnerElo": winnerElo, "loserElo": loserElo})
	})
}

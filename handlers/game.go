// handlers/game.go
package handlers

import (
	"atlas-score-engine/middleware"
	"atlas-score-engine/services"
	"atlas-score-engine/store"

	"github.com/gofiber/fiber/v2"
)

// recordRequest accepts both submission shapes: a finished singleplayer
// session carries a rounds array, a multiplayer round arrives flat.
type recordRequest struct {
	Rounds   []services.RoundSubmission `json:"rounds"`
	Location string                     `json:"location"`
	MaxDist  float64                    `json:"maxDist"`
	Official *bool                      `json:"official"`
	Elo      *services.EloUpdate        `json:"elo"`

	// single-round (multiplayer) fields
	Lat        float64 `json:"lat"`
	Long       float64 `json:"long"`
	ActualLat  float64 `json:"actualLat"`
	ActualLong float64 `json:"actualLong"`
	UsedHint   bool    `json:"usedHint"`
	RoundTime  float64 `json:"roundTime"`
}

func SetupGameRoutes(app *fiber.App, games *services.GameService, players store.PlayerStore) {
	// 🔐 All game routes need a resolved player
	secured := app.Group("/games", middleware.PlayerContextMiddleware(players))

	secured.Post("/", func(c *fiber.Ctx) error {
		player := middleware.CurrentPlayer(c)

		var req recordRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}

		if len(req.Rounds) > 0 {
			input := services.RecordGameInput{
				Rounds:   req.Rounds,
				Location: req.Location,
				MaxDist:  req.MaxDist,
				Official: req.Official,
				Elo:      req.Elo,
			}
			gameID, err := games.RecordGame(c.UserContext(), player, input)
			if err != nil {
				return fail(c, err)
			}
			return c.JSON(fiber.Map{"success": true, "gameId": gameID})
		}

		round := services.RoundSubmission{
			Lat:        req.Lat,
			Long:       req.Long,
			ActualLat:  req.ActualLat,
			ActualLong: req.ActualLong,
			UsedHint:   req.UsedHint,
			RoundTime:  req.RoundTime,
			MaxDist:    req.MaxDist,
		}
		if err := games.RecordRound(c.UserContext(), player, round); err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"success": true})
	})

	secured.Get("/history", func(c *fiber.Ctx) error {
		player := middleware.CurrentPlayer(c)
		limit := c.QueryInt("limit", 20)
		offset := c.QueryInt("offset", 0)

		history, total, err := games.GetGameHistory(c.UserContext(), player.ID, limit, offset)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{
			"games":      history,
			"totalCount": total,
			"hasMore":    int64(offset+limit) < total,
		})
	})

	secured.Get("/:gameId", func(c *fiber.Ctx) error {
		player := middleware.CurrentPlayer(c)
		game, err := games.GetGameDetails(c.UserContext(), c.Params("gameId"), player)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"game": game})
	})
}

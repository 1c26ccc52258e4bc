package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"atlas-score-engine/models"
	"atlas-score-engine/store"

	"github.com/google/uuid"
)

const (
	// DefaultMaxDist is the worldwide scoring falloff scale in km.
	DefaultMaxDist = 20000.0

	// interRoundGap approximates the pause between singleplayer rounds when
	// reconstructing game timing from round durations.
	interRoundGap = 10 * time.Second
)

// RoundSubmission is one round as reported by a client. Points and XP are set
// on the singleplayer batch path where the client already scored the round;
// the multiplayer path always scores server-side.
type RoundSubmission struct {
	Lat        float64 `json:"lat"` // guess
	Long       float64 `json:"long"`
	ActualLat  float64 `json:"actualLat"`
	ActualLong float64 `json:"actualLong"`
	UsedHint   bool    `json:"usedHint"`
	RoundTime  float64 `json:"roundTime"` // seconds
	MaxDist    float64 `json:"maxDist"`
	Points     *int    `json:"points,omitempty"`
	XP         *int64  `json:"xp,omitempty"`
	PanoID     *string `json:"panoId,omitempty"`
	Country    *string `json:"country,omitempty"`
	Place      *string `json:"place,omitempty"`
}

// EloUpdate carries the precomputed post-match rating for a competitive game.
type EloUpdate struct {
	NewElo int  `json:"newElo"`
	Draw   bool `json:"draw"`
	Winner bool `json:"winner"`
}

// RecordGameInput is a completed singleplayer session.
type RecordGameInput struct {
	Rounds   []RoundSubmission `json:"rounds"`
	Location string            `json:"location"`
	MaxDist  float64           `json:"maxDist"`
	Official *bool             `json:"official"`
	Elo      *EloUpdate        `json:"elo,omitempty"`
}

// GameService orchestrates match completion: score, persist, bump counters,
// apply rating, snapshot stats. Only the game write itself can fail the
// request; everything after it is best-effort.
type GameService struct {
	Players   store.PlayerStore
	Games     store.GameStore
	Snapshots store.SnapshotStore
	Rating    *RatingService

	now func() time.Time
}

func NewGameService(players store.PlayerStore, games store.GameStore, snapshots store.SnapshotStore, rating *RatingService) *GameService {
	return &GameService{
		Players:   players,
		Games:     games,
		Snapshots: snapshots,
		Rating:    rating,
		now:       time.Now,
	}
}

// validate rejects structurally impossible rounds before anything is written.
func (r RoundSubmission) validate() error {
	// A guess that shares a coordinate with the target is a replayed or
	// forged payload, not a legitimate pin drop.
	if r.Lat == r.ActualLat || r.Long == r.ActualLong {
		return fmt.Errorf("%w: guess equals target", ErrInvalidInput)
	}
	if r.RoundTime < 0 {
		return fmt.Errorf("%w: negative round time", ErrInvalidInput)
	}
	if r.Points != nil {
		if *r.Points < 0 || *r.Points > MaxRoundPoints {
			return fmt.Errorf("%w: supplied points out of range", ErrInvalidInput)
		}
		if r.MaxDist != 0 && r.MaxDist < MinMaxDist {
			return fmt.Errorf("%w: maxDist too small", ErrInvalidInput)
		}
	} else if r.MaxDist < MinMaxDist {
		return fmt.Errorf("%w: maxDist too small", ErrInvalidInput)
	}
	return nil
}

// RecordGame persists a completed singleplayer session as one immutable game
// record and returns its game id. Counter, rating and snapshot updates run
// after the write and never fail the call.
func (s *GameService) RecordGame(ctx context.Context, player *models.Player, input RecordGameInput) (string, error) {
	if len(input.Rounds) == 0 {
		return "", fmt.Errorf("%w: empty rounds list", ErrInvalidInput)
	}
	for _, r := range input.Rounds {
		if err := r.validate(); err != nil {
			return "", err
		}
	}

	gameID := "sp_" + uuid.NewString()

	// Reconstruct timing from round durations: the client reports when the
	// game ended, not when each round ran.
	var totalRoundTime float64
	for _, r := range input.Rounds {
		totalRoundTime += r.RoundTime
	}
	endedAt := s.now()
	startedAt := endedAt.
		Add(-time.Duration(totalRoundTime * float64(time.Second))).
		Add(-time.Duration(len(input.Rounds)) * interRoundGap)

	var totalPoints int
	var totalXP int64
	rounds := make([]models.GameRound, 0, len(input.Rounds))
	cursor := startedAt
	for i, r := range input.Rounds {
		points := 0
		if r.Points != nil {
			points = *r.Points
		} else {
			points = CalcPoints(Guess{
				Lat:      r.ActualLat,
				Lon:      r.ActualLong,
				GuessLat: r.Lat,
				GuessLon: r.Long,
				UsedHint: r.UsedHint,
				MaxDist:  r.MaxDist,
			})
		}
		xp := CalcXP(points)
		if r.XP != nil {
			xp = *r.XP
		}
		totalPoints += points
		totalXP += xp

		roundEnd := cursor.Add(time.Duration(r.RoundTime * float64(time.Second)))
		rounds = append(rounds, models.GameRound{
			RoundNumber: i + 1,
			Location: models.RoundLocation{
				Lat:     r.ActualLat,
				Long:    r.ActualLong,
				PanoID:  r.PanoID,
				Country: r.Country,
				Place:   r.Place,
			},
			PlayerGuesses: []models.PlayerGuess{{
				PlayerID:  player.ID,
				Username:  displayName(player),
				GuessLat:  r.Lat,
				GuessLong: r.Long,
				Points:    points,
				TimeTaken: r.RoundTime,
				XPEarned:  xp,
				GuessedAt: roundEnd,
				UsedHint:  r.UsedHint,
			}},
			StartedAt: cursor,
			EndedAt:   roundEnd,
		})
		cursor = roundEnd.Add(interRoundGap)
	}

	maxDist := input.MaxDist
	if maxDist == 0 {
		maxDist = DefaultMaxDist
	}
	official := true
	if input.Official != nil {
		official = *input.Official
	}

	game := &models.Game{
		GameID:   gameID,
		GameType: models.GameTypeSingleplayer,
		Settings: models.GameSettings{
			Location: locationOrAll(input.Location),
			Rounds:   len(input.Rounds),
			MaxDist:  maxDist,
			Official: official,
		},
		StartedAt:     startedAt,
		EndedAt:       endedAt,
		TotalDuration: totalRoundTime,
		Rounds:        rounds,
		Players: []models.GamePlayer{{
			PlayerID:            player.ID,
			Username:            displayName(player),
			TotalPoints:         totalPoints,
			TotalXP:             totalXP,
			AverageTimePerRound: totalRoundTime / float64(len(input.Rounds)),
			FinalRank:           1,
		}},
		Result: models.GameResult{
			MaxPossiblePoints: len(input.Rounds) * MaxRoundPoints,
		},
	}

	if err := s.Games.Save(ctx, game); err != nil {
		return "", fmt.Errorf("save game: %w", err)
	}

	// The game is durably recorded from here on. One increment per game,
	// regardless of round count.
	if err := s.Players.UpdateCounters(ctx, player.ID, totalXP, 1); err != nil {
		log.Printf("[Recorder] failed to update counters for %s after game %s: %v", player.ID, gameID, err)
	}

	if input.Elo != nil {
		outcome := models.DuelOutcome{Draw: input.Elo.Draw, Winner: input.Elo.Winner}
		if err := s.Rating.SetElo(ctx, player.ID, input.Elo.NewElo, outcome); err != nil {
			log.Printf("[Recorder] failed to apply elo for %s after game %s: %v", player.ID, gameID, err)
		}
	}

	s.recordSnapshot(ctx, player.ID, gameID)

	log.Printf("[Recorder] saved singleplayer game %s for %s with %d points", gameID, displayName(player), totalPoints)
	return gameID, nil
}

// RecordRound handles the multiplayer path: a single round reported as it
// finishes. Points are always computed server-side here; no game record is
// written (the duel server owns the match document) and the games-played
// counter is untouched.
func (s *GameService) RecordRound(ctx context.Context, player *models.Player, round RoundSubmission) error {
	round.Points = nil // never trust per-round scores on this path
	if err := round.validate(); err != nil {
		return err
	}

	points := CalcPoints(Guess{
		Lat:      round.ActualLat,
		Lon:      round.ActualLong,
		GuessLat: round.Lat,
		GuessLon: round.Long,
		UsedHint: round.UsedHint,
		MaxDist:  round.MaxDist,
	})
	xp := CalcXP(points)

	if err := s.Players.UpdateCounters(ctx, player.ID, xp, 0); err != nil {
		return fmt.Errorf("update counters: %w", err)
	}

	s.recordSnapshot(ctx, player.ID, "round")
	return nil
}

// recordSnapshot appends a stats snapshot from the player's current totals.
// Snapshots are an analytics side-channel; failures are logged and swallowed.
func (s *GameService) recordSnapshot(ctx context.Context, playerID, origin string) {
	player, err := s.Players.FindByID(ctx, playerID)
	if err != nil {
		log.Printf("[Recorder] snapshot skipped for %s (%s): %v", playerID, origin, err)
		return
	}
	if err := s.Snapshots.Record(ctx, player.ID, player.Elo, player.TotalXP, s.now()); err != nil {
		log.Printf("[Recorder] failed to record snapshot for %s (%s): %v", playerID, origin, err)
	}
}

// GetGameDetails fetches one game; only participants and staff may see it.
func (s *GameService) GetGameDetails(ctx context.Context, gameID string, requester *models.Player) (*models.Game, error) {
	if gameID == "" {
		return nil, fmt.Errorf("%w: game id is required", ErrInvalidInput)
	}
	game, err := s.Games.FindByGameID(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if requester != nil && !game.HasPlayer(requester.ID) && !requester.Staff {
		return nil, ErrPermissionDenied
	}
	return game, nil
}

// GetGameHistory returns the player's games newest first plus the total count
// for pagination.
func (s *GameService) GetGameHistory(ctx context.Context, playerID string, limit, offset int) ([]models.Game, int64, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	games, err := s.Games.FindByPlayer(ctx, playerID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.Games.CountByPlayer(ctx, playerID)
	if err != nil {
		return nil, 0, err
	}
	return games, total, nil
}

func displayName(p *models.Player) string {
	if name := p.Name(); name != "" {
		return name
	}
	return "Player"
}

func locationOrAll(loc string) string {
	if loc == "" {
		return "all"
	}
	return loc
}

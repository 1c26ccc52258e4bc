package services

import (
	"context"
	"log"
	"math"

	"atlas-score-engine/models"
	"atlas-score-engine/store"
)

const (
	// DefaultElo is the rating every player starts from.
	DefaultElo = 1000

	// EloKFactor scales rating swings per duel.
	EloKFactor = 32
)

// League labels by rating, highest threshold first.
var leagueThresholds = []struct {
	min  int
	name string
}{
	{2000, "Master"},
	{1800, "Diamond"},
	{1600, "Platinum"},
	{1400, "Gold"},
	{1200, "Silver"},
	{1000, "Bronze"},
}

// League maps a rating to its display label. Anything under 1000 is Iron.
func League(elo int) string {
	for _, l := range leagueThresholds {
		if elo >= l.min {
			return l.name
		}
	}
	return "Iron"
}

// DuelResult is the outcome of a duel from player A's perspective.
type DuelResult int

const (
	DuelLoss DuelResult = iota
	DuelWin
	DuelDraw
)

// ExpectedScore is the classic ELO win expectancy for a player rated ra
// against an opponent rated rb.
func ExpectedScore(ra, rb int) float64 {
	return 1 / (1 + math.Pow(10, float64(rb-ra)/400))
}

// ComputeDuelRatings returns both players' new ratings after a duel. The
// update is zero-sum before rounding and floors at 0.
func ComputeDuelRatings(ra, rb int, result DuelResult) (newRa, newRb int) {
	var scoreA, scoreB float64
	switch result {
	case DuelWin:
		scoreA, scoreB = 1, 0
	case DuelLoss:
		scoreA, scoreB = 0, 1
	default:
		scoreA, scoreB = 0.5, 0.5
	}

	ea := ExpectedScore(ra, rb)
	eb := 1 - ea
	newRa = ra + int(math.Round(EloKFactor*(scoreA-ea)))
	newRb = rb + int(math.Round(EloKFactor*(scoreB-eb)))
	if newRa < 0 {
		newRa = 0
	}
	if newRb < 0 {
		newRb = 0
	}
	return newRa, newRb
}

// RatingService applies duel outcomes to player records and answers rating
// profile queries.
type RatingService struct {
	Players store.PlayerStore
}

func NewRatingService(players store.PlayerStore) *RatingService {
	return &RatingService{Players: players}
}

// SetElo sets the player's rating to the given value and bumps exactly one of
// the duel tallies. The new rating is computed by the caller (the realtime
// duel server knows both sides of the match); this just applies it.
func (s *RatingService) SetElo(ctx context.Context, playerID string, newElo int, outcome models.DuelOutcome) error {
	if err := s.Players.SetEloAndOutcome(ctx, playerID, newElo, outcome); err != nil {
		return err
	}
	return nil
}

// ApplyDuel computes and applies new ratings for both players of a finished
// duel. Returns the new ratings so the caller can report them.
func (s *RatingService) ApplyDuel(ctx context.Context, winnerID, loserID string, draw bool) (newWinnerElo, newLoserElo int, err error) {
	winner, err := s.Players.FindByID(ctx, winnerID)
	if err != nil {
		return 0, 0, err
	}
	loser, err := s.Players.FindByID(ctx, loserID)
	if err != nil {
		return 0, 0, err
	}

	result := DuelWin
	if draw {
		result = DuelDraw
	}
	newWinnerElo, newLoserElo = ComputeDuelRatings(winner.Elo, loser.Elo, result)

	if err := s.SetElo(ctx, winner.ID, newWinnerElo, models.DuelOutcome{Draw: draw, Winner: !draw}); err != nil {
		return 0, 0, err
	}
	if err := s.SetElo(ctx, loser.ID, newLoserElo, models.DuelOutcome{Draw: draw, Winner: false}); err != nil {
		// First write already landed; report the failure but keep the log
		// noisy enough to reconcile by hand.
		log.Printf("[Rating] applied elo for %s but failed for %s: %v", winner.ID, loser.ID, err)
		return 0, 0, err
	}
	return newWinnerElo, newLoserElo, nil
}

// GetPlayerRating returns the competitive profile for a player looked up by
// username or, when that is empty, by secret.
func (s *RatingService) GetPlayerRating(ctx context.Context, username, secret string) (*models.PlayerRating, error) {
	var player *models.Player
	var err error
	switch {
	case username != "":
		player, err = s.Players.FindByName(ctx, username)
	case secret != "":
		player, err = s.Players.FindBySecret(ctx, secret)
	default:
		return nil, ErrInvalidInput
	}
	if err != nil {
		return nil, err
	}

	above, err := s.Players.CountAbove(ctx, store.ScoreFieldElo, int64(player.Elo))
	if err != nil {
		return nil, err
	}

	totalDuels := player.DuelsWins + player.DuelsLosses + player.DuelsTied
	winRate := 0.0
	if totalDuels > 0 {
		winRate = float64(player.DuelsWins) / float64(totalDuels)
	}

	return &models.PlayerRating{
		Elo:         player.Elo,
		Rank:        int(above) + 1,
		League:      League(player.Elo),
		DuelsWins:   player.DuelsWins,
		DuelsLosses: player.DuelsLosses,
		DuelsTied:   player.DuelsTied,
		WinRate:     winRate,
	}, nil
}

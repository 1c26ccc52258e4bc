package services

import (
	"context"
	"errors"
	"time"

	"atlas-score-engine/models"
	"atlas-score-engine/store"
)

const (
	// DefaultLeaderboardSize caps every public ranking.
	DefaultLeaderboardSize = 100

	// DefaultRollingWindow is the trailing window for the "past day" views.
	DefaultRollingWindow = 24 * time.Hour
)

// LeaderboardService computes the public rankings. Full lists go through the
// RankCache; per-player rank lookups are cheap and always computed fresh.
type LeaderboardService struct {
	Players   store.PlayerStore
	Snapshots store.SnapshotStore
	Cache     *RankCache

	Size   int
	Window time.Duration

	now func() time.Time
}

func NewLeaderboardService(players store.PlayerStore, snapshots store.SnapshotStore, cache *RankCache) *LeaderboardService {
	return &LeaderboardService{
		Players:   players,
		Snapshots: snapshots,
		Cache:     cache,
		Size:      DefaultLeaderboardSize,
		Window:    DefaultRollingWindow,
		now:       time.Now,
	}
}

// GetLeaderboard returns the ranking for the given mode and window, plus the
// requesting player's own rank and score when myUsername is set.
//
// Order between entries with equal scores is arbitrary but consistent within
// one computed list; callers must not rely on any particular tie order.
func (s *LeaderboardService) GetLeaderboard(ctx context.Context, mode models.LeaderboardMode, pastDay bool, myUsername string) (*models.LeaderboardResult, error) {
	if !mode.Valid() {
		return nil, ErrInvalidInput
	}

	rows, ok := s.Cache.Get(mode, pastDay)
	if !ok {
		var err error
		if pastDay {
			rows, err = s.computeDaily(ctx, mode)
		} else {
			rows, err = s.computeAllTime(ctx, mode)
		}
		if err != nil {
			return nil, err
		}
		s.Cache.Set(mode, pastDay, rows)
	}

	result := &models.LeaderboardResult{Leaderboard: rows}
	if myUsername != "" {
		if err := s.fillMyRank(ctx, mode, pastDay, myUsername, result); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// computeAllTime sorts non-banned players by the cumulative score column.
// Players without a display name are dropped; nobody appears in a public
// ranking without an identity.
func (s *LeaderboardService) computeAllTime(ctx context.Context, mode models.LeaderboardMode) ([]models.LeaderboardRow, error) {
	players, err := s.Players.TopByField(ctx, store.FieldForMode(mode), s.Size)
	if err != nil {
		return nil, err
	}

	rows := make([]models.LeaderboardRow, 0, len(players))
	for _, p := range players {
		if p.Name() == "" {
			continue
		}
		rows = append(rows, models.LeaderboardRow{
			Username:  p.Name(),
			TotalXP:   p.TotalXP,
			CreatedAt: p.CreatedAt,
			GamesLen:  p.TotalGamesPlayed,
			Elo:       int64(p.Elo),
			EloToday:  0,
			Rank:      len(rows) + 1,
		})
	}
	return rows, nil
}

// computeDaily ranks players by their score change over the trailing window.
// XP mode counts gains only; ELO mode admits any non-zero movement since
// ratings can fall.
func (s *LeaderboardService) computeDaily(ctx context.Context, mode models.LeaderboardMode) ([]models.LeaderboardRow, error) {
	since := s.now().Add(-s.Window)
	deltas, err := s.Snapshots.Deltas(ctx, store.FieldForMode(mode), since, s.Size, mode == models.ModeXP)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(deltas))
	for _, d := range deltas {
		ids = append(ids, d.PlayerID)
	}
	players, err := s.Players.FindActiveByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]models.Player, len(players))
	for _, p := range players {
		byID[p.ID] = p
	}

	rows := make([]models.LeaderboardRow, 0, len(deltas))
	for _, d := range deltas {
		p, ok := byID[d.PlayerID]
		if !ok || p.Name() == "" {
			continue // banned or nameless
		}

		row := models.LeaderboardRow{
			Username:  p.Name(),
			CreatedAt: p.CreatedAt,
			GamesLen:  p.TotalGamesPlayed,
			EloToday:  d.Delta,
			Rank:      len(rows) + 1,
		}
		// The mode's score column shows the windowed delta; the other
		// column keeps the current total for context.
		if mode == models.ModeXP {
			row.TotalXP = d.Delta
			row.Elo = int64(p.Elo)
		} else {
			row.TotalXP = p.TotalXP
			row.Elo = d.Delta
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// fillMyRank resolves the requesting player's own position. An unknown
// username or a player with nothing in the window yields absent values, not
// an error.
func (s *LeaderboardService) fillMyRank(ctx context.Context, mode models.LeaderboardMode, pastDay bool, myUsername string, result *models.LeaderboardResult) error {
	player, err := s.Players.FindByName(ctx, myUsername)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	field := store.FieldForMode(mode)
	if !pastDay {
		score := int64(player.Elo)
		if mode == models.ModeXP {
			score = player.TotalXP
		}
		above, err := s.Players.CountAbove(ctx, field, score)
		if err != nil {
			return err
		}
		rank := int(above) + 1
		result.MyRank = &rank
		result.MyScore = &score
		return nil
	}

	since := s.now().Add(-s.Window)
	latest, earliest, err := s.Snapshots.WindowBounds(ctx, player.ID, since)
	if err != nil {
		return err
	}
	if latest == nil || earliest == nil {
		zero := int64(0)
		result.MyScore = &zero
		return nil // no snapshot in the window: no rank
	}

	var delta int64
	if mode == models.ModeXP {
		delta = latest.TotalXP - earliest.TotalXP
	} else {
		delta = int64(latest.Elo - earliest.Elo)
	}

	better, err := s.Snapshots.CountDeltasGreater(ctx, field, since, delta)
	if err != nil {
		return err
	}
	rank := int(better) + 1
	result.MyRank = &rank
	result.MyScore = &delta
	return nil
}

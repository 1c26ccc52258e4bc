package services

import (
	"context"
	"errors"
	"sort"
	"time"

	"atlas-score-engine/models"
	"atlas-score-engine/store"
)

// In-memory store fakes. Deterministic and synchronous; call counters let
// tests assert how often the aggregator actually hit the store.

var errStoreDown = errors.New("store down")

type fakePlayerStore struct {
	players map[string]*models.Player

	failCounters bool
	counterCalls int
	topCalls     int
}

func newFakePlayerStore(players ...*models.Player) *fakePlayerStore {
	s := &fakePlayerStore{players: make(map[string]*models.Player)}
	for _, p := range players {
		s.players[p.ID] = p
	}
	return s
}

func (s *fakePlayerStore) FindByID(_ context.Context, id string) (*models.Player, error) {
	p, ok := s.players[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := *p
	return &copied, nil
}

func (s *fakePlayerStore) FindByName(_ context.Context, username string) (*models.Player, error) {
	for _, p := range s.players {
		if p.Name() == username && username != "" {
			copied := *p
			return &copied, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *fakePlayerStore) FindBySecret(_ context.Context, secret string) (*models.Player, error) {
	for _, p := range s.players {
		if p.Secret == secret {
			copied := *p
			return &copied, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *fakePlayerStore) FindActiveByIDs(_ context.Context, ids []string) ([]models.Player, error) {
	var out []models.Player
	for _, id := range ids {
		if p, ok := s.players[id]; ok && !p.Banned {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (s *fakePlayerStore) TopByField(_ context.Context, field store.ScoreField, limit int) ([]models.Player, error) {
	s.topCalls++
	var out []models.Player
	for _, p := range s.players {
		if !p.Banned {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return scoreOf(out[i], field) > scoreOf(out[j], field)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *fakePlayerStore) UpdateCounters(_ context.Context, id string, incXP int64, incGames int64) error {
	s.counterCalls++
	if s.failCounters {
		return errStoreDown
	}
	p, ok := s.players[id]
	if !ok {
		return store.ErrNotFound
	}
	p.TotalXP += incXP
	p.TotalGamesPlayed += incGames
	return nil
}

func (s *fakePlayerStore) SetEloAndOutcome(_ context.Context, id string, elo int, outcome models.DuelOutcome) error {
	p, ok := s.players[id]
	if !ok {
		return store.ErrNotFound
	}
	p.Elo = elo
	switch {
	case outcome.Draw:
		p.DuelsTied++
	case outcome.Winner:
		p.DuelsWins++
	default:
		p.DuelsLosses++
	}
	return nil
}

func (s *fakePlayerStore) CountAbove(_ context.Context, field store.ScoreField, value int64) (int64, error) {
	var count int64
	for _, p := range s.players {
		if !p.Banned && scoreOf(*p, field) > value {
			count++
		}
	}
	return count, nil
}

func scoreOf(p models.Player, field store.ScoreField) int64 {
	if field == store.ScoreFieldElo {
		return int64(p.Elo)
	}
	return p.TotalXP
}

type fakeGameStore struct {
	saved    []*models.Game
	failSave bool
}

func (s *fakeGameStore) Save(_ context.Context, game *models.Game) error {
	if s.failSave {
		return errStoreDown
	}
	copied := *game
	s.saved = append(s.saved, &copied)
	return nil
}

func (s *fakeGameStore) FindByGameID(_ context.Context, gameID string) (*models.Game, error) {
	for _, g := range s.saved {
		if g.GameID == gameID {
			return g, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *fakeGameStore) FindByPlayer(_ context.Context, playerID string, limit, offset int) ([]models.Game, error) {
	var out []models.Game
	for _, g := range s.saved {
		if g.HasPlayer(playerID) {
			out = append(out, *g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EndedAt.After(out[j].EndedAt) })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *fakeGameStore) CountByPlayer(_ context.Context, playerID string) (int64, error) {
	var count int64
	for _, g := range s.saved {
		if g.HasPlayer(playerID) {
			count++
		}
	}
	return count, nil
}

type fakeSnapshotStore struct {
	rows       []models.StatSnapshot
	bannedIDs  map[string]bool // mirrors the players join in the SQL store
	failRecord bool
	deltaCalls int
}

func (s *fakeSnapshotStore) Record(_ context.Context, playerID string, elo int, totalXP int64, at time.Time) error {
	if s.failRecord {
		return errStoreDown
	}
	s.rows = append(s.rows, models.StatSnapshot{
		ID:        uint(len(s.rows) + 1),
		PlayerID:  playerID,
		Timestamp: at,
		Elo:       elo,
		TotalXP:   totalXP,
	})
	return nil
}

func (s *fakeSnapshotStore) WindowBounds(_ context.Context, playerID string, since time.Time) (*models.StatSnapshot, *models.StatSnapshot, error) {
	var latest, earliest *models.StatSnapshot
	for i := range s.rows {
		row := s.rows[i]
		if row.PlayerID != playerID || row.Timestamp.Before(since) {
			continue
		}
		if latest == nil || !row.Timestamp.Before(latest.Timestamp) {
			latest = &s.rows[i]
		}
		if earliest == nil || row.Timestamp.Before(earliest.Timestamp) {
			earliest = &s.rows[i]
		}
	}
	return latest, earliest, nil
}

func (s *fakeSnapshotStore) windowDeltas(field store.ScoreField, since time.Time) map[string]int64 {
	latest := make(map[string]models.StatSnapshot)
	earliest := make(map[string]models.StatSnapshot)
	for _, row := range s.rows {
		if row.Timestamp.Before(since) {
			continue
		}
		if cur, ok := latest[row.PlayerID]; !ok || !row.Timestamp.Before(cur.Timestamp) {
			latest[row.PlayerID] = row
		}
		if cur, ok := earliest[row.PlayerID]; !ok || row.Timestamp.Before(cur.Timestamp) {
			earliest[row.PlayerID] = row
		}
	}

	deltas := make(map[string]int64, len(latest))
	for id, last := range latest {
		first := earliest[id]
		if field == store.ScoreFieldElo {
			deltas[id] = int64(last.Elo - first.Elo)
		} else {
			deltas[id] = last.TotalXP - first.TotalXP
		}
	}
	return deltas
}

func (s *fakeSnapshotStore) Deltas(_ context.Context, field store.ScoreField, since time.Time, limit int, onlyGains bool) ([]models.PlayerDelta, error) {
	s.deltaCalls++
	var out []models.PlayerDelta
	for id, delta := range s.windowDeltas(field, since) {
		if onlyGains && delta <= 0 {
			continue
		}
		if !onlyGains && delta == 0 {
			continue
		}
		out = append(out, models.PlayerDelta{PlayerID: id, Delta: delta})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Delta != out[j].Delta {
			return out[i].Delta > out[j].Delta
		}
		return out[i].PlayerID < out[j].PlayerID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *fakeSnapshotStore) CountDeltasGreater(_ context.Context, field store.ScoreField, since time.Time, delta int64) (int64, error) {
	var count int64
	for id, d := range s.windowDeltas(field, since) {
		if s.bannedIDs[id] {
			continue
		}
		if d > delta {
			count++
		}
	}
	return count, nil
}

func (s *fakeSnapshotStore) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	var kept []models.StatSnapshot
	var deleted int64
	for _, row := range s.rows {
		if row.Timestamp.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, row)
	}
	s.rows = kept
	return deleted, nil
}

func namePtr(name string) *string {
	return &name
}

func testPlayer(id, name string, elo int, xp int64) *models.Player {
	p := &models.Player{
		ID:        id,
		Secret:    "secret-" + id,
		Elo:       elo,
		TotalXP:   xp,
		CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	if name != "" {
		p.Username = namePtr(name)
	}
	return p
}

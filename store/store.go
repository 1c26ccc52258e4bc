package store

import (
	"context"
	"errors"
	"time"

	"atlas-score-engine/models"
)

// ErrNotFound is returned when a player or game does not exist.
var ErrNotFound = errors.New("record not found")

// ScoreField names a rankable player column. Values double as the postgres
// column names, so implementations must treat this as a closed set.
type ScoreField string

const (
	ScoreFieldXP  ScoreField = "total_xp"
	ScoreFieldElo ScoreField = "elo"
)

// Valid reports whether f is one of the two known score columns.
func (f ScoreField) Valid() bool {
	return f == ScoreFieldXP || f == ScoreFieldElo
}

// FieldForMode maps an API leaderboard mode onto its backing column.
func FieldForMode(mode models.LeaderboardMode) ScoreField {
	if mode == models.ModeElo {
		return ScoreFieldElo
	}
	return ScoreFieldXP
}

// PlayerStore is the engine's contact surface with the account records.
// Counter updates must be atomic per row; the engine never holds a lock on a
// player across a multi-step flow, two games finishing at once for the same
// player are serialized by the database, not by us.
type PlayerStore interface {
	FindByID(ctx context.Context, id string) (*models.Player, error)
	FindByName(ctx context.Context, username string) (*models.Player, error)
	FindBySecret(ctx context.Context, secret string) (*models.Player, error)

	// FindActiveByIDs returns the non-banned players among ids, in no
	// particular order.
	FindActiveByIDs(ctx context.Context, ids []string) ([]models.Player, error)

	// TopByField returns the non-banned players sorted descending by the
	// given score column, capped at limit.
	TopByField(ctx context.Context, field ScoreField, limit int) ([]models.Player, error)

	// UpdateCounters applies atomic increments to the cumulative counters.
	UpdateCounters(ctx context.Context, id string, incXP int64, incGames int64) error

	// SetEloAndOutcome sets the rating and bumps exactly one duel tally.
	SetEloAndOutcome(ctx context.Context, id string, elo int, outcome models.DuelOutcome) error

	// CountAbove counts non-banned players whose score column is strictly
	// greater than value.
	CountAbove(ctx context.Context, field ScoreField, value int64) (int64, error)
}

// GameStore persists immutable game records.
type GameStore interface {
	Save(ctx context.Context, game *models.Game) error
	FindByGameID(ctx context.Context, gameID string) (*models.Game, error)

	// FindByPlayer returns the player's games sorted by end time descending.
	FindByPlayer(ctx context.Context, playerID string, limit, offset int) ([]models.Game, error)
	CountByPlayer(ctx context.Context, playerID string) (int64, error)
}

// SnapshotStore is the append-only stats time series behind the rolling
// leaderboards.
type SnapshotStore interface {
	// Record appends one snapshot; existing rows are never touched.
	Record(ctx context.Context, playerID string, elo int, totalXP int64, at time.Time) error

	// WindowBounds returns the latest and earliest snapshot for the player
	// with Timestamp >= since. Both are nil when the player has no snapshot
	// in the window.
	WindowBounds(ctx context.Context, playerID string, since time.Time) (latest, earliest *models.StatSnapshot, err error)

	// Deltas returns latest-earliest of the score column per player inside
	// the window, sorted descending and capped at limit. With onlyGains set
	// only positive deltas qualify, otherwise any non-zero delta does.
	Deltas(ctx context.Context, field ScoreField, since time.Time, limit int, onlyGains bool) ([]models.PlayerDelta, error)

	// CountDeltasGreater counts non-banned players whose windowed delta is
	// strictly greater than delta.
	CountDeltasGreater(ctx context.Context, field ScoreField, since time.Time, delta int64) (int64, error)

	// DeleteOlderThan drops snapshots older than cutoff and reports how many
	// rows went away. Used by the retention job only.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

package models

import "time"

// StatSnapshot is a point-in-time capture of a player's rating and cumulative
// XP, appended after each recorded game. Rows are never updated; the rolling
// leaderboards subtract the earliest snapshot in the window from the latest,
// so a day of ranking needs only two rows per player, not the full history.
type StatSnapshot struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	PlayerID  string    `gorm:"index:idx_snapshots_player_time;not null" json:"playerId"`
	Timestamp time.Time `gorm:"index:idx_snapshots_player_time;index;not null" json:"timestamp"`
	Elo       int       `json:"elo"`
	TotalXP   int64     `json:"totalXp"`
}

// PlayerDelta is one player's score change inside a time window.
type PlayerDelta struct {
	PlayerID string `json:"playerId"`
	Delta    int64  `json:"delta"`
}

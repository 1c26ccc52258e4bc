package models

import "time"

// LeaderboardMode selects which score a ranking is built from.
type LeaderboardMode string

const (
	ModeXP  LeaderboardMode = "xp"
	ModeElo LeaderboardMode = "elo"
)

// Valid reports whether the mode is one of the two supported values.
func (m LeaderboardMode) Valid() bool {
	return m == ModeXP || m == ModeElo
}

// LeaderboardRow is one public entry in a ranking. The same shape serves both
// windows: on the rolling view the mode's score column carries the 24h delta,
// on the all-time view it carries the cumulative total and EloToday is 0.
type LeaderboardRow struct {
	Username  string    `json:"username"`
	TotalXP   int64     `json:"totalXp"`
	CreatedAt time.Time `json:"createdAt"`
	GamesLen  int64     `json:"gamesLen"`
	Elo       int64     `json:"elo"`
	EloToday  int64     `json:"eloToday"`
	Rank      int       `json:"rank,omitempty"`
}

// LeaderboardResult is a computed ranking plus the requesting player's own
// position, when they asked for it. MyRank is nil for players with no score
// in the window; that is "absent", not rank zero.
type LeaderboardResult struct {
	Leaderboard []LeaderboardRow `json:"leaderboard"`
	MyRank      *int             `json:"myRank"`
	MyScore     *int64           `json:"myScore"`
}

// PlayerRating is the competitive profile returned for a single player.
type PlayerRating struct {
	Elo         int     `json:"elo"`
	Rank        int     `json:"rank"`
	League      string  `json:"league"`
	DuelsWins   int     `json:"duels_wins"`
	DuelsLosses int     `json:"duels_losses"`
	DuelsTied   int     `json:"duels_tied"`
	WinRate     float64 `json:"win_rate"`
}

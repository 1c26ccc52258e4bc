package models

import (
	"time"

	"gorm.io/gorm"
)

// GameTypeSingleplayer / GameTypeMultiplayer are the two kinds of game the
// recorder accepts: a finished singleplayer session arrives as a batch of
// rounds, a multiplayer duel reports one round at a time.
const (
	GameTypeSingleplayer = "singleplayer"
	GameTypeMultiplayer  = "multiplayer"
)

// RoundLocation is the target the player had to find.
type RoundLocation struct {
	Lat     float64 `json:"lat"`
	Long    float64 `json:"long"`
	PanoID  *string `json:"panoId"`
	Country *string `json:"country"`
	Place   *string `json:"place"`
}

// PlayerGuess is one player's answer for one round.
type PlayerGuess struct {
	PlayerID  string    `json:"playerId"`
	Username  string    `json:"username"`
	GuessLat  float64   `json:"guessLat"`
	GuessLong float64   `json:"guessLong"`
	Points    int       `json:"points"`
	TimeTaken float64   `json:"timeTaken"` // seconds
	XPEarned  int64     `json:"xpEarned"`
	GuessedAt time.Time `json:"guessedAt"`
	UsedHint  bool      `json:"usedHint"`
}

// GameRound is one target/guess exchange inside a game.
type GameRound struct {
	RoundNumber   int           `json:"roundNumber"`
	Location      RoundLocation `json:"location"`
	PlayerGuesses []PlayerGuess `json:"playerGuesses"`
	StartedAt     time.Time     `json:"startedAt"`
	EndedAt       time.Time     `json:"endedAt"`
}

// GamePlayer is the per-player summary over all rounds of a game.
type GamePlayer struct {
	PlayerID            string  `json:"playerId"`
	Username            string  `json:"username"`
	TotalPoints         int     `json:"totalPoints"`
	TotalXP             int64   `json:"totalXp"`
	AverageTimePerRound float64 `json:"averageTimePerRound"`
	FinalRank           int     `json:"finalRank"`
	EloBefore           *int    `json:"eloBefore"`
	EloAfter            *int    `json:"eloAfter"`
	EloChange           *int    `json:"eloChange"`
}

// GameSettings captures the constraints the game was played under.
type GameSettings struct {
	Location     string   `json:"location"` // map/region identifier, "all" for worldwide
	Rounds       int      `json:"rounds"`
	MaxDist      float64  `json:"maxDist"` // km, scoring falloff scale
	TimePerRound *float64 `json:"timePerRound"`
	Official     bool     `json:"official"`
}

// GameResult summarizes the outcome of a finished game.
type GameResult struct {
	WinnerID          *string `json:"winner"`
	IsDraw            bool    `json:"isDraw"`
	MaxPossiblePoints int     `json:"maxPossiblePoints"`
}

// Game is the immutable record written once when a game completes. Rounds and
// player summaries are stored as JSONB documents; nothing updates a game after
// it has been saved.
type Game struct {
	ID       string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	GameID   string `gorm:"uniqueIndex;not null" json:"gameId"` // e.g. "sp_<uuid>"
	GameType string `gorm:"type:varchar(16);index" json:"gameType"`

	Settings GameSettings `gorm:"serializer:json;type:jsonb" json:"settings"`
	Rounds   []GameRound  `gorm:"serializer:json;type:jsonb" json:"rounds"`
	Players  []GamePlayer `gorm:"serializer:json;type:jsonb" json:"players"`
	Result   GameResult   `gorm:"serializer:json;type:jsonb" json:"result"`

	StartedAt     time.Time `gorm:"index" json:"startedAt"`
	EndedAt       time.Time `gorm:"index" json:"endedAt"`
	TotalDuration float64   `json:"totalDuration"` // seconds

	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// HasPlayer reports whether the given player took part in this game.
func (g *Game) HasPlayer(playerID string) bool {
	for _, p := range g.Players {
		if p.PlayerID == playerID {
			return true
		}
	}
	return false
}

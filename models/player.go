package models

import (
	"time"

	"gorm.io/gorm"
)

// Player is the account record as seen by the scoring engine. Registration and
// auth live in the profile service; this service reads the row and owns the
// rating, duel tallies and cumulative counters.
type Player struct {
	ID       string  `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	Username *string `gorm:"uniqueIndex" json:"username,omitempty"` // nil until the player picks one
	Secret   string  `gorm:"uniqueIndex;not null" json:"-"`         // opaque session token issued at registration

	// Competitive rating (duels)
	Elo         int `gorm:"default:1000;index" json:"elo"`
	DuelsWins   int `gorm:"default:0" json:"duels_wins"`
	DuelsLosses int `gorm:"default:0" json:"duels_losses"`
	DuelsTied   int `gorm:"default:0" json:"duels_tied"`

	// Cumulative progression. TotalXP only ever increments; TotalGamesPlayed
	// goes up by one per completed game, not per round.
	TotalXP          int64 `gorm:"default:0;index" json:"total_xp"`
	TotalGamesPlayed int64 `gorm:"default:0" json:"total_games_played"`

	Banned bool `gorm:"default:false" json:"banned"` // banned players never appear in rankings
	Staff  bool `gorm:"default:false" json:"staff"`

	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// Name returns the display name or "" when the player has not picked one yet.
func (p *Player) Name() string {
	if p.Username == nil {
		return ""
	}
	return *p.Username
}

// DuelOutcome describes how a competitive match ended for one player.
// Draw takes precedence over Winner.
type DuelOutcome struct {
	Draw   bool `json:"draw"`
	Winner bool `json:"winner"`
}

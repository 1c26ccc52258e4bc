package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"atlas-score-engine/models"

	"gorm.io/gorm"
)

// GormGameStore implements GameStore on postgres. Player membership queries
// use JSONB containment on the players document.
type GormGameStore struct {
	DB *gorm.DB
}

func NewGormGameStore(db *gorm.DB) *GormGameStore {
	return &GormGameStore{DB: db}
}

func (s *GormGameStore) Save(ctx context.Context, game *models.Game) error {
	return s.DB.WithContext(ctx).Create(game).Error
}

func (s *GormGameStore) FindByGameID(ctx context.Context, gameID string) (*models.Game, error) {
	var game models.Game
	err := s.DB.WithContext(ctx).Where("game_id = ?", gameID).First(&game).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &game, nil
}

func (s *GormGameStore) FindByPlayer(ctx context.Context, playerID string, limit, offset int) ([]models.Game, error) {
	member, err := playerMembership(playerID)
	if err != nil {
		return nil, err
	}
	var games []models.Game
	err = s.DB.WithContext(ctx).
		Where("players @> ?", member).
		Order("ended_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&games).Error
	return games, err
}

func (s *GormGameStore) CountByPlayer(ctx context.Context, playerID string) (int64, error) {
	member, err := playerMembership(playerID)
	if err != nil {
		return 0, err
	}
	var count int64
	err = s.DB.WithContext(ctx).Model(&models.Game{}).
		Where("players @> ?", member).
		Count(&count).Error
	return count, err
}

// playerMembership builds the JSONB containment argument matching games whose
// players array includes the given player id.
func playerMembership(playerID string) (string, error) {
	doc, err := json.Marshal([]map[string]string{{"playerId": playerID}})
	if err != nil {
		return "", fmt.Errorf("marshal membership probe: %w", err)
	}
	return string(doc), nil
}

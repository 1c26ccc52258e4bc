package store

import (
	"context"
	"errors"
	"fmt"

	"atlas-score-engine/models"

	"gorm.io/gorm"
)

// GormPlayerStore implements PlayerStore on postgres.
type GormPlayerStore struct {
	DB *gorm.DB
}

func NewGormPlayerStore(db *gorm.DB) *GormPlayerStore {
	return &GormPlayerStore{DB: db}
}

func (s *GormPlayerStore) FindByID(ctx context.Context, id string) (*models.Player, error) {
	var player models.Player
	err := s.DB.WithContext(ctx).Where("id = ?", id).First(&player).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &player, nil
}

func (s *GormPlayerStore) FindByName(ctx context.Context, username string) (*models.Player, error) {
	var player models.Player
	err := s.DB.WithContext(ctx).Where("username = ?", username).First(&player).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &player, nil
}

func (s *GormPlayerStore) FindBySecret(ctx context.Context, secret string) (*models.Player, error) {
	var player models.Player
	err := s.DB.WithContext(ctx).Where("secret = ?", secret).First(&player).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &player, nil
}

func (s *GormPlayerStore) FindActiveByIDs(ctx context.Context, ids []string) ([]models.Player, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var players []models.Player
	err := s.DB.WithContext(ctx).
		Where("id IN ? AND banned = false", ids).
		Find(&players).Error
	return players, err
}

func (s *GormPlayerStore) TopByField(ctx context.Context, field ScoreField, limit int) ([]models.Player, error) {
	if !field.Valid() {
		return nil, fmt.Errorf("unknown score field %q", field)
	}
	var players []models.Player
	err := s.DB.WithContext(ctx).
		Where("banned = false").
		Order(fmt.Sprintf("%s DESC", field)).
		Limit(limit).
		Find(&players).Error
	return players, err
}

// UpdateCounters increments in place so two games finishing at once for the
// same player cannot lose an update to a stale read.
func (s *GormPlayerStore) UpdateCounters(ctx context.Context, id string, incXP int64, incGames int64) error {
	res := s.DB.WithContext(ctx).Model(&models.Player{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"total_xp":           gorm.Expr("total_xp + ?", incXP),
			"total_games_played": gorm.Expr("total_games_played + ?", incGames),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormPlayerStore) SetEloAndOutcome(ctx context.Context, id string, elo int, outcome models.DuelOutcome) error {
	updates := map[string]interface{}{"elo": elo}
	switch {
	case outcome.Draw:
		updates["duels_tied"] = gorm.Expr("duels_tied + 1")
	case outcome.Winner:
		updates["duels_wins"] = gorm.Expr("duels_wins + 1")
	default:
		updates["duels_losses"] = gorm.Expr("duels_losses + 1")
	}

	res := s.DB.WithContext(ctx).Model(&models.Player{}).
		Where("id = ?", id).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormPlayerStore) CountAbove(ctx context.Context, field ScoreField, value int64) (int64, error) {
	if !field.Valid() {
		return 0, fmt.Errorf("unknown score field %q", field)
	}
	var count int64
	err := s.DB.WithContext(ctx).Model(&models.Player{}).
		Where(fmt.Sprintf("%s > ? AND banned = false", field), value).
		Count(&count).Error
	return count, err
}

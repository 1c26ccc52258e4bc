package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"atlas-score-engine/models"

	"gorm.io/gorm"
)

// GormSnapshotStore implements SnapshotStore on postgres. Windowed deltas are
// computed in SQL from the boundary snapshots of each player, so the query
// cost tracks the number of active players in the window, not the depth of
// anyone's history.
type GormSnapshotStore struct {
	DB *gorm.DB
}

func NewGormSnapshotStore(db *gorm.DB) *GormSnapshotStore {
	return &GormSnapshotStore{DB: db}
}

func (s *GormSnapshotStore) Record(ctx context.Context, playerID string, elo int, totalXP int64, at time.Time) error {
	snapshot := models.StatSnapshot{
		PlayerID:  playerID,
		Timestamp: at,
		Elo:       elo,
		TotalXP:   totalXP,
	}
	return s.DB.WithContext(ctx).Create(&snapshot).Error
}

func (s *GormSnapshotStore) WindowBounds(ctx context.Context, playerID string, since time.Time) (*models.StatSnapshot, *models.StatSnapshot, error) {
	var latest, earliest models.StatSnapshot

	err := s.DB.WithContext(ctx).
		Where("player_id = ? AND timestamp >= ?", playerID, since).
		Order("timestamp DESC").
		First(&latest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}

	err = s.DB.WithContext(ctx).
		Where("player_id = ? AND timestamp >= ?", playerID, since).
		Order("timestamp ASC").
		First(&earliest).Error
	if err != nil {
		return nil, nil, err
	}
	return &latest, &earliest, nil
}

// deltaExpr subtracts the oldest boundary value from the newest one per
// player. array_agg ordered by timestamp keeps this a single pass over the
// window.
func deltaExpr(field ScoreField) string {
	return fmt.Sprintf("(array_agg(s.%[1]s ORDER BY s.timestamp DESC, s.id DESC))[1] - (array_agg(s.%[1]s ORDER BY s.timestamp ASC, s.id ASC))[1]", field)
}

func (s *GormSnapshotStore) Deltas(ctx context.Context, field ScoreField, since time.Time, limit int, onlyGains bool) ([]models.PlayerDelta, error) {
	if !field.Valid() {
		return nil, fmt.Errorf("unknown score field %q", field)
	}

	filter := "<> 0"
	if onlyGains {
		filter = "> 0"
	}

	expr := deltaExpr(field)
	query := fmt.Sprintf(`
		SELECT s.player_id, %s AS delta
		FROM stat_snapshots s
		WHERE s.timestamp >= ?
		GROUP BY s.player_id
		HAVING %s %s
		ORDER BY delta DESC
		LIMIT ?`, expr, expr, filter)

	var deltas []models.PlayerDelta
	err := s.DB.WithContext(ctx).Raw(query, since, limit).Scan(&deltas).Error
	return deltas, err
}

func (s *GormSnapshotStore) CountDeltasGreater(ctx context.Context, field ScoreField, since time.Time, delta int64) (int64, error) {
	if !field.Valid() {
		return 0, fmt.Errorf("unknown score field %q", field)
	}

	expr := deltaExpr(field)
	query := fmt.Sprintf(`
		SELECT count(*) FROM (
			SELECT s.player_id
			FROM stat_snapshots s
			JOIN players p ON p.id = s.player_id AND p.banned = false
			WHERE s.timestamp >= ?
			GROUP BY s.player_id
			HAVING %s > ?
		) better`, expr)

	var count int64
	err := s.DB.WithContext(ctx).Raw(query, since, delta).Scan(&count).Error
	return count, err
}

func (s *GormSnapshotStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res := s.DB.WithContext(ctx).
		Where("timestamp < ?", cutoff).
		Delete(&models.StatSnapshot{})
	return res.RowsAffected, res.Error
}

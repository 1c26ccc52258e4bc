// services/scheduler.go
package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"atlas-score-engine/models"
	"atlas-score-engine/utils"

	"github.com/go-co-op/gocron/v2"
	"github.com/gosimple/slug"
)

// DefaultSnapshotRetention keeps a month of stats snapshots. The rolling
// leaderboards only ever look 24 hours back.
const DefaultSnapshotRetention = 30 * 24 * time.Hour

// StartMaintenanceScheduler runs the background jobs: snapshot retention and,
// when R2 is configured, a daily archive of all four leaderboard views.
func (s *LeaderboardService) StartMaintenanceScheduler(retention time.Duration) {
	if retention <= 0 {
		retention = DefaultSnapshotRetention
	}

	sched, _ := gocron.NewScheduler()
	sched.Start()

	// Daily: drop snapshots past retention
	_, _ = sched.NewJob(
		gocron.DurationJob(24*time.Hour),
		gocron.NewTask(func() {
			cutoff := time.Now().Add(-retention)
			deleted, err := s.Snapshots.DeleteOlderThan(context.Background(), cutoff)
			if err != nil {
				log.Printf("[Scheduler] snapshot retention failed: %v", err)
				return
			}
			if deleted > 0 {
				log.Printf("[Scheduler] dropped %d snapshots older than %s", deleted, cutoff.Format(time.RFC3339))
			}
		}),
	)

	if !utils.R2Enabled() {
		log.Println("[Scheduler] R2 not configured, leaderboard archiving disabled")
		return
	}

	// Daily: archive the current top lists for historical viewing
	_, _ = sched.NewJob(
		gocron.DurationJob(24*time.Hour),
		gocron.NewTask(func() {
			s.archiveLeaderboards(context.Background())
		}),
	)
}

// archiveLeaderboards uploads every (mode, window) list as a dated JSON
// document.
func (s *LeaderboardService) archiveLeaderboards(ctx context.Context) {
	date := time.Now().UTC().Format("2006-01-02")

	for _, mode := range []models.LeaderboardMode{models.ModeXP, models.ModeElo} {
		for _, pastDay := range []bool{false, true} {
			window := "all time"
			if pastDay {
				window = "past day"
			}

			result, err := s.GetLeaderboard(ctx, mode, pastDay, "")
			if err != nil {
				log.Printf("[Scheduler] archive skipped for %s/%s: %v", mode, window, err)
				continue
			}

			key := fmt.Sprintf("leaderboards/%s/%s.json", date, slug.Make(fmt.Sprintf("%s %s", mode, window)))
			url, err := utils.UploadJSONToR2(ctx, key, result.Leaderboard)
			if err != nil {
				log.Printf("[Scheduler] failed to archive %s: %v", key, err)
				continue
			}
			log.Printf("✅ Archived leaderboard %s", url)
		}
	}
}

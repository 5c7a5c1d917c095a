// internal/services/scheduler_service.go
package services

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/baraholka/backend/internal/config"
	"github.com/baraholka/backend/internal/models"
)

// SchedulerService runs the periodic jobs: the archival sweep that demotes
// stale published listings, and the daily stats aggregation. One instance
// per process; overlapping sweep runs are prevented with a run lock.
type SchedulerService struct {
	db       *gorm.DB
	listings *ListingService
	cfg      config.SchedulerConfig

	sweeping int32 // run lock, see SweepStaleListings

	mu           sync.Mutex
	lastStatsDay string

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

func NewSchedulerService(db *gorm.DB, listings *ListingService, cfg config.SchedulerConfig) *SchedulerService {
	return &SchedulerService{
		db:       db,
		listings: listings,
		cfg:      cfg,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the ticker loop. Call Stop to shut it down.
func (s *SchedulerService) Start() {
	interval := s.cfg.SweepInterval
	if interval <= 0 {
		interval = time.Hour
	}

	go func() {
		defer close(s.done)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		logrus.WithField("interval", interval).Info("Scheduler started")

		for {
			select {
			case <-ticker.C:
				s.tick()
			case <-s.stop:
				logrus.Info("Scheduler stopped")
				return
			}
		}
	}()
}

// Stop shuts the loop down and waits for it to exit. A sweep in flight
// finishes its current run.
func (s *SchedulerService) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
	<-s.done
}

func (s *SchedulerService) tick() {
	timeout := s.cfg.SweepTimeout
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	archived, err := s.SweepStaleListings(ctx, s.cfg.ArchiveAfter)
	if err != nil {
		logrus.WithError(err).Error("Archival sweep failed")
	} else if archived > 0 {
		logrus.WithField("archived", archived).Info("Archival sweep completed")
	}

	// Aggregate yesterday's stats once per calendar day.
	today := time.Now().UTC().Format("2006-01-02")
	s.mu.Lock()
	due := s.lastStatsDay != today
	s.mu.Unlock()
	if due {
		yesterday := time.Now().UTC().AddDate(0, 0, -1)
		if err := s.AggregateDailyStats(yesterday); err != nil {
			logrus.WithError(err).Error("Daily stats aggregation failed")
		} else {
			s.mu.Lock()
			s.lastStatsDay = today
			s.mu.Unlock()
		}
	}
}

// SweepStaleListings archives every published listing whose updated_at is
// older than cutoff. Each listing transitions through the lifecycle
// manager's system path; a failure on one listing is logged and the sweep
// moves on. Returns the number archived. Running twice back to back archives
// nothing the second time.
func (s *SchedulerService) SweepStaleListings(ctx context.Context, cutoff time.Duration) (int, error) {
	if !atomic.CompareAndSwapInt32(&s.sweeping, 0, 1) {
		return 0, ErrSweepInProgress
	}
	defer atomic.StoreInt32(&s.sweeping, 0)

	deadline := time.Now().Add(-cutoff)

	var ids []uuid.UUID
	err := s.db.Model(&models.Listing{}).
		Where("status = ? AND updated_at < ?", models.ListingStatusPublished, deadline).
		Pluck("id", &ids).Error
	if err != nil {
		return 0, fmt.Errorf("failed to query stale listings: %w", err)
	}

	archived := 0
	failed := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			logrus.WithFields(logrus.Fields{
				"archived":  archived,
				"remaining": len(ids) - archived - failed,
			}).Warn("Archival sweep ran out of time")
			break
		}

		if err := s.listings.ArchiveListing(id); err != nil {
			// ErrInvalidTransition means the listing changed state since the
			// scan; that is not a failure.
			if err != ErrInvalidTransition && err != ErrListingNotFound {
				failed++
				logrus.WithError(err).WithField("listing_id", id).
					Warn("Failed to archive stale listing")
			}
			continue
		}
		archived++
	}

	if failed > 0 {
		logrus.WithFields(logrus.Fields{"archived": archived, "failed": failed}).
			Warn("Archival sweep finished with per-listing failures")
	}

	return archived, nil
}

// AggregateDailyStats writes the snapshot for the given date: users joined,
// listings created, views and favorites recorded on that day. At most one
// snapshot exists per date; an existing one is left alone.
func (s *SchedulerService) AggregateDailyStats(date time.Time) error {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	next := day.AddDate(0, 0, 1)

	var existing int64
	if err := s.db.Model(&models.DailyStats{}).Where("date = ?", day).Count(&existing).Error; err != nil {
		return fmt.Errorf("failed to check existing snapshot: %w", err)
	}
	if existing > 0 {
		return nil
	}

	stats := models.DailyStats{Date: day}

	counts := []struct {
		model interface{}
		dest  *int64
	}{
		{&models.User{}, &stats.NewUsers},
		{&models.Listing{}, &stats.NewListings},
		{&models.ListingView{}, &stats.ListingViews},
		{&models.Favorite{}, &stats.FavoritesAdded},
	}
	for _, c := range counts {
		err := s.db.Model(c.model).
			Where("created_at >= ? AND created_at < ?", day, next).
			Count(c.dest).Error
		if err != nil {
			return fmt.Errorf("failed to aggregate daily stats: %w", err)
		}
	}

	// DO NOTHING guards against a concurrent aggregation of the same date.
	res := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&stats)
	if res.Error != nil {
		return fmt.Errorf("failed to store daily stats: %w", res.Error)
	}

	return nil
}

// Package storage holds the GORM/SQLite adapters implementing FAST's
// persistence ports: one *gorm.DB per database file (WebhookStore shares
// FlagStore's), AutoMigrate on open, WAL pragmas for concurrent readers,
// OpenTelemetry tracing plugin attached. RecoveryFile is a plain JSON file.
package storage

import (
	"context"
	"time"

	"github.com/lcalzada-xor/fast/internal/core/domain"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"
)

// FlagStore implements ports.FlagStore (C7, §4.7) using GORM and SQLite.
type FlagStore struct {
	db *gorm.DB
}

// NewFlagStore opens (and migrates) the server's authoritative flag
// database at path.
func NewFlagStore(path string) (*FlagStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&domain.Flag{}, &domain.Webhook{}); err != nil {
		return nil, err
	}
	if err := db.Use(tracing.NewPlugin()); err != nil {
		return nil, err
	}

	db.Exec("PRAGMA journal_mode=WAL;")
	db.Exec("PRAGMA busy_timeout=5000;")
	db.Exec("PRAGMA synchronous=NORMAL;")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_flags_status ON flags(status)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_flags_tick ON flags(tick)")

	return &FlagStore{db: db}, nil
}

// Insert attempts to insert each value at the given tick. Uniqueness on
// value is enforced by the DB's unique index; a conflicting insert is
// silently ignored (clause.OnConflict DoNothing) and reported back as a
// duplicate rather than an error (§4.6, §7 ConflictIgnored).
func (s *FlagStore) Insert(ctx context.Context, values []string, exploit, target, player string, tick int64) (domain.EnqueueResult, error) {
	result := domain.EnqueueResult{New: []string{}, Duplicates: []string{}}
	if len(values) == 0 {
		return result, nil
	}

	now := time.Now()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, v := range values {
			flag := domain.Flag{
				Value:     v,
				Exploit:   exploit,
				Player:    player,
				Tick:      tick,
				Target:    target,
				Timestamp: now,
				Status:    domain.StatusQueued,
			}
			res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&flag)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected > 0 {
				result.New = append(result.New, v)
			} else {
				result.Duplicates = append(result.Duplicates, v)
			}
		}
		return nil
	})
	return result, err
}

// QueuedValues returns every flag currently in status=queued.
func (s *FlagStore) QueuedValues(ctx context.Context) ([]domain.Flag, error) {
	var flags []domain.Flag
	err := s.db.WithContext(ctx).Where("status = ?", domain.StatusQueued).Find(&flags).Error
	return flags, err
}

// UpdateStatuses transactionally marks each accepted/rejected value with
// its external response string. queued flags absent from both maps are
// left untouched (§4.8 step 4).
func (s *FlagStore) UpdateStatuses(ctx context.Context, accepted, rejected map[string]string) error {
	if len(accepted) == 0 && len(rejected) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for value, response := range accepted {
			if err := tx.Model(&domain.Flag{}).
				Where("value = ? AND status = ?", value, domain.StatusQueued).
				Updates(map[string]interface{}{"status": domain.StatusAccepted, "response": response}).Error; err != nil {
				return err
			}
		}
		for value, response := range rejected {
			if err := tx.Model(&domain.Flag{}).
				Where("value = ? AND status = ?", value, domain.StatusQueued).
				Updates(map[string]interface{}{"status": domain.StatusRejected, "response": response}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// CountByStatus returns the overall {queued,accepted,rejected} counts.
func (s *FlagStore) CountByStatus(ctx context.Context) (domain.StatusCounts, error) {
	return s.countByStatus(ctx, s.db.WithContext(ctx).Model(&domain.Flag{}))
}

// CountByStatusForTick restricts the counts to a single tick.
func (s *FlagStore) CountByStatusForTick(ctx context.Context, tick int64) (domain.StatusCounts, error) {
	return s.countByStatus(ctx, s.db.WithContext(ctx).Model(&domain.Flag{}).Where("tick = ?", tick))
}

func (s *FlagStore) countByStatus(ctx context.Context, scope *gorm.DB) (domain.StatusCounts, error) {
	var counts domain.StatusCounts
	var err error
	if counts.Queued, err = countStatus(scope, domain.StatusQueued); err != nil {
		return counts, err
	}
	if counts.Accepted, err = countStatus(scope, domain.StatusAccepted); err != nil {
		return counts, err
	}
	if counts.Rejected, err = countStatus(scope, domain.StatusRejected); err != nil {
		return counts, err
	}
	return counts, nil
}

func countStatus(scope *gorm.DB, status domain.Status) (int64, error) {
	var n int64
	err := scope.Session(&gorm.Session{}).Where("status = ?", status).Count(&n).Error
	return n, err
}

// Analytics returns per (player, exploit, tick) accepted counts for
// tick in [lo, hi], excluding the manual exploit (C7 group-by, §6
// GET /exploit-analytics).
func (s *FlagStore) Analytics(ctx context.Context, lo, hi int64) ([]domain.AnalyticsPoint, error) {
	var points []domain.AnalyticsPoint
	err := s.db.WithContext(ctx).Model(&domain.Flag{}).
		Select("player, exploit, tick, count(*) as count").
		Where("status = ? AND tick BETWEEN ? AND ? AND exploit <> ?", domain.StatusAccepted, lo, hi, domain.ManualExploit).
		Group("player, exploit, tick").
		Scan(&points).Error
	return points, err
}

// AllFlags returns every flag in the store, newest first.
func (s *FlagStore) AllFlags(ctx context.Context) ([]domain.Flag, error) {
	var flags []domain.Flag
	err := s.db.WithContext(ctx).Order("id DESC").Find(&flags).Error
	return flags, err
}

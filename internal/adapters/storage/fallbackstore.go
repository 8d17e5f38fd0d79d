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

// FallbackStore implements ports.FallbackStore (C5, §4.5): the client-local
// durable queue of flags that couldn't reach the server. This is the
// ".fast/fast.db" artifact named in §6.
type FallbackStore struct {
	db *gorm.DB
}

// NewFallbackStore opens (and migrates) the client's local fallback
// database at path.
func NewFallbackStore(path string) (*FallbackStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&domain.FallbackFlag{}); err != nil {
		return nil, err
	}
	if err := db.Use(tracing.NewPlugin()); err != nil {
		return nil, err
	}
	db.Exec("PRAGMA journal_mode=WAL;")
	db.Exec("PRAGMA busy_timeout=5000;")
	return &FallbackStore{db: db}, nil
}

// Enqueue records a flag locally as pending. Duplicate values are ignored
// (same uniqueness discipline as the server Flag Store).
func (s *FallbackStore) Enqueue(ctx context.Context, value, exploit, target string, ts time.Time) error {
	row := domain.FallbackFlag{
		Value:     value,
		Exploit:   exploit,
		Target:    target,
		Timestamp: ts,
		Status:    domain.FallbackPending,
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error
}

// Pending returns every row still in status=pending.
func (s *FallbackStore) Pending(ctx context.Context) ([]domain.FallbackFlag, error) {
	var rows []domain.FallbackFlag
	err := s.db.WithContext(ctx).Where("status = ?", domain.FallbackPending).Find(&rows).Error
	return rows, err
}

// MarkForwarded transitions the given values to forwarded. Rows are kept
// for operator inspection but never resent (§4.5).
func (s *FallbackStore) MarkForwarded(ctx context.Context, values []string) error {
	if len(values) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Model(&domain.FallbackFlag{}).
		Where("value IN ?", values).
		Update("status", domain.FallbackForwarded).Error
}

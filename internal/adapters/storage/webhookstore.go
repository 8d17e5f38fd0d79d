package storage

import (
	"context"
	"fmt"

	"github.com/lcalzada-xor/fast/internal/core/domain"
	"gorm.io/gorm"
)

// WebhookStore implements ports.WebhookStore on the same database as
// FlagStore (the webhook table is small and rarely written, §5).
type WebhookStore struct {
	db *gorm.DB
}

// NewWebhookStore wraps an already-opened FlagStore's database connection
// so both tables live in one file, one connection per database.
func NewWebhookStore(fs *FlagStore) *WebhookStore {
	return &WebhookStore{db: fs.db}
}

func (s *WebhookStore) Create(ctx context.Context, w domain.Webhook) error {
	return s.db.WithContext(ctx).Create(&w).Error
}

func (s *WebhookStore) Update(ctx context.Context, w domain.Webhook) error {
	res := s.db.WithContext(ctx).Model(&domain.Webhook{}).Where("id = ?", w.ID).Updates(map[string]interface{}{
		"exploit":  w.Exploit,
		"player":   w.Player,
		"disabled": w.Disabled,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("webhook %s: %w", w.ID, domain.ErrNotFound)
	}
	return nil
}

func (s *WebhookStore) Get(ctx context.Context, id string) (domain.Webhook, error) {
	var w domain.Webhook
	err := s.db.WithContext(ctx).First(&w, "id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		return w, fmt.Errorf("webhook %s: %w", id, domain.ErrNotFound)
	}
	return w, err
}

func (s *WebhookStore) List(ctx context.Context) ([]domain.Webhook, error) {
	var webhooks []domain.Webhook
	err := s.db.WithContext(ctx).Find(&webhooks).Error
	return webhooks, err
}

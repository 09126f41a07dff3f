package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"estatehub/bff/internal/model"
)

type pgContactMessageRepository struct {
	db *gorm.DB
}

func NewPGContactMessageRepository(db *gorm.DB) ContactMessageRepository {
	return &pgContactMessageRepository{db: db}
}

func (r *pgContactMessageRepository) Create(ctx context.Context, msg *model.ContactMessage) error {
	return r.db.WithContext(ctx).Create(msg).Error
}

func (r *pgContactMessageRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.ContactMessageStatus) error {
	return r.db.WithContext(ctx).
		Model(&model.ContactMessage{}).
		Where("id = ?", id).
		Update("status", status).
		Error
}

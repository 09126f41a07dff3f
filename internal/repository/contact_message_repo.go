package repository

import (
	"context"

	"github.com/google/uuid"

	"estatehub/bff/internal/model"
)

type ContactMessageRepository interface {
	Create(ctx context.Context, msg *model.ContactMessage) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.ContactMessageStatus) error
}

package model

import (
	"time"

	"github.com/google/uuid"
)

type ContactMessageStatus string

const (
	ContactMessagePending   ContactMessageStatus = "pending"
	ContactMessageForwarded ContactMessageStatus = "forwarded"
	ContactMessageFailed    ContactMessageStatus = "failed"
)

// ContactMessage records an enquiry sent from a listing or project page.
type ContactMessage struct {
	ID         uuid.UUID            `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	SessionID  string               `gorm:"type:varchar(64);index;not null" json:"session_id"`
	ContextKey string               `gorm:"type:varchar(128);index;not null" json:"context_key"`
	Name       string               `gorm:"type:varchar(255);not null" json:"name"`
	Email      string               `gorm:"type:varchar(255);not null" json:"email"`
	Phone      string               `gorm:"type:varchar(64)" json:"phone"`
	Body       string               `gorm:"type:text;not null" json:"body"`
	Status     ContactMessageStatus `gorm:"type:varchar(16);not null;default:pending" json:"status"`
	CreatedAt  time.Time            `json:"created_at"`
	UpdatedAt  time.Time            `json:"updated_at"`
}

func (ContactMessage) TableName() string { return "contact_messages" }

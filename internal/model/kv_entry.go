package model

import "time"

// KVEntry backs the Postgres state store. ExpiresAt is nil for entries without a backend TTL.
type KVEntry struct {
	Key       string     `gorm:"type:varchar(512);primaryKey" json:"key"`
	Value     []byte     `gorm:"type:bytea;not null" json:"value"`
	ExpiresAt *time.Time `gorm:"index" json:"expires_at,omitempty"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (KVEntry) TableName() string { return "kv_entries" }

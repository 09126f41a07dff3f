package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"estatehub/bff/internal/model"
)

type pgStateStore struct {
	db *gorm.DB
}

func NewPGStateStore(db *gorm.DB) StateStore {
	return &pgStateStore{db: db}
}

func (s *pgStateStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	entry := model.KVEntry{Key: key, Value: value}
	if ttl > 0 {
		expiresAt := time.Now().Add(ttl)
		entry.ExpiresAt = &expiresAt
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "expires_at", "updated_at"}),
		}).
		Create(&entry).Error
}

func (s *pgStateStore) Get(ctx context.Context, key string) ([]byte, error) {
	var entry model.KVEntry
	err := s.live(ctx).Where("key = ?", key).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return entry.Value, nil
}

func (s *pgStateStore) Delete(ctx context.Context, key string) error {
	return s.db.WithContext(ctx).Delete(&model.KVEntry{}, "key = ?", key).Error
}

func (s *pgStateStore) Exists(ctx context.Context, key string) (bool, error) {
	var n int64
	err := s.live(ctx).Model(&model.KVEntry{}).Where("key = ?", key).Count(&n).Error
	return n > 0, err
}

func (s *pgStateStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	err := s.live(ctx).
		Model(&model.KVEntry{}).
		Where("key LIKE ? ESCAPE '\\'", escapeLike(prefix)+"%").
		Pluck("key", &keys).Error
	return keys, err
}

func (s *pgStateStore) live(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Where("(expires_at IS NULL OR expires_at > ?)", time.Now())
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

package kvstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SessionEntry is the row backing one key of the SQL store.
type SessionEntry struct {
	Key       string     `gorm:"column:session_key;primaryKey;size:255"`
	Value     string     `gorm:"column:value;type:text;not null"`
	ExpiresAt *time.Time `gorm:"column:expires_at;index"`
	UpdatedAt time.Time  `gorm:"column:updated_at"`
}

func (SessionEntry) TableName() string { return "session_entries" }

// SQL persists entries through GORM so sqlite and postgres share one code path.
type SQL struct {
	db  *gorm.DB
	ttl time.Duration
	now func() time.Time
}

// NewSQL migrates the session_entries table and returns the store.
func NewSQL(ctx context.Context, conn *gorm.DB, ttl time.Duration) (*SQL, error) {
	if conn == nil {
		return nil, errors.New("gorm connection is required")
	}
	if err := conn.WithContext(ctx).AutoMigrate(&SessionEntry{}); err != nil {
		return nil, fmt.Errorf("migrating session entries: %w", err)
	}
	return &SQL{db: conn, ttl: ttl, now: time.Now}, nil
}

func (s *SQL) Get(ctx context.Context, key string) (string, error) {
	var entry SessionEntry
	err := s.db.WithContext(ctx).Where("session_key = ?", key).Take(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	if entry.ExpiresAt != nil && !s.now().Before(*entry.ExpiresAt) {
		if err := s.Delete(ctx, key); err != nil {
			return "", err
		}
		return "", ErrNotFound
	}
	return entry.Value, nil
}

func (s *SQL) Set(ctx context.Context, key, value string) error {
	now := s.now().UTC()
	entry := SessionEntry{
		Key:       key,
		Value:     value,
		ExpiresAt: expiry(now, s.ttl),
		UpdatedAt: now,
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "session_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "expires_at", "updated_at"}),
		}).
		Create(&entry).Error
}

func (s *SQL) Delete(ctx context.Context, key string) error {
	return s.db.WithContext(ctx).Where("session_key = ?", key).Delete(&SessionEntry{}).Error
}

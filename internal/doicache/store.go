package doicache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var errMissingDatabase = errors.New("doicache: database handle is required")

// Entry is one persisted lookup response.
type Entry struct {
	Key              string         `gorm:"column:cache_key;primaryKey;size:512;not null"`
	Body             datatypes.JSON `gorm:"column:body;type:json;not null"`
	FetchedAtSeconds int64          `gorm:"column:fetched_at_s;not null;index"`
}

// TableName provides the explicit table binding for GORM.
func (Entry) TableName() string {
	return "doi_responses"
}

// StoreConfig configures a Store. A zero TTL keeps rows forever.
type StoreConfig struct {
	Database *gorm.DB
	TTL      time.Duration
	Clock    func() time.Time
}

// Store persists lookup responses in SQL so they survive restarts.
type Store struct {
	db    *gorm.DB
	ttl   time.Duration
	clock func() time.Time
}

// NewStore creates a Store. The schema is migrated by the database package.
func NewStore(cfg StoreConfig) (*Store, error) {
	if cfg.Database == nil {
		return nil, errMissingDatabase
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Store{db: cfg.Database, ttl: cfg.TTL, clock: clock}, nil
}

// Get returns a stored body unless it is older than the TTL.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var entry Entry
	err := s.db.WithContext(ctx).Where("cache_key = ?", key).Take(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("doicache: select %s: %w", key, err)
	}
	if s.ttl > 0 && s.clock().UTC().Unix()-entry.FetchedAtSeconds >= int64(s.ttl/time.Second) {
		return nil, false, nil
	}
	return []byte(entry.Body), true, nil
}

// TTL returns the configured row lifetime, zero when rows never expire.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

// Put upserts a body.
func (s *Store) Put(ctx context.Context, key string, body []byte) error {
	entry := Entry{
		Key:              key,
		Body:             datatypes.JSON(body),
		FetchedAtSeconds: s.clock().UTC().Unix(),
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "cache_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"body", "fetched_at_s"}),
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("doicache: upsert %s: %w", key, err)
	}
	return nil
}

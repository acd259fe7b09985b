package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/storefront-sync/pkg/db/models"
)

// SQLiteEntries keeps session entries in the local kv_entries table.
type SQLiteEntries struct {
	db  *gorm.DB
	now func() time.Time
}

// NewSQLiteEntries binds the entries to an open, migrated connection.
func NewSQLiteEntries(db *gorm.DB) (*SQLiteEntries, error) {
	if db == nil {
		return nil, fmt.Errorf("gorm connection is required")
	}
	return &SQLiteEntries{db: db, now: time.Now}, nil
}

func (s *SQLiteEntries) Lookup(ctx context.Context, key string) (string, bool, error) {
	var entry models.KVEntry
	err := s.db.WithContext(ctx).Where("entry_key = ?", key).Take(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return entry.Value, true, nil
}

func (s *SQLiteEntries) Set(ctx context.Context, key, value string) error {
	entry := models.KVEntry{Key: key, Value: value, UpdatedAt: s.now().UTC()}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "entry_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
}

func (s *SQLiteEntries) Delete(ctx context.Context, key string) error {
	return s.db.WithContext(ctx).Where("entry_key = ?", key).Delete(&models.KVEntry{}).Error
}

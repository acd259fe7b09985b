package models

import "time"

// KVEntry is one persisted client-side entry: the session credential, the
// last offer check or a one-time flag.
type KVEntry struct {
	Key       string    `gorm:"column:entry_key;primaryKey;type:text"`
	Value     string    `gorm:"type:text;not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (KVEntry) TableName() string {
	return "kv_entries"
}

package models

import (
	"time"
)

// Storage keys shared with the single-page frontend
const (
	SnapshotKey = "nextbet-storage"
	SessionKey  = "nextbet_user"
)

// KVEntry is one named record in the local key-value store
type KVEntry struct {
	Key       string    `json:"key" gorm:"column:entry_key;primaryKey"`
	Value     string    `json:"value" gorm:"type:text;not null"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (KVEntry) TableName() string {
	return "kv_entries"
}

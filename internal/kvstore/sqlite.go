package kvstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	columnKey        = "storage_key"
	queryKey         = columnKey + " = ?"
	queryKeyPrefix   = columnKey + " LIKE ? ESCAPE '\\'"
	orderKeyAsc      = columnKey + " ASC"
	likeEscapedChars = "\\%_"
)

// Entry is one persisted key-value pair.
type Entry struct {
	Key              string `gorm:"column:storage_key;primaryKey;size:190;not null"`
	Value            string `gorm:"column:storage_value;type:text;not null"`
	UpdatedAtSeconds int64  `gorm:"column:updated_at_s;not null"`
}

// TableName provides the explicit table binding for GORM.
func (Entry) TableName() string {
	return "kv_entries"
}

// SQLiteStore persists entries through GORM. The schema is migrated by the
// database package.
type SQLiteStore struct {
	db    *gorm.DB
	clock func() time.Time
}

// NewSQLiteStore wraps an open database handle.
func NewSQLiteStore(db *gorm.DB, clock func() time.Time) *SQLiteStore {
	if clock == nil {
		clock = time.Now
	}
	return &SQLiteStore{db: db, clock: clock}
}

func (s *SQLiteStore) Get(ctx context.Context, key string) (string, bool, error) {
	if s == nil || s.db == nil {
		return "", false, ErrUnavailable
	}
	var entry Entry
	err := s.db.WithContext(ctx).Where(queryKey, key).Take(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return entry.Value, true, nil
}

func (s *SQLiteStore) Set(ctx context.Context, key, value string) error {
	if s == nil || s.db == nil {
		return ErrUnavailable
	}
	if strings.TrimSpace(key) == "" {
		return ErrEmptyKey
	}
	return upsertEntry(s.db.WithContext(ctx), key, value, s.clock().UTC().Unix())
}

func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	if s == nil || s.db == nil {
		return ErrUnavailable
	}
	return s.db.WithContext(ctx).Where(queryKey, key).Delete(&Entry{}).Error
}

func (s *SQLiteStore) Update(ctx context.Context, key string, fn UpdateFunc) error {
	if s == nil || s.db == nil {
		return ErrUnavailable
	}
	if strings.TrimSpace(key) == "" {
		return ErrEmptyKey
	}
	return s.db.WithContext(ctx).Transaction(func(transaction *gorm.DB) error {
		var existing Entry
		found := true
		err := transaction.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where(queryKey, key).
			Take(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			found = false
		} else if err != nil {
			return err
		}
		next, err := fn(existing.Value, found)
		if err != nil {
			return err
		}
		return upsertEntry(transaction, key, next, s.clock().UTC().Unix())
	})
}

func (s *SQLiteStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	if s == nil || s.db == nil {
		return nil, ErrUnavailable
	}
	var keys []string
	err := s.db.WithContext(ctx).
		Model(&Entry{}).
		Where(queryKeyPrefix, escapeLike(prefix)+"%").
		Order(orderKeyAsc).
		Pluck(columnKey, &keys).Error
	if err != nil {
		return nil, err
	}
	return keys, nil
}

func upsertEntry(db *gorm.DB, key, value string, updatedAt int64) error {
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: columnKey}},
		DoUpdates: clause.AssignmentColumns([]string{"storage_value", "updated_at_s"}),
	}).Create(&Entry{
		Key:              key,
		Value:            value,
		UpdatedAtSeconds: updatedAt,
	}).Error
}

func escapeLike(value string) string {
	var builder strings.Builder
	for _, r := range value {
		if strings.ContainsRune(likeEscapedChars, r) {
			builder.WriteRune('\\')
		}
		builder.WriteRune(r)
	}
	return builder.String()
}

package database

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/MarcoPoloResearchLab/fieldreport/internal/kvstore"
	"github.com/MarcoPoloResearchLab/fieldreport/internal/safety"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	migrationPurgeEmptyPayloads   = "2026-02-10_purge_empty_payloads"
	migrationDeriveMissedTalks    = "2026-02-12_derive_missed_safety_talks"
	persistedMissedStatus         = "missed"
	safetyTalkStatusField         = "status"
	emptyPayloadCondition         = "storage_value = '' OR storage_value = '[]'"
	safetyTalkStorageKeyCondition = "storage_key = ?"
)

type migrationRecord struct {
	Name             string `gorm:"column:name;primaryKey;size:190;not null"`
	AppliedAtSeconds int64  `gorm:"column:applied_at_s;not null"`
}

func (migrationRecord) TableName() string {
	return "db_migrations"
}

type migrationDefinition struct {
	name  string
	apply func(*gorm.DB) error
}

func applyMigrations(db *gorm.DB, logger *zap.Logger) error {
	migrations := []migrationDefinition{
		{name: migrationPurgeEmptyPayloads, apply: purgeEmptyPayloads},
		{name: migrationDeriveMissedTalks, apply: deriveMissedSafetyTalks},
	}

	for _, migration := range migrations {
		var record migrationRecord
		err := db.Where("name = ?", migration.name).Take(&record).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := db.Transaction(migration.apply); err != nil {
			return err
		}
		appliedAt := time.Now().UTC().Unix()
		if err := db.Create(&migrationRecord{Name: migration.name, AppliedAtSeconds: appliedAt}).Error; err != nil {
			return err
		}
		if logger != nil {
			logger.Info("database migration applied", zap.String("migration", migration.name))
		}
	}
	return nil
}

// purgeEmptyPayloads drops rows whose value reads the same as an absent key.
func purgeEmptyPayloads(db *gorm.DB) error {
	return db.Where(emptyPayloadCondition).Delete(&kvstore.Entry{}).Error
}

// deriveMissedSafetyTalks rewrites talks stored with the derived "missed"
// status back to upcoming. Unknown fields are preserved; an unreadable list is
// left for the read path to degrade.
func deriveMissedSafetyTalks(db *gorm.DB) error {
	var entry kvstore.Entry
	err := db.Where(safetyTalkStorageKeyCondition, safety.StorageKey).Take(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	var talks []map[string]json.RawMessage
	if err := json.Unmarshal([]byte(entry.Value), &talks); err != nil {
		return nil
	}

	upcoming, err := json.Marshal(string(safety.StatusUpcoming))
	if err != nil {
		return err
	}
	changed := false
	for _, talk := range talks {
		var status string
		if err := json.Unmarshal(talk[safetyTalkStatusField], &status); err != nil {
			continue
		}
		if status == persistedMissedStatus {
			talk[safetyTalkStatusField] = upcoming
			changed = true
		}
	}
	if !changed {
		return nil
	}

	encoded, err := json.Marshal(talks)
	if err != nil {
		return err
	}
	return db.Model(&kvstore.Entry{}).
		Where(safetyTalkStorageKeyCondition, safety.StorageKey).
		Updates(map[string]any{
			"storage_value": string(encoded),
			"updated_at_s":  time.Now().UTC().Unix(),
		}).Error
}

package database

import (
	"errors"
	"time"

	"github.com/MarcoPoloResearchLab/linkrot/backend/internal/doicache"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const migrationPurgeMixedCaseCacheKeys = "2026-03-01_purge_mixed_case_doi_cache_keys"

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
		{name: migrationPurgeMixedCaseCacheKeys, apply: purgeMixedCaseCacheKeys},
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
		if err := migration.apply(db); err != nil {
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

// purgeMixedCaseCacheKeys drops responses cached under a DOI that was not
// lower-cased. Lookups key on the lower-cased DOI, so those rows are unreachable.
func purgeMixedCaseCacheKeys(db *gorm.DB) error {
	return db.Where("cache_key <> lower(cache_key)").Delete(&doicache.Entry{}).Error
}

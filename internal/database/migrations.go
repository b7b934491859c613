package database

import (
	"fmt"

	"gorm.io/gorm"
)

// MigrateLegacyParcelsTable upgrades SQLite databases created before the
// (awb, date) composite key, where awb alone was unique and a second day's
// manifest could not re-list an AWB. SQLite cannot drop a unique constraint
// baked into the table definition, so the table is rebuilt and rows copied
// across. Other dialects are left to the gorm migrator.
func MigrateLegacyParcelsTable(db *gorm.DB) error {
	if db.Dialector.Name() != "sqlite" {
		return nil
	}
	if !db.Migrator().HasTable("parcels") {
		return nil
	}

	legacy, err := hasAwbOnlyUniqueIndex(db)
	if err != nil {
		return err
	}
	if !legacy {
		return nil
	}

	return db.Transaction(func(tx *gorm.DB) error {
		statements := []string{
			`CREATE TABLE parcels_new (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				awb VARCHAR(100) NOT NULL,
				date VARCHAR(10) NOT NULL,
				status VARCHAR(20) NOT NULL CONSTRAINT chk_parcels_status CHECK (status IN ('expected','scanned','surplus')),
				created_at DATETIME,
				updated_at DATETIME,
				CONSTRAINT idx_awb_date UNIQUE (awb, date)
			)`,
			// Early deployments stored the expected state as 'uploaded'.
			`INSERT OR IGNORE INTO parcels_new (id, awb, date, status, created_at, updated_at)
				SELECT id, awb, date,
					CASE WHEN status = 'uploaded' THEN 'expected' ELSE status END,
					created_at, updated_at
				FROM parcels`,
			`DROP TABLE parcels`,
			`ALTER TABLE parcels_new RENAME TO parcels`,
			`CREATE INDEX IF NOT EXISTS idx_date ON parcels(date)`,
		}
		for _, stmt := range statements {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("failed to rebuild parcels table: %w", err)
			}
		}
		return nil
	})
}

// hasAwbOnlyUniqueIndex reports whether the parcels table carries a unique
// index over the awb column alone, the marker of the legacy schema.
func hasAwbOnlyUniqueIndex(db *gorm.DB) (bool, error) {
	type indexEntry struct {
		Seq     int
		Name    string
		Unique  bool
		Origin  string
		Partial bool
	}
	var indexes []indexEntry
	if err := db.Raw("PRAGMA index_list(parcels)").Scan(&indexes).Error; err != nil {
		return false, fmt.Errorf("failed to inspect parcels indexes: %w", err)
	}

	for _, idx := range indexes {
		if !idx.Unique {
			continue
		}
		type indexColumn struct {
			Seqno int
			Cid   int
			Name  string
		}
		var cols []indexColumn
		if err := db.Raw(fmt.Sprintf("PRAGMA index_info(%q)", idx.Name)).Scan(&cols).Error; err != nil {
			return false, fmt.Errorf("failed to inspect index %s: %w", idx.Name, err)
		}
		if len(cols) == 1 && cols[0].Name == "awb" {
			return true, nil
		}
	}
	return false, nil
}

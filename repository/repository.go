// Package repository holds the gorm-backed persistence layer for the
// engine's four persistent entities plus their link tables, per the
// teacher's repository/*.go convention of one file per entity aggregated
// behind a single Repository struct.
package repository

import "gorm.io/gorm"

type Repository struct {
	StoreEvent       *StoreEventRepo
	Object           *ObjectRepo
	HistoricalObject *HistoricalObjectRepo
	Metadata         *MetadataRepo
	Checksum         *ChecksumRepo
	Attributes       *AttributesRepo
	db               *gorm.DB
}

func InitRepository(db *gorm.DB) *Repository {
	return &Repository{
		StoreEvent:       NewStoreEventRepo(db),
		Object:           NewObjectRepo(db),
		HistoricalObject: NewHistoricalObjectRepo(db),
		Metadata:         NewMetadataRepo(db),
		Checksum:         NewChecksumRepo(db),
		Attributes:       NewAttributesRepo(db),
		db:               db,
	}
}

// Transaction runs fn inside a single database transaction, matching
// §5's transactional discipline: all writes for one batch complete
// atomically, spanning event insert, object upsert, and metadata upsert.
func (r *Repository) Transaction(fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

// Ping checks database connectivity for the health controller.
func (r *Repository) Ping() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

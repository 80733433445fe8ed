package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/OrcaBus/service-filemanager/entity"
)

// HistoricalObjectRepo persists closed-out records. A HistoricalObject
// exists iff some later event invalidated the prior Object for its
// (bucket, key, version_id) — §8 invariant 4 — so this repo only ever
// inserts rows created by Object.ToHistorical, never synthesizes its own.
type HistoricalObjectRepo struct {
	db *gorm.DB
}

func NewHistoricalObjectRepo(db *gorm.DB) *HistoricalObjectRepo {
	return &HistoricalObjectRepo{db: db}
}

func (r *HistoricalObjectRepo) Insert(tx *gorm.DB, row *entity.HistoricalObject) error {
	return tx.Create(row).Error
}

// FindByVersion looks up the closed-out record for a specific
// (bucket, key, version_id), used by the Ingest Writer's revival path
// when a version that was once superseded becomes current again.
func (r *HistoricalObjectRepo) FindByVersion(tx *gorm.DB, bucket, key, versionID string) (*entity.HistoricalObject, bool, error) {
	var row entity.HistoricalObject
	err := tx.Where("bucket = ? AND key = ? AND version_id = ?", bucket, key, versionID).First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, false, nil
		}
		return nil, false, err
	}
	return &row, true, nil
}

// Delete removes a closed-out record, used once its ownership of
// metadata/checksums/attributes has been moved back to a revived Object.
func (r *HistoricalObjectRepo) Delete(tx *gorm.DB, id uuid.UUID) error {
	return tx.Delete(&entity.HistoricalObject{}, "id = ?", id).Error
}

func (r *HistoricalObjectRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.HistoricalObject, error) {
	var row entity.HistoricalObject
	err := r.db.WithContext(ctx).Preload("Metadata").Preload("Checksums").First(&row, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// ByLineage returns every HistoricalObject row sharing a lineage_id. It
// queries the historical_object table only; current Object rows with the
// same lineage_id are not included.
func (r *HistoricalObjectRepo) ByLineage(ctx context.Context, lineageID uuid.UUID) ([]entity.HistoricalObject, error) {
	var rows []entity.HistoricalObject
	err := r.db.WithContext(ctx).Where("lineage_id = ?", lineageID).Find(&rows).Error
	return rows, err
}

package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/OrcaBus/service-filemanager/entity"
)

// ObjectRepo persists current-state rows and implements the bulk
// "unset is_current_state" query the State Projector (§4.H) uses ahead
// of recomputing current-state flags for a touched key set, mirroring
// the original's database/aws/query.rs::reset_current_state.
type ObjectRepo struct {
	db *gorm.DB
}

func NewObjectRepo(db *gorm.DB) *ObjectRepo {
	return &ObjectRepo{db: db}
}

// FindByVersion looks up the current-state Object for a specific
// (bucket, key, version_id), if one exists.
func (r *ObjectRepo) FindByVersion(ctx context.Context, tx *gorm.DB, bucket, key, versionID string) (*entity.Object, bool, error) {
	db := r.dbOrTx(tx)
	var row entity.Object
	err := db.WithContext(ctx).Where("bucket = ? AND key = ? AND version_id = ?", bucket, key, versionID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &row, true, nil
}

// FindAnyByLineage reports whether any Object row carries the given
// lineage_id, across every (bucket, key).
func (r *ObjectRepo) FindAnyByLineage(ctx context.Context, lineageID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Object{}).Where("lineage_id = ?", lineageID).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Upsert inserts or updates the Object row for (bucket, key, version_id).
func (r *ObjectRepo) Upsert(tx *gorm.DB, row *entity.Object) error {
	return tx.Save(row).Error
}

// Delete removes the Object row entirely — used by the Ingest Writer once
// a row has been closed out to HistoricalObject and its metadata,
// checksums and attributes have moved with it.
func (r *ObjectRepo) Delete(tx *gorm.DB, id uuid.UUID) error {
	return tx.Delete(&entity.Object{}, "id = ?", id).Error
}

// ResetCurrentState unsets is_current_state for every Object row under
// the given (bucket, key) pairs, ahead of the State Projector
// recomputing exactly those keys (§4.H). Mirrors reset_current_state.sql
// in the original.
func (r *ObjectRepo) ResetCurrentState(ctx context.Context, tx *gorm.DB, buckets, keys []string) error {
	if len(buckets) == 0 {
		return nil
	}
	pairs := dedupPairs(buckets, keys)
	db := r.dbOrTx(tx).WithContext(ctx)
	for _, p := range pairs {
		if err := db.Model(&entity.Object{}).
			Where("bucket = ? AND key = ? AND is_current_state = true", p[0], p[1]).
			Update("is_current_state", false).Error; err != nil {
			return err
		}
	}
	return nil
}

// VersionsForKey returns every Object row across all version_ids for
// (bucket, key), whether or not it is flagged current.
func (r *ObjectRepo) VersionsForKey(ctx context.Context, tx *gorm.DB, bucket, key string) ([]entity.Object, error) {
	db := r.dbOrTx(tx)
	var rows []entity.Object
	err := db.WithContext(ctx).Where("bucket = ? AND key = ?", bucket, key).Find(&rows).Error
	return rows, err
}

func (r *ObjectRepo) dbOrTx(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

// dedupPairs removes duplicate (bucket, key) combinations, matching the
// original's HashSet-based dedup before firing reset_current_state once
// per distinct pair instead of once per row.
func dedupPairs(buckets, keys []string) [][2]string {
	seen := make(map[[2]string]bool)
	var out [][2]string
	for i := range buckets {
		p := [2]string{buckets[i], keys[i]}
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}

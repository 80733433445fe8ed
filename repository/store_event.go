package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/OrcaBus/service-filemanager/entity"
)

// StoreEventRepo persists the ephemeral event log and implements the
// dedup/reorder lookups the Sequencer (§4.C) needs.
type StoreEventRepo struct {
	db *gorm.DB
}

func NewStoreEventRepo(db *gorm.DB) *StoreEventRepo {
	return &StoreEventRepo{db: db}
}

// FindByDedupKey satisfies sequence.ExistingEventLookup.
func (r *StoreEventRepo) FindByDedupKey(ctx context.Context, key entity.DedupKey) (*entity.StoreEvent, bool, error) {
	return r.findByDedupKey(r.db.WithContext(ctx), key)
}

// FindByDedupKeyTx is FindByDedupKey scoped to an in-flight transaction,
// so the Sequencer's dedup check and the Ingest Writer's insert happen
// inside the same database transaction per §5.
func (r *StoreEventRepo) FindByDedupKeyTx(ctx context.Context, tx *gorm.DB, key entity.DedupKey) (*entity.StoreEvent, bool, error) {
	return r.findByDedupKey(tx.WithContext(ctx), key)
}

func (r *StoreEventRepo) findByDedupKey(db *gorm.DB, key entity.DedupKey) (*entity.StoreEvent, bool, error) {
	var row entity.StoreEvent
	q := db.Where("bucket = ? AND key = ? AND version_id = ? AND event_type = ?",
		key.Bucket, key.Key, key.VersionID, key.EventType)
	if key.Sequencer == "" {
		q = q.Where("sequencer IS NULL")
	} else {
		q = q.Where("sequencer = ?", key.Sequencer)
	}

	err := q.First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &row, true, nil
}

// LatestForVersion satisfies sequence.ExistingEventLookup: the
// highest-sequencer surviving event for (bucket, key, version_id), NULL
// sequencer sorted last per §3.
func (r *StoreEventRepo) LatestForVersion(ctx context.Context, bucket, key, versionID string) (*entity.StoreEvent, bool, error) {
	return r.latestForVersion(r.db.WithContext(ctx), bucket, key, versionID)
}

// LatestForVersionTx is LatestForVersion scoped to an in-flight
// transaction.
func (r *StoreEventRepo) LatestForVersionTx(ctx context.Context, tx *gorm.DB, bucket, key, versionID string) (*entity.StoreEvent, bool, error) {
	return r.latestForVersion(tx.WithContext(ctx), bucket, key, versionID)
}

func (r *StoreEventRepo) latestForVersion(db *gorm.DB, bucket, key, versionID string) (*entity.StoreEvent, bool, error) {
	var row entity.StoreEvent
	err := db.
		Where("bucket = ? AND key = ? AND version_id = ?", bucket, key, versionID).
		Order("sequencer IS NULL, sequencer DESC, event_time DESC, id DESC").
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &row, true, nil
}

// LatestPerVersion returns the latest surviving StoreEvent for every
// version_id under (bucket, key), feeding §4.D step 2 and the State
// Projector's per-partition head selection (§4.H).
func (r *StoreEventRepo) LatestPerVersion(ctx context.Context, tx *gorm.DB, bucket, key string) ([]entity.StoreEvent, error) {
	db := r.db
	if tx != nil {
		db = tx
	}

	var rows []entity.StoreEvent
	err := db.WithContext(ctx).Raw(`
		SELECT DISTINCT ON (version_id) *
		FROM store_event
		WHERE bucket = ? AND key = ?
		ORDER BY version_id, sequencer IS NULL, sequencer DESC, event_time DESC, id DESC
	`, bucket, key).Scan(&rows).Error
	return rows, err
}

// Insert persists a new StoreEvent row within tx.
func (r *StoreEventRepo) Insert(tx *gorm.DB, row *entity.StoreEvent) error {
	return tx.Create(row).Error
}

// IncrementDuplicate bumps number_duplicate_events on an existing row,
// implementing the §4.C collision policy.
func (r *StoreEventRepo) IncrementDuplicate(tx *gorm.DB, id uuid.UUID) error {
	return tx.Model(&entity.StoreEvent{}).Where("id = ?", id).
		UpdateColumn("number_duplicate_events", gorm.Expr("number_duplicate_events + 1")).Error
}

// Prune deletes StoreEvent rows older than the retention window. The
// State Projector selects version heads from this table
// (LatestPerVersion), so a version whose events are all pruned is no
// longer a candidate the next time its key is recomputed.
func (r *StoreEventRepo) Prune(ctx context.Context, olderThanEventTime interface{}) (int64, error) {
	res := r.db.WithContext(ctx).Where("event_time < ?", olderThanEventTime).Delete(&entity.StoreEvent{})
	return res.RowsAffected, res.Error
}

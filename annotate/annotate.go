// Package annotate implements the Annotation Store (§4.I): patching
// Object.attributes via JSON merge-patch, upserting checksums, and the
// operator-override "ingest-id patch" supplemented from the original's
// routes/update.rs.
package annotate

import (
	"context"
	"fmt"

	jsonpatch "github.com/evanphx/json-patch/v5"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/OrcaBus/service-filemanager/entity"
	"github.com/OrcaBus/service-filemanager/lineage"
	"github.com/OrcaBus/service-filemanager/repository"
)

// Store performs annotation operations against the current-state tables.
// Every operation requires the caller to address either an Object or a
// HistoricalObject explicitly; neither one is inferred from the other per
// §4.I's "never implicitly touch history" rule.
type Store struct {
	repo    *repository.Repository
	tracker *lineage.Tracker
}

func NewStore(repo *repository.Repository, tracker *lineage.Tracker) *Store {
	return &Store{repo: repo, tracker: tracker}
}

// PatchAttributes applies a JSON merge-patch (RFC 7396) onto an Object's
// attributes payload, idempotently: re-applying the same patch to the
// result of a prior application is a no-op. History rows are never
// targeted by this operation; callers operating on a HistoricalObject use
// PatchHistoricalAttributes.
func (s *Store) PatchAttributes(ctx context.Context, objectID uuid.UUID, patch []byte) error {
	return s.repo.Transaction(func(tx *gorm.DB) error {
		current, err := s.repo.Attributes.CurrentForObject(tx, objectID)
		if err != nil {
			return err
		}

		merged, err := jsonpatch.MergePatch(current, patch)
		if err != nil {
			return fmt.Errorf("applying attribute patch: %w", err)
		}

		return s.repo.Attributes.ReplaceForObject(tx, objectID, datatypes.JSON(merged))
	})
}

// PatchHistoricalAttributes is PatchAttributes's explicit-target
// equivalent for a closed-out record.
func (s *Store) PatchHistoricalAttributes(ctx context.Context, historicalObjectID uuid.UUID, patch []byte) error {
	return s.repo.Transaction(func(tx *gorm.DB) error {
		current, err := s.repo.Attributes.CurrentForHistorical(tx, historicalObjectID)
		if err != nil {
			return err
		}

		merged, err := jsonpatch.MergePatch(current, patch)
		if err != nil {
			return fmt.Errorf("applying attribute patch: %w", err)
		}

		return s.repo.Attributes.ReplaceForHistorical(tx, historicalObjectID, datatypes.JSON(merged))
	})
}

// SetChecksum upserts a (name, value) checksum tuple on an Object,
// idempotently per §4.I.
func (s *Store) SetChecksum(ctx context.Context, objectID uuid.UUID, name, value string) error {
	return s.repo.Transaction(func(tx *gorm.DB) error {
		return s.repo.Checksum.Set(tx, objectID, name, value)
	})
}

// SetHistoricalChecksum is SetChecksum's explicit-target equivalent for a
// closed-out record.
func (s *Store) SetHistoricalChecksum(ctx context.Context, historicalObjectID uuid.UUID, name, value string) error {
	return s.repo.Transaction(func(tx *gorm.DB) error {
		return s.repo.Checksum.SetHistorical(tx, historicalObjectID, name, value)
	})
}

// PatchIngestID reassigns lineage_id on an Object — the one deliberate
// exception to §4.E's "never update an existing lineage tag" rule.
// Unlike the automatic Move Tracker path, this only ever fires when an
// operator explicitly calls it, mirroring the original's
// UpdateIngestIdParams.update_tag/PatchBody::extract_ingest_id. When
// updateTag is true and the targeted row is current, the new lineage_id
// is also written back to the object's store tag, overwriting whatever
// was there.
func (s *Store) PatchIngestID(ctx context.Context, objectID, newLineageID uuid.UUID, updateTag bool) error {
	type objectRow struct {
		Bucket         string
		Key            string
		VersionID      string
		IsCurrentState bool
	}
	var row objectRow

	err := s.repo.Transaction(func(tx *gorm.DB) error {
		if err := tx.Table("object").Where("id = ?", objectID).First(&row).Error; err != nil {
			return err
		}
		return tx.Table("object").Where("id = ?", objectID).Update("lineage_id", newLineageID).Error
	})
	if err != nil {
		return err
	}

	if !updateTag || !row.IsCurrentState {
		return nil
	}

	fe := &entity.FlatEvent{
		Bucket:          row.Bucket,
		Key:             row.Key,
		VersionID:       row.VersionID,
		LineageID:       newLineageID,
		LineageTagWrite: true,
	}
	return s.tracker.WriteBack(ctx, fe)
}

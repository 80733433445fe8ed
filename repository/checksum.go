package repository

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/OrcaBus/service-filemanager/entity"
)

// ChecksumRepo persists Checksum rows and implements the §4.I "set
// checksum" upsert keyed on (owner, name), plus the
// ownership transfer §3 requires when an Object closes out to history.
type ChecksumRepo struct {
	db *gorm.DB
}

func NewChecksumRepo(db *gorm.DB) *ChecksumRepo {
	return &ChecksumRepo{db: db}
}

// Set upserts a (name, value) checksum for an Object, idempotently per
// §4.I: re-applying the same tuple is a no-op, a new value for the same
// name replaces it.
func (r *ChecksumRepo) Set(tx *gorm.DB, objectID uuid.UUID, name, value string) error {
	var existing entity.Checksum
	err := tx.Where("object_id = ? AND name = ?", objectID, name).First(&existing).Error
	if err == gorm.ErrRecordNotFound {
		return tx.Create(&entity.Checksum{ID: uuid.New(), ObjectID: &objectID, Name: name, Value: value}).Error
	}
	if err != nil {
		return err
	}
	existing.Value = value
	return tx.Save(&existing).Error
}

// SetHistorical is Set's equivalent for an explicitly targeted
// HistoricalObject, per §4.I's rule that history rows require the caller
// to address the history identifier directly.
func (r *ChecksumRepo) SetHistorical(tx *gorm.DB, historicalObjectID uuid.UUID, name, value string) error {
	var existing entity.Checksum
	err := tx.Where("historical_object_id = ? AND name = ?", historicalObjectID, name).First(&existing).Error
	if err == gorm.ErrRecordNotFound {
		return tx.Create(&entity.Checksum{ID: uuid.New(), HistoricalObjectID: &historicalObjectID, Name: name, Value: value}).Error
	}
	if err != nil {
		return err
	}
	existing.Value = value
	return tx.Save(&existing).Error
}

// TransferToHistorical moves every Checksum row's FK from an Object to
// its closed-out HistoricalObject.
func (r *ChecksumRepo) TransferToHistorical(tx *gorm.DB, objectID, historicalObjectID uuid.UUID) error {
	return tx.Model(&entity.Checksum{}).
		Where("object_id = ?", objectID).
		Updates(map[string]interface{}{
			"object_id":            nil,
			"historical_object_id": historicalObjectID,
		}).Error
}

// TransferFromHistorical is TransferToHistorical's inverse, used when a
// previously closed-out version becomes current again.
func (r *ChecksumRepo) TransferFromHistorical(tx *gorm.DB, historicalObjectID, objectID uuid.UUID) error {
	return tx.Model(&entity.Checksum{}).
		Where("historical_object_id = ?", historicalObjectID).
		Updates(map[string]interface{}{
			"historical_object_id": nil,
			"object_id":            objectID,
		}).Error
}

func (r *ChecksumRepo) ListByObject(tx *gorm.DB, objectID uuid.UUID) ([]entity.Checksum, error) {
	var rows []entity.Checksum
	err := tx.Where("object_id = ?", objectID).Find(&rows).Error
	return rows, err
}

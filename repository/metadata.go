package repository

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/OrcaBus/service-filemanager/entity"
)

// MetadataRepo persists S3Metadata rows, which are 1:1 with exactly one
// of Object or HistoricalObject (never both), and implements the FK
// rewrite that transfers ownership when a row closes out to history.
type MetadataRepo struct {
	db *gorm.DB
}

func NewMetadataRepo(db *gorm.DB) *MetadataRepo {
	return &MetadataRepo{db: db}
}

func (r *MetadataRepo) Upsert(tx *gorm.DB, row *entity.S3Metadata) error {
	return tx.Save(row).Error
}

// TransferToHistorical rewrites an S3Metadata row's ownership from an
// Object to its closed-out HistoricalObject, per §3's ownership-transfer
// rule: the Checksum and Attributes link rows move the same way.
func (r *MetadataRepo) TransferToHistorical(tx *gorm.DB, objectID, historicalObjectID uuid.UUID) error {
	return tx.Model(&entity.S3Metadata{}).
		Where("object_id = ?", objectID).
		Updates(map[string]interface{}{
			"object_id":            nil,
			"historical_object_id": historicalObjectID,
		}).Error
}

func (r *MetadataRepo) FindByObjectID(tx *gorm.DB, objectID uuid.UUID) (*entity.S3Metadata, bool, error) {
	var row entity.S3Metadata
	err := tx.Where("object_id = ?", objectID).First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, false, nil
		}
		return nil, false, err
	}
	return &row, true, nil
}

func (r *MetadataRepo) FindByHistoricalObjectID(tx *gorm.DB, historicalObjectID uuid.UUID) (*entity.S3Metadata, bool, error) {
	var row entity.S3Metadata
	err := tx.Where("historical_object_id = ?", historicalObjectID).First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, false, nil
		}
		return nil, false, err
	}
	return &row, true, nil
}

// TransferFromHistorical is TransferToHistorical's inverse, used when a
// previously closed-out version becomes current again.
func (r *MetadataRepo) TransferFromHistorical(tx *gorm.DB, historicalObjectID, objectID uuid.UUID) error {
	return tx.Model(&entity.S3Metadata{}).
		Where("historical_object_id = ?", historicalObjectID).
		Updates(map[string]interface{}{
			"historical_object_id": nil,
			"object_id":            objectID,
		}).Error
}

package repository

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/OrcaBus/service-filemanager/entity"
)

// AttributesRepo persists the shared Attributes payload table and its
// link tables, implementing §4.I's "patch attributes" operation: a JSON
// merge-patch applied onto Object.attributes, never onto a history row
// implicitly.
type AttributesRepo struct {
	db *gorm.DB
}

func NewAttributesRepo(db *gorm.DB) *AttributesRepo {
	return &AttributesRepo{db: db}
}

// CurrentForObject returns the merged attributes payload currently
// linked to an Object, or nil if none is linked yet.
func (r *AttributesRepo) CurrentForObject(tx *gorm.DB, objectID uuid.UUID) (datatypes.JSON, error) {
	var links []entity.ObjectAttributes
	if err := tx.Where("object_id = ?", objectID).Find(&links).Error; err != nil {
		return nil, err
	}
	if len(links) == 0 {
		return datatypes.JSON(`{}`), nil
	}

	var attr entity.Attributes
	if err := tx.First(&attr, "id = ?", links[0].AttributesID).Error; err != nil {
		return nil, err
	}
	return attr.Payload, nil
}

// CurrentForHistorical is CurrentForObject's counterpart for an
// explicitly targeted HistoricalObject row.
func (r *AttributesRepo) CurrentForHistorical(tx *gorm.DB, historicalObjectID uuid.UUID) (datatypes.JSON, error) {
	var links []entity.HistoricalObjectAttributes
	if err := tx.Where("historical_object_id = ?", historicalObjectID).Find(&links).Error; err != nil {
		return nil, err
	}
	if len(links) == 0 {
		return datatypes.JSON(`{}`), nil
	}

	var attr entity.Attributes
	if err := tx.First(&attr, "id = ?", links[0].AttributesID).Error; err != nil {
		return nil, err
	}
	return attr.Payload, nil
}

// ReplaceForObject stores a new merged payload and repoints the Object's
// link to it, sharing the row with any other Object/HistoricalObject that
// already has the identical payload (§3: "identical payloads may be
// shared").
func (r *AttributesRepo) ReplaceForObject(tx *gorm.DB, objectID uuid.UUID, payload datatypes.JSON) error {
	attrID, err := r.findOrCreatePayload(tx, payload)
	if err != nil {
		return err
	}

	if err := tx.Where("object_id = ?", objectID).Delete(&entity.ObjectAttributes{}).Error; err != nil {
		return err
	}
	return tx.Create(&entity.ObjectAttributes{ObjectID: objectID, AttributesID: attrID}).Error
}

// ReplaceForHistorical is ReplaceForObject's counterpart for an
// explicitly targeted HistoricalObject row.
func (r *AttributesRepo) ReplaceForHistorical(tx *gorm.DB, historicalObjectID uuid.UUID, payload datatypes.JSON) error {
	attrID, err := r.findOrCreatePayload(tx, payload)
	if err != nil {
		return err
	}

	if err := tx.Where("historical_object_id = ?", historicalObjectID).Delete(&entity.HistoricalObjectAttributes{}).Error; err != nil {
		return err
	}
	return tx.Create(&entity.HistoricalObjectAttributes{HistoricalObjectID: historicalObjectID, AttributesID: attrID}).Error
}

// TransferToHistorical moves the attribute link from an Object to its
// closed-out HistoricalObject.
func (r *AttributesRepo) TransferToHistorical(tx *gorm.DB, objectID, historicalObjectID uuid.UUID) error {
	var links []entity.ObjectAttributes
	if err := tx.Where("object_id = ?", objectID).Find(&links).Error; err != nil {
		return err
	}
	for _, l := range links {
		if err := tx.Create(&entity.HistoricalObjectAttributes{HistoricalObjectID: historicalObjectID, AttributesID: l.AttributesID}).Error; err != nil {
			return err
		}
	}
	return tx.Where("object_id = ?", objectID).Delete(&entity.ObjectAttributes{}).Error
}

// TransferFromHistorical is TransferToHistorical's inverse, used when a
// previously closed-out version becomes current again.
func (r *AttributesRepo) TransferFromHistorical(tx *gorm.DB, historicalObjectID, objectID uuid.UUID) error {
	var links []entity.HistoricalObjectAttributes
	if err := tx.Where("historical_object_id = ?", historicalObjectID).Find(&links).Error; err != nil {
		return err
	}
	for _, l := range links {
		if err := tx.Create(&entity.ObjectAttributes{ObjectID: objectID, AttributesID: l.AttributesID}).Error; err != nil {
			return err
		}
	}
	return tx.Where("historical_object_id = ?", historicalObjectID).Delete(&entity.HistoricalObjectAttributes{}).Error
}

func (r *AttributesRepo) findOrCreatePayload(tx *gorm.DB, payload datatypes.JSON) (uuid.UUID, error) {
	var existing entity.Attributes
	err := tx.Where("payload = ?", string(payload)).First(&existing).Error
	if err == nil {
		return existing.ID, nil
	}
	if err != gorm.ErrRecordNotFound {
		return uuid.Nil, err
	}

	fresh := entity.Attributes{ID: uuid.New(), Payload: payload}
	if err := tx.Create(&fresh).Error; err != nil {
		return uuid.Nil, err
	}
	return fresh.ID, nil
}

package worker

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestAnnotationValidate_RejectsUnknownOperation(t *testing.T) {
	payload := annotationMessage{Operation: "delete_everything"}
	err := annotationValidate.Struct(&payload)
	assert.Error(t, err)
}

func TestAnnotationValidate_RejectsMissingOperation(t *testing.T) {
	payload := annotationMessage{}
	err := annotationValidate.Struct(&payload)
	assert.Error(t, err)
}

func TestAnnotationValidate_AcceptsEachKnownOperation(t *testing.T) {
	id := uuid.New()
	ops := []annotationMessage{
		{Operation: opPatchAttributes, ObjectID: &id},
		{Operation: opPatchHistoricalAttributes, HistoricalObjectID: &id},
		{Operation: opSetChecksum, ObjectID: &id},
		{Operation: opSetHistoricalChecksum, HistoricalObjectID: &id},
		{Operation: opPatchIngestID, ObjectID: &id, NewLineageID: &id},
	}
	for _, payload := range ops {
		err := annotationValidate.Struct(&payload)
		assert.NoError(t, err, "operation %q should pass struct validation", payload.Operation)
	}
}

func TestExecute_RejectsOperationMissingRequiredField(t *testing.T) {
	c := &AnnotationConsumer{}
	err := c.execute(nil, annotationMessage{Operation: opPatchAttributes})
	assert.Error(t, err)
}

func TestExecute_RejectsUnknownOperation(t *testing.T) {
	c := &AnnotationConsumer{}
	err := c.execute(nil, annotationMessage{Operation: "bogus"})
	assert.Error(t, err)
}

package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/OrcaBus/service-filemanager/annotate"
	"github.com/OrcaBus/service-filemanager/infra"
)

// annotationValidate is this package's own validator.New() instance, used
// on annotation messages the way gin's binding package validates inbound
// HTTP payloads; the annotation queue is this engine's equivalent of an
// inbound request body, just carried over AMQP instead of HTTP.
var annotationValidate = validator.New()

// annotationMessage is the §6/§4.I annotation request envelope: Operation
// selects which of the Annotation Store's operations runs, with the rest
// of the fields interpreted according to it. ObjectID/HistoricalObjectID
// are mutually exclusive per operation — never both set. Per-operation
// required fields beyond Operation itself are checked in execute, since
// which fields are required varies by operation in a way struct tags
// can't express declaratively.
type annotationMessage struct {
	Operation          string     `json:"operation" validate:"required,oneof=patch_attributes patch_historical_attributes set_checksum set_historical_checksum patch_ingest_id"`
	ObjectID           *uuid.UUID `json:"objectId,omitempty"`
	HistoricalObjectID *uuid.UUID `json:"historicalObjectId,omitempty"`
	Patch              []byte     `json:"patch,omitempty"`
	ChecksumName       string     `json:"checksumName,omitempty"`
	ChecksumValue      string     `json:"checksumValue,omitempty"`
	NewLineageID       *uuid.UUID `json:"newLineageId,omitempty"`
	UpdateTag          bool       `json:"updateTag,omitempty"`
}

const (
	opPatchAttributes           = "patch_attributes"
	opPatchHistoricalAttributes = "patch_historical_attributes"
	opSetChecksum               = "set_checksum"
	opSetHistoricalChecksum     = "set_historical_checksum"
	opPatchIngestID             = "patch_ingest_id"
)

// AnnotationConsumer drains operator-issued annotation requests and
// dispatches them to the Annotation Store (§4.I).
type AnnotationConsumer struct {
	channel *amqp.Channel
	infra   *infra.Infra
	store   *annotate.Store
}

func NewAnnotationConsumer(channel *amqp.Channel, i *infra.Infra, store *annotate.Store) *AnnotationConsumer {
	return &AnnotationConsumer{channel: channel, infra: i, store: store}
}

func (c *AnnotationConsumer) Start(ctx context.Context) error {
	if err := c.startConsumer(ctx); err != nil {
		return fmt.Errorf("failed to start annotation consumer: %w", err)
	}
	return nil
}

func (c *AnnotationConsumer) startConsumer(ctx context.Context) error {
	msgs, err := c.channel.Consume(
		infra.AnnotationQueue,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register annotation consumer: %w", err)
	}

	c.infra.Logger.InfoWithContextf(ctx, "[Annotation Consumer] Started listening on queue: %s", infra.AnnotationQueue)

	go func() {
		for {
			select {
			case <-ctx.Done():
				c.infra.Logger.InfoWithContextf(ctx, "[Annotation Consumer] Shutting down...")
				return
			case msg, ok := <-msgs:
				if !ok {
					c.infra.Logger.WarningWithContextf(ctx, "[Annotation Consumer] Channel closed")
					return
				}
				c.handle(ctx, msg)
			}
		}
	}()

	return nil
}

func (c *AnnotationConsumer) handle(ctx context.Context, msg amqp.Delivery) {
	var payload annotationMessage
	if err := json.Unmarshal(msg.Body, &payload); err != nil {
		c.infra.Logger.ErrorWithContextf(ctx, err, "[Annotation Consumer] Failed to unmarshal message: %v", err)
		_ = msg.Nack(false, false)
		return
	}
	if err := annotationValidate.Struct(&payload); err != nil {
		c.infra.Logger.ErrorWithContextf(ctx, err, "[Annotation Consumer] Invalid message: %v", err)
		_ = msg.Nack(false, false)
		return
	}

	maxRetries := 3
	var err error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		err = c.execute(ctx, payload)
		if err == nil {
			c.infra.Logger.InfoWithContextf(ctx, "[Annotation Consumer] Applied %s", payload.Operation)
			_ = msg.Ack(false)
			return
		}

		c.infra.Logger.ErrorWithContextf(ctx, err, "[Annotation Consumer] Attempt %d/%d failed: %v", attempt, maxRetries, err)

		if attempt < maxRetries {
			time.Sleep(time.Duration(attempt) * 2 * time.Second)
		}
	}

	c.infra.Logger.ErrorWithContextf(ctx, err, "[Annotation Consumer] Failed after %d attempts, requeueing message", maxRetries)
	_ = msg.Nack(false, true)
}

func (c *AnnotationConsumer) execute(ctx context.Context, payload annotationMessage) error {
	switch payload.Operation {
	case opPatchAttributes:
		if payload.ObjectID == nil {
			return fmt.Errorf("patch_attributes requires objectId")
		}
		return c.store.PatchAttributes(ctx, *payload.ObjectID, payload.Patch)

	case opPatchHistoricalAttributes:
		if payload.HistoricalObjectID == nil {
			return fmt.Errorf("patch_historical_attributes requires historicalObjectId")
		}
		return c.store.PatchHistoricalAttributes(ctx, *payload.HistoricalObjectID, payload.Patch)

	case opSetChecksum:
		if payload.ObjectID == nil {
			return fmt.Errorf("set_checksum requires objectId")
		}
		return c.store.SetChecksum(ctx, *payload.ObjectID, payload.ChecksumName, payload.ChecksumValue)

	case opSetHistoricalChecksum:
		if payload.HistoricalObjectID == nil {
			return fmt.Errorf("set_historical_checksum requires historicalObjectId")
		}
		return c.store.SetHistoricalChecksum(ctx, *payload.HistoricalObjectID, payload.ChecksumName, payload.ChecksumValue)

	case opPatchIngestID:
		if payload.ObjectID == nil || payload.NewLineageID == nil {
			return fmt.Errorf("patch_ingest_id requires objectId and newLineageId")
		}
		return c.store.PatchIngestID(ctx, *payload.ObjectID, *payload.NewLineageID, payload.UpdateTag)

	default:
		return fmt.Errorf("unknown annotation operation %q", payload.Operation)
	}
}

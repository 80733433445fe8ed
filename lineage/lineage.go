// Package lineage implements the Move Tracker (§4.E): assigning and
// propagating a stable lineage identifier through object tags so copies
// and renames are recognized as the same logical object.
package lineage

import (
	"context"

	"github.com/google/uuid"

	"github.com/OrcaBus/service-filemanager/entity"
)

// TagWriter is the narrow object-store surface the Move Tracker needs —
// satisfied by *store.Client in production and a fake in tests.
type TagWriter interface {
	PutTag(ctx context.Context, bucket, key, versionID string, existing map[string]string, tagKey, tagValue string) error
}

// Tracker resolves and, where necessary, propagates lineage_id for newly
// seen objects. It never updates a tag that already exists — per §4.E
// rule 3, the tag is append-only from the engine's perspective.
type Tracker struct {
	store    TagWriter
	tagKey   string
}

func NewTracker(store TagWriter, tagKey string) *Tracker {
	return &Tracker{store: store, tagKey: tagKey}
}

// Resolve implements steps 1-2 of §4.E for the first Created event seen
// for a (bucket, key, version_id): adopt an existing lineage tag if
// enrichment found one, otherwise mint a fresh UUID and mark it for a
// tag write-back. It mutates fe.LineageID/LineageFromTag/LineageTagWrite
// and returns nothing — the caller decides when to actually perform the
// write-back (after commit, per §5's transactional discipline).
func (t *Tracker) Resolve(fe *entity.FlatEvent) {
	if fe.ExistingTags != nil {
		if existing, ok := fe.ExistingTags[t.tagKey]; ok && existing != "" {
			if id, err := uuid.Parse(existing); err == nil {
				fe.LineageID = id
				fe.LineageFromTag = true
				fe.LineageTagWrite = false
				return
			}
		}
	}

	fe.LineageID = uuid.New()
	fe.LineageFromTag = false
	fe.LineageTagWrite = true
}

// WriteBack performs the deferred tag write for a freshly minted
// lineage_id, per §4.E step 1/4: happens after the database transaction
// commits, and its error is returned to the caller; nothing here retries
// it — the locally recorded lineage_id is already authoritative.
func (t *Tracker) WriteBack(ctx context.Context, fe *entity.FlatEvent) error {
	if !fe.LineageTagWrite {
		return nil
	}
	return t.store.PutTag(ctx, fe.Bucket, fe.Key, fe.VersionID, fe.ExistingTags, t.tagKey, fe.LineageID.String())
}

// PendingTagWrite is a locally-recorded lineage assignment whose tag
// write-back has not yet been performed; the Ingest Writer returns these
// after commit for the caller to attempt (§4.E step 4).
type PendingTagWrite struct {
	ObjectID  uuid.UUID
	Bucket    string
	Key       string
	VersionID string
	LineageID uuid.UUID
	Existing  map[string]string
}

// Reconcile attempts every pending tag write once, returning the subset
// that failed. The returned writes are not persisted, and no later pass
// retries them.
func (t *Tracker) Reconcile(ctx context.Context, pending []PendingTagWrite) []PendingTagWrite {
	var stillPending []PendingTagWrite
	for _, p := range pending {
		err := t.store.PutTag(ctx, p.Bucket, p.Key, p.VersionID, p.Existing, t.tagKey, p.LineageID.String())
		if err != nil {
			stillPending = append(stillPending, p)
		}
	}
	return stillPending
}

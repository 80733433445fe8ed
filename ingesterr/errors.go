// Package ingesterr defines the error kinds used across the ingestion
// pipeline, mirroring the policy table in §7: each kind carries its own
// retry/skip/fatal semantics rather than being handled ad hoc at call sites.
package ingesterr

import (
	"errors"
	"fmt"
)

// Kind classifies an ingestion error so callers can apply the right policy
// without string-matching messages.
type Kind int

const (
	// KindMalformed marks a record that could not be decoded (bad JSON,
	// missing bucket/key). Drop the record, count it, continue the batch.
	KindMalformed Kind = iota
	// KindTransientStore marks a throttled or 5xx object-store call.
	// Callers retry with backoff, then fall back to NULL metadata.
	KindTransientStore
	// KindPermission marks a 403 on HEAD/tagging. Persist without
	// metadata/lineage-tag; log once per day per bucket.
	KindPermission
	// KindDBIntegrity marks a uniqueness violation or similar constraint
	// failure. Fatal for the batch: do not ack, rely on redelivery.
	KindDBIntegrity
	// KindInventoryCorrupt marks a manifest file that failed its MD5
	// check. Skip the file, continue the manifest.
	KindInventoryCorrupt
	// KindCancelled marks a batch that was aborted because it was about
	// to exceed its wall-clock budget. Roll back, do not ack.
	KindCancelled
)

func (k Kind) String() string {
	switch k {
	case KindMalformed:
		return "malformed record"
	case KindTransientStore:
		return "transient store error"
	case KindPermission:
		return "permission error"
	case KindDBIntegrity:
		return "database integrity error"
	case KindInventoryCorrupt:
		return "inventory file corruption"
	case KindCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Error wraps an underlying cause with a Kind so callers can branch with
// errors.As without parsing strings.
type Error struct {
	Kind  Kind
	Cause error
	Msg   string
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Cause }

func New(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Msg: msg, Cause: cause}
}

// Is reports whether err (or anything it wraps) is an *Error of kind k.
func Is(err error, k Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == k
	}
	return false
}

package ingesterr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKind_String(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindMalformed, "malformed record"},
		{KindTransientStore, "transient store error"},
		{KindPermission, "permission error"},
		{KindDBIntegrity, "database integrity error"},
		{KindInventoryCorrupt, "inventory file corruption"},
		{KindCancelled, "cancelled"},
		{Kind(999), "unknown"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.kind.String())
	}
}

func TestNew_WrapsCauseAndFormatsMessage(t *testing.T) {
	cause := errors.New("boom")
	err := New(KindTransientStore, "head failed", cause)

	assert.Equal(t, cause, err.Unwrap())
	assert.Contains(t, err.Error(), "transient store error")
	assert.Contains(t, err.Error(), "head failed")
	assert.Contains(t, err.Error(), "boom")
}

func TestNew_WithoutCauseOmitsColonBoom(t *testing.T) {
	err := New(KindMalformed, "bad json", nil)
	assert.Equal(t, "malformed record: bad json", err.Error())
}

func TestIs_MatchesKindButNotAStringCopy(t *testing.T) {
	err := New(KindPermission, "denied", nil)
	wrapped := errors.New("context: " + err.Error())

	assert.True(t, Is(err, KindPermission))
	assert.False(t, Is(err, KindDBIntegrity))
	assert.False(t, Is(wrapped, KindPermission))
}

func TestIs_FalseForPlainError(t *testing.T) {
	assert.False(t, Is(errors.New("plain"), KindMalformed))
}

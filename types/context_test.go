package types

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserIDRoundTrip(t *testing.T) {
	ctx := context.Background()

	_, ok := UserID(ctx)
	assert.False(t, ok)

	ctx = WithUserID(ctx, "user-123")
	id, ok := UserID(ctx)
	assert.True(t, ok)
	assert.Equal(t, "user-123", id)
}

func TestEmptyValueNotPresent(t *testing.T) {
	ctx := WithUserEmail(context.Background(), "")
	_, ok := UserEmail(ctx)
	assert.False(t, ok)
}

func TestRequestIDRoundTrip(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-abc")
	id, ok := RequestID(ctx)
	assert.True(t, ok)
	assert.Equal(t, "req-abc", id)
}

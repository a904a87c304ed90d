package ctxutil

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValues(t *testing.T) {
	ctx := WithUserID(WithRequestID(context.Background(), "req-1"), 42)

	id, ok := RequestID(ctx)
	assert.True(t, ok)
	assert.Equal(t, "req-1", id)

	uid, ok := UserID(ctx)
	assert.True(t, ok)
	assert.Equal(t, int64(42), uid)

	_, ok = Op(ctx)
	assert.False(t, ok)

	op, ok := Op(WithOp(ctx, "GET /api/v1/tasks"))
	assert.True(t, ok)
	assert.Equal(t, "GET /api/v1/tasks", op)
}

func TestWithDBTimeout_KeepsShorterParent(t *testing.T) {
	parent, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	ctx, cancel2 := WithDBTimeout(parent)
	defer cancel2()

	dl, ok := ctx.Deadline()
	require.True(t, ok)
	assert.LessOrEqual(t, time.Until(dl), time.Second)
}

func TestWithDBTimeout_Default(t *testing.T) {
	ctx, cancel := WithDBTimeout(context.Background())
	defer cancel()

	dl, ok := ctx.Deadline()
	require.True(t, ok)
	assert.Greater(t, time.Until(dl), DefaultDBTimeout-time.Second)
}

func TestWithTimeout_Zero(t *testing.T) {
	ctx, cancel := WithTimeout(context.Background(), 0)
	defer cancel()
	_, ok := ctx.Deadline()
	assert.False(t, ok)
}

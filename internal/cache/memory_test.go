package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemoryProvider_SetGet(t *testing.T) {
	c, err := NewMemoryProvider()
	assert.NoError(t, err)
	ctx := context.Background()

	assert.NoError(t, c.Set(ctx, "webhook:evt_1", "1", time.Minute))

	v, err := c.Get(ctx, "webhook:evt_1")
	assert.NoError(t, err)
	assert.Equal(t, "1", v)

	//無いキーはErrNotFound
	_, err = c.Get(ctx, "webhook:evt_missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

// TTL切れはGet時に捨てられる
func TestMemoryProvider_Expiry(t *testing.T) {
	c, err := NewMemoryProvider()
	assert.NoError(t, err)
	ctx := context.Background()

	assert.NoError(t, c.Set(ctx, "k", "v", 10*time.Millisecond))
	time.Sleep(20 * time.Millisecond)

	_, err = c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryProvider_Delete(t *testing.T) {
	c, err := NewMemoryProvider()
	assert.NoError(t, err)
	ctx := context.Background()

	assert.NoError(t, c.Set(ctx, "k", "v", time.Minute))
	assert.NoError(t, c.Delete(ctx, "k"))

	_, err = c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestWebhookKey(t *testing.T) {
	assert.Equal(t, "webhook:evt_1", WebhookKey("evt_1"))
}

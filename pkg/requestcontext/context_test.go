package requestcontext

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAccessorsDefaultToZero(t *testing.T) {
	ctx := context.Background()
	assert.Zero(t, UserID(ctx))
	assert.Empty(t, Username(ctx))
	assert.Empty(t, Role(ctx))
	assert.Empty(t, RequestID(ctx))
	assert.Empty(t, ClientIP(ctx))
	assert.WithinDuration(t, time.Now(), Now(ctx), time.Second)
}

func TestAccessorsRoundTrip(t *testing.T) {
	fixed := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	ctx := WithPrincipal(context.Background(), 7, "jtan", "ADMIN")
	ctx = WithRequestID(ctx, "req-1")
	ctx = WithClientMetadata(ctx, "10.0.0.1", "curl/8.0")
	ctx = WithTime(ctx, fixed)

	assert.Equal(t, int64(7), UserID(ctx))
	assert.Equal(t, "jtan", Username(ctx))
	assert.Equal(t, "ADMIN", Role(ctx))
	assert.Equal(t, "req-1", RequestID(ctx))
	assert.Equal(t, "10.0.0.1", ClientIP(ctx))
	assert.Equal(t, "curl/8.0", UserAgent(ctx))
	assert.Equal(t, fixed, Now(ctx))
}

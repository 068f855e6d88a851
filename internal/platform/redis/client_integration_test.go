//go:build integration

package redis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kycdesk/pkg/testutil/containers"
)

func TestNewConnectsAndPings(t *testing.T) {
	ctx := context.Background()
	url := containers.NewRedisContainer(t).URL

	client, err := New(ctx, Config{URL: url, PoolSize: 4})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	assert.NoError(t, client.Health(ctx))
}

func TestNewWithoutURLReturnsNil(t *testing.T) {
	client, err := New(context.Background(), Config{})
	require.NoError(t, err)
	assert.Nil(t, client)
}

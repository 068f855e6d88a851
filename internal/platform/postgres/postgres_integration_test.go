//go:build integration

package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"kycdesk/pkg/testutil/containers"
)

func TestMigrateIsIdempotent(t *testing.T) {
	pg := containers.NewPostgresContainer(t)
	ctx := context.Background()

	db, err := Open(ctx, pg.DSN)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, Migrate(ctx, db))
	require.NoError(t, Migrate(ctx, db))
}

//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kycdesk/internal/audit"
	pgplatform "kycdesk/internal/platform/postgres"
	"kycdesk/pkg/platform/tx"
	"kycdesk/pkg/testutil/containers"
)

func TestAppendAndList(t *testing.T) {
	ctx := context.Background()
	pg := containers.NewPostgresContainer(t)
	require.NoError(t, pgplatform.Migrate(ctx, pg.DB))
	store := New(pg.DB)

	at := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	require.NoError(t, store.Append(ctx, audit.Event{ID: uuid.New(), ApplicationID: 1, Action: audit.ActionSubmitted,
		FromStatus: "DRAFT", ToStatus: "SUBMITTED", Actor: "applicant", OccurredAt: at}))

	rolledBack := tx.Run(ctx, pg.DB, func(ctx context.Context) error {
		if err := store.Append(ctx, audit.Event{ID: uuid.New(), ApplicationID: 1, Action: audit.ActionApproved,
			Actor: "J. Tan", OccurredAt: at.Add(time.Minute)}); err != nil {
			return err
		}
		return assert.AnError
	})
	require.ErrorIs(t, rolledBack, assert.AnError)

	events, err := store.ListByApplication(ctx, 1)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, audit.ActionSubmitted, events[0].Action)
}

package main

import (
	"context"
	"database/sql"
	"time"

	kycservice "kycdesk/internal/kyc/service"
	kycstore "kycdesk/internal/kyc/store/postgres"
	dErrors "kycdesk/pkg/domain-errors"
	"kycdesk/pkg/platform/tx"
)

const defaultKycTxTimeout = 5 * time.Second

// kycPostgresTx runs service transactions on Postgres. The transaction is
// carried in ctx so the audit store joins it.
type kycPostgresTx struct {
	db      *sql.DB
	timeout time.Duration
}

func newKycPostgresTx(db *sql.DB) *kycPostgresTx {
	return &kycPostgresTx{db: db}
}

func (t *kycPostgresTx) RunInTx(ctx context.Context, fn func(ctx context.Context, store kycservice.Store) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultKycTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	return tx.Run(ctx, t.db, func(ctx context.Context) error {
		sqlTx, _ := tx.From(ctx)
		return fn(ctx, kycstore.NewTx(sqlTx))
	})
}

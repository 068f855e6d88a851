package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"kycdesk/internal/audit"
	"kycdesk/pkg/platform/tx"
)

// Store appends audit events to review_events. An append made with a
// transaction in ctx commits or rolls back with it.
type Store struct {
	db *sql.DB
}

// New creates a PostgreSQL audit store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Append(ctx context.Context, e audit.Event) error {
	_, err := tx.Exec(ctx, s.db).ExecContext(ctx, `
		INSERT INTO review_events (id, application_id, action, from_status, to_status, actor, comment,
			request_id, client_ip, user_agent, client_info, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		e.ID, e.ApplicationID, string(e.Action), e.FromStatus, e.ToStatus, e.Actor, e.Comment,
		e.RequestID, e.ClientIP, e.UserAgent, e.ClientInfo, e.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

func (s *Store) ListByApplication(ctx context.Context, applicationID int64) ([]audit.Event, error) {
	rows, err := tx.Exec(ctx, s.db).QueryContext(ctx, `
		SELECT id, application_id, action, from_status, to_status, actor, comment,
			request_id, client_ip, user_agent, client_info, occurred_at
		FROM review_events WHERE application_id = $1 ORDER BY occurred_at, id`, applicationID)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	out := make([]audit.Event, 0)
	for rows.Next() {
		var e audit.Event
		var action string
		if err := rows.Scan(&e.ID, &e.ApplicationID, &action, &e.FromStatus, &e.ToStatus, &e.Actor, &e.Comment,
			&e.RequestID, &e.ClientIP, &e.UserAgent, &e.ClientInfo, &e.OccurredAt); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		e.Action = audit.Action(action)
		out = append(out, e)
	}
	return out, rows.Err()
}

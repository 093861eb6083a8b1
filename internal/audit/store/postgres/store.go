package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"neokyc/internal/audit"
	"neokyc/pkg/platform/tx"
)

// Store implements audit.Store on the audit_log table. Appends join a
// transaction in the context so an audit row commits with its operation.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Append(ctx context.Context, event audit.Event) error {
	query := `
		INSERT INTO audit_log (id, action, actor, customer_id, detail, request_id, device, client_ip, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING
	`
	id := event.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	_, err := tx.ExecutorFrom(ctx, s.db).ExecContext(ctx, query,
		id,
		string(event.Action),
		event.Actor,
		event.CustomerID,
		event.Detail,
		event.RequestID,
		event.Device,
		event.ClientIP,
		event.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

func (s *Store) ListRecent(ctx context.Context, limit int) ([]audit.Event, error) {
	query := `
		SELECT id, action, actor, customer_id, detail, request_id, device, client_ip, created_at
		FROM audit_log
		ORDER BY created_at DESC, id
		LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var events []audit.Event
	for rows.Next() {
		var (
			event  audit.Event
			action string
		)
		if err := rows.Scan(&event.ID, &action, &event.Actor, &event.CustomerID, &event.Detail,
			&event.RequestID, &event.Device, &event.ClientIP, &event.Timestamp); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.Action = audit.Action(action)
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}

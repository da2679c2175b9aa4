package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/jmoiron/sqlx"
)

var ErrEntryNotFound = errors.New("audit log entry not found")

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, customerID string, event EventType, description string, attempt AttemptContext) (*Entry, error) {
	metadata, err := json.Marshal(attempt)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO audit_logs (customer_id, event_type, description, metadata)
		VALUES ($1, $2, $3, $4)
		RETURNING id, customer_id, event_type, description, metadata, created_at
	`

	var entry Entry
	err = r.db.GetContext(ctx, &entry, query, customerID, event, description, metadata)
	if err != nil {
		return nil, err
	}

	return &entry, nil
}

// UpdateOutcome mutates an attempt entry in place to its terminal state.
func (r *repository) UpdateOutcome(ctx context.Context, id string, event EventType, description string) error {
	query := `
		UPDATE audit_logs
		SET event_type = $1, description = $2
		WHERE id = $3
	`

	result, err := r.db.ExecContext(ctx, query, event, description, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrEntryNotFound
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Entry, error) {
	query := `
		SELECT id, customer_id, event_type, description, metadata, created_at
		FROM audit_logs
		WHERE id = $1
	`

	var entry Entry
	err := r.db.GetContext(ctx, &entry, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEntryNotFound
	}
	if err != nil {
		return nil, err
	}

	return &entry, nil
}

// History returns entries newest-first, joined against customers and plans
// for display. The metadata CASE probe mirrors DecodeAttemptContext's
// legacy-spelling tolerance for rows imported from before the canonical
// shape.
func (r *repository) History(ctx context.Context, customerID string) ([]HistoryEntry, error) {
	query := `
		SELECT
			al.id,
			al.customer_id,
			al.event_type,
			al.description,
			al.metadata,
			al.created_at,
			c.name AS customer_name,
			c.email AS customer_email,
			p.name AS plan_name,
			p.price AS plan_price
		FROM audit_logs al
		LEFT JOIN customers c ON al.customer_id = c.id
		LEFT JOIN plans p ON (
			CASE
				WHEN (al.metadata->>'planId') ~ '^[0-9a-fA-F-]{36}$'
					THEN (al.metadata->>'planId')::uuid
				WHEN (al.metadata->>'newPlanId') ~ '^[0-9a-fA-F-]{36}$'
					THEN (al.metadata->>'newPlanId')::uuid
				WHEN (al.metadata->>'plan_id') ~ '^[0-9a-fA-F-]{36}$'
					THEN (al.metadata->>'plan_id')::uuid
				ELSE NULL
			END
		) = p.id
	`

	args := []interface{}{}
	if customerID != "" {
		query += ` WHERE al.customer_id = $1`
		args = append(args, customerID)
	}
	query += ` ORDER BY al.created_at DESC`

	var entries []HistoryEntry
	err := r.db.SelectContext(ctx, &entries, query, args...)
	if err != nil {
		return nil, err
	}

	return entries, nil
}

package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"agritrust/pkg/platform/sentinel"
)

// PostgresStore persists events in PostgreSQL. The seq bigserial column
// preserves insertion order so timestamp ties stay stable across reads.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, event *Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO supply_chain_events (id, lot_id, event_time, verified, body)
		VALUES ($1, $2, $3, $4, $5)`,
		event.ID, event.LotID, event.Timestamp, event.Verified, body,
	)
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id string) (*Event, error) {
	var (
		body     []byte
		verified bool
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT body, verified FROM supply_chain_events WHERE id = $1`, id).Scan(&body, &verified)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find event by id: %w", err)
	}
	var event Event
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("unmarshal event: %w", err)
	}
	event.Verified = verified
	return &event, nil
}

func (s *PostgresStore) ListByLot(ctx context.Context, lotID string) ([]*Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT body, verified FROM supply_chain_events
		WHERE lot_id = $1 ORDER BY event_time, seq`, lotID)
	if err != nil {
		return nil, fmt.Errorf("list events by lot: %w", err)
	}
	defer rows.Close()

	var out []*Event
	for rows.Next() {
		var (
			body     []byte
			verified bool
		)
		if err := rows.Scan(&body, &verified); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		var event Event
		if err := json.Unmarshal(body, &event); err != nil {
			return nil, fmt.Errorf("unmarshal event: %w", err)
		}
		event.Verified = verified
		out = append(out, &event)
	}
	return out, rows.Err()
}

func (s *PostgresStore) SetVerified(ctx context.Context, id string, verified bool) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE supply_chain_events
		SET verified = $2, body = jsonb_set(body, '{verified}', to_jsonb($2::boolean))
		WHERE id = $1`, id, verified)
	if err != nil {
		return fmt.Errorf("set event verified: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

package attestation

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"agritrust/pkg/platform/sentinel"
)

// PostgresStore persists attestations in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, att *Attestation) error {
	body, err := json.Marshal(att)
	if err != nil {
		return fmt.Errorf("marshal attestation: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO attestations (id, lot_id, lab_did, expires_at, body)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET body = EXCLUDED.body`,
		att.ID, att.TestResult.LotID, att.TestResult.LabDID, att.ExpiresAt, body,
	)
	if err != nil {
		return fmt.Errorf("save attestation: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id string) (*Attestation, error) {
	var body []byte
	err := s.db.QueryRowContext(ctx, `SELECT body FROM attestations WHERE id = $1`, id).Scan(&body)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find attestation by id: %w", err)
	}
	return unmarshalAttestation(body)
}

func (s *PostgresStore) ListByLot(ctx context.Context, lotID string) ([]*Attestation, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT body FROM attestations WHERE lot_id = $1`, lotID)
	if err != nil {
		return nil, fmt.Errorf("list attestations by lot: %w", err)
	}
	defer rows.Close()

	var out []*Attestation
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scan attestation: %w", err)
		}
		att, err := unmarshalAttestation(body)
		if err != nil {
			return nil, err
		}
		out = append(out, att)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Remove(ctx context.Context, id string, pre func(ctx context.Context, att *Attestation) error) (*Attestation, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var body []byte
	err = tx.QueryRowContext(ctx, `SELECT body FROM attestations WHERE id = $1 FOR UPDATE`, id).Scan(&body)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("lock attestation: %w", err)
	}
	att, err := unmarshalAttestation(body)
	if err != nil {
		return nil, err
	}
	if err := pre(ctx, att); err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM attestations WHERE id = $1`, id); err != nil {
		return nil, fmt.Errorf("delete attestation: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return att, nil
}

func unmarshalAttestation(body []byte) (*Attestation, error) {
	var att Attestation
	if err := json.Unmarshal(body, &att); err != nil {
		return nil, fmt.Errorf("unmarshal attestation: %w", err)
	}
	return &att, nil
}

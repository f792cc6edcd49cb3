package credential

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"agritrust/pkg/platform/sentinel"
)

// PostgresStore persists credentials in PostgreSQL. The full credential is
// stored as jsonb next to the columns lookups key on.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, cred *Credential) error {
	body, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("marshal credential: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO credentials (id, issuer, subject_id, body)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET body = EXCLUDED.body`,
		cred.ID, cred.Issuer, cred.Subject.ID, body,
	)
	if err != nil {
		return fmt.Errorf("save credential: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id string) (*Credential, error) {
	var body []byte
	err := s.db.QueryRowContext(ctx, `SELECT body FROM credentials WHERE id = $1`, id).Scan(&body)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find credential by id: %w", err)
	}
	var cred Credential
	if err := json.Unmarshal(body, &cred); err != nil {
		return nil, fmt.Errorf("unmarshal credential: %w", err)
	}
	return &cred, nil
}

// Remove deletes a credential after the pre callback passes, holding the row
// lock across both so verification never observes the intermediate state.
func (s *PostgresStore) Remove(ctx context.Context, id string, pre func(ctx context.Context, cred *Credential) error) (*Credential, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var body []byte
	err = tx.QueryRowContext(ctx, `SELECT body FROM credentials WHERE id = $1 FOR UPDATE`, id).Scan(&body)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("lock credential: %w", err)
	}
	var cred Credential
	if err := json.Unmarshal(body, &cred); err != nil {
		return nil, fmt.Errorf("unmarshal credential: %w", err)
	}
	if err := pre(ctx, &cred); err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM credentials WHERE id = $1`, id); err != nil {
		return nil, fmt.Errorf("delete credential: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return &cred, nil
}

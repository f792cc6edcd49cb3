package identity

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"agritrust/pkg/platform/sentinel"
)

// PostgresStore persists identities in PostgreSQL. The credential list is
// stored as a jsonb column since it is only ever read whole.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, ident *Identity) error {
	credentials, err := json.Marshal(ident.Credentials)
	if err != nil {
		return fmt.Errorf("marshal credential list: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO identities (did, name, type, location, public_key, credentials, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		ident.DID, ident.Name, string(ident.Type), ident.Location, ident.PublicKey, credentials, ident.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("save identity: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByDID(ctx context.Context, did string) (*Identity, error) {
	return scanIdentity(s.db.QueryRowContext(ctx, `
		SELECT did, name, type, location, public_key, credentials, created_at
		FROM identities WHERE did = $1`, did))
}

func (s *PostgresStore) List(ctx context.Context) ([]*Identity, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT did, name, type, location, public_key, credentials, created_at
		FROM identities ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list identities: %w", err)
	}
	defer rows.Close()

	var out []*Identity
	for rows.Next() {
		ident, err := scanIdentity(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ident)
	}
	return out, rows.Err()
}

// Execute mutates an identity inside a transaction with the row locked, so
// the attach/detach pair stays atomic with respect to concurrent callers.
func (s *PostgresStore) Execute(ctx context.Context, did string, mutate func(*Identity) error) (*Identity, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	ident, err := scanIdentity(tx.QueryRowContext(ctx, `
		SELECT did, name, type, location, public_key, credentials, created_at
		FROM identities WHERE did = $1 FOR UPDATE`, did))
	if err != nil {
		return nil, err
	}
	if err := mutate(ident); err != nil {
		return nil, err
	}

	credentials, err := json.Marshal(ident.Credentials)
	if err != nil {
		return nil, fmt.Errorf("marshal credential list: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE identities SET credentials = $2 WHERE did = $1`, did, credentials); err != nil {
		return nil, fmt.Errorf("update identity: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return ident, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIdentity(row rowScanner) (*Identity, error) {
	var (
		ident       Identity
		sType       string
		credentials []byte
	)
	err := row.Scan(&ident.DID, &ident.Name, &sType, &ident.Location, &ident.PublicKey, &credentials, &ident.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan identity: %w", err)
	}
	ident.Type = StakeholderType(sType)
	if err := json.Unmarshal(credentials, &ident.Credentials); err != nil {
		return nil, fmt.Errorf("unmarshal credential list: %w", err)
	}
	return &ident, nil
}

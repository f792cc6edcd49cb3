//go:build integration

package identity

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/suite"

	"agritrust/pkg/platform/sentinel"
)

// Requires a migrated database; see migrations/0001_init.sql.
// Skips unless AGRITRUST_TEST_POSTGRES_DSN is set.
type PostgresStoreSuite struct {
	suite.Suite
	db    *sql.DB
	store *PostgresStore
	ctx   context.Context
}

func TestPostgresStoreSuite(t *testing.T) {
	if os.Getenv("AGRITRUST_TEST_POSTGRES_DSN") == "" {
		t.Skip("AGRITRUST_TEST_POSTGRES_DSN not set")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	db, err := sql.Open("postgres", os.Getenv("AGRITRUST_TEST_POSTGRES_DSN"))
	s.Require().NoError(err)
	s.db = db
	s.store = NewPostgres(db)
	s.ctx = context.Background()
}

func (s *PostgresStoreSuite) TearDownSuite() {
	s.Require().NoError(s.db.Close())
}

func (s *PostgresStoreSuite) SetupTest() {
	_, err := s.db.ExecContext(s.ctx, `TRUNCATE identities`)
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) newIdentity(did string) *Identity {
	return &Identity{
		DID:         did,
		Name:        "Wanjiku Farm",
		Type:        TypeFarmer,
		Location:    "Kiambu",
		PublicKey:   "z6MkTest",
		Credentials: []string{},
		CreatedAt:   time.Now().UTC().Truncate(time.Microsecond),
	}
}

func (s *PostgresStoreSuite) TestSaveAndFind() {
	ident := s.newIdentity("did:agri:pg-1")
	s.Require().NoError(s.store.Save(s.ctx, ident))

	got, err := s.store.FindByDID(s.ctx, "did:agri:pg-1")
	s.Require().NoError(err)
	s.Equal(ident.Name, got.Name)
	s.Equal(ident.Type, got.Type)
	s.Equal(ident.CreatedAt, got.CreatedAt.UTC())
	s.Empty(got.Credentials)
}

func (s *PostgresStoreSuite) TestDuplicateDIDConflicts() {
	s.Require().NoError(s.store.Save(s.ctx, s.newIdentity("did:agri:pg-2")))
	err := s.store.Save(s.ctx, s.newIdentity("did:agri:pg-2"))
	s.ErrorIs(err, sentinel.ErrConflict)
}

func (s *PostgresStoreSuite) TestFindMissing() {
	_, err := s.store.FindByDID(s.ctx, "did:agri:pg-ghost")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestExecutePersistsMutation() {
	s.Require().NoError(s.store.Save(s.ctx, s.newIdentity("did:agri:pg-3")))

	_, err := s.store.Execute(s.ctx, "did:agri:pg-3", func(ident *Identity) error {
		ident.Credentials = append(ident.Credentials, "urn:credential:abc")
		return nil
	})
	s.Require().NoError(err)

	got, err := s.store.FindByDID(s.ctx, "did:agri:pg-3")
	s.Require().NoError(err)
	s.Equal([]string{"urn:credential:abc"}, got.Credentials)
}

func (s *PostgresStoreSuite) TestExecuteAbortsOnCallbackError() {
	s.Require().NoError(s.store.Save(s.ctx, s.newIdentity("did:agri:pg-4")))

	_, err := s.store.Execute(s.ctx, "did:agri:pg-4", func(ident *Identity) error {
		ident.Credentials = append(ident.Credentials, "urn:credential:abc")
		return sentinel.ErrConflict
	})
	s.ErrorIs(err, sentinel.ErrConflict)

	got, err := s.store.FindByDID(s.ctx, "did:agri:pg-4")
	s.Require().NoError(err)
	s.Empty(got.Credentials)
}

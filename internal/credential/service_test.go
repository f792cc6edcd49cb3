package credential

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"agritrust/internal/identity"
	"agritrust/internal/platform/signer"
	dErrors "agritrust/pkg/domain-errors"
	"agritrust/pkg/requestcontext"
)

type CredentialServiceSuite struct {
	suite.Suite
	store      *InMemoryStore
	identities *identity.Service
	service    *Service
	ctx        context.Context
	issuerDID  string
	subjectDID string
}

func TestCredentialServiceSuite(t *testing.T) {
	suite.Run(t, new(CredentialServiceSuite))
}

func (s *CredentialServiceSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.ctx = context.Background()

	var err error
	s.identities, err = identity.New(identity.NewInMemoryStore())
	s.Require().NoError(err)

	dev := signer.NewHMAC("test-proof-key")
	s.service, err = New(s.store, s.identities, dev, dev)
	s.Require().NoError(err)

	issuer, err := s.identities.CreateIdentity(s.ctx, "Standards Authority", identity.TypeAuditor, "")
	s.Require().NoError(err)
	s.issuerDID = issuer.DID

	subject, err := s.identities.CreateIdentity(s.ctx, "Kofi Mensah", identity.TypeFarmer, "")
	s.Require().NoError(err)
	s.subjectDID = subject.DID
}

func (s *CredentialServiceSuite) issue(claims map[string]any, validUntil time.Time) *Credential {
	cred, err := s.service.Issue(s.ctx, s.issuerDID, s.subjectDID, "OrganicCertification", claims, validUntil)
	s.Require().NoError(err)
	return cred
}

func (s *CredentialServiceSuite) TestIssue() {
	s.Run("builds a proof-bound credential and attaches it to the subject", func() {
		cred := s.issue(map[string]any{"standard": "EU-Organic"}, time.Time{})

		s.Contains(cred.ID, "urn:credential:")
		s.Equal([]string{TypeVerifiable, "OrganicCertification"}, cred.Type)
		s.Equal(s.issuerDID, cred.Issuer)
		s.Equal(s.subjectDID, cred.Subject.ID)
		s.Equal(ProofType, cred.Proof.Type)
		s.NotEmpty(cred.Proof.Value)

		subject, err := s.identities.GetIdentity(s.ctx, s.subjectDID)
		s.Require().NoError(err)
		s.Contains(subject.Credentials, cred.ID)
	})

	s.Run("unknown subject identity still stores the credential", func() {
		cred, err := s.service.Issue(s.ctx, s.issuerDID, "did:agri:unregistered", "TradeLicense", nil, time.Time{})
		s.Require().NoError(err)

		stored, err := s.service.Get(s.ctx, cred.ID)
		s.Require().NoError(err)
		s.Equal("did:agri:unregistered", stored.Subject.ID)
	})

	s.Run("rejects empty subject DID", func() {
		_, err := s.service.Issue(s.ctx, s.issuerDID, "", "TradeLicense", nil, time.Time{})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("rejects empty claim type", func() {
		_, err := s.service.Issue(s.ctx, s.issuerDID, s.subjectDID, "", nil, time.Time{})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("rejects expiration before issuance", func() {
		_, err := s.service.Issue(s.ctx, s.issuerDID, s.subjectDID, "TradeLicense", nil, time.Now().Add(-time.Hour))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *CredentialServiceSuite) TestVerify() {
	s.Run("fresh credential verifies", func() {
		cred := s.issue(nil, time.Time{})
		s.True(s.service.Verify(s.ctx, cred))
	})

	s.Run("unknown credential fails", func() {
		s.False(s.service.Verify(s.ctx, &Credential{ID: "urn:credential:ghost"}))
	})

	s.Run("nil credential fails", func() {
		s.False(s.service.Verify(s.ctx, nil))
	})

	s.Run("expiration is checked against the request clock", func() {
		issuedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		issueCtx := requestcontext.WithTime(s.ctx, issuedAt)
		cred, err := s.service.Issue(issueCtx, s.issuerDID, s.subjectDID, "TradeLicense", nil, issuedAt.Add(time.Hour))
		s.Require().NoError(err)

		// One second before expiry: valid.
		s.True(s.service.Verify(requestcontext.WithTime(s.ctx, issuedAt.Add(time.Hour-time.Second)), cred))
		// One second past expiry: invalid, holding everything else fixed.
		s.False(s.service.Verify(requestcontext.WithTime(s.ctx, issuedAt.Add(time.Hour+time.Second)), cred))
	})

	s.Run("tampered stored proof fails", func() {
		cred := s.issue(nil, time.Time{})
		tampered := *cred
		tampered.Proof.Value = "hmac256:deadbeef"
		s.Require().NoError(s.store.Save(s.ctx, &tampered))

		s.False(s.service.Verify(s.ctx, cred))
	})

	s.Run("verification never mutates state", func() {
		cred := s.issue(nil, time.Time{})
		s.True(s.service.Verify(s.ctx, cred))

		stored, err := s.service.Get(s.ctx, cred.ID)
		s.Require().NoError(err)
		s.Equal(cred.Proof.Value, stored.Proof.Value)
	})
}

func (s *CredentialServiceSuite) TestRevoke() {
	s.Run("issuer revokes: credential gone, subject detached, verify false", func() {
		cred := s.issue(nil, time.Time{})

		status, err := s.service.Revoke(s.ctx, cred.ID, s.issuerDID)
		s.Require().NoError(err)
		s.Equal(StatusRevoked, status)

		s.False(s.service.Verify(s.ctx, cred))
		_, err = s.service.Get(s.ctx, cred.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

		subject, err := s.identities.GetIdentity(s.ctx, s.subjectDID)
		s.Require().NoError(err)
		s.NotContains(subject.Credentials, cred.ID)
	})

	s.Run("non-issuer revocation fails closed with no mutation", func() {
		cred := s.issue(nil, time.Time{})

		status, err := s.service.Revoke(s.ctx, cred.ID, "did:agri:intruder")
		s.Require().NoError(err)
		s.Equal(StatusNotAuthorized, status)

		s.True(s.service.Verify(s.ctx, cred))
		subject, err := s.identities.GetIdentity(s.ctx, s.subjectDID)
		s.Require().NoError(err)
		s.Contains(subject.Credentials, cred.ID)
	})

	s.Run("unknown credential reports not found, not unauthorized", func() {
		status, err := s.service.Revoke(s.ctx, "urn:credential:ghost", s.issuerDID)
		s.Require().NoError(err)
		s.Equal(StatusNotFound, status)
	})
}

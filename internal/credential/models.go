package credential

import (
	"encoding/json"
	"time"
)

// TypeVerifiable is the base type tag every credential carries alongside its
// specific claim type.
const TypeVerifiable = "VerifiableCredential"

// Credential is a signed claim about a subject, issued by a stakeholder DID.
//
// Invariants:
//   - ExpirationDate, when set, is never before IssuanceDate
//   - Proof.Value is bound to the credential content minus the proof itself
type Credential struct {
	ID             string    `json:"id"`
	Type           []string  `json:"type"`
	Issuer         string    `json:"issuer"`
	IssuanceDate   time.Time `json:"issuanceDate"`
	ExpirationDate time.Time `json:"expirationDate,omitzero"`
	Subject        Subject   `json:"credentialSubject"`
	Proof          Proof     `json:"proof"`
}

// Subject carries the subject identifier (a stakeholder DID, or a lot id for
// attestations) and the claim payload.
type Subject struct {
	ID     string         `json:"id"`
	Claims map[string]any `json:"claims"`
}

// Proof is the signature block attached to a credential or presentation.
type Proof struct {
	Type               string    `json:"type"`
	Created            time.Time `json:"created"`
	VerificationMethod string    `json:"verificationMethod"`
	Value              string    `json:"proofValue"`
}

// ProofType names the proof shape produced by the development signer.
const ProofType = "HmacSha256Signature2024"

// Expired reports whether the credential's expiration instant has passed.
// Credentials without an expiration never expire.
func (c *Credential) Expired(now time.Time) bool {
	return !c.ExpirationDate.IsZero() && c.ExpirationDate.Before(now)
}

// SigningBytes returns the canonical byte representation the proof is
// computed over: the credential with the proof block zeroed.
func (c *Credential) SigningBytes() ([]byte, error) {
	unsigned := *c
	unsigned.Proof = Proof{}
	return json.Marshal(unsigned)
}

// RevocationStatus distinguishes the outcomes of a revocation attempt, so
// callers never have to guess whether a failed revocation meant "absent" or
// "not yours to revoke".
type RevocationStatus string

const (
	StatusRevoked       RevocationStatus = "revoked"
	StatusNotFound      RevocationStatus = "not_found"
	StatusNotAuthorized RevocationStatus = "not_authorized"
)

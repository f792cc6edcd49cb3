package identity

import (
	"time"
)

// StakeholderType classifies a participant in the supply chain.
type StakeholderType string

const (
	TypeFarmer      StakeholderType = "farmer"
	TypeCooperative StakeholderType = "cooperative"
	TypeOfftaker    StakeholderType = "offtaker"
	TypeProcessor   StakeholderType = "processor"
	TypeLogistics   StakeholderType = "logistics"
	TypeAuditor     StakeholderType = "auditor"
)

func (t StakeholderType) IsValid() bool {
	switch t {
	case TypeFarmer, TypeCooperative, TypeOfftaker, TypeProcessor, TypeLogistics, TypeAuditor:
		return true
	}
	return false
}

// Identity is one stakeholder's decentralized identity record.
//
// Invariants:
//   - DID is immutable once minted; there is no delete operation
//   - Credentials only grows via credential issuance and shrinks via
//     revocation, always through the registry's attach/detach calls
type Identity struct {
	DID         string          `json:"did"`
	Name        string          `json:"name"`
	Type        StakeholderType `json:"type"`
	Location    string          `json:"location,omitempty"`
	PublicKey   string          `json:"publicKey"`
	Credentials []string        `json:"credentials"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// HasCredential reports whether the credential id is attached to this
// identity.
func (i *Identity) HasCredential(credentialID string) bool {
	for _, id := range i.Credentials {
		if id == credentialID {
			return true
		}
	}
	return false
}

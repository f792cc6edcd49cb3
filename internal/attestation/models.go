package attestation

import (
	"time"

	"agritrust/internal/credential"
)

// TestStatus enumerates the outcomes a lab can assign to a test run.
type TestStatus string

const (
	StatusPass        TestStatus = "pass"
	StatusFail        TestStatus = "fail"
	StatusConditional TestStatus = "conditional"
)

func (s TestStatus) IsValid() bool {
	switch s {
	case StatusPass, StatusFail, StatusConditional:
		return true
	}
	return false
}

// TestResult is the raw lab-test payload. It is not itself a credential; the
// attestation wraps it in one.
type TestResult struct {
	LotID          string         `json:"lotId"`
	TestID         string         `json:"testId"`
	LabDID         string         `json:"labDid"`
	LabName        string         `json:"labName"`
	TestDate       time.Time      `json:"testDate"`
	TestType       string         `json:"testType"`
	Results        map[string]any `json:"results"`
	OverallGrade   float64        `json:"overallGrade"`
	OverallStatus  TestStatus     `json:"overallStatus"`
	Certifications []string       `json:"certifications,omitempty"`
	Methodology    string         `json:"methodology,omitempty"`
	Equipment      []string       `json:"equipment,omitempty"`
	Technician     string         `json:"technician,omitempty"`
	Notes          string         `json:"notes,omitempty"`
	Images         []string       `json:"images,omitempty"`
	Documents      []string       `json:"documents,omitempty"`
}

// Attestation is a lab-test credential scoped to a lot, plus its off-system
// references.
//
// Invariants:
//   - ExpiresAt is always CreatedAt plus the validity window, never set
//     independently
//   - only the issuing lab DID may revoke
type Attestation struct {
	ID              string                `json:"id"`
	TestResult      TestResult            `json:"testResult"`
	Credential      credential.Credential `json:"credential"`
	ContentHash     string                `json:"contentHash"`
	LedgerReference string                `json:"ledgerReference"`
	CreatedAt       time.Time             `json:"createdAt"`
	ExpiresAt       time.Time             `json:"expiresAt"`
}

// Expired reports whether the attestation's validity window has passed.
func (a *Attestation) Expired(now time.Time) bool {
	return a.ExpiresAt.Before(now)
}

// VerificationResult reports why an attestation failed verification, not
// just that it did.
type VerificationResult struct {
	IsValid     bool         `json:"isValid"`
	Attestation *Attestation `json:"attestation,omitempty"`
	Errors      []string     `json:"errors"`
}

// Presentation is an ephemeral bundle of one lot's attestation credentials
// for third-party disclosure. It is constructed on demand and never
// persisted; every request yields a fresh id and challenge.
type Presentation struct {
	ID          string                  `json:"id"`
	Holder      string                  `json:"holder"`
	Credentials []credential.Credential `json:"verifiableCredential"`
	Proof       PresentationProof       `json:"proof"`
}

// PresentationProof binds a presentation to an anti-replay challenge.
type PresentationProof struct {
	Type      string    `json:"type"`
	Created   time.Time `json:"created"`
	Challenge string    `json:"challenge"`
	Value     string    `json:"proofValue"`
}

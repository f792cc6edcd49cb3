package credential

import (
	"time"

	"agritrust/internal/platform/signer"
)

// Sign computes and attaches a proof block bound to the credential content.
// The Attestation Service reuses this when it wraps a lab result in an
// embedded credential, so both registries share one proof shape.
func Sign(cred *Credential, sgn signer.Signer, now time.Time) error {
	payload, err := cred.SigningBytes()
	if err != nil {
		return err
	}
	value, err := sgn.Sign(payload)
	if err != nil {
		return err
	}
	cred.Proof = Proof{
		Type:               ProofType,
		Created:            now,
		VerificationMethod: cred.Issuer + "#keys-1",
		Value:              value,
	}
	return nil
}

// VerifyProof checks the credential's proof against its signing bytes.
// Pure predicate.
func VerifyProof(cred *Credential, vrf signer.Verifier) bool {
	payload, err := cred.SigningBytes()
	if err != nil {
		return false
	}
	return vrf.Verify(payload, cred.Proof.Value)
}

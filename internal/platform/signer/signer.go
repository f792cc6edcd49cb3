// Package signer defines the proof capability used by the credential and
// attestation services. The interfaces stay narrow so a real Ed25519 or BBS+
// scheme can replace the development signer without touching credential
// logic.
package signer

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Scheme tags a proof value so verifiers can reject tokens produced by an
// unknown signer.
const Scheme = "hmac256"

// Signer produces a proof value over a payload.
type Signer interface {
	Sign(payload []byte) (string, error)
}

// Verifier checks a proof value against a payload. It is a pure predicate.
type Verifier interface {
	Verify(payload []byte, proofValue string) bool
}

// HMACSigner is the development signer: an HMAC-SHA256 over the payload,
// prefixed with the scheme tag. It is not a substitute for asymmetric
// signatures; it exists so proof plumbing is real end to end.
type HMACSigner struct {
	key []byte
}

func NewHMAC(key string) *HMACSigner {
	return &HMACSigner{key: []byte(key)}
}

func (s *HMACSigner) Sign(payload []byte) (string, error) {
	mac := hmac.New(sha256.New, s.key)
	mac.Write(payload)
	return Scheme + ":" + hex.EncodeToString(mac.Sum(nil)), nil
}

func (s *HMACSigner) Verify(payload []byte, proofValue string) bool {
	rest, ok := strings.CutPrefix(proofValue, Scheme+":")
	if !ok || rest == "" {
		return false
	}
	want, err := s.Sign(payload)
	if err != nil {
		return false
	}
	return hmac.Equal([]byte(proofValue), []byte(want))
}

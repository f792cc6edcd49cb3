// Package content computes content-addressed references for documents,
// images, and structured payloads. References are opaque to the rest of the
// system; only this package knows their shape.
package content

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/gowebpki/jcs"
)

// Addresser turns a payload into an opaque content-addressed reference
// string. The core stores the reference verbatim and never interprets it.
type Addresser interface {
	Address(v any) (string, error)
}

// SHA256 addresses payloads by canonicalizing them with JCS (RFC 8785) and
// hashing the canonical bytes, so logically equal payloads share a reference
// regardless of field order.
type SHA256 struct{}

func NewSHA256() SHA256 {
	return SHA256{}
}

func (SHA256) Address(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return "", fmt.Errorf("canonicalize payload: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return "sha256:" + hex.EncodeToString(sum[:]), nil
}

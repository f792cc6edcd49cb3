package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and collaborator clients
// return these (optionally wrapped) so services can translate them into coded
// domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: identity/credential/event/attestation does not exist in store
// - ErrConflict: an id or DID is already taken
// - ErrExpired: credential or attestation past its expiration instant
// - ErrUnavailable: backing store or log collaborator temporarily unreachable
//
// For validation errors (bad input, missing schema fields), use
// pkg/domain-errors directly.
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrExpired     = errors.New("expired")
	ErrUnavailable = errors.New("unavailable")
)

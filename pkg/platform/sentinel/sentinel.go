package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and infrastructure layers return
// these (optionally wrapped) so services can translate them into domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: entity does not exist in store
// - ErrConflict: write collided with an existing record
// - ErrInvalidState: entity in wrong state for requested operation
//   (e.g. approving an already-rejected update request)
// - ErrUnavailable: service or resource temporarily unavailable
//
// Clock-action validation failures are not sentinels; they are returned as
// typed denials from the coordinator.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)

// Package service contains the presentation use cases behind the HTTP API.
//
// PresentationService accepts new requests, reports their state, applies
// configuration changes while a request is still pending and opens finished
// decks for download. It owns the record store and the job queue but never
// generates content itself: that happens in the worker (internal/task).
//
// Errors:
//   - Caller mistakes are returned as *domain.Error values (validation, not
//     found, conflict, not available) whose Detail is safe to show to clients.
//   - Unexpected failures are wrapped in *PresentationServiceError so callers
//     can tell them apart with errors.As while errors.Is still reaches the
//     underlying cause.
package service

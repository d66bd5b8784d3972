// Package api is the HTTP adapter of deckforge. It decodes and validates
// requests, calls the presentation service and maps service errors to
// status codes and caller-safe messages.
//
// Routes live under /api/v1/presentations. The package never blocks on
// generation: creation returns 202 once the job is queued and clients poll
// the status URL.
package api

// Package store defines the record store used to persist presentations.
// A record is addressed by the key "presentation:<id>" and holds the full
// serialized presentation together with a write version that callers use
// for optimistic concurrency. Backends live under internal/platform.
package store

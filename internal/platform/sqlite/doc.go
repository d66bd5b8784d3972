// Package sqlite implements the presentation record store and the durable
// job queue on a single SQLite file. It suits one host running the API and
// the worker side by side. Timestamps are stored as Unix microseconds.
package sqlite

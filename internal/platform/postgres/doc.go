// Package postgres implements the presentation record store and the durable
// job queue on PostgreSQL through the pgx database/sql driver. The schema is
// embedded and applied with goose.
package postgres

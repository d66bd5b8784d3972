// Package config handles configuration loading, parsing, and validation
// from a .env file, an optional deckforge.yaml, and DECKFORGE_* environment
// variables. Environment variables take precedence over the file.
package config

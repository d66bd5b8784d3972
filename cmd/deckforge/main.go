// Package main is the entry point for deckforge, which accepts presentation
// generation requests over HTTP and renders the decks in background workers.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

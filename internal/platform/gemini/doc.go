// Package gemini implements generation.ContentGenerator on top of Google's
// Gemini API. Requests ask for a JSON response constrained by a schema that
// mirrors domain.PresentationData; transient API errors are retried with
// exponential backoff and jitter.
package gemini

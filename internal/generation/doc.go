// Package generation defines the boundary between the presentation lifecycle
// and whatever produces slide content. The Gemini adapter lives in
// internal/platform/gemini; OutlineGenerator is a deterministic offline
// implementation used when no language model is configured.
package generation

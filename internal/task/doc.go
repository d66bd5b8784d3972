// Package task runs presentation generation in the background.
//
// PresentationExecutor is the queue.Handler for generate_presentation_task
// jobs. It claims the record by moving it from pending to processing, builds
// the content, renders the deck and records completed or failed with a
// single compare-and-save. A job delivered again after a worker crash takes
// over the abandoned processing record instead of skipping it.
//
// Reconciler covers the gap between saving a record and enqueuing its job:
// records left pending for too long get a fresh job.
package task

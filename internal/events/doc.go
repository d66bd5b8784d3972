// Package events carries presentation lifecycle notifications.
//
// Services emit a StatusChangedEvent whenever a presentation moves between
// statuses. Handlers (metrics, audit logging) register with an emitter and
// are invoked synchronously. Handler failures are reported to the emitter's
// caller but never change the lifecycle itself.
package events

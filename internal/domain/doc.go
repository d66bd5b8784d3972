// Package domain contains the presentation record, its generation
// configuration and content, style templates, and the lifecycle rules that
// govern how a record moves from pending to completed or failed. It is
// independent of any storage, queue, or delivery mechanism.
package domain

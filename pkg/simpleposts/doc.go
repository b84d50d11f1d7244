// Package simpleposts provides a library for managing blog posts that each
// own a single externally stored cover image, with pluggable repository and
// blob storage backends.
//
// It exposes a single Service interface that orchestrates the post lifecycle
// (create, update, delete, read) so that the post record and its cover image
// never diverge: a post visible to readers always references a blob that is
// present in storage. Implementations of repositories (memory, Postgres) and
// blob stores (memory, filesystem, S3) are provided under subpackages.
//
// Consistency Model
//
// The record store holds the unit of consistency. New images are uploaded
// before the record that references them is written, and old images are
// deleted only after the record no longer references them. Compensating and
// cleanup deletes are best-effort: their failure leaves an orphaned blob,
// which is reported through the EventSink but never surfaced to the caller as
// an operation failure.
package simpleposts

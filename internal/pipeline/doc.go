// Package pipeline drives a single link arrival from filename to published
// post.
//
// Each invocation walks PARSED → AGGREGATING → WAITING or READY, then one of
// PUBLISHING, UPDATING or MERGING, and ends in DONE. Any failed external
// call moves it to FAILED; the error is logged, audited, notified and
// returned to the caller. Invocations share state only through the on-disk
// link store and ledger, so several processes may run the pipeline at once.
//
// Drain feeds queued links through the same path one at a time, leaving
// failed items in the queue for a later attempt.
package pipeline

// Command autouploader publishes file-host download links for media
// releases to a WordPress site.
//
// Invoked once per link upload, it merges the link into the pending set for
// the release, waits until every primary host has reported, and then creates
// or updates the release post. Links can also be queued and drained later
// with --process-queue. Subcommands inspect and repair the on-disk state:
// the queue, pending link sets, the post ledger, the host table, and the
// history of outcomes.
package main

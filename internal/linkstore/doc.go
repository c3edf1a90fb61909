// Package linkstore aggregates partial host links per release across
// independent uploader invocations.
//
// The backing file maps a release RawKey to a slot->link object. Known hosts
// occupy a slot named after the host id; links from unrecognized hosts get one
// slot each, "unknown:<link>", so several unclassified mirrors accumulate
// instead of overwriting each other. Every operation runs under the statefile
// lock: Get degrades to an empty aggregate when the file cannot be read,
// while Merge and Delete report the failure so the caller can leave the link
// queued for a retry.
package linkstore

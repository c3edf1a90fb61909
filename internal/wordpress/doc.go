// Package wordpress talks to the WordPress REST API (wp-json/wp/v2) using an
// application password.
//
// The client covers what the uploader needs: searching for an existing post
// that describes a release, creating and updating posts, fetching rendered
// bodies for reconciliation, deleting duplicates, resolving category and tag
// names to term ids, and finding or uploading featured media. Transient
// failures (network errors, 408, 429, 5xx) are retried with exponential
// backoff; everything else is returned as *StatusError.
package wordpress

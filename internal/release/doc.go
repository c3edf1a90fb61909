// Package release turns noisy release filenames into a canonical Identity.
//
// Season/episode notation is recognized by an ordered rule table (first match
// wins), the matched token is removed before technical noise is stripped, and
// quality is detected in an independent pass over the original filename.
// Parsing is pure so independent processes agree on a release's RawKey
// without sharing state.
package release

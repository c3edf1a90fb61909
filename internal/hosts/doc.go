// Package hosts owns the download-host table: which hosts are primary (their
// links are required before a release publishes), which are mirrors, how each
// is labelled in post bodies, and which URL pattern identifies it.
//
// The table lives in a JSON file shared by every uploader process. Readers
// load a snapshot once per invocation; writers replace the file atomically
// under an advisory lock, so a reader never sees a partial write. Mutations
// return a new Config instead of editing the caller's copy.
package hosts

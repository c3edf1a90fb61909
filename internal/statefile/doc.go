// Package statefile persists small JSON documents shared between concurrent
// uploader processes.
//
// Every access takes an advisory lock on a sibling ".lock" file with a
// bounded number of attempts, and every write goes through a temp file that
// is fsynced and renamed over the original. Callers decide how to degrade
// when ErrLockTimeout or ErrCorrupt is returned.
package statefile

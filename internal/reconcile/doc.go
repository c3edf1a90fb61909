// Package reconcile merges duplicate posts created by racing invocations.
//
// Two invocations can both search the site, find nothing, and both create a
// post for the same release. The next invocation that sees a search result
// different from the ledger's post id hands both ids to Engine.Reconcile:
// links are read back out of both bodies, merged with the ledger's post
// taking precedence, the ledger's post is re-rendered, and the other post is
// deleted when configured. Failures are reported in the Outcome and logged;
// both posts stay live.
package reconcile

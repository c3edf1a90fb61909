// Package history keeps an audit trail of every invocation outcome in a
// SQLite database: what was posted, updated, merged, held back or failed.
//
// The database is shared by concurrent invocations. Writes retry while SQLite
// reports the database as busy, and the schema carries a version so an
// incompatible file is reported instead of silently misread. ExportCSV
// writes the trail in the session.csv column layout.
package history

// Package store persists scan sessions and their duplicate groups in a
// SQLite database. Each scan run becomes a session row; groups and
// their member files hang off the session so past results can be
// listed, inspected, and exported later.
package store

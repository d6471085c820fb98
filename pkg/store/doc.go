/*
Package store persists markov chains in a SQLite database so they can be
reused across runs. Several named chains can live in one database.

The pure Go driver (modernc.org/sqlite) is used by default; build with
-tags cgo_sqlite to use github.com/mattn/go-sqlite3 instead.
*/
package store

// Package database opens the culvertd SQLite database with the right
// pragmas and runs embedded schema migrations.
//
// SQLite is opened with a single connection: the service is a single
// writer and the busy timeout absorbs contention between readers.
// Migrations are versioned SQL files compiled into the binary; each
// applies in its own transaction and is recorded in schema_migrations.
package database

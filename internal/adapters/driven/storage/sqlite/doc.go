// Package sqlite provides the SQLite-backed local update log and scheduler store.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. It implements several store interfaces
// through a single database connection:
//
//   - LocalLog: the unsaved queue and known log of one app dataset
//   - SchedulerStore: update-poll schedule and the history of poll runs
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files
// and is applied in its own transaction.
//
// # Data Location
//
// By default, the database is stored at ~/.updatesync/data/updatesync.db
//
// # Durability
//
// The database runs in WAL mode with synchronous(FULL), so an append has
// reached disk once it returns.
package sqlite

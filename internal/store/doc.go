// Package store provides SQLite access for the shell.
//
// Two kinds of database are handled:
//   - The history store: a database owned by the shell that records every
//     executed pipeline. Opened with Open, which applies pragmas, the
//     embedded schema and migrations.
//   - Foreign databases: any SQLite file a user queries with the sqlite
//     command. Opened with OpenReadOnly, which never writes to the file.
//
// # Deterministic Ordering
//
// History entries carry a seq INTEGER assigned on insert. All history
// queries order by seq ASC, id COLLATE BINARY ASC, so listings are stable
// regardless of wall-clock time.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//
// Query results are converted to typed cells by Scan; a cell that cannot be
// converted to its declared column type is a per-row error, not a scan
// failure.
package store

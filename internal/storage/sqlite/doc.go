// Package sqlite contains the SQLite repository for detection runs.
//
// All database read/write operations for runs, per-frame statistics and
// dynamic cluster records belong here rather than in the engine
// packages. This keeps the frame loop free of SQL noise and makes the
// storage backend easy to stub in tests.
package sqlite

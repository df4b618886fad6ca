// Package sqlerr specifically handles database driver errors.
//
// It parses the driver-specific error shapes (Postgres SQLSTATE codes,
// MySQL error numbers, SQLite extended result codes) into one Code enum
// and converts them into query errors with a machine code and a
// human-readable message.
package sqlerr

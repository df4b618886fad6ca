// Package errs defines the error types surfaced by the connector.
//
// Every failure that leaves the database layer is one of two kinds:
//   - connection: the handle could not be established, or is not open.
//   - query: prepare, bind or execute failed on an open connection.
//
// Both kinds are plain Go errors and work with errors.Is / errors.As.
package errs

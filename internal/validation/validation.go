// Package validation contains the logic for validating
// configuration structs.
//
// It uses the `validator` library to enforce rules defined in struct
// tags and extracts validation errors into field-level messages keyed
// by the same names the values were loaded from.
package validation

package sqlerr

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// MySQL server error numbers we classify.
const (
	mysqlDupEntry          = 1062
	mysqlRowIsReferenced   = 1451
	mysqlNoReferencedRow   = 1452
	mysqlBadNull           = 1048
	mysqlNoDefaultForField = 1364
	mysqlCheckViolated     = 3819
	mysqlParseError        = 1064
	mysqlNoSuchTable       = 1146
	mysqlBadField          = 1054
)

var (
	// "UNIQUE constraint failed: users.email"
	sqliteConstraintColumn = regexp.MustCompile(`constraint failed: ([A-Za-z0-9_]+)\.([A-Za-z0-9_]+)`)
	// "no such table: users" / "no such column: email"
	sqliteNoSuch = regexp.MustCompile(`no such (table|column): ([A-Za-z0-9_.]+)`)
	// "Duplicate entry 'a@b.c' for key 'users.users_email_key'"
	mysqlDuplicateKey = regexp.MustCompile(`for key '([^']+)'`)
	// "Column 'email' cannot be null" / "Unknown column 'email' in 'field list'"
	mysqlColumn = regexp.MustCompile(`[Cc]olumn '([^']+)'`)
	// "Table 'app.users' doesn't exist"
	mysqlTable = regexp.MustCompile(`Table '([^']+)'`)
)

// ErrCode reports the mapped Code for a given error.
//
// Behavior:
//   - If err is already a *sqlerr.Error, return its Code.
//   - If err is a known driver error, convert it and return the Code.
//   - Otherwise return Other.
func ErrCode(err error) Code {
	if sqlErr, ok := Convert(err); ok {
		return sqlErr.Code
	}
	return Other
}

// Convert walks the error chain looking for a driver error it understands.
func Convert(err error) (*Error, bool) {
	if err == nil {
		return nil, false
	}

	var sqlErr *Error
	if errors.As(err, &sqlErr) {
		return sqlErr, true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return ConvertPgError(pgErr), true
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return ConvertMySQLError(myErr), true
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return ConvertSQLiteError(liteErr), true
	}

	return nil, false
}

// ConvertPgError converts a pgconn.PgError (raw Postgres error) into an Error.
func ConvertPgError(src *pgconn.PgError) *Error {
	return &Error{
		Code:           MapCode(src.Code),
		Severity:       MapSeverity(src.Severity),
		DatabaseCode:   src.Code,
		Message:        src.Message,
		SchemaName:     src.SchemaName,
		TableName:      src.TableName,
		ColumnName:     src.ColumnName,
		DataTypeName:   src.DataTypeName,
		ConstraintName: src.ConstraintName,
		driverErr:      src,
	}
}

// ConvertMySQLError converts a MySQL server error into an Error.
//
// MySQL does not report table/column fields separately, so they are
// parsed out of the message where the format is stable.
func ConvertMySQLError(src *mysql.MySQLError) *Error {
	out := &Error{
		Code:         Other,
		Severity:     SeverityError,
		DatabaseCode: strconv.Itoa(int(src.Number)),
		Message:      src.Message,
		driverErr:    src,
	}

	switch src.Number {
	case mysqlDupEntry:
		out.Code = UniqueViolation
		if m := mysqlDuplicateKey.FindStringSubmatch(src.Message); m != nil {
			// MySQL 8 prefixes the key with the table: "users.users_email_key".
			table, key, found := strings.Cut(m[1], ".")
			if found {
				out.TableName = table
				out.ConstraintName = key
			} else {
				out.ConstraintName = m[1]
			}
		}
	case mysqlRowIsReferenced, mysqlNoReferencedRow:
		out.Code = ForeignKeyViolation
	case mysqlBadNull, mysqlNoDefaultForField:
		out.Code = NotNullViolation
	case mysqlCheckViolated:
		out.Code = CheckViolation
	case mysqlParseError:
		out.Code = SyntaxError
	case mysqlNoSuchTable:
		out.Code = UndefinedTable
		if m := mysqlTable.FindStringSubmatch(src.Message); m != nil {
			schema, table, found := strings.Cut(m[1], ".")
			if found {
				out.SchemaName = schema
				out.TableName = table
			} else {
				out.TableName = m[1]
			}
		}
	case mysqlBadField:
		out.Code = UndefinedColumn
	}

	if out.ColumnName == "" {
		if m := mysqlColumn.FindStringSubmatch(src.Message); m != nil {
			out.ColumnName = m[1]
		}
	}

	return out
}

// ConvertSQLiteError converts a SQLite error into an Error.
//
// The extended result code decides the category for constraint failures.
// Plain SQLITE_ERROR covers syntax and schema errors, which are only
// distinguishable by message.
func ConvertSQLiteError(src *sqlite.Error) *Error {
	msg := src.Error()
	out := &Error{
		Code:         Other,
		Severity:     SeverityError,
		DatabaseCode: strconv.Itoa(src.Code()),
		Message:      msg,
		driverErr:    src,
	}

	switch src.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		out.Code = UniqueViolation
	case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
		out.Code = ForeignKeyViolation
	case sqlite3.SQLITE_CONSTRAINT_NOTNULL:
		out.Code = NotNullViolation
	case sqlite3.SQLITE_CONSTRAINT_CHECK:
		out.Code = CheckViolation
	default:
		// Primary result code only (extended codes disabled or unknown).
		switch src.Code() & 0xff {
		case sqlite3.SQLITE_CONSTRAINT:
			switch {
			case strings.Contains(msg, "UNIQUE constraint failed"):
				out.Code = UniqueViolation
			case strings.Contains(msg, "FOREIGN KEY constraint failed"):
				out.Code = ForeignKeyViolation
			case strings.Contains(msg, "NOT NULL constraint failed"):
				out.Code = NotNullViolation
			case strings.Contains(msg, "CHECK constraint failed"):
				out.Code = CheckViolation
			}
		case sqlite3.SQLITE_ERROR:
			switch {
			case strings.Contains(msg, "syntax error"):
				out.Code = SyntaxError
			case strings.Contains(msg, "no such table"):
				out.Code = UndefinedTable
			case strings.Contains(msg, "no such column"):
				out.Code = UndefinedColumn
			}
		}
	}

	if m := sqliteConstraintColumn.FindStringSubmatch(msg); m != nil {
		out.TableName = m[1]
		out.ColumnName = m[2]
	}
	if m := sqliteNoSuch.FindStringSubmatch(msg); m != nil {
		if m[1] == "table" {
			out.TableName = m[2]
		} else {
			out.ColumnName = m[2]
		}
	}

	return out
}

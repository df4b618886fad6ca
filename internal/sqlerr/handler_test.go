package sqlerr

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/deppfellow/conn2db/internal/errs"
	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapCode(t *testing.T) {
	t.Parallel()

	tests := map[string]Code{
		"23505": UniqueViolation,
		"23503": ForeignKeyViolation,
		"23502": NotNullViolation,
		"23514": CheckViolation,
		"42601": SyntaxError,
		"42P01": UndefinedTable,
		"42703": UndefinedColumn,
		"40001": Other,
		"":      Other,
	}

	for sqlstate, want := range tests {
		assert.Equal(t, want, MapCode(sqlstate), "sqlstate %q", sqlstate)
	}
}

func TestMapSeverity(t *testing.T) {
	t.Parallel()

	assert.Equal(t, SeverityFatal, MapSeverity("FATAL"))
	assert.Equal(t, SeverityWarning, MapSeverity("WARNING"))
	assert.Equal(t, SeverityError, MapSeverity("ERROR"))
	assert.Equal(t, SeverityError, MapSeverity("something-else"))
}

func TestConvertPgError(t *testing.T) {
	t.Parallel()

	src := &pgconn.PgError{
		Severity:       "ERROR",
		Code:           "23505",
		Message:        `duplicate key value violates unique constraint "users_email_key"`,
		TableName:      "users",
		ConstraintName: "users_email_key",
	}

	got, ok := Convert(fmt.Errorf("exec: %w", src))
	require.True(t, ok)
	assert.Equal(t, UniqueViolation, got.Code)
	assert.Equal(t, SeverityError, got.Severity)
	assert.Equal(t, "23505", got.DatabaseCode)
	assert.Equal(t, "users", got.TableName)
	assert.ErrorIs(t, got, src)
}

func TestConvertMySQLError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		src        *mysql.MySQLError
		wantCode   Code
		wantTable  string
		wantColumn string
		wantKey    string
	}{
		{
			name:      "duplicate entry mysql 8",
			src:       &mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'a@b.c' for key 'users.users_email_key'"},
			wantCode:  UniqueViolation,
			wantTable: "users",
			wantKey:   "users_email_key",
		},
		{
			name:     "duplicate entry mysql 5",
			src:      &mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'a@b.c' for key 'users_email_key'"},
			wantCode: UniqueViolation,
			wantKey:  "users_email_key",
		},
		{
			name:       "bad null",
			src:        &mysql.MySQLError{Number: 1048, Message: "Column 'email' cannot be null"},
			wantCode:   NotNullViolation,
			wantColumn: "email",
		},
		{
			name:     "foreign key",
			src:      &mysql.MySQLError{Number: 1452, Message: "Cannot add or update a child row: a foreign key constraint fails"},
			wantCode: ForeignKeyViolation,
		},
		{
			name:     "parse error",
			src:      &mysql.MySQLError{Number: 1064, Message: "You have an error in your SQL syntax"},
			wantCode: SyntaxError,
		},
		{
			name:      "no such table",
			src:       &mysql.MySQLError{Number: 1146, Message: "Table 'app.users' doesn't exist"},
			wantCode:  UndefinedTable,
			wantTable: "users",
		},
		{
			name:       "unknown column",
			src:        &mysql.MySQLError{Number: 1054, Message: "Unknown column 'emial' in 'field list'"},
			wantCode:   UndefinedColumn,
			wantColumn: "emial",
		},
		{
			name:     "lock wait timeout",
			src:      &mysql.MySQLError{Number: 1205, Message: "Lock wait timeout exceeded"},
			wantCode: Other,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := ConvertMySQLError(tc.src)
			assert.Equal(t, tc.wantCode, got.Code)
			assert.Equal(t, tc.wantTable, got.TableName)
			assert.Equal(t, tc.wantColumn, got.ColumnName)
			assert.Equal(t, tc.wantKey, got.ConstraintName)
			assert.Equal(t, fmt.Sprint(tc.src.Number), got.DatabaseCode)
		})
	}
}

func TestErrCode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, NotNullViolation, ErrCode(&pgconn.PgError{Code: "23502"}))
	assert.Equal(t, ForeignKeyViolation, ErrCode(&mysql.MySQLError{Number: 1451}))
	assert.Equal(t, Other, ErrCode(sql.ErrConnDone))
	assert.Equal(t, Other, ErrCode(nil))
}

func TestHandleError(t *testing.T) {
	t.Parallel()

	t.Run("nil", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, HandleError("query", nil))
	})

	t.Run("already classified", func(t *testing.T) {
		t.Parallel()
		orig := errs.NewNotConnectedError("query")
		assert.Same(t, orig, HandleError("query", orig))
	})

	t.Run("unique violation with column from constraint", func(t *testing.T) {
		t.Parallel()
		err := HandleError("query", &pgconn.PgError{
			Severity:       "ERROR",
			Code:           "23505",
			TableName:      "users",
			ConstraintName: "users_email_key",
		})

		var dbErr *errs.Error
		require.ErrorAs(t, err, &dbErr)
		assert.Equal(t, errs.KindQuery, dbErr.Kind)
		assert.Equal(t, "USER_ALREADY_EXISTS", dbErr.Code)
		assert.Equal(t, "A User with this Email already exists", dbErr.Message)
		assert.Equal(t, UniqueViolation, ErrCode(err))
	})

	t.Run("not null", func(t *testing.T) {
		t.Parallel()
		err := HandleError("query", &pgconn.PgError{Code: "23502", TableName: "users", ColumnName: "first_name"})

		var dbErr *errs.Error
		require.ErrorAs(t, err, &dbErr)
		assert.Equal(t, "USER_REQUIRED", dbErr.Code)
		assert.Equal(t, "The First Name is required", dbErr.Message)
	})

	t.Run("foreign key uses column entity", func(t *testing.T) {
		t.Parallel()
		err := HandleError("query", &pgconn.PgError{Code: "23503", TableName: "posts", ColumnName: "author_id"})

		var dbErr *errs.Error
		require.ErrorAs(t, err, &dbErr)
		assert.Equal(t, "POST_NOT_FOUND", dbErr.Code)
		assert.Equal(t, "The referenced Author does not exist", dbErr.Message)
	})

	t.Run("unknown error", func(t *testing.T) {
		t.Parallel()
		cause := errors.New("driver: bad connection")
		err := HandleError("query", cause)

		var dbErr *errs.Error
		require.ErrorAs(t, err, &dbErr)
		assert.Equal(t, errs.KindQuery, dbErr.Kind)
		assert.Empty(t, dbErr.Code)
		assert.ErrorIs(t, err, cause)
	})

	t.Run("unclassified driver error has no code", func(t *testing.T) {
		t.Parallel()
		err := HandleError("query", &mysql.MySQLError{Number: 1205, Message: "Lock wait timeout exceeded"})

		var dbErr *errs.Error
		require.ErrorAs(t, err, &dbErr)
		assert.Empty(t, dbErr.Code)
		assert.Equal(t, "An error occurred while executing the statement", dbErr.Message)
	})
}

func TestExtractColumnForUniqueViolation(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "email", extractColumnForUniqueViolation("unique_users_email"))
	assert.Equal(t, "email", extractColumnForUniqueViolation("users_email_key"))
	assert.Equal(t, "slug", extractColumnForUniqueViolation("posts_slug_ukey"))
	assert.Empty(t, extractColumnForUniqueViolation("pk_users"))
	assert.Empty(t, extractColumnForUniqueViolation(""))
}

func TestGenerateErrorCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		table string
		code  Code
		want  string
	}{
		{"users", UniqueViolation, "USER_ALREADY_EXISTS"},
		{"orders", ForeignKeyViolation, "ORDER_NOT_FOUND"},
		{"order_items", NotNullViolation, "ORDER_ITEM_REQUIRED"},
		{"", SyntaxError, "RECORD_INVALID_STATEMENT"},
		{"accounts", UndefinedColumn, "ACCOUNT_UNDEFINED"},
		{"s", Other, "S_ERROR"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, generateErrorCode(tt.table, tt.code), tt.table)
	}
}

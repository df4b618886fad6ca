package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorIsMatchesKind(t *testing.T) {
	t.Parallel()

	driverErr := errors.New("dial tcp 127.0.0.1:3306: connect: connection refused")
	connErr := NewConnectionError("connect", driverErr)
	queryErr := NewQueryError("query", "", "", driverErr)

	assert.ErrorIs(t, connErr, ErrConnection)
	assert.NotErrorIs(t, connErr, ErrQuery)
	assert.ErrorIs(t, queryErr, ErrQuery)
	assert.NotErrorIs(t, queryErr, ErrConnection)

	assert.ErrorIs(t, connErr, driverErr)
	assert.ErrorIs(t, fmt.Errorf("wrapped: %w", queryErr), ErrQuery)
	assert.ErrorIs(t, queryErr, &Error{})
}

func TestNotConnectedError(t *testing.T) {
	t.Parallel()

	err := NewNotConnectedError("query")

	require.ErrorIs(t, err, ErrNotConnected)
	assert.True(t, IsConnection(err))
	assert.False(t, IsQuery(err))
	assert.Equal(t, "connection error: query: database connection error: not connected", err.Error())
}

func TestErrorString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "kind only",
			err:  &Error{Kind: KindQuery},
			want: "query error",
		},
		{
			name: "default query message",
			err:  NewQueryError("query", "", "", errors.New("near \"SELEC\": syntax error")),
			want: "query error: query: database query error: near \"SELEC\": syntax error",
		},
		{
			name: "custom message without cause",
			err:  NewQueryError("last_insert_id", "", "no row inserted", nil),
			want: "query error: last_insert_id: no row inserted",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, tc.err.Error())
		})
	}
}

func TestMakeUpperCaseWithUnderscores(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "ALREADY_EXISTS", MakeUpperCaseWithUnderscores("already exists"))
	assert.Equal(t, "NOT_FOUND", MakeUpperCaseWithUnderscores("Not Found"))
}

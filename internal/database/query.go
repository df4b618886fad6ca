package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/deppfellow/conn2db/internal/errs"
	"github.com/deppfellow/conn2db/internal/sqlerr"
	"github.com/jmoiron/sqlx"
)

// ErrNoLastInsertID is wrapped when no id is available for LastInsertID.
var ErrNoLastInsertID = errors.New("no row has been inserted on this connection")

// StatementKind decides how a statement's result is shaped.
type StatementKind int

const (
	// KindNone statements return nothing (DDL, SET, BEGIN...).
	KindNone StatementKind = iota
	// KindRows statements return their rows (SELECT, SHOW).
	KindRows
	// KindAffected statements return the affected row count (INSERT, UPDATE, DELETE).
	KindAffected
)

func (k StatementKind) String() string {
	switch k {
	case KindRows:
		return "rows"
	case KindAffected:
		return "affected"
	default:
		return "none"
	}
}

// FetchMode selects the row shape for KindRows statements.
type FetchMode int

const (
	// FetchAssoc returns one column-name keyed map per row.
	FetchAssoc FetchMode = iota
	// FetchNum returns one positional slice per row.
	FetchNum
	// FetchColumn returns the first column of every row.
	FetchColumn
)

func (m FetchMode) String() string {
	switch m {
	case FetchNum:
		return "num"
	case FetchColumn:
		return "column"
	default:
		return "assoc"
	}
}

// ParseFetchMode accepts "assoc", "num" or "column".
func ParseFetchMode(s string) (FetchMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "assoc":
		return FetchAssoc, nil
	case "num":
		return FetchNum, nil
	case "column":
		return FetchColumn, nil
	default:
		return FetchAssoc, fmt.Errorf("unknown fetch mode %q", s)
	}
}

type queryOptions struct {
	fetch FetchMode
}

// QueryOption customizes a single Query call.
type QueryOption func(*queryOptions)

// WithFetchMode sets the row shape. The default is FetchAssoc.
func WithFetchMode(mode FetchMode) QueryOption {
	return func(o *queryOptions) {
		o.fetch = mode
	}
}

// Result is the outcome of Query. Which fields are set depends on Kind and,
// for KindRows, on the fetch mode; row fields are empty, not nil, when the
// statement matched nothing. Keyword is the lower-cased leading keyword
// ("select", "insert"...).
type Result struct {
	Kind    StatementKind
	Keyword string
	Mode    FetchMode
	Columns []string

	Rows   []map[string]any
	Tuples [][]any
	Values []any

	RowsAffected int64
}

// Data returns the populated payload: the rows in the fetch mode's shape,
// the affected count, or nil.
func (r *Result) Data() any {
	switch r.Kind {
	case KindRows:
		switch r.Mode {
		case FetchNum:
			return r.Tuples
		case FetchColumn:
			return r.Values
		default:
			return r.Rows
		}
	case KindAffected:
		return r.RowsAffected
	default:
		return nil
	}
}

// normalizeStatement turns carriage returns into spaces and trims the text.
func normalizeStatement(query string) string {
	return strings.TrimSpace(strings.ReplaceAll(query, "\r", " "))
}

// statementKeyword returns the lower-cased first word of a normalized
// statement.
func statementKeyword(stmt string) string {
	fields := strings.Fields(stmt)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(fields[0])
}

// classifyStatement maps the leading keyword to a StatementKind.
func classifyStatement(stmt string) StatementKind {
	switch statementKeyword(stmt) {
	case "select", "show":
		return KindRows
	case "insert", "update", "delete":
		return KindAffected
	default:
		return KindNone
	}
}

// Query prepares and executes one statement on the pinned connection.
//
// Parameters queued with BindParameter win over params; either way the
// queue is empty once Query returns. Placeholders use the ":name" form for
// every driver.
func (c *Connector) Query(ctx context.Context, query string, params Params, opts ...QueryOption) (*Result, error) {
	bound := c.takeParams(params)

	if c.state != StateConnected {
		return nil, errs.NewNotConnectedError(opQuery)
	}

	o := queryOptions{fetch: FetchAssoc}
	for _, opt := range opts {
		opt(&o)
	}

	stmt := normalizeStatement(query)
	kind := classifyStatement(stmt)

	start := time.Now()
	res, err := c.execute(ctx, stmt, kind, bound, o)
	elapsed := time.Since(start)

	c.stats.queries[kind].Add(1)

	if err != nil {
		c.stats.queryErrors.Add(1)
		c.log.Error().
			Err(err).
			Str("op", opQuery).
			Str("statement", truncateStatement(stmt)).
			Str("driver", c.driver.name).
			Str("sql_code", string(sqlerr.ErrCode(err))).
			Msg("database query failed")
		return nil, sqlerr.HandleError(opQuery, err)
	}

	if threshold := c.cfg.Logging.SlowQueryThreshold; threshold > 0 && elapsed > threshold {
		c.log.Warn().
			Str("statement", truncateStatement(stmt)).
			Str("driver", c.driver.name).
			Dur("duration", elapsed).
			Dur("threshold", threshold).
			Msg("slow query")
	}

	res.Keyword = statementKeyword(stmt)
	return res, nil
}

func (c *Connector) execute(ctx context.Context, stmt string, kind StatementKind, bound []BoundParameter, o queryOptions) (*Result, error) {
	q, args, err := c.compile(stmt, bound)
	if err != nil {
		return nil, err
	}

	prepared, err := c.conn.PreparexContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("prepare: %w", err)
	}
	defer prepared.Close()

	switch kind {
	case KindRows:
		rows, err := prepared.QueryxContext(ctx, args...)
		if err != nil {
			return nil, err
		}
		defer rows.Close()
		return fetchRows(rows, o.fetch)

	case KindAffected:
		execRes, err := prepared.ExecContext(ctx, args...)
		if err != nil {
			return nil, err
		}

		affected, err := execRes.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("rows affected: %w", err)
		}

		if statementKeyword(stmt) == "insert" {
			c.inserted = true
			c.insertIDSet = false
			if id, err := execRes.LastInsertId(); err == nil {
				c.lastInsertID = id
				c.insertIDSet = true
			}
		}

		return &Result{Kind: KindAffected, RowsAffected: affected}, nil

	default:
		if _, err := prepared.ExecContext(ctx, args...); err != nil {
			return nil, err
		}
		return &Result{Kind: KindNone}, nil
	}
}

// compile rewrites ":name" placeholders into the driver's bindvar style and
// orders the arguments to match. Colons inside literals and comments are
// not placeholders. Statements without parameters are left untouched.
func (c *Connector) compile(stmt string, bound []BoundParameter) (string, []any, error) {
	if len(bound) == 0 {
		return stmt, nil, nil
	}

	arg := make(map[string]any, len(bound))
	for _, p := range bound {
		arg[strings.TrimPrefix(p.Name, ":")] = p.Value
	}

	q, args, err := sqlx.Named(escapeColons(stmt), arg)
	if err != nil {
		return "", nil, fmt.Errorf("bind parameters: %w", err)
	}

	if c.driver.bindType == sqlx.DOLLAR {
		q = rebindQuestionToDollar(q)
	}
	return q, args, nil
}

func fetchRows(rows *sqlx.Rows, mode FetchMode) (*Result, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	res := &Result{Kind: KindRows, Mode: mode, Columns: columns}
	switch mode {
	case FetchNum:
		res.Tuples = [][]any{}
	case FetchColumn:
		res.Values = []any{}
	default:
		res.Rows = []map[string]any{}
	}

	for rows.Next() {
		if mode == FetchAssoc {
			row := make(map[string]any, len(columns))
			if err := rows.MapScan(row); err != nil {
				return nil, err
			}
			for k, v := range row {
				row[k] = normalizeValue(v)
			}
			res.Rows = append(res.Rows, row)
			continue
		}

		tuple, err := rows.SliceScan()
		if err != nil {
			return nil, err
		}
		for i, v := range tuple {
			tuple[i] = normalizeValue(v)
		}

		if mode == FetchColumn {
			if len(tuple) > 0 {
				res.Values = append(res.Values, tuple[0])
			}
			continue
		}
		res.Tuples = append(res.Tuples, tuple)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// normalizeValue turns driver byte slices into strings.
func normalizeValue(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

// LastInsertID returns the id generated by the most recent INSERT run
// through Query on this connection.
func (c *Connector) LastInsertID(ctx context.Context) (int64, error) {
	if c.state != StateConnected {
		return 0, errs.NewNotConnectedError(opLastInsertID)
	}
	if !c.inserted {
		return 0, errs.NewQueryError(opLastInsertID, "", "", ErrNoLastInsertID)
	}
	if c.insertIDSet {
		return c.lastInsertID, nil
	}
	if c.driver.lastInsertIDQuery == "" {
		return 0, errs.NewQueryError(opLastInsertID, "", "", ErrNoLastInsertID)
	}

	var id int64
	if err := c.conn.QueryRowxContext(ctx, c.driver.lastInsertIDQuery).Scan(&id); err != nil {
		c.log.Error().
			Err(err).
			Str("op", opLastInsertID).
			Str("driver", c.driver.name).
			Msg("failed to read last insert id")
		return 0, sqlerr.HandleError(opLastInsertID, err)
	}

	c.lastInsertID = id
	c.insertIDSet = true
	return id, nil
}

const maxLoggedStatement = 200

func truncateStatement(stmt string) string {
	stmt = strings.Join(strings.Fields(stmt), " ")
	if len(stmt) <= maxLoggedStatement {
		return stmt
	}
	return stmt[:maxLoggedStatement] + "..."
}

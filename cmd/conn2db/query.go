package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/deppfellow/conn2db/internal/database"
	"github.com/deppfellow/conn2db/internal/lib/utils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
)

type queryOutput struct {
	Kind         string   `json:"kind"`
	Columns      []string `json:"columns,omitempty"`
	Rows         any      `json:"rows,omitempty"`
	RowsAffected *int64   `json:"rows_affected,omitempty"`
	LastInsertID *int64   `json:"last_insert_id,omitempty"`
}

type paramFlags struct {
	ints  []string
	bools []string
	nulls []string
	texts []string
}

func runQueryCommand() *cobra.Command {
	var (
		flags   paramFlags
		fetch   string
		metrics bool
	)

	cmd := &cobra.Command{
		Use:   "query SQL",
		Short: "Execute one statement and print its result as JSON",
		Example: `  conn2db query "INSERT INTO t (n) VALUES (:n)" --int n=5
  conn2db query "SELECT * FROM t WHERE label = :label" --text label=a --fetch num`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := database.ParseFetchMode(fetch)
			if err != nil {
				return err
			}

			params, err := flags.params()
			if err != nil {
				return err
			}

			conn, err := database.OpenFromEnv(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer conn.Close()

			out, err := runQuery(cmd.Context(), conn, args[0], params, mode)
			if metrics {
				if mErr := writeMetrics(cmd.ErrOrStderr(), conn); mErr != nil {
					conn.Logger().Warn().Err(mErr).Msg("failed to write metrics")
				}
			}
			if err != nil {
				return err
			}

			return utils.WriteJSON(cmd.OutOrStdout(), out)
		},
	}

	cmd.Flags().StringArrayVar(&flags.ints, "int", nil, "Integer parameter as name=value (repeatable)")
	cmd.Flags().StringArrayVar(&flags.bools, "bool", nil, "Boolean parameter as name=true|false (repeatable)")
	cmd.Flags().StringArrayVar(&flags.nulls, "null", nil, "NULL parameter name (repeatable)")
	cmd.Flags().StringArrayVar(&flags.texts, "text", nil, "Text parameter as name=value (repeatable)")
	cmd.Flags().StringVar(&fetch, "fetch", "assoc", "Row shape for SELECT/SHOW: assoc, num or column")
	cmd.Flags().BoolVar(&metrics, "metrics", false, "Write the connector's Prometheus metrics to stderr after the statement")

	return cmd
}

func runQuery(ctx context.Context, conn *database.Connector, query string, params database.Params, mode database.FetchMode) (*queryOutput, error) {
	res, err := conn.Query(ctx, query, params, database.WithFetchMode(mode))
	if err != nil {
		return nil, err
	}

	out := &queryOutput{Kind: res.Kind.String()}
	switch res.Kind {
	case database.KindRows:
		out.Columns = res.Columns
		out.Rows = res.Data()
	case database.KindAffected:
		affected := res.RowsAffected
		out.RowsAffected = &affected

		if res.Keyword != "insert" {
			break
		}

		id, err := conn.LastInsertID(ctx)
		switch {
		case errors.Is(err, database.ErrNoLastInsertID):
		case err != nil:
			conn.Logger().Warn().Err(err).Msg("last insert id unavailable")
		default:
			out.LastInsertID = &id
		}
	}

	return out, nil
}

// writeMetrics dumps the connector's counters in the Prometheus text format.
func writeMetrics(w io.Writer, conn *database.Connector) error {
	reg := prometheus.NewRegistry()
	if err := reg.Register(database.NewMetricsCollector(conn)); err != nil {
		return err
	}

	families, err := reg.Gather()
	if err != nil {
		return err
	}

	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}

// params converts the repeatable flags into typed parameters.
func (f paramFlags) params() (database.Params, error) {
	params := database.Params{}

	add := func(name string, v database.Value) error {
		if name == "" {
			return errors.New("parameter name must not be empty")
		}
		if _, ok := params[name]; ok {
			return fmt.Errorf("parameter %q given more than once", name)
		}
		params[name] = v
		return nil
	}

	for _, raw := range f.ints {
		name, value, err := splitParam("int", raw)
		if err != nil {
			return nil, err
		}
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("--int %s: %w", raw, err)
		}
		if err := add(name, database.Int(n)); err != nil {
			return nil, err
		}
	}

	for _, raw := range f.bools {
		name, value, err := splitParam("bool", raw)
		if err != nil {
			return nil, err
		}
		b, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("--bool %s: %w", raw, err)
		}
		if err := add(name, database.Bool(b)); err != nil {
			return nil, err
		}
	}

	for _, name := range f.nulls {
		if err := add(strings.TrimPrefix(name, ":"), database.Null()); err != nil {
			return nil, err
		}
	}

	for _, raw := range f.texts {
		name, value, err := splitParam("text", raw)
		if err != nil {
			return nil, err
		}
		if err := add(name, database.Text(value)); err != nil {
			return nil, err
		}
	}

	return params, nil
}

// splitParam splits "name=value" at the first '='. A leading ':' on the
// name is accepted and dropped.
func splitParam(flag, raw string) (string, string, error) {
	name, value, ok := strings.Cut(raw, "=")
	if !ok {
		return "", "", fmt.Errorf("--%s %q: expected name=value", flag, raw)
	}
	return strings.TrimPrefix(name, ":"), value, nil
}

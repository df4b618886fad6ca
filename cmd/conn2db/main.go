// Command conn2db runs statements through the database connector using the
// DB_* and LOG_* environment (or a .env file).
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/deppfellow/conn2db/internal/config"
	"github.com/deppfellow/conn2db/internal/database"
	"github.com/deppfellow/conn2db/internal/errs"
	"github.com/deppfellow/conn2db/internal/logger"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes the command line and returns the process exit code. Any
// error, usage errors included, is logged to stderr.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := newRootCommand()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.ExecuteContext(ctx); err != nil {
		reportError(errorLogger(stderr), err)
		return 1
	}
	return 0
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "conn2db",
		Short:         "Run SQL through a single database connection",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(runPingCommand())
	cmd.AddCommand(runQueryCommand())
	return cmd
}

// errorLogger follows the LOG_* settings when they load, and falls back to
// the default console logger otherwise.
func errorLogger(w io.Writer) *zerolog.Logger {
	logging := config.DefaultLoggingConfig()
	if cfg, err := config.Load(); err == nil {
		logging = cfg.Logging
	}
	return logger.NewWithWriter(logging, w)
}

func reportError(log *zerolog.Logger, err error) {
	var dbErr *errs.Error

	switch {
	case errs.IsConnection(err):
		log.Error().Err(err).Msg("database connection failed")
	case errs.IsQuery(err) && errors.As(err, &dbErr):
		log.Error().Err(err).Str("code", dbErr.Code).Msg("statement failed")
	default:
		log.Error().Err(err).Msg("conn2db failed")
	}
}

func runPingCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Connect, ping and disconnect",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conn, err := database.OpenFromEnv(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer conn.Close()

			if err := conn.Ping(cmd.Context()); err != nil {
				return err
			}

			conn.Logger().Info().Str("driver", conn.Driver()).Msg("database is reachable")
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}
}

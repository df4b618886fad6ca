package database

import (
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/deppfellow/conn2db/internal/config"
	loggerConfig "github.com/deppfellow/conn2db/internal/logger"
	"github.com/go-sql-driver/mysql"
	pgxzero "github.com/jackc/pgx-zerolog"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jackc/pgx/v5/tracelog"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"

	// Register the pure-Go SQLite driver as "sqlite".
	_ "modernc.org/sqlite"
)

// driverSpec describes how one DB_DRIVER value is opened.
type driverSpec struct {
	// name is the canonical driver name used in logs and metrics.
	name string

	// sqlName is the database/sql driver name.
	sqlName string

	// bindType is the sqlx bindvar style named placeholders compile to.
	bindType int

	// lastInsertIDQuery asks the session for the last generated id, for
	// drivers whose sql.Result does not carry it. Empty when it does.
	lastInsertIDQuery string

	dsn  func(cfg config.DatabaseConfig) string
	open func(dsn string, logging config.LoggingConfig, log *zerolog.Logger) (*sql.DB, error)
}

var (
	mysqlDriver = &driverSpec{
		name:     "mysql",
		sqlName:  "mysql",
		bindType: sqlx.QUESTION,
		dsn:      mysqlDSN,
		open:     openSQL("mysql"),
	}
	postgresDriver = &driverSpec{
		name:              "pgsql",
		sqlName:           "pgx",
		bindType:          sqlx.DOLLAR,
		lastInsertIDQuery: "SELECT lastval()",
		dsn:               postgresDSN,
		open:              openPostgres,
	}
	sqliteDriver = &driverSpec{
		name:     "sqlite",
		sqlName:  "sqlite",
		bindType: sqlx.QUESTION,
		dsn:      sqliteDSN,
		open:     openSQL("sqlite"),
	}
)

// lookupDriver resolves a DB_DRIVER value.
func lookupDriver(name string) (*driverSpec, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "mysql", "mariadb":
		return mysqlDriver, nil
	case "pgsql", "postgres", "postgresql":
		return postgresDriver, nil
	case "sqlite", "sqlite3":
		return sqliteDriver, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", name)
	}
}

// hostPort joins host and port, leaving the port out when unset so the
// driver applies its default.
func hostPort(host, port string) string {
	if port == "" {
		return host
	}
	return net.JoinHostPort(host, port)
}

// mysqlDSN builds a go-sql-driver DSN. The locale is applied as the
// lc_time_names session variable on every new connection.
func mysqlDSN(cfg config.DatabaseConfig) string {
	mc := mysql.NewConfig()
	mc.User = cfg.User
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = hostPort(cfg.Host, cfg.Port)
	mc.DBName = cfg.Name
	mc.Params = map[string]string{}

	if cfg.Codification != "" {
		mc.Params["charset"] = cfg.Codification
	}
	if cfg.Locale != "" {
		mc.Params["lc_time_names"] = "'" + strings.ReplaceAll(cfg.Locale, "'", "''") + "'"
	}

	return mc.FormatDSN()
}

// postgresDSN builds a postgres URL. Encoding and locale travel as the
// client_encoding and lc_time runtime parameters.
func postgresDSN(cfg config.DatabaseConfig) string {
	q := url.Values{}
	if enc := postgresEncoding(cfg.Codification); enc != "" {
		q.Set("client_encoding", enc)
	}
	if cfg.Locale != "" {
		q.Set("lc_time", cfg.Locale)
	}
	if cfg.SSLMode != "" {
		q.Set("sslmode", cfg.SSLMode)
	}

	u := &url.URL{
		Scheme:   "postgres",
		Host:     hostPort(cfg.Host, cfg.Port),
		Path:     "/" + cfg.Name,
		RawQuery: q.Encode(),
	}
	if cfg.User != "" || cfg.Password != "" {
		u.User = url.UserPassword(cfg.User, cfg.Password)
	}

	return u.String()
}

func postgresEncoding(codification string) string {
	switch strings.ToLower(codification) {
	case "":
		return ""
	case "utf8", "utf-8", "utf8mb4":
		return "UTF8"
	default:
		return codification
	}
}

// sqliteDSN uses DB_NAME as the database file; an empty name opens an
// in-memory database that lives as long as the connection.
func sqliteDSN(cfg config.DatabaseConfig) string {
	name := cfg.Name
	if name == "" {
		name = ":memory:"
	}

	sep := "?"
	if strings.Contains(name, "?") {
		sep = "&"
	}
	return name + sep + "_pragma=foreign_keys(1)"
}

func openSQL(sqlName string) func(string, config.LoggingConfig, *zerolog.Logger) (*sql.DB, error) {
	return func(dsn string, _ config.LoggingConfig, _ *zerolog.Logger) (*sql.DB, error) {
		return sql.Open(sqlName, dsn)
	}
}

// openPostgres opens pgx through database/sql. With debug logging every
// statement is traced through zerolog.
func openPostgres(dsn string, logging config.LoggingConfig, log *zerolog.Logger) (*sql.DB, error) {
	connConfig, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse pgx config: %w", err)
	}

	if logging.IsDebug() {
		connConfig.Tracer = &tracelog.TraceLog{
			Logger:   pgxzero.NewLogger(loggerConfig.NewPgxLogger(log)),
			LogLevel: loggerConfig.GetPgxTraceLogLevel(log.GetLevel()),
		}
	}

	return stdlib.OpenDB(*connConfig), nil
}

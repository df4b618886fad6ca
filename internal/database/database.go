// Package database contains the connector that owns one database
// connection and executes statements on it.
//
// It handles:
//   - building a driver-specific DSN from config (mysql, pgsql, sqlite)
//   - opening the handle and pinning a single physical connection
//   - preparing, binding and executing statements, shaping results by the
//     statement's leading keyword
//   - last insert id, close, and a small state machine around them
//
// A Connector is not safe for concurrent use. Callers that need
// concurrency use one connector per goroutine.
package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/deppfellow/conn2db/internal/config"
	"github.com/deppfellow/conn2db/internal/errs"
	loggerConfig "github.com/deppfellow/conn2db/internal/logger"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
)

// State is the connector lifecycle state.
type State int

const (
	StateUninitialized State = iota
	StateConnecting
	StateConnected
	StateDisconnected
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateDisconnected:
		return "disconnected"
	default:
		return "uninitialized"
	}
}

const (
	opConnect      = "connect"
	opQuery        = "query"
	opLastInsertID = "last_insert_id"
	opPing         = "ping"
	opClose        = "close"
)

// Connector owns one database connection.
//
// db is the database/sql handle restricted to one open connection, and conn
// is that connection pinned for the connector's lifetime so session state
// (locale, last insert id) survives between statements.
type Connector struct {
	cfg    config.Config
	log    *zerolog.Logger
	driver *driverSpec

	db   *sqlx.DB
	conn *sqlx.Conn

	state  State
	params []BoundParameter

	inserted     bool
	lastInsertID int64
	insertIDSet  bool

	stats connectorStats
}

// New creates a connector in the uninitialized state. It does not connect.
func New(cfg *config.Config, logger *zerolog.Logger) *Connector {
	if logger == nil {
		logger = loggerConfig.Nop()
	}

	c := &Connector{
		log:    logger,
		state:  StateUninitialized,
		params: []BoundParameter{},
	}
	if cfg != nil {
		c.cfg = *cfg
	}
	return c
}

// Open creates a connector and connects it.
func Open(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*Connector, error) {
	c := New(cfg, logger)
	if err := c.Connect(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// OpenFromEnv loads the configuration from the environment and connects.
// A nil logger is replaced by one built from the LOG_* settings.
func OpenFromEnv(ctx context.Context, logger *zerolog.Logger) (*Connector, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = loggerConfig.New(cfg.Logging)
	}
	return Open(ctx, cfg, logger)
}

// Connect opens the connection described by the configuration.
//
// A live connection is closed first, so the connector never holds two.
// Failures are logged and returned as connection errors; nothing is retried.
func (c *Connector) Connect(ctx context.Context) error {
	if c.db != nil || c.conn != nil {
		if err := c.release(); err != nil {
			c.log.Warn().Err(err).Msg("failed to release previous database connection")
		}
	}

	c.state = StateConnecting
	c.resetInsertID()

	drv, err := lookupDriver(c.cfg.Database.Driver)
	if err != nil {
		return c.connectFailed(err)
	}

	sqlDB, err := drv.open(drv.dsn(c.cfg.Database), c.cfg.Logging, c.log)
	if err != nil {
		return c.connectFailed(fmt.Errorf("open %s: %w", drv.name, err))
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	db := sqlx.NewDb(sqlDB, drv.sqlName)

	conn, err := db.Connx(ctx)
	if err != nil {
		_ = db.Close()
		return c.connectFailed(fmt.Errorf("acquire %s connection: %w", drv.name, err))
	}

	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		_ = db.Close()
		return c.connectFailed(fmt.Errorf("ping %s: %w", drv.name, err))
	}

	c.driver = drv
	c.db = db
	c.conn = conn
	c.state = StateConnected
	c.stats.connects.Add(1)

	c.log.Info().
		Str("driver", drv.name).
		Str("host", c.cfg.Database.Host).
		Str("database", c.cfg.Database.Name).
		Msg("connected to the database")

	return nil
}

func (c *Connector) connectFailed(err error) error {
	c.state = StateDisconnected
	c.stats.connectFailures.Add(1)

	c.log.Error().
		Err(err).
		Str("op", opConnect).
		Str("driver", c.cfg.Database.Driver).
		Str("host", c.cfg.Database.Host).
		Str("database", c.cfg.Database.Name).
		Msg("failed to connect to the database")

	return errs.NewConnectionError(opConnect, err)
}

// Ping checks the pinned connection.
func (c *Connector) Ping(ctx context.Context) error {
	if c.state != StateConnected {
		return errs.NewNotConnectedError(opPing)
	}
	if err := c.conn.PingContext(ctx); err != nil {
		c.log.Error().Err(err).Str("op", opPing).Str("driver", c.driver.name).Msg("database ping failed")
		return errs.NewConnectionError(opPing, err)
	}
	return nil
}

// Close releases the connection. Closing twice is not an error.
func (c *Connector) Close() error {
	wasOpen := c.db != nil || c.conn != nil

	err := c.release()
	c.state = StateDisconnected
	c.params = []BoundParameter{}
	c.resetInsertID()

	if !wasOpen {
		return nil
	}
	if err != nil {
		c.log.Error().Err(err).Str("op", opClose).Msg("failed to close database connection")
		return errs.NewConnectionError(opClose, err)
	}

	c.log.Info().Msg("database connection closed")
	return nil
}

// release closes the pinned connection, then the handle.
func (c *Connector) release() error {
	var connErr, dbErr error
	if c.conn != nil {
		connErr = c.conn.Close()
		c.conn = nil
	}
	if c.db != nil {
		dbErr = c.db.Close()
		c.db = nil
	}
	return errors.Join(connErr, dbErr)
}

func (c *Connector) resetInsertID() {
	c.inserted = false
	c.insertIDSet = false
	c.lastInsertID = 0
}

// State reports the lifecycle state.
func (c *Connector) State() State {
	return c.state
}

// Logger returns the logger the connector writes to.
func (c *Connector) Logger() *zerolog.Logger {
	return c.log
}

// Driver reports the canonical driver name once connected, or the
// configured DB_DRIVER value before that.
func (c *Connector) Driver() string {
	if c.driver != nil {
		return c.driver.name
	}
	return c.cfg.Database.Driver
}

package repository

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/joseph-ayodele/docflow/internal/common"
)

//go:embed migrations/*.sql
var migrations embed.FS

type Config struct {
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// ConfigFrom maps the application database settings.
func ConfigFrom(c common.DatabaseConfig) Config {
	return Config{
		DSN:              c.DSN,
		MaxConns:         c.MaxConns,
		MinConns:         c.MinConns,
		MaxConnLifetime:  c.MaxConnLifetime,
		MaxConnIdleTime:  c.MaxConnIdleTime,
		DialTimeout:      c.DialTimeout,
		StatementTimeout: c.StatementTimeout,
	}
}

// Store owns the database handle shared by every repository.
type Store struct {
	drv    *entsql.Driver
	pool   *pgxpool.Pool // nil for SQLite
	logger *slog.Logger
}

// Open connects to PostgreSQL (postgres:// DSNs, through a pgx pool) or to
// SQLite (file:, sqlite:// or :memory: DSNs).
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if isSQLite(cfg.DSN) {
		return openSQLite(cfg, logger)
	}
	return openPostgres(ctx, cfg, logger)
}

func isSQLite(dsn string) bool {
	return dsn == ":memory:" || strings.HasPrefix(dsn, "file:") || strings.HasPrefix(dsn, "sqlite://")
}

func openSQLite(cfg Config, logger *slog.Logger) (*Store, error) {
	dsn := strings.TrimPrefix(cfg.DSN, "sqlite://")
	if !strings.Contains(dsn, "_pragma=foreign_keys") {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + "_pragma=foreign_keys(1)"
	}
	logger.Info("db.open", "driver", "sqlite", "dsn", cfg.DSN)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		logger.Error("db.open.failed", "error", err)
		return nil, err
	}
	// One connection keeps :memory: databases alive and serializes writers.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	return &Store{drv: entsql.OpenDB(dialect.SQLite, db), logger: logger}, nil
}

func openPostgres(ctx context.Context, cfg Config, logger *slog.Logger) (*Store, error) {
	logger.Info("db.open", "driver", "postgres")
	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		logger.Error("db.open.failed", "error", err)
		return nil, err
	}

	if cfg.MaxConns > 0 {
		pc.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		pc.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		pc.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	}
	pc.ConnConfig.RuntimeParams["application_name"] = "docflow"
	if cfg.StatementTimeout > 0 {
		pc.ConnConfig.RuntimeParams["statement_timeout"] = fmt.Sprint(cfg.StatementTimeout.Milliseconds())
	}

	dialCtx, cancel := common.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()
	pool, err := pgxpool.NewWithConfig(dialCtx, pc)
	if err != nil {
		logger.Error("db.open.failed", "error", err)
		return nil, err
	}

	// Wrap pool as *sql.DB for the ent SQL builders
	db := stdlib.OpenDBFromPool(pool)
	logger.Info("db.open.ok", "driver", "postgres")
	return &Store{drv: entsql.OpenDB(dialect.Postgres, db), pool: pool, logger: logger}, nil
}

// Dialect returns the ent dialect name in use.
func (s *Store) Dialect() string { return s.drv.Dialect() }

// DB exposes the underlying handle.
func (s *Store) DB() *sql.DB { return s.drv.DB() }

func (s *Store) qb() *entsql.DialectBuilder { return entsql.Dialect(s.drv.Dialect()) }

// Migrate applies the embedded schema. Statements are idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	name := "migrations/sqlite.sql"
	if s.Dialect() == dialect.Postgres {
		name = "migrations/postgres.sql"
	}
	b, err := migrations.ReadFile(name)
	if err != nil {
		return err
	}
	for _, stmt := range strings.Split(string(b), ";\n") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := s.DB().ExecContext(ctx, stmt); err != nil {
			s.logger.Error("db.migrate.failed", "error", err)
			return fmt.Errorf("migrate: %w", err)
		}
	}
	s.logger.Info("db.migrate.ok", "dialect", s.Dialect())
	return nil
}

// HealthCheck pings the database to catch DSN issues early.
func (s *Store) HealthCheck(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := common.WithTimeout(ctx, timeout)
	defer cancel()
	if s.pool != nil {
		return s.pool.Ping(ctx)
	}
	return s.DB().PingContext(ctx)
}

// Close closes the database connections gracefully
func (s *Store) Close() {
	s.logger.Info("db.close")
	if err := s.drv.Close(); err != nil {
		s.logger.Error("db.close.failed", "error", err)
	}
	if s.pool != nil {
		s.pool.Close()
	}
}

// withTx runs fn in a transaction, rolling back on error.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.DB().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Error("db.tx.rollback_failed", "error", rbErr)
		}
		return err
	}
	return tx.Commit()
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type builder interface {
	Query() (string, []any)
}

func exec(ctx context.Context, q querier, b builder) (sql.Result, error) {
	query, args := b.Query()
	return q.ExecContext(ctx, query, args...)
}

// execOne runs b and maps "no rows affected" to ErrNotFound.
func execOne(ctx context.Context, q querier, b builder) error {
	res, err := exec(ctx, q, b)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return common.ErrNotFound
	}
	return err
}

func utc(t time.Time) time.Time { return t.UTC().Truncate(time.Microsecond) }

// Package postgres is an [authcore.CredentialStore] backed by a PostgreSQL
// users table. The schema ships as embedded goose migrations.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"strconv"
	"time"

	"github.com/MrEthical07/authcore"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

//go:embed migrations/*.sql
var migrations embed.FS

// ErrUsernameTaken is returned by [Store.CreateUser] for a duplicate username.
var ErrUsernameTaken = errors.New("username already taken")

const uniqueViolation = "23505"

// poolIface is the subset of *pgxpool.Pool used by the store.
type poolIface interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

// Store reads credential records from the users table.
type Store struct {
	pool poolIface
}

var _ authcore.CredentialStore = (*Store)(nil)

// New returns a store over pool.
func New(pool poolIface) *Store {
	return &Store{pool: pool}
}

// FindByUsername implements [authcore.CredentialStore].
func (s *Store) FindByUsername(ctx context.Context, username string) (authcore.UserRecord, bool, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, username, password_hash, salt FROM users WHERE username = $1`,
		username)

	rec, found, err := scanUser(row)
	if err != nil {
		return authcore.UserRecord{}, false, oops.
			Code("USER_FIND_FAILED").
			With("username", username).
			Wrap(err)
	}
	return rec, found, nil
}

// FindByID implements [authcore.CredentialStore]. Ids that are not decimal
// integers cannot exist and are reported as not found.
func (s *Store) FindByID(ctx context.Context, id string) (authcore.UserRecord, bool, error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil || n <= 0 {
		return authcore.UserRecord{}, false, nil
	}

	row := s.pool.QueryRow(ctx,
		`SELECT id, username, password_hash, salt FROM users WHERE id = $1`,
		n)

	rec, found, err := scanUser(row)
	if err != nil {
		return authcore.UserRecord{}, false, oops.
			Code("USER_FIND_FAILED").
			With("user_id", id).
			Wrap(err)
	}
	return rec, found, nil
}

// CreateUser inserts a credential row and returns its id.
func (s *Store) CreateUser(ctx context.Context, username, passwordHash, salt string) (string, error) {
	var id int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO users (username, password_hash, salt) VALUES ($1, $2, $3) RETURNING id`,
		username, passwordHash, salt).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return "", oops.Code("USER_EXISTS").With("username", username).Wrap(ErrUsernameTaken)
		}
		return "", oops.Code("USER_CREATE_FAILED").With("username", username).Wrap(err)
	}
	return strconv.FormatInt(id, 10), nil
}

func scanUser(row pgx.Row) (authcore.UserRecord, bool, error) {
	var (
		id  int64
		rec authcore.UserRecord
	)
	if err := row.Scan(&id, &rec.Username, &rec.PasswordHash, &rec.Salt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return authcore.UserRecord{}, false, nil
		}
		return authcore.UserRecord{}, false, err
	}
	rec.ID = strconv.FormatInt(id, 10)
	return rec, true, nil
}

// Connect opens a pool for dsn and waits until the server answers a ping,
// retrying with exponential backoff up to attempts extra times.
func Connect(ctx context.Context, dsn string, attempts uint64) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, oops.Code("DB_CONFIG_INVALID").Wrap(err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").Wrap(err)
	}

	backoff := retry.WithMaxRetries(attempts, retry.NewExponential(200*time.Millisecond))
	if err := pingWithRetry(ctx, pool, backoff); err != nil {
		pool.Close()
		return nil, oops.
			Code("DB_CONNECT_FAILED").
			With("host", cfg.ConnConfig.Host).
			With("attempts", attempts+1).
			Wrap(err)
	}
	return pool, nil
}

func pingWithRetry(ctx context.Context, pool poolIface, backoff retry.Backoff) error {
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := pool.Ping(ctx); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// Migrate applies the embedded migrations to db.
func Migrate(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return oops.Code("DB_MIGRATE_FAILED").Wrap(err)
	}
	if err := gooseUpContext(ctx, db, "migrations"); err != nil {
		return oops.Code("DB_MIGRATE_FAILED").Wrap(err)
	}
	return nil
}

// MigratePool applies the embedded migrations through a database/sql view of
// pool.
func MigratePool(ctx context.Context, pool *pgxpool.Pool) error {
	db := stdlib.OpenDBFromPool(pool)
	defer func() { _ = db.Close() }()
	return Migrate(ctx, db)
}

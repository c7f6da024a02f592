package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/pressly/goose/v3"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var userColumns = []string{"id", "username", "password_hash", "salt"}

func TestStore_FindByUsername(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(mock pgxmock.PgxPoolIface)
		wantFound bool
		wantID    string
		wantErr   bool
	}{
		{
			name: "found",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				rows := pgxmock.NewRows(userColumns).AddRow(int64(1), "alice", "hash", "s1")
				mock.ExpectQuery(`SELECT id, username, password_hash, salt FROM users WHERE username = \$1`).
					WithArgs("alice").
					WillReturnRows(rows)
			},
			wantFound: true,
			wantID:    "1",
		},
		{
			name: "no rows",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT id, username, password_hash, salt FROM users WHERE username = \$1`).
					WithArgs("alice").
					WillReturnRows(pgxmock.NewRows(userColumns))
			},
			wantFound: false,
		},
		{
			name: "database error",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT id, username, password_hash, salt FROM users WHERE username = \$1`).
					WithArgs("alice").
					WillReturnError(errors.New("connection refused"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err, "failed to create mock")
			defer mock.Close()

			tt.setupMock(mock)

			rec, found, err := New(mock).FindByUsername(context.Background(), "alice")
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "connection refused")
				oopsErr, ok := oops.AsOops(err)
				require.True(t, ok)
				assert.Equal(t, "USER_FIND_FAILED", oopsErr.Code())
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantFound, found)
				if tt.wantFound {
					assert.Equal(t, tt.wantID, rec.ID)
					assert.Equal(t, "alice", rec.Username)
					assert.Equal(t, "s1", rec.Salt)
				}
			}

			assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
		})
	}
}

func TestStore_FindByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	rows := pgxmock.NewRows(userColumns).AddRow(int64(42), "bob", "hash", "salt")
	mock.ExpectQuery(`SELECT id, username, password_hash, salt FROM users WHERE id = \$1`).
		WithArgs(int64(42)).
		WillReturnRows(rows)

	store := New(mock)
	rec, found, err := store.FindByID(context.Background(), "42")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "42", rec.ID)
	assert.Equal(t, "bob", rec.Username)

	for _, id := range []string{"", "abc", "-3", "0"} {
		_, found, err := store.FindByID(context.Background(), id)
		require.NoError(t, err)
		assert.False(t, found, "id %q must not hit the database", id)
	}

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_CreateUser(t *testing.T) {
	t.Run("inserted", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(`INSERT INTO users`).
			WithArgs("alice", "hash", "s1").
			WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(7)))

		id, err := New(mock).CreateUser(context.Background(), "alice", "hash", "s1")
		require.NoError(t, err)
		assert.Equal(t, "7", id)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate username", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(`INSERT INTO users`).
			WithArgs("alice", "hash", "s1").
			WillReturnError(&pgconn.PgError{Code: "23505"})

		_, err = New(mock).CreateUser(context.Background(), "alice", "hash", "s1")
		assert.ErrorIs(t, err, ErrUsernameTaken)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPingWithRetry(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectPing().WillReturnError(errors.New("starting up"))
	mock.ExpectPing().WillReturnError(errors.New("starting up"))
	mock.ExpectPing()

	backoff := retry.WithMaxRetries(3, retry.NewConstant(1))
	require.NoError(t, pingWithRetry(context.Background(), mock, backoff))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPingWithRetryGivesUp(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectPing().WillReturnError(errors.New("down"))
	mock.ExpectPing().WillReturnError(errors.New("down"))

	backoff := retry.WithMaxRetries(1, retry.NewConstant(1))
	err = pingWithRetry(context.Background(), mock, backoff)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "down")
}

func TestMigrate(t *testing.T) {
	orig := gooseUpContext
	defer func() { gooseUpContext = orig }()

	var gotDir string
	gooseUpContext = func(_ context.Context, _ *sql.DB, dir string, _ ...goose.OptionsFunc) error {
		gotDir = dir
		return nil
	}
	require.NoError(t, Migrate(context.Background(), nil))
	assert.Equal(t, "migrations", gotDir)

	gooseUpContext = func(context.Context, *sql.DB, string, ...goose.OptionsFunc) error {
		return errors.New("boom")
	}
	err := Migrate(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestEmbeddedMigrations(t *testing.T) {
	entries, err := migrations.ReadDir("migrations")
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	assert.Equal(t, "00001_create_users.sql", entries[0].Name())
}

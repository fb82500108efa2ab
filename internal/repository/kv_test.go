package repository

import (
	"context"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/atinyakov/WardrobeKeeper/internal/client/storage"
	"github.com/atinyakov/WardrobeKeeper/internal/db"
)

func setupMock(t *testing.T) (*KVRepository, sqlmock.Sqlmock, func()) {
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock database: %v", err)
	}
	repo := NewKVRepository(conn, db.Postgres)
	cleanup := func() {
		conn.Close()
	}
	return repo, mock, cleanup
}

func TestLoad_Success(t *testing.T) {
	repo, mock, cleanup := setupMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT value FROM kv WHERE key = $1`)).
		WithArgs("wardrobe-clothes").
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow(`[{"id":"a"}]`))

	got, err := repo.Load(context.Background(), "wardrobe-clothes")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(got) != `[{"id":"a"}]` {
		t.Errorf("unexpected document %s", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestLoad_NotFound(t *testing.T) {
	repo, mock, cleanup := setupMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT value FROM kv WHERE key = $1`)).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"value"}))

	if _, err := repo.Load(context.Background(), "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected storage.ErrNotFound, got %v", err)
	}
}

func TestLoad_Error(t *testing.T) {
	repo, mock, cleanup := setupMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT value FROM kv WHERE key = $1`)).
		WithArgs("k").
		WillReturnError(errors.New("connection reset"))

	_, err := repo.Load(context.Background(), "k")
	if err == nil || !regexp.MustCompile(`load k`).MatchString(err.Error()) {
		t.Errorf("expected wrapped load error, got %v", err)
	}
}

func TestSave(t *testing.T) {
	repo, mock, cleanup := setupMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO kv (key, value, updated_at) VALUES ($1, $2, CURRENT_TIMESTAMP) ON CONFLICT (key) DO UPDATE`)).
		WithArgs("wardrobe-profile", `{"name":"Aisha"}`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Save(context.Background(), "wardrobe-profile", []byte(`{"name":"Aisha"}`)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestDelete(t *testing.T) {
	repo, mock, cleanup := setupMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM kv WHERE key = $1`)).
		WithArgs("k").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Delete(context.Background(), "k"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
}

func TestCompareAndSwap_Postgres(t *testing.T) {
	cases := []struct {
		name    string
		old     []byte
		query   string
		args    []driver.Value
		rows    int64
		swapped bool
	}{
		{
			name:    "insert absent",
			old:     nil,
			query:   `INSERT INTO kv (key, value, updated_at) VALUES ($1, $2, CURRENT_TIMESTAMP) ON CONFLICT (key) DO NOTHING`,
			args:    []driver.Value{"k", "2"},
			rows:    1,
			swapped: true,
		},
		{
			name:    "insert lost race",
			old:     nil,
			query:   `INSERT INTO kv (key, value, updated_at) VALUES ($1, $2, CURRENT_TIMESTAMP) ON CONFLICT (key) DO NOTHING`,
			args:    []driver.Value{"k", "2"},
			rows:    0,
			swapped: false,
		},
		{
			name:    "update matching",
			old:     []byte("1"),
			query:   `UPDATE kv SET value = $1, updated_at = CURRENT_TIMESTAMP WHERE key = $2 AND value = $3`,
			args:    []driver.Value{"2", "k", "1"},
			rows:    1,
			swapped: true,
		},
		{
			name:    "update stale",
			old:     []byte("0"),
			query:   `UPDATE kv SET value = $1, updated_at = CURRENT_TIMESTAMP WHERE key = $2 AND value = $3`,
			args:    []driver.Value{"2", "k", "0"},
			rows:    0,
			swapped: false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo, mock, cleanup := setupMock(t)
			defer cleanup()

			mock.ExpectExec(regexp.QuoteMeta(tc.query)).
				WithArgs(tc.args...).
				WillReturnResult(sqlmock.NewResult(0, tc.rows))

			ok, err := repo.CompareAndSwap(context.Background(), "k", tc.old, []byte("2"))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if ok != tc.swapped {
				t.Errorf("swapped = %v; want %v", ok, tc.swapped)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("unfulfilled expectations: %v", err)
			}
		})
	}
}

func TestRebind(t *testing.T) {
	pg := &KVRepository{dialect: db.Postgres}
	if got := pg.rebind(`a = ? AND b = ?`); got != `a = $1 AND b = $2` {
		t.Errorf("postgres rebind = %q", got)
	}
	lite := &KVRepository{dialect: db.SQLite}
	if got := lite.rebind(`a = ?`); got != `a = ?` {
		t.Errorf("sqlite rebind = %q", got)
	}
}

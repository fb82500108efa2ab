// Package repository provides SQL implementations of the wardrobe key/value
// backend for SQLite and PostgreSQL.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/atinyakov/WardrobeKeeper/internal/client/storage"
	"github.com/atinyakov/WardrobeKeeper/internal/db"
)

const (
	selectValue = `SELECT value FROM kv WHERE key = ?`
	upsertValue = `INSERT INTO kv (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP) ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`
	insertValue = `INSERT INTO kv (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP) ON CONFLICT (key) DO NOTHING`
	swapValue   = `UPDATE kv SET value = ?, updated_at = CURRENT_TIMESTAMP WHERE key = ? AND value = ?`
	deleteValue = `DELETE FROM kv WHERE key = ?`
)

// KVRepository stores wardrobe documents as rows of the kv table. It
// implements storage.Backend and storage.Swapper.
type KVRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB

	dialect string
}

// NewKVRepository wraps an open database of the given dialect (db.SQLite or
// db.Postgres). The schema must already exist; see db.Open.
func NewKVRepository(conn *sql.DB, dialect string) *KVRepository {
	return &KVRepository{DB: conn, dialect: dialect}
}

// Load returns the document stored under key.
//
//	ctx: context for cancellation and deadlines
//	key: document key
//
// Returns storage.ErrNotFound when no row exists.
func (r *KVRepository) Load(ctx context.Context, key string) ([]byte, error) {
	var value string
	err := r.DB.QueryRowContext(ctx, r.rebind(selectValue), key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	return []byte(value), nil
}

// Save inserts or replaces the document stored under key.
func (r *KVRepository) Save(ctx context.Context, key string, value []byte) error {
	if _, err := r.DB.ExecContext(ctx, r.rebind(upsertValue), key, string(value)); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Delete removes the row for key. Missing rows are not an error.
func (r *KVRepository) Delete(ctx context.Context, key string) error {
	if _, err := r.DB.ExecContext(ctx, r.rebind(deleteValue), key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// CompareAndSwap replaces the document under key with new only if it still
// equals old. A nil old inserts only when no row exists.
//
//	ctx: context for cancellation and deadlines
//	key: document key
//	old: expected current document, nil for "absent"
//	new: replacement document
//
// Returns true when the row was written.
func (r *KVRepository) CompareAndSwap(ctx context.Context, key string, old, new []byte) (bool, error) {
	var (
		res sql.Result
		err error
	)
	if old == nil {
		res, err = r.DB.ExecContext(ctx, r.rebind(insertValue), key, string(new))
	} else {
		res, err = r.DB.ExecContext(ctx, r.rebind(swapValue), string(new), key, string(old))
	}
	if err != nil {
		return false, fmt.Errorf("swap %s: %w", key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("swap %s: rows affected: %w", key, err)
	}
	return n == 1, nil
}

// Close closes the underlying database.
func (r *KVRepository) Close() error {
	return r.DB.Close()
}

// rebind rewrites ? placeholders as $1..$n for PostgreSQL.
func (r *KVRepository) rebind(query string) string {
	if r.dialect != db.Postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, c := range query {
		if c != '?' {
			b.WriteRune(c)
			continue
		}
		n++
		b.WriteByte('$')
		b.WriteString(strconv.Itoa(n))
	}
	return b.String()
}

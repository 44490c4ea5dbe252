// Package sqlstore implements storage.Store on MySQL and SQLite with squirrel.
// Queries stick to the SQL subset both engines accept.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	mysqldriver "github.com/go-sql-driver/mysql"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"foodieconnect/storage"
)

var _ storage.Store = (*Store)(nil)

type Store struct {
	db  *sql.DB
	run sq.StdSqlCtx
	tx  *sql.Tx
}

func New(db *sql.DB) *Store {
	return &Store{db: db, run: db}
}

func (s *Store) sb() sq.StatementBuilderType {
	return sq.StatementBuilder.RunWith(s.run)
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) WithTx(ctx context.Context, fn func(storage.Store) error) error {
	return s.inTx(ctx, func(tx *Store) error { return fn(tx) })
}

func (s *Store) inTx(ctx context.Context, fn func(*Store) error) (err error) {
	if s.tx != nil {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(&Store{db: s.db, run: tx, tx: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			slog.Warn("rollback failed", "error", rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// handleSQLError maps driver errors onto the storage sentinels.
func handleSQLError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrNotFound
	}

	var mysqlErr *mysqldriver.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
		return storage.ErrDuplicate
	}

	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code()&0xFF == sqlite3.SQLITE_CONSTRAINT {
		return storage.ErrDuplicate
	}

	return err
}

func wrap(op string, err error) error {
	return fmt.Errorf("failed to %s: %w", op, handleSQLError(err))
}

type scanner interface {
	Scan(dest ...any) error
}

// containsPattern builds a LIKE pattern matching s anywhere, escaped with '!'
// since MySQL and SQLite disagree on backslash literals.
func containsPattern(s string) string {
	s = strings.ReplaceAll(s, "!", "!!")
	s = strings.ReplaceAll(s, "%", "!%")
	s = strings.ReplaceAll(s, "_", "!_")
	return "%" + s + "%"
}

func likeAny(value string, cols ...string) sq.Sqlizer {
	pattern := containsPattern(value)
	or := sq.Or{}
	for _, c := range cols {
		or = append(or, sq.Expr(c+" LIKE ? ESCAPE '!'", pattern))
	}
	return or
}

func encodeJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil || string(b) == "null" {
		return "[]"
	}
	return string(b)
}

func decodeJSON(s string, dst any) error {
	if s == "" {
		return nil
	}
	return json.Unmarshal([]byte(s), dst)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func utc(t time.Time) time.Time {
	return t.UTC()
}

func uniq(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func page(b sq.SelectBuilder, offset, limit int) sq.SelectBuilder {
	if limit > 0 {
		b = b.Limit(uint64(limit))
	}
	if offset > 0 {
		b = b.Offset(uint64(offset))
	}
	return b
}

func (s *Store) count(ctx context.Context, b sq.SelectBuilder) (int, error) {
	var n int
	if err := b.RunWith(s.run).QueryRowContext(ctx).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (s *Store) queryStrings(ctx context.Context, b sq.SelectBuilder) ([]string, error) {
	rows, err := b.RunWith(s.run).QueryContext(ctx)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func rowsAffected(res sql.Result) int64 {
	n, err := res.RowsAffected()
	if err != nil {
		return 0
	}
	return n
}

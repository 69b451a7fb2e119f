// SPDX-License-Identifier: GPL-3.0-or-later

package counters

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/checkmk/checkengine/pkg/valuestore"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
)

const defaultTable = "value_store"

// SQLBackend keeps one row per (host, scope) in a MySQL or PostgreSQL table.
type SQLBackend struct {
	db       *sql.DB
	table    string
	postgres bool
}

// OpenSQLBackend opens cfg.DSN with the driver matching cfg.Type and creates the table if needed.
func OpenSQLBackend(ctx context.Context, cfg Config) (*SQLBackend, error) {
	var driver string
	switch cfg.Type {
	case "mysql":
		driver = "mysql"
	case "postgres":
		driver = "pgx"
	default:
		return nil, fmt.Errorf("%w '%s'", ErrUnknownBackend, cfg.Type)
	}
	if cfg.DSN == "" {
		return nil, fmt.Errorf("%s: 'dsn' not set", cfg.Type)
	}

	db, err := sql.Open(driver, cfg.DSN)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(4)

	b, err := NewSQLBackend(ctx, db, cfg.Type == "postgres", cfg.Table)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return b, nil
}

// NewSQLBackend wraps an open database.
func NewSQLBackend(ctx context.Context, db *sql.DB, postgres bool, table string) (*SQLBackend, error) {
	if table == "" {
		table = defaultTable
	}
	if !isIdent(table) {
		return nil, fmt.Errorf("invalid table name '%s'", table)
	}

	b := &SQLBackend{db: db, table: table, postgres: postgres}

	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	if _, err := db.ExecContext(ctx, b.createQuery()); err != nil {
		return nil, fmt.Errorf("create table %s: %w", table, err)
	}
	return b, nil
}

func (b *SQLBackend) createQuery() string {
	return "CREATE TABLE IF NOT EXISTS " + b.table +
		" (host VARCHAR(255) NOT NULL, scope VARCHAR(512) NOT NULL, data TEXT NOT NULL, PRIMARY KEY (host, scope))"
}

func (b *SQLBackend) Load(ctx context.Context, host string) (*valuestore.HostStore, error) {
	rows, err := b.db.QueryContext(ctx, b.rebind("SELECT scope, data FROM "+b.table+" WHERE host = ?"), host)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	hs := valuestore.NewHostStore()
	for rows.Next() {
		var scope, data string
		if err := rows.Scan(&scope, &data); err != nil {
			return nil, err
		}
		var entries map[string][]float64
		if err := json.Unmarshal([]byte(data), &entries); err != nil {
			return nil, fmt.Errorf("decode %s/%s: %w", host, scope, err)
		}
		hs.SetScopeEntries(scope, entries)
	}
	return hs, rows.Err()
}

// Save replaces all rows of host in one transaction.
func (b *SQLBackend) Save(ctx context.Context, host string, hs *valuestore.HostStore) (err error) {
	values, err := encodeScopes(hs)
	if err != nil {
		return err
	}

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, b.rebind("DELETE FROM "+b.table+" WHERE host = ?"), host); err != nil {
		return err
	}

	insert := b.rebind("INSERT INTO " + b.table + " (host, scope, data) VALUES (?, ?, ?)")
	for _, sv := range values {
		if _, err = tx.ExecContext(ctx, insert, host, sv.scope, sv.data); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (b *SQLBackend) Close() error { return b.db.Close() }

// rebind converts '?' placeholders to '$N' for PostgreSQL.
func (b *SQLBackend) rebind(query string) string {
	if !b.postgres {
		return query
	}
	var sb strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func isIdent(s string) bool {
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return s != ""
}

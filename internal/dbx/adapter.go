// Copyright 2026 the dbfs authors. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package dbx is the DB Adapter: a thin request/response interface over
// parameterised SQL, backed by jmoiron/sqlx and go-sql-driver/mysql. The
// pooled *sql.DB blocks the calling goroutine on network I/O, so callers
// need no extra synchronisation to use it from non-async code.
package dbx

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	_ "github.com/go-sql-driver/mysql"
)

// Error wraps any failure surfaced by the underlying driver or pool.
type Error struct {
	Message string
	Cause   error
}

func (e *Error) Error() string { return fmt.Sprintf("dbx: %s: %v", e.Message, e.Cause) }
func (e *Error) Unwrap() error { return e.Cause }

func wrap(message string, cause error) error {
	if cause == nil {
		return nil
	}
	return &Error{Message: message, Cause: cause}
}

// CommandResult reports the outcome of a write statement.
type CommandResult struct {
	RowsAffected int64
	LastInsertID int64
}

// Adapter is the connection-pool-backed query/command runner.
type Adapter struct {
	db *sqlx.DB
}

// Open prepares a connection pool for dsn without connecting: connections
// are established on first use, not at Open time, so a bad DSN or an
// unreachable server surfaces on the first Query or Command.
func Open(driverName, dsn string) (*Adapter, error) {
	db, err := sqlx.Open(driverName, dsn)
	if err != nil {
		return nil, wrap("open", err)
	}
	return &Adapter{db: db}, nil
}

// Close releases the underlying connection pool.
func (a *Adapter) Close() error {
	return a.db.Close()
}

// Query runs a statement expected to return rows, binding args positionally
// to `?` placeholders, and decodes each row into a freshly allocated T via
// struct tags. Use Command instead when no rows are expected.
func Query[T any](ctx context.Context, a *Adapter, query string, args ...any) ([]T, error) {
	rows, err := a.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, wrap("query", err)
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		var row T
		if err := rows.StructScan(&row); err != nil {
			return nil, wrap("scan", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("rows", err)
	}
	return out, nil
}

// Command runs a statement with no expected row data (INSERT/UPDATE/DELETE).
func (a *Adapter) Command(ctx context.Context, command string, args ...any) (CommandResult, error) {
	res, err := a.db.ExecContext(ctx, command, args...)
	if err != nil {
		return CommandResult{}, wrap("command", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return CommandResult{}, wrap("rows_affected", err)
	}
	lastID, _ := res.LastInsertId() // not every statement has one; ignore the error
	return CommandResult{RowsAffected: affected, LastInsertID: lastID}, nil
}

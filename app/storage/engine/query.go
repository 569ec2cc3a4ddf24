package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

// DBCmd represents a database command type
type DBCmd int

// Query represents a SQL query with dialect-specific variants
type Query struct {
	Sqlite   string
	Postgres string
}

// QueryMap maps commands to their dialect-specific queries
type QueryMap struct {
	queries map[DBCmd]Query
}

// NewQueryMap creates a new QueryMap
func NewQueryMap() *QueryMap {
	return &QueryMap{queries: make(map[DBCmd]Query)}
}

// Add adds queries for a command with dialect-specific versions
func (q *QueryMap) Add(cmd DBCmd, query Query) *QueryMap {
	q.queries[cmd] = query
	return q
}

// AddSame adds the same query for all dialects
func (q *QueryMap) AddSame(cmd DBCmd, query string) *QueryMap {
	return q.Add(cmd, Query{Sqlite: query, Postgres: query})
}

// Pick returns a query for given db type and command
func (q *QueryMap) Pick(dbType Type, cmd DBCmd) (string, error) {
	query, ok := q.queries[cmd]
	if !ok {
		return "", fmt.Errorf("unsupported command type %d", cmd)
	}

	switch dbType {
	case Sqlite:
		return query.Sqlite, nil
	case Postgres:
		return query.Postgres, nil
	default:
		return "", fmt.Errorf("unsupported database type %q", dbType)
	}
}

// TableConfig describes how to create and migrate a table
type TableConfig struct {
	Name          string
	CreateTable   DBCmd
	CreateIndexes DBCmd
	MigrateFunc   func(ctx context.Context, tx *sqlx.Tx, gid string) error
	QueriesMap    *QueryMap
}

// InitTable creates the table with indexes if missing, or migrates the existing one.
// Everything runs in a single transaction.
func InitTable(ctx context.Context, db *SQL, cfg TableConfig) error {
	if db == nil {
		return fmt.Errorf("db connection is nil")
	}

	createTable, err := cfg.QueriesMap.Pick(db.Type(), cfg.CreateTable)
	if err != nil {
		return fmt.Errorf("failed to get create table query: %w", err)
	}
	createIndexes, err := cfg.QueriesMap.Pick(db.Type(), cfg.CreateIndexes)
	if err != nil {
		return fmt.Errorf("failed to get create indexes query: %w", err)
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	var exists int
	existsQuery := "SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?"
	if db.Type() == Postgres {
		existsQuery = "SELECT COUNT(*) FROM information_schema.tables WHERE table_name=?"
	}
	if err = tx.GetContext(ctx, &exists, db.Adopt(existsQuery), cfg.Name); err != nil {
		return fmt.Errorf("failed to check for %s table existence: %w", cfg.Name, err)
	}

	if exists == 0 {
		if _, err = tx.ExecContext(ctx, createTable); err != nil {
			return fmt.Errorf("failed to create %s table: %w", cfg.Name, err)
		}
	}

	if exists > 0 && cfg.MigrateFunc != nil {
		if err = cfg.MigrateFunc(ctx, tx, db.GID()); err != nil {
			return fmt.Errorf("failed to migrate %s: %w", cfg.Name, err)
		}
	}

	for _, idx := range strings.Split(createIndexes, ";") {
		if strings.TrimSpace(idx) == "" {
			continue
		}
		if _, err = tx.ExecContext(ctx, idx); err != nil {
			return fmt.Errorf("failed to create %s indexes: %w", cfg.Name, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

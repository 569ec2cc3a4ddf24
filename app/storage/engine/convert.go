package engine

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

// Converter makes a PostgreSQL script out of sqlite tables, to move samples from a local
// sqlite file to a postgres server
type Converter struct {
	db *SQL
}

// NewConverter creates a new converter for the given SQL engine
func NewConverter(db *SQL) *Converter {
	return &Converter{db: db}
}

// SqliteToPostgres writes schema, data and indexes of the tables as a PostgreSQL script.
// Missing tables are skipped. All rows are exported, for all gids.
func (c *Converter) SqliteToPostgres(ctx context.Context, w io.Writer, tables ...string) error {
	if c.db.dbType != Sqlite {
		return fmt.Errorf("source database must be sqlite, got %q", c.db.dbType)
	}

	// single transaction for a consistent snapshot
	tx, err := c.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	header := fmt.Sprintf("-- sqlite to postgres export\n-- generated: %s\n\nBEGIN;\n\n", time.Now().Format(time.RFC3339))
	if _, err = io.WriteString(w, header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, table := range tables {
		var exists bool
		if err := tx.GetContext(ctx, &exists, "SELECT COUNT(*) > 0 FROM sqlite_master WHERE type='table' AND name=?", table); err != nil {
			return fmt.Errorf("failed to check table %s: %w", table, err)
		}
		if !exists {
			continue
		}
		if err := c.convertTable(ctx, tx, w, table); err != nil {
			return fmt.Errorf("failed to convert table %s: %w", table, err)
		}
	}

	if _, err = io.WriteString(w, "COMMIT;\n"); err != nil {
		return fmt.Errorf("failed to write commit: %w", err)
	}
	return nil
}

func (c *Converter) convertTable(ctx context.Context, tx *sqlx.Tx, w io.Writer, table string) error {
	var createStmt string
	if err := tx.GetContext(ctx, &createStmt, "SELECT sql FROM sqlite_master WHERE type='table' AND name=?", table); err != nil {
		return fmt.Errorf("failed to get schema: %w", err)
	}
	if _, err := fmt.Fprintf(w, "%s;\n\n", convertTableSchema(createStmt)); err != nil {
		return fmt.Errorf("failed to write schema: %w", err)
	}

	var columns []string
	if err := tx.SelectContext(ctx, &columns, "SELECT name FROM PRAGMA_TABLE_INFO(?)", table); err != nil {
		return fmt.Errorf("failed to get columns: %w", err)
	}
	if err := c.exportTableData(ctx, tx, w, table, columns); err != nil {
		return err
	}

	var indexes []string
	if err := tx.SelectContext(ctx, &indexes,
		"SELECT sql FROM sqlite_master WHERE type='index' AND tbl_name=? AND sql IS NOT NULL", table); err != nil {
		return fmt.Errorf("failed to get indexes: %w", err)
	}
	for _, idx := range indexes {
		if _, err := fmt.Fprintf(w, "%s;\n", idx); err != nil {
			return fmt.Errorf("failed to write index: %w", err)
		}
	}

	// serial sequence continues after exported ids
	if containsString(columns, "id") {
		if _, err := fmt.Fprintf(w, "SELECT setval(pg_get_serial_sequence('%s', 'id'), COALESCE(MAX(id), 1)) FROM %s;\n", table, table); err != nil {
			return fmt.Errorf("failed to write sequence reset: %w", err)
		}
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// convertTableSchema converts a sqlite CREATE TABLE statement to postgres syntax
func convertTableSchema(sqliteStmt string) string {
	res := strings.ReplaceAll(sqliteStmt, "INTEGER PRIMARY KEY AUTOINCREMENT", "SERIAL PRIMARY KEY")
	res = strings.ReplaceAll(res, "DATETIME", "TIMESTAMP")
	res = strings.ReplaceAll(res, "BLOB", "BYTEA")
	res = strings.ReplaceAll(res, "BOOLEAN DEFAULT 0", "BOOLEAN DEFAULT false")
	res = strings.ReplaceAll(res, "BOOLEAN DEFAULT 1", "BOOLEAN DEFAULT true")
	if !strings.Contains(res, "IF NOT EXISTS") {
		res = strings.Replace(res, "CREATE TABLE", "CREATE TABLE IF NOT EXISTS", 1)
	}
	return res
}

// exportTableData writes table rows as a COPY statement
func (c *Converter) exportTableData(ctx context.Context, tx *sqlx.Tx, w io.Writer, table string, columns []string) error {
	rows, err := tx.QueryxContext(ctx, fmt.Sprintf("SELECT %s FROM %s ORDER BY rowid", strings.Join(columns, ", "), table)) //nolint:gosec // table and columns come from sqlite_master
	if err != nil {
		return fmt.Errorf("failed to query data: %w", err)
	}
	defer rows.Close()

	started := false
	for rows.Next() {
		if !started {
			if _, err := fmt.Fprintf(w, "COPY %s (%s) FROM stdin;\n", table, strings.Join(columns, ", ")); err != nil {
				return fmt.Errorf("failed to write COPY header: %w", err)
			}
			started = true
		}
		vals, err := rows.SliceScan()
		if err != nil {
			return fmt.Errorf("failed to scan row: %w", err)
		}
		formatted := make([]string, len(vals))
		for i, v := range vals {
			formatted[i] = formatPostgresValue(v)
		}
		if _, err := fmt.Fprintf(w, "%s\n", strings.Join(formatted, "\t")); err != nil {
			return fmt.Errorf("failed to write data row: %w", err)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating rows: %w", err)
	}
	if started {
		if _, err := io.WriteString(w, "\\.\n\n"); err != nil {
			return fmt.Errorf("failed to write COPY end: %w", err)
		}
	}
	return nil
}

// formatPostgresValue formats a value for postgres COPY text format
func formatPostgresValue(value any) string {
	escape := strings.NewReplacer("\\", "\\\\", "\t", "\\t", "\n", "\\n", "\r", "\\r")
	switch v := value.(type) {
	case nil:
		return "\\N"
	case []byte:
		return escape.Replace(string(v))
	case string:
		return escape.Replace(v)
	case time.Time:
		return v.Format("2006-01-02 15:04:05.999999-07:00")
	case bool:
		if v {
			return "t"
		}
		return "f"
	default:
		return fmt.Sprintf("%v", v)
	}
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// Package engine wraps sqlx.DB for the sample storage. It knows about supported database
// engines (sqlite and postgres), adopts queries to the engine dialect and tells callers
// if process-local locking is needed.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-pkgz/repeater"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"   // postgres driver loaded here
	_ "modernc.org/sqlite" // sqlite driver loaded here
)

// Type is a type of database engine
type Type string

// enum of supported database engines
const (
	Unknown  Type = ""
	Sqlite   Type = "sqlite"
	Postgres Type = "postgres"
)

// SQL is a wrapper for sqlx.DB with type and group id.
// Group id is a dataset name, it allows keeping samples of many datasets in the same database.
type SQL struct {
	sqlx.DB
	gid    string
	dbType Type
}

// New creates a new database engine for the connection url. Sqlite is picked for file:, sqlite:
// prefixes, .db/.sqlite suffixes and :memory:, postgres for postgres:// and postgresql:// urls.
func New(ctx context.Context, connURL, gid string) (*SQL, error) {
	if connURL == "" {
		return nil, errors.New("connection URL is empty")
	}

	switch {
	case connURL == ":memory:":
		return NewSqlite(connURL, gid)
	case strings.HasPrefix(connURL, "postgres://"), strings.HasPrefix(connURL, "postgresql://"):
		return NewPostgres(ctx, connURL, gid)
	case strings.HasPrefix(connURL, "sqlite://"):
		return NewSqlite(strings.TrimPrefix(connURL, "sqlite://"), gid)
	case strings.HasPrefix(connURL, "file://"):
		return NewSqlite(strings.TrimPrefix(connURL, "file://"), gid)
	case strings.HasPrefix(connURL, "file:"):
		return NewSqlite(strings.TrimPrefix(connURL, "file:"), gid)
	case strings.HasSuffix(connURL, ".db"), strings.HasSuffix(connURL, ".sqlite"):
		return NewSqlite(connURL, gid)
	}
	return nil, fmt.Errorf("unsupported database type in connection URL %q", connURL)
}

// NewSqlite creates a new sqlite database. A single connection is used, sqlite
// serializes writers anyway and :memory: database exists per connection.
func NewSqlite(file, gid string) (*SQL, error) {
	db, err := sqlx.Connect("sqlite", file)
	if err != nil {
		return &SQL{}, err
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		return &SQL{}, fmt.Errorf("failed to set sqlite pragma: %w", err)
	}
	return &SQL{DB: *db, gid: gid, dbType: Sqlite}, nil
}

// NewPostgres creates a new postgres database. Connection is retried a few times,
// the database may still be starting up when the service starts.
func NewPostgres(ctx context.Context, connURL, gid string) (*SQL, error) {
	var db *sqlx.DB
	err := repeater.NewDefault(3, 500*time.Millisecond).Do(ctx, func() error {
		var e error
		db, e = sqlx.ConnectContext(ctx, "postgres", connURL)
		if e != nil {
			log.Printf("[DEBUG] postgres connection attempt failed, %v", e)
		}
		return e
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return &SQL{DB: *db, gid: gid, dbType: Postgres}, nil
}

// GID returns the group id
func (e *SQL) GID() string {
	return e.gid
}

// Type returns the database engine type
func (e *SQL) Type() Type {
	return e.dbType
}

// Adopt rewrites ? placeholders to $1, $2... for postgres, returns query as-is for other engines
func (e *SQL) Adopt(q string) string {
	if e.dbType != Postgres {
		return q
	}

	var sb strings.Builder
	sb.Grow(len(q) + 8)
	n, inQuote := 0, false
	for _, ch := range q {
		if ch == '\'' {
			inQuote = !inQuote
		}
		if ch != '?' || inQuote {
			sb.WriteRune(ch)
			continue
		}
		n++
		sb.WriteByte('$')
		sb.WriteString(strconv.Itoa(n))
	}
	return sb.String()
}

// MakeLock creates a new lock for the database engine
func (e *SQL) MakeLock() RWLocker {
	if e.dbType == Sqlite {
		return new(sync.RWMutex) // sqlite needs locking
	}
	return &NoopLocker{} // other engines don't need locking
}

// RWLocker is a read-write locker interface
type RWLocker interface {
	sync.Locker
	RLock()
	RUnlock()
}

// NoopLocker is a no-op locker
type NoopLocker struct{}

// Lock is a no-op
func (NoopLocker) Lock() {}

// Unlock is a no-op
func (NoopLocker) Unlock() {}

// RLock is a no-op
func (NoopLocker) RLock() {}

// RUnlock is a no-op
func (NoopLocker) RUnlock() {}

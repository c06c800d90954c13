package ratelimit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Dialect selects the database/sql driver backing an SQLStore
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// ErrUnknownDialect is returned for a dialect other than postgres or sqlite
var ErrUnknownDialect = errors.New("unknown rate limit store dialect")

const createTableSQL = `CREATE TABLE IF NOT EXISTS rate_limits (
	client_key TEXT PRIMARY KEY,
	hits INTEGER NOT NULL,
	reset_at BIGINT NOT NULL
)`

const createIndexSQL = `CREATE INDEX IF NOT EXISTS rate_limits_reset_at_idx ON rate_limits (reset_at)`

// hitSQL opens a new window when none exists or the old one has expired,
// otherwise increments. Hits saturate at limit+1 so a denied attempt is
// distinguishable from the last allowed one without a second query.
//
// $1 key, $2 new reset_at, $3 now, $4 limit. Times are unix milliseconds.
const hitSQL = `INSERT INTO rate_limits (client_key, hits, reset_at) VALUES ($1, 1, $2)
ON CONFLICT (client_key) DO UPDATE SET
	hits = CASE
		WHEN rate_limits.reset_at <= $3 THEN 1
		WHEN rate_limits.hits > $4 THEN rate_limits.hits
		ELSE rate_limits.hits + 1
	END,
	reset_at = CASE
		WHEN rate_limits.reset_at <= $3 THEN $2
		ELSE rate_limits.reset_at
	END
RETURNING hits, reset_at`

const sweepSQL = `DELETE FROM rate_limits WHERE reset_at <= $1`

// SQLStore shares counters between instances through a database. Each hit is
// a single upsert statement, which the database serializes per row.
type SQLStore struct {
	db     *sql.DB
	policy Policy
	now    func() time.Time
}

// OpenSQL opens a database handle for the given dialect
func OpenSQL(dialect Dialect, dsn string) (*sql.DB, error) {
	var driver string
	switch dialect {
	case DialectPostgres:
		driver = "postgres"
	case DialectSQLite:
		driver = "sqlite"
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDialect, dialect)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open rate limit database: %w", err)
	}

	if dialect == DialectSQLite {
		// SQLite has a single writer; a shared connection also keeps
		// :memory: databases alive across calls.
		db.SetMaxOpenConns(1)
	}

	return db, nil
}

// NewSQLStore wraps an open database. Call Migrate before the first Hit.
func NewSQLStore(db *sql.DB, policy Policy, opts ...SQLOption) *SQLStore {
	s := &SQLStore{
		db:     db,
		policy: policy.withDefaults(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SQLOption configures an SQLStore
type SQLOption func(*SQLStore)

// WithSQLClock replaces time.Now, mostly for tests
func WithSQLClock(now func() time.Time) SQLOption {
	return func(s *SQLStore) {
		s.now = now
	}
}

// Migrate creates the rate_limits table if needed
func (s *SQLStore) Migrate(ctx context.Context) error {
	for _, stmt := range []string{createTableSQL, createIndexSQL} {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to migrate rate limit store: %w", err)
		}
	}
	return nil
}

// Hit counts one attempt for key
func (s *SQLStore) Hit(ctx context.Context, key string) (Decision, error) {
	now := s.now()
	newReset := now.Add(s.policy.Window)

	var hits int
	var resetAtMillis int64
	err := s.db.QueryRowContext(ctx, hitSQL,
		key,
		newReset.UnixMilli(),
		now.UnixMilli(),
		s.policy.Limit,
	).Scan(&hits, &resetAtMillis)
	if err != nil {
		return Decision{}, fmt.Errorf("failed to record rate limit hit: %w", err)
	}

	decision := Decision{
		Allowed: hits <= s.policy.Limit,
		Count:   hits,
		ResetAt: time.UnixMilli(resetAtMillis),
	}
	if !decision.Allowed {
		decision.Count = s.policy.Limit
	}
	return decision, nil
}

// SweepExpired deletes rows whose window has ended
func (s *SQLStore) SweepExpired(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx, sweepSQL, s.now().UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to sweep rate limit store: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count swept rows: %w", err)
	}
	return int(n), nil
}

// Ping checks the database connection
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying database
func (s *SQLStore) Close() error {
	return s.db.Close()
}

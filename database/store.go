package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"streamvault/cache"
	"streamvault/metrics"
)

// Querier is satisfied by *sql.DB, *sql.Conn and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Row is a result row keyed by column name.
type Row map[string]any

// Store executes parameterized SQL against the pool, or against the
// request's connection when one has been attached to the context.
type Store struct {
	db           *sql.DB
	policy       RetryPolicy
	cache        *cache.Cache
	cacheEnabled bool
	cacheTTL     time.Duration
}

type StoreOption func(*Store)

// WithCache attaches the read-through cache used by CachedQuery.
func WithCache(c *cache.Cache, enabled bool, ttl time.Duration) StoreOption {
	return func(s *Store) {
		s.cache = c
		s.cacheEnabled = enabled && c != nil
		if ttl > 0 {
			s.cacheTTL = ttl
		}
	}
}

func WithRetryPolicy(p RetryPolicy) StoreOption {
	return func(s *Store) {
		s.policy = p
	}
}

func NewStore(db *sql.DB, opts ...StoreOption) *Store {
	s := &Store{
		db:       db,
		policy:   DefaultRetryPolicy(),
		cacheTTL: 5 * time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}

	onRetry := s.policy.OnRetry
	s.policy.OnRetry = func(attempt int, delay time.Duration, err error) {
		metrics.TxRetries.Inc()
		if onRetry != nil {
			onRetry(attempt, delay, err)
		}
	}
	return s
}

func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Querier returns the request's connection if one is in scope, otherwise
// the pool.
func (s *Store) Querier(ctx context.Context) (Querier, error) {
	if rc := requestConnFrom(ctx, s.db); rc != nil {
		return rc.get(ctx)
	}
	return s.db, nil
}

func (s *Store) beginTx(ctx context.Context) (*sql.Tx, error) {
	if rc := requestConnFrom(ctx, s.db); rc != nil {
		conn, err := rc.get(ctx)
		if err != nil {
			return nil, err
		}
		return conn.BeginTx(ctx, nil)
	}
	return s.db.BeginTx(ctx, nil)
}

// Query runs a SELECT and returns every row as a map.
func (s *Store) Query(ctx context.Context, query string, args ...any) ([]Row, error) {
	q, err := s.Querier(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := QueryRows(ctx, q, query, args...)
	if err != nil {
		slog.Error("Query failed", "query", query, "args", len(args), "error", err)
		return nil, err
	}
	return rows, nil
}

// QueryOne returns the first row, or ErrNotFound.
func (s *Store) QueryOne(ctx context.Context, query string, args ...any) (Row, error) {
	rows, err := s.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return rows[0], nil
}

// Exec runs a single write statement in autocommit mode, retrying lock
// conflicts, and returns the number of rows affected.
func (s *Store) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	n, err := Retry(ctx, s.policy, func(ctx context.Context) (int64, error) {
		q, err := s.Querier(ctx)
		if err != nil {
			return 0, err
		}
		res, err := q.ExecContext(ctx, query, args...)
		if err != nil {
			return 0, err
		}
		return res.RowsAffected()
	})
	if err != nil {
		slog.Error("Exec failed", "query", query, "args", len(args), "error", err)
		s.recordContention(err)
		return 0, err
	}
	return n, nil
}

// ExecMany runs query once per argument set inside a single transaction.
func (s *Store) ExecMany(ctx context.Context, query string, argSets [][]any) (int64, error) {
	return InTx(ctx, s, func(tx *sql.Tx) (int64, error) {
		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return 0, fmt.Errorf("prepare: %w", err)
		}
		defer stmt.Close()

		var total int64
		for _, args := range argSets {
			res, err := stmt.ExecContext(ctx, args...)
			if err != nil {
				return 0, err
			}
			n, err := res.RowsAffected()
			if err != nil {
				return 0, err
			}
			total += n
		}
		return total, nil
	})
}

// CachedQuery serves the result of query from the cache when a result
// younger than ttl is stored under key. A ttl of zero uses the store's
// default. Caching is skipped when disabled or when key is empty.
func (s *Store) CachedQuery(ctx context.Context, key string, ttl time.Duration, query string, args ...any) ([]Row, error) {
	if !s.cacheEnabled || key == "" {
		return s.Query(ctx, query, args...)
	}
	if ttl <= 0 {
		ttl = s.cacheTTL
	}

	v, hit, err := s.cache.GetOrLoad(key, ttl, func() (any, error) {
		return s.Query(ctx, query, args...)
	})
	if err != nil {
		return nil, err
	}
	if hit {
		metrics.CacheHits.Inc()
		slog.Debug("Cache hit", "key", key)
	} else {
		metrics.CacheMisses.Inc()
		slog.Debug("Cache miss", "key", key)
	}
	return v.([]Row), nil
}

// Invalidate drops key from the cache, or every entry when key is empty.
func (s *Store) Invalidate(key string) {
	if s.cache == nil {
		return
	}
	s.cache.Invalidate(key)
	scope := "key"
	if key == "" {
		scope = "all"
	}
	metrics.CacheInvalidations.WithLabelValues(scope).Inc()
	slog.Debug("Cache invalidated", "key", key)
}

// CacheStats reports the cache contents; ok is false when caching is off.
func (s *Store) CacheStats() (stats cache.Stats, ok bool) {
	if !s.cacheEnabled {
		return cache.Stats{Keys: []string{}}, false
	}
	return s.cache.Stats(), true
}

// PurgeCache drops entries older than the default TTL.
func (s *Store) PurgeCache() int {
	if s.cache == nil {
		return 0
	}
	return s.cache.Purge(s.cacheTTL)
}

func (s *Store) recordContention(err error) {
	if errors.Is(err, ErrContention) {
		metrics.TxContentionFailures.Inc()
	}
}

// QueryRows runs query on q and maps each row by column name. Byte slices
// are returned as strings.
func QueryRows(ctx context.Context, q Querier, query string, args ...any) ([]Row, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	out := []Row{}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		row := make(Row, len(cols))
		for i, col := range cols {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
				continue
			}
			row[col] = values[i]
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
)

type requestConnKey struct{}

// requestConn holds at most one pooled connection for the lifetime of a
// request. The connection is taken from the pool on first use.
type requestConn struct {
	db   *sql.DB
	mu   sync.Mutex
	conn *sql.Conn
}

func (rc *requestConn) get(ctx context.Context) (*sql.Conn, error) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	if rc.conn != nil {
		return rc.conn, nil
	}
	conn, err := rc.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	rc.conn = conn
	return conn, nil
}

func (rc *requestConn) release() {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	if rc.conn == nil {
		return
	}
	if err := rc.conn.Close(); err != nil {
		slog.Warn("Failed to release request connection", "error", err)
	}
	rc.conn = nil
}

// acquired reports whether the request has taken a connection.
func (rc *requestConn) acquired() bool {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.conn != nil
}

func requestConnFrom(ctx context.Context, db *sql.DB) *requestConn {
	rc, ok := ctx.Value(requestConnKey{}).(*requestConn)
	if !ok || rc.db != db {
		return nil
	}
	return rc
}

// WithRequestConn scopes a lazily acquired connection to ctx. The returned
// release func must be called when the scope ends.
func (s *Store) WithRequestConn(ctx context.Context) (context.Context, func()) {
	rc := &requestConn{db: s.db}
	return context.WithValue(ctx, requestConnKey{}, rc), rc.release
}

// RequestScope gives every request its own connection, acquired on first
// use and returned to the pool when the handler finishes.
func (s *Store) RequestScope(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, release := s.WithRequestConn(r.Context())
		defer release()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

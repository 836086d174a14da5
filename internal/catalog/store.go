// internal/catalog/store.go
package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"phone-finder-workers/internal/common/logger"
	"phone-finder-workers/internal/models"

	"github.com/jmoiron/sqlx"
)

var (
	ErrQueryExecution = errors.New("QUERY_EXECUTION_FAILED")
	ErrQueryTimeout   = errors.New("QUERY_TIMEOUT")
)

// QueryError wraps a failed catalog read. errors.Is matches ErrQueryExecution
// for every QueryError and ErrQueryTimeout when the context deadline expired.
type QueryError struct {
	Where   string
	Timeout bool
	Err     error
}

func (e *QueryError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("catalog query timed out (%s): %v", e.Where, e.Err)
	}
	return fmt.Sprintf("catalog query failed (%s): %v", e.Where, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

func (e *QueryError) Is(target error) bool {
	return target == ErrQueryExecution || (e.Timeout && target == ErrQueryTimeout)
}

const selectPhones = `SELECT id,
	COALESCE(name, '') AS name,
	COALESCE(url, '') AS url,
	COALESCE(price_cop, 0) AS price_cop,
	COALESCE(storage_gb, 0) AS storage_gb,
	COALESCE(ram_gb, 0) AS ram_gb,
	COALESCE(camera_mp, 0) AS camera_mp,
	COALESCE(brand, '') AS brand
FROM phones`

// Store reads phones through a shared sqlx pool. It is safe for concurrent use.
type Store struct {
	db     *sqlx.DB
	logger logger.Logger
}

func NewStore(db *sqlx.DB, log logger.Logger) *Store {
	return &Store{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "catalog-store"}),
	}
}

// Find returns at most limit phones matching q in insertion order.
func (s *Store) Find(ctx context.Context, q Query, limit int) ([]models.Phone, error) {
	if limit <= 0 {
		return []models.Phone{}, nil
	}

	where := q.Where()
	stmt := s.db.Rebind(selectPhones + " WHERE " + where + " ORDER BY id LIMIT ?")
	args := append(append([]interface{}{}, q.Args...), limit)

	start := time.Now()
	phones := []models.Phone{}
	if err := s.db.SelectContext(ctx, &phones, stmt, args...); err != nil {
		qerr := &QueryError{Where: where, Err: err}
		if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
			qerr.Timeout = true
		}
		s.logger.Error("catalog query failed", map[string]interface{}{
			"where":   where,
			"timeout": qerr.Timeout,
			"error":   err,
		})
		return nil, qerr
	}

	s.logger.Debug("catalog query executed", map[string]interface{}{
		"where":      where,
		"limit":      limit,
		"rows":       len(phones),
		"durationMs": time.Since(start).Milliseconds(),
	})

	return phones, nil
}

// Count returns how many phones the catalog holds.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM phones"); err != nil {
		return 0, &QueryError{Where: clauseTrue, Err: err}
	}
	return n, nil
}

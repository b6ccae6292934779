// Package store persists validated budgets.
package store

import (
	"context"
	"errors"
	"sync"

	"github.com/orcafacil/orcafacil/internal/model"
)

// ErrNoPool is returned by a Postgres store built without a connection pool.
var ErrNoPool = errors.New("store: no connection pool")

// Inserter writes records in bulk. Implementations need not be transactional
// per row; the count is the number of rows written.
type Inserter interface {
	InsertMany(ctx context.Context, records []model.BudgetRecord) (int, error)
}

// Memory keeps records in process. It backs dry runs and tests.
type Memory struct {
	mu      sync.Mutex
	records []model.BudgetRecord
}

// InsertMany appends records.
func (m *Memory) InsertMany(ctx context.Context, records []model.BudgetRecord) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, records...)
	return len(records), nil
}

// Records returns a copy of everything inserted so far.
func (m *Memory) Records() []model.BudgetRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.BudgetRecord(nil), m.records...)
}

package storage

import (
	"context"
	"sync"

	"whatflower/internal/domain/entity"
	"whatflower/internal/domain/port"
)

// MemoryLookupRepository in-memory история распознаваний
type MemoryLookupRepository struct {
	mu      sync.RWMutex
	lookups map[int64][]entity.Lookup
}

// MaxListLimit верхняя граница выборки истории, она же значение для limit <= 0.
const MaxListLimit = 100

func listLimit(limit int) int {
	if limit <= 0 || limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}

func NewMemoryLookupRepository() *MemoryLookupRepository {
	return &MemoryLookupRepository{
		lookups: make(map[int64][]entity.Lookup),
	}
}

func (r *MemoryLookupRepository) Save(ctx context.Context, lookup *entity.Lookup) error {
	r.mu.Lock()
	r.lookups[lookup.UserID] = append(r.lookups[lookup.UserID], *lookup)
	r.mu.Unlock()
	return nil
}

// ListByUser возвращает не более limit записей, новые первыми.
func (r *MemoryLookupRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]entity.Lookup, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := r.lookups[userID]
	n := min(len(all), listLimit(limit))

	out := make([]entity.Lookup, 0, n)
	for i := len(all) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, all[i])
	}
	return out, nil
}

var _ port.LookupRepository = (*MemoryLookupRepository)(nil)

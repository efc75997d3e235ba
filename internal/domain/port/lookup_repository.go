package port

import (
	"context"

	"whatflower/internal/domain/entity"
)

// LookupRepository интерфейс хранилища истории распознаваний
type LookupRepository interface {
	// Save сохраняет запись истории
	Save(ctx context.Context, lookup *entity.Lookup) error

	// ListByUser возвращает последние записи пользователя, новые первыми
	ListByUser(ctx context.Context, userID int64, limit int) ([]entity.Lookup, error)
}

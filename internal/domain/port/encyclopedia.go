package port

import (
	"context"

	"whatflower/internal/domain/entity"
)

// Encyclopedia интерфейс источника описаний видов
type Encyclopedia interface {
	// Summary возвращает краткое описание и миниатюру статьи по названию
	Summary(ctx context.Context, title string) (*entity.FlowerInfo, error)
}

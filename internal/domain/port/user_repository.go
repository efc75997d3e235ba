package port

import (
	"context"

	"whatflower/internal/domain/entity"
)

// UserRepository интерфейс хранилища пользователей.
// Все изменения состояния атомарны относительно TryBegin.
type UserRepository interface {
	// Get возвращает пользователя по ID, создаёт нового если не найден
	Get(ctx context.Context, userID, chatID int64) (*entity.User, error)

	// SetStateUnlessBusy меняет состояние, если пользователь не в обработке.
	// Возвращает актуального пользователя и флаг, было ли изменение применено
	SetStateUnlessBusy(ctx context.Context, userID, chatID int64, state entity.UserState) (*entity.User, bool, error)

	// TryBegin переводит пользователя в обработку, если он ещё не в ней
	TryBegin(ctx context.Context, userID, chatID int64) (bool, error)

	// Finish выводит пользователя из обработки в главное меню
	Finish(ctx context.Context, userID int64) error
}

package storage

import (
	"context"
	"sync"

	"whatflower/internal/domain/entity"
	"whatflower/internal/domain/port"
)

// MemoryUserRepository in-memory хранилище пользователей
type MemoryUserRepository struct {
	mu    sync.Mutex
	users map[int64]*entity.User
}

// NewMemoryUserRepository создаёт новое in-memory хранилище
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		users: make(map[int64]*entity.User),
	}
}

// Get возвращает копию пользователя по ID, создаёт нового если не найден
func (r *MemoryUserRepository) Get(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *r.getLocked(userID, chatID)
	return &cp, nil
}

// SetStateUnlessBusy меняет состояние под общим мьютексом, не трогая пользователя в обработке
func (r *MemoryUserRepository) SetStateUnlessBusy(ctx context.Context, userID, chatID int64, state entity.UserState) (*entity.User, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user := r.getLocked(userID, chatID)
	applied := !user.IsBusy()
	if applied {
		user.SetState(state)
	}

	cp := *user
	return &cp, applied, nil
}

// TryBegin атомарно переводит пользователя в StateProcessing.
// Возвращает false, если пользователь уже в обработке.
func (r *MemoryUserRepository) TryBegin(ctx context.Context, userID, chatID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user := r.getLocked(userID, chatID)
	if user.IsBusy() {
		return false, nil
	}
	user.SetState(entity.StateProcessing)
	return true, nil
}

// Finish возвращает пользователя в главное меню после обработки
func (r *MemoryUserRepository) Finish(ctx context.Context, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if user, exists := r.users[userID]; exists {
		user.SetState(entity.StateMainMenu)
	}

	return nil
}

func (r *MemoryUserRepository) getLocked(userID, chatID int64) *entity.User {
	user, exists := r.users[userID]
	if !exists {
		user = entity.NewUser(userID, chatID)
		r.users[userID] = user
	}
	return user
}

// Проверка реализации интерфейса
var _ port.UserRepository = (*MemoryUserRepository)(nil)

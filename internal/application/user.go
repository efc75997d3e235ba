package app

import (
	"context"

	"whatflower/internal/domain/entity"
	"whatflower/internal/domain/port"
)

type UserService struct {
	repo port.UserRepository
}

func NewUserService(repo port.UserRepository) *UserService {
	return &UserService{repo: repo}
}

func (s *UserService) Get(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.repo.Get(ctx, userID, chatID)
}

// Reset возвращает пользователя в главное меню. Идущую обработку не прерывает:
// из StateProcessing пользователя выводит только завершение распознавания.
func (s *UserService) Reset(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	user, _, err := s.repo.SetStateUnlessBusy(ctx, userID, chatID, entity.StateMainMenu)
	return user, err
}

// tryBegin занимает пользователя на время распознавания.
func (s *UserService) tryBegin(ctx context.Context, userID, chatID int64) (bool, error) {
	return s.repo.TryBegin(ctx, userID, chatID)
}

// finish освобождает пользователя после распознавания.
func (s *UserService) finish(ctx context.Context, userID int64) error {
	return s.repo.Finish(ctx, userID)
}

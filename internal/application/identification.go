package app

import (
	"context"
	"errors"
	"fmt"
	"log"

	"whatflower/internal/domain/entity"
	"whatflower/internal/domain/port"
)

var (
	ErrEmptyPhoto              = errors.New("empty photo")
	ErrBusy                    = errors.New("previous photo is still being processed")
	ErrClassifierNotConfigured = errors.New("classifier is not configured")
	ErrPoorQuality             = errors.New("photo is not suitable for recognition")
)

// IdentificationService распознаёт вид цветка на фото и подтягивает его описание.
type IdentificationService struct {
	users        *UserService
	classifier   port.Classifier
	encyclopedia port.Encyclopedia
	inspector    port.PhotoInspector
	lookups      port.LookupRepository
}

// NewIdentificationService создаёт сервис. inspector и lookups могут быть nil.
func NewIdentificationService(
	users *UserService,
	classifier port.Classifier,
	encyclopedia port.Encyclopedia,
	inspector port.PhotoInspector,
	lookups port.LookupRepository,
) *IdentificationService {
	return &IdentificationService{
		users:        users,
		classifier:   classifier,
		encyclopedia: encyclopedia,
		inspector:    inspector,
		lookups:      lookups,
	}
}

// Identify распознаёт фото пользователя бота. Пока фото обрабатывается, следующие
// фото того же пользователя отклоняются с ErrBusy. Результат попадает в историю.
func (s *IdentificationService) Identify(ctx context.Context, userID, chatID int64, photo []byte) (*entity.Identification, error) {
	if err := s.validate(photo); err != nil {
		return nil, err
	}

	ok, err := s.users.tryBegin(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrBusy
	}
	defer func() {
		// Освобождаем пользователя даже если запрос уже отменён.
		if err := s.users.finish(context.WithoutCancel(ctx), userID); err != nil {
			log.Printf("Error resetting user %d state: %v", userID, err)
		}
	}()

	ident, err := s.identify(ctx, photo)
	if err != nil {
		return nil, err
	}
	log.Printf("User %d: classified as %q (%.3f)", userID, ident.Label, ident.Confidence)

	if s.lookups != nil {
		if err := s.lookups.Save(ctx, entity.NewLookup(userID, chatID, ident)); err != nil {
			log.Printf("User %d: failed to save lookup: %v", userID, err)
		}
	}

	return ident, nil
}

// IdentifyAnonymous распознаёт фото без привязки к пользователю:
// без блокировки повторных запросов и без записи в историю.
func (s *IdentificationService) IdentifyAnonymous(ctx context.Context, photo []byte) (*entity.Identification, error) {
	if err := s.validate(photo); err != nil {
		return nil, err
	}

	ident, err := s.identify(ctx, photo)
	if err != nil {
		return nil, err
	}
	log.Printf("Anonymous: classified as %q (%.3f)", ident.Label, ident.Confidence)
	return ident, nil
}

func (s *IdentificationService) validate(photo []byte) error {
	if len(photo) == 0 {
		return ErrEmptyPhoto
	}
	if s.classifier == nil {
		return ErrClassifierNotConfigured
	}
	return nil
}

// identify проверяет качество, берёт метку с наибольшей оценкой и запрашивает описание.
// Ошибка энциклопедии не прерывает распознавание: результат вернётся с Described=false.
func (s *IdentificationService) identify(ctx context.Context, photo []byte) (*entity.Identification, error) {
	if s.inspector != nil {
		if err := s.inspector.Check(ctx, photo); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrPoorQuality, err)
		}
	}

	result, err := s.classifier.Classify(ctx, photo)
	if err != nil {
		return nil, fmt.Errorf("classify: %w", err)
	}
	top, err := result.Top()
	if err != nil {
		return nil, err
	}

	ident := entity.NewIdentification(top)
	if info, err := s.Describe(ctx, top.Label); err != nil {
		log.Printf("No description for %q: %v", top.Label, err)
	} else {
		ident.Info = *info
		ident.Described = !info.Missing
	}
	return ident, nil
}

// Describe запрашивает описание и миниатюру вида по метке.
func (s *IdentificationService) Describe(ctx context.Context, label string) (*entity.FlowerInfo, error) {
	if s.encyclopedia == nil {
		return nil, errors.New("encyclopedia is not configured")
	}
	return s.encyclopedia.Summary(ctx, label)
}

// History возвращает последние распознавания пользователя.
func (s *IdentificationService) History(ctx context.Context, userID int64, limit int) ([]entity.Lookup, error) {
	if s.lookups == nil {
		return nil, nil
	}
	return s.lookups.ListByUser(ctx, userID, limit)
}

package port

import (
	"context"

	"whatflower/internal/domain/entity"
)

// Classifier интерфейс классификатора видов цветов
type Classifier interface {
	// Classify возвращает метки видов, отсортированные по убыванию оценки
	Classify(ctx context.Context, imageData []byte) (*entity.ClassificationResult, error)
}

// PhotoInspector проверяет пригодность фото для распознавания
type PhotoInspector interface {
	// Check возвращает ошибку, если фото слишком мелкое, размытое или пересвеченное
	Check(ctx context.Context, imageData []byte) error
}

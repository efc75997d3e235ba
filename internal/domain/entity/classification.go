package entity

import (
	"errors"
	"sort"
)

// ErrNoClassification означает, что модель не вернула ни одной метки.
var ErrNoClassification = errors.New("no classification result")

// Classification одна метка вида с оценкой модели.
type Classification struct {
	Label      string  // метка класса, например "pink primrose"
	Confidence float32 // оценка модели для метки
}

// ClassificationResult хранит метки, отсортированные по убыванию оценки.
type ClassificationResult struct {
	Ranked []Classification
}

// NewClassificationResult сортирует метки по убыванию оценки.
// При равных оценках сохраняется исходный порядок классов.
func NewClassificationResult(items []Classification) *ClassificationResult {
	ranked := make([]Classification, len(items))
	copy(ranked, items)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Confidence > ranked[j].Confidence
	})
	return &ClassificationResult{Ranked: ranked}
}

// Top возвращает метку с наибольшей оценкой.
func (r *ClassificationResult) Top() (Classification, error) {
	if r == nil || len(r.Ranked) == 0 {
		return Classification{}, ErrNoClassification
	}
	return r.Ranked[0], nil
}

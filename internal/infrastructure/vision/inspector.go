package vision

import (
	"errors"
	"fmt"
)

// ErrPoorQuality фото не прошло проверку качества.
var ErrPoorQuality = errors.New("photo quality gate failed")

// QualityError описывает причину отказа проверки качества.
type QualityError struct {
	Reason string
	Value  float64
}

func (e *QualityError) Error() string {
	if e.Value != 0 {
		return fmt.Sprintf("%s: %s (ratio=%.4f)", ErrPoorQuality, e.Reason, e.Value)
	}
	return fmt.Sprintf("%s: %s", ErrPoorQuality, e.Reason)
}

func (e *QualityError) Is(target error) bool { return target == ErrPoorQuality }

// Thresholds пороги проверки качества фото.
type Thresholds struct {
	MinImageSide          int
	MinSharpnessEdgeRatio float64
	MaxOverexposedRatio   float64
	MaxUnderexposedRatio  float64
	MaxGlareRatio         float64
}

// DefaultThresholds пороги, подобранные для фото цветов с телефона.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinImageSide:          224,
		MinSharpnessEdgeRatio: 0.008,
		MaxOverexposedRatio:   0.35,
		MaxUnderexposedRatio:  0.45,
		MaxGlareRatio:         0.08,
	}
}

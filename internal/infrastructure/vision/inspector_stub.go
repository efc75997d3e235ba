//go:build !gocv
// +build !gocv

package vision

import (
	"context"
	"errors"

	"whatflower/internal/domain/port"
)

// Available сообщает, что сборка без OpenCV и проверка качества недоступна.
const Available = false

// GoCVInspector заглушка для сборки без тега gocv.
type GoCVInspector struct {
	Thresholds
}

func NewGoCVInspector(t Thresholds) *GoCVInspector {
	return &GoCVInspector{Thresholds: t}
}

// Check возвращает ошибку, если сборка без тега gocv.
func (d *GoCVInspector) Check(context.Context, []byte) error {
	return errors.New("gocv build tag is not enabled")
}

var _ port.PhotoInspector = (*GoCVInspector)(nil)

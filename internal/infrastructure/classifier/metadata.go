package classifier

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// Metadata описывает вход и выход ONNX-модели.
type Metadata struct {
	InputShape   []int64   `json:"input_shape"`
	OutputShape  []int64   `json:"output_shape"`
	Classes      []string  `json:"classes"`
	ImageSize    int       `json:"image_size"`
	InputName    string    `json:"input_name,omitempty"`
	OutputName   string    `json:"output_name,omitempty"`
	Mean         []float32 `json:"mean,omitempty"`
	Std          []float32 `json:"std,omitempty"`
	ApplySoftmax bool      `json:"apply_softmax,omitempty"`
}

// LoadMetadata читает метаданные модели из JSON-файла.
func LoadMetadata(path string) (*Metadata, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata: %w", err)
	}

	var md Metadata
	if err := json.Unmarshal(raw, &md); err != nil {
		return nil, fmt.Errorf("failed to parse metadata: %w", err)
	}
	if md.InputName == "" {
		md.InputName = "input"
	}
	if md.OutputName == "" {
		md.OutputName = "output"
	}
	if err := md.Validate(); err != nil {
		return nil, err
	}
	return &md, nil
}

// Validate проверяет согласованность размеров и классов.
func (m *Metadata) Validate() error {
	if len(m.Classes) == 0 {
		return errors.New("metadata: no classes")
	}
	if m.ImageSize <= 0 {
		return fmt.Errorf("metadata: invalid image_size %d", m.ImageSize)
	}
	if len(m.InputShape) == 0 || len(m.OutputShape) == 0 {
		return errors.New("metadata: input_shape and output_shape are required")
	}
	if want := 3 * m.ImageSize * m.ImageSize; int(shapeSize(m.InputShape)) != want {
		return fmt.Errorf("metadata: input_shape %v does not match 3x%dx%d", m.InputShape, m.ImageSize, m.ImageSize)
	}
	if int(shapeSize(m.OutputShape)) < len(m.Classes) {
		return fmt.Errorf("metadata: output_shape %v is smaller than %d classes", m.OutputShape, len(m.Classes))
	}
	if len(m.Mean) != 0 && len(m.Mean) != 3 {
		return errors.New("metadata: mean must have 3 values")
	}
	if len(m.Std) != 0 && len(m.Std) != 3 {
		return errors.New("metadata: std must have 3 values")
	}
	for _, s := range m.Std {
		if s == 0 {
			return errors.New("metadata: std must not contain zero")
		}
	}
	return nil
}

func shapeSize(shape []int64) int64 {
	n := int64(1)
	for _, d := range shape {
		n *= d
	}
	return n
}

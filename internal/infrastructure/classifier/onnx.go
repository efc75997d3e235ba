package classifier

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"whatflower/internal/domain/entity"
	"whatflower/internal/domain/port"
)

// ErrClosed классификатор уже закрыт.
var ErrClosed = errors.New("classifier is closed")

// OnnxClassifier классифицирует фото цветов ONNX-моделью на устройстве.
type OnnxClassifier struct {
	Metadata Metadata

	mu           sync.Mutex
	closed       bool
	session      *ort.AdvancedSession
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]
}

// NewOnnxClassifier загружает модель и метаданные. libPath может быть пустым,
// тогда используется библиотека onnxruntime по умолчанию.
func NewOnnxClassifier(modelPath, metadataPath, libPath string) (*OnnxClassifier, error) {
	md, err := LoadMetadata(metadataPath)
	if err != nil {
		return nil, err
	}

	if libPath != "" {
		ort.SetSharedLibraryPath(libPath)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return nil, fmt.Errorf("failed to initialize ONNX environment: %w", err)
	}

	inputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(md.InputShape...))
	if err != nil {
		ort.DestroyEnvironment()
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}

	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(md.OutputShape...))
	if err != nil {
		inputTensor.Destroy()
		ort.DestroyEnvironment()
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(modelPath,
		[]string{md.InputName}, []string{md.OutputName},
		[]ort.ArbitraryTensor{inputTensor}, []ort.ArbitraryTensor{outputTensor},
		nil)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		ort.DestroyEnvironment()
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	log.Printf("Classifier loaded: %s (%d classes, %dpx)", modelPath, len(md.Classes), md.ImageSize)

	return &OnnxClassifier{
		Metadata:     *md,
		session:      session,
		inputTensor:  inputTensor,
		outputTensor: outputTensor,
	}, nil
}

// Classify декодирует фото, запускает модель и возвращает ранжированные метки.
func (c *OnnxClassifier) Classify(ctx context.Context, imageData []byte) (*entity.ClassificationResult, error) {
	img, err := DecodeImage(imageData)
	if err != nil {
		return nil, err
	}

	input := Preprocess(img, c.Metadata.ImageSize, c.Metadata.Mean, c.Metadata.Std)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Сессия и тензоры общие, поэтому запуски идут по одному.
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	copy(c.inputTensor.GetData(), input)
	if err := c.session.Run(); err != nil {
		c.mu.Unlock()
		return nil, fmt.Errorf("inference failed: %w", err)
	}
	output := append([]float32(nil), c.outputTensor.GetData()...)
	c.mu.Unlock()

	return Rank(output, c.Metadata.Classes, c.Metadata.ApplySoftmax)
}

// Close освобождает сессию, тензоры и окружение onnxruntime.
// Повторный вызов ничего не делает, Classify после Close возвращает ErrClosed.
func (c *OnnxClassifier) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true

	if c.inputTensor != nil {
		c.inputTensor.Destroy()
	}
	if c.outputTensor != nil {
		c.outputTensor.Destroy()
	}
	if c.session != nil {
		c.session.Destroy()
	}
	ort.DestroyEnvironment()
}

var _ port.Classifier = (*OnnxClassifier)(nil)

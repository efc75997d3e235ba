package classifier

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"math"

	"github.com/nfnt/resize"

	"whatflower/internal/domain/entity"
)

// ErrInvalidImage фото не удалось декодировать.
var ErrInvalidImage = errors.New("invalid image format, supported: JPEG, PNG")

// MaxImagePixels предел размера фото до декодирования, с запасом для камер 48 Мп.
const MaxImagePixels = 64 << 20

// DecodeImage декодирует JPEG или PNG. Размеры из заголовка проверяются
// до выделения памяти под пиксели.
func DecodeImage(data []byte) (image.Image, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxImagePixels {
		return nil, fmt.Errorf("%w: unsupported dimensions %dx%d", ErrInvalidImage, cfg.Width, cfg.Height)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	return img, nil
}

// Preprocess приводит изображение к квадрату size×size и раскладывает каналы
// в плоский тензор CHW со значениями в [0,1], затем нормализует по mean/std.
func Preprocess(img image.Image, size int, mean, std []float32) []float32 {
	resized := resize.Resize(uint(size), uint(size), img, resize.Lanczos3)

	bounds := resized.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	plane := width * height
	data := make([]float32, 3*plane)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, b, _ := resized.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()

			i := y*width + x
			data[i] = float32(r) / 65535.0
			data[plane+i] = float32(g) / 65535.0
			data[2*plane+i] = float32(b) / 65535.0
		}
	}

	if len(mean) == 3 && len(std) == 3 {
		for c := 0; c < 3; c++ {
			ch := data[c*plane : (c+1)*plane]
			for i := range ch {
				ch[i] = (ch[i] - mean[c]) / std[c]
			}
		}
	}

	return data
}

// Softmax переводит логиты в вероятности.
func Softmax(logits []float32) []float32 {
	if len(logits) == 0 {
		return nil
	}
	maxVal := logits[0]
	for _, v := range logits[1:] {
		if v > maxVal {
			maxVal = v
		}
	}

	out := make([]float32, len(logits))
	var sum float64
	for i, v := range logits {
		e := math.Exp(float64(v - maxVal))
		out[i] = float32(e)
		sum += e
	}
	for i := range out {
		out[i] = float32(float64(out[i]) / sum)
	}
	return out
}

// Rank сопоставляет выход модели с классами и сортирует по убыванию оценки.
func Rank(scores []float32, classes []string, softmax bool) (*entity.ClassificationResult, error) {
	if len(classes) == 0 {
		return nil, entity.ErrNoClassification
	}
	if len(scores) < len(classes) {
		return nil, fmt.Errorf("model output has %d values for %d classes", len(scores), len(classes))
	}

	scores = scores[:len(classes)]
	if softmax {
		scores = Softmax(scores)
	}

	items := make([]entity.Classification, len(classes))
	for i, label := range classes {
		items[i] = entity.Classification{Label: label, Confidence: scores[i]}
	}

	return entity.NewClassificationResult(items), nil
}

//go:build gocv
// +build gocv

package vision

import (
	"context"

	"gocv.io/x/gocv"

	"whatflower/internal/domain/port"
)

// Available сообщает, что сборка поддерживает проверку качества.
const Available = true

// GoCVInspector проверяет резкость, экспозицию и блики на фото.
type GoCVInspector struct {
	Thresholds
}

func NewGoCVInspector(t Thresholds) *GoCVInspector {
	return &GoCVInspector{Thresholds: t}
}

// Check возвращает *QualityError, если фото непригодно для распознавания.
func (d *GoCVInspector) Check(ctx context.Context, imageData []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	mat, err := gocv.IMDecode(imageData, gocv.IMReadColor)
	if err != nil || mat.Empty() {
		if err == nil {
			mat.Close()
		}
		return &QualityError{Reason: "failed to decode image"}
	}
	defer mat.Close()

	if mat.Cols() < d.MinImageSide || mat.Rows() < d.MinImageSide {
		return &QualityError{Reason: "image is too small"}
	}

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(mat, &gray, gocv.ColorBGRToGray)

	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(gray, &edges, 80, 160)
	if r := ratioOfMask(edges); r < d.MinSharpnessEdgeRatio {
		return &QualityError{Reason: "image is blurry", Value: r}
	}

	bright := gocv.NewMat()
	defer bright.Close()
	gocv.Threshold(gray, &bright, 250, 255, gocv.ThresholdBinary)
	if r := ratioOfMask(bright); r > d.MaxOverexposedRatio {
		return &QualityError{Reason: "overexposed image", Value: r}
	}

	dark := gocv.NewMat()
	defer dark.Close()
	gocv.Threshold(gray, &dark, 20, 255, gocv.ThresholdBinaryInv)
	if r := ratioOfMask(dark); r > d.MaxUnderexposedRatio {
		return &QualityError{Reason: "underexposed image", Value: r}
	}

	hsv := gocv.NewMat()
	defer hsv.Close()
	gocv.CvtColor(mat, &hsv, gocv.ColorBGRToHSV)
	channels := gocv.Split(hsv)
	for i := range channels {
		defer channels[i].Close()
	}
	if len(channels) < 3 {
		return &QualityError{Reason: "invalid hsv channels"}
	}

	// Блик: низкая насыщенность при почти максимальной яркости.
	lowSat := gocv.NewMat()
	defer lowSat.Close()
	gocv.Threshold(channels[1], &lowSat, 40, 255, gocv.ThresholdBinaryInv)

	highVal := gocv.NewMat()
	defer highVal.Close()
	gocv.Threshold(channels[2], &highVal, 245, 255, gocv.ThresholdBinary)

	glare := gocv.NewMat()
	defer glare.Close()
	gocv.BitwiseAnd(lowSat, highVal, &glare)
	if r := ratioOfMask(glare); r > d.MaxGlareRatio {
		return &QualityError{Reason: "too much glare", Value: r}
	}

	return nil
}

func ratioOfMask(mask gocv.Mat) float64 {
	total := mask.Cols() * mask.Rows()
	if total <= 0 {
		return 0
	}
	return float64(gocv.CountNonZero(mask)) / float64(total)
}

var _ port.PhotoInspector = (*GoCVInspector)(nil)

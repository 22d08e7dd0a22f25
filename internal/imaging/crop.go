package imaging

import (
	"image"
	"math"

	"golang.org/x/image/draw"
)

// CropToAspectRatio center-crops data to exactly match target. It never
// scales: the output is an integer pixel crop of the original, used when a
// downstream contract demands exact framing rather than a padded composite.
func CropToAspectRatio(data []byte, target AspectRatio) ([]byte, error) {
	img, _, err := decode(data)
	if err != nil {
		return nil, err
	}
	bounds := img.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()
	srcRatio := float64(srcW) / float64(srcH)

	cropW, cropH := srcW, srcH
	if srcRatio > target.Value() {
		// Source is relatively wider: crop width around the horizontal center.
		cropW = max(1, int(math.Round(float64(srcH)*target.Value())))
	} else if srcRatio < target.Value() {
		cropH = max(1, int(math.Round(float64(srcW)/target.Value())))
	}

	x0 := bounds.Min.X + (srcW-cropW)/2
	y0 := bounds.Min.Y + (srcH-cropH)/2

	out := image.NewRGBA(image.Rect(0, 0, cropW, cropH))
	draw.Draw(out, out.Bounds(), img, image.Pt(x0, y0), draw.Src)

	return encodeJPEG(out)
}

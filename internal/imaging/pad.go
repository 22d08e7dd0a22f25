package imaging

import (
	"image"
	"math"

	"golang.org/x/image/draw"
)

// PadToAspectRatio letterboxes or pillarboxes data onto a black canvas so the
// result matches target. When the source ratio is already within tolerance of
// the target the input slice is returned unchanged; callers rely on comparing
// the returned bytes against the input to detect "was this modified".
//
// If the grown canvas would exceed maxDimension on its long side, canvas and
// source region are downscaled by the same factor, so the source stays
// centered and undistorted. A maxDimension of zero disables the cap.
func PadToAspectRatio(data []byte, target AspectRatio, maxDimension int) ([]byte, error) {
	img, _, err := decode(data)
	if err != nil {
		return nil, err
	}
	bounds := img.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()
	srcRatio := float64(srcW) / float64(srcH)

	if target.Matches(srcRatio) {
		return data, nil
	}

	canvasW, canvasH := srcW, srcH
	if target.Value() > srcRatio {
		// Target is wider: pillarbox.
		canvasW = int(math.Round(float64(srcH) * target.Value()))
	} else {
		// Target is taller: letterbox.
		canvasH = int(math.Round(float64(srcW) / target.Value()))
	}

	scale := 1.0
	if long := max(canvasW, canvasH); maxDimension > 0 && long > maxDimension {
		scale = float64(maxDimension) / float64(long)
	}
	outW := max(1, int(math.Round(float64(canvasW)*scale)))
	outH := max(1, int(math.Round(float64(canvasH)*scale)))
	drawW := max(1, int(math.Round(float64(srcW)*scale)))
	drawH := max(1, int(math.Round(float64(srcH)*scale)))

	canvas := image.NewRGBA(image.Rect(0, 0, outW, outH))
	draw.Draw(canvas, canvas.Bounds(), image.Black, image.Point{}, draw.Src)

	offX := (outW - drawW) / 2
	offY := (outH - drawH) / 2
	region := image.Rect(offX, offY, offX+drawW, offY+drawH)
	if drawW == srcW && drawH == srcH {
		draw.Draw(canvas, region, img, bounds.Min, draw.Src)
	} else {
		draw.CatmullRom.Scale(canvas, region, img, bounds, draw.Src, nil)
	}

	return encodeJPEG(canvas)
}

package imaging

import (
	"image"
	"math"

	"golang.org/x/image/draw"
)

// BrushMode selects how strokes composite onto the mask.
type BrushMode int

const (
	// BrushPaint marks pixels.
	BrushPaint BrushMode = iota
	// BrushErase clears already-marked pixels. Erasing only affects the mask
	// layer itself; it never paints through to whatever the mask is combined
	// with later.
	BrushErase
)

// Point is a brush position in mask pixel coordinates.
type Point struct {
	X float64
	Y float64
}

// Mask is an incrementally painted alpha raster used both as an inpainting
// instruction channel and as a keep/remove selector. It is an explicit
// mutable buffer: one drawing session owns it, so no locking is needed.
type Mask struct {
	layer *image.Alpha

	down      bool
	mode      BrushMode
	brushSize float64
	last      Point
}

// NewMask creates an empty mask. The dimensions must match the image the mask
// will be combined with; use ResampleTo when they drift apart.
func NewMask(width, height int) *Mask {
	return &Mask{layer: image.NewAlpha(image.Rect(0, 0, width, height))}
}

// Bounds returns the mask dimensions.
func (m *Mask) Bounds() image.Rectangle {
	return m.layer.Bounds()
}

// BeginStroke puts the pen down and stamps the first dab.
func (m *Mask) BeginStroke(mode BrushMode, brushSize float64, p Point) {
	if brushSize <= 0 {
		brushSize = 1
	}
	m.down = true
	m.mode = mode
	m.brushSize = brushSize
	m.last = p
	m.stampDisc(p)
}

// ExtendStroke joins the previous point to p with a round-capped, round-joined
// line. Ignored while the pen is up.
func (m *Mask) ExtendStroke(p Point) {
	if !m.down {
		return
	}
	m.stampSegment(m.last, p)
	m.last = p
}

// EndStroke lifts the pen and reports whether any pixel is marked. The result
// gates downstream actions that require "a region has been marked".
func (m *Mask) EndStroke() bool {
	m.down = false
	return m.HasPaint()
}

// Clear resets the entire surface to fully empty.
func (m *Mask) Clear() {
	pix := m.layer.Pix
	for i := range pix {
		pix[i] = 0
	}
	m.down = false
}

// HasPaint scans the full buffer for any non-zero pixel.
func (m *Mask) HasPaint() bool {
	for _, v := range m.layer.Pix {
		if v != 0 {
			return true
		}
	}
	return false
}

// ResampleTo rescales the mask to width x height. Dimension mismatches with
// the target image must be resolved this way, never by truncation.
func (m *Mask) ResampleTo(width, height int) {
	if b := m.layer.Bounds(); b.Dx() == width && b.Dy() == height {
		return
	}
	resized := image.NewAlpha(image.Rect(0, 0, width, height))
	draw.NearestNeighbor.Scale(resized, resized.Bounds(), m.layer, m.layer.Bounds(), draw.Src, nil)
	m.layer = resized
}

// Image exposes the underlying alpha layer for compositing.
func (m *Mask) Image() *image.Alpha {
	return m.layer
}

// EncodePNG serializes the mask losslessly.
func (m *Mask) EncodePNG() ([]byte, error) {
	return encodePNG(m.layer)
}

// stampSegment dabs discs along the segment at sub-radius spacing, which
// yields round joins for free.
func (m *Mask) stampSegment(a, b Point) {
	dx, dy := b.X-a.X, b.Y-a.Y
	dist := math.Hypot(dx, dy)
	if dist == 0 {
		m.stampDisc(b)
		return
	}
	step := math.Max(1, m.brushSize/4)
	for t := 0.0; t <= dist; t += step {
		m.stampDisc(Point{X: a.X + dx*t/dist, Y: a.Y + dy*t/dist})
	}
	m.stampDisc(b)
}

func (m *Mask) stampDisc(center Point) {
	radius := m.brushSize / 2
	value := uint8(0xff)
	if m.mode == BrushErase {
		value = 0
	}
	bounds := m.layer.Bounds()
	minX := max(bounds.Min.X, int(math.Floor(center.X-radius)))
	maxX := min(bounds.Max.X-1, int(math.Ceil(center.X+radius)))
	minY := max(bounds.Min.Y, int(math.Floor(center.Y-radius)))
	maxY := min(bounds.Max.Y-1, int(math.Ceil(center.Y+radius)))

	rr := radius * radius
	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			ddx := float64(x) - center.X
			ddy := float64(y) - center.Y
			if ddx*ddx+ddy*ddy <= rr {
				m.layer.Pix[m.layer.PixOffset(x, y)] = value
			}
		}
	}
}

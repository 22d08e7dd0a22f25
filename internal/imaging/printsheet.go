package imaging

import (
	"fmt"
	"image"
	"math"

	"golang.org/x/image/draw"

	"github.com/pixelloom/studio/internal/domain"
)

const cmPerInch = 2.54

// PrintSheetOptions describes a multi-up print layout in physical units.
// Zero-valued paper, DPI and padding fields fall back to a 4x6in page at
// 300 DPI with a 10px gutter.
type PrintSheetOptions struct {
	CellWidthCM   float64
	CellHeightCM  float64
	PaperWidthIn  float64
	PaperHeightIn float64
	DPI           int
	PaddingPX     int
}

func (o PrintSheetOptions) withDefaults() PrintSheetOptions {
	if o.PaperWidthIn <= 0 {
		o.PaperWidthIn = 4
	}
	if o.PaperHeightIn <= 0 {
		o.PaperHeightIn = 6
	}
	if o.DPI <= 0 {
		o.DPI = 300
	}
	if o.PaddingPX < 0 {
		o.PaddingPX = 0
	} else if o.PaddingPX == 0 {
		o.PaddingPX = 10
	}
	return o
}

// sheetLayout is the computed grid placement for one page, in pixels.
type sheetLayout struct {
	paperW, paperH int
	cellW, cellH   int
	padding        int
	cols, rows     int
	left, top      int
}

// planSheet converts physical units to pixels and computes a centered grid.
// It fails before any drawing occurs when no 1x1 grid fits the page.
func planSheet(o PrintSheetOptions) (sheetLayout, error) {
	o = o.withDefaults()
	layout := sheetLayout{
		paperW:  int(math.Round(o.PaperWidthIn * float64(o.DPI))),
		paperH:  int(math.Round(o.PaperHeightIn * float64(o.DPI))),
		cellW:   int(math.Round(o.CellWidthCM / cmPerInch * float64(o.DPI))),
		cellH:   int(math.Round(o.CellHeightCM / cmPerInch * float64(o.DPI))),
		padding: o.PaddingPX,
	}
	if layout.cellW <= 0 || layout.cellH <= 0 {
		return sheetLayout{}, fmt.Errorf("%w: cell size must be positive", domain.ErrRatioFormat)
	}

	layout.cols = (layout.paperW - layout.padding) / (layout.cellW + layout.padding)
	layout.rows = (layout.paperH - layout.padding) / (layout.cellH + layout.padding)
	if layout.cols < 1 || layout.rows < 1 {
		return sheetLayout{}, fmt.Errorf("%w: %dx%dpx cell on %dx%dpx page",
			domain.ErrSheetCapacity, layout.cellW, layout.cellH, layout.paperW, layout.paperH)
	}

	gridW := layout.cols*layout.cellW + (layout.cols-1)*layout.padding
	gridH := layout.rows*layout.cellH + (layout.rows-1)*layout.padding
	layout.left = (layout.paperW - gridW) / 2
	layout.top = (layout.paperH - gridH) / 2
	return layout, nil
}

// BuildPrintSheet tiles the same image into every cell of a centered grid on
// a white page. Each cell is drawn at exactly cellW x cellH pixels.
func BuildPrintSheet(data []byte, opts PrintSheetOptions) ([]byte, error) {
	layout, err := planSheet(opts)
	if err != nil {
		return nil, err
	}

	img, _, err := decode(data)
	if err != nil {
		return nil, err
	}

	sheet := image.NewRGBA(image.Rect(0, 0, layout.paperW, layout.paperH))
	draw.Draw(sheet, sheet.Bounds(), image.White, image.Point{}, draw.Src)

	// Scale once, stamp many.
	cell := image.NewRGBA(image.Rect(0, 0, layout.cellW, layout.cellH))
	draw.CatmullRom.Scale(cell, cell.Bounds(), img, img.Bounds(), draw.Src, nil)

	for row := 0; row < layout.rows; row++ {
		for col := 0; col < layout.cols; col++ {
			x := layout.left + col*(layout.cellW+layout.padding)
			y := layout.top + row*(layout.cellH+layout.padding)
			target := image.Rect(x, y, x+layout.cellW, y+layout.cellH)
			draw.Draw(sheet, target, cell, image.Point{}, draw.Src)
		}
	}

	return encodeJPEG(sheet)
}

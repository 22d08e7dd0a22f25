package imaging

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/pixelloom/studio/internal/domain"
)

// ratioTolerance is the near-equality threshold for aspect ratios. Sources
// within this distance of a target are treated as already conforming, which
// lets PadToAspectRatio skip recompression entirely.
const ratioTolerance = 0.01

// AspectRatio is a pair of positive integers, e.g. 4:5.
type AspectRatio struct {
	W int
	H int
}

// ParseAspectRatio parses a "W:H" string.
func ParseAspectRatio(s string) (AspectRatio, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return AspectRatio{}, fmt.Errorf("%w: %q", domain.ErrRatioFormat, s)
	}
	w, errW := strconv.Atoi(strings.TrimSpace(parts[0]))
	h, errH := strconv.Atoi(strings.TrimSpace(parts[1]))
	if errW != nil || errH != nil || w <= 0 || h <= 0 {
		return AspectRatio{}, fmt.Errorf("%w: %q", domain.ErrRatioFormat, s)
	}
	return AspectRatio{W: w, H: h}, nil
}

// Value reduces the ratio to a single float.
func (r AspectRatio) Value() float64 {
	return float64(r.W) / float64(r.H)
}

// Matches reports whether value is within tolerance of the ratio.
func (r AspectRatio) Matches(value float64) bool {
	return math.Abs(r.Value()-value) < ratioTolerance
}

func (r AspectRatio) String() string {
	return fmt.Sprintf("%d:%d", r.W, r.H)
}

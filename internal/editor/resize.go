package editor

import (
	"math"

	"github.com/plc-visualizer/twin-editor/internal/models"
)

// MinSize is the smallest width or height an interactive resize produces.
const MinSize = 10

// RotationStep is the rotation snap increment in degrees.
const RotationStep = 15

// Rect is the geometry captured at gesture start.
type Rect struct {
	X, Y, W, H float64
}

func rectOf(e models.Element) Rect {
	return Rect{X: e.X, Y: e.Y, W: e.W, H: e.H}
}

// Snap rounds v to the nearest multiple of grid. A non-positive grid means 20.
func Snap(v, grid float64) float64 {
	if !(grid > 0) {
		grid = 20
	}
	return math.Round(v/grid) * grid
}

// ResizeRect computes the new rectangle for handle h with the pointer at p
// (already snapped). The edge opposite each dragged edge stays fixed and
// neither dimension drops below MinSize.
func ResizeRect(init Rect, h Handle, p models.Point) Rect {
	r := init
	if h.has('n') {
		bottom := init.Y + init.H
		r.H = math.Max(MinSize, bottom-p.Y)
		r.Y = bottom - r.H
	}
	if h.has('s') {
		r.H = math.Max(MinSize, p.Y-init.Y)
	}
	if h.has('w') {
		right := init.X + init.W
		r.W = math.Max(MinSize, right-p.X)
		r.X = right - r.W
	}
	if h.has('e') {
		r.W = math.Max(MinSize, p.X-init.X)
	}
	return r
}

// angleDeg returns the angle of p around c in degrees.
func angleDeg(c, p models.Point) float64 {
	return math.Atan2(p.Y-c.Y, p.X-c.X) * 180 / math.Pi
}

// SnapRotation rounds deg to the nearest RotationStep.
func SnapRotation(deg float64) float64 {
	return math.Round(deg/RotationStep) * RotationStep
}

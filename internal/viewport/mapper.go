// Package viewport maps between device (screen) space and canvas space.
package viewport

import (
	"math"

	"github.com/plc-visualizer/twin-editor/internal/models"
)

const (
	MinScale = 0.2
	MaxScale = 4.0

	wheelFactor     = 0.1
	fineWheelFactor = 0.05
)

// Mapper holds the pan/zoom transform: device = translate + scale*canvas.
// It is never part of undo history.
type Mapper struct {
	TX    float64 `json:"tx"`
	TY    float64 `json:"ty"`
	Scale float64 `json:"scale"`
}

// NewMapper returns the identity transform.
func NewMapper() *Mapper {
	return &Mapper{Scale: 1}
}

// ClampScale bounds s to [MinScale, MaxScale].
func ClampScale(s float64) float64 {
	return math.Max(MinScale, math.Min(MaxScale, s))
}

// ToCanvas converts a device point to canvas coordinates.
func (m *Mapper) ToCanvas(dx, dy float64) models.Point {
	return models.Point{X: (dx - m.TX) / m.Scale, Y: (dy - m.TY) / m.Scale}
}

// ToDevice converts a canvas point to device coordinates.
func (m *Mapper) ToDevice(cx, cy float64) models.Point {
	return models.Point{X: m.TX + m.Scale*cx, Y: m.TY + m.Scale*cy}
}

// ZoomAround sets the scale (clamped) while keeping the canvas point under the
// device-space anchor fixed.
func (m *Mapper) ZoomAround(anchor models.Point, requested float64) {
	next := ClampScale(requested)
	ratio := next / m.Scale
	m.TX = anchor.X - ratio*(anchor.X-m.TX)
	m.TY = anchor.Y - ratio*(anchor.Y-m.TY)
	m.Scale = next
}

// ZoomStep applies one wheel notch around anchor. Negative deltaY zooms in.
func (m *Mapper) ZoomStep(anchor models.Point, deltaY float64, fine bool) {
	if deltaY == 0 {
		return
	}
	factor := wheelFactor
	if fine {
		factor = fineWheelFactor
	}
	dir := -math.Copysign(1, deltaY)
	m.ZoomAround(anchor, m.Scale*(1+dir*factor))
}

// Pan shifts the translation by a device-space delta divided by the scale.
func (m *Mapper) Pan(ddx, ddy float64) {
	m.TX += ddx / m.Scale
	m.TY += ddy / m.Scale
}

// Reset restores the identity transform.
func (m *Mapper) Reset() {
	m.TX, m.TY, m.Scale = 0, 0, 1
}

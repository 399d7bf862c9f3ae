package viewport

import "floorplan-studio/internal/designer/models"

// ============================================================
// Viewport
// ============================================================

const (
	MinScale = 0.2
	MaxScale = 4.0
)

// Viewport maps between screen coordinates and canvas content under the
// affine transform translate(panX,panY) ∘ scale(scale).
type Viewport struct {
	Scale float64
	PanX  float64
	PanY  float64
}

func New() *Viewport {
	return &Viewport{Scale: 1}
}

// Zoom multiplies the current scale by factor, clamped to [0.2, 4.0].
func (v *Viewport) Zoom(factor float64) {
	v.Scale = models.Clamp(v.Scale*factor, MinScale, MaxScale)
}

// Pan shifts the canvas by a raw pixel delta. Any offset is accepted.
func (v *Viewport) Pan(dx, dy float64) {
	v.PanX += dx
	v.PanY += dy
}

func (v *Viewport) Reset() {
	v.Scale = 1
	v.PanX = 0
	v.PanY = 0
}

// ScreenToContent inverts the canvas transform: screen point → content
// pixel point.
func (v *Viewport) ScreenToContent(clientX, clientY float64) models.Point {
	return models.Point{
		X: (clientX - v.PanX) / v.Scale,
		Y: (clientY - v.PanY) / v.Scale,
	}
}

// ContentDelta converts a screen-space drag delta into content pixels.
func (v *Viewport) ContentDelta(dx, dy float64) (float64, float64) {
	return dx / v.Scale, dy / v.Scale
}

// ScreenToImagePercent measures a screen point against the rendered image
// box and returns percent coordinates clamped to [0,100]. Pan/zoom cancel
// out because imageRect is the image's own on-screen bounds.
func ScreenToImagePercent(clientX, clientY float64, imageRect models.Rect) models.Point {
	return models.Point{
		X: models.ClampPercent((clientX - imageRect.X) / imageRect.Width * 100),
		Y: models.ClampPercent((clientY - imageRect.Y) / imageRect.Height * 100),
	}
}

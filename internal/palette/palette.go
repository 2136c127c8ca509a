// Package palette maps OTU ids to stable colours on a cyclic hue wheel.
package palette

import (
	"fmt"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// HueSpan is the fraction of the colour wheel covered by ids 0..max. It
// stays below 1 so the largest id does not wrap back onto red.
const HueSpan = 0.9

// HueScale is the hue fraction advanced per unit of OTU id.
type HueScale float64

// ScaleFor returns the hue scale calibrated to the largest OTU id of a
// dataset. Ids below 1 floor the divisor at 1.
func ScaleFor(maxCategoryID int) HueScale {
	if maxCategoryID < 1 {
		maxCategoryID = 1
	}
	return HueScale(HueSpan / float64(maxCategoryID))
}

// RGB is an 8-bit per channel colour.
type RGB struct {
	R, G, B uint8
}

// String formats the colour the way Plotly and ECharts accept it.
func (c RGB) String() string {
	return fmt.Sprintf("rgb(%d,%d,%d)", c.R, c.G, c.B)
}

// MarshalText encodes the colour in its rgb() form.
func (c RGB) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText parses the rgb() form written by MarshalText.
func (c *RGB) UnmarshalText(text []byte) error {
	var r, g, b uint8
	if _, err := fmt.Sscanf(string(text), "rgb(%d,%d,%d)", &r, &g, &b); err != nil {
		return fmt.Errorf("invalid colour %q: %w", text, err)
	}
	*c = RGB{R: r, G: g, B: b}
	return nil
}

// Hex returns the colour as #rrggbb.
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Mapper converts OTU ids into colours. The scale is fixed at construction.
type Mapper struct {
	scale HueScale
}

// NewMapper returns a Mapper calibrated to maxCategoryID.
func NewMapper(maxCategoryID int) *Mapper {
	return &Mapper{scale: ScaleFor(maxCategoryID)}
}

// Scale returns the hue scale the mapper was built with.
func (m *Mapper) Scale() HueScale { return m.scale }

// ColorFor returns the fully saturated, full value colour for id.
func (m *Mapper) ColorFor(id int) RGB {
	c := HSV(WrapHue(float64(id)*float64(m.scale)), 1.0, 1.0)
	r, g, b := c.RGB255()
	return RGB{R: r, G: g, B: b}
}

// WrapHue folds h into [0,1). Non-finite input maps to 0.
func WrapHue(h float64) float64 {
	if math.IsNaN(h) || math.IsInf(h, 0) {
		return 0
	}
	h -= math.Floor(h)
	if h >= 1 {
		return 0
	}
	return h
}

// HSV converts hue, saturation and value, all in [0,1], with the
// six-sector formula. Hue is expected to be wrapped already.
func HSV(h, s, v float64) colorful.Color {
	scaled := h * 6
	i := math.Floor(scaled)
	f := scaled - i
	p := v * (1 - s)
	q := v * (1 - f*s)
	t := v * (1 - (1-f)*s)

	switch int(i) % 6 {
	case 0:
		return colorful.Color{R: v, G: t, B: p}
	case 1:
		return colorful.Color{R: q, G: v, B: p}
	case 2:
		return colorful.Color{R: p, G: v, B: t}
	case 3:
		return colorful.Color{R: p, G: q, B: v}
	case 4:
		return colorful.Color{R: t, G: p, B: v}
	default:
		return colorful.Color{R: v, G: p, B: q}
	}
}

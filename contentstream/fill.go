package contentstream

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/wudi/redactkit/coords"
)

// Color is a DeviceRGB colour with components in [0,1].
type Color struct{ R, G, B float64 }

var Black = Color{}

// ParseColor reads "#rrggbb" or "#rgb".
func ParseColor(s string) (Color, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return Color{}, fmt.Errorf("invalid colour %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("invalid colour %q: %w", s, err)
	}
	return Color{
		R: float64(v>>16&0xff) / 255,
		G: float64(v>>8&0xff) / 255,
		B: float64(v&0xff) / 255,
	}, nil
}

// Hex formats c as "#rrggbb".
func (c Color) Hex() string {
	to := func(f float64) uint8 { return uint8(f*255 + 0.5) }
	return fmt.Sprintf("#%02x%02x%02x", to(c.R), to(c.G), to(c.B))
}

// FillRects paints each rectangle opaquely in c, isolated in its own
// graphics state. Rectangles are in PDF user space with a bottom-left origin.
func FillRects(rects []coords.Rect, c Color) []Operation {
	if len(rects) == 0 {
		return nil
	}
	ops := make([]Operation, 0, len(rects)+3)
	ops = append(ops, Op("q"), Op("rg", c.R, c.G, c.B))
	for _, r := range rects {
		ops = append(ops, Op("re", r.X, r.Y, r.Width, r.Height))
	}
	ops = append(ops, Op("f"), Op("Q"))
	return ops
}

package raster

import (
	"math"
	"testing"

	"github.com/wudi/redactkit/coords"
)

func TestCapScale(t *testing.T) {
	page := coords.Size{Width: 600, Height: 800}
	if got := capScale(page, 2, DefaultMaxPixels); got != 2 {
		t.Fatalf("small bitmap capped: %g", got)
	}
	got := capScale(page, 100, 480_000)
	if math.Abs(got-1) > 1e-9 {
		t.Fatalf("capped scale = %g, want 1", got)
	}
	if got := capScale(coords.Size{}, 3, 10); got != 3 {
		t.Fatalf("empty page = %g", got)
	}
}

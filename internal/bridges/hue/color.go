package hue

import (
	"fmt"
	"math"
	"strings"
)

// Wide-gamut RGB to XYZ coefficients used by the bridge firmware's color
// engine. The resulting xy point is what the bridge expects in commands.
const (
	coefXR = 0.649926
	coefXG = 0.103455
	coefXB = 0.197109
	coefYR = 0.234327
	coefYG = 0.743075
	coefYB = 0.022598
	coefZG = 0.053077
	coefZB = 1.035763
)

// RGBToXY converts 8-bit RGB channels to a CIE xy color point.
// Black (0,0,0) has no chromaticity; it maps to the white point origin used
// by the firmware, which callers should pair with on=false.
func RGBToXY(r, g, b uint8) [2]float64 {
	rf := gammaExpand(float64(r) / 255.0)
	gf := gammaExpand(float64(g) / 255.0)
	bf := gammaExpand(float64(b) / 255.0)

	x := rf*coefXR + gf*coefXG + bf*coefXB
	y := rf*coefYR + gf*coefYG + bf*coefYB
	z := gf*coefZG + bf*coefZB

	sum := x + y + z
	if sum == 0 {
		return [2]float64{0, 0}
	}
	return [2]float64{x / sum, y / sum}
}

// gammaExpand linearises one sRGB channel value in [0,1].
func gammaExpand(c float64) float64 {
	if c > 0.04045 {
		return math.Pow((c+0.055)/1.055, 2.4)
	}
	return c / 12.92
}

// ParseHexColor parses a "#rrggbb" or "rrggbb" hex color string.
func ParseHexColor(s string) (r, g, b uint8, err error) {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return 0, 0, 0, fmt.Errorf("hue: invalid hex color %q", s)
	}
	var rv, gv, bv int
	if _, err := fmt.Sscanf(s, "%02x%02x%02x", &rv, &gv, &bv); err != nil {
		return 0, 0, 0, fmt.Errorf("hue: invalid hex color %q", s)
	}
	return uint8(rv), uint8(gv), uint8(bv), nil
}

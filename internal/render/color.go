package render

import (
	"strconv"
	"strings"
)

// Color is a linear RGBA color with components in [0, 1].
type Color struct {
	R, G, B, A float32
}

var (
	Transparent    = Color{}
	White          = Color{1, 1, 1, 1}
	Gray           = Color{0.5, 0.5, 0.5, 1}
	Magenta        = Color{1, 0, 1, 1}
	Gold           = RGBFromHex(0xffd700)
	Aquamarine     = RGBFromHex(0x7fffd4)
	LightSteelBlue = RGBFromHex(0xb0c4de)
	Orange         = RGBFromHex(0xffa500)
)

// RGBFromHex converts a packed integer color value where the low 8 bits
// give blue, the next 8 green and the next 8 red. Alpha is opaque.
func RGBFromHex(c int) Color {
	r, g, b := (c>>16)&255, (c>>8)&255, c&255
	return Color{R: float32(r) / 255, G: float32(g) / 255, B: float32(b) / 255, A: 1}
}

// ParseCSS parses "#rrggbb" or "rrggbb". It returns false for anything else.
func ParseCSS(s string) (Color, bool) {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return Color{}, false
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return Color{}, false
	}
	return RGBFromHex(int(v)), true
}

// WithAlpha returns c with alpha replaced.
func (c Color) WithAlpha(a float32) Color {
	c.A = a
	return c
}

// Equals reports whether two colors are identical.
func (c Color) Equals(o Color) bool {
	return c == o
}

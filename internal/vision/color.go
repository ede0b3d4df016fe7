package vision

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ColorNames is the full vocabulary returned by [ClassifyColor].
var ColorNames = []string{
	"black", "dark gray", "gray", "white", "light gray", "dark",
	"red", "dark red", "orange", "brown", "yellow", "olive",
	"green", "dark green", "cyan", "teal", "blue", "navy",
	"purple", "dark purple", "pink", "dark pink", "unknown",
}

const (
	grayTolerance     = 20.0
	minSaturation     = 0.1
	minBrightness     = 0.2
	brightnessMidline = 0.5
)

// hueBucket covers [from, to) degrees. The red bucket wraps around 0.
type hueBucket struct {
	from, to    float64
	light, dark string
}

var hueBuckets = []hueBucket{
	{345, 15, "red", "dark red"},
	{15, 45, "orange", "brown"},
	{45, 75, "yellow", "olive"},
	{75, 165, "green", "dark green"},
	{165, 195, "cyan", "teal"},
	{195, 255, "blue", "navy"},
	{255, 285, "purple", "dark purple"},
	{285, 345, "pink", "dark pink"},
}

func (b hueBucket) contains(h float64) bool {
	if b.from > b.to {
		return h >= b.from || h < b.to
	}
	return h >= b.from && h < b.to
}

// ClassifyColor returns a human-readable name for an RGB triple with channels in [0,255].
// Out-of-range channels are clamped; NaN yields "unknown".
func ClassifyColor(r, g, b float64) string {
	if math.IsNaN(r) || math.IsNaN(g) || math.IsNaN(b) {
		return "unknown"
	}
	r, g, b = clamp(r), clamp(g), clamp(b)

	if math.Abs(r-g) < grayTolerance && math.Abs(g-b) < grayTolerance && math.Abs(r-b) < grayTolerance {
		switch lightness := (r + g + b) / 3; {
		case lightness < 50:
			return "black"
		case lightness < 100:
			return "dark gray"
		case lightness < 200:
			return "gray"
		default:
			return "white"
		}
	}

	h, s, v := HSB(r, g, b)
	if s < minSaturation {
		if v > brightnessMidline {
			return "light gray"
		}
		return "dark gray"
	}
	if v < minBrightness {
		return "dark"
	}

	for _, bucket := range hueBuckets {
		if bucket.contains(h) {
			if v > brightnessMidline {
				return bucket.light
			}
			return bucket.dark
		}
	}
	return "unknown"
}

// HSB converts RGB channels in [0,255] to hue in [0,360), saturation and brightness in [0,1].
func HSB(r, g, b float64) (h, s, v float64) {
	maxC := math.Max(r, math.Max(g, b))
	minC := math.Min(r, math.Min(g, b))
	delta := maxC - minC

	if maxC > 0 {
		s = delta / maxC
	}
	v = maxC / 255

	if delta == 0 {
		return 0, s, v
	}

	switch maxC {
	case r:
		h = 60 * math.Mod((g-b)/delta, 6)
	case g:
		h = 60 * ((b-r)/delta + 2)
	default:
		h = 60 * ((r-g)/delta + 4)
	}
	if h < 0 {
		h += 360
	}
	if h >= 360 {
		h -= 360
	}
	return h, s, v
}

// HexFromRGB encodes channels as lowercase "#rrggbb", rounding each to the nearest integer.
func HexFromRGB(r, g, b float64) string {
	return fmt.Sprintf("#%02x%02x%02x", channel(r), channel(g), channel(b))
}

// ParseHex decodes "#rrggbb" or "rrggbb" in either case.
func ParseHex(s string) (r, g, b int, err error) {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return 0, 0, 0, fmt.Errorf("invalid hex color %q", s)
	}

	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid hex color %q: %w", s, err)
	}
	return int(v >> 16 & 0xff), int(v >> 8 & 0xff), int(v & 0xff), nil
}

func clamp(c float64) float64 {
	return math.Max(0, math.Min(255, c))
}

func channel(c float64) int {
	if math.IsNaN(c) {
		return 0
	}
	return int(math.Round(clamp(c)))
}

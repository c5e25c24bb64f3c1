package rimage

import (
	"image"
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// DefaultPreviewAlpha maps millimeter depths onto the 0-255 colormap range so that roughly
// 8.5 meters saturates.
const DefaultPreviewAlpha = 0.03

// jetPalette holds the 256 entry jet colormap, blue for small values through red for large.
var jetPalette = func() [256]color.RGBA {
	var palette [256]color.RGBA
	channel := func(t, offset float64) float64 {
		return 1.5 - math.Abs(4*t-offset)
	}
	for i := range palette {
		t := float64(i) / 255
		c := colorful.Color{R: channel(t, 3), G: channel(t, 2), B: channel(t, 1)}.Clamped()
		r, g, b := c.RGB255()
		palette[i] = color.RGBA{R: r, G: g, B: b, A: 255}
	}
	return palette
}()

// JetColor returns the jet colormap entry for an 8-bit intensity.
func JetColor(v uint8) color.RGBA {
	return jetPalette[v]
}

// scaleAbs scales a depth to an 8-bit intensity, rounding and saturating.
func scaleAbs(d Depth, alpha float64) uint8 {
	v := math.Round(math.Abs(float64(d) * alpha))
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// JetColorMap renders dm as a jet colormapped preview after scaling depths by alpha.
func JetColorMap(dm *DepthMap, alpha float64) *image.RGBA {
	img := image.NewRGBA(dm.Bounds())
	for y := 0; y < dm.height; y++ {
		for x := 0; x < dm.width; x++ {
			img.SetRGBA(x, y, jetPalette[scaleAbs(dm.GetDepth(x, y), alpha)])
		}
	}
	return img
}

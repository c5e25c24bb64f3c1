package obstacle

import (
	"image"
	"image/color"

	"go.viam.com/obstaclemap/rimage"
)

// Overlay returns a display sized RGB copy of colorFrame with a marker at the display position
// of every sample. colorFrame itself is left untouched.
func Overlay(
	colorFrame image.Image,
	format rimage.PixelFormat,
	samples []Sample,
	scale DisplayScale,
	markerColor color.RGBA,
	markerRadius int,
) *image.RGBA {
	display := scale.Display()
	annotated := rimage.DisplayCopy(colorFrame, format, display.Dx(), display.Dy())
	rimage.DrawMarkers(annotated, MarkerPoints(samples, scale), markerColor, markerRadius)
	return annotated
}

// MarkerPoints remaps samples to display pixels, preserving order.
func MarkerPoints(samples []Sample, scale DisplayScale) []image.Point {
	points := make([]image.Point, 0, len(samples))
	for _, s := range samples {
		points = append(points, scale.Remap(s.Row, s.Col))
	}
	return points
}

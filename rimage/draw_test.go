package rimage

import (
	"image"
	"image/color"
	"testing"

	"go.viam.com/test"
)

var markerColor = color.RGBA{R: 125, G: 125, B: 250, A: 255}

func TestDrawMarker(t *testing.T) {
	img := uniformImage(20, 20, color.RGBA{A: 255})
	DrawMarker(img, image.Point{10, 10}, markerColor, 2)

	test.That(t, img.RGBAAt(10, 10), test.ShouldResemble, markerColor)
	test.That(t, img.RGBAAt(12, 10), test.ShouldResemble, markerColor)
	test.That(t, img.RGBAAt(10, 8), test.ShouldResemble, markerColor)
	test.That(t, img.RGBAAt(11, 11), test.ShouldResemble, markerColor)
	// outside the radius
	test.That(t, img.RGBAAt(12, 12), test.ShouldResemble, color.RGBA{A: 255})
	test.That(t, img.RGBAAt(13, 10), test.ShouldResemble, color.RGBA{A: 255})
}

func TestDrawMarkerIdempotent(t *testing.T) {
	once := uniformImage(20, 20, color.RGBA{G: 40, A: 255})
	twice := uniformImage(20, 20, color.RGBA{G: 40, A: 255})

	DrawMarkers(once, []image.Point{{5, 5}}, markerColor, 3)
	DrawMarkers(twice, []image.Point{{5, 5}, {5, 5}}, markerColor, 3)
	test.That(t, twice.Pix, test.ShouldResemble, once.Pix)
}

func TestDrawMarkerClipsAtEdges(t *testing.T) {
	img := uniformImage(8, 8, color.RGBA{A: 255})
	DrawMarker(img, image.Point{0, 0}, markerColor, 2)
	DrawMarker(img, image.Point{7, 7}, markerColor, 2)
	test.That(t, img.RGBAAt(0, 0), test.ShouldResemble, markerColor)
	test.That(t, img.RGBAAt(7, 7), test.ShouldResemble, markerColor)
	test.That(t, img.RGBAAt(4, 4), test.ShouldResemble, color.RGBA{A: 255})
}

func TestDrawStatus(t *testing.T) {
	img := uniformImage(200, 40, color.RGBA{A: 255})
	DrawStatus(img, "obstacles 3", color.RGBA{R: 255, G: 255, B: 255, A: 255})

	lit := 0
	for i := 0; i < len(img.Pix); i += 4 {
		if img.Pix[i] > 0 {
			lit++
		}
	}
	test.That(t, lit, test.ShouldBeGreaterThan, 0)
	test.That(t, Font(), test.ShouldNotBeNil)
}

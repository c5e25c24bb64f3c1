package rimage

import (
	"image"
	"image/color"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/goregular"
)

var font *truetype.Font

// init sets up the fonts we want to use.
func init() {
	var err error
	font, err = truetype.Parse(goregular.TTF)
	if err != nil {
		panic(err)
	}
}

// Font returns the font we use for drawing.
func Font() *truetype.Font {
	return font
}

// DrawString writes a string to the given context at a particular point.
func DrawString(dc *gg.Context, text string, p image.Point, c color.Color, size float64) {
	dc.SetFontFace(truetype.NewFace(Font(), &truetype.Options{Size: size}))
	dc.SetColor(c)
	dc.DrawStringWrapped(text, float64(p.X), float64(p.Y), 0, 0, float64(dc.Width()), 1, 0)
}

// DrawMarker fills a disc of the given radius centered on the pixel at center. Pixels are set,
// not blended, so drawing the same marker again leaves the image unchanged.
func DrawMarker(img *image.RGBA, center image.Point, c color.RGBA, radius int) {
	r2 := radius * radius
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if dx*dx+dy*dy > r2 {
				continue
			}
			p := center.Add(image.Point{dx, dy})
			if !p.In(img.Rect) {
				continue
			}
			img.SetRGBA(p.X, p.Y, c)
		}
	}
}

// DrawMarkers draws a marker at every center.
func DrawMarkers(img *image.RGBA, centers []image.Point, c color.RGBA, radius int) {
	for _, center := range centers {
		DrawMarker(img, center, c, radius)
	}
}

// DrawStatus writes a single line of text in the top left corner of img.
func DrawStatus(img *image.RGBA, text string, c color.Color) {
	dc := gg.NewContextForRGBA(img)
	DrawString(dc, text, image.Point{4, 4}, c, 14)
}

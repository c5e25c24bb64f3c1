package obstacle

import (
	"image"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
)

// DisplayScale converts decimated grid coordinates to display pixels. The per axis factors are
// ratios of the display size to the grid size, derived once.
type DisplayScale struct {
	X, Y float64

	display image.Rectangle
}

// NewDisplayScale derives the scale between a grid and a display of the given sizes.
func NewDisplayScale(gridWidth, gridHeight, displayWidth, displayHeight int) (DisplayScale, error) {
	if gridWidth <= 0 || gridHeight <= 0 || displayWidth <= 0 || displayHeight <= 0 {
		return DisplayScale{}, errors.Errorf("cannot scale %dx%d grid to %dx%d display",
			gridWidth, gridHeight, displayWidth, displayHeight)
	}
	return DisplayScale{
		X:       float64(displayWidth) / float64(gridWidth),
		Y:       float64(displayHeight) / float64(gridHeight),
		display: image.Rect(0, 0, displayWidth, displayHeight),
	}, nil
}

// Point returns the unrounded display position of a grid cell. Columns run along x and rows
// along y.
func (ds DisplayScale) Point(row, col int) r2.Point {
	return r2.Point{X: float64(col) * ds.X, Y: float64(row) * ds.Y}
}

// Remap returns the display pixel of a grid cell, truncating toward zero.
func (ds DisplayScale) Remap(row, col int) image.Point {
	p := ds.Point(row, col)
	return image.Point{X: int(p.X), Y: int(p.Y)}
}

// Display returns the display bounds the scale maps into.
func (ds DisplayScale) Display() image.Rectangle {
	return ds.display
}

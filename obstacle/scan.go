// Package obstacle turns a depth frame into a list of near samples and an annotated display
// frame.
package obstacle

import (
	"fmt"

	"go.viam.com/obstaclemap/rimage"
)

// Sample is a decimated grid cell closer than the safety distance.
type Sample struct {
	Row       int
	Col       int
	DistanceM float64
}

func (s Sample) String() string {
	return fmt.Sprintf("(%d,%d) %.3fm", s.Row, s.Col, s.DistanceM)
}

// Scan returns every cell of grid whose distance is nonzero and strictly below safetyDistanceM.
// Rows [0, height-1) and columns [0, width-1) are visited, rows outermost, so the last row and
// column of the grid are never reported. Zero means no return and is never an obstacle.
func Scan(grid *rimage.DepthMap, safetyDistanceM float64) []Sample {
	if !grid.HasData() {
		return nil
	}
	var samples []Sample
	for row := 0; row < grid.Height()-1; row++ {
		for col := 0; col < grid.Width()-1; col++ {
			d := grid.GetDepth(col, row).Meters()
			if d == 0 {
				continue
			}
			if d < safetyDistanceM {
				samples = append(samples, Sample{Row: row, Col: col, DistanceM: d})
			}
		}
	}
	return samples
}

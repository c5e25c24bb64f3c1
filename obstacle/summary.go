package obstacle

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary condenses the samples of one tick.
type Summary struct {
	Count   int
	Nearest float64
	Mean    float64
}

// Summarize computes the sample count, the nearest distance, and the mean distance. Both
// distances are zero when there are no samples.
func Summarize(samples []Sample) Summary {
	if len(samples) == 0 {
		return Summary{}
	}
	distances := make([]float64, len(samples))
	for i, s := range samples {
		distances[i] = s.DistanceM
	}
	return Summary{
		Count:   len(samples),
		Nearest: floats.Min(distances),
		Mean:    stat.Mean(distances, nil),
	}
}

// Clear is true when nothing was within the safety distance.
func (s Summary) Clear() bool {
	return s.Count == 0
}

func (s Summary) String() string {
	if s.Clear() {
		return "clear"
	}
	return fmt.Sprintf("obstacle ahead %.2fm (%d samples)", s.Nearest, s.Count)
}

package rimage

import (
	"math"

	"github.com/pkg/errors"
)

// linearTap is the pair of source indices and the weight of the upper one used to produce a
// single output index.
type linearTap struct {
	lo, hi int
	frac   float64
}

// linearTaps places dst samples over src samples using pixel-center alignment: output index i
// maps to source coordinate (i+0.5)*src/dst-0.5, clamped to the edges.
func linearTaps(src, dst int) []linearTap {
	scale := float64(src) / float64(dst)
	taps := make([]linearTap, dst)
	for i := range taps {
		f := (float64(i)+0.5)*scale - 0.5
		if f < 0 {
			f = 0
		}
		lo := int(f)
		frac := f - float64(lo)
		if lo >= src-1 {
			lo = src - 1
			frac = 0
		}
		hi := lo + 1
		if hi > src-1 {
			hi = src - 1
		}
		taps[i] = linearTap{lo: lo, hi: hi, frac: frac}
	}
	return taps
}

// Decimate resamples dm down to width x height with bilinear interpolation. Samples stay in raw
// ticks and zero samples are interpolated like any other value.
func Decimate(dm *DepthMap, width, height int) (*DepthMap, error) {
	if !dm.HasData() {
		return nil, errors.New("cannot decimate an empty depth map")
	}
	if width <= 0 || height <= 0 {
		return nil, errors.Errorf("decimated size must be positive, got %dx%d", width, height)
	}
	if width > dm.width || height > dm.height {
		return nil, errors.Errorf("decimated size %dx%d exceeds source size %dx%d", width, height, dm.width, dm.height)
	}

	xs := linearTaps(dm.width, width)
	ys := linearTaps(dm.height, height)
	out := NewEmptyDepthMap(width, height)
	for y, ty := range ys {
		row0 := dm.data[ty.lo*dm.width : (ty.lo+1)*dm.width]
		row1 := dm.data[ty.hi*dm.width : (ty.hi+1)*dm.width]
		for x, tx := range xs {
			top := lerp(float64(row0[tx.lo]), float64(row0[tx.hi]), tx.frac)
			bottom := lerp(float64(row1[tx.lo]), float64(row1[tx.hi]), tx.frac)
			out.data[y*width+x] = clampDepth(lerp(top, bottom, ty.frac))
		}
	}
	return out, nil
}

func lerp(a, b, frac float64) float64 {
	if frac == 0 {
		return a
	}
	return a + (b-a)*frac
}

func clampDepth(v float64) Depth {
	v = math.Round(v)
	if v <= 0 {
		return 0
	}
	if v >= float64(MaxDepth) {
		return MaxDepth
	}
	return Depth(v)
}

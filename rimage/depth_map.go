package rimage

import (
	"bufio"
	"compress/gzip"
	"encoding/binary"
	"image"
	"image/color"
	"io"
	"math"
	"path/filepath"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gopkg.in/src-d/go-billy.v4"
)

// Depth is the raw sensor reading of a single depth pixel. One tick is one millimeter.
type Depth uint16

// MaxDepth is the largest representable depth.
const MaxDepth = Depth(math.MaxUint16)

// DepthUnitsPerMeter converts raw depth ticks to meters.
const DepthUnitsPerMeter = 1000.0

// Meters returns the depth in meters.
func (d Depth) Meters() float64 {
	return float64(d) / DepthUnitsPerMeter
}

// DepthMap is a 2D grid of raw depth samples stored row-major. A zero sample means the sensor
// got no return for that pixel.
type DepthMap struct {
	width  int
	height int

	data []Depth
}

// NewEmptyDepthMap returns a zero filled depth map.
func NewEmptyDepthMap(width, height int) *DepthMap {
	return &DepthMap{
		width:  width,
		height: height,
		data:   make([]Depth, width*height),
	}
}

// NewUniformDepthMap returns a depth map with every sample set to val.
func NewUniformDepthMap(width, height int, val Depth) *DepthMap {
	dm := NewEmptyDepthMap(width, height)
	dm.Fill(val)
	return dm
}

// HasData returns whether the map holds any samples.
func (dm *DepthMap) HasData() bool {
	return dm != nil && dm.width > 0 && dm.height > 0 && len(dm.data) == dm.width*dm.height
}

// Width returns the horizontal size of the depth map.
func (dm *DepthMap) Width() int {
	return dm.width
}

// Height returns the vertical size of the depth map.
func (dm *DepthMap) Height() int {
	return dm.height
}

func (dm *DepthMap) kxy(x, y int) int {
	return (y * dm.width) + x
}

// GetDepth returns the depth at column x and row y.
func (dm *DepthMap) GetDepth(x, y int) Depth {
	return dm.data[dm.kxy(x, y)]
}

// Set sets the depth at column x and row y.
func (dm *DepthMap) Set(x, y int, val Depth) {
	dm.data[dm.kxy(x, y)] = val
}

// Fill sets every sample to val.
func (dm *DepthMap) Fill(val Depth) {
	for i := range dm.data {
		dm.data[i] = val
	}
}

// FillRect sets every sample inside r, clipped to the map, to val.
func (dm *DepthMap) FillRect(r image.Rectangle, val Depth) {
	r = r.Intersect(dm.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			dm.Set(x, y, val)
		}
	}
}

// ColorModel for DepthMap so that it implements image.Image.
func (dm *DepthMap) ColorModel() color.Model {
	return color.Gray16Model
}

// Bounds for DepthMap so that it implements image.Image.
func (dm *DepthMap) Bounds() image.Rectangle {
	return image.Rect(0, 0, dm.width, dm.height)
}

// At returns the depth value as a color.Gray16.
func (dm *DepthMap) At(x, y int) color.Color {
	return color.Gray16{uint16(dm.GetDepth(x, y))}
}

// ToGray16Picture converts the depth map to an image.Gray16 so it can be stored as a 16-bit PNG.
func (dm *DepthMap) ToGray16Picture() *image.Gray16 {
	img := image.NewGray16(dm.Bounds())
	for y := 0; y < dm.height; y++ {
		for x := 0; x < dm.width; x++ {
			img.SetGray16(x, y, color.Gray16{uint16(dm.GetDepth(x, y))})
		}
	}
	return img
}

// ConvertImageToDepthMap takes an image and figures out if it's already a DepthMap
// or if it can be converted into one.
func ConvertImageToDepthMap(img image.Image) (*DepthMap, error) {
	switch ii := img.(type) {
	case *DepthMap:
		return ii, nil
	case *image.Gray16:
		bounds := ii.Bounds()
		dm := NewEmptyDepthMap(bounds.Dx(), bounds.Dy())
		for y := 0; y < dm.height; y++ {
			for x := 0; x < dm.width; x++ {
				dm.Set(x, y, Depth(ii.Gray16At(x+bounds.Min.X, y+bounds.Min.Y).Y))
			}
		}
		return dm, nil
	default:
		return nil, errors.Errorf("don't know how to make DepthMap from %T", img)
	}
}

// WriteTo writes the depth map in the raw format: little endian uint64 width and height
// followed by one uint64 per sample, column by column.
func (dm *DepthMap) WriteTo(out io.Writer) (int64, error) {
	buf := make([]byte, 8)
	var written int64
	put := func(v uint64) error {
		binary.LittleEndian.PutUint64(buf, v)
		n, err := out.Write(buf)
		written += int64(n)
		return err
	}

	if err := put(uint64(dm.width)); err != nil {
		return written, err
	}
	if err := put(uint64(dm.height)); err != nil {
		return written, err
	}
	for x := 0; x < dm.width; x++ {
		for y := 0; y < dm.height; y++ {
			if err := put(uint64(dm.GetDepth(x, y))); err != nil {
				return written, err
			}
		}
	}
	return written, nil
}

func readNext(r io.Reader) (uint64, error) {
	data := make([]byte, 8)
	if _, err := io.ReadFull(r, data); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(data), nil
}

// ReadDepthMap reads a depth map written by WriteTo.
func ReadDepthMap(r io.Reader) (*DepthMap, error) {
	br := bufio.NewReader(r)
	rawWidth, err := readNext(br)
	if err != nil {
		return nil, errors.Wrap(err, "cannot read depth map width")
	}
	rawHeight, err := readNext(br)
	if err != nil {
		return nil, errors.Wrap(err, "cannot read depth map height")
	}

	width, height := int(rawWidth), int(rawHeight)
	if width <= 0 || width >= 100000 || height <= 0 || height >= 100000 {
		return nil, errors.Errorf("bad width or height for depth map %v %v", width, height)
	}

	dm := NewEmptyDepthMap(width, height)
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			temp, err := readNext(br)
			if err != nil {
				return nil, errors.Wrapf(err, "cannot read depth at (%d,%d)", x, y)
			}
			if temp > uint64(MaxDepth) {
				return nil, errors.Errorf("depth %d at (%d,%d) out of range", temp, x, y)
			}
			dm.Set(x, y, Depth(temp))
		}
	}
	return dm, nil
}

// ReadDepthMapFile reads a raw depth map from fs, un-gzipping files ending in ".gz".
func ReadDepthMapFile(fs billy.Filesystem, fn string) (dm *DepthMap, err error) {
	f, err := fs.Open(fn)
	if err != nil {
		return nil, err
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()

	var r io.Reader = f
	if filepath.Ext(fn) == ".gz" {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, errors.Wrapf(err, "cannot open gzip stream of %s", fn)
		}
		defer func() {
			err = multierr.Combine(err, gz.Close())
		}()
		r = gz
	}
	return ReadDepthMap(r)
}

// WriteDepthMapFile writes dm to fs, gzipping files ending in ".gz".
func WriteDepthMapFile(fs billy.Filesystem, fn string, dm *DepthMap) (err error) {
	f, err := fs.Create(fn)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()

	if filepath.Ext(fn) != ".gz" {
		_, err = dm.WriteTo(f)
		return err
	}

	gz := gzip.NewWriter(f)
	if _, err := dm.WriteTo(gz); err != nil {
		return multierr.Combine(err, gz.Close())
	}
	return gz.Close()
}

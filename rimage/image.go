package rimage

import (
	"image"
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"
	"golang.org/x/image/draw"
)

// PixelFormat is the channel order of a 3-channel color frame.
type PixelFormat int

const (
	// PixelFormatRGB stores red in the first channel.
	PixelFormatRGB PixelFormat = iota
	// PixelFormatBGR stores blue in the first channel, as color sensors commonly deliver.
	PixelFormatBGR
)

func (pf PixelFormat) String() string {
	switch pf {
	case PixelFormatRGB:
		return "rgb"
	case PixelFormatBGR:
		return "bgr"
	default:
		return "unknown"
	}
}

// ParsePixelFormat parses "rgb" or "bgr". An empty string means bgr.
func ParsePixelFormat(s string) (PixelFormat, error) {
	switch s {
	case "rgb":
		return PixelFormatRGB, nil
	case "bgr", "":
		return PixelFormatBGR, nil
	default:
		return PixelFormatBGR, errors.Errorf("unknown pixel format %q, expected rgb or bgr", s)
	}
}

// ToRGBA copies img into a new RGBA image whose origin is (0,0), swapping the first and third
// channels if img is stored as BGR.
func ToRGBA(img image.Image, format PixelFormat) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	if format == PixelFormatBGR {
		SwapRedBlue(dst)
	}
	return dst
}

// SwapRedBlue exchanges the red and blue channel of every pixel in place.
func SwapRedBlue(img *image.RGBA) {
	for y := 0; y < img.Rect.Dy(); y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+img.Rect.Dx()*4]
		for i := 0; i < len(row); i += 4 {
			row[i], row[i+2] = row[i+2], row[i]
		}
	}
}

// ResizeColor scales img to width x height. Every output pixel blends the two source pixels
// nearest its centre on each axis, whatever the scale factor, so a downscale samples rather than
// averages the source.
func ResizeColor(img image.Image, width, height int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}

// DisplayCopy returns an RGB copy of a color frame resized to the display resolution. The
// source frame is never modified.
func DisplayCopy(img image.Image, format PixelFormat, width, height int) *image.RGBA {
	b := img.Bounds()
	if b.Dx() == width && b.Dy() == height {
		return ToRGBA(img, format)
	}
	dst := ResizeColor(img, width, height)
	if format == PixelFormatBGR {
		SwapRedBlue(dst)
	}
	return dst
}

// ParseColor parses a hex color such as "#7d7dfa" into an opaque color.RGBA.
func ParseColor(hex string) (color.RGBA, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return color.RGBA{}, errors.Wrapf(err, "invalid color %q", hex)
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}, nil
}

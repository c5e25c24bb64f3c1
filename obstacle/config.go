package obstacle

import (
	"image/color"

	"github.com/pkg/errors"

	"go.viam.com/obstaclemap/rimage"
)

// Defaults for a 640x480 depth camera feeding a 480x360 display.
const (
	DefaultGridWidth       = 128
	DefaultGridHeight      = 96
	DefaultSafetyDistanceM = 0.5
	DefaultDisplayWidth    = 480
	DefaultDisplayHeight   = 360
	DefaultMarkerColor     = "#7d7dfa"
	DefaultMarkerRadius    = 2
)

// Config is the fixed configuration of a Detector. It is validated once at startup; nothing in
// it changes between ticks.
type Config struct {
	GridWidth       int     `json:"grid_width,omitempty"`
	GridHeight      int     `json:"grid_height,omitempty"`
	SafetyDistanceM float64 `json:"safety_distance_m,omitempty"`
	DisplayWidth    int     `json:"display_width,omitempty"`
	DisplayHeight   int     `json:"display_height,omitempty"`
	MarkerColor     string  `json:"marker_color,omitempty"`
	MarkerRadius    int     `json:"marker_radius,omitempty"`
	ShowStatus      bool    `json:"show_status,omitempty"`
	DepthPreview    *bool   `json:"depth_preview,omitempty"`
}

// DefaultConfig returns the configuration of the original vessel setup.
func DefaultConfig() Config {
	return Config{}.WithDefaults()
}

// WithDefaults fills unset fields.
func (c Config) WithDefaults() Config {
	if c.GridWidth == 0 {
		c.GridWidth = DefaultGridWidth
	}
	if c.GridHeight == 0 {
		c.GridHeight = DefaultGridHeight
	}
	if c.SafetyDistanceM == 0 {
		c.SafetyDistanceM = DefaultSafetyDistanceM
	}
	if c.DisplayWidth == 0 {
		c.DisplayWidth = DefaultDisplayWidth
	}
	if c.DisplayHeight == 0 {
		c.DisplayHeight = DefaultDisplayHeight
	}
	if c.MarkerColor == "" {
		c.MarkerColor = DefaultMarkerColor
	}
	if c.MarkerRadius == 0 {
		c.MarkerRadius = DefaultMarkerRadius
	}
	if c.DepthPreview == nil {
		preview := true
		c.DepthPreview = &preview
	}
	return c
}

// Validate ensures all parts of the config are valid.
func (c *Config) Validate(path string) error {
	if c.GridWidth < 2 || c.GridHeight < 2 {
		return errors.Errorf("%s: decimated grid must be at least 2x2, got %dx%d", path, c.GridWidth, c.GridHeight)
	}
	if c.SafetyDistanceM <= 0 {
		return errors.Errorf("%s: safety_distance_m must be positive, got %v", path, c.SafetyDistanceM)
	}
	if c.DisplayWidth <= 0 || c.DisplayHeight <= 0 {
		return errors.Errorf("%s: display resolution must be positive, got %dx%d", path, c.DisplayWidth, c.DisplayHeight)
	}
	if c.MarkerRadius < 0 {
		return errors.Errorf("%s: marker_radius cannot be negative", path)
	}
	if _, err := rimage.ParseColor(c.MarkerColor); err != nil {
		return errors.Wrapf(err, "%s: marker_color", path)
	}
	return nil
}

// ValidateSource checks that the decimated grid fits the depth stream it will be derived from.
func (c *Config) ValidateSource(path string, width, height int) error {
	if c.GridWidth > width || c.GridHeight > height {
		return errors.Errorf("%s: decimated grid %dx%d is larger than the %dx%d depth stream",
			path, c.GridWidth, c.GridHeight, width, height)
	}
	return nil
}

func (c *Config) markerColor() color.RGBA {
	mc, err := rimage.ParseColor(c.MarkerColor)
	if err != nil {
		// Validate rejects unparsable colors
		panic(err)
	}
	return mc
}

// Package framesource defines the boundary between the obstacle pipeline and the sensor that
// produces time aligned depth and color frames, along with a synthetic and a replay source.
package framesource

import (
	"context"
	"image"
	"time"

	"github.com/pkg/errors"
	goutils "go.viam.com/utils"

	"go.viam.com/obstaclemap/logging"
	"go.viam.com/obstaclemap/rimage"
)

// ErrFrameUnavailable is returned for a tick whose pair lacks the depth or the color frame.
var ErrFrameUnavailable = errors.New("frame unavailable")

// Source types.
const (
	FakeType   = "fake"
	ReplayType = "replay"
)

// FramePair is a time aligned depth and color frame. The pair is owned by the tick that
// received it.
type FramePair struct {
	Depth       *rimage.DepthMap
	Color       image.Image
	ColorFormat rimage.PixelFormat
	CapturedAt  time.Time
	Seq         uint64
}

// Validate returns ErrFrameUnavailable, annotated with what is missing, if either frame is absent.
func (fp FramePair) Validate() error {
	switch {
	case !fp.Depth.HasData() && fp.Color == nil:
		return errors.Wrap(ErrFrameUnavailable, "missing depth and color")
	case !fp.Depth.HasData():
		return errors.Wrap(ErrFrameUnavailable, "missing depth")
	case fp.Color == nil:
		return errors.Wrap(ErrFrameUnavailable, "missing color")
	}
	return nil
}

// A Source produces frame pairs. NextFramePair blocks until a pair is available or ctx is done.
type Source interface {
	NextFramePair(ctx context.Context) (FramePair, error)
	Close(ctx context.Context) error
}

// Config describes which source to build and the sensor stream it produces.
type Config struct {
	Type        string  `json:"type"`
	Width       int     `json:"width,omitempty"`
	Height      int     `json:"height,omitempty"`
	FPS         float64 `json:"fps,omitempty"`
	ColorFormat string  `json:"color_format,omitempty"`

	// replay only
	Path string `json:"path,omitempty"`
	Loop bool   `json:"loop,omitempty"`

	// fake only
	BackgroundMM       int `json:"background_mm,omitempty"`
	ObstacleDistanceMM int `json:"obstacle_distance_mm,omitempty"`
	DropColorEvery     int `json:"drop_color_every,omitempty"`
}

// Defaults match a depth camera streaming z16 depth and bgr8 color at 640x480, 30fps.
const (
	DefaultWidth              = 640
	DefaultHeight             = 480
	DefaultFPS                = 30
	DefaultBackgroundMM       = 2000
	DefaultObstacleDistanceMM = 400
)

// DefaultConfig returns the config of the synthetic source.
func DefaultConfig() Config {
	return Config{Type: FakeType, ColorFormat: "bgr"}
}

// WithDefaults fills unset fields.
func (c Config) WithDefaults() Config {
	if c.Type == "" {
		c.Type = FakeType
	}
	if c.Width == 0 {
		c.Width = DefaultWidth
	}
	if c.Height == 0 {
		c.Height = DefaultHeight
	}
	if c.FPS == 0 {
		c.FPS = DefaultFPS
	}
	if c.BackgroundMM == 0 {
		c.BackgroundMM = DefaultBackgroundMM
	}
	if c.ObstacleDistanceMM == 0 {
		c.ObstacleDistanceMM = DefaultObstacleDistanceMM
	}
	return c
}

// Validate ensures all parts of the config are valid.
func (c *Config) Validate(path string) error {
	switch c.Type {
	case FakeType, "":
	case ReplayType:
		if c.Path == "" {
			return goutils.NewConfigValidationFieldRequiredError(path, "path")
		}
	default:
		return errors.Errorf("%s: unknown frame source type %q", path, c.Type)
	}
	if c.Width < 0 || c.Height < 0 {
		return errors.Errorf("%s: got illegal negative dimensions %dx%d", path, c.Width, c.Height)
	}
	if c.FPS < 0 {
		return errors.Errorf("%s: fps cannot be negative", path)
	}
	if c.BackgroundMM < 0 || c.BackgroundMM > int(rimage.MaxDepth) ||
		c.ObstacleDistanceMM < 0 || c.ObstacleDistanceMM > int(rimage.MaxDepth) {
		return errors.Errorf("%s: depths must be between 0 and %d mm", path, rimage.MaxDepth)
	}
	if c.DropColorEvery < 0 {
		return errors.Errorf("%s: drop_color_every cannot be negative", path)
	}
	if _, err := rimage.ParsePixelFormat(c.ColorFormat); err != nil {
		return errors.Wrap(err, path)
	}
	return nil
}

// NewSource builds the source described by cfg.
func NewSource(cfg Config, logger logging.Logger) (Source, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate("source"); err != nil {
		return nil, err
	}
	switch cfg.Type {
	case ReplayType:
		return NewReplaySourceFromDir(cfg, logger)
	default:
		return NewFakeSource(cfg, logger)
	}
}

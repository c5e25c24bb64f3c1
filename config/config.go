// Package config defines the structures that configure the obstacle pipeline and how they are
// read from disk.
package config

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	"go.viam.com/obstaclemap/framesource"
	"go.viam.com/obstaclemap/obstacle"
	"go.viam.com/obstaclemap/recorder"
)

// Defaults for the scheduling intervals.
const (
	DefaultDisplayInterval = 10 * time.Millisecond
	DefaultFrameTimeout    = 5 * time.Second
)

// Duration is a time.Duration written in JSON as a string such as "250ms" or "1s".
type Duration time.Duration

// MarshalJSON marshals the duration as a string.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// UnmarshalJSON accepts a duration string or a number of nanoseconds.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
	case string:
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		*d = Duration(parsed)
	default:
		return errors.Errorf("invalid duration %s", string(data))
	}
	return nil
}

// RecorderConfig is the JSON form of recorder.Config.
type RecorderConfig struct {
	Interval    Duration `json:"interval,omitempty"`
	JPEGQuality int      `json:"jpeg_quality,omitempty"`
	Directory   string   `json:"directory,omitempty"`
}

// Recorder returns the recorder configuration with defaults applied.
func (rc RecorderConfig) Recorder() recorder.Config {
	return recorder.Config{
		Interval:    time.Duration(rc.Interval),
		JPEGQuality: rc.JPEGQuality,
		Directory:   rc.Directory,
	}.WithDefaults()
}

// Config describes the whole pipeline: where frames come from, how they are scanned, and how
// often things happen.
type Config struct {
	ConfigFilePath string `json:"-"`

	Source          framesource.Config `json:"source"`
	Detector        obstacle.Config    `json:"detector"`
	Recorder        RecorderConfig     `json:"recorder"`
	DisplayInterval Duration           `json:"display_interval,omitempty"`
	FrameTimeout    Duration           `json:"frame_timeout,omitempty"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{Source: framesource.Config{Type: framesource.FakeType}}
	cfg.Ensure()
	return cfg
}

// Ensure fills every unset field with its default.
func (c *Config) Ensure() {
	if c.Source.Type == "" {
		c.Source.Type = framesource.FakeType
	}
	c.Source = c.Source.WithDefaults()
	c.Detector = c.Detector.WithDefaults()
	if c.Recorder.Interval == 0 {
		c.Recorder.Interval = Duration(recorder.DefaultInterval)
	}
	if c.Recorder.JPEGQuality == 0 {
		c.Recorder.JPEGQuality = recorder.DefaultJPEGQuality
	}
	if c.DisplayInterval == 0 {
		c.DisplayInterval = Duration(DefaultDisplayInterval)
	}
	if c.FrameTimeout == 0 {
		c.FrameTimeout = Duration(DefaultFrameTimeout)
	}
}

// Validate ensures all parts of the config are valid. Ensure should be called first.
func (c *Config) Validate() error {
	if err := c.Source.Validate("source"); err != nil {
		return err
	}
	if err := c.Detector.Validate("detector"); err != nil {
		return err
	}
	if err := c.Detector.ValidateSource("detector", c.Source.Width, c.Source.Height); err != nil {
		return err
	}
	recCfg := c.Recorder.Recorder()
	if err := recCfg.Validate("recorder"); err != nil {
		return err
	}
	if c.DisplayInterval <= 0 {
		return errors.New("display_interval must be positive")
	}
	if c.FrameTimeout <= 0 {
		return errors.New("frame_timeout must be positive")
	}
	return nil
}

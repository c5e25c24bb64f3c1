package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.viam.com/test"

	"go.viam.com/obstaclemap/framesource"
	"go.viam.com/obstaclemap/logging"
)

func TestFromReaderValidate(t *testing.T) {
	ctx := context.Background()
	logger := logging.NewTestLogger(t)

	_, err := FromReader(ctx, "somepath", strings.NewReader(""), logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "EOF")

	_, err = FromReader(ctx, "somepath", strings.NewReader(`{"detector": 1}`), logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "unmarshal")

	conf, err := FromReader(ctx, "somepath", strings.NewReader(`{}`), logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, conf.ConfigFilePath, test.ShouldEqual, "somepath")
	test.That(t, conf.Source.Type, test.ShouldEqual, framesource.FakeType)
	test.That(t, conf.Source.Width, test.ShouldEqual, 640)
	test.That(t, conf.Source.Height, test.ShouldEqual, 480)
	test.That(t, conf.Detector.GridWidth, test.ShouldEqual, 128)
	test.That(t, conf.Detector.SafetyDistanceM, test.ShouldEqual, 0.5)
	test.That(t, conf.Detector.MarkerColor, test.ShouldEqual, "#7d7dfa")
	test.That(t, time.Duration(conf.DisplayInterval), test.ShouldEqual, 10*time.Millisecond)
	test.That(t, time.Duration(conf.FrameTimeout), test.ShouldEqual, 5*time.Second)
	test.That(t, conf.Recorder.Recorder().Interval, test.ShouldEqual, time.Second)
	test.That(t, conf.Recorder.Recorder().JPEGQuality, test.ShouldEqual, 95)

	_, err = FromReader(ctx, "somepath", strings.NewReader(`{"source": {"type": "replay"}}`), logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "source")
	test.That(t, err.Error(), test.ShouldContainSubstring, `"path" is required`)

	_, err = FromReader(ctx, "somepath", strings.NewReader(`{"source": {"width": 100, "height": 80}}`), logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "larger than")

	_, err = FromReader(ctx, "somepath", strings.NewReader(`{"detector": {"marker_color": "purple"}}`), logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "marker_color")

	_, err = FromReader(ctx, "somepath", strings.NewReader(`{"display_interval": "soon"}`), logger)
	test.That(t, err, test.ShouldNotBeNil)

	_, err = FromReader(ctx, "somepath", strings.NewReader(`{"recorder": {"jpeg_quality": 400}}`), logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "jpeg_quality")
}

func TestFromReaderFull(t *testing.T) {
	conf, err := FromReader(context.Background(), "full", strings.NewReader(`{
		"source": {"type": "fake", "width": 320, "height": 240, "fps": 15, "color_format": "rgb"},
		"detector": {"grid_width": 64, "grid_height": 48, "safety_distance_m": 1.5, "show_status": true},
		"recorder": {"interval": "250ms", "directory": "/tmp/frames"},
		"display_interval": "33ms",
		"frame_timeout": 2000000000
	}`), logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, conf.Source.Width, test.ShouldEqual, 320)
	test.That(t, conf.Source.FPS, test.ShouldEqual, 15.0)
	test.That(t, conf.Detector.GridWidth, test.ShouldEqual, 64)
	test.That(t, conf.Detector.SafetyDistanceM, test.ShouldEqual, 1.5)
	test.That(t, conf.Detector.ShowStatus, test.ShouldBeTrue)
	test.That(t, conf.Detector.DisplayWidth, test.ShouldEqual, 480)
	test.That(t, conf.Recorder.Recorder().Interval, test.ShouldEqual, 250*time.Millisecond)
	test.That(t, conf.Recorder.Directory, test.ShouldEqual, "/tmp/frames")
	test.That(t, time.Duration(conf.DisplayInterval), test.ShouldEqual, 33*time.Millisecond)
	test.That(t, time.Duration(conf.FrameTimeout), test.ShouldEqual, 2*time.Second)
}

func TestRead(t *testing.T) {
	t.Setenv("OBSTACLEMAP_SAFETY", "0.75")
	fn := filepath.Join(t.TempDir(), "config.json")
	err := os.WriteFile(fn, []byte(`{"detector": {"safety_distance_m": ${OBSTACLEMAP_SAFETY}}}`), 0o600)
	test.That(t, err, test.ShouldBeNil)

	conf, err := Read(context.Background(), fn, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, conf.ConfigFilePath, test.ShouldEqual, fn)
	test.That(t, conf.Detector.SafetyDistanceM, test.ShouldEqual, 0.75)

	_, err = Read(context.Background(), filepath.Join(t.TempDir(), "missing.json"), logging.NewTestLogger(t))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestDuration(t *testing.T) {
	d := Duration(1500 * time.Millisecond)
	data, err := d.MarshalJSON()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(data), test.ShouldEqual, `"1.5s"`)

	var back Duration
	test.That(t, back.UnmarshalJSON(data), test.ShouldBeNil)
	test.That(t, back, test.ShouldEqual, d)
	test.That(t, back.UnmarshalJSON([]byte(`true`)), test.ShouldNotBeNil)
}

func TestDefault(t *testing.T) {
	cfg := Default()
	test.That(t, cfg.Validate(), test.ShouldBeNil)
	test.That(t, cfg.Source.Type, test.ShouldEqual, framesource.FakeType)
}

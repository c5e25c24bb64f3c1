package obstacle

import (
	"context"
	"image"
	"image/color"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/obstaclemap/framesource"
	"go.viam.com/obstaclemap/logging"
	"go.viam.com/obstaclemap/rimage"
)

func TestConfig(t *testing.T) {
	cfg := DefaultConfig()
	test.That(t, cfg.Validate("detector"), test.ShouldBeNil)
	test.That(t, cfg.GridWidth, test.ShouldEqual, 128)
	test.That(t, cfg.GridHeight, test.ShouldEqual, 96)
	test.That(t, cfg.SafetyDistanceM, test.ShouldEqual, 0.5)
	test.That(t, cfg.DisplayWidth, test.ShouldEqual, 480)
	test.That(t, cfg.DisplayHeight, test.ShouldEqual, 360)
	test.That(t, cfg.markerColor(), test.ShouldResemble, color.RGBA{125, 125, 250, 255})
	test.That(t, cfg.MarkerRadius, test.ShouldEqual, 2)
	test.That(t, cfg.ShowStatus, test.ShouldBeFalse)
	test.That(t, *cfg.DepthPreview, test.ShouldBeTrue)

	for _, tc := range []struct {
		name   string
		modify func(*Config)
		errMsg string
	}{
		{"tiny grid", func(c *Config) { c.GridWidth = 1 }, "at least 2x2"},
		{"negative safety", func(c *Config) { c.SafetyDistanceM = -1 }, "safety_distance_m"},
		{"bad display", func(c *Config) { c.DisplayHeight = -5 }, "display resolution"},
		{"bad radius", func(c *Config) { c.MarkerRadius = -1 }, "marker_radius"},
		{"bad color", func(c *Config) { c.MarkerColor = "blue" }, "marker_color"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.modify(&cfg)
			err := cfg.Validate("detector")
			test.That(t, err, test.ShouldNotBeNil)
			test.That(t, err.Error(), test.ShouldContainSubstring, "detector")
			test.That(t, err.Error(), test.ShouldContainSubstring, tc.errMsg)
		})
	}

	test.That(t, cfg.ValidateSource("detector", 640, 480), test.ShouldBeNil)
	test.That(t, cfg.ValidateSource("detector", 100, 480), test.ShouldNotBeNil)
}

func testPair(depth *rimage.DepthMap) framesource.FramePair {
	return framesource.FramePair{
		Depth:       depth,
		Color:       solidColor(640, 480, color.RGBA{40, 40, 40, 255}),
		ColorFormat: rimage.PixelFormatBGR,
		Seq:         7,
	}
}

func TestDetectorProcess(t *testing.T) {
	logger := logging.NewTestLogger(t)
	d, err := NewDetector(Config{}, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, d.Scale().X, test.ShouldEqual, 3.75)
	test.That(t, d.Config().GridWidth, test.ShouldEqual, 128)

	t.Run("clear", func(t *testing.T) {
		res, err := d.Process(context.Background(), testPair(rimage.NewUniformDepthMap(640, 480, 2000)))
		test.That(t, err, test.ShouldBeNil)
		test.That(t, res.Seq, test.ShouldEqual, uint64(7))
		test.That(t, res.Samples, test.ShouldBeEmpty)
		test.That(t, res.Summary.Clear(), test.ShouldBeTrue)
		test.That(t, res.Grid.Width(), test.ShouldEqual, 128)
		test.That(t, res.Grid.Height(), test.ShouldEqual, 96)
		test.That(t, res.Annotated.Bounds(), test.ShouldResemble, image.Rect(0, 0, 480, 360))
		test.That(t, res.DepthPreview.Bounds(), test.ShouldResemble, image.Rect(0, 0, 128, 96))
	})

	t.Run("near block", func(t *testing.T) {
		dm := rimage.NewUniformDepthMap(640, 480, 2000)
		dm.FillRect(image.Rect(320, 240, 400, 300), 300)
		res, err := d.Process(context.Background(), testPair(dm))
		test.That(t, err, test.ShouldBeNil)
		test.That(t, res.Samples, test.ShouldHaveLength, 16*12)
		test.That(t, res.Summary.Nearest, test.ShouldEqual, 0.3)
		test.That(t, cmp.Equal(res.Samples, Scan(res.Grid, d.Config().SafetyDistanceM)), test.ShouldBeTrue)
		test.That(t, cmp.Diff(res.Summary, Summarize(res.Samples)), test.ShouldBeEmpty)
		p := d.Scale().Remap(48, 64)
		test.That(t, res.Annotated.RGBAAt(p.X, p.Y), test.ShouldResemble, color.RGBA{125, 125, 250, 255})
	})

	t.Run("missing frames", func(t *testing.T) {
		pair := testPair(rimage.NewUniformDepthMap(640, 480, 400))
		pair.Color = nil
		_, err := d.Process(context.Background(), pair)
		test.That(t, errors.Is(err, framesource.ErrFrameUnavailable), test.ShouldBeTrue)

		pair = testPair(nil)
		_, err = d.Process(context.Background(), pair)
		test.That(t, errors.Is(err, framesource.ErrFrameUnavailable), test.ShouldBeTrue)
	})

	t.Run("depth smaller than grid", func(t *testing.T) {
		_, err := d.Process(context.Background(), testPair(rimage.NewUniformDepthMap(100, 80, 400)))
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "larger than")
	})
}

func TestDetectorOptions(t *testing.T) {
	off := false
	plain, err := NewDetector(Config{DepthPreview: &off}, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	status, err := NewDetector(Config{ShowStatus: true, DepthPreview: &off}, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)

	pair := testPair(rimage.NewUniformDepthMap(640, 480, 2000))
	a, err := plain.Process(context.Background(), pair)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, a.DepthPreview, test.ShouldBeNil)
	b, err := status.Process(context.Background(), pair)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, b.Annotated.Pix, test.ShouldNotResemble, a.Annotated.Pix)

	_, err = NewDetector(Config{MarkerColor: "nope"}, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldNotBeNil)
}

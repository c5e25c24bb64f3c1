package framesource

import (
	"context"
	"image"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	"go.viam.com/test"
	"gopkg.in/src-d/go-billy.v4/memfs"

	"go.viam.com/obstaclemap/logging"
	"go.viam.com/obstaclemap/rimage"
)

func solidBGR(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestReplayRoundTrip(t *testing.T) {
	fs := memfs.New()
	for seq := uint64(0); seq < 3; seq++ {
		pair := FramePair{
			Depth:       rimage.NewUniformDepthMap(32, 24, rimage.Depth(1000*(seq+1))),
			Color:       solidBGR(32, 24, color.RGBA{R: 200, G: 20, B: 20, A: 255}),
			ColorFormat: rimage.PixelFormatBGR,
		}
		test.That(t, WriteReplayPair(fs, seq, pair), test.ShouldBeNil)
	}

	rs := NewReplaySource(fs, true, logging.NewTestLogger(t))
	for tick := uint64(0); tick < 5; tick++ {
		pair, err := rs.NextFramePair(context.Background())
		test.That(t, err, test.ShouldBeNil)
		test.That(t, pair.Validate(), test.ShouldBeNil)
		test.That(t, pair.Seq, test.ShouldEqual, tick)
		test.That(t, pair.ColorFormat, test.ShouldEqual, rimage.PixelFormatRGB)
		test.That(t, pair.Depth.GetDepth(5, 5), test.ShouldEqual, rimage.Depth(1000*(tick%3+1)))

		// stored as RGB, so the blue-first input now reads mostly blue; jpeg is lossy
		r, _, b, _ := pair.Color.At(16, 12).RGBA()
		test.That(t, b>>8, test.ShouldBeGreaterThan, 150)
		test.That(t, r>>8, test.ShouldBeLessThan, 80)
	}
	test.That(t, rs.Close(context.Background()), test.ShouldBeNil)
}

func TestReplayEnd(t *testing.T) {
	fs := memfs.New()
	test.That(t, WriteReplayPair(fs, 0, FramePair{Depth: rimage.NewUniformDepthMap(8, 8, 500)}), test.ShouldBeNil)

	rs := NewReplaySource(fs, false, logging.NewTestLogger(t))
	pair, err := rs.NextFramePair(context.Background())
	test.That(t, err, test.ShouldBeNil)
	// the color file was never written
	test.That(t, pair.Validate(), test.ShouldNotBeNil)

	_, err = rs.NextFramePair(context.Background())
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, IsEndOfReplay(err), test.ShouldBeTrue)
}

func TestReplayCancelled(t *testing.T) {
	rs := NewReplaySource(memfs.New(), true, logging.NewTestLogger(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := rs.NextFramePair(ctx)
	test.That(t, errors.Is(err, context.Canceled), test.ShouldBeTrue)
}

func TestReplayPNGDepth(t *testing.T) {
	fs := memfs.New()
	dm := rimage.NewUniformDepthMap(16, 12, 2000)
	dm.Set(3, 4, 350)

	f, err := fs.Create(ReplayDepthPNGName(0))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, imaging.Encode(f, dm.ToGray16Picture(), imaging.PNG), test.ShouldBeNil)
	test.That(t, f.Close(), test.ShouldBeNil)
	test.That(t, WriteReplayPair(fs, 0, FramePair{
		Color:       solidBGR(16, 12, color.RGBA{G: 255, A: 255}),
		ColorFormat: rimage.PixelFormatRGB,
	}), test.ShouldBeNil)

	rs := NewReplaySource(fs, false, logging.NewTestLogger(t))
	pair, err := rs.NextFramePair(context.Background())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pair.Validate(), test.ShouldBeNil)
	test.That(t, pair.Depth.Width(), test.ShouldEqual, 16)
	test.That(t, pair.Depth.GetDepth(3, 4), test.ShouldEqual, rimage.Depth(350))
	test.That(t, pair.Depth.GetDepth(0, 0), test.ShouldEqual, rimage.Depth(2000))

	t.Run("color png is not depth", func(t *testing.T) {
		fs := memfs.New()
		f, err := fs.Create(ReplayDepthPNGName(0))
		test.That(t, err, test.ShouldBeNil)
		test.That(t, imaging.Encode(f, solidBGR(4, 4, color.RGBA{R: 9, A: 255}), imaging.PNG), test.ShouldBeNil)
		test.That(t, f.Close(), test.ShouldBeNil)

		_, err = NewReplaySource(fs, false, logging.NewTestLogger(t)).NextFramePair(context.Background())
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "don't know how to make DepthMap")
	})
}

package framesource

import (
	"context"
	"image"
	"image/color"
	"math"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/disintegration/imaging"
	"go.opencensus.io/trace"

	"go.viam.com/obstaclemap/logging"
	"go.viam.com/obstaclemap/rimage"
)

// FakeSource synthesizes a scene: a flat background, a near block sweeping left to right, and
// a band of no-return samples along the top edge.
type FakeSource struct {
	cfg    Config
	format rimage.PixelFormat
	logger logging.Logger
	clk    clock.Clock

	seq   uint64
	next  time.Time
	color *image.RGBA
}

// NewFakeSource returns a synthetic source paced at cfg.FPS on the wall clock.
func NewFakeSource(cfg Config, logger logging.Logger) (*FakeSource, error) {
	return newFakeSourceWithClock(cfg, clock.New(), logger)
}

func newFakeSourceWithClock(cfg Config, clk clock.Clock, logger logging.Logger) (*FakeSource, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate("source"); err != nil {
		return nil, err
	}
	format, err := rimage.ParsePixelFormat(cfg.ColorFormat)
	if err != nil {
		return nil, err
	}
	fs := &FakeSource{
		cfg:    cfg,
		format: format,
		logger: logger,
		clk:    clk,
		color:  gradient(cfg.Width, cfg.Height),
	}
	if format == rimage.PixelFormatBGR {
		rimage.SwapRedBlue(fs.color)
	}
	logger.Debugw("fake frame source ready", "width", cfg.Width, "height", cfg.Height, "fps", cfg.FPS, "format", format)
	return fs, nil
}

// gradient is a yellow to blue gradient from the top left corner.
func gradient(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	width := float64(w)
	height := float64(h)
	totalDist := math.Sqrt(width*width + height*height)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dist := math.Sqrt(float64(x*x+y*y)) / totalDist
			img.SetRGBA(x, y, color.RGBA{uint8(255 - (255 * dist)), uint8(255 - (255 * dist)), uint8(255 * dist), 255})
		}
	}
	return img
}

// ObstacleRect returns where the near block is for the frame with the given sequence number.
func (fs *FakeSource) ObstacleRect(seq uint64) image.Rectangle {
	blockW, blockH := fs.cfg.Width/4, fs.cfg.Height/4
	travel := fs.cfg.Width - blockW
	x0 := 0
	if travel > 0 {
		x0 = int((seq * 8) % uint64(travel))
	}
	y0 := fs.cfg.Height/2 - blockH/2
	return image.Rect(x0, y0, x0+blockW, y0+blockH)
}

// DropoutRect returns the band of zero depth along the top edge.
func (fs *FakeSource) DropoutRect() image.Rectangle {
	return image.Rect(0, 0, fs.cfg.Width, fs.cfg.Height/16)
}

func (fs *FakeSource) depthScene(seq uint64) *rimage.DepthMap {
	dm := rimage.NewUniformDepthMap(fs.cfg.Width, fs.cfg.Height, rimage.Depth(fs.cfg.BackgroundMM))
	dm.FillRect(fs.ObstacleRect(seq), rimage.Depth(fs.cfg.ObstacleDistanceMM))
	dm.FillRect(fs.DropoutRect(), 0)
	return dm
}

func (fs *FakeSource) waitForFrame(ctx context.Context) error {
	if fs.cfg.FPS <= 0 {
		return ctx.Err()
	}
	period := time.Duration(float64(time.Second) / fs.cfg.FPS)
	now := fs.clk.Now()
	if fs.next.Before(now) {
		fs.next = now
	}
	if wait := fs.next.Sub(now); wait > 0 {
		timer := fs.clk.Timer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	fs.next = fs.next.Add(period)
	return nil
}

// NextFramePair blocks until the next frame is due and returns a freshly rendered pair.
func (fs *FakeSource) NextFramePair(ctx context.Context) (FramePair, error) {
	ctx, span := trace.StartSpan(ctx, "framesource::fake::NextFramePair")
	defer span.End()

	if err := fs.waitForFrame(ctx); err != nil {
		return FramePair{}, err
	}
	seq := fs.seq
	fs.seq++

	pair := FramePair{
		Depth:       fs.depthScene(seq),
		Color:       imaging.Clone(fs.color),
		ColorFormat: fs.format,
		CapturedAt:  fs.clk.Now(),
		Seq:         seq,
	}
	if every := uint64(fs.cfg.DropColorEvery); every > 0 && (seq+1)%every == 0 {
		pair.Color = nil
	}
	return pair, nil
}

// Close does nothing.
func (fs *FakeSource) Close(ctx context.Context) error {
	return nil
}

package framesource

import (
	"context"
	"fmt"
	"image"
	"os"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	"go.opencensus.io/trace"
	"go.uber.org/multierr"
	"gopkg.in/src-d/go-billy.v4"
	"gopkg.in/src-d/go-billy.v4/osfs"

	"go.viam.com/obstaclemap/logging"
	"go.viam.com/obstaclemap/rimage"
)

// ReplayDepthName names the depth file of a replay pair in the raw depth map format.
func ReplayDepthName(seq uint64) string {
	return fmt.Sprintf("%05d.dat.gz", seq)
}

// ReplayDepthPNGName names the depth file of a replay pair stored as a 16-bit grayscale PNG,
// one millimetre per gray level. It is only read when the raw file is absent.
func ReplayDepthPNGName(seq uint64) string {
	return fmt.Sprintf("%05d.png", seq)
}

// ReplayColorName names the color file of a replay pair.
func ReplayColorName(seq uint64) string {
	return fmt.Sprintf("%05d.jpg", seq)
}

// ReplaySource plays back pairs stored as 00000.dat.gz (or 00000.png) and 00000.jpg,
// 00001.dat.gz and 00001.jpg, and so on. A color file without a depth file, or the reverse, is delivered as an
// incomplete pair.
type ReplaySource struct {
	fs     billy.Filesystem
	loop   bool
	logger logging.Logger

	seq   uint64
	ticks uint64
}

// NewReplaySourceFromDir plays back the directory cfg.Path.
func NewReplaySourceFromDir(cfg Config, logger logging.Logger) (*ReplaySource, error) {
	info, err := os.Stat(cfg.Path)
	if err != nil {
		return nil, errors.Wrap(err, "cannot open replay directory")
	}
	if !info.IsDir() {
		return nil, errors.Errorf("replay path %q is not a directory", cfg.Path)
	}
	return NewReplaySource(osfs.New(cfg.Path), cfg.Loop, logger), nil
}

// NewReplaySource plays back the pairs stored at the root of fs.
func NewReplaySource(fs billy.Filesystem, loop bool, logger logging.Logger) *ReplaySource {
	return &ReplaySource{fs: fs, loop: loop, logger: logger}
}

func (rs *ReplaySource) exists(name string) bool {
	_, err := rs.fs.Stat(name)
	return err == nil
}

func (rs *ReplaySource) readDepth(seq uint64) (*rimage.DepthMap, error) {
	if name := ReplayDepthName(seq); rs.exists(name) {
		dm, err := rimage.ReadDepthMapFile(rs.fs, name)
		return dm, errors.Wrapf(err, "cannot read %s", name)
	}
	name := ReplayDepthPNGName(seq)
	img, err := rs.readImage(name)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot decode %s", name)
	}
	dm, err := rimage.ConvertImageToDepthMap(img)
	return dm, errors.Wrap(err, name)
}

func (rs *ReplaySource) hasDepth(seq uint64) bool {
	return rs.exists(ReplayDepthName(seq)) || rs.exists(ReplayDepthPNGName(seq))
}

func (rs *ReplaySource) readImage(name string) (img image.Image, err error) {
	f, err := rs.fs.Open(name)
	if err != nil {
		return nil, err
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()
	return imaging.Decode(f)
}

// NextFramePair returns the next stored pair. At the end of the recording it wraps around when
// looping and otherwise returns an error for which IsEndOfReplay is true.
func (rs *ReplaySource) NextFramePair(ctx context.Context) (FramePair, error) {
	_, span := trace.StartSpan(ctx, "framesource::replay::NextFramePair")
	defer span.End()

	if err := ctx.Err(); err != nil {
		return FramePair{}, err
	}

	colorName := ReplayColorName(rs.seq)
	if !rs.hasDepth(rs.seq) && !rs.exists(colorName) {
		if rs.seq == 0 {
			return FramePair{}, errors.New("replay directory holds no frames")
		}
		if !rs.loop {
			return FramePair{}, errors.Wrapf(errEndOfReplay, "after %d frames", rs.seq)
		}
		rs.logger.Debugw("replay wrapped around", "frames", rs.seq)
		rs.seq = 0
		colorName = ReplayColorName(0)
	}

	pair := FramePair{ColorFormat: rimage.PixelFormatRGB, Seq: rs.ticks}
	if rs.hasDepth(rs.seq) {
		dm, err := rs.readDepth(rs.seq)
		if err != nil {
			return FramePair{}, err
		}
		pair.Depth = dm
	}
	if rs.exists(colorName) {
		img, err := rs.readImage(colorName)
		if err != nil {
			return FramePair{}, errors.Wrapf(err, "cannot decode %s", colorName)
		}
		pair.Color = img
	}
	if info, err := rs.fs.Stat(colorName); err == nil {
		pair.CapturedAt = info.ModTime()
	}

	rs.seq++
	rs.ticks++
	return pair, nil
}

// Close does nothing.
func (rs *ReplaySource) Close(ctx context.Context) error {
	return nil
}

var errEndOfReplay = errors.New("end of replay")

// IsEndOfReplay returns whether err marks the end of a non-looping replay.
func IsEndOfReplay(err error) bool {
	return errors.Is(err, errEndOfReplay)
}

// WriteReplayPair stores pair so that a ReplaySource reads it back as frame seq. The color frame
// is written in RGB order.
func WriteReplayPair(fs billy.Filesystem, seq uint64, pair FramePair) (err error) {
	if pair.Depth.HasData() {
		if err := rimage.WriteDepthMapFile(fs, ReplayDepthName(seq), pair.Depth); err != nil {
			return err
		}
	}
	if pair.Color == nil {
		return nil
	}
	f, err := fs.Create(ReplayColorName(seq))
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()
	return imaging.Encode(f, rimage.ToRGBA(pair.Color, pair.ColorFormat), imaging.JPEG, imaging.JPEGQuality(95))
}

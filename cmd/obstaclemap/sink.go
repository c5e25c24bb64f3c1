package main

import (
	"context"
	"image"

	"github.com/disintegration/imaging"
	"go.uber.org/multierr"
	"gopkg.in/src-d/go-billy.v4"

	"go.viam.com/obstaclemap/logging"
	"go.viam.com/obstaclemap/obstacle"
)

const (
	annotatedPreviewName = "annotated.jpg"
	depthPreviewName     = "depth.jpg"

	// gridName holds the decimated grid in raw ticks, readable by the replay source.
	gridName = "grid.png"
)

// previewSink logs obstacle transitions and optionally keeps the latest frames on disk.
type previewSink struct {
	logger logging.Logger
	fs     billy.Filesystem

	clear         bool
	ticks         int
	notifications int
}

func newPreviewSink(logger logging.Logger) *previewSink {
	return &previewSink{logger: logger, clear: true}
}

func (s *previewSink) Show(ctx context.Context, res *obstacle.Result) {
	s.ticks++
	if clear := res.Summary.Clear(); clear != s.clear {
		s.clear = clear
		if clear {
			s.logger.Infow("path clear", "seq", res.Seq)
		} else {
			s.logger.Infow("obstacle ahead",
				"seq", res.Seq,
				"nearest_m", res.Summary.Nearest,
				"mean_m", res.Summary.Mean,
				"samples", res.Summary.Count,
				"saved_frames", res.SavedFrames)
		}
	}
	s.logger.CDebugw(ctx, "tick", "seq", res.Seq, "summary", res.Summary.String())

	if s.fs == nil {
		return
	}
	err := s.writeImage(annotatedPreviewName, res.Annotated, imaging.JPEG)
	if res.DepthPreview != nil {
		err = multierr.Combine(err, s.writeImage(depthPreviewName, res.DepthPreview, imaging.JPEG))
	}
	if res.Grid.HasData() {
		err = multierr.Combine(err, s.writeImage(gridName, res.Grid.ToGray16Picture(), imaging.PNG))
	}
	if err != nil {
		s.logger.Warnw("failed to write preview", "error", err)
	}
}

func (s *previewSink) Notify(err error) {
	s.notifications++
	s.logger.Warnw("pipeline notification", "error", err)
}

func (s *previewSink) writeImage(name string, img image.Image, format imaging.Format) (err error) {
	f, err := s.fs.Create(name)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()
	return imaging.Encode(f, img, format)
}

// Package recorder persists raw color frames for dataset capture.
package recorder

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	"go.opencensus.io/trace"
	"go.uber.org/multierr"
	"gopkg.in/src-d/go-billy.v4"
	"gopkg.in/src-d/go-billy.v4/osfs"

	"go.viam.com/obstaclemap/logging"
	"go.viam.com/obstaclemap/rimage"
)

// FilenameFormat names the nth captured frame.
const FilenameFormat = "%05d.jpg"

// Defaults.
const (
	DefaultInterval    = time.Second
	DefaultJPEGQuality = 95
)

var errNoFrame = errors.New("no color frame to capture")

// WriteFailureError is returned when a frame could not be persisted. The sequence counter is not
// advanced.
type WriteFailureError struct {
	Filename string
	cause    error
}

// NewWriteFailureError returns an error for a failed write of filename.
func NewWriteFailureError(filename string, cause error) error {
	return &WriteFailureError{Filename: filename, cause: cause}
}

func (e *WriteFailureError) Error() string {
	return fmt.Sprintf("failed to record frame %q: %v", e.Filename, e.cause)
}

func (e *WriteFailureError) Unwrap() error {
	return e.cause
}

// State is the recording toggle and running sequence counter. It is owned by whoever schedules
// captures and must only be touched from that goroutine.
type State struct {
	Enabled  bool
	Sequence uint
}

// Start enables recording. Starting after a stop restarts numbering at zero; starting while
// already enabled changes nothing.
func (s *State) Start() {
	if s.Enabled {
		return
	}
	s.Enabled = true
	s.Sequence = 0
}

// Stop disables recording. The counter keeps its value until the next Start.
func (s *State) Stop() {
	s.Enabled = false
}

// Toggle flips between Start and Stop and reports whether recording is now enabled.
func (s *State) Toggle() bool {
	if s.Enabled {
		s.Stop()
	} else {
		s.Start()
	}
	return s.Enabled
}

// Config describes where and how often frames are recorded.
type Config struct {
	Interval    time.Duration `json:"-"`
	JPEGQuality int           `json:"jpeg_quality,omitempty"`
	Directory   string        `json:"directory,omitempty"`
}

// WithDefaults fills unset fields.
func (c Config) WithDefaults() Config {
	if c.Interval == 0 {
		c.Interval = DefaultInterval
	}
	if c.JPEGQuality == 0 {
		c.JPEGQuality = DefaultJPEGQuality
	}
	return c
}

// Validate ensures all parts of the config are valid.
func (c *Config) Validate(path string) error {
	if c.Interval < 0 {
		return errors.Errorf("%s: interval cannot be negative", path)
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		return errors.Errorf("%s: jpeg_quality must be between 1 and 100, got %d", path, c.JPEGQuality)
	}
	return nil
}

// A Recorder writes frames to a filesystem.
type Recorder struct {
	fs      billy.Filesystem
	quality int
	logger  logging.Logger
}

// NewRecorder returns a recorder writing into fs.
func NewRecorder(fs billy.Filesystem, jpegQuality int, logger logging.Logger) *Recorder {
	if jpegQuality == 0 {
		jpegQuality = DefaultJPEGQuality
	}
	return &Recorder{fs: fs, quality: jpegQuality, logger: logger}
}

// NewRecorderFromDir returns a recorder writing into dir on the local disk, creating it if needed.
func NewRecorderFromDir(dir string, jpegQuality int, logger logging.Logger) (*Recorder, error) {
	fs := osfs.New(dir)
	if err := fs.MkdirAll(".", 0o755); err != nil {
		return nil, errors.Wrapf(err, "cannot create recording directory %q", dir)
	}
	return NewRecorder(fs, jpegQuality, logger), nil
}

// Filename returns the name the frame with the given sequence number is stored under.
func Filename(seq uint) string {
	return fmt.Sprintf(FilenameFormat, seq)
}

// MaybeCapture writes frame under the state's current sequence number if recording is enabled,
// then advances the counter. It reports whether a frame was written. On failure the counter is
// left alone and a *WriteFailureError is returned.
func (r *Recorder) MaybeCapture(ctx context.Context, frame image.Image, format rimage.PixelFormat, state *State) (bool, error) {
	if !state.Enabled {
		return false, nil
	}
	_, span := trace.StartSpan(ctx, "recorder::Recorder::MaybeCapture")
	defer span.End()

	name := Filename(state.Sequence)
	if frame == nil {
		return false, NewWriteFailureError(name, errNoFrame)
	}
	if err := r.write(name, rimage.ToRGBA(frame, format)); err != nil {
		if rmErr := r.fs.Remove(name); rmErr == nil {
			r.logger.Debugw("removed partial recording", "file", name)
		}
		return false, NewWriteFailureError(name, err)
	}
	state.Sequence++
	r.logger.CDebugw(ctx, "recorded frame", "file", name)
	return true, nil
}

func (r *Recorder) write(name string, img image.Image) (err error) {
	f, err := r.fs.Create(name)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()
	return imaging.Encode(f, img, imaging.JPEG, imaging.JPEGQuality(r.quality))
}

// Package runner drives the obstacle pipeline: it owns the display and recording cadences and
// is the only goroutine that touches recording state.
package runner

import (
	"context"
	"image"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"go.viam.com/obstaclemap/framesource"
	"go.viam.com/obstaclemap/logging"
	"go.viam.com/obstaclemap/obstacle"
	"go.viam.com/obstaclemap/recorder"
	"go.viam.com/obstaclemap/rimage"
	"go.viam.com/obstaclemap/utils"
)

// A Sink receives what the pipeline produces. Both methods are called from the loop goroutine
// and should return quickly.
type Sink interface {
	// Show receives the result of every successful display tick.
	Show(ctx context.Context, res *obstacle.Result)
	// Notify receives recorder failures and skipped ticks.
	Notify(err error)
}

// Config holds the cadences of the loop.
type Config struct {
	DisplayInterval time.Duration
	SaveInterval    time.Duration
	FrameTimeout    time.Duration
	// StartRecording enables recording before the first tick.
	StartRecording bool
}

// recordingRequest is either a toggle or an explicit on/off.
type recordingRequest struct {
	toggle  bool
	enabled bool
}

// Runner schedules display and save ticks on a single goroutine.
type Runner struct {
	id       uuid.UUID
	cfg      Config
	source   framesource.Source
	detector *obstacle.Detector
	recorder *recorder.Recorder
	sink     Sink
	logger   logging.Logger
	clk      clock.Clock

	requests chan recordingRequest
	started  chan struct{}
	done     chan struct{}

	// owned by the loop goroutine
	state       recorder.State
	latest      image.Image
	latestFmt   rimage.PixelFormat
	skippedRuns int
}

// New returns a runner. rec may be nil, in which case recording requests are ignored.
func New(
	cfg Config,
	source framesource.Source,
	detector *obstacle.Detector,
	rec *recorder.Recorder,
	sink Sink,
	logger logging.Logger,
) (*Runner, error) {
	return newWithClock(cfg, source, detector, rec, sink, clock.New(), logger)
}

func newWithClock(
	cfg Config,
	source framesource.Source,
	detector *obstacle.Detector,
	rec *recorder.Recorder,
	sink Sink,
	clk clock.Clock,
	logger logging.Logger,
) (*Runner, error) {
	if cfg.DisplayInterval <= 0 || cfg.SaveInterval <= 0 || cfg.FrameTimeout <= 0 {
		return nil, errors.Errorf("intervals must be positive, got display=%v save=%v timeout=%v",
			cfg.DisplayInterval, cfg.SaveInterval, cfg.FrameTimeout)
	}
	if source == nil || detector == nil || sink == nil {
		return nil, errors.New("runner needs a frame source, a detector, and a sink")
	}
	return &Runner{
		id:       uuid.New(),
		cfg:      cfg,
		source:   source,
		detector: detector,
		recorder: rec,
		sink:     sink,
		logger:   logger,
		clk:      clk,
		requests: make(chan recordingRequest),
		started:  make(chan struct{}),
		done:     make(chan struct{}),
	}, nil
}

// ID identifies this run in logs.
func (r *Runner) ID() uuid.UUID {
	return r.id
}

// Done is closed once Run returns.
func (r *Runner) Done() <-chan struct{} {
	return r.done
}

// SetRecording asks the loop to start or stop recording. It blocks until the loop picks the
// request up between ticks, ctx is done, or the loop has exited.
func (r *Runner) SetRecording(ctx context.Context, enabled bool) error {
	return r.request(ctx, recordingRequest{enabled: enabled})
}

// ToggleRecording asks the loop to flip the recording state. Turning recording back on restarts
// the file counter at zero.
func (r *Runner) ToggleRecording(ctx context.Context) error {
	return r.request(ctx, recordingRequest{toggle: true})
}

func (r *Runner) request(ctx context.Context, req recordingRequest) error {
	select {
	case r.requests <- req:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-r.done:
		return errors.New("pipeline is not running")
	}
}

// Start runs the loop in the background. Stop the returned workers to end it; Stop reports the
// error the loop ended with, if any.
func (r *Runner) Start(ctx context.Context) utils.StoppableWorkers {
	return utils.NewStoppableWorkers(ctx, r.Run)
}

// Run blocks, ticking until ctx is done or the frame source is exhausted.
func (r *Runner) Run(ctx context.Context) error {
	defer close(r.done)
	display := r.clk.Ticker(r.cfg.DisplayInterval)
	defer display.Stop()
	save := r.clk.Ticker(r.cfg.SaveInterval)
	defer save.Stop()

	if r.cfg.StartRecording {
		r.setRecording(true)
	}
	close(r.started)
	r.logger.Infow("pipeline running",
		"run_id", r.id.String(),
		"display_interval", r.cfg.DisplayInterval,
		"save_interval", r.cfg.SaveInterval,
		"recording", r.state.Enabled)

	for {
		select {
		case <-ctx.Done():
			return nil
		case req := <-r.requests:
			enabled := req.enabled
			if req.toggle {
				enabled = !r.state.Enabled
			}
			r.setRecording(enabled)
		case <-display.C:
			if err := r.displayTick(ctx); err != nil {
				if framesource.IsEndOfReplay(err) {
					r.logger.Info("frame source exhausted")
					return nil
				}
				return err
			}
		case <-save.C:
			r.saveTick(ctx)
		}
	}
}

func (r *Runner) setRecording(enabled bool) {
	if r.recorder == nil {
		if enabled {
			r.logger.Warn("recording requested but no recorder is configured")
		}
		return
	}
	if enabled == r.state.Enabled {
		return
	}
	if enabled {
		r.state.Start()
	} else {
		r.state.Stop()
	}
	r.logger.Infow("recording toggled", "enabled", enabled, "sequence", r.state.Sequence)
}

// displayTick acquires one pair and processes it. Only errors that should end the loop are
// returned.
func (r *Runner) displayTick(ctx context.Context) error {
	frameCtx, cancel := context.WithTimeout(ctx, r.cfg.FrameTimeout)
	pair, err := r.source.NextFramePair(frameCtx)
	cancel()
	if err != nil {
		switch {
		case ctx.Err() != nil:
			return nil
		case errors.Is(err, context.DeadlineExceeded):
			r.skip(errors.Wrapf(framesource.ErrFrameUnavailable, "no frame pair within %v", r.cfg.FrameTimeout))
			return nil
		case errors.Is(err, framesource.ErrFrameUnavailable):
			r.skip(err)
			return nil
		default:
			return err
		}
	}

	// a missing color frame must not leave an older frame to be recorded; skip clears it too
	r.latest, r.latestFmt = pair.Color, pair.ColorFormat

	res, err := r.detector.Process(ctx, pair)
	if err != nil {
		if errors.Is(err, framesource.ErrFrameUnavailable) {
			r.skip(err)
			return nil
		}
		return err
	}
	res.SavedFrames = r.state.Sequence
	r.sink.Show(ctx, res)
	return nil
}

func (r *Runner) skip(err error) {
	r.latest, r.latestFmt = nil, 0
	r.skippedRuns++
	r.logger.Warnw("skipping tick", "error", err, "skipped", r.skippedRuns)
	r.sink.Notify(err)
}

func (r *Runner) saveTick(ctx context.Context) {
	if r.recorder == nil || !r.state.Enabled {
		return
	}
	if r.latest == nil {
		r.logger.Debug("no color frame to record yet")
		return
	}
	if _, err := r.recorder.MaybeCapture(ctx, r.latest, r.latestFmt, &r.state); err != nil {
		r.logger.Errorw("recording failed", "error", err)
		r.sink.Notify(err)
	}
}

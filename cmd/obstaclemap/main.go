// Package main runs the obstacle map pipeline against a configured frame source.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"
	"gopkg.in/src-d/go-billy.v4/osfs"

	"go.viam.com/obstaclemap/config"
	"go.viam.com/obstaclemap/framesource"
	"go.viam.com/obstaclemap/logging"
	"go.viam.com/obstaclemap/obstacle"
	"go.viam.com/obstaclemap/recorder"
	"go.viam.com/obstaclemap/runner"
	"go.viam.com/obstaclemap/utils"
)

const (
	// Flags.
	flagConfig     = "config"
	flagLogLevel   = "log-level"
	flagRecordDir  = "record-dir"
	flagRecord     = "record"
	flagPreviewDir = "preview-dir"
	flagDuration   = "duration"
	flagDebugTicks = "debug-ticks"
)

func main() {
	logger := logging.NewLogger("obstaclemap")

	app := &cli.App{
		Name:  "obstaclemap",
		Usage: "flag depth samples closer than a safety distance and mark them on the color stream",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagConfig,
				Aliases: []string{"c"},
				Usage:   "load configuration from `FILE`",
			},
			&cli.StringFlag{
				Name:  flagLogLevel,
				Value: "info",
				Usage: "one of debug, info, warn, error",
			},
			&cli.StringFlag{
				Name:  flagRecordDir,
				Usage: "record raw color frames into `DIR`, overriding recorder.directory",
			},
			&cli.BoolFlag{
				Name:  flagRecord,
				Usage: "start recording immediately",
			},
			&cli.StringFlag{
				Name:  flagPreviewDir,
				Usage: "write the latest annotated frame and depth preview into `DIR`",
			},
			&cli.DurationFlag{
				Name:  flagDuration,
				Usage: "stop after this long; zero runs until interrupted",
			},
			&cli.BoolFlag{
				Name:  flagDebugTicks,
				Usage: "log every tick at debug level without lowering the log level",
			},
		},
		Before: func(c *cli.Context) error {
			level, err := logging.LevelFromString(c.String(flagLogLevel))
			if err != nil {
				return err
			}
			logger.SetLevel(level)
			return nil
		},
		Action: func(c *cli.Context) error {
			return run(c, logger)
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Error(err)
		os.Exit(1)
	}
}

func run(c *cli.Context, logger logging.Logger) (err error) {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()
	if d := c.Duration(flagDuration); d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}
	if c.Bool(flagDebugTicks) {
		ctx = logging.EnableDebugMode(ctx, "")
	}

	cfg := config.Default()
	if path := c.String(flagConfig); path != "" {
		if cfg, err = config.Read(ctx, path, logger); err != nil {
			return err
		}
	}
	if dir := c.String(flagRecordDir); dir != "" {
		cfg.Recorder.Directory = dir
	}

	source, err := framesource.NewSource(cfg.Source, logger.Sublogger("source"))
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, source.Close(context.Background()))
	}()

	detector, err := obstacle.NewDetector(cfg.Detector, logger.Sublogger("detector"))
	if err != nil {
		return err
	}

	recCfg := cfg.Recorder.Recorder()
	var rec *recorder.Recorder
	if recCfg.Directory != "" {
		if rec, err = recorder.NewRecorderFromDir(recCfg.Directory, recCfg.JPEGQuality, logger.Sublogger("recorder")); err != nil {
			return err
		}
	} else if c.Bool(flagRecord) {
		return errors.Errorf("--%s needs --%s or recorder.directory", flagRecord, flagRecordDir)
	}

	sink := newPreviewSink(logger.Sublogger("display"))
	if dir := c.String(flagPreviewDir); dir != "" {
		fs := osfs.New(dir)
		if err := fs.MkdirAll(".", 0o755); err != nil {
			return errors.Wrapf(err, "cannot create preview directory %q", dir)
		}
		sink.fs = fs
	}

	rnr, err := runner.New(runner.Config{
		DisplayInterval: time.Duration(cfg.DisplayInterval),
		SaveInterval:    recCfg.Interval,
		FrameTimeout:    time.Duration(cfg.FrameTimeout),
		StartRecording:  c.Bool(flagRecord),
	}, source, detector, rec, sink, logger.Sublogger("runner"))
	if err != nil {
		return err
	}

	toggle := make(chan os.Signal, 1)
	if sigs := recordToggleSignals(); len(sigs) > 0 {
		signal.Notify(toggle, sigs...)
		defer signal.Stop(toggle)
	}
	if err := supervise(ctx, rnr, rnr.Start(ctx), toggle, logger); err != nil {
		return err
	}
	logger.Infow("stopped", "run_id", rnr.ID().String(), "ticks", sink.ticks, "notifications", sink.notifications)
	return nil
}

// supervise waits for the pipeline loop to end and flips recording on every signal received on
// toggle. Restarting recording begins a new 00000 sequence.
func supervise(
	ctx context.Context,
	rnr *runner.Runner,
	workers utils.StoppableWorkers,
	toggle <-chan os.Signal,
	logger logging.Logger,
) error {
	for {
		select {
		case <-rnr.Done():
			return workers.Stop()
		case sig := <-toggle:
			logger.Infow("toggling recording", "signal", sig.String())
			if err := rnr.ToggleRecording(ctx); err != nil {
				logger.Debugw("recording toggle dropped", "error", err)
			}
		}
	}
}

package obstacle

import (
	"context"
	"image"
	"image/color"

	"go.opencensus.io/trace"

	"go.viam.com/obstaclemap/framesource"
	"go.viam.com/obstaclemap/logging"
	"go.viam.com/obstaclemap/rimage"
)

// Result is everything one tick produced.
type Result struct {
	Seq       uint64
	Grid      *rimage.DepthMap
	Samples   []Sample
	Summary   Summary
	Annotated *image.RGBA
	// DepthPreview is nil when the preview is disabled.
	DepthPreview *image.RGBA
	// SavedFrames is filled in by the caller that owns the recorder.
	SavedFrames uint
}

// Detector runs decimate, scan, and overlay over frame pairs with a fixed configuration.
type Detector struct {
	cfg         Config
	scale       DisplayScale
	markerColor color.RGBA
	logger      logging.Logger
}

// NewDetector validates cfg and derives the display scale.
func NewDetector(cfg Config, logger logging.Logger) (*Detector, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate("detector"); err != nil {
		return nil, err
	}
	scale, err := NewDisplayScale(cfg.GridWidth, cfg.GridHeight, cfg.DisplayWidth, cfg.DisplayHeight)
	if err != nil {
		return nil, err
	}
	logger.Debugw("detector configured",
		"grid", image.Pt(cfg.GridWidth, cfg.GridHeight),
		"display", scale.Display().Max,
		"scale_x", scale.X,
		"scale_y", scale.Y,
		"safety_distance_m", cfg.SafetyDistanceM)
	return &Detector{
		cfg:         cfg,
		scale:       scale,
		markerColor: cfg.markerColor(),
		logger:      logger,
	}, nil
}

// Scale returns the display scale derived at construction.
func (d *Detector) Scale() DisplayScale {
	return d.scale
}

// Config returns the effective configuration.
func (d *Detector) Config() Config {
	return d.cfg
}

// Process runs the pipeline over one pair. A pair missing either frame returns
// framesource.ErrFrameUnavailable and nothing is drawn.
func (d *Detector) Process(ctx context.Context, pair framesource.FramePair) (*Result, error) {
	_, span := trace.StartSpan(ctx, "obstacle::Detector::Process")
	defer span.End()

	if err := pair.Validate(); err != nil {
		return nil, err
	}
	if err := d.cfg.ValidateSource("detector", pair.Depth.Width(), pair.Depth.Height()); err != nil {
		return nil, err
	}

	grid, err := rimage.Decimate(pair.Depth, d.cfg.GridWidth, d.cfg.GridHeight)
	if err != nil {
		return nil, err
	}
	samples := Scan(grid, d.cfg.SafetyDistanceM)
	summary := Summarize(samples)
	span.AddAttributes(trace.Int64Attribute("samples", int64(summary.Count)))

	annotated := Overlay(pair.Color, pair.ColorFormat, samples, d.scale, d.markerColor, d.cfg.MarkerRadius)
	if d.cfg.ShowStatus {
		rimage.DrawStatus(annotated, summary.String(), d.markerColor)
	}

	res := &Result{
		Seq:       pair.Seq,
		Grid:      grid,
		Samples:   samples,
		Summary:   summary,
		Annotated: annotated,
	}
	if d.cfg.DepthPreview == nil || *d.cfg.DepthPreview {
		res.DepthPreview = rimage.JetColorMap(grid, rimage.DefaultPreviewAlpha)
	}
	if !summary.Clear() {
		d.logger.CDebugw(ctx, "obstacles in range", "seq", pair.Seq, "count", summary.Count, "nearest_m", summary.Nearest)
	}
	return res, nil
}

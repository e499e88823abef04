// Package export turns a diagnosis result into a downloadable PDF or PNG.
//
// Every export goes through a Coordinator, which enforces one export at a
// time per source view, leaves the source view exactly as it found it, and
// reports failures as errors the caller can retry after.
package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/yuya1213/dental-clinic-app/internal/clinicdiag"
	"github.com/yuya1213/dental-clinic-app/internal/profile"
	"github.com/yuya1213/dental-clinic-app/internal/view"
)

var (
	ErrBusy     = errors.New("export already in progress")
	ErrRender   = errors.New("rendering failed")
	ErrAssemble = errors.New("assembling document failed")
	ErrNoView   = errors.New("source view not mounted")
)

// Renderer rasterizes a standalone HTML page of the given CSS width to PNG.
// It must return promptly once ctx is done.
type Renderer interface {
	Rasterize(ctx context.Context, html []byte, width int) ([]byte, error)
}

// DocumentBuilder assembles PDF files.
type DocumentBuilder interface {
	// Lang is the language the builder can typeset.
	Lang() clinicdiag.Lang
	// Structured lays out rep; a non-nil supplement PNG is appended as a
	// final page.
	Structured(rep Report, supplement []byte) ([]byte, error)
	// FromImage places a PNG capture on as many A4 pages as it needs.
	FromImage(rep Report, png []byte) ([]byte, error)
}

// Source identifies the view to capture: a view mounted in a document.
type Source struct {
	Doc    *view.Document
	ViewID string
}

func (s Source) key() string {
	return s.Doc.ID() + "/" + s.ViewID
}

type Request struct {
	Kind   Kind
	Source Source
	Record clinicdiag.Record

	// OnStart runs once the export is admitted; OnEnd runs when it finishes,
	// whatever the outcome. A rejected export runs neither.
	OnStart func()
	OnEnd   func()
}

type Artifact struct {
	Filename    string
	ContentType string
	Body        []byte
}

type Options struct {
	PDFMode       PDFMode
	Capture       CaptureMode
	RenderTimeout time.Duration
	Transform     view.Transform
	Locker        Locker
	Metrics       *Metrics
	// ViewportWidth widens the browser viewport beyond the view's own width.
	ViewportWidth int
}

type Coordinator struct {
	renderer  Renderer
	builder   DocumentBuilder
	profile   profile.Profile
	logger    *slog.Logger
	pdfMode   PDFMode
	capture   CaptureMode
	timeout   time.Duration
	transform view.Transform
	locker    Locker
	metrics   *Metrics
	viewport  int
}

func NewCoordinator(r Renderer, b DocumentBuilder, p profile.Profile, logger *slog.Logger, opts Options) *Coordinator {
	c := &Coordinator{
		renderer:  r,
		builder:   b,
		profile:   p,
		logger:    logger,
		pdfMode:   opts.PDFMode,
		capture:   opts.Capture,
		timeout:   opts.RenderTimeout,
		transform: opts.Transform,
		locker:    opts.Locker,
		metrics:   opts.Metrics,
		viewport:  opts.ViewportWidth,
	}
	if c.pdfMode == "" {
		c.pdfMode = PDFStructured
	}
	if c.capture == "" {
		c.capture = CaptureIsolated
	}
	if c.timeout <= 0 {
		c.timeout = 30 * time.Second
	}
	if c.transform == nil {
		c.transform = view.PrintContrast
	}
	if c.locker == nil {
		c.locker = NewLocalLocker()
	}
	return c
}

// Export produces the artifact for req. The source view is unchanged when
// Export returns, on success, on error and on panic.
func (c *Coordinator) Export(ctx context.Context, req Request) (art *Artifact, err error) {
	if req.Source.Doc == nil {
		return nil, fmt.Errorf("%w: no document", ErrNoView)
	}

	start := time.Now()
	defer func() {
		c.metrics.observe(req.Kind, c.pdfMode, err, time.Since(start))
	}()

	unlock, err := c.locker.TryLock(ctx, req.Source.key())
	if err != nil {
		return nil, err
	}
	defer unlock()

	if req.OnStart != nil {
		req.OnStart()
	}
	if req.OnEnd != nil {
		defer req.OnEnd()
	}

	var body []byte
	switch req.Kind {
	case KindImage:
		body, err = c.rasterize(ctx, req.Source)
	case KindPDF:
		body, err = c.pdf(ctx, req)
	default:
		err = fmt.Errorf("%w %q", ErrUnknownKind, req.Kind)
	}
	if err != nil {
		c.logger.Error("export failed",
			"record_id", req.Record.ID,
			"kind", req.Kind,
			"mode", c.pdfMode,
			"error", err,
		)
		return nil, err
	}

	art = &Artifact{
		Filename:    Filename(req.Record, req.Kind),
		ContentType: req.Kind.ContentType(),
		Body:        body,
	}
	c.logger.Info("export complete",
		"record_id", req.Record.ID,
		"kind", req.Kind,
		"bytes", len(body),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return art, nil
}

func (c *Coordinator) pdf(ctx context.Context, req Request) ([]byte, error) {
	rep := NewReport(req.Record, c.profile, c.builder.Lang())

	var (
		png []byte
		err error
	)
	if c.pdfMode == PDFSnapshot || c.pdfMode == PDFHybrid {
		png, err = c.rasterize(ctx, req.Source)
		if err != nil {
			return nil, err
		}
	}

	var doc []byte
	switch c.pdfMode {
	case PDFSnapshot:
		doc, err = c.builder.FromImage(rep, png)
	default:
		doc, err = c.builder.Structured(rep, png)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAssemble, err)
	}
	return doc, nil
}

// rasterize captures the source view with the presentation transform in
// effect for the duration of the capture only.
func (c *Coordinator) rasterize(ctx context.Context, src Source) ([]byte, error) {
	live, ok := src.Doc.Lookup(src.ViewID)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoView, src.ViewID)
	}

	target := live
	if c.capture == CaptureInPlace {
		restore := c.transform.Apply(live)
		defer restore()
	} else {
		target = live.Clone()
		id := src.Doc.MountOffscreen(target)
		defer src.Doc.Unmount(id)
		c.transform.Apply(target)
	}

	html, err := target.HTML()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRender, err)
	}

	rctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	png, err := c.renderer.Rasterize(rctx, html, max(target.Width, c.viewport))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRender, err)
	}
	return png, nil
}

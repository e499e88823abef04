package export_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"reflect"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/yuya1213/dental-clinic-app/internal/clinicdiag"
	"github.com/yuya1213/dental-clinic-app/internal/export"
	"github.com/yuya1213/dental-clinic-app/internal/profile"
	"github.com/yuya1213/dental-clinic-app/internal/view"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testRecord() clinicdiag.Record {
	answers := clinicdiag.AllAnswers(false)
	for q := 1; q <= 5; q++ {
		answers.Set(q, true)
	}
	return clinicdiag.Record{
		ID: "rec-1",
		ClinicInfo: clinicdiag.ClinicInfo{
			ClinicName:     "さくら歯科",
			RespondentName: "山田 太郎",
			Email:          "info@example.com",
			Date:           clinicdiag.Date{Year: 2025, Month: 3, Day: 1},
		},
		Answers:   answers,
		Results:   clinicdiag.Calculate(answers),
		CreatedAt: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := range w {
		img.Set(x, h/2, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// fakeRenderer runs fn (if set) and returns a fixed body.
type fakeRenderer struct {
	mu    sync.Mutex
	calls int
	width int
	fn    func(ctx context.Context) error
}

func (f *fakeRenderer) Rasterize(ctx context.Context, html []byte, width int) ([]byte, error) {
	f.mu.Lock()
	f.calls++
	f.width = width
	f.mu.Unlock()
	if f.fn != nil {
		if err := f.fn(ctx); err != nil {
			return nil, err
		}
	}
	return []byte("PNG"), nil
}

func (f *fakeRenderer) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeBuilder struct {
	structured int
	fromImage  int
	supplement []byte
	report     export.Report
	err        error
}

func (f *fakeBuilder) Lang() clinicdiag.Lang { return clinicdiag.LangJA }

func (f *fakeBuilder) Structured(rep export.Report, supplement []byte) ([]byte, error) {
	f.structured++
	f.report = rep
	f.supplement = supplement
	if f.err != nil {
		return nil, f.err
	}
	return []byte("%PDF-structured"), nil
}

func (f *fakeBuilder) FromImage(rep export.Report, png []byte) ([]byte, error) {
	f.fromImage++
	f.report = rep
	if f.err != nil {
		return nil, f.err
	}
	return []byte("%PDF-image"), nil
}

type fixture struct {
	doc    *view.Document
	live   *view.View
	record clinicdiag.Record
}

func newFixture() fixture {
	rec := testRecord()
	live := view.Build(rec, profile.Profile{Name: "株式会社メディカルネット"})
	doc := view.NewDocument("session-1")
	doc.Mount(view.LiveViewID, live)
	return fixture{doc: doc, live: live, record: rec}
}

func (f fixture) request(kind export.Kind) export.Request {
	return export.Request{
		Kind:   kind,
		Source: export.Source{Doc: f.doc, ViewID: view.LiveViewID},
		Record: f.record,
	}
}

func newCoordinator(r export.Renderer, b export.DocumentBuilder, opts export.Options) *export.Coordinator {
	return export.NewCoordinator(r, b, profile.Profile{}, slog.Default(), opts)
}

func TestExportImage(t *testing.T) {
	f := newFixture()
	c := newCoordinator(&fakeRenderer{}, &fakeBuilder{}, export.Options{})

	art, err := c.Export(context.Background(), f.request(export.KindImage))
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if art.ContentType != "image/png" {
		t.Errorf("content type = %q", art.ContentType)
	}
	if art.Filename != "診断結果_さくら歯科_2025-03-01.png" {
		t.Errorf("filename = %q", art.Filename)
	}
	if string(art.Body) != "PNG" {
		t.Errorf("body = %q", art.Body)
	}
}

func TestExportViewportWidth(t *testing.T) {
	tests := []struct {
		viewport int
		want     int
	}{
		{0, view.DefaultWidth},
		{600, view.DefaultWidth},
		{1200, 1200},
	}
	for _, tt := range tests {
		f := newFixture()
		r := &fakeRenderer{}
		c := newCoordinator(r, &fakeBuilder{}, export.Options{ViewportWidth: tt.viewport})
		if _, err := c.Export(context.Background(), f.request(export.KindImage)); err != nil {
			t.Fatalf("export: %v", err)
		}
		if r.width != tt.want {
			t.Errorf("viewport %d: rendered at %d, want %d", tt.viewport, r.width, tt.want)
		}
	}
}

func TestExportSingleFlight(t *testing.T) {
	f := newFixture()
	started := make(chan struct{})
	release := make(chan struct{})
	r := &fakeRenderer{fn: func(context.Context) error {
		close(started)
		<-release
		return nil
	}}
	c := newCoordinator(r, &fakeBuilder{}, export.Options{})

	done := make(chan error, 1)
	go func() {
		_, err := c.Export(context.Background(), f.request(export.KindImage))
		done <- err
	}()
	<-started

	var hooks int
	req := f.request(export.KindPDF)
	req.OnStart = func() { hooks++ }
	req.OnEnd = func() { hooks++ }
	if _, err := c.Export(context.Background(), req); !errors.Is(err, export.ErrBusy) {
		t.Fatalf("second export err = %v, want ErrBusy", err)
	}
	if hooks != 0 {
		t.Errorf("rejected export ran %d hooks", hooks)
	}

	// A different view is not blocked.
	other := newFixture()
	other.doc = view.NewDocument("session-2")
	other.doc.Mount(view.LiveViewID, other.live)
	if _, err := c.Export(context.Background(), other.request(export.KindPDF)); err != nil {
		t.Errorf("export of other view: %v", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first export: %v", err)
	}

	r.fn = nil
	if _, err := c.Export(context.Background(), f.request(export.KindImage)); err != nil {
		t.Errorf("export after release: %v", err)
	}
}

func TestExportInPlaceRestoresStyles(t *testing.T) {
	tests := []struct {
		name    string
		fail    error
		wantErr error
	}{
		{name: "success"},
		{name: "renderer failure", fail: errors.New("chrome crashed"), wantErr: export.ErrRender},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			before := f.live.Styles()

			var during string
			r := &fakeRenderer{fn: func(context.Context) error {
				during = f.live.Find("status-label").Style["color"]
				return tt.fail
			}}
			c := newCoordinator(r, &fakeBuilder{}, export.Options{Capture: export.CaptureInPlace})

			_, err := c.Export(context.Background(), f.request(export.KindImage))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if during != "#111827" {
				t.Errorf("transform not in effect during capture: %q", during)
			}
			if !reflect.DeepEqual(before, f.live.Styles()) {
				t.Error("live view styles not restored")
			}
		})
	}
}

func TestExportInPlaceRestoresAfterPanic(t *testing.T) {
	f := newFixture()
	before := f.live.Styles()
	r := &fakeRenderer{fn: func(context.Context) error { panic("renderer bug") }}
	c := newCoordinator(r, &fakeBuilder{}, export.Options{Capture: export.CaptureInPlace})

	func() {
		defer func() {
			if recover() == nil {
				t.Fatal("expected panic")
			}
		}()
		c.Export(context.Background(), f.request(export.KindImage))
	}()

	if !reflect.DeepEqual(before, f.live.Styles()) {
		t.Error("live view styles not restored after panic")
	}

	r.fn = nil
	if _, err := c.Export(context.Background(), f.request(export.KindImage)); err != nil {
		t.Errorf("guard not released after panic: %v", err)
	}
}

func TestExportIsolatedLeavesLiveView(t *testing.T) {
	f := newFixture()
	before := f.live.Styles()

	var mounted int
	var liveColor string
	r := &fakeRenderer{fn: func(context.Context) error {
		mounted = f.doc.Len()
		liveColor = f.live.Find("status-label").Style["color"]
		return errors.New("boom")
	}}
	c := newCoordinator(r, &fakeBuilder{}, export.Options{Capture: export.CaptureIsolated})

	if _, err := c.Export(context.Background(), f.request(export.KindImage)); !errors.Is(err, export.ErrRender) {
		t.Fatalf("err = %v, want ErrRender", err)
	}
	if mounted != 2 {
		t.Errorf("views mounted during capture = %d, want 2", mounted)
	}
	if liveColor == "#111827" {
		t.Error("live view was transformed")
	}
	if f.doc.Len() != 1 {
		t.Errorf("clone not unmounted: %d views", f.doc.Len())
	}
	if !reflect.DeepEqual(before, f.live.Styles()) {
		t.Error("live view styles changed")
	}
}

func TestExportTimeout(t *testing.T) {
	f := newFixture()
	r := &fakeRenderer{fn: func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}}
	c := newCoordinator(r, &fakeBuilder{}, export.Options{
		Capture:       export.CaptureInPlace,
		RenderTimeout: 20 * time.Millisecond,
	})
	before := f.live.Styles()

	_, err := c.Export(context.Background(), f.request(export.KindImage))
	if !errors.Is(err, export.ErrRender) || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want ErrRender wrapping deadline", err)
	}
	if !reflect.DeepEqual(before, f.live.Styles()) {
		t.Error("styles not restored after timeout")
	}
}

func TestExportHooks(t *testing.T) {
	for _, fail := range []bool{false, true} {
		f := newFixture()
		b := &fakeBuilder{}
		if fail {
			b.err = errors.New("disk full")
		}
		c := newCoordinator(&fakeRenderer{}, b, export.Options{})

		var events []string
		req := f.request(export.KindPDF)
		req.OnStart = func() { events = append(events, "start") }
		req.OnEnd = func() { events = append(events, "end") }

		_, err := c.Export(context.Background(), req)
		if fail != (err != nil) {
			t.Fatalf("fail=%v: err = %v", fail, err)
		}
		if fail && !errors.Is(err, export.ErrAssemble) {
			t.Errorf("err = %v, want ErrAssemble", err)
		}
		if !reflect.DeepEqual(events, []string{"start", "end"}) {
			t.Errorf("fail=%v: hooks = %v", fail, events)
		}
	}
}

func TestExportPDFModes(t *testing.T) {
	tests := []struct {
		mode           export.PDFMode
		wantRender     int
		wantStructured int
		wantFromImage  int
		wantSupplement bool
	}{
		{mode: export.PDFStructured, wantStructured: 1},
		{mode: export.PDFSnapshot, wantRender: 1, wantFromImage: 1},
		{mode: export.PDFHybrid, wantRender: 1, wantStructured: 1, wantSupplement: true},
	}

	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			f := newFixture()
			r := &fakeRenderer{}
			b := &fakeBuilder{}
			c := newCoordinator(r, b, export.Options{PDFMode: tt.mode})

			art, err := c.Export(context.Background(), f.request(export.KindPDF))
			if err != nil {
				t.Fatalf("export: %v", err)
			}
			if art.ContentType != "application/pdf" {
				t.Errorf("content type = %q", art.ContentType)
			}
			if r.Calls() != tt.wantRender {
				t.Errorf("renderer calls = %d, want %d", r.Calls(), tt.wantRender)
			}
			if b.structured != tt.wantStructured || b.fromImage != tt.wantFromImage {
				t.Errorf("builder calls = %d/%d", b.structured, b.fromImage)
			}
			if (b.supplement != nil) != tt.wantSupplement {
				t.Errorf("supplement = %v", b.supplement)
			}
			if b.report.Status != clinicdiag.StatusAtRisk || len(b.report.Advice) != 3 {
				t.Errorf("report = %+v", b.report)
			}
		})
	}
}

func TestExportMissingView(t *testing.T) {
	f := newFixture()
	c := newCoordinator(&fakeRenderer{}, &fakeBuilder{}, export.Options{})

	req := f.request(export.KindImage)
	req.Source.ViewID = "nope"
	if _, err := c.Export(context.Background(), req); !errors.Is(err, export.ErrNoView) {
		t.Errorf("err = %v, want ErrNoView", err)
	}
}

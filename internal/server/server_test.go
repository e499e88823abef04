package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/yuya1213/dental-clinic-app/internal/clinicdiag"
	"github.com/yuya1213/dental-clinic-app/internal/database"
	"github.com/yuya1213/dental-clinic-app/internal/export"
	"github.com/yuya1213/dental-clinic-app/internal/migrations"
	"github.com/yuya1213/dental-clinic-app/internal/profile"
	"github.com/yuya1213/dental-clinic-app/internal/submission"
)

var fixedNow = time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)

func setupStore(t *testing.T) *DocStore {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := migrations.RunContext(ctx, db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewDocStore(db)
}

// stubRenderer returns a small PNG, or blocks until release is closed when
// started is set.
type stubRenderer struct {
	err     error
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (r *stubRenderer) Rasterize(ctx context.Context, _ []byte, _ int) ([]byte, error) {
	if r.started != nil {
		r.once.Do(func() { close(r.started) })
		select {
		case <-r.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if r.err != nil {
		return nil, r.err
	}
	var buf bytes.Buffer
	png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4)))
	return buf.Bytes(), nil
}

type capturingNotifier struct {
	mu   sync.Mutex
	recs []clinicdiag.Record
}

func (n *capturingNotifier) Notify(_ context.Context, rec clinicdiag.Record) {
	n.mu.Lock()
	n.recs = append(n.recs, rec)
	n.mu.Unlock()
}

func (n *capturingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.recs)
}

type testEnv struct {
	router   chi.Router
	store    *DocStore
	sessions *Sessions
	notifier *capturingNotifier
}

func newTestEnv(t *testing.T, r export.Renderer) *testEnv {
	t.Helper()
	logger := slog.Default()
	store := setupStore(t)

	builder, err := export.NewPDFBuilder("")
	if err != nil {
		t.Fatalf("pdf builder: %v", err)
	}
	p := profile.Profile{Name: "Medical Net Inc.", Email: "support@example.com"}
	coord := export.NewCoordinator(r, builder, p, logger, export.Options{Capture: export.CaptureIsolated})

	now := func() time.Time { return fixedNow }
	sessions := NewSessions(func(id string, onChange func(*submission.Flow)) *submission.Flow {
		return submission.New(store, coord, p, submission.Options{ID: id, Now: now, Logger: logger, OnChange: onChange})
	}, time.Hour, logger)

	n := &capturingNotifier{}
	router := NewRouter(logger, Deps{
		Store:    store,
		Exporter: coord,
		Sessions: sessions,
		Notifier: n,
		Profile:  p,
		Now:      now,
	}, nil)
	return &testEnv{router: router, store: store, sessions: sessions, notifier: n}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func submissionBody(clinic string, yes int) map[string]any {
	answers := map[string]bool{}
	for q := 1; q <= clinicdiag.QuestionCount; q++ {
		answers[clinicdiag.QuestionID(q)] = q <= yes
	}
	return map[string]any{
		"clinicInfo": map[string]string{
			"clinicName":     clinic,
			"respondentName": "Taro Yamada",
			"email":          "info@example.com",
			"date":           "2025-03-01",
		},
		"answers": answers,
	}
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("decoding response: %v (body %q)", err, w.Body.String())
	}
	return v
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&clinicdiag.ValidationError{Fields: []string{"q1"}}, http.StatusBadRequest},
		{clinicdiag.ErrInconsistentResult, http.StatusBadRequest},
		{export.ErrUnknownKind, http.StatusBadRequest},
		{ErrNotFound, http.StatusNotFound},
		{export.ErrBusy, http.StatusConflict},
		{submission.ErrWrongState, http.StatusConflict},
		{submission.ErrPersist, http.StatusServiceUnavailable},
		{export.ErrRender, http.StatusBadGateway},
		{export.ErrAssemble, http.StatusBadGateway},
		{context.Canceled, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

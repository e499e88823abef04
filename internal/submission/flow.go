// Package submission drives one respondent through the questionnaire:
// fill in the form, submit it for scoring, then export the result.
package submission

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/yuya1213/dental-clinic-app/internal/clinicdiag"
	"github.com/yuya1213/dental-clinic-app/internal/export"
	"github.com/yuya1213/dental-clinic-app/internal/profile"
	"github.com/yuya1213/dental-clinic-app/internal/view"
)

type State string

const (
	Editing    State = "editing"
	Submitting State = "submitting"
	Scored     State = "scored"
	Exporting  State = "exporting"
)

var (
	ErrWrongState = errors.New("not allowed in current state")
	ErrPersist    = errors.New("saving diagnosis failed")
)

// Saver persists a scored record and returns it with its id and creation
// time assigned.
type Saver interface {
	SaveDiagnosis(ctx context.Context, rec clinicdiag.Record) (clinicdiag.Record, error)
}

type Exporter interface {
	Export(ctx context.Context, req export.Request) (*export.Artifact, error)
}

type Options struct {
	// ID names the flow's document; empty picks a random one.
	ID     string
	Now    func() time.Time
	Logger *slog.Logger
	// OnChange runs after every change to the form or state, without the
	// flow's lock held.
	OnChange func(*Flow)
}

// Flow is the state machine Editing -> Submitting -> Scored <-> Exporting.
// It is safe for concurrent use.
type Flow struct {
	saver    Saver
	exporter Exporter
	profile  profile.Profile
	now      func() time.Time
	logger   *slog.Logger
	doc      *view.Document
	onChange func(*Flow)

	mu            sync.Mutex
	state         State
	form          clinicdiag.Submission
	record        *clinicdiag.Record
	lastErr       string
	exportStarted time.Time
	lastActive    time.Time
}

func New(s Saver, e Exporter, p profile.Profile, opts Options) *Flow {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	f := &Flow{
		saver:    s,
		exporter: e,
		profile:  p,
		now:      opts.Now,
		logger:   opts.Logger,
		doc:      view.NewDocument(opts.ID),
		onChange: opts.OnChange,
	}
	f.reset()
	return f
}

func (f *Flow) reset() {
	f.state = Editing
	f.form = clinicdiag.Submission{
		ClinicInfo: clinicdiag.ClinicInfo{Date: clinicdiag.DateOf(f.now())},
	}
	f.record = nil
	f.lastErr = ""
	f.exportStarted = time.Time{}
	f.lastActive = f.now()
	f.doc.Unmount(view.LiveViewID)
}

func (f *Flow) ID() string { return f.doc.ID() }

// Document is the page the result view is mounted on.
func (f *Flow) Document() *view.Document { return f.doc }

func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// LastActive is when the flow was last changed or read.
func (f *Flow) LastActive() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastActive
}

func (f *Flow) changed() {
	if f.onChange != nil {
		f.onChange(f)
	}
}

func (f *Flow) editing() error {
	if f.state != Editing {
		return fmt.Errorf("%w: form is %s", ErrWrongState, f.state)
	}
	f.lastActive = f.now()
	return nil
}

func (f *Flow) edit(fn func() error) error {
	f.mu.Lock()
	err := f.editing()
	if err == nil {
		err = fn()
	}
	f.mu.Unlock()
	if err == nil {
		f.changed()
	}
	return err
}

// SetClinicInfo replaces the clinic fields. A zero date keeps today's.
func (f *Flow) SetClinicInfo(info clinicdiag.ClinicInfo) error {
	return f.edit(func() error {
		if info.Date.IsZero() {
			info.Date = f.form.ClinicInfo.Date
		}
		f.form.ClinicInfo = info
		return nil
	})
}

func (f *Flow) SetAnswer(q int, v bool) error {
	return f.edit(func() error { return f.form.Answers.Set(q, v) })
}

func (f *Flow) ClearAnswer(q int) error {
	return f.edit(func() error { return f.form.Answers.Clear(q) })
}

// Submit validates, scores and persists the form. On a validation or
// persistence failure the flow stays in Editing with the form intact.
func (f *Flow) Submit(ctx context.Context) (clinicdiag.Record, error) {
	f.mu.Lock()
	if err := f.editing(); err != nil {
		f.mu.Unlock()
		return clinicdiag.Record{}, err
	}
	sub := f.form.Normalize(f.now())
	if err := sub.Validate(); err != nil {
		f.mu.Unlock()
		return clinicdiag.Record{}, err
	}
	f.form = sub
	f.state = Submitting
	f.lastErr = ""
	f.mu.Unlock()
	f.changed()

	rec := clinicdiag.Record{
		ClinicInfo: sub.ClinicInfo,
		Answers:    sub.Answers,
		Results:    clinicdiag.Calculate(sub.Answers),
	}
	saved, err := f.saver.SaveDiagnosis(ctx, rec)

	f.mu.Lock()
	f.lastActive = f.now()
	if err != nil {
		f.state = Editing
		f.lastErr = err.Error()
		f.mu.Unlock()
		f.changed()
		f.logger.Error("saving diagnosis", "session", f.doc.ID(), "error", err)
		return clinicdiag.Record{}, fmt.Errorf("%w: %w", ErrPersist, err)
	}

	f.record = &saved
	f.doc.Mount(view.LiveViewID, view.Build(saved, f.profile))
	f.state = Scored
	f.mu.Unlock()
	f.changed()

	f.logger.Info("diagnosis scored",
		"session", f.doc.ID(),
		"record_id", saved.ID,
		"status", saved.Results.Status,
		"total_yes", saved.Results.TotalYes,
	)
	return saved, nil
}

// Export produces an artifact of the scored result. Only one export runs
// at a time; the flow is back in Scored afterwards whatever the outcome.
func (f *Flow) Export(ctx context.Context, kind export.Kind) (*export.Artifact, error) {
	f.mu.Lock()
	switch f.state {
	case Exporting:
		f.mu.Unlock()
		return nil, export.ErrBusy
	case Scored:
	default:
		state := f.state
		f.mu.Unlock()
		return nil, fmt.Errorf("%w: nothing to export while %s", ErrWrongState, state)
	}
	rec := *f.record
	f.state = Exporting
	f.lastErr = ""
	f.mu.Unlock()
	f.changed()

	defer func() {
		f.mu.Lock()
		f.state = Scored
		f.lastActive = f.now()
		f.mu.Unlock()
		f.changed()
	}()

	art, err := f.exporter.Export(ctx, export.Request{
		Kind:   kind,
		Source: export.Source{Doc: f.doc, ViewID: view.LiveViewID},
		Record: rec,
		OnStart: func() {
			f.mu.Lock()
			f.exportStarted = f.now()
			f.mu.Unlock()
		},
		OnEnd: func() {
			f.mu.Lock()
			f.exportStarted = time.Time{}
			f.mu.Unlock()
		},
	})
	if err != nil {
		f.mu.Lock()
		f.lastErr = err.Error()
		f.mu.Unlock()
		return nil, err
	}
	return art, nil
}

// Restart discards the form and any result.
func (f *Flow) Restart() error {
	f.mu.Lock()
	if f.state != Editing && f.state != Scored {
		state := f.state
		f.mu.Unlock()
		return fmt.Errorf("%w: cannot restart while %s", ErrWrongState, state)
	}
	f.reset()
	f.mu.Unlock()
	f.changed()
	return nil
}

// Record returns the scored record, if any.
func (f *Flow) Record() (clinicdiag.Record, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.record == nil {
		return clinicdiag.Record{}, false
	}
	return *f.record, true
}

type Snapshot struct {
	ID              string                `json:"id"`
	State           State                 `json:"state"`
	Form            clinicdiag.Submission `json:"form"`
	Missing         []string              `json:"missing"`
	Record          *clinicdiag.Record    `json:"record,omitempty"`
	Advice          []clinicdiag.Advice   `json:"advice,omitempty"`
	LastError       string                `json:"lastError,omitempty"`
	ExportStartedAt *time.Time            `json:"exportStartedAt,omitempty"`
}

func (f *Flow) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastActive = f.now()

	s := Snapshot{
		ID:        f.doc.ID(),
		State:     f.state,
		Form:      f.form,
		Missing:   append(f.form.ClinicInfo.Missing(), f.form.Answers.Unanswered()...),
		LastError: f.lastErr,
	}
	if f.record != nil {
		rec := *f.record
		s.Record = &rec
		s.Advice = clinicdiag.SelectAdvice(rec.Results)
	}
	if !f.exportStarted.IsZero() {
		t := f.exportStarted
		s.ExportStartedAt = &t
	}
	return s
}

package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/yuya1213/dental-clinic-app/internal/clinicdiag"
)

func TestQuestions(t *testing.T) {
	e := newTestEnv(t, &stubRenderer{})

	w := e.do(t, http.MethodGet, "/api/questions", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	resp := decode[QuestionsResponse](t, w)
	if len(resp.Questions) != clinicdiag.QuestionCount || len(resp.Categories) != 4 {
		t.Fatalf("got %d questions in %d categories", len(resp.Questions), len(resp.Categories))
	}
	if got := resp.Categories[1]; got.ID != clinicdiag.Patients || got.Questions[0] != "q6" || got.Label != "患者数・売上" {
		t.Errorf("second category = %+v", got)
	}
}

func TestSubmitDiagnosis(t *testing.T) {
	incomplete := submissionBody("  ", 20)
	delete(incomplete["answers"].(map[string]bool), "q20")

	tests := []struct {
		name        string
		body        any
		wantStatus  int
		wantMissing []string
		wantStatusL clinicdiag.Status
	}{
		{"stable", submissionBody("Sakura Dental", 17), http.StatusCreated, nil, clinicdiag.StatusStable},
		{"at risk", submissionBody("Midori Dental", 9), http.StatusCreated, nil, clinicdiag.StatusAtRisk},
		{"incomplete", incomplete, http.StatusBadRequest, []string{"clinicName", "q20"}, ""},
		{"not json", "answers", http.StatusBadRequest, nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEnv(t, &stubRenderer{})
			w := e.do(t, http.MethodPost, "/api/diagnoses", "", tt.body)
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", w.Code, tt.wantStatus, w.Body.String())
			}

			if tt.wantStatus != http.StatusCreated {
				resp := decode[ErrorResponse](t, w)
				if !slices.Equal(resp.Missing, tt.wantMissing) {
					t.Errorf("missing = %v, want %v", resp.Missing, tt.wantMissing)
				}
				if e.notifier.count() != 0 {
					t.Error("notified for a rejected submission")
				}
				return
			}

			resp := decode[DiagnosisResponse](t, w)
			if resp.ID == "" || resp.CreatedAt.IsZero() {
				t.Errorf("id/createdAt not assigned: %+v", resp.Record)
			}
			if resp.Results.Status != tt.wantStatusL {
				t.Errorf("status = %s, want %s", resp.Results.Status, tt.wantStatusL)
			}
			if resp.Headline == "" || len(resp.Advice) == 0 {
				t.Errorf("summary missing: %+v", resp)
			}
			if e.notifier.count() != 1 {
				t.Errorf("notifications = %d, want 1", e.notifier.count())
			}
			if _, err := e.store.GetDiagnosis(t.Context(), resp.ID); err != nil {
				t.Errorf("not stored: %v", err)
			}
		})
	}
}

func TestSubmitDiagnosisAdvice(t *testing.T) {
	e := newTestEnv(t, &stubRenderer{})
	w := e.do(t, http.MethodPost, "/api/diagnoses", "", submissionBody("Sakura Dental", 17))
	resp := decode[DiagnosisResponse](t, w)

	// q16..q20 hold satisfaction; only q16 and q17 are yes.
	if resp.Results.Categories.Satisfaction != 2 || resp.Results.TotalYes != 17 {
		t.Fatalf("results = %+v", resp.Results)
	}
	if len(resp.Advice) != 1 || resp.Advice[0].Category != clinicdiag.Satisfaction {
		t.Errorf("advice = %+v", resp.Advice)
	}
}

func TestSubmitDiagnosisDefaultDate(t *testing.T) {
	jst := time.FixedZone("JST", 9*60*60)
	// 08:30 on March 1st in Japan, still February 28th in UTC.
	instant := time.Date(2025, 2, 28, 23, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		loc  *time.Location
		want string
	}{
		{"clinic zone", jst, "2025-03-01"},
		{"utc", time.UTC, "2025-02-28"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &testEnv{router: NewRouter(slog.Default(), Deps{
				Store: setupStore(t),
				Now:   func() time.Time { return instant.In(tt.loc) },
			}, nil)}

			body := submissionBody("Sakura Dental", 12)
			body["clinicInfo"].(map[string]string)["date"] = ""
			w := e.do(t, http.MethodPost, "/api/diagnoses", "", body)
			if w.Code != http.StatusCreated {
				t.Fatalf("expected 201, got %d: %s", w.Code, w.Body)
			}
			if got := decode[DiagnosisResponse](t, w).ClinicInfo.Date.String(); got != tt.want {
				t.Errorf("date = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestGetAndListDiagnoses(t *testing.T) {
	e := newTestEnv(t, &stubRenderer{})
	var ids []string
	for i := range 3 {
		w := e.do(t, http.MethodPost, "/api/diagnoses", "", submissionBody(fmt.Sprintf("Clinic %d", i), 5*i))
		ids = append(ids, decode[DiagnosisResponse](t, w).ID)
	}

	w := e.do(t, http.MethodGet, "/api/diagnoses?limit=2", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list: %d", w.Code)
	}
	if recs := decode[[]clinicdiag.Record](t, w); len(recs) != 2 {
		t.Errorf("list returned %d records, want 2", len(recs))
	}

	if w := e.do(t, http.MethodGet, "/api/diagnoses?limit=zero", "", nil); w.Code != http.StatusBadRequest {
		t.Errorf("bad limit: status %d", w.Code)
	}

	w = e.do(t, http.MethodGet, "/api/diagnoses/"+ids[1], "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get: %d", w.Code)
	}
	if got := decode[DiagnosisResponse](t, w); got.ClinicInfo.ClinicName != "Clinic 1" || got.Results.TotalYes != 5 {
		t.Errorf("got %+v", got.Record)
	}

	if w := e.do(t, http.MethodGet, "/api/diagnoses/nope", "", nil); w.Code != http.StatusNotFound {
		t.Errorf("unknown id: status %d", w.Code)
	}
}

func TestReport(t *testing.T) {
	e := newTestEnv(t, &stubRenderer{})
	e.do(t, http.MethodPost, "/api/diagnoses", "", submissionBody("Sakura Dental", 17))

	w := e.do(t, http.MethodGet, "/api/diagnoses/report.xlsx", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	if got := w.Header().Get("Content-Disposition"); !strings.HasPrefix(got, "attachment; filename*=utf-8''") {
		t.Errorf("content-disposition = %q", got)
	}
	// xlsx files are zip archives.
	if !strings.HasPrefix(w.Body.String(), "PK") {
		t.Error("body is not a zip archive")
	}
}

func TestExportDiagnosis(t *testing.T) {
	tests := []struct {
		name        string
		kind        string
		renderErr   error
		wantStatus  int
		wantType    string
		wantPrefix  string
		wantFileExt string
	}{
		{"pdf", "pdf", nil, http.StatusOK, "application/pdf", "%PDF-", ".pdf"},
		{"image", "image", nil, http.StatusOK, "image/png", "\x89PNG", ".png"},
		{"unknown kind", "docx", nil, http.StatusBadRequest, "", "", ""},
		{"renderer fails", "image", errors.New("chrome gone"), http.StatusBadGateway, "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEnv(t, &stubRenderer{err: tt.renderErr})
			id := decode[DiagnosisResponse](t, e.do(t, http.MethodPost, "/api/diagnoses", "", submissionBody("Sakura Dental", 17))).ID

			w := e.do(t, http.MethodGet, "/api/diagnoses/"+id+"/export?kind="+tt.kind, "", nil)
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", w.Code, tt.wantStatus, w.Body.String())
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			if got := w.Header().Get("Content-Type"); got != tt.wantType {
				t.Errorf("content-type = %q", got)
			}
			if !strings.HasPrefix(w.Body.String(), tt.wantPrefix) {
				t.Errorf("body starts %q", w.Body.String()[:min(8, w.Body.Len())])
			}
			cd := w.Header().Get("Content-Disposition")
			if !strings.HasPrefix(cd, "attachment; filename*=utf-8''") || !strings.HasSuffix(cd, "Sakura_Dental_2025-03-01"+tt.wantFileExt) {
				t.Errorf("content-disposition = %q", cd)
			}
		})
	}
}

func TestExportDiagnosisNotFound(t *testing.T) {
	e := newTestEnv(t, &stubRenderer{})
	if w := e.do(t, http.MethodGet, "/api/diagnoses/nope/export?kind=pdf", "", nil); w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestExportResult(t *testing.T) {
	consistent := clinicdiag.Calculate(clinicdiag.AllAnswers(true))
	inconsistent := consistent
	inconsistent.Status = clinicdiag.StatusAtRisk

	tests := []struct {
		name       string
		results    clinicdiag.Result
		wantStatus int
	}{
		{"consistent", consistent, http.StatusOK},
		{"status does not match total", inconsistent, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEnv(t, &stubRenderer{})
			w := e.do(t, http.MethodPost, "/api/export?kind=pdf", "", ExportRequest{
				ClinicInfo: clinicdiag.ClinicInfo{ClinicName: "Sakura Dental", RespondentName: "Taro", Email: "a@example.com"},
				Results:    tt.results,
			})
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", w.Code, tt.wantStatus, w.Body.String())
			}
			if tt.wantStatus == http.StatusOK && !strings.HasPrefix(w.Body.String(), "%PDF-") {
				t.Error("body is not a pdf")
			}
		})
	}
}

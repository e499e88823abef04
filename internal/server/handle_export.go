package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/yuya1213/dental-clinic-app/internal/clinicdiag"
	"github.com/yuya1213/dental-clinic-app/internal/export"
	"github.com/yuya1213/dental-clinic-app/internal/profile"
	"github.com/yuya1213/dental-clinic-app/internal/submission"
	"github.com/yuya1213/dental-clinic-app/internal/view"
)

// ExportRequest carries a result computed earlier, for clients that keep
// the result themselves.
type ExportRequest struct {
	ClinicInfo clinicdiag.ClinicInfo `json:"clinicInfo"`
	Results    clinicdiag.Result     `json:"results"`
}

func kindParam(r *http.Request) (export.Kind, error) {
	return export.ParseKind(r.URL.Query().Get("kind"))
}

// exportRecord mounts the record's result view on a document of its own
// and exports it. Documents are keyed by docID, so concurrent exports of the
// same record are rejected as busy.
func exportRecord(w http.ResponseWriter, r *http.Request, exp submission.Exporter, p profile.Profile, logger *slog.Logger, docID string, rec clinicdiag.Record, kind export.Kind) {
	doc := view.NewDocument(docID)
	doc.Mount(view.LiveViewID, view.Build(rec, p))

	art, err := exp.Export(r.Context(), export.Request{
		Kind:   kind,
		Source: export.Source{Doc: doc, ViewID: view.LiveViewID},
		Record: rec,
	})
	if err != nil {
		writeErr(w, logger, err)
		return
	}
	writeArtifact(w, art)
}

func handleExportDiagnosis(store Store, exp submission.Exporter, p profile.Profile, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind, err := kindParam(r)
		if err != nil {
			writeErr(w, logger, err)
			return
		}

		rec, err := store.GetDiagnosis(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeErr(w, logger, err)
			return
		}
		exportRecord(w, r, exp, p, logger, "diagnosis-"+rec.ID, rec, kind)
	}
}

func handleExportResult(exp submission.Exporter, p profile.Profile, now func() time.Time, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind, err := kindParam(r)
		if err != nil {
			writeErr(w, logger, err)
			return
		}

		var req ExportRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := req.Results.Check(); err != nil {
			writeErr(w, logger, err)
			return
		}

		t := now()
		info := clinicdiag.Submission{ClinicInfo: req.ClinicInfo}.Normalize(t).ClinicInfo
		rec := clinicdiag.Record{ClinicInfo: info, Results: req.Results, CreatedAt: t.UTC()}
		exportRecord(w, r, exp, p, logger, "result-"+uuid.NewString(), rec, kind)
	}
}

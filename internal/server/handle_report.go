package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/yuya1213/dental-clinic-app/internal/export"
	"github.com/yuya1213/dental-clinic-app/internal/report"
)

const reportLimit = 1000

func handleReport(store Store, now func() time.Time, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		recs, err := store.ListDiagnoses(r.Context(), reportLimit)
		if err != nil {
			writeErr(w, logger, err)
			return
		}

		data, err := report.Roster(recs)
		if err != nil {
			writeErr(w, logger, err)
			return
		}

		writeArtifact(w, &export.Artifact{
			Filename:    "診断結果一覧_" + now().Format("2006-01-02") + ".xlsx",
			ContentType: report.ContentType,
			Body:        data,
		})
	}
}

package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/yuya1213/dental-clinic-app/internal/clinicdiag"
	"github.com/yuya1213/dental-clinic-app/internal/submission"
)

// Notifier is told about every newly stored diagnosis.
type Notifier interface {
	Notify(ctx context.Context, rec clinicdiag.Record)
}

// DiagnosisResponse is a stored record plus the advice and summary derived
// from its result.
type DiagnosisResponse struct {
	clinicdiag.Record
	Advice   []clinicdiag.Advice `json:"advice"`
	Headline string              `json:"headline"`
	Detail   string              `json:"detail"`
}

func newDiagnosisResponse(rec clinicdiag.Record) DiagnosisResponse {
	headline, detail := clinicdiag.Summary(rec.Results.Status)
	return DiagnosisResponse{
		Record:   rec,
		Advice:   clinicdiag.SelectAdvice(rec.Results),
		Headline: headline.JA,
		Detail:   detail.JA,
	}
}

func handleSubmitDiagnosis(store Store, n Notifier, now func() time.Time, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req clinicdiag.Submission
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		sub := req.Normalize(now())
		if err := sub.Validate(); err != nil {
			writeErr(w, logger, err)
			return
		}

		rec, err := store.SaveDiagnosis(r.Context(), clinicdiag.Record{
			ClinicInfo: sub.ClinicInfo,
			Answers:    sub.Answers,
			Results:    clinicdiag.Calculate(sub.Answers),
		})
		if err != nil {
			logger.Error("saving diagnosis", "error", err)
			writeErr(w, logger, fmt.Errorf("%w: %w", submission.ErrPersist, err))
			return
		}
		logger.Info("diagnosis scored",
			"record_id", rec.ID,
			"status", rec.Results.Status,
			"total_yes", rec.Results.TotalYes,
		)

		if n != nil {
			n.Notify(r.Context(), rec)
		}
		writeJSON(w, http.StatusCreated, newDiagnosisResponse(rec))
	}
}

func handleListDiagnoses(store Store, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := defaultListLimit
		if s := r.URL.Query().Get("limit"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n <= 0 {
				writeError(w, http.StatusBadRequest, "limit must be a positive integer")
				return
			}
			limit = n
		}

		recs, err := store.ListDiagnoses(r.Context(), limit)
		if err != nil {
			writeErr(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, recs)
	}
}

func handleGetDiagnosis(store Store, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, err := store.GetDiagnosis(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeErr(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, newDiagnosisResponse(rec))
	}
}

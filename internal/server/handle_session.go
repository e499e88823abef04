package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/yuya1213/dental-clinic-app/internal/clinicdiag"
	"github.com/yuya1213/dental-clinic-app/internal/submission"
)

type SessionResponse struct {
	Token   string              `json:"token"`
	Session submission.Snapshot `json:"session"`
}

type AnswerRequest struct {
	Value *bool `json:"value"`
}

func handleCreateSession(sessions *Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, f := sessions.Create()
		setSessionCookie(w, r, token, sessions.ttl)
		writeJSON(w, http.StatusCreated, SessionResponse{Token: token, Session: f.Snapshot()})
	}
}

func handleGetSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, flowFrom(r).Snapshot())
	}
}

func handleSetClinic(logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var info clinicdiag.ClinicInfo
		if err := readJSON(r, &info); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		f := flowFrom(r)
		if err := f.SetClinicInfo(info); err != nil {
			writeErr(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, f.Snapshot())
	}
}

func handleSetAnswer(logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, err := clinicdiag.ParseQuestionID(chi.URLParam(r, "q"))
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		var req AnswerRequest
		if err := readJSON(r, &req); err != nil || req.Value == nil {
			writeError(w, http.StatusBadRequest, "value must be true or false")
			return
		}

		f := flowFrom(r)
		if err := f.SetAnswer(q, *req.Value); err != nil {
			writeErr(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, f.Snapshot())
	}
}

func handleClearAnswer(logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, err := clinicdiag.ParseQuestionID(chi.URLParam(r, "q"))
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		f := flowFrom(r)
		if err := f.ClearAnswer(q); err != nil {
			writeErr(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, f.Snapshot())
	}
}

func handleSessionSubmit(n Notifier, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f := flowFrom(r)
		rec, err := f.Submit(r.Context())
		if err != nil {
			writeErr(w, logger, err)
			return
		}
		if n != nil {
			n.Notify(r.Context(), rec)
		}
		writeJSON(w, http.StatusOK, f.Snapshot())
	}
}

func handleSessionExport(logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind, err := kindParam(r)
		if err != nil {
			writeErr(w, logger, err)
			return
		}

		art, err := flowFrom(r).Export(r.Context(), kind)
		if err != nil {
			writeErr(w, logger, err)
			return
		}
		writeArtifact(w, art)
	}
}

func handleSessionRestart(logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f := flowFrom(r)
		if err := f.Restart(); err != nil {
			writeErr(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, f.Snapshot())
	}
}

package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/yuya1213/dental-clinic-app/internal/clinicdiag"
	"github.com/yuya1213/dental-clinic-app/internal/export"
	"github.com/yuya1213/dental-clinic-app/internal/submission"
)

// ErrorResponse is returned for all error responses. Missing is set when a
// submission is incomplete.
type ErrorResponse struct {
	Error   string   `json:"error"`
	Missing []string `json:"missing,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func readJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// statusFor maps domain errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, clinicdiag.ErrIncomplete),
		errors.Is(err, clinicdiag.ErrInconsistentResult),
		errors.Is(err, export.ErrUnknownKind):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound), errors.Is(err, export.ErrNoView):
		return http.StatusNotFound
	case errors.Is(err, export.ErrBusy), errors.Is(err, submission.ErrWrongState):
		return http.StatusConflict
	case errors.Is(err, submission.ErrPersist):
		return http.StatusServiceUnavailable
	case errors.Is(err, export.ErrRender), errors.Is(err, export.ErrAssemble):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeErr writes err with the status statusFor picks. Internal errors are
// logged and reported without detail.
func writeErr(w http.ResponseWriter, logger *slog.Logger, err error) {
	status := statusFor(err)
	var verr *clinicdiag.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, status, ErrorResponse{Error: clinicdiag.ErrIncomplete.Error(), Missing: verr.Fields})
	case status == http.StatusInternalServerError:
		logger.Error("request failed", "error", err)
		writeError(w, status, "internal error")
	default:
		writeError(w, status, err.Error())
	}
}

func writeArtifact(w http.ResponseWriter, art *export.Artifact) {
	w.Header().Set("Content-Type", art.ContentType)
	w.Header().Set("Content-Disposition",
		mime.FormatMediaType("attachment", map[string]string{"filename": art.Filename}))
	w.Header().Set("Content-Length", strconv.Itoa(len(art.Body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(art.Body)
}

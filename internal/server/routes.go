package server

import (
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"
)

func addRoutes(r chi.Router, logger *slog.Logger, deps Deps) {
	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("Dental Clinic Diagnosis API", "/openapi.json", "/docs"))

	r.Get("/api/questions", handleQuestions())

	r.Route("/api/diagnoses", func(r chi.Router) {
		r.Post("/", handleSubmitDiagnosis(deps.Store, deps.Notifier, deps.Now, logger))
		r.Get("/", handleListDiagnoses(deps.Store, logger))
		r.Get("/report.xlsx", handleReport(deps.Store, deps.Now, logger))
		r.Get("/{id}", handleGetDiagnosis(deps.Store, logger))
		r.Get("/{id}/export", handleExportDiagnosis(deps.Store, deps.Exporter, deps.Profile, logger))
	})
	r.Post("/api/export", handleExportResult(deps.Exporter, deps.Profile, deps.Now, logger))

	// Submission flow, one per session token.
	r.Route("/api/session", func(r chi.Router) {
		r.Post("/", handleCreateSession(deps.Sessions))
		r.Group(func(r chi.Router) {
			r.Use(sessionMiddleware(deps.Sessions))
			r.Get("/", handleGetSession())
			r.Put("/clinic", handleSetClinic(logger))
			r.Put("/answers/{q}", handleSetAnswer(logger))
			r.Delete("/answers/{q}", handleClearAnswer(logger))
			r.Post("/submit", handleSessionSubmit(deps.Notifier, logger))
			r.Post("/export", handleSessionExport(logger))
			r.Post("/restart", handleSessionRestart(logger))
			r.Get("/events", handleEvents(deps.Sessions))
			r.Get("/ws", handleSessionWS(deps.Sessions, logger))
		})
	})

	if deps.SPADir != "" {
		if info, err := os.Stat(deps.SPADir); err == nil && info.IsDir() {
			logger.Info("serving SPA", "dir", deps.SPADir)
			r.NotFound(handleSPA(deps.SPADir))
		}
	}
}

package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"

	"github.com/yuya1213/dental-clinic-app/internal/clinicdiag"
	"github.com/yuya1213/dental-clinic-app/internal/submission"
)

// HealthResponse maps each dependency to {"status": "ok"|"error"}.
type HealthResponse map[string]struct {
	Status string `json:"status"`
}

type exportQuery struct {
	Kind string `query:"kind" enum:"pdf,image" required:"true"`
}

type diagnosisPath struct {
	ID string `path:"id"`
}

type diagnosisExportParams struct {
	ID   string `path:"id"`
	Kind string `query:"kind" enum:"pdf,image" required:"true"`
}

type exportResultParams struct {
	Kind       string                `query:"kind" enum:"pdf,image" required:"true"`
	ClinicInfo clinicdiag.ClinicInfo `json:"clinicInfo"`
	Results    clinicdiag.Result     `json:"results"`
}

type listQuery struct {
	Limit int `query:"limit" minimum:"1" maximum:"1000" default:"100"`
}

type answerParams struct {
	Q     string `path:"q" description:"q1..q20"`
	Value bool   `json:"value" required:"true"`
}

type questionPath struct {
	Q string `path:"q" description:"q1..q20"`
}

var (
	pdfContent  = openapi.WithContentType("application/pdf")
	xlsxContent = openapi.WithContentType("application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
)

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "Dental Clinic Diagnosis API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Management self-check for dental clinics. Answers to 20 yes/no questions are scored and the result can be exported as PDF or PNG.")

	// GET /healthz
	getHealthz, _ := r.NewOperationContext(http.MethodGet, "/healthz")
	getHealthz.SetSummary("Health check")
	getHealthz.SetDescription("Returns the health status of backend dependencies.")
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(getHealthz)

	// GET /api/questions
	getQuestions, _ := r.NewOperationContext(http.MethodGet, "/api/questions")
	getQuestions.SetSummary("Question catalogue")
	getQuestions.SetDescription("The 20 questions in display order, grouped into four categories of five.")
	getQuestions.AddRespStructure(QuestionsResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(getQuestions)

	// POST /api/diagnoses
	postDiagnosis, _ := r.NewOperationContext(http.MethodPost, "/api/diagnoses")
	postDiagnosis.SetSummary("Submit questionnaire")
	postDiagnosis.SetDescription("Validates, scores and stores a completed questionnaire. Every clinic field and all 20 answers are required; missing ones are listed in the 400 response.")
	postDiagnosis.AddReqStructure(clinicdiag.Submission{})
	postDiagnosis.AddRespStructure(DiagnosisResponse{}, openapi.WithHTTPStatus(http.StatusCreated))
	postDiagnosis.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postDiagnosis.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(postDiagnosis)

	// GET /api/diagnoses
	listDiagnoses, _ := r.NewOperationContext(http.MethodGet, "/api/diagnoses")
	listDiagnoses.SetSummary("Recent diagnoses")
	listDiagnoses.SetDescription("Stored diagnoses, most recent first.")
	listDiagnoses.AddReqStructure(listQuery{})
	listDiagnoses.AddRespStructure([]clinicdiag.Record{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(listDiagnoses)

	// GET /api/diagnoses/report.xlsx
	getReport, _ := r.NewOperationContext(http.MethodGet, "/api/diagnoses/report.xlsx")
	getReport.SetSummary("Diagnosis roster")
	getReport.SetDescription("Spreadsheet with one row per stored diagnosis.")
	getReport.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK), xlsxContent)
	_ = r.AddOperation(getReport)

	// GET /api/diagnoses/{id}
	getDiagnosis, _ := r.NewOperationContext(http.MethodGet, "/api/diagnoses/{id}")
	getDiagnosis.SetSummary("Get diagnosis")
	getDiagnosis.AddReqStructure(diagnosisPath{})
	getDiagnosis.AddRespStructure(DiagnosisResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getDiagnosis.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getDiagnosis)

	// GET /api/diagnoses/{id}/export
	exportDiagnosis, _ := r.NewOperationContext(http.MethodGet, "/api/diagnoses/{id}/export")
	exportDiagnosis.SetSummary("Export stored diagnosis")
	exportDiagnosis.SetDescription("Downloads the result as a PDF, or a PNG for kind=image. Returns 409 while another export of the same diagnosis is running.")
	exportDiagnosis.AddReqStructure(diagnosisExportParams{})
	exportDiagnosis.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK), pdfContent)
	exportDiagnosis.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	exportDiagnosis.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	exportDiagnosis.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadGateway))
	_ = r.AddOperation(exportDiagnosis)

	// POST /api/export
	exportResult, _ := r.NewOperationContext(http.MethodPost, "/api/export")
	exportResult.SetSummary("Export a computed result")
	exportResult.SetDescription("Exports a result computed earlier. The result must be consistent: category scores 0..5, totalYes their sum, status derived from totalYes.")
	exportResult.AddReqStructure(exportResultParams{})
	exportResult.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK), pdfContent)
	exportResult.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	exportResult.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadGateway))
	_ = r.AddOperation(exportResult)

	// POST /api/session
	postSession, _ := r.NewOperationContext(http.MethodPost, "/api/session")
	postSession.SetSummary("Start session")
	postSession.SetDescription("Starts a questionnaire session. Sets the clinicdiag_session cookie; the token may also be sent as a Bearer token.")
	postSession.AddRespStructure(SessionResponse{}, openapi.WithHTTPStatus(http.StatusCreated))
	_ = r.AddOperation(postSession)

	// GET /api/session
	getSession, _ := r.NewOperationContext(http.MethodGet, "/api/session")
	getSession.SetSummary("Session state")
	getSession.AddRespStructure(submission.Snapshot{}, openapi.WithHTTPStatus(http.StatusOK))
	getSession.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getSession)

	// PUT /api/session/clinic
	putClinic, _ := r.NewOperationContext(http.MethodPut, "/api/session/clinic")
	putClinic.SetSummary("Set clinic information")
	putClinic.AddReqStructure(clinicdiag.ClinicInfo{})
	putClinic.AddRespStructure(submission.Snapshot{}, openapi.WithHTTPStatus(http.StatusOK))
	putClinic.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(putClinic)

	// PUT /api/session/answers/{q}
	putAnswer, _ := r.NewOperationContext(http.MethodPut, "/api/session/answers/{q}")
	putAnswer.SetSummary("Answer a question")
	putAnswer.AddReqStructure(answerParams{})
	putAnswer.AddRespStructure(submission.Snapshot{}, openapi.WithHTTPStatus(http.StatusOK))
	putAnswer.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	putAnswer.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(putAnswer)

	// DELETE /api/session/answers/{q}
	deleteAnswer, _ := r.NewOperationContext(http.MethodDelete, "/api/session/answers/{q}")
	deleteAnswer.SetSummary("Clear an answer")
	deleteAnswer.AddReqStructure(questionPath{})
	deleteAnswer.AddRespStructure(submission.Snapshot{}, openapi.WithHTTPStatus(http.StatusOK))
	deleteAnswer.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(deleteAnswer)

	// POST /api/session/submit
	postSubmit, _ := r.NewOperationContext(http.MethodPost, "/api/session/submit")
	postSubmit.SetSummary("Submit session")
	postSubmit.SetDescription("Scores and stores the session's questionnaire. On failure the form is kept for correction.")
	postSubmit.AddRespStructure(submission.Snapshot{}, openapi.WithHTTPStatus(http.StatusOK))
	postSubmit.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postSubmit.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	postSubmit.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(postSubmit)

	// POST /api/session/export
	postExport, _ := r.NewOperationContext(http.MethodPost, "/api/session/export")
	postExport.SetSummary("Export session result")
	postExport.AddReqStructure(exportQuery{})
	postExport.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK), pdfContent)
	postExport.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	postExport.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadGateway))
	_ = r.AddOperation(postExport)

	// POST /api/session/restart
	postRestart, _ := r.NewOperationContext(http.MethodPost, "/api/session/restart")
	postRestart.SetSummary("Restart session")
	postRestart.AddRespStructure(submission.Snapshot{}, openapi.WithHTTPStatus(http.StatusOK))
	postRestart.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postRestart)

	// GET /api/session/events
	getEvents, _ := r.NewOperationContext(http.MethodGet, "/api/session/events")
	getEvents.SetSummary("Session event stream")
	getEvents.SetDescription("Server-Sent Events: a state event with the session snapshot on connect and after every change.")
	getEvents.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK),
		openapi.WithContentType("text/event-stream"))
	_ = r.AddOperation(getEvents)

	// GET /api/session/ws
	getWS, _ := r.NewOperationContext(http.MethodGet, "/api/session/ws")
	getWS.SetSummary("Session WebSocket")
	getWS.SetDescription("Upgrades to a WebSocket carrying the same events as /api/session/events.")
	getWS.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusSwitchingProtocols),
		openapi.WithContentType("application/json"))
	_ = r.AddOperation(getWS)

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}

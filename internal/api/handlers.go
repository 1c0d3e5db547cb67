// Package api exposes HTTP handlers for the analysis service.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/jbustamante27/Fitness-AI-agent/internal/analysis"
	"github.com/jbustamante27/Fitness-AI-agent/internal/auth"
	"github.com/jbustamante27/Fitness-AI-agent/internal/domain"
	"github.com/jbustamante27/Fitness-AI-agent/internal/metrics"
	"github.com/jbustamante27/Fitness-AI-agent/internal/narrative"
	"github.com/jbustamante27/Fitness-AI-agent/internal/report"
	"github.com/jbustamante27/Fitness-AI-agent/internal/risk"
)

// maxUploadBytes caps the in-memory portion of a multipart upload.
const maxUploadBytes = 32 << 20

// Handler coordinates HTTP requests with the analysis service.
type Handler struct {
	service *analysis.Service
}

// NewHandler builds a Handler.
func NewHandler(service *analysis.Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/analyses", h.analyses)
	mux.HandleFunc("/v1/analyses/upload", h.analysesUpload)
	mux.HandleFunc("/v1/assessments", h.assessments)
	mux.HandleFunc("/healthz", healthz)
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) analyses(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.createAnalysis(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) analysesUpload(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.uploadAnalysis(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) assessments(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.createAssessment(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) createAnalysis(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}
	if !claims.HasScope(auth.ScopeAnalysesRun) {
		writeError(w, http.StatusForbidden, "forbidden", "scope analyses:run required")
		return
	}

	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	res := h.service.Analyze(r.Context(), analysis.Request{
		RunnerName:    req.RunnerName,
		LookbackDays:  req.LookbackDays,
		Runs:          req.toRuns(),
		Source:        analysis.SourceJSON,
		WithNarrative: req.Narrative,
	})

	writeJSON(w, http.StatusOK, toAnalysisView(res, req.IncludeMarkdown))
}

func (h *Handler) uploadAnalysis(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}
	if !claims.HasScope(auth.ScopeAnalysesRun) {
		writeError(w, http.StatusForbidden, "forbidden", "scope analyses:run required")
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse multipart form")
		return
	}

	var files []analysis.UploadFile
	if r.MultipartForm != nil {
		for _, part := range r.MultipartForm.File["files"] {
			src, err := part.Open()
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_request", "unable to read uploaded file")
				return
			}
			data, err := io.ReadAll(src)
			src.Close()
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_request", "unable to read uploaded file")
				return
			}
			files = append(files, analysis.UploadFile{Name: part.Filename, Data: data})
		}
	}

	runs, err := h.service.IngestUploads(r.Context(), files, r.FormValue("distance_unit"))
	if err != nil {
		if errors.Is(err, analysis.ErrNoFiles) {
			writeError(w, http.StatusBadRequest, "validation_failed", "at least one file part named files is required")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	lookback := 0
	if raw := r.FormValue("lookback_days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "validation_failed", "lookback_days must be a non-negative integer")
			return
		}
		lookback = parsed
	}

	res := h.service.Analyze(r.Context(), analysis.Request{
		RunnerName:    r.FormValue("runner_name"),
		LookbackDays:  lookback,
		Runs:          runs,
		Source:        analysis.SourceUpload,
		WithNarrative: parseBool(r.FormValue("narrative")),
	})

	writeJSON(w, http.StatusOK, toAnalysisView(res, parseBool(r.FormValue("include_markdown"))))
}

func (h *Handler) createAssessment(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}
	if !claims.HasScope(auth.ScopeAssessmentsRun) && !claims.HasScope(auth.ScopeAnalysesRun) {
		writeError(w, http.StatusForbidden, "forbidden", "scope assessments:run required")
		return
	}

	var raw any
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}

	assessment, err := h.service.Assess(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, assessment)
}

// AnalyzeRequest is the payload for POST /v1/analyses.
type AnalyzeRequest struct {
	RunnerName      string     `json:"runner_name"`
	LookbackDays    int        `json:"lookback_days"`
	Narrative       bool       `json:"narrative"`
	IncludeMarkdown bool       `json:"include_markdown"`
	Runs            []RunInput `json:"runs"`
}

// RunInput is one run record submitted for analysis.
type RunInput struct {
	StartTime time.Time `json:"start_time"`
	DistanceM float64   `json:"distance_m"`
	DurationS float64   `json:"duration_s"`
	AvgHR     *float64  `json:"avg_hr,omitempty"`
}

// Validate ensures request correctness.
func (r AnalyzeRequest) Validate() error {
	if r.LookbackDays < 0 {
		return errors.New("lookback_days must be >= 0")
	}
	if len(r.Runs) == 0 {
		return errors.New("runs is required")
	}
	for i, run := range r.Runs {
		if run.StartTime.IsZero() {
			return fmt.Errorf("runs[%d]: start_time is required", i)
		}
		if run.DistanceM <= 0 {
			return fmt.Errorf("runs[%d]: distance_m must be > 0", i)
		}
		if run.DurationS <= 0 {
			return fmt.Errorf("runs[%d]: duration_s must be > 0", i)
		}
	}
	return nil
}

func (r AnalyzeRequest) toRuns() []domain.Run {
	runs := make([]domain.Run, 0, len(r.Runs))
	for _, in := range r.Runs {
		runs = append(runs, domain.Run{
			StartTime: in.StartTime,
			DistanceM: in.DistanceM,
			DurationS: in.DurationS,
			AvgHR:     in.AvgHR,
		})
	}
	return runs
}

// AnalysisView is the response body for both analysis endpoints. Narrative
// is null rather than omitted when no narrative was produced.
type AnalysisView struct {
	AnalysisID     string               `json:"analysis_id"`
	RunnerName     string               `json:"runner_name,omitempty"`
	GeneratedAt    time.Time            `json:"generated_at"`
	LookbackDays   int                  `json:"lookback_days"`
	Metrics        metrics.Snapshot     `json:"metrics"`
	Risk           risk.Assessment      `json:"risk"`
	Narrative      *narrative.Narrative `json:"narrative"`
	NarrativeError string               `json:"narrative_error,omitempty"`
	ReportMarkdown string               `json:"report_markdown,omitempty"`
}

func toAnalysisView(res *analysis.Result, includeMarkdown bool) AnalysisView {
	view := AnalysisView{
		AnalysisID:     res.ID,
		RunnerName:     res.RunnerName,
		GeneratedAt:    res.GeneratedAt,
		LookbackDays:   res.Metrics.LookbackDays,
		Metrics:        res.Metrics,
		Risk:           res.Risk,
		Narrative:      res.Narrative,
		NarrativeError: res.NarrativeError,
	}
	if includeMarkdown {
		rep := report.Report{
			RunnerName:  res.RunnerName,
			GeneratedAt: res.GeneratedAt,
			Metrics:     res.Metrics,
			Risk:        res.Risk,
		}
		if res.Narrative != nil {
			rep.Narrative = *res.Narrative
		}
		view.ReportMarkdown = report.RenderMarkdown(rep)
	}
	return view
}

func parseBool(raw string) bool {
	parsed, err := strconv.ParseBool(raw)
	return err == nil && parsed
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	payload := map[string]string{
		"type":   code,
		"detail": detail,
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

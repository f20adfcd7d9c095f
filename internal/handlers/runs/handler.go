package runs

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/jasonlhamazon/agent-health-jasonlh-sub001/internal/core/ports/primary"
	"github.com/jasonlhamazon/agent-health-jasonlh-sub001/internal/core/services/run"
	"github.com/jasonlhamazon/agent-health-jasonlh-sub001/internal/handlers/response"
	"github.com/jasonlhamazon/agent-health-jasonlh-sub001/internal/static/errs"
	"github.com/jasonlhamazon/agent-health-jasonlh-sub001/internal/stream"
)

// RunHandler handles run API requests
type RunHandler struct {
	runService run.IRunService
	authMW     mux.MiddlewareFunc
	logger     primary.Logger
}

// NewRunHandler creates a new run handler. authMW may be nil, in which
// case the cancel endpoint is unauthenticated.
func NewRunHandler(runService run.IRunService, authMW mux.MiddlewareFunc, logger primary.Logger) *RunHandler {
	return &RunHandler{
		runService: runService,
		authMW:     authMW,
		logger:     logger,
	}
}

// RegisterRoutes registers the API routes for RunHandler
func (h *RunHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/benchmarks/{benchmarkId}/run", h.StartRun).Methods("POST")
	router.HandleFunc("/api/runs/{runId}", h.GetRun).Methods("GET")
	router.HandleFunc("/api/runs/{runId}/reports", h.GetRunReports).Methods("GET")
	router.HandleFunc("/api/reports/{reportId}", h.GetReport).Methods("GET")

	cancel := http.Handler(http.HandlerFunc(h.CancelRun))
	if h.authMW != nil {
		cancel = h.authMW(cancel)
	}
	router.Handle("/api/runs/cancel", cancel).Methods("POST")
}

// StartRun handles run start requests. The response is a server-sent
// event stream that stays open until the run reaches a terminal state.
func (h *RunHandler) StartRun(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	benchmarkID := vars["benchmarkId"]

	var req StartRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("Failed to decode request", "error", err)
		response.WriteError(w, response.ErrorMessage{Message: "Invalid request", StatusCode: http.StatusBadRequest})
		return
	}
	if req.AgentEndpoint == "" && req.Connector != "subprocess" {
		response.WriteError(w, response.ErrorMessage{Message: "agentEndpoint is required", StatusCode: http.StatusBadRequest})
		return
	}

	writer, err := stream.NewWriter(w)
	if err != nil {
		h.logger.Error("Streaming unsupported by response writer", "error", err)
		response.WriteError(w, response.ErrorMessage{Message: "Streaming not supported", StatusCode: http.StatusInternalServerError})
		return
	}

	opts := run.RunOptions{
		AgentEndpoint:     req.AgentEndpoint,
		Model:             req.Model,
		AuthToken:         req.AuthToken,
		ConnectorProvider: req.Connector,
		JudgeProvider:     req.Judge,
	}

	// The run outlives the request: a disconnected client recovers the
	// final state by polling GET /api/runs/{runId}, so execution must
	// not be tied to the request context.
	if _, err := h.runService.ExecuteRun(context.Background(), benchmarkID, opts, writer); err != nil {
		h.logger.Error("Run execution failed", "benchmarkId", benchmarkID, "error", err)
	}
}

// CancelRun handles run cancellation requests
func (h *RunHandler) CancelRun(w http.ResponseWriter, r *http.Request) {
	var req CancelRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("Failed to decode request", "error", err)
		response.WriteError(w, response.ErrorMessage{Message: "Invalid request", StatusCode: http.StatusBadRequest})
		return
	}
	if req.RunID == "" {
		response.WriteError(w, response.ErrorMessage{Message: "runId is required", StatusCode: http.StatusBadRequest})
		return
	}

	if err := h.runService.CancelRun(r.Context(), req.BenchmarkID, req.RunID); err != nil {
		if errors.Is(err, errs.RunNotActive) {
			response.WriteError(w, response.ErrorMessage{Message: err.Error(), StatusCode: http.StatusNotFound})
			return
		}
		h.logger.Error("Failed to cancel run", "runId", req.RunID, "error", err)
		response.WriteError(w, response.ErrorMessage{Message: "Failed to cancel run", StatusCode: http.StatusInternalServerError})
		return
	}

	response.WriteSuccess(w, CancelRunResponse{RunID: req.RunID, Cancelled: true})
}

// GetRun handles run retrieval requests
func (h *RunHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	runID := vars["runId"]

	activeRun, err := h.runService.GetRun(r.Context(), runID)
	if err != nil {
		if errors.Is(err, errs.RunNotFound) {
			response.WriteError(w, response.ErrorMessage{Message: "Run not found", StatusCode: http.StatusNotFound})
			return
		}
		h.logger.Error("Failed to get run", "runId", runID, "error", err)
		response.WriteError(w, response.ErrorMessage{Message: "Failed to get run", StatusCode: http.StatusInternalServerError})
		return
	}

	response.WriteSuccess(w, activeRun)
}

// GetRunReports handles run report listing requests
func (h *RunHandler) GetRunReports(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	runID := vars["runId"]

	reports, err := h.runService.GetRunReports(r.Context(), runID)
	if err != nil {
		h.logger.Error("Failed to get run reports", "runId", runID, "error", err)
		response.WriteError(w, response.ErrorMessage{Message: "Failed to get run reports", StatusCode: http.StatusInternalServerError})
		return
	}

	response.WriteSuccess(w, reports)
}

// GetReport handles report retrieval requests
func (h *RunHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	reportID := vars["reportId"]

	report, err := h.runService.GetReport(r.Context(), reportID)
	if err != nil {
		if errors.Is(err, errs.ReportNotFound) {
			response.WriteError(w, response.ErrorMessage{Message: "Report not found", StatusCode: http.StatusNotFound})
			return
		}
		h.logger.Error("Failed to get report", "reportId", reportID, "error", err)
		response.WriteError(w, response.ErrorMessage{Message: "Failed to get report", StatusCode: http.StatusInternalServerError})
		return
	}

	response.WriteSuccess(w, report)
}

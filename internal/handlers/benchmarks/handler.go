package benchmarks

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/jasonlhamazon/agent-health-jasonlh-sub001/internal/core/ports/primary"
	"github.com/jasonlhamazon/agent-health-jasonlh-sub001/internal/core/services/benchmark"
	"github.com/jasonlhamazon/agent-health-jasonlh-sub001/internal/handlers/response"
	"github.com/jasonlhamazon/agent-health-jasonlh-sub001/internal/static/errs"
)

// BenchmarkHandler handles benchmark API requests
type BenchmarkHandler struct {
	benchmarkService benchmark.IBenchmarkService
	logger           primary.Logger
}

// NewBenchmarkHandler creates a new benchmark handler
func NewBenchmarkHandler(benchmarkService benchmark.IBenchmarkService, logger primary.Logger) *BenchmarkHandler {
	return &BenchmarkHandler{
		benchmarkService: benchmarkService,
		logger:           logger,
	}
}

// RegisterRoutes registers the API routes for BenchmarkHandler
func (h *BenchmarkHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/benchmarks", h.GetBenchmarks).Methods("GET")
	router.HandleFunc("/api/benchmarks/{benchmarkId}", h.GetBenchmark).Methods("GET")
	router.HandleFunc("/api/benchmarks/{benchmarkId}/testcases", h.GetTestCases).Methods("GET")
}

// GetBenchmarks handles benchmark listing requests
func (h *BenchmarkHandler) GetBenchmarks(w http.ResponseWriter, r *http.Request) {
	benchmarks, err := h.benchmarkService.GetAllBenchmarks(r.Context())
	if err != nil {
		h.logger.Error("Failed to get benchmarks", "error", err)
		response.WriteError(w, response.ErrorMessage{Message: "Failed to get benchmarks", StatusCode: http.StatusInternalServerError})
		return
	}

	response.WriteSuccess(w, benchmarks)
}

// GetBenchmark handles benchmark retrieval requests
func (h *BenchmarkHandler) GetBenchmark(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	benchmarkID := vars["benchmarkId"]

	bench, err := h.benchmarkService.GetBenchmark(r.Context(), benchmarkID)
	if err != nil {
		if errors.Is(err, errs.BenchmarkNotFound) {
			response.WriteError(w, response.ErrorMessage{Message: "Benchmark not found", StatusCode: http.StatusNotFound})
			return
		}
		h.logger.Error("Failed to get benchmark", "benchmarkId", benchmarkID, "error", err)
		response.WriteError(w, response.ErrorMessage{Message: "Failed to get benchmark", StatusCode: http.StatusInternalServerError})
		return
	}

	response.WriteSuccess(w, bench)
}

// GetTestCases handles test case listing requests
func (h *BenchmarkHandler) GetTestCases(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	benchmarkID := vars["benchmarkId"]

	testCases, err := h.benchmarkService.GetTestCases(r.Context(), benchmarkID)
	if err != nil {
		h.logger.Error("Failed to get test cases", "benchmarkId", benchmarkID, "error", err)
		response.WriteError(w, response.ErrorMessage{Message: "Failed to get test cases", StatusCode: http.StatusInternalServerError})
		return
	}

	response.WriteSuccess(w, testCases)
}

package errs

import "errors"

var (
	BenchmarkNotFound = errors.New("benchmark not found")
	RunNotFound       = errors.New("run not found")
	TestCaseNotFound  = errors.New("test case not found")
	ReportNotFound    = errors.New("report not found")

	// RunNotActive is returned when a cancel request names a run that
	// has no registered cancellation token.
	RunNotActive = errors.New("run not found or already completed")

	NoFinalResult = errors.New("stream ended without a final result")
)

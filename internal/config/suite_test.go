package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeSuiteFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "suite.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write suite file: %v", err)
	}
	return path
}

func TestLoadBenchmarkSuite(t *testing.T) {
	path := writeSuiteFile(t, `
benchmarks:
  - id: incident-response
    name: Incident Response
    description: diagnose production incidents
    test_cases:
      - id: tc-disk-full
        name: Disk full
        initial_prompt: the api service is down
        context:
          - role: system
            content: you are an SRE assistant
        expected_outcomes:
          - identifies the full disk
          - recommends log rotation
        tools:
          - name: get_logs
            description: fetch recent logs
`)

	suite, err := LoadBenchmarkSuite(path)
	if err != nil {
		t.Fatalf("LoadBenchmarkSuite: %v", err)
	}

	if len(suite.Benchmarks) != 1 {
		t.Fatalf("benchmarks = %d, want 1", len(suite.Benchmarks))
	}
	bench := suite.Benchmarks[0]
	if bench.ID != "incident-response" || len(bench.TestCases) != 1 {
		t.Fatalf("benchmark = %+v", bench)
	}
	tc := bench.TestCases[0]
	if tc.InitialPrompt != "the api service is down" {
		t.Errorf("prompt = %q", tc.InitialPrompt)
	}
	if len(tc.ExpectedOutcomes) != 2 || len(tc.Context) != 1 || len(tc.Tools) != 1 {
		t.Errorf("test case = %+v", tc)
	}
}

func TestLoadBenchmarkSuiteValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			"missing benchmark id",
			"benchmarks:\n  - name: no id\n",
			"has no id",
		},
		{
			"missing test case id",
			"benchmarks:\n  - id: b\n    test_cases:\n      - name: no id\n        initial_prompt: p\n",
			"has no id",
		},
		{
			"missing initial prompt",
			"benchmarks:\n  - id: b\n    test_cases:\n      - id: tc\n",
			"has no initial prompt",
		},
		{
			"malformed yaml",
			"benchmarks: [oops",
			"parsing suite file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadBenchmarkSuite(writeSuiteFile(t, tt.content))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("err = %v, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadBenchmarkSuiteMissingFile(t *testing.T) {
	if _, err := LoadBenchmarkSuite("/does/not/exist.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

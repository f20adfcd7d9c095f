package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// BenchmarkSuite is a file-defined set of benchmarks used to seed
// storage at startup.
type BenchmarkSuite struct {
	Benchmarks []SuiteBenchmark `yaml:"benchmarks"`
}

type SuiteBenchmark struct {
	ID          string          `yaml:"id"`
	Name        string          `yaml:"name"`
	Description string          `yaml:"description"`
	TestCases   []SuiteTestCase `yaml:"test_cases"`
}

type SuiteTestCase struct {
	ID               string         `yaml:"id"`
	Name             string         `yaml:"name"`
	InitialPrompt    string         `yaml:"initial_prompt"`
	Context          []SuiteContext `yaml:"context"`
	ExpectedOutcomes []string       `yaml:"expected_outcomes"`
	Tools            []SuiteTool    `yaml:"tools"`
}

type SuiteContext struct {
	Role    string `yaml:"role"`
	Content string `yaml:"content"`
}

type SuiteTool struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// LoadBenchmarkSuite reads and validates a benchmark suite file.
func LoadBenchmarkSuite(path string) (*BenchmarkSuite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading suite file: %w", err)
	}

	var suite BenchmarkSuite
	if err := yaml.Unmarshal(data, &suite); err != nil {
		return nil, fmt.Errorf("parsing suite file: %w", err)
	}

	for i, benchmark := range suite.Benchmarks {
		if benchmark.ID == "" {
			return nil, fmt.Errorf("benchmark %d has no id", i)
		}
		for j, testCase := range benchmark.TestCases {
			if testCase.ID == "" {
				return nil, fmt.Errorf("benchmark %q test case %d has no id", benchmark.ID, j)
			}
			if testCase.InitialPrompt == "" {
				return nil, fmt.Errorf("test case %q has no initial prompt", testCase.ID)
			}
		}
	}
	return &suite, nil
}

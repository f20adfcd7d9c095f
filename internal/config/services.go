package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// OrchestratorCfg configures the run orchestrator and its providers.
type OrchestratorCfg struct {
	DefaultConnector  string
	DefaultJudge      string
	JudgeModel        string
	JudgeBaseURL      string
	JudgeAPIKey       string
	AnthropicBaseURL  string
	AnthropicAPIKey   string
	SubprocessTimeout time.Duration

	// SubprocessCommand is the executable registered with the
	// subprocess connector. The connector stays unregistered when it
	// is empty.
	SubprocessCommand string
	SubprocessArgs    []string
	SubprocessInput   string
	SubprocessOutput  string

	// ReapInterval is how often stale cancellation tokens are swept.
	ReapInterval time.Duration
}

func NewOrchestratorCfg() *OrchestratorCfg {
	subprocessTimeoutSec := os.Getenv("SUBPROCESS_TIMEOUT_SEC")
	timeoutInt, err := strconv.Atoi(subprocessTimeoutSec)
	if err != nil {
		timeoutInt = 120
	}
	reapIntervalSec := os.Getenv("TOKEN_REAP_INTERVAL_SEC")
	reapInt, err := strconv.Atoi(reapIntervalSec)
	if err != nil {
		reapInt = 60
	}
	return &OrchestratorCfg{
		DefaultConnector:  getEnv("DEFAULT_CONNECTOR", "chat-completion"),
		DefaultJudge:      getEnv("DEFAULT_JUDGE", "openai"),
		JudgeModel:        getEnv("JUDGE_MODEL", "gpt-4o-mini"),
		JudgeBaseURL:      getEnv("JUDGE_BASE_URL", "https://api.openai.com"),
		JudgeAPIKey:       os.Getenv("JUDGE_API_KEY"),
		AnthropicBaseURL:  getEnv("ANTHROPIC_BASE_URL", "https://api.anthropic.com"),
		AnthropicAPIKey:   os.Getenv("ANTHROPIC_API_KEY"),
		SubprocessTimeout: time.Duration(timeoutInt) * time.Second,
		SubprocessCommand: os.Getenv("SUBPROCESS_COMMAND"),
		SubprocessArgs:    splitArgs(os.Getenv("SUBPROCESS_ARGS")),
		SubprocessInput:   getEnv("SUBPROCESS_INPUT_MODE", "stdin"),
		SubprocessOutput:  getEnv("SUBPROCESS_OUTPUT_FORMAT", "text"),
		ReapInterval:      time.Duration(reapInt) * time.Second,
	}
}

func splitArgs(raw string) []string {
	if raw == "" {
		return nil
	}
	return strings.Fields(raw)
}

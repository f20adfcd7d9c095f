package judge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/jasonlhamazon/agent-health-jasonlh-sub001/internal/core/ports/primary"
	"github.com/jasonlhamazon/agent-health-jasonlh-sub001/internal/domain"
)

// Per-outcome classification weights.
const (
	scoreFull    = 1.0
	scorePartial = 0.5
	scoreNone    = 0.0
)

// judgeVerdict is the JSON document the judge model is instructed to
// produce.
type judgeVerdict struct {
	Outcomes []struct {
		Outcome string `json:"outcome"`
		Score   string `json:"score"`
	} `json:"outcomes"`
	CriticalFailures      []string                     `json:"criticalFailures"`
	Reasoning             string                       `json:"reasoning"`
	ImprovementStrategies []domain.ImprovementStrategy `json:"improvementStrategies"`
}

// Backend sends a judge prompt to an LLM API and returns the response
// text.
type Backend interface {
	Complete(ctx context.Context, model, prompt string) (string, error)
}

// LLMJudge scores trajectories by asking an LLM backend to classify
// each expected outcome as fully met, partially met, or missed.
type LLMJudge struct {
	name    string
	backend Backend
	model   string
	logger  primary.Logger
}

var _ Judge = (*LLMJudge)(nil)

// NewLLMJudge creates an LLM-backed judge
func NewLLMJudge(name string, backend Backend, model string, logger primary.Logger) *LLMJudge {
	return &LLMJudge{
		name:    name,
		backend: backend,
		model:   model,
		logger:  logger,
	}
}

func (j *LLMJudge) Name() string { return j.name }

// Evaluate scores a trajectory against the expectation.
func (j *LLMJudge) Evaluate(ctx context.Context, trajectory []domain.TrajectoryStep, expected Expectation, modelID string) (*Evaluation, error) {
	start := time.Now()

	outcomes := expected.Outcomes
	if len(outcomes) == 0 {
		outcomes = outcomesFromTrajectory(expected.Trajectory)
	}
	if len(outcomes) == 0 {
		return &Evaluation{
			PassFailStatus: domain.StatusFailed,
			Accuracy:       0,
			Reasoning:      "no expected outcomes to evaluate against",
			Duration:       time.Since(start),
		}, nil
	}

	prompt := buildJudgePrompt(trajectory, outcomes, modelID)
	content, err := j.backend.Complete(ctx, j.model, prompt)
	if err != nil {
		return nil, fmt.Errorf("judge backend failed: %w", err)
	}

	verdict, ok := parseVerdict(content)
	if !ok {
		// Malformed judge output degrades to a failed evaluation, it
		// never crashes the run.
		if j.logger != nil {
			j.logger.Warn("judge response could not be parsed", "model", j.model)
		}
		return &Evaluation{
			PassFailStatus: domain.StatusFailed,
			Accuracy:       0,
			Reasoning:      "judge response did not contain a parseable JSON verdict",
			Duration:       time.Since(start),
		}, nil
	}

	return scoreVerdict(verdict, len(outcomes), time.Since(start)), nil
}

// scoreVerdict turns a parsed verdict into an evaluation. Accuracy is
// the rounded percentage of full/partial/none weights over the number
// of expected outcomes; outcomes the judge did not report count as
// none.
func scoreVerdict(verdict *judgeVerdict, outcomeCount int, duration time.Duration) *Evaluation {
	var sum float64
	for _, outcome := range verdict.Outcomes {
		switch strings.ToLower(outcome.Score) {
		case "full":
			sum += scoreFull
		case "partial":
			sum += scorePartial
		default:
			sum += scoreNone
		}
	}

	accuracy := int(math.Round(100 * sum / float64(outcomeCount)))
	if accuracy > 100 {
		accuracy = 100
	}

	status := domain.StatusFailed
	if accuracy >= PassThreshold && len(verdict.CriticalFailures) == 0 {
		status = domain.StatusPassed
	}

	return &Evaluation{
		PassFailStatus:        status,
		Accuracy:              accuracy,
		Reasoning:             verdict.Reasoning,
		ImprovementStrategies: verdict.ImprovementStrategies,
		Duration:              duration,
	}
}

func outcomesFromTrajectory(steps []domain.TrajectoryStep) []string {
	var outcomes []string
	for _, step := range steps {
		if step.Content == "" {
			continue
		}
		outcomes = append(outcomes, fmt.Sprintf("The agent produces a %s step: %s", step.Type, step.Content))
	}
	return outcomes
}

func buildJudgePrompt(trajectory []domain.TrajectoryStep, outcomes []string, modelID string) string {
	var sb strings.Builder
	sb.WriteString("You are an evaluation judge for AI agent trajectories.\n\n")
	fmt.Fprintf(&sb, "The agent under test (%s) produced the following trajectory:\n\n", modelID)

	trajectoryJSON, _ := json.MarshalIndent(trajectory, "", "  ")
	sb.Write(trajectoryJSON)

	sb.WriteString("\n\nExpected outcomes:\n")
	for i, outcome := range outcomes {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, outcome)
	}

	sb.WriteString(`
Classify each expected outcome as "full" (fully achieved), "partial"
(partially achieved) or "none" (not achieved). Flag critical failures:
wrong conclusion, missing critical step, fabricated data.

Respond with ONLY a JSON object of this shape:
{
  "outcomes": [{"outcome": "...", "score": "full|partial|none"}],
  "criticalFailures": [],
  "reasoning": "...",
  "improvementStrategies": [
    {"category": "...", "issue": "...", "recommendation": "...", "priority": "high|medium|low"}
  ]
}`)
	return sb.String()
}

var fencedJSON = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

// extractJSON pulls the JSON object out of a judge response: a fenced
// code block when present, otherwise the substring between the first
// "{" and the last "}".
func extractJSON(content string) (string, bool) {
	if m := fencedJSON.FindStringSubmatch(content); m != nil {
		return m[1], true
	}
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start >= 0 && end > start {
		return content[start : end+1], true
	}
	return "", false
}

func parseVerdict(content string) (*judgeVerdict, bool) {
	extracted, ok := extractJSON(content)
	if !ok {
		return nil, false
	}
	var verdict judgeVerdict
	if err := json.Unmarshal([]byte(extracted), &verdict); err != nil {
		return nil, false
	}
	return &verdict, true
}

// OpenAIBackend talks to an OpenAI-compatible chat-completions API.
type OpenAIBackend struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

var _ Backend = (*OpenAIBackend)(nil)

// NewOpenAIBackend creates an OpenAI-compatible judge backend
func NewOpenAIBackend(httpClient *http.Client, baseURL, apiKey string) *OpenAIBackend {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &OpenAIBackend{httpClient: httpClient, baseURL: strings.TrimSuffix(baseURL, "/"), apiKey: apiKey}
}

func (b *OpenAIBackend) Complete(ctx context.Context, model, prompt string) (string, error) {
	reqBody := map[string]interface{}{
		"model":       model,
		"temperature": 0,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	}
	bodyBytes, _ := json.Marshal(reqBody)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/v1/chat/completions", bytes.NewReader(bodyBytes))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if b.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+b.apiKey)
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errBody map[string]interface{}
		json.NewDecoder(resp.Body).Decode(&errBody)
		return "", fmt.Errorf("judge API returned %d: %v", resp.StatusCode, errBody)
	}

	var chatResult struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&chatResult); err != nil {
		return "", err
	}
	if len(chatResult.Choices) == 0 {
		return "", fmt.Errorf("no choices in judge response")
	}
	return chatResult.Choices[0].Message.Content, nil
}

// AnthropicBackend talks to an Anthropic-style messages API.
type AnthropicBackend struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

var _ Backend = (*AnthropicBackend)(nil)

// NewAnthropicBackend creates an Anthropic-style judge backend
func NewAnthropicBackend(httpClient *http.Client, baseURL, apiKey string) *AnthropicBackend {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &AnthropicBackend{httpClient: httpClient, baseURL: strings.TrimSuffix(baseURL, "/"), apiKey: apiKey}
}

func (b *AnthropicBackend) Complete(ctx context.Context, model, prompt string) (string, error) {
	reqBody := map[string]interface{}{
		"model":      model,
		"max_tokens": 2048,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	}
	bodyBytes, _ := json.Marshal(reqBody)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/v1/messages", bytes.NewReader(bodyBytes))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", b.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errBody map[string]interface{}
		json.NewDecoder(resp.Body).Decode(&errBody)
		return "", fmt.Errorf("judge API returned %d: %v", resp.StatusCode, errBody)
	}

	var msgResult struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&msgResult); err != nil {
		return "", err
	}
	for _, block := range msgResult.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("no text content in judge response")
}

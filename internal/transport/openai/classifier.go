package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/lawnald/counselrank/internal/domain"
	"github.com/lawnald/counselrank/internal/metrics"
)

// Classifier routes a free-text case description into the practice taxonomy
// via a chat-completion JSON prompt.
type Classifier struct {
	client    *openai.Client
	model     string
	maxTokens int
	timeout   time.Duration
	prompt    string
	taxonomy  domain.Taxonomy
	logger    *zap.Logger
}

// ClassifierConfig holds the classification model settings.
type ClassifierConfig struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
	Timeout   time.Duration
	Taxonomy  domain.Taxonomy
	Logger    *zap.Logger
}

// NewClassifier creates an OpenAI-compatible query classifier.
func NewClassifier(cfg *ClassifierConfig) *Classifier {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &Classifier{
		client:    openai.NewClientWithConfig(clientCfg),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		timeout:   cfg.Timeout,
		prompt:    buildSystemPrompt(cfg.Taxonomy),
		taxonomy:  cfg.Taxonomy,
		logger:    cfg.Logger,
	}
}

// classifierResponse is the wire shape the model is prompted to emit.
type classifierResponse struct {
	PrimaryDomain      string   `json:"primary_domain"`
	SecondaryDomain    string   `json:"secondary_domain"`
	Confidence         float64  `json:"confidence"`
	SummaryForMatching string   `json:"summary_for_matching"`
	CaseNature         string   `json:"case_nature"`
	CoreRisk           string   `json:"core_risk"`
	Urgency            string   `json:"urgency"`
	OneLineSummary     string   `json:"one_line_summary"`
	KeyIssues          []string `json:"key_issues"`
	ActionChecklist    []string `json:"action_checklist"`
}

// Classify implements domain.Classifier. Failures and unparseable output
// return ErrClassifierError; the analysis layer degrades fail-open.
func (c *Classifier) Classify(ctx context.Context, query string) (domain.QueryAnalysis, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: c.prompt},
			{Role: openai.ChatMessageRoleUser, Content: query},
		},
	})
	if err != nil {
		metrics.ClassifierRequestsTotal.WithLabelValues(c.model, "error").Inc()
		return domain.QueryAnalysis{}, fmt.Errorf("classification request failed: %w", domain.ErrClassifierError)
	}
	if len(resp.Choices) == 0 {
		metrics.ClassifierRequestsTotal.WithLabelValues(c.model, "error").Inc()
		return domain.QueryAnalysis{}, fmt.Errorf("empty classifier response: %w", domain.ErrClassifierError)
	}

	analysis, err := c.parse(query, resp.Choices[0].Message.Content)
	if err != nil {
		metrics.ClassifierRequestsTotal.WithLabelValues(c.model, "error").Inc()
		return domain.QueryAnalysis{}, err
	}

	metrics.ClassifierRequestsTotal.WithLabelValues(c.model, "success").Inc()
	return analysis, nil
}

// parse validates and normalizes the model output.
func (c *Classifier) parse(query, content string) (domain.QueryAnalysis, error) {
	content = stripMarkdownFences(content)

	var parsed classifierResponse
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return domain.QueryAnalysis{}, fmt.Errorf("unparseable classifier output: %w", domain.ErrClassifierError)
	}
	if parsed.PrimaryDomain == "" {
		return domain.QueryAnalysis{}, fmt.Errorf("classifier output missing primary domain: %w", domain.ErrClassifierError)
	}

	// Unknown domains collapse to the fallback so the penalty gate cannot fire
	// on taxonomy drift between prompt and config.
	primary := parsed.PrimaryDomain
	if _, ok := c.taxonomy[primary]; !ok {
		c.logger.Warn("Classifier returned unknown domain", zap.String("domain", primary))
		primary = domain.FallbackDomain
	}
	secondary := parsed.SecondaryDomain
	if _, ok := c.taxonomy[secondary]; !ok {
		secondary = ""
	}

	confidence := parsed.Confidence
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	matchingText := strings.TrimSpace(parsed.SummaryForMatching)
	if matchingText == "" {
		matchingText = query
	}

	return domain.QueryAnalysis{
		PrimaryDomain:   primary,
		SecondaryDomain: secondary,
		Confidence:      confidence,
		MatchingText:    matchingText,
		CaseNature:      parsed.CaseNature,
		CoreRisk:        parsed.CoreRisk,
		Urgency:         parsed.Urgency,
		OneLineSummary:  parsed.OneLineSummary,
		KeyIssues:       parsed.KeyIssues,
		ActionItems:     parsed.ActionChecklist,
	}, nil
}

// stripMarkdownFences removes a ```json ... ``` wrapper some models emit
// despite the prompt.
func stripMarkdownFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// buildSystemPrompt renders the routing prompt with the configured domains.
func buildSystemPrompt(t domain.Taxonomy) string {
	domains := strings.Join(t.Domains(), ", ")
	return fmt.Sprintf(`You are a legal case router. Analyze the user's legal situation and provide a structured analysis.

Output MUST be a valid JSON object with the following fields:
{
  "primary_domain": "One of [%s]",
  "secondary_domain": "Optional. One of the above or null",
  "confidence": "Float between 0.0 and 1.0 indicating confidence in primary_domain",
  "summary_for_matching": "A concise summary of the case facts (3-6 sentences) for embedding matching.",
  "case_nature": "A short classification of the case.",
  "core_risk": "The most critical risk for the user right now.",
  "urgency": "One of ['urgent', 'high', 'normal', 'low'].",
  "one_line_summary": "A single sentence summarizing the core situation for the client. Tone: objective but assuring.",
  "key_issues": ["List of 3 key legal issues/contention points"],
  "action_checklist": ["List of 3 concrete action items for the client to take immediately"]
}

Rules:
1. Classify strictly into the provided domains; use %q only when nothing fits.
2. Analyze core_risk sharply. Don't be generic.
3. For action_checklist, give specific instructions with concrete deadlines where relevant.
4. Do NOT output markdown. Just the JSON.`, domains, domain.FallbackDomain)
}

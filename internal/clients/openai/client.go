// Package openai provides the embedding and transcript-scoring client.
// One OpenAI-compatible HTTP client serves both the similarity oracle's
// embed step and the LLM screening scorer.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Subham170/AI-Recruitment-sub000/internal/domain"
)

// ErrMalformedOutput signals that the model answered but not in the
// requested JSON shape. Callers fall back to heuristic scoring.
var ErrMalformedOutput = errors.New("model output did not match requested schema")

const (
	embeddingModel = "text-embedding-3-small"
	scoringModel   = "gpt-4o-mini"
)

// Client for an OpenAI-compatible API
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	log        zerolog.Logger
}

// NewClient creates a new embedding/scoring client
func NewClient(baseURL, apiKey string, log zerolog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		log: log.With().Str("client", "openai").Logger(),
	}
}

// Embed generates a vector embedding for the given text.
func (c *Client) Embed(ctx context.Context, text string) ([]float64, error) {
	reqBody := map[string]interface{}{
		"input": text,
		"model": embeddingModel,
	}

	var result struct {
		Data []struct {
			Embedding []float64 `json:"embedding"`
		} `json:"data"`
	}

	if err := c.post(ctx, "/v1/embeddings", reqBody, &result); err != nil {
		return nil, err
	}

	if len(result.Data) == 0 {
		return nil, fmt.Errorf("no embedding returned")
	}

	return result.Data[0].Embedding, nil
}

// ScreeningAnalysis is the scorer's structured verdict on a transcript.
type ScreeningAnalysis struct {
	Score     int      `json:"score"` // 0-100
	Rationale string   `json:"rationale"`
	Strengths []string `json:"strengths,omitempty"`
	Concerns  []string `json:"concerns,omitempty"`
}

// ScoreTranscript asks the model to rate a screening transcript against a
// job description, returning a 0-100 score with rationale. A syntactically
// broken answer surfaces as ErrMalformedOutput, not a provider error.
func (c *Client) ScoreTranscript(ctx context.Context, transcript, jobDescription string) (*ScreeningAnalysis, error) {
	prompt := buildScoringPrompt(transcript, jobDescription)

	reqBody := map[string]interface{}{
		"model": scoringModel,
		"messages": []map[string]string{
			{"role": "system", "content": "You are an expert technical recruiter evaluating phone screening transcripts. Respond with JSON only."},
			{"role": "user", "content": prompt},
		},
		"temperature":     0.2,
		"response_format": map[string]string{"type": "json_object"},
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}

	if err := c.post(ctx, "/v1/chat/completions", reqBody, &result); err != nil {
		return nil, err
	}

	if len(result.Choices) == 0 {
		return nil, fmt.Errorf("%w: empty choices", ErrMalformedOutput)
	}

	analysis, err := parseAnalysis(result.Choices[0].Message.Content)
	if err != nil {
		c.log.Warn().Err(err).Msg("Scorer returned malformed output")
		return nil, err
	}

	return analysis, nil
}

// parseAnalysis extracts the structured verdict from model output,
// tolerating markdown code fences around the JSON body.
func parseAnalysis(content string) (*ScreeningAnalysis, error) {
	trimmed := strings.TrimSpace(content)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)

	var analysis ScreeningAnalysis
	if err := json.Unmarshal([]byte(trimmed), &analysis); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}

	if analysis.Score < 0 || analysis.Score > 100 {
		return nil, fmt.Errorf("%w: score %d out of range", ErrMalformedOutput, analysis.Score)
	}

	return &analysis, nil
}

func buildScoringPrompt(transcript, jobDescription string) string {
	var sb strings.Builder

	sb.WriteString("Score the following phone screening transcript for the given job.\n\n")
	sb.WriteString("**Job Description:**\n")
	sb.WriteString(jobDescription)
	sb.WriteString("\n\n**Transcript:**\n")
	sb.WriteString(transcript)
	sb.WriteString(`

**Scoring Guidelines:**
- 90-100: Exceptional fit, strong communication, relevant depth
- 70-89: Good fit, meets most requirements
- 50-69: Partial fit, notable gaps
- 0-49: Poor fit or uninformative screening

**Response Format (JSON):**
{
  "score": 82,
  "rationale": "one-paragraph explanation",
  "strengths": ["..."],
  "concerns": ["..."]
}
`)

	return sb.String()
}

// post executes one API request with auth and JSON round-tripping.
func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &domain.ProviderError{Provider: "openai", Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return &domain.ProviderError{
			Provider:   "openai",
			HTTPStatus: resp.StatusCode,
			Message:    string(raw),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

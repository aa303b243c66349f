// Package bolna provides client functionality for the voice-AI call
// provider that places and reports on automated phone screenings.
package bolna

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/Subham170/AI-Recruitment-sub000/internal/domain"
)

// Client for the call provider API
type Client struct {
	baseURL    string
	apiKey     string
	agentID    string
	httpClient *http.Client
	log        zerolog.Logger
}

// NewClient creates a new call provider client
func NewClient(baseURL, apiKey, agentID string, log zerolog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		agentID: agentID,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: log.With().Str("client", "bolna").Logger(),
	}
}

// SetHTTPClient replaces the underlying HTTP client (for testing)
func (c *Client) SetHTTPClient(hc *http.Client) {
	c.httpClient = hc
}

// ScheduleRequest is the request for scheduling a screening call
type ScheduleRequest struct {
	AgentID     string            `json:"agent_id"`
	Recipient   string            `json:"recipient_phone_number"`
	ScheduledAt string            `json:"scheduled_at"` // RFC3339
	UserData    map[string]string `json:"user_data,omitempty"`
}

// ScheduleResponse is the provider's response to a schedule request
type ScheduleResponse struct {
	ExecutionID string `json:"execution_id"`
	Status      string `json:"status"`
}

// Execution is the provider's view of one call attempt
type Execution struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	Transcript  string `json:"transcript,omitempty"`
	ScheduledAt string `json:"scheduled_at,omitempty"`
}

// errorEnvelope is the provider's error payload shape
type errorEnvelope struct {
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
	Detail    string `json:"detail"`
}

// ScheduleCall asks the provider to place a call at the given instant.
// Returns the provider-assigned execution id.
func (c *Client) ScheduleCall(ctx context.Context, phone string, when time.Time, metadata map[string]string) (string, error) {
	req := ScheduleRequest{
		AgentID:     c.agentID,
		Recipient:   phone,
		ScheduledAt: when.UTC().Format(time.RFC3339),
		UserData:    metadata,
	}

	var resp ScheduleResponse
	if err := c.do(ctx, http.MethodPost, "/call", req, &resp); err != nil {
		return "", err
	}

	if resp.ExecutionID == "" {
		return "", fmt.Errorf("provider returned empty execution id")
	}

	c.log.Debug().
		Str("execution_id", resp.ExecutionID).
		Time("scheduled_at", when).
		Msg("Call scheduled with provider")

	return resp.ExecutionID, nil
}

// StopCall asks the provider to cancel a not-yet-live call.
func (c *Client) StopCall(ctx context.Context, executionID string) error {
	path := fmt.Sprintf("/call/%s/stop", executionID)
	if err := c.do(ctx, http.MethodPost, path, nil, nil); err != nil {
		return err
	}

	c.log.Debug().Str("execution_id", executionID).Msg("Call stopped at provider")
	return nil
}

// GetExecution fetches the current status and transcript (if any) of a call.
func (c *Client) GetExecution(ctx context.Context, executionID string) (*Execution, error) {
	path := fmt.Sprintf("/executions/%s", executionID)

	var exec Execution
	if err := c.do(ctx, http.MethodGet, path, nil, &exec); err != nil {
		return nil, err
	}

	return &exec, nil
}

// do executes one provider request, decoding non-2xx responses into a
// domain.ProviderError so the provider's own code and message survive
// verbatim to the caller.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &domain.ProviderError{
			Provider: "bolna",
			Message:  err.Error(),
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)

		var envelope errorEnvelope
		perr := &domain.ProviderError{
			Provider:   "bolna",
			HTTPStatus: resp.StatusCode,
			Message:    string(raw),
		}
		if err := json.Unmarshal(raw, &envelope); err == nil {
			if envelope.Message != "" {
				perr.Message = envelope.Message
			} else if envelope.Detail != "" {
				perr.Message = envelope.Detail
			}
			perr.Code = envelope.ErrorCode
		}

		c.log.Warn().
			Int("status", resp.StatusCode).
			Str("path", path).
			Str("provider_code", perr.Code).
			Msg("Provider request failed")

		return perr
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode provider response: %w", err)
	}

	return nil
}

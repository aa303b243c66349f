// Package calcom provides the notification sink: creating a calendar
// booking sends the interview invite emails to candidate and recruiter.
package calcom

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

// Client for the Cal.com API
type Client struct {
	baseURL     string
	apiKey      string
	eventTypeID int
	httpClient  *http.Client
	log         zerolog.Logger
}

// NewClient creates a new booking client
func NewClient(baseURL, apiKey string, eventTypeID int, log zerolog.Logger) *Client {
	return &Client{
		baseURL:     baseURL,
		apiKey:      apiKey,
		eventTypeID: eventTypeID,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: log.With().Str("client", "calcom").Logger(),
	}
}

// bookingRequest is the payload for creating a booking
type bookingRequest struct {
	EventTypeID int              `json:"eventTypeId"`
	Start       string           `json:"start"` // RFC3339
	Responses   bookingResponses `json:"responses"`
	TimeZone    string           `json:"timeZone"`
	Language    string           `json:"language"`
}

type bookingResponses struct {
	Name   string   `json:"name"`
	Email  string   `json:"email"`
	Guests []string `json:"guests,omitempty"`
}

type bookingResponse struct {
	UID string `json:"uid"`
	ID  int    `json:"id"`
}

// CreateBooking books an interview slot, which triggers the calendar
// invite emails. The recruiter email is optional (unassigned calls are
// still notified to the candidate).
func (c *Client) CreateBooking(ctx context.Context, candidateName, candidateEmail, recruiterEmail string, when time.Time) (string, error) {
	if candidateEmail == "" {
		return "", domain.NewValidationError("candidateEmail", "required for booking")
	}

	req := bookingRequest{
		EventTypeID: c.eventTypeID,
		Start:       when.UTC().Format(time.RFC3339),
		Responses: bookingResponses{
			Name:  candidateName,
			Email: candidateEmail,
		},
		TimeZone: "UTC",
		Language: "en",
	}
	if recruiterEmail != "" {
		req.Responses.Guests = []string{recruiterEmail}
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to encode booking request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/v1/bookings?apiKey=%s", c.baseURL, c.apiKey), bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build booking request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", &domain.ProviderError{Provider: "calcom", Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		return "", &domain.ProviderError{
			Provider:   "calcom",
			HTTPStatus: resp.StatusCode,
			Message:    string(raw),
		}
	}

	var booking bookingResponse
	if err := json.NewDecoder(resp.Body).Decode(&booking); err != nil {
		return "", fmt.Errorf("failed to decode booking response: %w", err)
	}

	ref := booking.UID
	if ref == "" {
		ref = fmt.Sprintf("booking-%d", booking.ID)
	}

	c.log.Debug().
		Str("booking_ref", ref).
		Time("start", when).
		Msg("Booking created")

	return ref, nil
}

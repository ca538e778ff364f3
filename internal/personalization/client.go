// Package personalization is the client of the optional remote personalization
// service. Every failure, including a malformed payload, is reported as
// apperr.ErrDependencyUnavailable so callers can fall back locally.
package personalization

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/example/masterybot/internal/apperr"
	"github.com/example/masterybot/internal/logger"
	"github.com/example/masterybot/pkg/models"
	"github.com/google/uuid"
)

const (
	buildProfilePath = "/api/adaptive/build-profile"
	prioritizePath   = "/api/adaptive/prioritize-review"
	tunePath         = "/api/knowledge/bkt-params"

	maxResponseBytes = 4 << 20
)

// Client calls the remote personalization service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *logger.Logger
}

// New creates a client for baseURL. timeout bounds every request even when
// the caller's context has no deadline.
func New(baseURL string, timeout time.Duration, log *logger.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		log:        log.With("component", "personalization"),
	}
}

// ProfileRequest is the session window submitted for profile analysis.
type ProfileRequest struct {
	LearnerID  string                   `json:"learner_id"`
	Sessions   []models.LearningSession `json:"sessions"`
	Conditions []string                 `json:"conditions"`
}

// ProfileResponse is the remote analysis. Every field is required.
type ProfileResponse struct {
	DiscoveredPreferences *models.DiscoveredPreferences `json:"discovered_preferences"`
	AttentionProfile      *models.AttentionProfile      `json:"attention_profile"`
	EmotionalThresholds   *models.EmotionalThresholds   `json:"emotional_thresholds"`
	ConfidenceScores      *models.ConfidenceScores      `json:"confidence_scores"`
	Insights              *[]models.Insight             `json:"insights"`
}

// PrioritizeRequest asks the service to order a learner's concepts for review.
type PrioritizeRequest struct {
	LearnerID string                `json:"learner_id"`
	CourseID  string                `json:"course_id"`
	Concepts  []models.ConceptState `json:"concepts"`
}

type prioritizeResponse struct {
	OrderedConceptIDs *[]string `json:"ordered_concept_ids"`
}

type tuneRequest struct {
	Conditions []string `json:"conditions"`
}

type tuneResponse struct {
	PInit    *float64 `json:"p_init"`
	PTransit *float64 `json:"p_transit"`
	PGuess   *float64 `json:"p_guess"`
	PSlip    *float64 `json:"p_slip"`
}

// BuildProfile submits a session window for remote analysis.
func (c *Client) BuildProfile(ctx context.Context, req ProfileRequest) (*ProfileResponse, error) {
	var resp ProfileResponse
	if err := c.post(ctx, buildProfilePath, req, &resp); err != nil {
		return nil, err
	}
	if err := resp.validate(); err != nil {
		return nil, err
	}
	return &resp, nil
}

// PrioritizeReviews returns concept ids in the service's review order.
func (c *Client) PrioritizeReviews(ctx context.Context, req PrioritizeRequest) ([]string, error) {
	var resp prioritizeResponse
	if err := c.post(ctx, prioritizePath, req, &resp); err != nil {
		return nil, err
	}
	if resp.OrderedConceptIDs == nil {
		return nil, apperr.Unavailablef("personalization: prioritize response missing ordered_concept_ids")
	}
	return *resp.OrderedConceptIDs, nil
}

// TuneParameters returns BKT parameters tuned for the declared conditions.
func (c *Client) TuneParameters(ctx context.Context, conditions []string) (models.BKTParams, error) {
	var resp tuneResponse
	if err := c.post(ctx, tunePath, tuneRequest{Conditions: conditions}, &resp); err != nil {
		return models.BKTParams{}, err
	}
	fields := []*float64{resp.PInit, resp.PTransit, resp.PGuess, resp.PSlip}
	for _, f := range fields {
		if f == nil || *f < 0 || *f > 1 || *f != *f {
			return models.BKTParams{}, apperr.Unavailablef("personalization: tuned parameters missing or out of range")
		}
	}
	return models.BKTParams{PInit: *resp.PInit, PTransit: *resp.PTransit, PGuess: *resp.PGuess, PSlip: *resp.PSlip}, nil
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	requestData, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(requestData))
	if err != nil {
		return apperr.Unavailablef("personalization: create request: %v", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperr.Unavailablef("personalization: %s: %v", path, err)
	}
	defer resp.Body.Close()

	c.log.Debug("personalization call", "path", path, "status", resp.StatusCode, "request_id", requestID, "elapsed", time.Since(start))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return apperr.Unavailablef("personalization: %s: status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(out); err != nil {
		return apperr.Unavailablef("personalization: %s: decode response: %v", path, err)
	}
	return nil
}

// Package store implements the External Store Adapter: an HTTP REST
// client (PostgREST/Supabase-shaped) for inserting and patching signal
// rows. Failures are logged and returned to the caller; they never
// halt the ingestion pipeline — the in-memory tracker state is the
// source of truth for the live session.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rthmn/signal-engine/pkg/models"
)

// Client talks to a PostgREST-compatible signals table over HTTP,
// authenticating with an apikey header plus a bearer token (the shape
// Supabase's REST API expects).
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *retryablehttp.Client
}

// New builds a Client against baseURL (e.g. https://project.supabase.co)
// using apiKey for both the apikey header and the bearer token. timeout
// bounds every request (including retries); a non-positive value leaves
// the underlying http.Client's zero-value (no timeout).
func New(baseURL, apiKey string, timeout time.Duration) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 3
	rc.Logger = nil
	if timeout > 0 {
		rc.HTTPClient.Timeout = timeout
	}

	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: rc,
	}
}

type insertSignalPayload struct {
	CorrelationID   string             `json:"correlation_id"`
	Pair            string             `json:"pair"`
	SignalType      models.SignalType  `json:"signal_type"`
	Level           int                `json:"level"`
	PatternSequence []int32            `json:"pattern_sequence"`
	BoxDetails      []models.BoxDetail `json:"box_details"`
	Entry           float64            `json:"entry"`
	StopLosses      []float64          `json:"stop_losses"`
	Targets         []float64          `json:"targets"`
	RiskReward      []float64          `json:"risk_reward"`
	Status          string             `json:"status"`
}

type insertedRow struct {
	ID int64 `json:"id"`
}

// InsertActiveSignal inserts a new row for signal and returns the
// store-assigned id.
func (c *Client) InsertActiveSignal(ctx context.Context, signal models.Signal) (int64, error) {
	payload := insertSignalPayload{
		CorrelationID:   signal.CorrelationID,
		Pair:            signal.Pair,
		SignalType:      signal.SignalType,
		Level:           signal.Level,
		PatternSequence: signal.PatternSequence,
		BoxDetails:      signal.BoxDetails,
		Entry:           signal.Entry,
		StopLosses:      signal.StopLosses,
		Targets:         signal.Targets,
		RiskReward:      signal.RiskReward,
		Status:          string(models.StatusActive),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("store: marshal insert payload: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/rest/v1/signals", bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("store: build insert request: %w", err)
	}
	c.setAuthHeaders(req.Request)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=representation")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("store: insert signal for %s: %w", signal.Pair, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("store: read insert response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, fmt.Errorf("store: insert signal for %s returned %d: %s", signal.Pair, resp.StatusCode, string(data))
	}

	var rows []insertedRow
	if err := json.Unmarshal(data, &rows); err != nil || len(rows) == 0 {
		return 0, fmt.Errorf("store: insert succeeded but no id returned for %s", signal.Pair)
	}

	log.Printf("[Store] inserted signal: %s %s L%d (id: %d, corr: %s)", signal.Pair, signal.SignalType, signal.Level, rows[0].ID, signal.CorrelationID)
	return rows[0].ID, nil
}

type updateStatusPayload struct {
	Status models.SettlementStatus `json:"status"`
}

// UpdateSignalStatus patches the status column of the row with the given id.
func (c *Client) UpdateSignalStatus(ctx context.Context, id int64, status models.SettlementStatus) error {
	body, err := json.Marshal(updateStatusPayload{Status: status})
	if err != nil {
		return fmt.Errorf("store: marshal status update: %w", err)
	}
	return c.patch(ctx, id, body, fmt.Sprintf("status -> %s", status))
}

type updateTargetsPayload struct {
	Targets     []float64    `json:"targets"`
	StopLosses  []float64    `json:"stop_losses"`
	TargetHits  []*models.Hit `json:"target_hits"`
	StopLossHit *models.Hit   `json:"stop_loss_hit"`
}

// UpdateSignalTargetsAndStops patches the targets/stop_losses (and
// their hit timestamps) of the row with the given id.
func (c *Client) UpdateSignalTargetsAndStops(ctx context.Context, id int64, targets []float64, stopLosses []float64, targetHits []*models.Hit, stopLossHit *models.Hit) error {
	body, err := json.Marshal(updateTargetsPayload{
		Targets:     targets,
		StopLosses:  stopLosses,
		TargetHits:  targetHits,
		StopLossHit: stopLossHit,
	})
	if err != nil {
		return fmt.Errorf("store: marshal targets update: %w", err)
	}
	return c.patch(ctx, id, body, "targets/stop_losses")
}

func (c *Client) patch(ctx context.Context, id int64, body []byte, what string) error {
	url := fmt.Sprintf("%s/rest/v1/signals?id=eq.%d", c.baseURL, id)
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPatch, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("store: build patch request: %w", err)
	}
	c.setAuthHeaders(req.Request)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=minimal")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("store: patch signal %d (%s): %w", id, what, err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("store: patch signal %d (%s) returned %d: %s", id, what, resp.StatusCode, string(data))
	}
	return nil
}

func (c *Client) setAuthHeaders(req *http.Request) {
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
}

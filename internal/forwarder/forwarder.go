// Package forwarder implements the downstream HTTP sink: each
// synthesised Signal (with its store-assigned id) is POSTed once to
// the downstream service. Non-2xx responses and transport errors are
// logged and not retried — the external store, not the downstream
// service, is the durable record.
package forwarder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rthmn/signal-engine/pkg/models"
)

// Forwarder POSTs Signal objects to a single downstream endpoint.
type Forwarder struct {
	endpoint   string
	token      string
	httpClient *retryablehttp.Client
}

// New builds a Forwarder that posts to <serverURL>/signals/raw with a
// bearer token.
func New(serverURL, token string) *Forwarder {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 0 // the spec requires no retry for downstream forward failures.
	rc.Logger = nil

	return &Forwarder{
		endpoint:   serverURL + "/signals/raw",
		token:      token,
		httpClient: rc,
	}
}

// Forward sends sig to the downstream service. Errors are returned for
// the caller to log; the ingestion loop never treats a forward failure
// as fatal to the box-update it arose from.
func (f *Forwarder) Forward(ctx context.Context, sig models.Signal) error {
	body, err := json.Marshal(sig)
	if err != nil {
		return fmt.Errorf("forwarder: marshal signal: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, f.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("forwarder: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+f.token)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("forwarder: post signal %d (corr: %s): %w", sig.ID, sig.CorrelationID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("forwarder: downstream returned %d for signal %d (corr: %s): %s", resp.StatusCode, sig.ID, sig.CorrelationID, string(data))
	}
	return nil
}

// ForwardAndLog is a convenience wrapper for call sites that only want
// to log a forward failure, per spec: downstream forward failures are
// logged and never halt the pipeline.
func ForwardAndLog(ctx context.Context, f *Forwarder, sig models.Signal) {
	if err := f.Forward(ctx, sig); err != nil {
		log.Printf("[Forwarder] %v", err)
	}
}

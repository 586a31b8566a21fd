// Package sink delivers canonical records downstream. The pipeline only
// depends on the Sink interface; HTTP ingestion, Postgres, and the JSON file
// dump are interchangeable delivery targets behind it.
package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/marketlens/price-intel-scraper/internal/models"
)

// Sink accepts one canonical record and reports accept or reject.
type Sink interface {
	Send(ctx context.Context, record *models.CanonicalRecord) error
}

// HTTPSink posts one JSON payload per record to an ingestion endpoint.
type HTTPSink struct {
	endpoint string
	client   *http.Client
}

// NewHTTPSink builds a sink for endpoint. The shared client keeps connection
// reuse across per-record posts.
func NewHTTPSink(endpoint string, timeout time.Duration) *HTTPSink {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPSink{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

// Client exposes the underlying HTTP client for transport injection in tests.
func (s *HTTPSink) Client() *http.Client {
	return s.client
}

// Send delivers one record. Only 200 and 201 count as accepted.
func (s *HTTPSink) Send(ctx context.Context, record *models.CanonicalRecord) error {
	body, err := json.Marshal(record.ToPayload())
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post record: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("sink rejected record: http status %d", resp.StatusCode)
	}
	return nil
}

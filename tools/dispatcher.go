package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DomainError is a failure reported by the tool backend itself via an
// {"error": ...} body — location not found, no matching symbols, and so on.
type DomainError struct {
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// BackendError is a non-success HTTP response from a tool backend.
type BackendError struct {
	Status int
	Body   string
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("tool backend error (%d): %s", e.Status, e.Body)
}

// Dispatcher issues tool invocations to their backend endpoints. Relative
// endpoints from the catalog are resolved against BaseURL.
type Dispatcher struct {
	BaseURL string
	Client  *http.Client
}

// NewDispatcher creates a dispatcher for backends rooted at baseURL.
func NewDispatcher(baseURL string) *Dispatcher {
	return &Dispatcher{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		Client:  &http.Client{Timeout: 20 * time.Second},
	}
}

// Dispatch POSTs a JSON payload to a backend endpoint and returns the raw
// JSON response. Failures map onto the tool error taxonomy:
//
//   - transport failure → wrapped connectivity error
//   - non-2xx status → *BackendError with the status code
//   - body containing an "error" field → *DomainError
//
// Callers convert any of these into a renderable error card; a tool failure
// never propagates past the chat pipeline.
func (d *Dispatcher) Dispatch(ctx context.Context, endpoint string, payload any) (json.RawMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode tool payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.resolve(endpoint), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build tool request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tool backend unreachable: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read tool response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &BackendError{Status: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	var probe struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &probe); err == nil && probe.Error != "" {
		return nil, &DomainError{Message: probe.Error}
	}

	return json.RawMessage(raw), nil
}

func (d *Dispatcher) resolve(endpoint string) string {
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		return endpoint
	}
	return d.BaseURL + "/" + strings.TrimPrefix(endpoint, "/")
}

// package clients holds thin JSON-over-HTTP clients for the three external
// collaborators of the lifecycle controller: the code generator, the code
// validator and the integration publisher. None of them retry on failure;
// a failed call is surfaced and re-invoked by a human trigger.
package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/mzhurov/feature-lifecycle-service/internal/config"
)

type httpClient struct {
	baseURL string
	token   string
	client  *http.Client
}

func newHTTPClient(cfg config.Client) *httpClient {
	return &httpClient{
		baseURL: cfg.BaseURL,
		token:   cfg.Token,
		client:  &http.Client{Timeout: cfg.Timeout},
	}
}

// remoteError is the error body shape the external services respond with.
type remoteError struct {
	Error string `json:"error"`
}

// postJSON sends one request and decodes the response into out. Non-2xx
// responses are returned as an error carrying the status code and the
// remote error message, so callers can classify them.
func (c *httpClient) postJSON(ctx context.Context, path string, in, out interface{}) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{
			StatusCode: resp.StatusCode,
			Message:    readRemoteError(resp.Body),
		}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

func readRemoteError(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil || len(raw) == 0 {
		return ""
	}

	var remote remoteError
	if err := json.Unmarshal(raw, &remote); err == nil && remote.Error != "" {
		return remote.Error
	}

	return string(raw)
}

// StatusError is a non-2xx response from an external collaborator.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("unexpected status %d", e.StatusCode)
	}

	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Message)
}

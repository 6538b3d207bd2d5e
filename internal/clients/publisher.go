package clients

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/mzhurov/feature-lifecycle-service/internal/apperrors"
	"github.com/mzhurov/feature-lifecycle-service/internal/config"
	"github.com/mzhurov/feature-lifecycle-service/pkg/api"
)

// PublisherClient opens a change request in the hosting system for an
// approved proposal's code and returns its reference URL.
type PublisherClient struct {
	http *httpClient
}

func NewPublisherClient(cfg config.Client) *PublisherClient {
	return &PublisherClient{http: newHTTPClient(cfg)}
}

type publishRequest struct {
	ProposalID  string `json:"proposalId"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Frontend    string `json:"frontend"`
	Backend     string `json:"backend"`
	Database    string `json:"database"`
}

type publishResponse struct {
	ReferenceURL string `json:"referenceUrl"`
}

func (c *PublisherClient) Publish(ctx context.Context, proposalID, title, description string, code api.CodeBundle) (string, error) {
	const op = "internal.clients.Publish"

	if c.http.baseURL == "" {
		return "", fmt.Errorf("%s: %w", op, &apperrors.PublishConfigError{Reason: "publisher base URL is not set"})
	}

	if c.http.token == "" {
		return "", fmt.Errorf("%s: %w", op, &apperrors.PublishConfigError{Reason: "publisher token is not set"})
	}

	req := publishRequest{
		ProposalID:  proposalID,
		Title:       title,
		Description: description,
		Frontend:    code.Frontend,
		Backend:     code.Backend,
		Database:    code.Database,
	}

	var resp publishResponse
	if err := c.http.postJSON(ctx, "/publish", req, &resp); err != nil {
		if reason, ok := classifyConfigFailure(err); ok {
			return "", fmt.Errorf("%s: %w", op, &apperrors.PublishConfigError{Reason: reason})
		}

		return "", fmt.Errorf("%s: publish failed: %w", op, err)
	}

	return resp.ReferenceURL, nil
}

// classifyConfigFailure separates operator-actionable credential problems
// from transient failures, by status code and by message content.
func classifyConfigFailure(err error) (string, bool) {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		if statusErr.StatusCode == http.StatusUnauthorized || statusErr.StatusCode == http.StatusForbidden {
			return fmt.Sprintf("publisher rejected credentials (status %d)", statusErr.StatusCode), true
		}

		msg := strings.ToLower(statusErr.Message)
		for _, marker := range []string{"credential", "token", "unauthorized", "expired", "not configured"} {
			if strings.Contains(msg, marker) {
				return statusErr.Message, true
			}
		}
	}

	return "", false
}

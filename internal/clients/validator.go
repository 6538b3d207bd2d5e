package clients

import (
	"context"
	"fmt"

	"github.com/mzhurov/feature-lifecycle-service/internal/config"
	"github.com/mzhurov/feature-lifecycle-service/internal/domain"
	"github.com/mzhurov/feature-lifecycle-service/pkg/api"
)

// ValidatorClient calls the external code validator: given the generated
// code and the proposal context it returns a score and per-check verdicts.
type ValidatorClient struct {
	http *httpClient
}

func NewValidatorClient(cfg config.Client) *ValidatorClient {
	return &ValidatorClient{http: newHTTPClient(cfg)}
}

type validateRequest struct {
	ProposalID  string         `json:"proposalId"`
	Code        api.CodeBundle `json:"code"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
}

func (c *ValidatorClient) Validate(ctx context.Context, proposalID string, code api.CodeBundle, title, description string) (*domain.ValidationResult, error) {
	const op = "internal.clients.Validate"

	req := validateRequest{
		ProposalID:  proposalID,
		Code:        code,
		Title:       title,
		Description: description,
	}

	var result domain.ValidationResult
	if err := c.http.postJSON(ctx, "/validate", req, &result); err != nil {
		return nil, fmt.Errorf("%s: code validation failed: %w", op, err)
	}

	return &result, nil
}

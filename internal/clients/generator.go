package clients

import (
	"context"
	"fmt"

	"github.com/mzhurov/feature-lifecycle-service/internal/config"
	"github.com/mzhurov/feature-lifecycle-service/pkg/api"
)

// GeneratorClient calls the external code generator: given a proposal's
// title and description it returns the three generated artifacts or fails.
type GeneratorClient struct {
	http *httpClient
}

func NewGeneratorClient(cfg config.Client) *GeneratorClient {
	return &GeneratorClient{http: newHTTPClient(cfg)}
}

type generateRequest struct {
	ProposalID  string `json:"proposalId"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

type generateResponse struct {
	Frontend string `json:"frontend"`
	Backend  string `json:"backend"`
	Database string `json:"database"`
}

func (c *GeneratorClient) Generate(ctx context.Context, proposalID, title, description string) (*api.CodeBundle, error) {
	const op = "internal.clients.Generate"

	req := generateRequest{
		ProposalID:  proposalID,
		Title:       title,
		Description: description,
	}

	var resp generateResponse
	if err := c.http.postJSON(ctx, "/generate", req, &resp); err != nil {
		return nil, fmt.Errorf("%s: code generation failed: %w", op, err)
	}

	return &api.CodeBundle{
		Frontend: resp.Frontend,
		Backend:  resp.Backend,
		Database: resp.Database,
	}, nil
}

// package service implements the lifecycle controller: it owns the proposal
// state machine, orchestrates the external generator/validator/publisher
// calls and persists every transition.
package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/mzhurov/feature-lifecycle-service/internal/domain"
	"github.com/mzhurov/feature-lifecycle-service/pkg/api"
	"github.com/mzhurov/feature-lifecycle-service/pkg/logger/sl"
)

type Transactor interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// CodeGenerator produces the three code artifacts for a proposal, or fails.
type CodeGenerator interface {
	Generate(ctx context.Context, proposalID, title, description string) (*api.CodeBundle, error)
}

// CodeValidator scores generated code and returns per-check verdicts.
type CodeValidator interface {
	Validate(ctx context.Context, proposalID string, code api.CodeBundle, title, description string) (*domain.ValidationResult, error)
}

// IntegrationPublisher opens a change request for approved code and returns
// its reference URL. Configuration and authorization failures carry
// apperrors.PublishConfigError.
type IntegrationPublisher interface {
	Publish(ctx context.Context, proposalID, title, description string, code api.CodeBundle) (string, error)
}

type BaseService struct {
	db  Transactor
	log *slog.Logger
}

func NewBaseService(db Transactor, log *slog.Logger) BaseService {
	return BaseService{
		db:  db,
		log: log,
	}
}

func (s *BaseService) transaction(ctx context.Context, op string, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}

	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			s.log.Error("failed to rollback transaction", sl.Err(err))
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}

	return nil
}

func toAPIProposal(p *domain.Proposal) (*api.Proposal, error) {
	bundle, err := domain.DecodeCodeBundle(p.ProposedCode)
	if err != nil {
		return nil, err
	}

	return &api.Proposal{
		ID:                p.ID,
		Title:             p.Title,
		Description:       p.Description,
		Status:            p.Status,
		LifecycleStage:    p.LifecycleStage,
		ProposedCode:      bundle,
		ValidationScore:   p.ValidationScore,
		ApprovalsCount:    p.ApprovalsCount,
		RequiredApprovals: p.RequiredApprovals,
		ReviewNotes:       p.ReviewNotes,
		RequestedBy:       p.RequestedBy,
		Priority:          p.Priority,
		Category:          p.Category,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}, nil
}

func toAPIValidations(checks []domain.Validation) []api.ValidationCheck {
	out := make([]api.ValidationCheck, len(checks))
	for i, c := range checks {
		out[i] = api.ValidationCheck{
			ID:             c.ID,
			BatchID:        c.BatchID,
			ValidationType: c.ValidationType,
			Status:         c.Status,
			AIFeedback:     c.AIFeedback,
			CreatedAt:      c.CreatedAt,
		}
		if len(c.Details) > 0 {
			// Embed the stored JSON payload as-is instead of base64 bytes.
			out[i].Details = json.RawMessage(c.Details)
		}
	}

	return out
}

func toAPIVote(v *domain.Approval) api.Vote {
	return api.Vote{
		ProposalID: v.ProposalID,
		ApproverID: v.ApproverID,
		Decision:   v.Decision,
		Comments:   v.Comments,
		DecidedAt:  v.DecidedAt,
	}
}

func toAPIVotes(votes []domain.Approval) []api.Vote {
	out := make([]api.Vote, len(votes))
	for i := range votes {
		out[i] = toAPIVote(&votes[i])
	}

	return out
}

func toAPIDeployment(d *domain.Deployment) api.Deployment {
	return api.Deployment{
		ID:          d.ID,
		ProposalID:  d.ProposalID,
		PRURL:       d.PRURL,
		MergeCommit: d.MergeCommit,
		Environment: d.Environment,
		Status:      d.Status,
		DeployedAt:  d.DeployedAt,
		DeployedBy:  d.DeployedBy,
		CreatedAt:   d.CreatedAt,
	}
}

func toAPIDeployments(deps []domain.Deployment) []api.Deployment {
	out := make([]api.Deployment, len(deps))
	for i := range deps {
		out[i] = toAPIDeployment(&deps[i])
	}

	return out
}

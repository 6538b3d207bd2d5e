package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/mzhurov/feature-lifecycle-service/internal/apperrors"
	"github.com/mzhurov/feature-lifecycle-service/internal/domain"
	"github.com/mzhurov/feature-lifecycle-service/pkg/api"
)

// Publish opens a change request for an approved proposal. The external
// publisher call happens between two short transactions: the first checks
// the stage under lock, the second re-checks it and records the outcome.
// A failed publish leaves the proposal in `approved` with no deployment
// row, so the operation can simply be retried.
func (s *LifecycleServiceImpl) Publish(ctx context.Context, proposalID string) (*api.PublishResponse, error) {
	const op = "internal.service.lifecycle.Publish"
	log := s.log.With(slog.String("op", op), slog.String("proposal_id", proposalID))

	var (
		p      *domain.Proposal
		bundle *api.CodeBundle
	)

	err := s.transaction(ctx, op, func(tx *sqlx.Tx) error {
		var err error

		p, err = s.propCmd.GetProposalByIDWithLock(ctx, tx, proposalID)
		if err != nil {
			return fmt.Errorf("%s: failed to get proposal with lock: %w", op, err)
		}

		if !domain.CanPublish(p.LifecycleStage) {
			return &apperrors.StageConflictError{Event: "publish", Stage: p.LifecycleStage}
		}

		if p.ProposedCode == nil {
			return fmt.Errorf("%s: %w", op, apperrors.ErrNothingToValidate)
		}

		bundle, err = domain.DecodeCodeBundle(p.ProposedCode)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	refURL, err := s.publisher.Publish(ctx, proposalID, p.Title, p.Description, *bundle)
	if err != nil {
		// Config and auth failures carry apperrors.PublishConfigError and
		// surface to the caller with a remediation hint.
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	dep := &domain.Deployment{
		ID:          uuid.NewString(),
		ProposalID:  proposalID,
		PRURL:       &refURL,
		Environment: api.EnvironmentStaging,
		Status:      api.DeploymentPending,
		CreatedAt:   time.Now().UTC(),
	}

	err = s.transaction(ctx, op, func(tx *sqlx.Tx) error {
		// The change request already exists remotely; re-check the stage in
		// case a concurrent transition happened during the external call.
		p, err = s.propCmd.GetProposalByIDWithLock(ctx, tx, proposalID)
		if err != nil {
			return fmt.Errorf("%s: failed to re-lock proposal: %w", op, err)
		}

		if !domain.CanPublish(p.LifecycleStage) {
			return &apperrors.StageConflictError{Event: "publish", Stage: p.LifecycleStage}
		}

		if err := s.deployments.Create(ctx, tx, dep); err != nil {
			return fmt.Errorf("%s: failed to create deployment: %w", op, err)
		}

		if err := s.propCmd.UpdateStage(ctx, tx, proposalID, api.StageMerged, domain.StatusForStage(api.StageMerged)); err != nil {
			return fmt.Errorf("%s: failed to update stage: %w", op, err)
		}
		p.LifecycleStage = api.StageMerged
		p.Status = domain.StatusForStage(api.StageMerged)

		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("proposal published", slog.String("pr_url", refURL))

	apiProposal, err := toAPIProposal(p)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &api.PublishResponse{
		Proposal:   *apiProposal,
		Deployment: toAPIDeployment(dep),
	}, nil
}

// ConfirmDeployed marks the latest pending deployment as rolled out and
// moves the proposal to its terminal stage.
func (s *LifecycleServiceImpl) ConfirmDeployed(ctx context.Context, proposalID string, actor domain.Actor) (*api.ConfirmDeploymentResponse, error) {
	const op = "internal.service.lifecycle.ConfirmDeployed"
	log := s.log.With(slog.String("op", op), slog.String("proposal_id", proposalID))

	if actor.Empty() {
		return nil, fmt.Errorf("%s: %w", op, apperrors.ErrNotAuthenticated)
	}

	var (
		p   *domain.Proposal
		dep *domain.Deployment
	)

	err := s.transaction(ctx, op, func(tx *sqlx.Tx) error {
		var err error

		p, err = s.propCmd.GetProposalByIDWithLock(ctx, tx, proposalID)
		if err != nil {
			return fmt.Errorf("%s: failed to get proposal with lock: %w", op, err)
		}

		if !domain.CanConfirmDeploy(p.LifecycleStage) {
			return &apperrors.StageConflictError{Event: "confirm deployment of", Stage: p.LifecycleStage}
		}

		dep, err = s.deployments.GetLatestPendingWithLock(ctx, tx, proposalID)
		if err != nil {
			return fmt.Errorf("%s: failed to get pending deployment: %w", op, err)
		}

		deployedAt := time.Now().UTC()
		deployedBy := actor.String()

		if err := s.deployments.MarkDeployed(ctx, tx, dep.ID, deployedBy, deployedAt); err != nil {
			return fmt.Errorf("%s: failed to mark deployment: %w", op, err)
		}
		dep.Status = api.DeploymentSuccess
		dep.DeployedAt = &deployedAt
		dep.DeployedBy = &deployedBy

		if err := s.propCmd.UpdateStage(ctx, tx, proposalID, api.StageDeployed, domain.StatusForStage(api.StageDeployed)); err != nil {
			return fmt.Errorf("%s: failed to update stage: %w", op, err)
		}
		p.LifecycleStage = api.StageDeployed
		p.Status = domain.StatusForStage(api.StageDeployed)

		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("deployment confirmed",
		slog.String("deployment_id", dep.ID),
		slog.String("deployed_by", actor.String()),
	)

	apiProposal, err := toAPIProposal(p)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &api.ConfirmDeploymentResponse{
		Proposal:   *apiProposal,
		Deployment: toAPIDeployment(dep),
	}, nil
}

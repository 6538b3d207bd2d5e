package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/mzhurov/feature-lifecycle-service/internal/apperrors"
	"github.com/mzhurov/feature-lifecycle-service/internal/config"
	"github.com/mzhurov/feature-lifecycle-service/internal/domain"
	"github.com/mzhurov/feature-lifecycle-service/internal/repository"
	"github.com/mzhurov/feature-lifecycle-service/pkg/api"
	"github.com/mzhurov/feature-lifecycle-service/pkg/logger/sl"
)

// LifecycleService is the controller contract. Every mutating method takes
// the acting identity explicitly where the operation is attributed to a
// human; nothing reads ambient session state.
type LifecycleService interface {
	CreateProposal(ctx context.Context, in CreateProposalInput) (*api.Proposal, error)

	// GenerateAndValidate is the composed pipeline: one user trigger runs
	// code generation and, on success, immediately runs validation.
	GenerateAndValidate(ctx context.Context, proposalID string) (*api.Proposal, error)

	// Validate re-runs validation on already-generated code; used to recover
	// from the generation-succeeded-but-validation-errored case.
	Validate(ctx context.Context, proposalID string) (*api.Proposal, error)

	CastVote(ctx context.Context, proposalID string, actor domain.Actor, decision api.VoteDecision, comments *string) (*api.VoteResponse, error)
	Publish(ctx context.Context, proposalID string) (*api.PublishResponse, error)
	ConfirmDeployed(ctx context.Context, proposalID string, actor domain.Actor) (*api.ConfirmDeploymentResponse, error)

	GetProposal(ctx context.Context, proposalID string) (*api.ProposalDetail, error)
	ListProposals(ctx context.Context, filter repository.ProposalFilter) (*api.ListProposalsResponse, error)
	GetValidationHistory(ctx context.Context, proposalID string) (*api.ValidationHistoryResponse, error)
	GetDeployments(ctx context.Context, proposalID string) (*api.DeploymentsResponse, error)
	GetStats(ctx context.Context) (*api.StatsResponse, error)
}

type CreateProposalInput struct {
	Title             string
	Description       string
	RequestedBy       *string
	Priority          api.Priority
	Category          string
	RequiredApprovals int
}

type LifecycleServiceImpl struct {
	BaseService
	cfg         config.Lifecycle
	propCmd     repository.ProposalCommandRepository
	propQuery   repository.ProposalQueryRepository
	validations repository.ValidationRepository
	approvals   repository.ApprovalRepository
	deployments repository.DeploymentRepository
	generator   CodeGenerator
	validator   CodeValidator
	publisher   IntegrationPublisher
}

func NewLifecycleService(
	db Transactor,
	log *slog.Logger,
	cfg config.Lifecycle,
	propCmd repository.ProposalCommandRepository,
	propQuery repository.ProposalQueryRepository,
	validations repository.ValidationRepository,
	approvals repository.ApprovalRepository,
	deployments repository.DeploymentRepository,
	generator CodeGenerator,
	validator CodeValidator,
	publisher IntegrationPublisher,
) *LifecycleServiceImpl {
	return &LifecycleServiceImpl{
		BaseService: NewBaseService(db, log),
		cfg:         cfg,
		propCmd:     propCmd,
		propQuery:   propQuery,
		validations: validations,
		approvals:   approvals,
		deployments: deployments,
		generator:   generator,
		validator:   validator,
		publisher:   publisher,
	}
}

func (s *LifecycleServiceImpl) CreateProposal(ctx context.Context, in CreateProposalInput) (*api.Proposal, error) {
	const op = "internal.service.lifecycle.CreateProposal"
	log := s.log.With(slog.String("op", op), slog.String("title", in.Title))

	requiredApprovals := in.RequiredApprovals
	if requiredApprovals == 0 {
		requiredApprovals = s.cfg.RequiredApprovals
	}

	if requiredApprovals < 1 {
		return nil, fmt.Errorf("%s: %w: required_approvals must be at least 1", op, apperrors.ErrValidation)
	}

	priority := in.Priority
	if priority == "" {
		priority = api.PriorityMedium
	}

	now := time.Now().UTC()

	p := &domain.Proposal{
		ID:                uuid.NewString(),
		Title:             in.Title,
		Description:       in.Description,
		Status:            api.StatusPending,
		LifecycleStage:    api.StageDraft,
		RequiredApprovals: requiredApprovals,
		RequestedBy:       in.RequestedBy,
		Priority:          priority,
		Category:          in.Category,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	err := s.transaction(ctx, op, func(tx *sqlx.Tx) error {
		return s.propCmd.CreateProposal(ctx, tx, p)
	})
	if err != nil {
		return nil, err
	}

	log.Info("proposal created", slog.String("proposal_id", p.ID))

	return toAPIProposal(p)
}

func (s *LifecycleServiceImpl) GetProposal(ctx context.Context, proposalID string) (*api.ProposalDetail, error) {
	const op = "internal.service.lifecycle.GetProposal"

	p, err := s.propQuery.GetProposalByID(ctx, proposalID)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get proposal: %w", op, err)
	}

	apiProposal, err := toAPIProposal(p)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	detail := &api.ProposalDetail{
		Proposal:    *apiProposal,
		Validations: []api.ValidationCheck{},
		Votes:       []api.Vote{},
		Deployments: []api.Deployment{},
	}

	// History loads are best effort for display; a failure here must not
	// hide the proposal itself.
	if checks, err := s.validations.GetLatestBatch(ctx, proposalID); err != nil {
		s.log.Warn("failed to load validation batch", slog.String("op", op), slog.String("proposal_id", proposalID), sl.Err(err))
	} else {
		detail.Validations = toAPIValidations(checks)
	}

	votes, err := s.approvals.GetByProposalID(ctx, proposalID)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get votes: %w", op, err)
	}
	detail.Votes = toAPIVotes(votes)

	deps, err := s.deployments.GetByProposalID(ctx, proposalID)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get deployments: %w", op, err)
	}
	detail.Deployments = toAPIDeployments(deps)

	return detail, nil
}

func (s *LifecycleServiceImpl) ListProposals(ctx context.Context, filter repository.ProposalFilter) (*api.ListProposalsResponse, error) {
	const op = "internal.service.lifecycle.ListProposals"

	proposals, err := s.propQuery.ListProposals(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to list proposals: %w", op, err)
	}

	apiProposals := make([]api.Proposal, 0, len(proposals))
	for i := range proposals {
		p, err := toAPIProposal(&proposals[i])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		apiProposals = append(apiProposals, *p)
	}

	return &api.ListProposalsResponse{Proposals: apiProposals}, nil
}

func (s *LifecycleServiceImpl) GetValidationHistory(ctx context.Context, proposalID string) (*api.ValidationHistoryResponse, error) {
	const op = "internal.service.lifecycle.GetValidationHistory"

	if _, err := s.propQuery.GetProposalByID(ctx, proposalID); err != nil {
		return nil, fmt.Errorf("%s: failed to get proposal: %w", op, err)
	}

	checks, err := s.validations.GetByProposalID(ctx, proposalID)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get validation history: %w", op, err)
	}

	return &api.ValidationHistoryResponse{
		ProposalID:  proposalID,
		Validations: toAPIValidations(checks),
	}, nil
}

func (s *LifecycleServiceImpl) GetDeployments(ctx context.Context, proposalID string) (*api.DeploymentsResponse, error) {
	const op = "internal.service.lifecycle.GetDeployments"

	if _, err := s.propQuery.GetProposalByID(ctx, proposalID); err != nil {
		return nil, fmt.Errorf("%s: failed to get proposal: %w", op, err)
	}

	deps, err := s.deployments.GetByProposalID(ctx, proposalID)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get deployments: %w", op, err)
	}

	return &api.DeploymentsResponse{
		ProposalID:  proposalID,
		Deployments: toAPIDeployments(deps),
	}, nil
}

func (s *LifecycleServiceImpl) GetStats(ctx context.Context) (*api.StatsResponse, error) {
	const op = "internal.service.lifecycle.GetStats"

	stats, err := s.propQuery.GetStageStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get stage stats: %w", op, err)
	}

	stages := make([]api.StageCount, len(stats))
	for i, st := range stats {
		stages[i] = api.StageCount{
			LifecycleStage: st.LifecycleStage,
			Count:          st.Count,
		}
	}

	return &api.StatsResponse{Stages: stages}, nil
}

package http

import (
	"context"

	"github.com/mzhurov/feature-lifecycle-service/internal/domain"
	"github.com/mzhurov/feature-lifecycle-service/internal/repository"
	"github.com/mzhurov/feature-lifecycle-service/internal/service"
	"github.com/mzhurov/feature-lifecycle-service/pkg/api"
	"github.com/stretchr/testify/mock"
)

type LifecycleServiceMock struct {
	mock.Mock
}

var _ service.LifecycleService = (*LifecycleServiceMock)(nil)

func (m *LifecycleServiceMock) CreateProposal(ctx context.Context, in service.CreateProposalInput) (*api.Proposal, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*api.Proposal), args.Error(1)
}

func (m *LifecycleServiceMock) GenerateAndValidate(ctx context.Context, proposalID string) (*api.Proposal, error) {
	args := m.Called(ctx, proposalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*api.Proposal), args.Error(1)
}

func (m *LifecycleServiceMock) Validate(ctx context.Context, proposalID string) (*api.Proposal, error) {
	args := m.Called(ctx, proposalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*api.Proposal), args.Error(1)
}

func (m *LifecycleServiceMock) CastVote(ctx context.Context, proposalID string, actor domain.Actor, decision api.VoteDecision, comments *string) (*api.VoteResponse, error) {
	args := m.Called(ctx, proposalID, actor, decision, comments)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*api.VoteResponse), args.Error(1)
}

func (m *LifecycleServiceMock) Publish(ctx context.Context, proposalID string) (*api.PublishResponse, error) {
	args := m.Called(ctx, proposalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*api.PublishResponse), args.Error(1)
}

func (m *LifecycleServiceMock) ConfirmDeployed(ctx context.Context, proposalID string, actor domain.Actor) (*api.ConfirmDeploymentResponse, error) {
	args := m.Called(ctx, proposalID, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*api.ConfirmDeploymentResponse), args.Error(1)
}

func (m *LifecycleServiceMock) GetProposal(ctx context.Context, proposalID string) (*api.ProposalDetail, error) {
	args := m.Called(ctx, proposalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*api.ProposalDetail), args.Error(1)
}

func (m *LifecycleServiceMock) ListProposals(ctx context.Context, filter repository.ProposalFilter) (*api.ListProposalsResponse, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*api.ListProposalsResponse), args.Error(1)
}

func (m *LifecycleServiceMock) GetValidationHistory(ctx context.Context, proposalID string) (*api.ValidationHistoryResponse, error) {
	args := m.Called(ctx, proposalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*api.ValidationHistoryResponse), args.Error(1)
}

func (m *LifecycleServiceMock) GetDeployments(ctx context.Context, proposalID string) (*api.DeploymentsResponse, error) {
	args := m.Called(ctx, proposalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*api.DeploymentsResponse), args.Error(1)
}

func (m *LifecycleServiceMock) GetStats(ctx context.Context) (*api.StatsResponse, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*api.StatsResponse), args.Error(1)
}

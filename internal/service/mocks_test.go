package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/mzhurov/feature-lifecycle-service/internal/domain"
	"github.com/mzhurov/feature-lifecycle-service/internal/repository"
	"github.com/mzhurov/feature-lifecycle-service/pkg/api"
	"github.com/stretchr/testify/mock"
)

type TransactorMock struct {
	mock.Mock
}

func (m *TransactorMock) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	var tx *sqlx.Tx

	args := m.Called(ctx, opts)
	if args.Get(0) != nil {
		tx = args.Get(0).(*sqlx.Tx)
	}

	return tx, args.Error(1)
}

type ProposalCommandRepositoryMock struct {
	mock.Mock
}

var _ repository.ProposalCommandRepository = (*ProposalCommandRepositoryMock)(nil)

func (m *ProposalCommandRepositoryMock) CreateProposal(ctx context.Context, tx *sqlx.Tx, p *domain.Proposal) error {
	args := m.Called(ctx, tx, p)
	return args.Error(0)
}

func (m *ProposalCommandRepositoryMock) GetProposalByIDWithLock(ctx context.Context, tx *sqlx.Tx, proposalID string) (*domain.Proposal, error) {
	args := m.Called(ctx, tx, proposalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.Proposal), args.Error(1)
}

func (m *ProposalCommandRepositoryMock) UpdateStage(ctx context.Context, tx *sqlx.Tx, proposalID string, stage api.LifecycleStage, status api.ProposalStatus) error {
	args := m.Called(ctx, tx, proposalID, stage, status)
	return args.Error(0)
}

func (m *ProposalCommandRepositoryMock) SetProposedCode(ctx context.Context, tx *sqlx.Tx, proposalID string, code *string) error {
	args := m.Called(ctx, tx, proposalID, code)
	return args.Error(0)
}

func (m *ProposalCommandRepositoryMock) SetValidationScore(ctx context.Context, tx *sqlx.Tx, proposalID string, score int) error {
	args := m.Called(ctx, tx, proposalID, score)
	return args.Error(0)
}

func (m *ProposalCommandRepositoryMock) SetApprovalsCount(ctx context.Context, tx *sqlx.Tx, proposalID string, count int) error {
	args := m.Called(ctx, tx, proposalID, count)
	return args.Error(0)
}

type ProposalQueryRepositoryMock struct {
	mock.Mock
}

var _ repository.ProposalQueryRepository = (*ProposalQueryRepositoryMock)(nil)

func (m *ProposalQueryRepositoryMock) GetProposalByID(ctx context.Context, proposalID string) (*domain.Proposal, error) {
	args := m.Called(ctx, proposalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.Proposal), args.Error(1)
}

func (m *ProposalQueryRepositoryMock) ListProposals(ctx context.Context, filter repository.ProposalFilter) ([]domain.Proposal, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]domain.Proposal), args.Error(1)
}

func (m *ProposalQueryRepositoryMock) GetStageStats(ctx context.Context) ([]domain.StageCount, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]domain.StageCount), args.Error(1)
}

type ValidationRepositoryMock struct {
	mock.Mock
}

var _ repository.ValidationRepository = (*ValidationRepositoryMock)(nil)

func (m *ValidationRepositoryMock) InsertBatch(ctx context.Context, tx *sqlx.Tx, checks []domain.Validation) error {
	args := m.Called(ctx, tx, checks)
	return args.Error(0)
}

func (m *ValidationRepositoryMock) GetByProposalID(ctx context.Context, proposalID string) ([]domain.Validation, error) {
	args := m.Called(ctx, proposalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]domain.Validation), args.Error(1)
}

func (m *ValidationRepositoryMock) GetLatestBatch(ctx context.Context, proposalID string) ([]domain.Validation, error) {
	args := m.Called(ctx, proposalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]domain.Validation), args.Error(1)
}

type ApprovalRepositoryMock struct {
	mock.Mock
}

var _ repository.ApprovalRepository = (*ApprovalRepositoryMock)(nil)

func (m *ApprovalRepositoryMock) UpsertVote(ctx context.Context, tx *sqlx.Tx, vote *domain.Approval) error {
	args := m.Called(ctx, tx, vote)
	return args.Error(0)
}

func (m *ApprovalRepositoryMock) CountApproved(ctx context.Context, ext sqlx.ExtContext, proposalID string) (int, error) {
	args := m.Called(ctx, ext, proposalID)
	return args.Int(0), args.Error(1)
}

func (m *ApprovalRepositoryMock) GetByProposalID(ctx context.Context, proposalID string) ([]domain.Approval, error) {
	args := m.Called(ctx, proposalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]domain.Approval), args.Error(1)
}

type DeploymentRepositoryMock struct {
	mock.Mock
}

var _ repository.DeploymentRepository = (*DeploymentRepositoryMock)(nil)

func (m *DeploymentRepositoryMock) Create(ctx context.Context, tx *sqlx.Tx, dep *domain.Deployment) error {
	args := m.Called(ctx, tx, dep)
	return args.Error(0)
}

func (m *DeploymentRepositoryMock) GetLatestPendingWithLock(ctx context.Context, tx *sqlx.Tx, proposalID string) (*domain.Deployment, error) {
	args := m.Called(ctx, tx, proposalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.Deployment), args.Error(1)
}

func (m *DeploymentRepositoryMock) MarkDeployed(ctx context.Context, tx *sqlx.Tx, deploymentID string, deployedBy string, deployedAt time.Time) error {
	args := m.Called(ctx, tx, deploymentID, deployedBy, deployedAt)
	return args.Error(0)
}

func (m *DeploymentRepositoryMock) GetByProposalID(ctx context.Context, proposalID string) ([]domain.Deployment, error) {
	args := m.Called(ctx, proposalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]domain.Deployment), args.Error(1)
}

type CodeGeneratorMock struct {
	mock.Mock
}

var _ CodeGenerator = (*CodeGeneratorMock)(nil)

func (m *CodeGeneratorMock) Generate(ctx context.Context, proposalID, title, description string) (*api.CodeBundle, error) {
	args := m.Called(ctx, proposalID, title, description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*api.CodeBundle), args.Error(1)
}

type CodeValidatorMock struct {
	mock.Mock
}

var _ CodeValidator = (*CodeValidatorMock)(nil)

func (m *CodeValidatorMock) Validate(ctx context.Context, proposalID string, code api.CodeBundle, title, description string) (*domain.ValidationResult, error) {
	args := m.Called(ctx, proposalID, code, title, description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.ValidationResult), args.Error(1)
}

type IntegrationPublisherMock struct {
	mock.Mock
}

var _ IntegrationPublisher = (*IntegrationPublisherMock)(nil)

func (m *IntegrationPublisherMock) Publish(ctx context.Context, proposalID, title, description string, code api.CodeBundle) (string, error) {
	args := m.Called(ctx, proposalID, title, description, code)
	return args.String(0), args.Error(1)
}

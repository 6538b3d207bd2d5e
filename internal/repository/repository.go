// package repository defines the interfaces for the data persistence layer.
// These interfaces abstract the underlying database implementation from the
// service layer.
package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/mzhurov/feature-lifecycle-service/internal/domain"
	"github.com/mzhurov/feature-lifecycle-service/pkg/api"
)

// ProposalFilter narrows proposal listings. Nil fields match everything.
type ProposalFilter struct {
	Stage  *api.LifecycleStage
	Status *api.ProposalStatus
}

// ProposalCommandRepository defines write and locking operations on
// proposals. All methods are expected to be executed within a transaction.
type ProposalCommandRepository interface {
	// CreateProposal inserts a new proposal record.
	CreateProposal(ctx context.Context, tx *sqlx.Tx, p *domain.Proposal) error

	// GetProposalByIDWithLock retrieves a proposal and acquires a row-level
	// lock ("FOR UPDATE") so concurrent lifecycle transitions serialize.
	// It returns apperrors.ErrNotFound if the proposal does not exist.
	GetProposalByIDWithLock(ctx context.Context, tx *sqlx.Tx, proposalID string) (*domain.Proposal, error)

	// UpdateStage sets the lifecycle stage and the derived coarse status.
	// It returns apperrors.ErrNotFound if the proposal does not exist.
	UpdateStage(ctx context.Context, tx *sqlx.Tx, proposalID string, stage api.LifecycleStage, status api.ProposalStatus) error

	// SetProposedCode replaces the stored code bundle. A nil value discards
	// the bundle, which is what regeneration does on entry to `generating`.
	SetProposedCode(ctx context.Context, tx *sqlx.Tx, proposalID string, code *string) error

	// SetValidationScore records the score of the most recent validator run.
	SetValidationScore(ctx context.Context, tx *sqlx.Tx, proposalID string, score int) error

	// SetApprovalsCount overwrites the derived approvals counter. Callers
	// must pass a value freshly recomputed from the approvals table, never
	// an incremented copy of a previously read counter.
	SetApprovalsCount(ctx context.Context, tx *sqlx.Tx, proposalID string, count int) error
}

// ProposalQueryRepository defines read-only proposal operations.
type ProposalQueryRepository interface {
	// GetProposalByID retrieves a single proposal.
	// Returns apperrors.ErrNotFound if the proposal does not exist.
	GetProposalByID(ctx context.Context, proposalID string) (*domain.Proposal, error)

	// ListProposals returns proposals matching the filter, newest first.
	ListProposals(ctx context.Context, filter ProposalFilter) ([]domain.Proposal, error)

	// GetStageStats returns proposal counts grouped by lifecycle stage.
	GetStageStats(ctx context.Context) ([]domain.StageCount, error)
}

// ValidationRepository manages the append-only validation history.
type ValidationRepository interface {
	// InsertBatch appends one full validator run. Prior batches are never
	// modified or deleted.
	InsertBatch(ctx context.Context, tx *sqlx.Tx, checks []domain.Validation) error

	// GetByProposalID returns the full check history, newest batch first.
	GetByProposalID(ctx context.Context, proposalID string) ([]domain.Validation, error)

	// GetLatestBatch returns the checks of the most recent validator run,
	// or an empty slice when the proposal has never been validated.
	GetLatestBatch(ctx context.Context, proposalID string) ([]domain.Validation, error)
}

// ApprovalRepository is the voting ledger.
type ApprovalRepository interface {
	// UpsertVote records a decision keyed on (proposal, approver); a repeat
	// vote replaces the prior row rather than adding a second ballot.
	UpsertVote(ctx context.Context, tx *sqlx.Tx, vote *domain.Approval) error

	// CountApproved re-derives the approved-decision count with a fresh
	// query. The ext argument allows execution inside the voting transaction.
	CountApproved(ctx context.Context, ext sqlx.ExtContext, proposalID string) (int, error)

	// GetByProposalID returns all current decisions for a proposal.
	GetByProposalID(ctx context.Context, proposalID string) ([]domain.Approval, error)
}

// DeploymentRepository tracks publish attempts and rollout confirmations.
type DeploymentRepository interface {
	// Create inserts one deployment row for a publisher invocation.
	Create(ctx context.Context, tx *sqlx.Tx, dep *domain.Deployment) error

	// GetLatestPendingWithLock retrieves the most recent pending deployment
	// for the proposal and locks it for update.
	// Returns apperrors.ErrNotFound when no pending deployment exists.
	GetLatestPendingWithLock(ctx context.Context, tx *sqlx.Tx, proposalID string) (*domain.Deployment, error)

	// MarkDeployed flips a deployment to success and stamps the confirming
	// actor and time.
	MarkDeployed(ctx context.Context, tx *sqlx.Tx, deploymentID string, deployedBy string, deployedAt time.Time) error

	// GetByProposalID returns the deployment history, newest first.
	GetByProposalID(ctx context.Context, proposalID string) ([]domain.Deployment, error)
}

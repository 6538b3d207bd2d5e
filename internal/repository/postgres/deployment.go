package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/mzhurov/feature-lifecycle-service/internal/apperrors"
	"github.com/mzhurov/feature-lifecycle-service/internal/domain"
	"github.com/mzhurov/feature-lifecycle-service/pkg/api"
)

var deploymentColumns = []string{
	"id", "proposal_id", "pr_url", "merge_commit", "environment", "status",
	"deployed_at", "deployed_by", "created_at",
}

type DeploymentRepository struct {
	db  *sqlx.DB
	log *slog.Logger
	sq  sq.StatementBuilderType
}

func NewDeploymentRepository(db *sqlx.DB, log *slog.Logger) *DeploymentRepository {
	return &DeploymentRepository{
		db:  db,
		log: log,
		sq:  sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *DeploymentRepository) Create(ctx context.Context, tx *sqlx.Tx, dep *domain.Deployment) error {
	const op = "internal.repository.postgres.CreateDeployment"

	query, args, err := r.sq.Insert("deployments").
		Columns(deploymentColumns...).
		Values(
			dep.ID, dep.ProposalID, dep.PRURL, dep.MergeCommit, dep.Environment, dep.Status,
			dep.DeployedAt, dep.DeployedBy, dep.CreatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: failed to build insert query: %w", op, err)
	}

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%s: failed to execute insert: %w", op, err)
	}

	return nil
}

func (r *DeploymentRepository) GetLatestPendingWithLock(ctx context.Context, tx *sqlx.Tx, proposalID string) (*domain.Deployment, error) {
	const op = "internal.repository.postgres.GetLatestPendingWithLock"

	query, args, err := r.sq.Select(deploymentColumns...).
		From("deployments").
		Where(sq.Eq{"proposal_id": proposalID, "status": api.DeploymentPending}).
		OrderBy("created_at DESC").
		Limit(1).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var dep domain.Deployment
	if err := tx.GetContext(ctx, &dep, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w: no pending deployment for proposal '%s'", op, apperrors.ErrNotFound, proposalID)
		}

		return nil, fmt.Errorf("%s: failed to get pending deployment: %w", op, err)
	}

	return &dep, nil
}

func (r *DeploymentRepository) MarkDeployed(ctx context.Context, tx *sqlx.Tx, deploymentID string, deployedBy string, deployedAt time.Time) error {
	const op = "internal.repository.postgres.MarkDeployed"

	query, args, err := r.sq.Update("deployments").
		Set("status", api.DeploymentSuccess).
		Set("deployed_by", deployedBy).
		Set("deployed_at", deployedAt).
		Where(sq.Eq{"id": deploymentID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: failed to build update query: %w", op, err)
	}

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: failed to execute update: %w", op, err)
	}

	if rowsAffected, err := res.RowsAffected(); err == nil && rowsAffected == 0 {
		return fmt.Errorf("%s: %w: deployment with id '%s'", op, apperrors.ErrNotFound, deploymentID)
	}

	return nil
}

func (r *DeploymentRepository) GetByProposalID(ctx context.Context, proposalID string) ([]domain.Deployment, error) {
	const op = "internal.repository.postgres.GetDeploymentsByProposalID"

	query, args, err := r.sq.Select(deploymentColumns...).
		From("deployments").
		Where(sq.Eq{"proposal_id": proposalID}).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var deps []domain.Deployment
	if err := r.db.SelectContext(ctx, &deps, query, args...); err != nil {
		return nil, fmt.Errorf("%s: failed to execute query: %w", op, err)
	}

	return deps, nil
}

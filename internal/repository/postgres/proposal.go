package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/mzhurov/feature-lifecycle-service/internal/apperrors"
	"github.com/mzhurov/feature-lifecycle-service/internal/domain"
	"github.com/mzhurov/feature-lifecycle-service/internal/repository"
	"github.com/mzhurov/feature-lifecycle-service/pkg/api"
)

var proposalColumns = []string{
	"id", "title", "description", "status", "lifecycle_stage",
	"proposed_code", "validation_score", "approvals_count", "required_approvals",
	"review_notes", "requested_by", "priority", "category",
	"created_at", "updated_at",
}

type ProposalRepository struct {
	db  *sqlx.DB
	log *slog.Logger
	sq  sq.StatementBuilderType
}

func NewProposalRepository(db *sqlx.DB, log *slog.Logger) *ProposalRepository {
	return &ProposalRepository{
		db:  db,
		log: log,
		sq:  sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *ProposalRepository) CreateProposal(ctx context.Context, tx *sqlx.Tx, p *domain.Proposal) error {
	const op = "internal.repository.postgres.CreateProposal"

	query, args, err := r.sq.Insert("proposals").
		Columns(
			"id", "title", "description", "status", "lifecycle_stage",
			"required_approvals", "review_notes", "requested_by", "priority", "category",
			"created_at", "updated_at",
		).
		Values(
			p.ID, p.Title, p.Description, p.Status, p.LifecycleStage,
			p.RequiredApprovals, p.ReviewNotes, p.RequestedBy, p.Priority, p.Category,
			p.CreatedAt, p.UpdatedAt,
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

func (r *ProposalRepository) GetProposalByID(ctx context.Context, proposalID string) (*domain.Proposal, error) {
	const op = "internal.repository.postgres.GetProposalByID"

	query, args, err := r.sq.Select(proposalColumns...).
		From("proposals").
		Where(sq.Eq{"id": proposalID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var p domain.Proposal
	if err := r.db.GetContext(ctx, &p, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w: proposal with id '%s'", op, apperrors.ErrNotFound, proposalID)
		}

		return nil, fmt.Errorf("%s: failed to get proposal: %w", op, err)
	}

	return &p, nil
}

func (r *ProposalRepository) GetProposalByIDWithLock(ctx context.Context, tx *sqlx.Tx, proposalID string) (*domain.Proposal, error) {
	const op = "internal.repository.postgres.GetProposalByIDWithLock"

	query, args, err := r.sq.Select(proposalColumns...).
		From("proposals").
		Where(sq.Eq{"id": proposalID}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var p domain.Proposal
	if err := tx.GetContext(ctx, &p, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w: proposal with id '%s'", op, apperrors.ErrNotFound, proposalID)
		}

		return nil, fmt.Errorf("%s: failed to get proposal with lock: %w", op, err)
	}

	return &p, nil
}

func (r *ProposalRepository) UpdateStage(ctx context.Context, tx *sqlx.Tx, proposalID string, stage api.LifecycleStage, status api.ProposalStatus) error {
	const op = "internal.repository.postgres.UpdateStage"

	query, args, err := r.sq.Update("proposals").
		Set("lifecycle_stage", stage).
		Set("status", status).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": proposalID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: failed to build update query: %w", op, err)
	}

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: failed to execute update: %w", op, err)
	}

	if rowsAffected, err := res.RowsAffected(); err == nil && rowsAffected == 0 {
		return fmt.Errorf("%s: %w: proposal with id '%s'", op, apperrors.ErrNotFound, proposalID)
	}

	return nil
}

func (r *ProposalRepository) SetProposedCode(ctx context.Context, tx *sqlx.Tx, proposalID string, code *string) error {
	const op = "internal.repository.postgres.SetProposedCode"

	query, args, err := r.sq.Update("proposals").
		Set("proposed_code", code).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": proposalID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: failed to build update query: %w", op, err)
	}

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%s: failed to execute update: %w", op, err)
	}

	return nil
}

func (r *ProposalRepository) SetValidationScore(ctx context.Context, tx *sqlx.Tx, proposalID string, score int) error {
	const op = "internal.repository.postgres.SetValidationScore"

	query, args, err := r.sq.Update("proposals").
		Set("validation_score", score).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": proposalID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: failed to build update query: %w", op, err)
	}

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%s: failed to execute update: %w", op, err)
	}

	return nil
}

func (r *ProposalRepository) SetApprovalsCount(ctx context.Context, tx *sqlx.Tx, proposalID string, count int) error {
	const op = "internal.repository.postgres.SetApprovalsCount"

	query, args, err := r.sq.Update("proposals").
		Set("approvals_count", count).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": proposalID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: failed to build update query: %w", op, err)
	}

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%s: failed to execute update: %w", op, err)
	}

	return nil
}

func (r *ProposalRepository) ListProposals(ctx context.Context, filter repository.ProposalFilter) ([]domain.Proposal, error) {
	const op = "internal.repository.postgres.ListProposals"

	queryBuilder := r.sq.Select(proposalColumns...).
		From("proposals").
		OrderBy("created_at DESC")

	if filter.Stage != nil {
		queryBuilder = queryBuilder.Where(sq.Eq{"lifecycle_stage": *filter.Stage})
	}

	if filter.Status != nil {
		queryBuilder = queryBuilder.Where(sq.Eq{"status": *filter.Status})
	}

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var proposals []domain.Proposal
	if err := r.db.SelectContext(ctx, &proposals, query, args...); err != nil {
		return nil, fmt.Errorf("%s: failed to execute query: %w", op, err)
	}

	return proposals, nil
}

func (r *ProposalRepository) GetStageStats(ctx context.Context) ([]domain.StageCount, error) {
	const op = "internal.repository.postgres.GetStageStats"

	query, args, err := r.sq.Select(
		"lifecycle_stage",
		"COUNT(*) as count",
	).
		From("proposals").
		GroupBy("lifecycle_stage").
		OrderBy("lifecycle_stage").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var stats []domain.StageCount
	if err := r.db.SelectContext(ctx, &stats, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return []domain.StageCount{}, nil
		}

		return nil, fmt.Errorf("%s: failed to execute query: %w", op, err)
	}

	return stats, nil
}

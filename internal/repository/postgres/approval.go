package postgres

import (
	"context"
	"fmt"
	"log/slog"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/mzhurov/feature-lifecycle-service/internal/domain"
	"github.com/mzhurov/feature-lifecycle-service/pkg/api"
)

type ApprovalRepository struct {
	db  *sqlx.DB
	log *slog.Logger
	sq  sq.StatementBuilderType
}

func NewApprovalRepository(db *sqlx.DB, log *slog.Logger) *ApprovalRepository {
	return &ApprovalRepository{
		db:  db,
		log: log,
		sq:  sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *ApprovalRepository) UpsertVote(ctx context.Context, tx *sqlx.Tx, vote *domain.Approval) error {
	const op = "internal.repository.postgres.UpsertVote"

	// Last decision wins: a repeat vote from the same approver replaces the
	// existing row instead of adding a second ballot.
	query, args, err := r.sq.Insert("approvals").
		Columns("id", "proposal_id", "approver_id", "decision", "comments", "decided_at").
		Values(vote.ID, vote.ProposalID, vote.ApproverID, vote.Decision, vote.Comments, vote.DecidedAt).
		Suffix(`ON CONFLICT (proposal_id, approver_id) DO UPDATE SET
			decision = EXCLUDED.decision,
			comments = EXCLUDED.comments,
			decided_at = EXCLUDED.decided_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: failed to build upsert query: %w", op, err)
	}

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%s: failed to execute upsert: %w", op, err)
	}

	return nil
}

func (r *ApprovalRepository) CountApproved(ctx context.Context, ext sqlx.ExtContext, proposalID string) (int, error) {
	const op = "internal.repository.postgres.CountApproved"

	query, args, err := r.sq.Select("COUNT(*)").
		From("approvals").
		Where(sq.Eq{"proposal_id": proposalID, "decision": api.DecisionApproved}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var count int
	if err := sqlx.GetContext(ctx, ext, &count, query, args...); err != nil {
		return 0, fmt.Errorf("%s: failed to execute query: %w", op, err)
	}

	return count, nil
}

func (r *ApprovalRepository) GetByProposalID(ctx context.Context, proposalID string) ([]domain.Approval, error) {
	const op = "internal.repository.postgres.GetApprovalsByProposalID"

	query, args, err := r.sq.Select("id", "proposal_id", "approver_id", "decision", "comments", "decided_at").
		From("approvals").
		Where(sq.Eq{"proposal_id": proposalID}).
		OrderBy("decided_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var votes []domain.Approval
	if err := r.db.SelectContext(ctx, &votes, query, args...); err != nil {
		return nil, fmt.Errorf("%s: failed to execute query: %w", op, err)
	}

	return votes, nil
}

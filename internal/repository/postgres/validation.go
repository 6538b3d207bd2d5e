package postgres

import (
	"context"
	"fmt"
	"log/slog"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/mzhurov/feature-lifecycle-service/internal/domain"
)

var validationColumns = []string{
	"id", "proposal_id", "batch_id", "validation_type", "status",
	"ai_feedback", "details", "created_at",
}

type ValidationRepository struct {
	db  *sqlx.DB
	log *slog.Logger
	sq  sq.StatementBuilderType
}

func NewValidationRepository(db *sqlx.DB, log *slog.Logger) *ValidationRepository {
	return &ValidationRepository{
		db:  db,
		log: log,
		sq:  sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *ValidationRepository) InsertBatch(ctx context.Context, tx *sqlx.Tx, checks []domain.Validation) error {
	const op = "internal.repository.postgres.InsertBatch"

	if len(checks) == 0 {
		return nil
	}

	insertBuilder := r.sq.Insert("validations").
		Columns(validationColumns...)

	for _, c := range checks {
		insertBuilder = insertBuilder.Values(
			c.ID, c.ProposalID, c.BatchID, c.ValidationType, c.Status,
			c.AIFeedback, c.Details, c.CreatedAt,
		)
	}

	query, args, err := insertBuilder.ToSql()
	if err != nil {
		return fmt.Errorf("%s: failed to build insert query: %w", op, err)
	}

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%s: failed to execute insert: %w", op, err)
	}

	return nil
}

func (r *ValidationRepository) GetByProposalID(ctx context.Context, proposalID string) ([]domain.Validation, error) {
	const op = "internal.repository.postgres.GetValidationsByProposalID"

	query, args, err := r.sq.Select(validationColumns...).
		From("validations").
		Where(sq.Eq{"proposal_id": proposalID}).
		OrderBy("created_at DESC", "validation_type").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var checks []domain.Validation
	if err := r.db.SelectContext(ctx, &checks, query, args...); err != nil {
		return nil, fmt.Errorf("%s: failed to execute query: %w", op, err)
	}

	return checks, nil
}

func (r *ValidationRepository) GetLatestBatch(ctx context.Context, proposalID string) ([]domain.Validation, error) {
	const op = "internal.repository.postgres.GetLatestBatch"

	// The current run is the batch with the newest created_at; earlier
	// batches stay in the table as history.
	query, args, err := r.sq.Select(validationColumns...).
		From("validations").
		Where(sq.Eq{"proposal_id": proposalID}).
		Where(sq.Expr(
			"batch_id = (SELECT batch_id FROM validations WHERE proposal_id = ? ORDER BY created_at DESC LIMIT 1)",
			proposalID,
		)).
		OrderBy("validation_type").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var checks []domain.Validation
	if err := r.db.SelectContext(ctx, &checks, query, args...); err != nil {
		return nil, fmt.Errorf("%s: failed to execute query: %w", op, err)
	}

	return checks, nil
}

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
	"github.com/mzhurov/feature-lifecycle-service/pkg/logger/sl"
)

// GenerateAndValidate runs the full generation pipeline for one explicit
// user trigger. Generation and validation are chained here, in the
// controller, so callers never have to re-invoke validation themselves.
// Neither external call is retried automatically.
func (s *LifecycleServiceImpl) GenerateAndValidate(ctx context.Context, proposalID string) (*api.Proposal, error) {
	const op = "internal.service.lifecycle.GenerateAndValidate"
	log := s.log.With(slog.String("op", op), slog.String("proposal_id", proposalID))

	var p *domain.Proposal

	err := s.transaction(ctx, op, func(tx *sqlx.Tx) error {
		var err error

		p, err = s.propCmd.GetProposalByIDWithLock(ctx, tx, proposalID)
		if err != nil {
			return fmt.Errorf("%s: failed to get proposal with lock: %w", op, err)
		}

		if !domain.CanRegenerate(p.LifecycleStage) {
			return &apperrors.StageConflictError{Event: "generate code for", Stage: p.LifecycleStage}
		}

		// Regeneration discards the previous bundle before the external call.
		if err := s.propCmd.SetProposedCode(ctx, tx, proposalID, nil); err != nil {
			return fmt.Errorf("%s: failed to discard proposed code: %w", op, err)
		}

		return s.propCmd.UpdateStage(ctx, tx, proposalID, api.StageGenerating, domain.StatusForStage(api.StageGenerating))
	})
	if err != nil {
		return nil, err
	}

	log.Info("code generation started")

	bundle, genErr := s.generator.Generate(ctx, proposalID, p.Title, p.Description)
	if genErr != nil {
		// A failed generation returns the proposal to draft; the human
		// re-triggers the pipeline once the error is resolved.
		if err := s.transaction(ctx, op, func(tx *sqlx.Tx) error {
			return s.propCmd.UpdateStage(ctx, tx, proposalID, api.StageDraft, domain.StatusForStage(api.StageDraft))
		}); err != nil {
			log.Error("failed to reset stage after generation failure", sl.Err(err))
		}

		return nil, fmt.Errorf("%s: code generation failed: %w", op, genErr)
	}

	encoded, err := domain.EncodeCodeBundle(*bundle)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	err = s.transaction(ctx, op, func(tx *sqlx.Tx) error {
		return s.propCmd.SetProposedCode(ctx, tx, proposalID, &encoded)
	})
	if err != nil {
		return nil, err
	}

	log.Info("code generation completed, starting validation")

	return s.runValidation(ctx, op, p, *bundle)
}

// Validate runs the validation step on code that is already present. It
// fails fast when there is nothing to validate, before touching the
// external validator.
func (s *LifecycleServiceImpl) Validate(ctx context.Context, proposalID string) (*api.Proposal, error) {
	const op = "internal.service.lifecycle.Validate"

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

		if p.ProposedCode == nil {
			return fmt.Errorf("%s: %w", op, apperrors.ErrNothingToValidate)
		}

		if !domain.CanValidate(p.LifecycleStage) {
			return &apperrors.StageConflictError{Event: "validate", Stage: p.LifecycleStage}
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

	return s.runValidation(ctx, op, p, *bundle)
}

// runValidation invokes the external validator, appends a full new
// validation batch and advances the stage by score. A validator error
// leaves the proposal in `generating`: the code bundle survived, only the
// validation step needs a re-trigger.
func (s *LifecycleServiceImpl) runValidation(ctx context.Context, op string, p *domain.Proposal, bundle api.CodeBundle) (*api.Proposal, error) {
	log := s.log.With(slog.String("op", op), slog.String("proposal_id", p.ID))

	err := s.transaction(ctx, op, func(tx *sqlx.Tx) error {
		return s.propCmd.UpdateStage(ctx, tx, p.ID, api.StageValidating, domain.StatusForStage(api.StageValidating))
	})
	if err != nil {
		return nil, err
	}

	result, valErr := s.validator.Validate(ctx, p.ID, bundle, p.Title, p.Description)
	if valErr != nil {
		if err := s.transaction(ctx, op, func(tx *sqlx.Tx) error {
			return s.propCmd.UpdateStage(ctx, tx, p.ID, api.StageGenerating, domain.StatusForStage(api.StageGenerating))
		}); err != nil {
			log.Error("failed to reset stage after validation failure", sl.Err(err))
		}

		return nil, fmt.Errorf("%s: code was generated but validation failed: %w", op, valErr)
	}

	batchID := uuid.NewString()
	now := time.Now().UTC()

	checks := make([]domain.Validation, len(result.Checks))
	for i, c := range result.Checks {
		var feedback *string
		if c.Feedback != "" {
			f := c.Feedback
			feedback = &f
		}

		checks[i] = domain.Validation{
			ID:             uuid.NewString(),
			ProposalID:     p.ID,
			BatchID:        batchID,
			ValidationType: c.Type,
			Status:         c.Status,
			AIFeedback:     feedback,
			Details:        []byte(c.Details),
			CreatedAt:      now,
		}
	}

	nextStage := domain.StageForScore(result.Score)

	err = s.transaction(ctx, op, func(tx *sqlx.Tx) error {
		if err := s.validations.InsertBatch(ctx, tx, checks); err != nil {
			return fmt.Errorf("%s: failed to insert validation batch: %w", op, err)
		}

		if err := s.propCmd.SetValidationScore(ctx, tx, p.ID, result.Score); err != nil {
			return fmt.Errorf("%s: failed to set validation score: %w", op, err)
		}

		return s.propCmd.UpdateStage(ctx, tx, p.ID, nextStage, domain.StatusForStage(nextStage))
	})
	if err != nil {
		return nil, err
	}

	log.Info("validation completed",
		slog.Int("score", result.Score),
		slog.String("stage", string(nextStage)),
	)

	updated, err := s.propQuery.GetProposalByID(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to reload proposal: %w", op, err)
	}

	return toAPIProposal(updated)
}

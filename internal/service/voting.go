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

// CastVote records one approver's decision and recomputes the proposal's
// standing. The entire operation runs in a single transaction holding a
// row lock on the proposal, so two simultaneous votes serialize and the
// second one sees the first one's ledger row.
func (s *LifecycleServiceImpl) CastVote(
	ctx context.Context,
	proposalID string,
	actor domain.Actor,
	decision api.VoteDecision,
	comments *string,
) (*api.VoteResponse, error) {
	const op = "internal.service.lifecycle.CastVote"
	log := s.log.With(slog.String("op", op), slog.String("proposal_id", proposalID))

	if actor.Empty() {
		return nil, fmt.Errorf("%s: %w", op, apperrors.ErrNotAuthenticated)
	}

	vote := &domain.Approval{
		ID:         uuid.NewString(),
		ProposalID: proposalID,
		ApproverID: actor.String(),
		Decision:   decision,
		Comments:   comments,
		DecidedAt:  time.Now().UTC(),
	}

	var p *domain.Proposal

	err := s.transaction(ctx, op, func(tx *sqlx.Tx) error {
		var err error

		p, err = s.propCmd.GetProposalByIDWithLock(ctx, tx, proposalID)
		if err != nil {
			return fmt.Errorf("%s: failed to get proposal with lock: %w", op, err)
		}

		if !domain.CanVote(p.LifecycleStage) {
			return &apperrors.StageConflictError{Event: "vote on", Stage: p.LifecycleStage}
		}

		if err := s.approvals.UpsertVote(ctx, tx, vote); err != nil {
			return fmt.Errorf("%s: failed to upsert vote: %w", op, err)
		}

		// The counter is always overwritten with a fresh count from the
		// ledger. Changed votes are handled for free this way.
		count, err := s.approvals.CountApproved(ctx, tx, proposalID)
		if err != nil {
			return fmt.Errorf("%s: failed to count approvals: %w", op, err)
		}

		if err := s.propCmd.SetApprovalsCount(ctx, tx, proposalID, count); err != nil {
			return fmt.Errorf("%s: failed to set approvals count: %w", op, err)
		}
		p.ApprovalsCount = count

		nextStage := p.LifecycleStage
		switch {
		case decision == api.DecisionRejected:
			// One rejection is terminal regardless of how many approvals
			// have accumulated.
			nextStage = api.StageRejected
		case count >= p.RequiredApprovals:
			nextStage = api.StageApproved
		}

		if nextStage != p.LifecycleStage {
			if err := s.propCmd.UpdateStage(ctx, tx, proposalID, nextStage, domain.StatusForStage(nextStage)); err != nil {
				return fmt.Errorf("%s: failed to update stage: %w", op, err)
			}
			p.LifecycleStage = nextStage
			p.Status = domain.StatusForStage(nextStage)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("vote recorded",
		slog.String("approver_id", actor.String()),
		slog.String("decision", string(decision)),
		slog.Int("approvals_count", p.ApprovalsCount),
		slog.String("stage", string(p.LifecycleStage)),
	)

	apiProposal, err := toAPIProposal(p)
	if err != nil {
		s.log.Error("failed to map proposal", slog.String("op", op), sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &api.VoteResponse{
		Proposal: *apiProposal,
		Vote:     toAPIVote(vote),
	}, nil
}

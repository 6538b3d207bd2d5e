package domain

import (
	"time"

	"github.com/mzhurov/feature-lifecycle-service/pkg/api"
)

// Actor identifies the human (or system) performing an operation. It is
// always passed in explicitly; the service never reads identity from
// ambient state.
type Actor string

func (a Actor) Empty() bool { return a == "" }

func (a Actor) String() string { return string(a) }

type Proposal struct {
	ID                string             `db:"id"`
	Title             string             `db:"title"`
	Description       string             `db:"description"`
	Status            api.ProposalStatus `db:"status"`
	LifecycleStage    api.LifecycleStage `db:"lifecycle_stage"`
	ProposedCode      *string            `db:"proposed_code"`
	ValidationScore   *int               `db:"validation_score"`
	ApprovalsCount    int                `db:"approvals_count"`
	RequiredApprovals int                `db:"required_approvals"`
	ReviewNotes       string             `db:"review_notes"`
	RequestedBy       *string            `db:"requested_by"`
	Priority          api.Priority       `db:"priority"`
	Category          string             `db:"category"`
	CreatedAt         time.Time          `db:"created_at"`
	UpdatedAt         time.Time          `db:"updated_at"`
}

// Validation is one automated check result. Rows are append-only; one
// validator run produces a batch of rows sharing a batch id.
type Validation struct {
	ID             string               `db:"id"`
	ProposalID     string               `db:"proposal_id"`
	BatchID        string               `db:"batch_id"`
	ValidationType string               `db:"validation_type"`
	Status         api.ValidationStatus `db:"status"`
	AIFeedback     *string              `db:"ai_feedback"`
	Details        []byte               `db:"details"`
	CreatedAt      time.Time            `db:"created_at"`
}

// Approval is one approver's current decision on a proposal. At most one
// row exists per (proposal, approver); a repeat vote replaces the row.
type Approval struct {
	ID         string           `db:"id"`
	ProposalID string           `db:"proposal_id"`
	ApproverID string           `db:"approver_id"`
	Decision   api.VoteDecision `db:"decision"`
	Comments   *string          `db:"comments"`
	DecidedAt  time.Time        `db:"decided_at"`
}

// Deployment records one publish attempt and, once confirmed, the
// production rollout.
type Deployment struct {
	ID          string               `db:"id"`
	ProposalID  string               `db:"proposal_id"`
	PRURL       *string              `db:"pr_url"`
	MergeCommit *string              `db:"merge_commit"`
	Environment api.Environment      `db:"environment"`
	Status      api.DeploymentStatus `db:"status"`
	DeployedAt  *time.Time           `db:"deployed_at"`
	DeployedBy  *string              `db:"deployed_by"`
	CreatedAt   time.Time            `db:"created_at"`
}

type StageCount struct {
	LifecycleStage api.LifecycleStage `db:"lifecycle_stage"`
	Count          int                `db:"count"`
}

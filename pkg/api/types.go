// package api defines the JSON types exposed by the HTTP layer.
// Lifecycle stages and review statuses are closed sets of string constants;
// handlers and services must never invent values outside of them.
package api

import "time"

// LifecycleStage is the fine-grained machine state of a proposal.
type LifecycleStage string

const (
	StageDraft            LifecycleStage = "draft"
	StageGenerating       LifecycleStage = "generating"
	StageValidating       LifecycleStage = "validating"
	StageValidationFailed LifecycleStage = "validation_failed"
	StagePendingApproval  LifecycleStage = "pending_approval"
	StageApproved         LifecycleStage = "approved"
	StageRejected         LifecycleStage = "rejected"
	StageMerged           LifecycleStage = "merged"
	StageDeployed         LifecycleStage = "deployed"
)

// ProposalStatus is the coarse, human-facing review label.
type ProposalStatus string

const (
	StatusPending     ProposalStatus = "pending"
	StatusReviewing   ProposalStatus = "reviewing"
	StatusApproved    ProposalStatus = "approved"
	StatusRejected    ProposalStatus = "rejected"
	StatusImplemented ProposalStatus = "implemented"
)

// VoteDecision is a single approver's current decision.
type VoteDecision string

const (
	DecisionApproved VoteDecision = "approved"
	DecisionRejected VoteDecision = "rejected"
)

// Priority orders proposals for human reviewers.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// ValidationStatus is the verdict of one automated check.
type ValidationStatus string

const (
	ValidationPending ValidationStatus = "pending"
	ValidationPassed  ValidationStatus = "passed"
	ValidationFailed  ValidationStatus = "failed"
	ValidationWarning ValidationStatus = "warning"
)

// DeploymentStatus tracks one publish/rollout attempt.
type DeploymentStatus string

const (
	DeploymentPending DeploymentStatus = "pending"
	DeploymentSuccess DeploymentStatus = "success"
	DeploymentFailed  DeploymentStatus = "failed"
)

// Environment names a deployment target.
type Environment string

const (
	EnvironmentStaging    Environment = "staging"
	EnvironmentProduction Environment = "production"
)

// CodeBundle is the atomic artifact produced by one generation run.
type CodeBundle struct {
	Frontend string `json:"frontend"`
	Backend  string `json:"backend"`
	Database string `json:"database"`
}

type Proposal struct {
	ID                string         `json:"id"`
	Title             string         `json:"title"`
	Description       string         `json:"description"`
	Status            ProposalStatus `json:"status"`
	LifecycleStage    LifecycleStage `json:"lifecycle_stage"`
	ProposedCode      *CodeBundle    `json:"proposed_code,omitempty"`
	ValidationScore   *int           `json:"validation_score,omitempty"`
	ApprovalsCount    int            `json:"approvals_count"`
	RequiredApprovals int            `json:"required_approvals"`
	ReviewNotes       string         `json:"review_notes,omitempty"`
	RequestedBy       *string        `json:"requested_by,omitempty"`
	Priority          Priority       `json:"priority"`
	Category          string         `json:"category,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

type ValidationCheck struct {
	ID             string           `json:"id"`
	BatchID        string           `json:"batch_id"`
	ValidationType string           `json:"validation_type"`
	Status         ValidationStatus `json:"status"`
	AIFeedback     *string          `json:"ai_feedback,omitempty"`
	Details        interface{}      `json:"details,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
}

type Vote struct {
	ProposalID string       `json:"proposal_id"`
	ApproverID string       `json:"approver_id"`
	Decision   VoteDecision `json:"decision"`
	Comments   *string      `json:"comments,omitempty"`
	DecidedAt  time.Time    `json:"decided_at"`
}

type Deployment struct {
	ID          string           `json:"id"`
	ProposalID  string           `json:"proposal_id"`
	PRURL       *string          `json:"pr_url,omitempty"`
	MergeCommit *string          `json:"merge_commit,omitempty"`
	Environment Environment      `json:"environment"`
	Status      DeploymentStatus `json:"status"`
	DeployedAt  *time.Time       `json:"deployed_at,omitempty"`
	DeployedBy  *string          `json:"deployed_by,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
}

// ProposalDetail is the full read model: the proposal plus its current
// validation batch, the vote list and the deployment history.
type ProposalDetail struct {
	Proposal    Proposal          `json:"proposal"`
	Validations []ValidationCheck `json:"validations"`
	Votes       []Vote            `json:"votes"`
	Deployments []Deployment      `json:"deployments"`
}

type ListProposalsResponse struct {
	Proposals []Proposal `json:"proposals"`
}

type VoteResponse struct {
	Proposal Proposal `json:"proposal"`
	Vote     Vote     `json:"vote"`
}

type PublishResponse struct {
	Proposal   Proposal   `json:"proposal"`
	Deployment Deployment `json:"deployment"`
}

type ConfirmDeploymentResponse struct {
	Proposal   Proposal   `json:"proposal"`
	Deployment Deployment `json:"deployment"`
}

type ValidationHistoryResponse struct {
	ProposalID  string            `json:"proposal_id"`
	Validations []ValidationCheck `json:"validations"`
}

type DeploymentsResponse struct {
	ProposalID  string       `json:"proposal_id"`
	Deployments []Deployment `json:"deployments"`
}

type StageCount struct {
	LifecycleStage LifecycleStage `json:"lifecycle_stage"`
	Count          int            `json:"count"`
}

type StatsResponse struct {
	Stages []StageCount `json:"stages"`
}

// ErrorResponseErrorCode enumerates machine-readable error codes.
type ErrorResponseErrorCode string

const (
	CodeNotFound             ErrorResponseErrorCode = "NOT_FOUND"
	CodeStageConflict        ErrorResponseErrorCode = "STAGE_CONFLICT"
	CodeNothingToValidate    ErrorResponseErrorCode = "NOTHING_TO_VALIDATE"
	CodeNotAuthenticated     ErrorResponseErrorCode = "NOT_AUTHENTICATED"
	CodePublishNotConfigured ErrorResponseErrorCode = "PUBLISH_NOT_CONFIGURED"
	CodeUpstreamFailed       ErrorResponseErrorCode = "UPSTREAM_FAILED"
	CodeValidationError      ErrorResponseErrorCode = "VALIDATION_ERROR"
	CodeInternal             ErrorResponseErrorCode = "INTERNAL"
)

type ErrorResponse struct {
	Error struct {
		Code    ErrorResponseErrorCode `json:"code"`
		Message string                 `json:"message"`
	} `json:"error"`
}

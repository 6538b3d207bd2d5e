package domain

import (
	"encoding/json"
	"fmt"

	"github.com/mzhurov/feature-lifecycle-service/pkg/api"
)

// PassThreshold is the fixed validation score separating pending_approval
// from validation_failed.
const PassThreshold = 70

// CanRegenerate reports whether code generation may be started from the
// given stage. validation_failed and rejected are recoverable: regeneration
// is their only forward edge.
func CanRegenerate(stage api.LifecycleStage) bool {
	switch stage {
	case api.StageDraft, api.StageValidationFailed, api.StageRejected:
		return true
	}

	return false
}

// CanValidate reports whether a validation run may be started. Validation
// follows generation; `generating` covers the partial-failure case where
// generation succeeded but the validator call errored.
func CanValidate(stage api.LifecycleStage) bool {
	return stage == api.StageGenerating || stage == api.StageValidating
}

// CanVote reports whether approval votes are accepted in the given stage.
// `approved` still takes votes: until the code is published, a late
// rejection overturns the outcome.
func CanVote(stage api.LifecycleStage) bool {
	return stage == api.StagePendingApproval || stage == api.StageApproved
}

// CanPublish reports whether the proposal can be handed to the integration
// publisher.
func CanPublish(stage api.LifecycleStage) bool {
	return stage == api.StageApproved
}

// CanConfirmDeploy reports whether a production rollout can be confirmed.
func CanConfirmDeploy(stage api.LifecycleStage) bool {
	return stage == api.StageMerged
}

// StageForScore maps a validation run's score onto the next stage.
func StageForScore(score int) api.LifecycleStage {
	if score >= PassThreshold {
		return api.StagePendingApproval
	}

	return api.StageValidationFailed
}

// StatusForStage derives the coarse human-facing review status from the
// machine stage.
func StatusForStage(stage api.LifecycleStage) api.ProposalStatus {
	switch stage {
	case api.StagePendingApproval:
		return api.StatusReviewing
	case api.StageApproved, api.StageMerged:
		return api.StatusApproved
	case api.StageRejected:
		return api.StatusRejected
	case api.StageDeployed:
		return api.StatusImplemented
	default:
		return api.StatusPending
	}
}

// EncodeCodeBundle serializes the three generated artifacts as one atomic
// value for the proposed_code column.
func EncodeCodeBundle(bundle api.CodeBundle) (string, error) {
	b, err := json.Marshal(bundle)
	if err != nil {
		return "", fmt.Errorf("failed to encode code bundle: %w", err)
	}

	return string(b), nil
}

// DecodeCodeBundle parses a stored proposed_code value. A nil input yields
// a nil bundle.
func DecodeCodeBundle(raw *string) (*api.CodeBundle, error) {
	if raw == nil {
		return nil, nil
	}

	var bundle api.CodeBundle
	if err := json.Unmarshal([]byte(*raw), &bundle); err != nil {
		return nil, fmt.Errorf("failed to decode code bundle: %w", err)
	}

	return &bundle, nil
}

package apperrors

import (
	"errors"
	"fmt"

	"github.com/mzhurov/feature-lifecycle-service/pkg/api"
)

var (
	ErrNotFound       = errors.New("resource not found")
	ErrInvalidRequest = errors.New("invalid request body")
	ErrValidation     = errors.New("validation failed")

	ErrNotAuthenticated  = errors.New("not authenticated")
	ErrNothingToValidate = errors.New("nothing to validate: proposal has no generated code")
	ErrStageConflict     = errors.New("operation not allowed in current lifecycle stage")

	ErrPublishNotConfigured = errors.New("integration publisher credentials are missing or expired")
)

// StageConflictError reports an operation attempted from a lifecycle stage
// the transition table does not allow it from.
type StageConflictError struct {
	Event string
	Stage api.LifecycleStage
}

func (e *StageConflictError) Error() string {
	return fmt.Sprintf("cannot %s a proposal in stage '%s'", e.Event, e.Stage)
}
func (e *StageConflictError) Is(target error) bool { return target == ErrStageConflict }

// PublishConfigError marks a publish failure caused by integration
// configuration rather than a transient fault. It carries a remediation
// hint so the operator knows where to fix the credential.
type PublishConfigError struct {
	Reason string
}

func (e *PublishConfigError) Error() string {
	return fmt.Sprintf("publisher configuration error: %s; update the integration credentials in the publisher settings and retry", e.Reason)
}
func (e *PublishConfigError) Is(target error) bool { return target == ErrPublishNotConfigured }

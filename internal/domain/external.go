package domain

import (
	"encoding/json"

	"github.com/mzhurov/feature-lifecycle-service/pkg/api"
)

// CheckResult is one per-check verdict returned by the code validator.
type CheckResult struct {
	Type     string               `json:"type"`
	Status   api.ValidationStatus `json:"status"`
	Feedback string               `json:"feedback"`
	Details  json.RawMessage      `json:"details,omitempty"`
}

// ValidationResult is the outcome of one code validator invocation.
type ValidationResult struct {
	Passed bool          `json:"passed"`
	Score  int           `json:"score"`
	Checks []CheckResult `json:"checks"`
}

package domain

import "fmt"

// Verdict decisions. The set is closed; anything else from the model is a
// validation failure, never passed through.
const (
	DecisionApprove        = "approve"
	DecisionRequestChanges = "request_changes"
	DecisionReject         = "reject"
)

// Verdict is the structured judgment returned by the model.
type Verdict struct {
	Decision        string   `json:"decision"`
	Confidence      float64  `json:"confidence"`
	Summary         string   `json:"summary"`
	Findings        []string `json:"findings"`
	Risks           []string `json:"risks"`
	Recommendations []string `json:"recommendations"`

	// Echoed target metadata so a verdict is self-describing.
	Target JudgmentTarget `json:"target"`
}

// Validate checks the closed decision set and the confidence range.
func (v *Verdict) Validate() error {
	switch v.Decision {
	case DecisionApprove, DecisionRequestChanges, DecisionReject:
	default:
		return fmt.Errorf("invalid decision %q", v.Decision)
	}
	if v.Confidence < 0 || v.Confidence > 1 {
		return fmt.Errorf("confidence %v outside [0,1]", v.Confidence)
	}
	return nil
}

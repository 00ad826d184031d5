package domain

// ClassificationResult is the adverse-event verdict for one message.
// It is final for the request: a positive verdict is never downgraded.
type ClassificationResult struct {
	IsAdverse  bool
	Confidence float64
	ReasonTag  string
}

type IntentSource string

const (
	IntentSourceRule    IntentSource = "rule"
	IntentSourceTrained IntentSource = "trained"
)

type IntentResult struct {
	Label  string
	Score  float64
	Source IntentSource
}

const (
	IntentNone             = "none"
	IntentFileRecovery     = "file_recovery"
	IntentSelfHarm         = "self_harm"
	IntentMedicalEmergency = "medical_emergency"
)

// IsCrisis reports whether the label must short-circuit the pipeline
// with an urgent reply regardless of heuristic scoring.
func (r IntentResult) IsCrisis() bool {
	return r.Label == IntentSelfHarm || r.Label == IntentMedicalEmergency
}
